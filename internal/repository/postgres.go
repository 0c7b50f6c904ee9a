package repository

import (
	"context"
	_ "embed"
	"errors"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/auroraa/watermark-engine/internal/werr"
	"github.com/auroraa/watermark-engine/pkg/models"
)

//go:embed schema.sql
var schemaSQL string

// PostgresStore is the production Repository, backed by a pgx connection
// pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Connect initializes the connection pool to PostgreSQL using pgx.
func Connect(ctx context.Context, connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, werr.Repository("repository.Connect", "unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, werr.Repository("repository.Connect", "ping failed: %w", err)
	}

	log.Println("connected to PostgreSQL for the watermark engine")
	return &PostgresStore{pool: pool}, nil
}

// Close gracefully closes the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema applies the embedded schema.sql.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return werr.Repository("repository.InitSchema", "failed to execute schema migrations: %w", err)
	}
	log.Println("watermark_records schema initialized")
	return nil
}

// Insert writes a new WatermarkRecord row. Called before the embed
// algorithm runs, per the compensating-write discipline.
func (s *PostgresStore) Insert(ctx context.Context, record models.WatermarkRecord) error {
	const sql = `
		INSERT INTO watermark_records
			(id, owner_id, content_type, mime_type, algorithm_version, status, created_at, content_hash, signature_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.pool.Exec(ctx, sql,
		record.ID, record.OwnerID, record.ContentType, record.MimeType,
		record.AlgorithmVersion, record.Status, record.CreatedAt,
		nullIfEmpty(record.ContentHash), nullIfEmpty(record.SignatureHash),
	)
	if err != nil {
		return werr.Repository("repository.Insert", "failed to insert watermark_records row: %w", err)
	}
	return nil
}

// Delete removes a WatermarkRecord row by id. Called to compensate for a
// failed embed after Insert already committed.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	const sql = `DELETE FROM watermark_records WHERE id = $1`
	if _, err := s.pool.Exec(ctx, sql, id); err != nil {
		return werr.Repository("repository.Delete", "failed to delete watermark_records row %s: %w", id, err)
	}
	return nil
}

// FindByID looks up a single record. Returns (nil, nil) if no row matches.
func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.WatermarkRecord, error) {
	const sql = `
		SELECT id, owner_id, content_type, mime_type, algorithm_version, status, created_at,
		       COALESCE(content_hash, ''), COALESCE(signature_hash, '')
		FROM watermark_records
		WHERE id = $1
	`
	row := s.pool.QueryRow(ctx, sql, id)
	record, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, werr.Repository("repository.FindByID", "failed to query watermark_records row %s: %w", id, err)
	}
	return &record, nil
}

// ListActive returns up to limit active records, most recent first. A limit
// outside 1..500 is replaced by 50.
func (s *PostgresStore) ListActive(ctx context.Context, limit int) ([]models.WatermarkRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	const sql = `
		SELECT id, owner_id, content_type, mime_type, algorithm_version, status, created_at,
		       COALESCE(content_hash, ''), COALESCE(signature_hash, '')
		FROM watermark_records
		WHERE status = 'active'
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.pool.Query(ctx, sql, limit)
	if err != nil {
		return nil, werr.Repository("repository.ListActive", "failed to query active watermark_records: %w", err)
	}
	defer rows.Close()

	records := make([]models.WatermarkRecord, 0, limit)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, werr.Repository("repository.ListActive", "failed to scan watermark_records row: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (models.WatermarkRecord, error) {
	var record models.WatermarkRecord
	err := row.Scan(
		&record.ID, &record.OwnerID, &record.ContentType, &record.MimeType,
		&record.AlgorithmVersion, &record.Status, &record.CreatedAt,
		&record.ContentHash, &record.SignatureHash,
	)
	return record, err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
