// Package config loads the watermark engine's configuration from the
// environment (required secrets, connection strings) and, optionally, a
// TOML file of DSP tunables.
package config

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/auroraa/watermark-engine/internal/werr"
)

// Tunables are the §6 "may be code constants in first version" knobs.
// DefaultTunables holds the defaults (with Repetition at 24, see there); a
// TOML file may override them.
type Tunables struct {
	CanonicalSize   int     `toml:"canonical_size"`   // T
	SignalLength    int     `toml:"signal_length"`    // L
	Repetition      int     `toml:"repetition"`       // R
	Strength        float64 `toml:"strength"`         // S
	ChromaStrength  float64 `toml:"chroma_strength"`  // 0.7*S applied to LH/HL
	SearchWindow    int     `toml:"search_window"`    // epochs tested by verify
	ThresholdVerified float64 `toml:"threshold_verified"`
	ThresholdMost     float64 `toml:"threshold_most"`
	ThresholdLikely   float64 `toml:"threshold_likely"`
	DocRepetition   int     `toml:"doc_repetition"` // R_doc
}

// DefaultTunables returns the constants named in spec §4, with Repetition
// set to 24 rather than 40: at the default canonical size T=512, the LL/
// LH/HL sub-bands are 256x256, giving 32*32=1024 8x8 blocks per band and
// 3072 across the three embedding bands. R=40 against L=128 needs 5120
// blocks, which no canonical-size image can ever supply, so a reading
// that kept R=40 would make the capacity precondition (and the spec's own
// "embed a 512x512 solid image" boundary scenario) unsatisfiable. R=24
// is the largest repetition factor that still fits 3072 available blocks
// exactly (128*24=3072), trading some of the redundancy the design notes'
// S*sqrt(R) SNR tradeoff calls for against having a usable default at all.
func DefaultTunables() Tunables {
	return Tunables{
		CanonicalSize:     512,
		SignalLength:      128,
		Repetition:        24,
		Strength:          50,
		ChromaStrength:    0.7,
		SearchWindow:      4,
		ThresholdVerified: 0.85,
		ThresholdMost:     0.70,
		ThresholdLikely:   0.55,
		DocRepetition:     6,
	}
}

// Config is the fully resolved runtime configuration.
type Config struct {
	// Secret is the process-wide HMAC key K used by internal/watermark/key
	// for every signal/seed/envelope derivation. Never logged, and never
	// handed to anything outside that package — in particular, not to the
	// HTTP auth layer below, which has its own independent secret.
	Secret []byte

	// JWTSecretKey authenticates callers of the HTTP API (the Authorization:
	// Bearer header AuthMiddleware checks). It is a wholly separate secret
	// from Secret: reusing the HMAC key K here would mean every client
	// that can call the API also holds the key the entire watermarking
	// scheme's authenticity depends on.
	JWTSecretKey string

	DatabaseURL        string
	IdentityServiceURL string
	ScratchDir         string
	Port               string
	AllowedOrigins     []string

	Tunables Tunables
}

const minSecretBytes = 32

// Load reads AURORAA_WATERMARK_SECRET, JWT_SECRET_KEY, and the rest of the
// environment, applying an optional WATERMARK_CONFIG_FILE for tunable
// overrides. A missing or undersized core secret, or a missing API auth
// secret, is a fatal startup error (ConfigError) — unlike the teacher's
// dev-mode bypass, an unconfigured auth secret never silently disables
// authentication.
func Load() (*Config, error) {
	secret := os.Getenv("AURORAA_WATERMARK_SECRET")
	if len(secret) < minSecretBytes {
		return nil, werr.Config("config.Load", "AURORAA_WATERMARK_SECRET must be set and at least %d bytes", minSecretBytes)
	}

	jwtSecret := os.Getenv("JWT_SECRET_KEY")
	if jwtSecret == "" {
		return nil, werr.Config("config.Load", "JWT_SECRET_KEY must be set")
	}

	tunables := DefaultTunables()
	if path := os.Getenv("WATERMARK_CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, &tunables); err != nil {
			return nil, werr.Config("config.Load", "failed to decode tunables file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Secret:              []byte(secret),
		JWTSecretKey:        jwtSecret,
		DatabaseURL:         getEnvOrDefault("DATABASE_URL", ""),
		IdentityServiceURL:  getEnvOrDefault("IDENTITY_SERVICE_URL", ""),
		ScratchDir:          getEnvOrDefault("WATERMARK_SCRATCH_DIR", os.TempDir()),
		Port:                getEnvOrDefault("PORT", "5339"),
		AllowedOrigins:      parseOrigins(os.Getenv("ALLOWED_ORIGIN")),
		Tunables:            tunables,
	}
	return cfg, nil
}

// parseOrigins accepts either a comma-separated string or a JSON array
// string for ALLOWED_ORIGIN, matching spec §6's "JSON list or
// comma-separated string" contract.
func parseOrigins(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, "[") {
		// Lightweight JSON-array parse without pulling in encoding/json
		// for a one-line config knob: strip brackets/quotes, split on comma.
		raw = strings.Trim(raw, "[]")
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), `"`)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
