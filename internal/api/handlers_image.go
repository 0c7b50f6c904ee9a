package api

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/auroraa/watermark-engine/internal/watermark/image"
	"github.com/auroraa/watermark-engine/internal/werr"
	"github.com/auroraa/watermark-engine/pkg/models"
)

func (h *Handler) handleImageUpload(c *gin.Context) {
	ownerID := c.GetHeader("X-Owner-ID")
	if ownerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-Owner-ID header is required"})
		return
	}

	data, mimeType, err := readMultipartFile(c, "file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !strings.HasPrefix(mimeType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported MIME type for image upload: " + mimeType})
		return
	}

	const algVersion = "v3-continuous"
	epoch := image.CurrentEpoch()

	record := models.WatermarkRecord{
		ID:               uuid.NewString(),
		OwnerID:          ownerID,
		ContentType:      models.ContentTypeImage,
		MimeType:         mimeType,
		AlgorithmVersion: algVersion,
		Status:           models.StatusActive,
		CreatedAt:        time.Now().UTC(),
	}

	ctx := c.Request.Context()
	if err := h.repo.Insert(ctx, record); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist watermark record"})
		return
	}

	watermarked, err := image.Embed(data, ownerID, epoch, h.sched, h.tun)
	if err != nil {
		_ = h.repo.Delete(ctx, record.ID)
		status := http.StatusInternalServerError
		if werr.Is(err, werr.KindDecode) || werr.Is(err, werr.KindUnsupportedMime) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	h.notify(eventPayload{Type: "embed", WatermarkID: record.ID, OwnerID: ownerID, Status: "embedded"})

	c.Header("X-Watermark-ID", record.ID)
	c.Header("X-Owner-ID", ownerID)
	c.Header("X-Watermark-Epoch", epoch)
	c.Data(http.StatusOK, "image/jpeg", watermarked)
}

func (h *Handler) handleImageVerify(c *gin.Context) {
	ownerID := c.GetHeader("X-Owner-ID")
	if ownerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-Owner-ID header is required"})
		return
	}

	data, mimeType, err := readMultipartFile(c, "file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !strings.HasPrefix(mimeType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported MIME type for image verify: " + mimeType})
		return
	}

	epochs := image.PreviousEpochs(h.tun.SearchWindow)
	outcome, err := image.Verify(data, ownerID, h.sched, h.tun, epochs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{
		"verified":   outcome.Verified,
		"confidence": outcome.Confidence,
		"status":     outcome.Status,
		"message":    messageFor(outcome.Status),
		"issued_on":  nil,
	}

	if issuedOn, ok := h.mostRecentIssuedOn(c.Request.Context(), ownerID); ok {
		resp["issued_on"] = issuedOn.Format(time.RFC3339)
	}

	if outcome.Verified {
		owner := gin.H{"id": ownerID}
		if username, ok := h.identity.UsernameFor(c.Request.Context(), ownerID); ok {
			owner["username"] = username
		}
		resp["owner"] = owner
	}

	h.notify(eventPayload{Type: "verify", OwnerID: ownerID, Status: string(outcome.Status)})
	c.JSON(http.StatusOK, resp)
}

// mostRecentIssuedOn recovers the creation timestamp of the owner's most
// recent active record, since self-verification does not carry a record id
// of its own to look up directly.
func (h *Handler) mostRecentIssuedOn(ctx context.Context, ownerID string) (time.Time, bool) {
	records, err := h.repo.ListActive(ctx, 500)
	if err != nil {
		return time.Time{}, false
	}
	var latest time.Time
	found := false
	for _, r := range records {
		if r.OwnerID != ownerID {
			continue
		}
		if !found || r.CreatedAt.After(latest) {
			latest = r.CreatedAt
			found = true
		}
	}
	return latest, found
}

func readMultipartFile(c *gin.Context, field string) ([]byte, string, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, "", errMultipart(field)
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, "", errMultipart(field)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", errMultipart(field)
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return data, mimeType, nil
}

func errMultipart(field string) error {
	return multipartError{field: field}
}

type multipartError struct{ field string }

func (e multipartError) Error() string {
	return "missing or unreadable multipart field: " + e.field
}
