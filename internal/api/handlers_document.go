package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/auroraa/watermark-engine/internal/watermark/document"
	"github.com/auroraa/watermark-engine/internal/werr"
	"github.com/auroraa/watermark-engine/pkg/models"
)

const algVersionDoc = "doc-v1"

func mimeToContentType(mimeType string) (models.ContentType, bool) {
	switch mimeType {
	case document.MimeDocx, document.MimePdf:
		return models.ContentTypeDocument, true
	default:
		return "", false
	}
}

func (h *Handler) handleDocumentEmbed(c *gin.Context) {
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
	contentType, ok := mimeToContentType(mimeType)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported MIME type for document embed: " + mimeType})
		return
	}

	record := models.WatermarkRecord{
		ID:               uuid.NewString(),
		OwnerID:          ownerID,
		ContentType:      contentType,
		MimeType:         mimeType,
		AlgorithmVersion: algVersionDoc,
		Status:           models.StatusActive,
		CreatedAt:        time.Now().UTC(),
	}

	ctx := c.Request.Context()
	if err := h.repo.Insert(ctx, record); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist watermark record"})
		return
	}

	watermarked, err := document.Embed(data, mimeType, ownerID, algVersionDoc, record.ID, h.sched, h.tun)
	if err != nil {
		_ = h.repo.Delete(ctx, record.ID)
		status := http.StatusInternalServerError
		if werr.Is(err, werr.KindUnsupportedMime) || werr.Is(err, werr.KindDecode) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	h.notify(eventPayload{Type: "embed", WatermarkID: record.ID, OwnerID: ownerID, Status: "embedded"})

	c.Header("X-Watermark-ID", record.ID)
	c.Header("X-Algorithm-Version", algVersionDoc)
	c.Data(http.StatusOK, mimeType, watermarked)
}

func (h *Handler) handleDocumentVerify(c *gin.Context) {
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
	if _, ok := mimeToContentType(mimeType); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported MIME type for document verify: " + mimeType})
		return
	}

	outcome, err := document.Verify(data, mimeType, ownerID, algVersionDoc, h.sched, h.tun)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.notify(eventPayload{Type: "verify", WatermarkID: outcome.WatermarkID, OwnerID: ownerID, Status: string(outcome.State)})

	c.JSON(http.StatusOK, gin.H{
		"verified":     outcome.Verified,
		"confidence":   outcome.Confidence,
		"watermark_id": outcome.WatermarkID,
	})
}
