// Package api wires the watermark engine's HTTP surface: routing, bearer
// auth, CORS, per-IP rate limiting, a websocket event hub, and the four
// embed/verify handlers described in spec §6.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/auroraa/watermark-engine/internal/config"
	"github.com/auroraa/watermark-engine/internal/identity"
	"github.com/auroraa/watermark-engine/internal/repository"
	"github.com/auroraa/watermark-engine/internal/watermark/key"
)

// Handler bundles the dependencies every watermark endpoint needs.
type Handler struct {
	repo     repository.Repository
	identity *identity.Client
	sched    *key.Schedule
	tun      config.Tunables
	hub      *Hub
}

// notify best-effort broadcasts an event to the dashboard hub. A nil hub
// (e.g. in tests) is a silent no-op.
func (h *Handler) notify(evt eventPayload) {
	if h.hub == nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	h.hub.Broadcast(data)
}

// SetupRouter builds the full Gin engine: public health/stream routes,
// and bearer-authenticated, rate-limited watermark routes.
func SetupRouter(repo repository.Repository, idClient *identity.Client, sched *key.Schedule, cfg *config.Config, hub *Hub) *gin.Engine {
	r := gin.Default()
	r.Use(corsMiddleware(cfg.AllowedOrigins))

	handler := &Handler{
		repo:     repo,
		identity: idClient,
		sched:    sched,
		tun:      cfg.Tunables,
		hub:      hub,
	}

	pub := r.Group("/")
	{
		pub.GET("/health", handler.handleHealth)
		pub.GET("/stream", hub.Subscribe)
	}

	auth := r.Group("/watermark")
	auth.Use(AuthMiddleware([]byte(cfg.JWTSecretKey)))
	auth.Use(NewRateLimiter(30, 5).Middleware())
	{
		auth.POST("/upload", handler.handleImageUpload)
		auth.POST("/verify", handler.handleImageVerify)
		auth.POST("/embed/doc", handler.handleDocumentEmbed)
		auth.POST("/verify/doc", handler.handleDocumentVerify)
	}

	return r
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "operational",
		"engine": "auroraa-watermark-engine",
	})
}
