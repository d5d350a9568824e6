package handlers

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/ruby4mag/alert-normalizer/internal/ai"
	"github.com/ruby4mag/alert-normalizer/internal/auth"
	"github.com/ruby4mag/alert-normalizer/internal/engine"
	"github.com/ruby4mag/alert-normalizer/internal/logger"
	"github.com/ruby4mag/alert-normalizer/internal/metrics"
	"github.com/ruby4mag/alert-normalizer/internal/models"
	"github.com/ruby4mag/alert-normalizer/internal/payload"
	"github.com/ruby4mag/alert-normalizer/internal/store"
)

// Oracle is the language model collaborator. A nil Oracle disables the
// investigation endpoints and the whitelist second opinion.
type Oracle interface {
	Investigate(ctx context.Context, a ai.AlertContext) (string, error)
	Chat(ctx context.Context, a ai.AlertContext, history []ai.Message) (string, error)
	JudgeWhitelist(ctx context.Context, a ai.AlertContext, rules []models.WhitelistRule) (ai.Judgment, error)
}

// DefaultMaxBodyBytes caps request bodies when Handler.MaxBodyBytes is unset.
const DefaultMaxBodyBytes int64 = 4 << 20

type Handler struct {
	Engine    *engine.Engine
	Templates store.Templates
	Mappings  store.Mappings
	Rules     store.Rules
	Users     store.Users
	Refresh   store.RefreshTokens
	Snapshots store.Snapshots
	Auth      *auth.Manager
	Oracle    Oracle
	Metrics   *metrics.Metrics
	Log       *zap.Logger

	MaxBodyBytes int64
}

// fail answers with {"error": msg} and logs err when there is one.
func (h *Handler) fail(c *gin.Context, status int, msg string, err error) {
	if err != nil {
		_ = c.Error(err)
		h.Log.Warn(msg,
			zap.Error(err),
			zap.Int("status", status),
			zap.String("request_id", logger.RequestID(c)),
		)
	}
	c.JSON(status, gin.H{"error": msg})
}

// storeFail maps repository errors to responses.
func (h *Handler) storeFail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.fail(c, http.StatusNotFound, "Item not found", nil)
	case errors.Is(err, store.ErrDuplicate):
		h.fail(c, http.StatusConflict, "Item already exists", nil)
	default:
		h.fail(c, http.StatusInternalServerError, "Server error", err)
	}
}

func (h *Handler) objectID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid ID format", nil)
		return primitive.NilObjectID, false
	}
	return id, true
}

// limitBody caps how much of a request body handlers may read.
func (h *Handler) limitBody(c *gin.Context) {
	limit := h.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	if c.Request.Body != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}
	c.Next()
}

// readPayload parses the request body as an alert payload.
func (h *Handler) readPayload(c *gin.Context) (*payload.Object, []byte, bool) {
	body, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(c, http.StatusRequestEntityTooLarge, "Request body too large", nil)
			return nil, nil, false
		}
		h.fail(c, http.StatusBadRequest, "Invalid request body", err)
		return nil, nil, false
	}
	obj, err := payload.Parse(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid alert payload", "detail": err.Error()})
		return nil, nil, false
	}
	return obj, body, true
}

func (h *Handler) snapshot(c *gin.Context) (models.Snapshot, bool) {
	snap, err := h.Snapshots.Load(c.Request.Context())
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Server error", err)
		return models.Snapshot{}, false
	}
	return snap, true
}

// invalidate drops cached snapshots after a write; failures only cost freshness.
func (h *Handler) invalidate(c *gin.Context) {
	if err := h.Snapshots.Invalidate(c.Request.Context()); err != nil {
		h.Log.Warn("snapshot invalidation failed", zap.Error(err), zap.String("request_id", logger.RequestID(c)))
	}
}

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
