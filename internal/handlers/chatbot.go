package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"github.com/ruby4mag/alert-normalizer/internal/ai"
	"github.com/ruby4mag/alert-normalizer/internal/payload"
)

func (h *Handler) oracleEnabled(c *gin.Context) bool {
	if h.Oracle == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI assistant is disabled"})
		return false
	}
	return true
}

func (h *Handler) oracleFail(c *gin.Context, err error) {
	if errors.Is(err, ai.ErrUnavailable) {
		h.fail(c, http.StatusServiceUnavailable, "AI assistant is unavailable", err)
		return
	}
	h.fail(c, http.StatusBadGateway, "Failed to reach language model", err)
}

// Investigate asks the language model for a triage of the posted alert.
func (h *Handler) Investigate(c *gin.Context) {
	if !h.oracleEnabled(c) {
		return
	}
	obj, body, ok := h.readPayload(c)
	if !ok {
		return
	}

	answer, err := h.Oracle.Investigate(c.Request.Context(), alertContext(h.Engine.Extract(obj), body))
	h.Metrics.Oracle("investigate", err)
	if err != nil {
		h.oracleFail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

// Chat continues an analyst conversation about an alert.
func (h *Handler) Chat(c *gin.Context) {
	if !h.oracleEnabled(c) {
		return
	}
	var req struct {
		Alert    json.RawMessage `json:"alert" binding:"required"`
		Messages []ai.Message    `json:"messages" binding:"required,min=1,dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	obj, err := payload.Parse(req.Alert)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid alert payload", "detail": err.Error()})
		return
	}

	answer, err := h.Oracle.Chat(c.Request.Context(), alertContext(h.Engine.Extract(obj), req.Alert), req.Messages)
	h.Metrics.Oracle("chat", err)
	if err != nil {
		h.oracleFail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}
