package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ruby4mag/alert-normalizer/internal/auth"
	"github.com/ruby4mag/alert-normalizer/internal/models"
	"github.com/ruby4mag/alert-normalizer/internal/whitelist"
)

type whitelistRequest struct {
	Text string `json:"text"`
}

func (h *Handler) bindWhitelistText(c *gin.Context) (string, bool) {
	var req whitelistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Whitelist text is required"})
		return "", false
	}
	return text, true
}

// NewWhitelist parses an analyst note and stores the resulting rule.
func (h *Handler) NewWhitelist(c *gin.Context) {
	text, ok := h.bindWhitelistText(c)
	if !ok {
		return
	}
	rule := whitelist.Parse(text)
	if strings.TrimSpace(rule.Reason) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Whitelist note has no reason"})
		return
	}
	rule.CreatedBy = c.GetString(auth.UsernameKey)
	rule.CreatedAt = time.Now().UTC()

	if err := h.Rules.Create(c.Request.Context(), &rule); err != nil {
		h.storeFail(c, err)
		return
	}
	h.invalidate(c)
	h.Log.Info("whitelist rule created",
		zap.String("id", rule.ID.Hex()),
		zap.String("signature", rule.AlertSignature),
		zap.String("created_by", rule.CreatedBy),
	)
	c.JSON(http.StatusCreated, rule)
}

// ParseWhitelist shows what a note would be stored as.
func (h *Handler) ParseWhitelist(c *gin.Context) {
	text, ok := h.bindWhitelistText(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, whitelist.Parse(text))
}

func (h *Handler) IndexWhitelist(c *gin.Context) {
	records, err := h.Rules.List(c.Request.Context())
	if err != nil {
		h.storeFail(c, err)
		return
	}
	if records == nil {
		records = []models.WhitelistRule{}
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) EditWhitelist(c *gin.Context) {
	id, ok := h.objectID(c)
	if !ok {
		return
	}
	record, err := h.Rules.Get(c.Request.Context(), id)
	if err != nil {
		h.storeFail(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}
