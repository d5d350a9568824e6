package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ruby4mag/alert-normalizer/internal/ai"
	"github.com/ruby4mag/alert-normalizer/internal/extract"
	"github.com/ruby4mag/alert-normalizer/internal/logger"
	"github.com/ruby4mag/alert-normalizer/internal/whitelist"
)

// FormatAlert renders the analyst report for a raw alert payload and
// reports whether a whitelist rule covers it.
func (h *Handler) FormatAlert(c *gin.Context) {
	obj, _, ok := h.readPayload(c)
	if !ok {
		return
	}
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}

	res := h.Engine.Process(obj, snap)
	h.Metrics.Formatted(res.Tier.String())
	h.Metrics.Decided(res.Whitelist.Matched, res.Whitelist.Source)
	h.Log.Debug("alert formatted",
		zap.String("alert", res.Alert.Name),
		zap.Stringer("tier", res.Tier),
		zap.Bool("whitelisted", res.Whitelist.Matched),
		zap.String("request_id", logger.RequestID(c)),
	)
	c.JSON(http.StatusOK, res)
}

// CheckWhitelist matches an alert against the stored rules. When none
// matches and a language model is configured, it is asked for a second
// opinion on the same rules.
func (h *Handler) CheckWhitelist(c *gin.Context) {
	obj, body, ok := h.readPayload(c)
	if !ok {
		return
	}
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}

	alert, decision := h.Engine.CheckWhitelist(obj, snap.Rules)
	if !decision.Matched && h.Oracle != nil && len(snap.Rules) > 0 {
		j, err := h.Oracle.JudgeWhitelist(c.Request.Context(), alertContext(alert, body), snap.Rules)
		h.Metrics.Oracle("whitelist", err)
		switch {
		case err != nil:
			h.Log.Warn("whitelist second opinion failed", zap.Error(err), zap.String("request_id", logger.RequestID(c)))
		case j.Whitelisted:
			decision = whitelist.Decision{Matched: true, Reason: j.Reason, Source: whitelist.SourceOracle}
		}
	}
	h.Metrics.Decided(decision.Matched, decision.Source)

	c.JSON(http.StatusOK, gin.H{"alert": alert, "whitelist": decision})
}

func alertContext(a extract.Alert, raw []byte) ai.AlertContext {
	return ai.AlertContext{
		AlertName:   a.Name,
		Description: a.Description,
		HostName:    a.HostName,
		TenantName:  a.TenantName,
		AlertData:   json.RawMessage(raw),
	}
}
