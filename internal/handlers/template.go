package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ruby4mag/alert-normalizer/internal/models"
	"github.com/ruby4mag/alert-normalizer/internal/payload"
)

// templateRequest is a template plus an optional sample alert. When the
// template has no mappings they are learned from the sample.
type templateRequest struct {
	models.AlertFormatTemplate
	SampleAlert json.RawMessage `json:"sampleAlert"`
}

func (h *Handler) NewTemplate(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tmpl := req.AlertFormatTemplate
	if len(tmpl.FieldMappings) == 0 && len(req.SampleAlert) > 0 {
		obj, err := payload.Parse(req.SampleAlert)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sample alert", "detail": err.Error()})
			return
		}
		tmpl.FieldMappings = h.Engine.Learn(obj, tmpl.ExpectedFormat)
	}
	tmpl.Normalize()
	if err := tmpl.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Templates.Create(c.Request.Context(), &tmpl); err != nil {
		h.storeFail(c, err)
		return
	}
	h.invalidate(c)
	h.Log.Info("template created",
		zap.String("id", tmpl.ID.Hex()),
		zap.String("identifier", tmpl.AlertIdentifier),
		zap.Int("mappings", len(tmpl.FieldMappings)),
	)
	c.JSON(http.StatusOK, gin.H{"result": tmpl.ID})
}

func (h *Handler) IndexTemplates(c *gin.Context) {
	records, err := h.Templates.List(c.Request.Context())
	if err != nil {
		h.storeFail(c, err)
		return
	}
	if records == nil {
		records = []models.AlertFormatTemplate{}
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) EditTemplate(c *gin.Context) {
	id, ok := h.objectID(c)
	if !ok {
		return
	}
	record, err := h.Templates.Get(c.Request.Context(), id)
	if err != nil {
		h.storeFail(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *Handler) UpdateTemplate(c *gin.Context) {
	var tmpl models.AlertFormatTemplate
	if err := c.ShouldBindJSON(&tmpl); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, ok := h.objectID(c)
	if !ok {
		return
	}
	tmpl.Normalize()
	if err := tmpl.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Templates.Update(c.Request.Context(), id, &tmpl); err != nil {
		h.storeFail(c, err)
		return
	}
	h.invalidate(c)
	c.JSON(http.StatusOK, gin.H{"modified": 1})
}

// LearnTemplate proposes field mappings for an example report by locating
// its values in a sample payload. Nothing is saved.
func (h *Handler) LearnTemplate(c *gin.Context) {
	var req struct {
		AlertData      json.RawMessage `json:"alertData" binding:"required"`
		ExpectedFormat []string        `json:"expectedFormat" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	obj, err := payload.Parse(req.AlertData)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid alert payload", "detail": err.Error()})
		return
	}

	alert := h.Engine.Extract(obj)
	mappings := h.Engine.Learn(obj, req.ExpectedFormat)
	if mappings == nil {
		mappings = []models.FieldMapping{}
	}
	c.JSON(http.StatusOK, gin.H{
		"alertName":       alert.Name,
		"alertIdentifier": models.Identifier(alert.Name, alert.EventName),
		"fieldMappings":   mappings,
	})
}
