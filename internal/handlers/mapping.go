package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ruby4mag/alert-normalizer/internal/models"
)

// Global field mappings apply to every alert ahead of template mappings.

func (h *Handler) NewMapping(c *gin.Context) {
	var mapping models.DbFieldMapping
	if err := c.ShouldBindJSON(&mapping); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mapping.Normalize()

	existing, err := h.Mappings.List(c.Request.Context())
	if err != nil {
		h.storeFail(c, err)
		return
	}
	all := []models.FieldMapping{mapping.FieldMapping}
	for _, m := range existing {
		all = append(all, m.FieldMapping)
	}
	if err := models.ValidateMappings(all); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Mappings.Create(c.Request.Context(), &mapping); err != nil {
		h.storeFail(c, err)
		return
	}
	h.invalidate(c)
	c.JSON(http.StatusOK, gin.H{"result": mapping.ID})
}

func (h *Handler) IndexMappings(c *gin.Context) {
	records, err := h.Mappings.List(c.Request.Context())
	if err != nil {
		h.storeFail(c, err)
		return
	}
	if records == nil {
		records = []models.DbFieldMapping{}
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) UpdateMapping(c *gin.Context) {
	var mapping models.FieldMapping
	if err := c.ShouldBindJSON(&mapping); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mapping.Normalize()
	id, ok := h.objectID(c)
	if !ok {
		return
	}

	existing, err := h.Mappings.List(c.Request.Context())
	if err != nil {
		h.storeFail(c, err)
		return
	}
	all := []models.FieldMapping{mapping}
	for _, m := range existing {
		if m.ID != id {
			all = append(all, m.FieldMapping)
		}
	}
	if err := models.ValidateMappings(all); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Mappings.Update(c.Request.Context(), id, mapping); err != nil {
		h.storeFail(c, err)
		return
	}
	h.invalidate(c)
	c.JSON(http.StatusOK, gin.H{"modified": 1})
}
