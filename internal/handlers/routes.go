package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ruby4mag/alert-normalizer/internal/auth"
	"github.com/ruby4mag/alert-normalizer/internal/models"
)

// Routes mounts every endpoint. allow guards the protected group and login
// throttles /login.
func (h *Handler) Routes(r gin.IRouter, allow gin.HandlerFunc, login gin.HandlerFunc) {
	r.GET("/healthz", h.Healthz)
	r.POST("/login", h.limitBody, login, h.Login)
	r.POST("/refresh", h.limitBody, h.RefreshToken)

	protected := r.Group("/api")
	protected.Use(h.limitBody, allow, h.Auth.AuthMiddleware())
	{
		protected.GET("/me", h.Me)
		protected.GET("/permissions", h.GetPermissions)
		protected.POST("/register", auth.RequireRole(models.RoleAdmin), h.Register)

		protected.POST("/alerts/format", h.FormatAlert)
		protected.POST("/alerts/whitelist-check", h.CheckWhitelist)
		protected.POST("/alerts/investigate", h.Investigate)
		protected.POST("/alerts/chat", h.Chat)

		protected.GET("/templates", h.IndexTemplates)
		protected.POST("/templates", h.NewTemplate)
		protected.POST("/templates/learn", h.LearnTemplate)
		protected.GET("/templates/:id", h.EditTemplate)
		protected.PUT("/templates/:id", h.UpdateTemplate)

		protected.GET("/mappings", h.IndexMappings)
		protected.POST("/mappings", h.NewMapping)
		protected.PUT("/mappings/:id", h.UpdateMapping)

		protected.GET("/whitelist", h.IndexWhitelist)
		protected.POST("/whitelist", h.NewWhitelist)
		protected.POST("/whitelist/parse", h.ParseWhitelist)
		protected.GET("/whitelist/:id", h.EditWhitelist)
	}
}
