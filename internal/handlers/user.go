package handlers

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ruby4mag/alert-normalizer/internal/auth"
	"github.com/ruby4mag/alert-normalizer/internal/models"
	"github.com/ruby4mag/alert-normalizer/internal/store"
)

func (h *Handler) Register(c *gin.Context) {
	var request struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email"`
		Role     string `json:"role"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user := models.User{
		Username: request.Username,
		Email:    request.Email,
		Role:     request.Role,
	}
	if user.Role == "" {
		user.Role = models.RoleAnalyst
	}
	if err := user.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	existing, err := h.Users.FindByUsername(c.Request.Context(), user.Username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.fail(c, http.StatusInternalServerError, "Server error", err)
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Username already taken"})
		return
	}

	if err := user.HashPassword(request.Password); err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to hash password", err)
		return
	}
	if err := h.Users.Create(c.Request.Context(), &user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "Username already taken"})
			return
		}
		h.fail(c, http.StatusInternalServerError, "Failed to create user", err)
		return
	}

	h.Log.Info("user created", zap.String("username", user.Username), zap.String("role", user.Role))
	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully"})
}

func (h *Handler) Login(c *gin.Context) {
	var credentials struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&credentials); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, err := h.Users.FindByUsername(c.Request.Context(), credentials.Username)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Server error", err)
		return
	}
	if err := user.CheckPassword(credentials.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	jwtToken, err := h.Auth.GenerateJWT(user.Username, user.Role)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to generate token", err)
		return
	}
	refreshToken, err := h.Auth.GenerateRefreshToken()
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to generate refresh token", err)
		return
	}
	if err := h.Refresh.Save(c.Request.Context(), refreshToken, user.Username, h.Auth.RefreshTTL()); err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to store refresh token", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":         jwtToken,
		"refresh_token": refreshToken,
		"username":      user.Username,
		"role":          user.Role,
	})
}

func (h *Handler) RefreshToken(c *gin.Context) {
	var request struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	username, err := h.Refresh.Lookup(c.Request.Context(), request.RefreshToken)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Server error", err)
		return
	}
	user, err := h.Users.FindByUsername(c.Request.Context(), username)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Server error", err)
		return
	}

	newToken, err := h.Auth.GenerateJWT(user.Username, user.Role)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to generate token", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": newToken})
}

func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"username": c.GetString(auth.UsernameKey),
		"role":     c.GetString(auth.RoleKey),
	})
}

func (h *Handler) GetPermissions(c *gin.Context) {
	permissions := map[string][]string{
		models.RoleAdmin:   {"TemplateEdit", "MappingEdit", "WhitelistEdit", "UserCreate"},
		models.RoleAnalyst: {"TemplateEdit", "MappingEdit", "WhitelistEdit"},
	}
	c.JSON(http.StatusOK, gin.H{"permissions": permissions})
}
