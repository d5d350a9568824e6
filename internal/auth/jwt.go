// Package auth issues and checks API tokens and guards the HTTP routes.
package auth

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.StandardClaims
}

type Manager struct {
	secret     []byte
	tokenTTL   time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewManager(secret string, tokenTTL, refreshTTL time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return &Manager{secret: []byte(secret), tokenTTL: tokenTTL, refreshTTL: refreshTTL, now: time.Now}, nil
}

func (m *Manager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

func (m *Manager) GenerateJWT(username, role string) (string, error) {
	now := m.now()
	claims := &Claims{
		Username: username,
		Role:     role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(m.tokenTTL).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// GenerateRefreshToken returns a unique signed token; the server side
// binding to a user lives in the refresh token store.
func (m *Manager) GenerateRefreshToken() (string, error) {
	now := m.now()
	claims := &jwt.StandardClaims{
		Id:        uuid.NewString(),
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(m.refreshTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) ParseJWT(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Newf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "parse token"), ErrInvalidToken)
	}
	if !token.Valid || claims.Username == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
