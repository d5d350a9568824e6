package auth

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Context keys set by AuthMiddleware.
const (
	UsernameKey = "username"
	RoleKey     = "role"
)

// AuthMiddleware requires a valid "Authorization: Bearer <jwt>" header.
func (m *Manager) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenStr := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if header == "" || tokenStr == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}
		claims, err := m.ParseJWT(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		c.Set(UsernameKey, claims.Username)
		c.Set(RoleKey, claims.Role)
		c.Next()
	}
}

// RequireRole lets only the given role through. Run after AuthMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(RoleKey) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}

// IPAllowList admits only clients inside one of cidrs. Plain addresses are
// single-host ranges; an empty list admits everyone.
func IPAllowList(cidrs []string) (gin.HandlerFunc, error) {
	var nets []*net.IPNet
	for _, entry := range cidrs {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, errors.Newf("invalid allowed ip %q", entry)
			}
			bits := 32
			if ip.To4() == nil {
				bits = 128
			}
			entry = ip.String() + "/" + strconv.Itoa(bits)
		}
		_, n, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid allowed range %q", entry)
		}
		nets = append(nets, n)
	}

	return func(c *gin.Context) {
		if len(nets) == 0 {
			c.Next()
			return
		}
		ip := net.ParseIP(c.ClientIP())
		for _, n := range nets {
			if ip != nil && n.Contains(ip) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	}, nil
}

// LoginLimiter rate limits login attempts per client IP. A client idle long
// enough to have refilled its bucket is forgotten.
type LoginLimiter struct {
	mu        sync.Mutex
	perMin    int
	burst     int
	clients   map[string]*client
	lastSweep time.Time
	now       func() time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewLoginLimiter(perMinute, burst int) *LoginLimiter {
	return &LoginLimiter{perMin: perMinute, burst: burst, clients: map[string]*client{}, now: time.Now}
}

// idleTTL is how long a bucket takes to refill completely, at least a minute.
func (l *LoginLimiter) idleTTL() time.Duration {
	return max(time.Duration(l.burst)*time.Minute/time.Duration(l.perMin), time.Minute)
}

func (l *LoginLimiter) limiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if ttl := l.idleTTL(); now.Sub(l.lastSweep) >= ttl {
		for key, cl := range l.clients {
			if now.Sub(cl.lastSeen) >= ttl {
				delete(l.clients, key)
			}
		}
		l.lastSweep = now
	}

	cl, ok := l.clients[ip]
	if !ok {
		cl = &client{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMin)), l.burst)}
		l.clients[ip] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

// Len reports how many clients are being tracked.
func (l *LoginLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *LoginLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.limiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many login attempts"})
			return
		}
		c.Next()
	}
}
