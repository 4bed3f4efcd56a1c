package mockapi

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ctxUserIDKey   = "user_id"
	ctxTokenIDKey  = "token_id"
	ctxTokenExpKey = "token_exp"
)

type claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

type tokenManager struct {
	secret []byte
	ttl    time.Duration

	mu      sync.Mutex
	revoked map[string]time.Time // jti -> expiry
}

func newTokenManager(secret string, ttl time.Duration) *tokenManager {
	return &tokenManager{secret: []byte(secret), ttl: ttl, revoked: make(map[string]time.Time)}
}

func (m *tokenManager) sign(userID string, now time.Time) (string, error) {
	c := claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    "storefront-mock",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
}

func (m *tokenManager) parse(tokenStr string) (*claims, error) {
	tok, err := jwt.ParseWithClaims(tokenStr, &claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	c, ok := tok.Claims.(*claims)
	if !ok || !tok.Valid {
		return nil, errors.New("invalid token")
	}

	m.mu.Lock()
	_, revoked := m.revoked[c.ID]
	m.mu.Unlock()
	if revoked {
		return nil, errors.New("token revoked")
	}
	return c, nil
}

func (m *tokenManager) revoke(id string, exp time.Time, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for jti, e := range m.revoked {
		if e.Before(now) {
			delete(m.revoked, jti)
		}
	}
	m.revoked[id] = exp
}

func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" || !strings.HasPrefix(h, "Bearer ") {
			fail(c, http.StatusUnauthorized, "Not authorized, no token")
			return
		}
		cl, err := s.tokens.parse(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			fail(c, http.StatusUnauthorized, "Not authorized, token failed")
			return
		}

		s.mu.Lock()
		_, ok := s.users[cl.UserID]
		s.mu.Unlock()
		if !ok {
			fail(c, http.StatusUnauthorized, "User not found")
			return
		}

		c.Set(ctxUserIDKey, cl.UserID)
		c.Set(ctxTokenIDKey, cl.ID)
		if cl.ExpiresAt != nil {
			c.Set(ctxTokenExpKey, cl.ExpiresAt.Time)
		}
		c.Next()
	}
}
