package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"blog-server/internal/domain"
)

const claimsKey = "auth.claims"

type userClaims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type tokenIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func newTokenIssuer(key []byte, ttl time.Duration) *tokenIssuer {
	return &tokenIssuer{key: key, ttl: ttl, now: time.Now}
}

func (t *tokenIssuer) issue(user *domain.User) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	cl := userClaims{
		Name: user.Username,
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, cl)
	v, err := tok.SignedString(t.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return v, exp, nil
}

func (t *tokenIssuer) parse(tok string) (*userClaims, error) {
	p, err := jwt.ParseWithClaims(tok, &userClaims{}, func(tk *jwt.Token) (interface{}, error) {
		if tk.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", tk.Method.Alg())
		}
		return t.key, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, err
	}
	cl, ok := p.Claims.(*userClaims)
	if !ok || !p.Valid {
		return nil, errors.New("invalid token")
	}
	return cl, nil
}

func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		cl, err := h.tokens.parse(strings.TrimSpace(raw))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(claimsKey, cl)
		c.Next()
	}
}
