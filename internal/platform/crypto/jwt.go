package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carried by catalog bearer tokens. Subject lives in the registered
// "sub" claim; roles are a flat list such as ["employee"].
type Claims struct {
	PreferredUsername string   `json:"preferred_username,omitempty"`
	Roles             []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// HasRole reports whether the token grants role.
func (c *Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// Principal is the name recorded in audit columns: the preferred username
// when present, the subject otherwise.
func (c *Claims) Principal() string {
	if c.PreferredUsername != "" {
		return c.PreferredUsername
	}
	return c.Subject
}

func generateJTI() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// GenerateToken signs an HS256 token. Tokens are normally issued by the
// identity provider; this is used by tests and local tooling.
func GenerateToken(secret, subject, username string, roles []string, ttl time.Duration) (string, error) {
	jti, err := generateJTI()
	if err != nil {
		return "", err
	}

	now := time.Now()
	c := Claims{
		PreferredUsername: username,
		Roles:             roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return t.SignedString([]byte(secret))
}

func ParseToken(secret, tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims, ok := t.Claims.(*Claims); ok && t.Valid {
		return claims, nil
	}
	return nil, jwt.ErrTokenInvalidClaims
}
