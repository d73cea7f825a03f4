// Package testutil holds helpers shared by the package tests: throwaway
// stores, signed tokens and request builders.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"catalogservice/internal/platform/crypto"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenSQLite returns a gorm handle on a fresh in-memory sqlite database. The
// pool is capped at one connection since every ":memory:" connection is its
// own database.
func OpenSQLite(t testing.TB) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}

// GenerateTestToken signs a one hour token for username with roles.
func GenerateTestToken(t testing.TB, secret, username string, roles ...string) string {
	t.Helper()
	token, err := crypto.GenerateToken(secret, "sub-"+username, username, roles, time.Hour)
	require.NoError(t, err)
	return token
}

// GenerateExpiredToken signs a token that expired an hour ago.
func GenerateExpiredToken(t testing.TB, secret, username string, roles ...string) string {
	t.Helper()
	c := crypto.Claims{
		PreferredUsername: username,
		Roles:             roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "sub-" + username,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

// NewRequest builds a request; a string body is sent verbatim, anything else
// is JSON encoded.
func NewRequest(method, path string, body any) *http.Request {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}

	r := httptest.NewRequest(method, path, reader)
	if reader != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	return r
}

// NewRequestWithAuth is NewRequest plus a bearer token when token is set.
func NewRequestWithAuth(method, path string, body any, token string) *http.Request {
	r := NewRequest(method, path, body)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}
