package book

import (
	"testing"

	"catalogservice/internal/testutil"

	"github.com/stretchr/testify/require"
)

// newSQLiteRepo returns a GormRepo on a fresh in-memory sqlite database.
func newSQLiteRepo(t testing.TB) *GormRepo {
	repo := NewGormRepo(testutil.OpenSQLite(t))
	require.NoError(t, repo.AutoMigrate())
	return repo
}
