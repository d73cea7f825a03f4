package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9001", cfg.Addr)
	assert.Equal(t, "pgx", cfg.StoreDriver)
	assert.Equal(t, 3*time.Second, cfg.DBTimeout)
	assert.False(t, cfg.Faker.Enabled)
	assert.Equal(t, 5, cfg.Faker.MinPrice)
	assert.Equal(t, 50, cfg.Faker.MaxPrice)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.EnableHSTS)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWTSecret")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"bad driver", "STORE_DRIVER", "mongo", "StoreDriver"},
		{"bad int", "FAKER_AMOUNT", "lots", "FAKER_AMOUNT"},
		{"bad duration", "DB_TIMEOUT", "soon", "DB_TIMEOUT"},
		{"negative frequency", "FAKER_FREQUENCY", "-1s", "frequency cannot be negative"},
		{"zero min price", "FAKER_MIN_PRICE", "0", "MinPrice"},
		{"max below min", "FAKER_MAX_PRICE", "1", "MaxPrice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "s3cret")
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadEnvFiles_DoesNotOverrideExistingEnv(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmp, ".env"), []byte("DB_DSN=from_file\n"), 0644))

	t.Setenv("DB_DSN", "from_env")

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmp))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	LoadEnvFiles()

	assert.Equal(t, "from_env", os.Getenv("DB_DSN"))
}
