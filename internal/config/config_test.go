package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
app:
  env: dev
http:
  addr: ":8080"
  read_timeout: 5s
  cors_origins: [http://localhost:5173]
postgres:
  dsn: postgres://u:p@localhost:5432/db
auth:
  jwt_secret: secret
  token_ttl: 2h
telegram:
  admin_chat_id: 42
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	c, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "dev", c.App.Env)
	assert.Equal(t, ":8080", c.HTTP.Addr)
	assert.Equal(t, 5*time.Second, c.HTTP.ReadTimeout)
	assert.Equal(t, 30*time.Second, c.HTTP.WriteTimeout)
	assert.Equal(t, []string{"http://localhost:5173"}, c.HTTP.CORSOrigins)
	assert.Equal(t, "migrations", c.Postgres.MigrationsDir)
	assert.Equal(t, 2*time.Hour, c.Auth.TokenTTL)
	assert.Equal(t, int64(42), c.Telegram.AdminChatID)
	assert.Equal(t, "school-supply-api", c.Tracing.ServiceName)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("APP_POSTGRES_DSN", "postgres://override/db")
	t.Setenv("APP_AUTH_JWT_SECRET", "from-env")

	c, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "postgres://override/db", c.Postgres.DSN)
	assert.Equal(t, "from-env", c.Auth.JWTSecret)
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	_, err := Load(writeConfig(t, "postgres:\n  dsn: postgres://x/db\n"))
	assert.EqualError(t, err, "auth.jwt_secret is required")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
