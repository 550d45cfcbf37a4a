package auth

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/school-supply/internal/apperr"
)

func TestIssueAndParse(t *testing.T) {
	iss := NewIssuer("segredo", time.Hour)

	token, claims, err := iss.Issue(42, "despachante")
	require.NoError(t, err)
	assert.NotEmpty(t, claims.Id)

	got, err := iss.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.UserID)
	assert.Equal(t, "despachante", got.Role)
	assert.Equal(t, claims.Id, got.Id)
	assert.WithinDuration(t, time.Now().Add(time.Hour), got.ExpiresTime(), 5*time.Second)
}

func TestParseRejects(t *testing.T) {
	iss := NewIssuer("segredo", time.Hour)
	token, _, err := iss.Issue(1, "solicitante")
	require.NoError(t, err)

	t.Run("other secret", func(t *testing.T) {
		_, err := NewIssuer("outro", time.Hour).Parse(token)
		assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	})

	t.Run("expired", func(t *testing.T) {
		old := NewIssuer("segredo", time.Hour)
		old.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		expired, _, err := old.Issue(1, "solicitante")
		require.NoError(t, err)

		_, err = iss.Parse(expired)
		assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := iss.Parse("not-a-token")
		assert.Equal(t, "token inválido ou expirado", apperr.PublicMessage(err))
	})
}

func TestPasswords(t *testing.T) {
	_, err := HashPassword("123")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = HashPassword(strings.Repeat("a", 73))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "a senha deve ter no máximo 72 bytes", apperr.PublicMessage(err))

	_, err = HashPassword(strings.Repeat("a", 72))
	require.NoError(t, err)

	hash, err := HashPassword("segredo123")
	require.NoError(t, err)

	ok, err := CheckPassword(hash, "segredo123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword(hash, "errada")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = CheckPassword("", "x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryRevoker(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	r := NewMemoryRevoker()
	r.now = func() time.Time { return now }

	require.NoError(t, r.Revoke(ctx, "a", now.Add(time.Minute)))
	require.NoError(t, r.Revoke(ctx, "b", now.Add(-time.Minute)))

	revoked, _ := r.Revoked(ctx, "a")
	assert.True(t, revoked)
	revoked, _ = r.Revoked(ctx, "b")
	assert.False(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, _ = r.Revoked(ctx, "a")
	assert.False(t, revoked)
}

func TestRedisRevoker(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	r := NewRedisRevoker(client)
	require.NoError(t, r.Revoke(ctx, "jti-test", time.Now().Add(time.Minute)))
	revoked, err := r.Revoked(ctx, "jti-test")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = r.Revoked(ctx, "jti-unknown")
	require.NoError(t, err)
	assert.False(t, revoked)
}
