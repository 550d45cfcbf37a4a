package users_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/school-supply/internal/apperr"
	"github.com/Spok95/school-supply/internal/domain/users"
	"github.com/Spok95/school-supply/internal/infra/db/dbtest"
)

func TestEmailIsUniqueIgnoringCase(t *testing.T) {
	repo := users.NewRepo(dbtest.Open(t))
	ctx := context.Background()

	ana, err := repo.Create(ctx, users.Input{Name: "Ana", Email: "Ana@escola.br", Role: users.RoleRequester}, "x")
	require.NoError(t, err)

	_, err = repo.Create(ctx, users.Input{Name: "Outra Ana", Email: "ana@escola.br", Role: users.RoleRequester}, "x")
	assert.Equal(t, apperr.KindBusinessRule, apperr.KindOf(err))
	assert.Equal(t, "e-mail já cadastrado", apperr.PublicMessage(err))

	bia, err := repo.Create(ctx, users.Input{Name: "Bia", Email: "bia@escola.br", Role: users.RoleRequester}, "x")
	require.NoError(t, err)
	err = repo.Update(ctx, bia, users.Input{Name: "Bia", Email: "ANA@ESCOLA.BR", Role: users.RoleRequester}, "")
	assert.Equal(t, "e-mail já cadastrado", apperr.PublicMessage(err))

	u, err := repo.GetByEmail(ctx, " ANA@escola.BR ")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, ana, u.ID)
}

func TestUpsertAdminMatchesEmailIgnoringCase(t *testing.T) {
	repo := users.NewRepo(dbtest.Open(t))
	ctx := context.Background()

	first, err := repo.UpsertAdmin(ctx, "Administrador", "admin@escola.br", "h1")
	require.NoError(t, err)
	second, err := repo.UpsertAdmin(ctx, "Administrador", "Admin@Escola.br", "h2")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "h2", second.PasswordHash)
	assert.Equal(t, users.RoleAdmin, second.Role)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
