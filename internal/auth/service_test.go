package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/school-supply/internal/apperr"
	"github.com/Spok95/school-supply/internal/domain/users"
)

type fakeUsers map[int64]*users.User

func (f fakeUsers) GetByID(_ context.Context, id int64) (*users.User, error) { return f[id], nil }

func (f fakeUsers) GetByEmail(_ context.Context, email string) (*users.User, error) {
	for _, u := range f {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func TestLoginAuthenticateLogout(t *testing.T) {
	ctx := context.Background()
	hash, err := HashPassword("segredo123")
	require.NoError(t, err)
	us := fakeUsers{7: {ID: 7, Name: "Carla", Email: "carla@escola.br", PasswordHash: hash, Role: users.RoleDispatcher}}
	svc := NewService(us, NewIssuer("k", time.Hour), NewMemoryRevoker())

	_, _, err = svc.Login(ctx, "carla@escola.br", "errada")
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	_, _, err = svc.Login(ctx, "ninguem@escola.br", "segredo123")
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	_, _, err = svc.Login(ctx, "", "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	token, u, err := svc.Login(ctx, "carla@escola.br", "segredo123")
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)

	id, claims, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, users.RoleDispatcher, id.Role)

	us[7].Role = users.RoleAdmin
	id, _, err = svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, users.RoleAdmin, id.Role)

	require.NoError(t, svc.Logout(ctx, claims))
	_, _, err = svc.Authenticate(ctx, token)
	assert.Equal(t, "sessão encerrada", apperr.PublicMessage(err))
}

func TestAuthenticateDeletedUser(t *testing.T) {
	ctx := context.Background()
	us := fakeUsers{}
	iss := NewIssuer("k", time.Hour)
	svc := NewService(us, iss, NewMemoryRevoker())

	token, _, err := iss.Issue(9, "solicitante")
	require.NoError(t, err)
	_, _, err = svc.Authenticate(ctx, token)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}
