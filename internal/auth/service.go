package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/Spok95/school-supply/internal/access"
	"github.com/Spok95/school-supply/internal/apperr"
	"github.com/Spok95/school-supply/internal/domain/users"
)

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*users.User, error)
	GetByEmail(ctx context.Context, email string) (*users.User, error)
}

type Service struct {
	users   UserStore
	issuer  *Issuer
	revoker Revoker
}

func NewService(us UserStore, issuer *Issuer, revoker Revoker) *Service {
	return &Service{users: us, issuer: issuer, revoker: revoker}
}

var errBadCredentials = apperr.Unauthorized("e-mail ou senha inválidos")

func (s *Service) Login(ctx context.Context, email, password string) (string, *users.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return "", nil, apperr.Validation("e-mail e senha são obrigatórios")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return "", nil, errBadCredentials
	}
	ok, err := CheckPassword(u.PasswordHash, password)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, errBadCredentials
	}

	token, _, err := s.issuer.Issue(u.ID, string(u.Role))
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, u, nil
}

// Authenticate resolves a bearer token to the current state of its user, so role
// changes and deleted accounts take effect before the token expires.
func (s *Service) Authenticate(ctx context.Context, token string) (access.Identity, *Claims, error) {
	claims, err := s.issuer.Parse(token)
	if err != nil {
		return access.Identity{}, nil, err
	}
	revoked, err := s.revoker.Revoked(ctx, claims.Id)
	if err != nil {
		return access.Identity{}, nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return access.Identity{}, nil, apperr.Unauthorized("sessão encerrada")
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return access.Identity{}, nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return access.Identity{}, nil, apperr.Unauthorized("usuário não encontrado")
	}
	return access.Identity{UserID: u.ID, Name: u.Name, Role: u.Role}, claims, nil
}

func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	return s.revoker.Revoke(ctx, claims.Id, claims.ExpiresTime())
}
