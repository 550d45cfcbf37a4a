package users

import "time"

type Role string

const (
	RoleRequester  Role = "solicitante"
	RoleDispatcher Role = "despachante"
	RoleAdmin      Role = "administrador"
)

func (r Role) Valid() bool {
	switch r {
	case RoleRequester, RoleDispatcher, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	School       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Input is what callers may set on create/update. An empty Password on update keeps
// the current hash.
type Input struct {
	Name     string
	Email    string
	Password string
	Role     Role
	School   string
}
