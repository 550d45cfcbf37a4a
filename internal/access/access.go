// Package access holds the caller identity and the role policy shared by the HTTP
// middleware and the domain services.
package access

import (
	"context"

	"github.com/Spok95/school-supply/internal/apperr"
	"github.com/Spok95/school-supply/internal/domain/users"
)

type Identity struct {
	UserID int64
	Name   string
	Role   users.Role
}

func (id Identity) IsStaff() bool {
	return id.Role == users.RoleDispatcher || id.Role == users.RoleAdmin
}

func (id Identity) IsAdmin() bool { return id.Role == users.RoleAdmin }

type Action string

const (
	ViewCatalog    Action = "catalog.view"
	ManageCatalog  Action = "catalog.manage"
	ViewStock      Action = "stock.view"
	ReceiveStock   Action = "stock.receive"
	AdjustStock    Action = "stock.adjust"
	CreateRequest  Action = "requests.create"
	ViewRequests   Action = "requests.view"
	DecideRequests Action = "requests.decide"
	ManageUsers    Action = "users.manage"
	ExportReports  Action = "reports.export"
	ViewDashboard  Action = "dashboard.view"
)

var (
	anyone = []users.Role{users.RoleRequester, users.RoleDispatcher, users.RoleAdmin}
	staff  = []users.Role{users.RoleDispatcher, users.RoleAdmin}
	admin  = []users.Role{users.RoleAdmin}
)

var policy = map[Action][]users.Role{
	ViewCatalog:    anyone,
	ManageCatalog:  staff,
	ViewStock:      staff,
	ReceiveStock:   staff,
	AdjustStock:    admin,
	CreateRequest:  anyone,
	ViewRequests:   anyone,
	DecideRequests: staff,
	ManageUsers:    admin,
	ExportReports:  staff,
	ViewDashboard:  anyone,
}

func Allowed(role users.Role, a Action) bool {
	for _, r := range policy[a] {
		if r == role {
			return true
		}
	}
	return false
}

func Require(id Identity, a Action) error {
	if !Allowed(id.Role, a) {
		return apperr.Forbidden("acesso negado")
	}
	return nil
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
