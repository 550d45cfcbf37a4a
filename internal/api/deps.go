package api

import (
	"context"
	"log/slog"

	"github.com/Spok95/school-supply/internal/access"
	"github.com/Spok95/school-supply/internal/auth"
	"github.com/Spok95/school-supply/internal/domain/dashboard"
	"github.com/Spok95/school-supply/internal/domain/inventory"
	"github.com/Spok95/school-supply/internal/domain/materials"
	"github.com/Spok95/school-supply/internal/domain/requests"
	"github.com/Spok95/school-supply/internal/domain/stockentries"
	"github.com/Spok95/school-supply/internal/domain/suppliers"
	"github.com/Spok95/school-supply/internal/domain/users"
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (string, *users.User, error)
	Authenticate(ctx context.Context, token string) (access.Identity, *auth.Claims, error)
	Logout(ctx context.Context, claims *auth.Claims) error
}

type MaterialStore interface {
	Create(ctx context.Context, in materials.Input) (int64, error)
	GetByID(ctx context.Context, id int64) (*materials.Material, error)
	Update(ctx context.Context, id int64, in materials.Input) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]materials.Material, error)
	Search(ctx context.Context, q string) ([]materials.Material, error)
	ListLowStock(ctx context.Context) ([]materials.Material, error)
}

type MovementStore interface {
	ListMovements(ctx context.Context, materialID int64, limit int) ([]inventory.Movement, error)
}

type SupplierStore interface {
	Create(ctx context.Context, in suppliers.Input) (int64, error)
	GetByID(ctx context.Context, id int64) (*suppliers.Supplier, error)
	List(ctx context.Context) ([]suppliers.Supplier, error)
	Update(ctx context.Context, id int64, in suppliers.Input) error
	Delete(ctx context.Context, id int64) error
}

type EntryStore interface {
	Create(ctx context.Context, actorID int64, in stockentries.Input) (int64, error)
	CreateBatch(ctx context.Context, actorID int64, ins []stockentries.Input) ([]int64, error)
	GetByID(ctx context.Context, id int64) (*stockentries.Entry, error)
	List(ctx context.Context, f stockentries.Filter) ([]stockentries.Entry, error)
	Update(ctx context.Context, actorID, id int64, in stockentries.Input) error
	Delete(ctx context.Context, actorID, id int64) error
}

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*users.User, error)
	List(ctx context.Context) ([]users.User, error)
	Create(ctx context.Context, in users.Input, passwordHash string) (int64, error)
	Update(ctx context.Context, id int64, in users.Input, passwordHash string) error
	Delete(ctx context.Context, id int64) error
}

type RequestService interface {
	Create(ctx context.Context, who access.Identity, in requests.CreateInput) (int64, error)
	Get(ctx context.Context, who access.Identity, id int64) (*requests.Request, error)
	List(ctx context.Context, who access.Identity, f requests.Filter) ([]requests.Request, error)
	Update(ctx context.Context, who access.Identity, id int64, in requests.CreateInput) error
	Approve(ctx context.Context, who access.Identity, id int64, approvals []requests.Approval) error
	Dispatch(ctx context.Context, who access.Identity, id int64) error
	Reject(ctx context.Context, who access.Identity, id int64, reason string) error
	Cancel(ctx context.Context, who access.Identity, id int64) error
}

type DashboardService interface {
	Stats(ctx context.Context, who access.Identity) (dashboard.Stats, error)
}

type Deps struct {
	Log         *slog.Logger
	Auth        AuthService
	Materials   MaterialStore
	Movements   MovementStore
	Suppliers   SupplierStore
	Entries     EntryStore
	Users       UserStore
	Requests    RequestService
	Dashboard   DashboardService
	CORSOrigins []string
	ServiceName string
	// Ready is polled by /health; nil means always ready.
	Ready func(ctx context.Context) error
}
