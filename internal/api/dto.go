package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/school-supply/internal/apperr"
	"github.com/Spok95/school-supply/internal/domain/dashboard"
	"github.com/Spok95/school-supply/internal/domain/inventory"
	"github.com/Spok95/school-supply/internal/domain/materials"
	"github.com/Spok95/school-supply/internal/domain/requests"
	"github.com/Spok95/school-supply/internal/domain/stockentries"
	"github.com/Spok95/school-supply/internal/domain/suppliers"
	"github.com/Spok95/school-supply/internal/domain/users"
)

// This file is the only place where domain values and JSON shapes meet.

type loginBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type userJSON struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	School    string    `json:"school"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUser(u users.User) userJSON {
	return userJSON{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		School:    u.School,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type userBody struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password"`
	Role     string `json:"role" binding:"required,role"`
	School   string `json:"school"`
}

func (b userBody) input() users.Input {
	return users.Input{Name: b.Name, Email: b.Email, Password: b.Password, Role: users.Role(b.Role), School: b.School}
}

type materialBody struct {
	Name        string `json:"name" binding:"required"`
	Category    string `json:"category" binding:"required"`
	Unit        string `json:"unit" binding:"required"`
	MinStock    int    `json:"min_stock" binding:"gte=0"`
	Description string `json:"description"`
}

func (b materialBody) input() materials.Input {
	return materials.Input{Name: b.Name, Category: b.Category, Unit: b.Unit, MinStock: b.MinStock, Description: b.Description}
}

type materialJSON struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Unit         string    `json:"unit"`
	CurrentStock int       `json:"current_stock"`
	MinStock     int       `json:"min_stock"`
	Description  string    `json:"description"`
	LowStock     bool      `json:"low_stock"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toMaterial(m materials.Material) materialJSON {
	return materialJSON{
		ID:           m.ID,
		Name:         m.Name,
		Category:     m.Category,
		Unit:         m.Unit,
		CurrentStock: m.CurrentStock,
		MinStock:     m.MinStock,
		Description:  m.Description,
		LowStock:     m.LowStock(),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type movementJSON struct {
	ID            int64     `json:"id"`
	MaterialID    int64     `json:"material_id"`
	Type          string    `json:"type"`
	Quantity      int       `json:"quantity"`
	Reason        string    `json:"reason"`
	ReferenceType string    `json:"reference_type"`
	ReferenceID   *int64    `json:"reference_id"`
	CreatedBy     int64     `json:"created_by"`
	CreatedByName string    `json:"created_by_name"`
	CreatedAt     time.Time `json:"created_at"`
}

func toMovement(m inventory.Movement) movementJSON {
	return movementJSON{
		ID:            m.ID,
		MaterialID:    m.MaterialID,
		Type:          string(m.Type),
		Quantity:      m.Quantity,
		Reason:        m.Reason,
		ReferenceType: string(m.RefType),
		ReferenceID:   m.RefID,
		CreatedBy:     m.CreatedBy,
		CreatedByName: m.CreatedByName,
		CreatedAt:     m.CreatedAt,
	}
}

type supplierBody struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"omitempty,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (b supplierBody) input() suppliers.Input {
	return suppliers.Input{Name: b.Name, Email: b.Email, Phone: b.Phone, Address: b.Address}
}

type supplierJSON struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toSupplier(s suppliers.Supplier) supplierJSON {
	return supplierJSON{
		ID:        s.ID,
		Name:      s.Name,
		Email:     s.Email,
		Phone:     s.Phone,
		Address:   s.Address,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

type entryBody struct {
	MaterialID int64               `json:"material_id" binding:"required"`
	SupplierID int64               `json:"supplier_id" binding:"required"`
	Quantity   int                 `json:"quantity" binding:"required,gt=0"`
	UnitPrice  decimal.NullDecimal `json:"unit_price"`
	Batch      string              `json:"batch"`
	ExpiryDate string              `json:"expiry_date"`
	Notes      string              `json:"notes"`
}

func (b entryBody) input() (stockentries.Input, error) {
	in := stockentries.Input{
		MaterialID: b.MaterialID,
		SupplierID: b.SupplierID,
		Quantity:   b.Quantity,
		UnitPrice:  b.UnitPrice,
		Batch:      b.Batch,
		Notes:      b.Notes,
	}
	if b.ExpiryDate != "" {
		d, err := time.Parse(time.DateOnly, b.ExpiryDate)
		if err != nil {
			return in, apperr.Validation("expiry_date deve estar no formato AAAA-MM-DD")
		}
		in.ExpiryDate = &d
	}
	return in, nil
}

type entryJSON struct {
	ID            int64               `json:"id"`
	MaterialID    int64               `json:"material_id"`
	MaterialName  string              `json:"material_name"`
	MaterialUnit  string              `json:"material_unit"`
	SupplierID    int64               `json:"supplier_id"`
	SupplierName  string              `json:"supplier_name"`
	Quantity      int                 `json:"quantity"`
	UnitPrice     decimal.NullDecimal `json:"unit_price"`
	TotalPrice    decimal.Decimal     `json:"total_price"`
	Batch         string              `json:"batch"`
	ExpiryDate    *string             `json:"expiry_date"`
	Notes         string              `json:"notes"`
	CreatedBy     int64               `json:"created_by"`
	CreatedByName string              `json:"created_by_name"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func toEntry(e stockentries.Entry) entryJSON {
	out := entryJSON{
		ID:            e.ID,
		MaterialID:    e.MaterialID,
		MaterialName:  e.MaterialName,
		MaterialUnit:  e.MaterialUnit,
		SupplierID:    e.SupplierID,
		SupplierName:  e.SupplierName,
		Quantity:      e.Quantity,
		UnitPrice:     e.UnitPrice,
		TotalPrice:    e.TotalPrice(),
		Batch:         e.Batch,
		Notes:         e.Notes,
		CreatedBy:     e.CreatedBy,
		CreatedByName: e.CreatedByName,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
	if e.ExpiryDate != nil {
		d := e.ExpiryDate.Format(time.DateOnly)
		out.ExpiryDate = &d
	}
	return out
}

type itemBody struct {
	MaterialID int64  `json:"material_id" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required,gt=0"`
	Notes      string `json:"notes"`
}

type requestBody struct {
	Priority string     `json:"priority" binding:"omitempty,priority"`
	Notes    string     `json:"notes"`
	Items    []itemBody `json:"items" binding:"required,min=1,dive"`
}

// requestEditBody allows omitting items, which keeps the current ones.
type requestEditBody struct {
	Priority string     `json:"priority" binding:"omitempty,priority"`
	Notes    string     `json:"notes"`
	Items    []itemBody `json:"items" binding:"omitempty,dive"`
}

func toCreateInput(priority, notes string, items []itemBody) requests.CreateInput {
	in := requests.CreateInput{Priority: requests.Priority(priority), Notes: notes}
	for _, it := range items {
		in.Items = append(in.Items, requests.ItemInput{MaterialID: it.MaterialID, Quantity: it.Quantity, Notes: it.Notes})
	}
	return in
}

type approvalBody struct {
	// ApprovedBy is accepted for compatibility; the approver is always the caller.
	ApprovedBy         any `json:"approved_by"`
	ApprovedQuantities []struct {
		ItemID   int64 `json:"item_id" binding:"required"`
		Quantity *int  `json:"quantity" binding:"required"`
	} `json:"approved_quantities" binding:"required,min=1,dive"`
}

func (b approvalBody) approvals() []requests.Approval {
	out := make([]requests.Approval, 0, len(b.ApprovedQuantities))
	for _, a := range b.ApprovedQuantities {
		out = append(out, requests.Approval{ItemID: a.ItemID, Quantity: *a.Quantity})
	}
	return out
}

type rejectBody struct {
	Reason string `json:"reason" binding:"required"`
}

type itemJSON struct {
	ID                 int64  `json:"id"`
	MaterialID         int64  `json:"material_id"`
	MaterialName       string `json:"material_name"`
	MaterialUnit       string `json:"material_unit"`
	RequestedQuantity  int    `json:"requested_quantity"`
	ApprovedQuantity   *int   `json:"approved_quantity"`
	DispatchedQuantity *int   `json:"dispatched_quantity"`
	Notes              string `json:"notes"`
}

type requestJSON struct {
	ID               int64      `json:"id"`
	RequesterID      int64      `json:"requester_id"`
	RequesterName    string     `json:"requester_name"`
	RequesterSchool  string     `json:"requester_school"`
	Status           string     `json:"status"`
	Priority         string     `json:"priority"`
	Notes            string     `json:"notes"`
	ApprovedBy       *int64     `json:"approved_by"`
	ApprovedByName   string     `json:"approved_by_name,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at"`
	DispatchedBy     *int64     `json:"dispatched_by"`
	DispatchedByName string     `json:"dispatched_by_name,omitempty"`
	DispatchedAt     *time.Time `json:"dispatched_at"`
	ItemsCount       int        `json:"items_count"`
	Items            []itemJSON `json:"items,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func toRequest(r requests.Request) requestJSON {
	out := requestJSON{
		ID:               r.ID,
		RequesterID:      r.RequesterID,
		RequesterName:    r.RequesterName,
		RequesterSchool:  r.RequesterSchool,
		Status:           string(r.Status),
		Priority:         string(r.Priority),
		Notes:            r.Notes,
		ApprovedBy:       r.ApprovedBy,
		ApprovedByName:   r.ApprovedByName,
		ApprovedAt:       r.ApprovedAt,
		DispatchedBy:     r.DispatchedBy,
		DispatchedByName: r.DispatchedByName,
		DispatchedAt:     r.DispatchedAt,
		ItemsCount:       r.ItemsCount,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	for _, it := range r.Items {
		out.Items = append(out.Items, itemJSON{
			ID:                 it.ID,
			MaterialID:         it.MaterialID,
			MaterialName:       it.MaterialName,
			MaterialUnit:       it.MaterialUnit,
			RequestedQuantity:  it.RequestedQuantity,
			ApprovedQuantity:   it.ApprovedQuantity,
			DispatchedQuantity: it.DispatchedQuantity,
			Notes:              it.Notes,
		})
	}
	return out
}

type statsJSON struct {
	TotalMaterials    int `json:"total_materials"`
	PendingRequests   int `json:"pending_requests"`
	LowStockItems     int `json:"low_stock_items"`
	RecentEntries     int `json:"recent_entries"`
	TotalUsers        int `json:"total_users"`
	RequestsThisMonth int `json:"requests_this_month"`
}

func toStats(s dashboard.Stats) statsJSON {
	return statsJSON(s)
}

func mapSlice[T, U any](in []T, f func(T) U) []U {
	out := make([]U, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}
