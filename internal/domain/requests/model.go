package requests

import "time"

type Status string

const (
	StatusPending    Status = "pendente"
	StatusApproved   Status = "aprovado"
	StatusRejected   Status = "rejeitado"
	StatusDispatched Status = "despachado"
	StatusCancelled  Status = "cancelado"
)

var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved: {StatusDispatched, StatusRejected},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusDispatched, StatusCancelled:
		return true
	}
	return false
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool { return s.Valid() && len(transitions[s]) == 0 }

type Priority string

const (
	PriorityLow    Priority = "baixa"
	PriorityMedium Priority = "media"
	PriorityHigh   Priority = "alta"
)

func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

type Request struct {
	ID               int64
	RequesterID      int64
	RequesterName    string
	RequesterSchool  string
	Status           Status
	Priority         Priority
	Notes            string
	ApprovedBy       *int64
	ApprovedByName   string
	ApprovedAt       *time.Time
	DispatchedBy     *int64
	DispatchedByName string
	DispatchedAt     *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ItemsCount       int
	Items            []Item
}

type Item struct {
	ID                 int64
	RequestID          int64
	MaterialID         int64
	MaterialName       string
	MaterialUnit       string
	RequestedQuantity  int
	ApprovedQuantity   *int
	DispatchedQuantity *int
	Notes              string
}

type ItemInput struct {
	MaterialID int64
	Quantity   int
	Notes      string
}

// CreateInput is also used for edits of a pending request; an edit with no items
// keeps the current ones.
type CreateInput struct {
	Priority Priority
	Notes    string
	Items    []ItemInput
}

type Approval struct {
	ItemID   int64
	Quantity int
}

type Filter struct {
	RequesterID int64
	Status      Status
}
