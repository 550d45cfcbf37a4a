package inventory

import "time"

type MoveType string

const (
	MoveIn  MoveType = "entrada"
	MoveOut MoveType = "saida"
)

type RefType string

const (
	RefRequest    RefType = "request"
	RefEntry      RefType = "entry"
	RefAdjustment RefType = "adjustment"
)

type Movement struct {
	ID            int64
	MaterialID    int64
	Type          MoveType
	Quantity      int
	Reason        string
	RefType       RefType
	RefID         *int64
	CreatedBy     int64
	CreatedByName string
	CreatedAt     time.Time
}

// Level is a locked snapshot of a material's balance inside a transaction.
type Level struct {
	MaterialID   int64
	Name         string
	Unit         string
	CurrentStock int
	MinStock     int
}

// Need is a quantity that must be covered by a material's available stock.
type Need struct {
	MaterialID int64
	Quantity   int
}

type Shortage struct {
	MaterialID int64
	Name       string
	Requested  int
	Available  int
}
