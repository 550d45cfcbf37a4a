package materials

import "time"

type Material struct {
	ID           int64
	Name         string
	Category     string
	Unit         string
	CurrentStock int
	MinStock     int
	Description  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LowStock reports whether the balance reached the reorder threshold.
func (m Material) LowStock() bool {
	return m.CurrentStock <= m.MinStock
}

// Input holds the editable fields. CurrentStock is deliberately absent: it only moves
// through stock entries and dispatches.
type Input struct {
	Name        string
	Category    string
	Unit        string
	MinStock    int
	Description string
}
