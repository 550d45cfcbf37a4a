package suppliers

import "time"

type Supplier struct {
	ID        int64
	Name      string
	Email     string
	Phone     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Input struct {
	Name    string
	Email   string
	Phone   string
	Address string
}
