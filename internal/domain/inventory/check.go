package inventory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Spok95/school-supply/internal/apperr"
)

// InsufficientStockError lists every material that cannot cover its need.
type InsufficientStockError struct {
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s (solicitado %d, disponível %d)", s.Name, s.Requested, s.Available))
	}
	return "estoque insuficiente para: " + strings.Join(parts, ", ")
}

func insufficient(shortages []Shortage) error {
	ie := &InsufficientStockError{Shortages: shortages}
	return &apperr.Error{Kind: apperr.KindBusinessRule, Message: ie.Error(), Err: ie}
}

// Check sums needs per material and compares them with available, keyed by material
// id. Names come from levels. The returned error is a business-rule error wrapping
// *InsufficientStockError.
func Check(levels map[int64]Level, available map[int64]int, needs []Need) error {
	total := make(map[int64]int, len(needs))
	for _, n := range needs {
		if n.Quantity <= 0 {
			continue
		}
		total[n.MaterialID] += n.Quantity
	}

	var shortages []Shortage
	for id, want := range total {
		have, ok := available[id]
		if ok && have >= want {
			continue
		}
		name := levels[id].Name
		if name == "" {
			name = fmt.Sprintf("material #%d", id)
		}
		shortages = append(shortages, Shortage{MaterialID: id, Name: name, Requested: want, Available: have})
	}
	if len(shortages) == 0 {
		return nil
	}
	sort.Slice(shortages, func(i, j int) bool { return shortages[i].MaterialID < shortages[j].MaterialID })
	return insufficient(shortages)
}
