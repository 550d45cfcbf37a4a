package requests

import (
	"sort"
	"strings"

	"github.com/Spok95/school-supply/internal/apperr"
	"github.com/Spok95/school-supply/internal/domain/inventory"
)

// ValidateCreate checks a new request (or a pending edit when requireItems is false)
// and fills the default priority.
func ValidateCreate(in CreateInput, requireItems bool) (CreateInput, error) {
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if !in.Priority.Valid() {
		return in, apperr.Validation("prioridade inválida: %s", in.Priority)
	}
	if requireItems && len(in.Items) == 0 {
		return in, apperr.Validation("a solicitação deve ter pelo menos um item")
	}
	for i, it := range in.Items {
		if it.MaterialID <= 0 {
			return in, apperr.Validation("item %d: material_id é obrigatório", i+1)
		}
		if it.Quantity <= 0 {
			return in, apperr.Validation("item %d: quantidade deve ser maior que zero", i+1)
		}
	}
	in.Notes = strings.TrimSpace(in.Notes)
	return in, nil
}

func checkTransition(from, to Status) error {
	if from.CanTransitionTo(to) {
		return nil
	}
	switch to {
	case StatusApproved:
		return apperr.BusinessRule("apenas solicitações pendentes podem ser aprovadas")
	case StatusDispatched:
		return apperr.BusinessRule("apenas solicitações aprovadas podem ser despachadas")
	case StatusRejected:
		return apperr.BusinessRule("solicitação %s não pode ser rejeitada", from)
	case StatusCancelled:
		return apperr.BusinessRule("apenas solicitações pendentes podem ser canceladas")
	}
	return apperr.BusinessRule("transição inválida: %s → %s", from, to)
}

// PlanApproval maps item id to approved quantity. Every item of the request must be
// given exactly once with 0 <= quantity <= requested.
func PlanApproval(items []Item, approvals []Approval) (map[int64]int, error) {
	byID := make(map[int64]Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	plan := make(map[int64]int, len(approvals))
	for _, a := range approvals {
		it, ok := byID[a.ItemID]
		if !ok {
			return nil, apperr.Validation("item %d não pertence à solicitação", a.ItemID)
		}
		if _, dup := plan[a.ItemID]; dup {
			return nil, apperr.Validation("item %d informado mais de uma vez", a.ItemID)
		}
		if a.Quantity < 0 {
			return nil, apperr.Validation("quantidade aprovada do item %d não pode ser negativa", a.ItemID)
		}
		if a.Quantity > it.RequestedQuantity {
			return nil, apperr.Validation("quantidade aprovada do item %d (%d) excede a solicitada (%d)",
				a.ItemID, a.Quantity, it.RequestedQuantity)
		}
		plan[a.ItemID] = a.Quantity
	}
	for _, it := range items {
		if _, ok := plan[it.ID]; !ok {
			return nil, apperr.Validation("quantidade aprovada ausente para o item %d", it.ID)
		}
	}
	return plan, nil
}

// Needs turns a plan into per-item stock needs, skipping zero quantities.
func Needs(items []Item, plan map[int64]int) []inventory.Need {
	var out []inventory.Need
	for _, it := range items {
		if q := plan[it.ID]; q > 0 {
			out = append(out, inventory.Need{MaterialID: it.MaterialID, Quantity: q})
		}
	}
	return out
}

// MaterialIDs returns the distinct materials of needs in ascending order.
func MaterialIDs(needs []inventory.Need) []int64 {
	seen := make(map[int64]bool, len(needs))
	var ids []int64
	for _, n := range needs {
		if !seen[n.MaterialID] {
			seen[n.MaterialID] = true
			ids = append(ids, n.MaterialID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// AppendReason records a rejection reason below any existing notes.
func AppendReason(notes, reason string) string {
	line := "Motivo da rejeição: " + strings.TrimSpace(reason)
	if strings.TrimSpace(notes) == "" {
		return line
	}
	return notes + "\n\n" + line
}
