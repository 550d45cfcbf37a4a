package requests

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/school-supply/internal/apperr"
	"github.com/Spok95/school-supply/internal/domain/inventory"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const selectRequest = `
	SELECT r.id, r.requester_id, ru.name, ru.school, r.status, r.priority, r.notes,
	       r.approved_by, COALESCE(au.name, ''), r.approved_at,
	       r.dispatched_by, COALESCE(du.name, ''), r.dispatched_at,
	       r.created_at, r.updated_at,
	       (SELECT COUNT(*) FROM request_items i WHERE i.request_id = r.id)
	FROM requests r
	JOIN users ru ON ru.id = r.requester_id
	LEFT JOIN users au ON au.id = r.approved_by
	LEFT JOIN users du ON du.id = r.dispatched_by
`

func scanRequest(row pgx.Row, r *Request) error {
	return row.Scan(&r.ID, &r.RequesterID, &r.RequesterName, &r.RequesterSchool, &r.Status, &r.Priority, &r.Notes,
		&r.ApprovedBy, &r.ApprovedByName, &r.ApprovedAt,
		&r.DispatchedBy, &r.DispatchedByName, &r.DispatchedAt,
		&r.CreatedAt, &r.UpdatedAt, &r.ItemsCount)
}

func loadItems(ctx context.Context, q querier, requestID int64) ([]Item, error) {
	rows, err := q.Query(ctx, `
		SELECT i.id, i.request_id, i.material_id, m.name, m.unit,
		       i.requested_quantity, i.approved_quantity, i.dispatched_quantity, i.notes
		FROM request_items i
		JOIN materials m ON m.id = i.material_id
		WHERE i.request_id = $1
		ORDER BY i.id
	`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.RequestID, &it.MaterialID, &it.MaterialName, &it.MaterialUnit,
			&it.RequestedQuantity, &it.ApprovedQuantity, &it.DispatchedQuantity, &it.Notes); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// Get returns the request with its items, or nil if it does not exist.
func (r *Repo) Get(ctx context.Context, id int64) (*Request, error) {
	var req Request
	if err := scanRequest(r.pool.QueryRow(ctx, selectRequest+` WHERE r.id = $1`, id), &req); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	items, err := loadItems(ctx, r.pool, id)
	if err != nil {
		return nil, err
	}
	req.Items = items
	return &req, nil
}

func (r *Repo) List(ctx context.Context, f Filter) ([]Request, error) {
	rows, err := r.pool.Query(ctx, selectRequest+`
		WHERE ($1::bigint = 0 OR r.requester_id = $1) AND ($2::text = '' OR r.status = $2)
		ORDER BY r.created_at DESC, r.id DESC
	`, f.RequesterID, string(f.Status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		var req Request
		if err := scanRequest(rows, &req); err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func insertItems(ctx context.Context, tx pgx.Tx, requestID int64, items []ItemInput) error {
	for _, it := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO request_items (request_id, material_id, requested_quantity, notes)
			VALUES ($1, $2, $3, $4)
		`, requestID, it.MaterialID, it.Quantity, it.Notes); err != nil {
			return apperr.FromPg(err, fmt.Sprintf("material %d não encontrado", it.MaterialID))
		}
	}
	return nil
}

// Create stores a pending request and its items.
func (r *Repo) Create(ctx context.Context, requesterID int64, in CreateInput) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	if err := tx.QueryRow(ctx, `
		INSERT INTO requests (requester_id, status, priority, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, requesterID, string(StatusPending), string(in.Priority), in.Notes).Scan(&id); err != nil {
		return 0, apperr.FromPg(err, "solicitante inexistente")
	}
	if err := insertItems(ctx, tx, id, in.Items); err != nil {
		return 0, err
	}
	return id, tx.Commit(ctx)
}

type lockedRequest struct {
	status      Status
	notes       string
	requesterID int64
}

func lockRequest(ctx context.Context, tx pgx.Tx, id int64) (lockedRequest, error) {
	var l lockedRequest
	err := tx.QueryRow(ctx, `SELECT status, notes, requester_id FROM requests WHERE id = $1 FOR UPDATE`, id).
		Scan(&l.status, &l.notes, &l.requesterID)
	if errors.Is(err, pgx.ErrNoRows) {
		return l, apperr.NotFound("solicitação não encontrada")
	}
	return l, err
}

// UpdatePending edits priority, notes and (when given) the items of a pending request.
func (r *Repo) UpdatePending(ctx context.Context, id int64, in CreateInput) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	l, err := lockRequest(ctx, tx, id)
	if err != nil {
		return err
	}
	if l.status != StatusPending {
		return apperr.BusinessRule("apenas solicitações pendentes podem ser editadas")
	}

	if _, err := tx.Exec(ctx, `
		UPDATE requests SET priority = $2, notes = $3, updated_at = now() WHERE id = $1
	`, id, string(in.Priority), in.Notes); err != nil {
		return err
	}
	if len(in.Items) > 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM request_items WHERE request_id = $1`, id); err != nil {
			return err
		}
		if err := insertItems(ctx, tx, id, in.Items); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// reservedStock sums what other approved, not yet dispatched requests hold of each material.
func reservedStock(ctx context.Context, tx pgx.Tx, materialIDs []int64, exceptRequest int64) (map[int64]int, error) {
	rows, err := tx.Query(ctx, `
		SELECT i.material_id, COALESCE(SUM(i.approved_quantity), 0)
		FROM request_items i
		JOIN requests r ON r.id = i.request_id
		WHERE r.status = $1 AND r.id <> $2 AND i.material_id = ANY($3)
		GROUP BY i.material_id
	`, string(StatusApproved), exceptRequest, materialIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]int, len(materialIDs))
	for rows.Next() {
		var id int64
		var q int
		if err := rows.Scan(&id, &q); err != nil {
			return nil, err
		}
		out[id] = q
	}
	return out, rows.Err()
}

// Approve records the approved quantities. Stock is checked against what is on hand
// minus what other approved requests already hold, with the materials locked, so two
// approvals cannot promise the same units.
func (r *Repo) Approve(ctx context.Context, id, actorID int64, approvals []Approval) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	l, err := lockRequest(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := checkTransition(l.status, StatusApproved); err != nil {
		return err
	}

	items, err := loadItems(ctx, tx, id)
	if err != nil {
		return err
	}
	plan, err := PlanApproval(items, approvals)
	if err != nil {
		return err
	}

	needs := Needs(items, plan)
	if ids := MaterialIDs(needs); len(ids) > 0 {
		levels, err := inventory.LockLevels(ctx, tx, ids)
		if err != nil {
			return err
		}
		reserved, err := reservedStock(ctx, tx, ids, id)
		if err != nil {
			return err
		}
		available := make(map[int64]int, len(levels))
		for mid, lv := range levels {
			available[mid] = max(lv.CurrentStock-reserved[mid], 0)
		}
		if err := inventory.Check(levels, available, needs); err != nil {
			return err
		}
	}

	for itemID, q := range plan {
		if _, err := tx.Exec(ctx, `UPDATE request_items SET approved_quantity = $2 WHERE id = $1`, itemID, q); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(ctx, `
		UPDATE requests SET status = $2, approved_by = $3, approved_at = now(), updated_at = now()
		WHERE id = $1
	`, id, string(StatusApproved), actorID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Dispatch withdraws every approved quantity and closes the request. Stock is checked
// again because entries may have been removed since approval. It returns the materials
// left at or below their minimum.
func (r *Repo) Dispatch(ctx context.Context, id, actorID int64) ([]inventory.Level, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	l, err := lockRequest(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(l.status, StatusDispatched); err != nil {
		return nil, err
	}

	items, err := loadItems(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	plan := make(map[int64]int, len(items))
	for _, it := range items {
		if it.ApprovedQuantity != nil {
			plan[it.ID] = *it.ApprovedQuantity
		}
	}
	needs := Needs(items, plan)
	ids := MaterialIDs(needs)

	var low []inventory.Level
	if len(ids) > 0 {
		levels, err := inventory.LockLevels(ctx, tx, ids)
		if err != nil {
			return nil, err
		}
		available := make(map[int64]int, len(levels))
		for mid, lv := range levels {
			available[mid] = lv.CurrentStock
		}
		if err := inventory.Check(levels, available, needs); err != nil {
			return nil, err
		}

		for _, n := range needs {
			if err := inventory.Withdraw(ctx, tx, inventory.Movement{
				MaterialID: n.MaterialID,
				Quantity:   n.Quantity,
				Reason:     fmt.Sprintf("despacho da solicitação #%d", id),
				RefType:    inventory.RefRequest,
				RefID:      &id,
				CreatedBy:  actorID,
			}); err != nil {
				return nil, err
			}
			lv := levels[n.MaterialID]
			lv.CurrentStock -= n.Quantity
			levels[n.MaterialID] = lv
		}
		for _, mid := range ids {
			if lv := levels[mid]; lv.CurrentStock <= lv.MinStock {
				low = append(low, lv)
			}
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE request_items SET dispatched_quantity = COALESCE(approved_quantity, 0) WHERE request_id = $1
	`, id); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE requests SET status = $2, dispatched_by = $3, dispatched_at = now(), updated_at = now()
		WHERE id = $1
	`, id, string(StatusDispatched), actorID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return low, nil
}

// Reject closes a pending or approved request and appends the reason to its notes.
func (r *Repo) Reject(ctx context.Context, id, actorID int64, reason string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	l, err := lockRequest(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := checkTransition(l.status, StatusRejected); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE requests SET status = $2, notes = $3, approved_by = $4, approved_at = now(), updated_at = now()
		WHERE id = $1
	`, id, string(StatusRejected), AppendReason(l.notes, reason), actorID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repo) Cancel(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	l, err := lockRequest(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := checkTransition(l.status, StatusCancelled); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE requests SET status = $2, updated_at = now() WHERE id = $1`,
		id, string(StatusCancelled)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Count counts requests matching f created at or after since (zero time for all).
func (r *Repo) Count(ctx context.Context, f Filter, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM requests
		WHERE ($1::bigint = 0 OR requester_id = $1) AND ($2::text = '' OR status = $2) AND created_at >= $3
	`, f.RequesterID, string(f.Status), since).Scan(&n)
	return n, err
}
