package stockentries

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

const selectEntry = `
	SELECT e.id, e.material_id, m.name, m.unit, e.supplier_id, s.name, e.quantity, e.unit_price,
	       e.batch, e.expiry_date, e.notes, e.created_by, COALESCE(u.name, ''), e.created_at, e.updated_at
	FROM stock_entries e
	JOIN materials m ON m.id = e.material_id
	JOIN suppliers s ON s.id = e.supplier_id
	LEFT JOIN users u ON u.id = e.created_by
`

func scanEntry(row pgx.Row, e *Entry) error {
	return row.Scan(&e.ID, &e.MaterialID, &e.MaterialName, &e.MaterialUnit, &e.SupplierID, &e.SupplierName,
		&e.Quantity, &e.UnitPrice, &e.Batch, &e.ExpiryDate, &e.Notes, &e.CreatedBy, &e.CreatedByName,
		&e.CreatedAt, &e.UpdatedAt)
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Entry, error) {
	var e Entry
	if err := scanEntry(r.pool.QueryRow(ctx, selectEntry+` WHERE e.id = $1`, id), &e); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *Repo) List(ctx context.Context, f Filter) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, selectEntry+`
		WHERE ($1::bigint = 0 OR e.material_id = $1) AND ($2::bigint = 0 OR e.supplier_id = $2)
		ORDER BY e.created_at DESC, e.id DESC
	`, f.MaterialID, f.SupplierID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := scanEntry(rows, &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountSince counts entries created at or after since.
func (r *Repo) CountSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM stock_entries WHERE created_at >= $1`, since).Scan(&n)
	return n, err
}

// Create inserts the entry and raises the material balance in one transaction.
func (r *Repo) Create(ctx context.Context, actorID int64, in Input) (int64, error) {
	ids, err := r.CreateBatch(ctx, actorID, []Input{in})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// CreateBatch applies all entries or none.
func (r *Repo) CreateBatch(ctx context.Context, actorID int64, ins []Input) ([]int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ids := make([]int64, 0, len(ins))
	for i, in := range ins {
		id, err := insertEntry(ctx, tx, actorID, in)
		if err != nil {
			if len(ins) > 1 {
				return nil, fmt.Errorf("linha %d: %w", i+1, err)
			}
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ids, nil
}

func insertEntry(ctx context.Context, tx pgx.Tx, actorID int64, in Input) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	var id int64
	err := tx.QueryRow(ctx, `
		INSERT INTO stock_entries (material_id, supplier_id, quantity, unit_price, batch, expiry_date, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, in.MaterialID, in.SupplierID, in.Quantity, in.UnitPrice, in.Batch, in.ExpiryDate, in.Notes, actorID).Scan(&id)
	if err != nil {
		return 0, apperr.FromPg(err, "material ou fornecedor inexistente")
	}

	if err := inventory.Receive(ctx, tx, inventory.Movement{
		MaterialID: in.MaterialID,
		Quantity:   in.Quantity,
		Reason:     "entrada de estoque",
		RefType:    inventory.RefEntry,
		RefID:      &id,
		CreatedBy:  actorID,
	}); err != nil {
		return 0, err
	}
	return id, nil
}

type locked struct {
	materialID int64
	quantity   int
}

func lockEntry(ctx context.Context, tx pgx.Tx, id int64) (locked, error) {
	var l locked
	err := tx.QueryRow(ctx, `SELECT material_id, quantity FROM stock_entries WHERE id = $1 FOR UPDATE`, id).
		Scan(&l.materialID, &l.quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return l, apperr.NotFound("entrada de estoque não encontrada")
	}
	return l, err
}

// Update is the administrative edit. Quantity changes are applied to the balance as a
// delta; moving an entry to another material takes the old quantity back out first.
// Either way a balance that would go negative aborts the edit.
func (r *Repo) Update(ctx context.Context, actorID, id int64, in Input) error {
	if err := in.Validate(); err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	old, err := lockEntry(ctx, tx, id)
	if err != nil {
		return err
	}

	adj := func(materialID int64, delta int) error {
		m := inventory.Movement{
			MaterialID: materialID,
			Reason:     "ajuste de entrada de estoque",
			RefType:    inventory.RefAdjustment,
			RefID:      &id,
			CreatedBy:  actorID,
		}
		switch {
		case delta > 0:
			m.Quantity = delta
			return inventory.Receive(ctx, tx, m)
		case delta < 0:
			m.Quantity = -delta
			return inventory.Withdraw(ctx, tx, m)
		}
		return nil
	}

	if old.materialID == in.MaterialID {
		if err := adj(in.MaterialID, in.Quantity-old.quantity); err != nil {
			return err
		}
	} else {
		if err := adj(old.materialID, -old.quantity); err != nil {
			return err
		}
		if err := adj(in.MaterialID, in.Quantity); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE stock_entries
		SET material_id = $2, supplier_id = $3, quantity = $4, unit_price = $5, batch = $6,
		    expiry_date = $7, notes = $8, updated_at = now()
		WHERE id = $1
	`, id, in.MaterialID, in.SupplierID, in.Quantity, in.UnitPrice, in.Batch, in.ExpiryDate, in.Notes); err != nil {
		return apperr.FromPg(err, "material ou fornecedor inexistente")
	}
	return tx.Commit(ctx)
}

// Delete reverses the entry. It is refused when the material no longer holds the
// entry's quantity, since that stock has already been dispatched.
func (r *Repo) Delete(ctx context.Context, actorID, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	old, err := lockEntry(ctx, tx, id)
	if err != nil {
		return err
	}

	if err := inventory.Withdraw(ctx, tx, inventory.Movement{
		MaterialID: old.materialID,
		Quantity:   old.quantity,
		Reason:     "exclusão de entrada de estoque",
		RefType:    inventory.RefAdjustment,
		RefID:      &id,
		CreatedBy:  actorID,
	}); err != nil {
		return fmt.Errorf("excluir entrada %d: %w", id, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM stock_entries WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
