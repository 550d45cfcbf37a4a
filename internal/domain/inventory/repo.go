package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/school-supply/internal/apperr"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// LockLevels locks the given materials FOR UPDATE in id order, so concurrent
// transactions touching overlapping sets queue instead of deadlocking.
func LockLevels(ctx context.Context, tx pgx.Tx, ids []int64) (map[int64]Level, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, name, unit, current_stock, min_stock
		FROM materials
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("lock materials: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]Level, len(ids))
	for rows.Next() {
		var l Level
		if err := rows.Scan(&l.MaterialID, &l.Name, &l.Unit, &l.CurrentStock, &l.MinStock); err != nil {
			return nil, err
		}
		out[l.MaterialID] = l
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			return nil, apperr.NotFound("material %d não encontrado", id)
		}
	}
	return out, nil
}

// Receive adds m.Quantity to the material and logs an entrada movement.
func Receive(ctx context.Context, tx pgx.Tx, m Movement) error {
	if m.Quantity <= 0 {
		return apperr.Validation("quantidade deve ser maior que zero")
	}
	tag, err := tx.Exec(ctx, `
		UPDATE materials SET current_stock = current_stock + $2, updated_at = now()
		WHERE id = $1
	`, m.MaterialID, m.Quantity)
	if err != nil {
		return fmt.Errorf("increase stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("material %d não encontrado", m.MaterialID)
	}
	m.Type = MoveIn
	return logMovement(ctx, tx, m)
}

// Withdraw subtracts m.Quantity only if the balance covers it; the WHERE guard keeps
// current_stock non-negative even without a prior lock.
func Withdraw(ctx context.Context, tx pgx.Tx, m Movement) error {
	if m.Quantity <= 0 {
		return apperr.Validation("quantidade deve ser maior que zero")
	}
	var left int
	err := tx.QueryRow(ctx, `
		UPDATE materials SET current_stock = current_stock - $2, updated_at = now()
		WHERE id = $1 AND current_stock >= $2
		RETURNING current_stock
	`, m.MaterialID, m.Quantity).Scan(&left)
	if errors.Is(err, pgx.ErrNoRows) {
		var l Level
		err = tx.QueryRow(ctx, `SELECT id, name, current_stock FROM materials WHERE id = $1`, m.MaterialID).
			Scan(&l.MaterialID, &l.Name, &l.CurrentStock)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("material %d não encontrado", m.MaterialID)
		}
		if err != nil {
			return err
		}
		return insufficient([]Shortage{{MaterialID: l.MaterialID, Name: l.Name, Requested: m.Quantity, Available: l.CurrentStock}})
	}
	if err != nil {
		return fmt.Errorf("decrease stock: %w", err)
	}
	m.Type = MoveOut
	return logMovement(ctx, tx, m)
}

func logMovement(ctx context.Context, tx pgx.Tx, m Movement) error {
	if _, err := tx.Exec(ctx, `
		INSERT INTO stock_movements (material_id, type, quantity, reason, reference_type, reference_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, m.MaterialID, string(m.Type), m.Quantity, m.Reason, string(m.RefType), m.RefID, m.CreatedBy); err != nil {
		return fmt.Errorf("log movement: %w", err)
	}
	return nil
}

// ListMovements returns the newest movements of a material first.
func (r *Repo) ListMovements(ctx context.Context, materialID int64, limit int) ([]Movement, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.material_id, m.type, m.quantity, m.reason, m.reference_type, m.reference_id,
		       m.created_by, COALESCE(u.name, ''), m.created_at
		FROM stock_movements m
		LEFT JOIN users u ON u.id = m.created_by
		WHERE m.material_id = $1
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $2
	`, materialID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.MaterialID, &m.Type, &m.Quantity, &m.Reason, &m.RefType, &m.RefID,
			&m.CreatedBy, &m.CreatedByName, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
