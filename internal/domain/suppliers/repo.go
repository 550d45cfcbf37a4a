package suppliers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/school-supply/internal/apperr"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) Create(ctx context.Context, in Input) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO suppliers (name, email, phone, address)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, in.Name, in.Email, in.Phone, in.Address).Scan(&id)
	return id, err
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Supplier, error) {
	var s Supplier
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, phone, address, created_at, updated_at
		FROM suppliers WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.Email, &s.Phone, &s.Address, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *Repo) List(ctx context.Context) ([]Supplier, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, phone, address, created_at, updated_at
		FROM suppliers
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Supplier
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Phone, &s.Address, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repo) Update(ctx context.Context, id int64, in Input) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE suppliers
		SET name = $2, email = $3, phone = $4, address = $5, updated_at = now()
		WHERE id = $1
	`, id, in.Name, in.Email, in.Phone, in.Address)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("fornecedor não encontrado")
	}
	return nil
}

// Delete fails with a business-rule error while stock entries reference the supplier.
func (r *Repo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return apperr.FromPg(err, "não é possível excluir fornecedor com entradas de estoque registradas")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("fornecedor não encontrado")
	}
	return nil
}
