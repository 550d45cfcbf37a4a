package materials

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/school-supply/internal/apperr"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const materialColumns = `id, name, category, unit, current_stock, min_stock, description, created_at, updated_at`

func scanMaterial(row pgx.Row, m *Material) error {
	return row.Scan(
		&m.ID,
		&m.Name,
		&m.Category,
		&m.Unit,
		&m.CurrentStock,
		&m.MinStock,
		&m.Description,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
}

func collect(rows pgx.Rows) ([]Material, error) {
	defer rows.Close()
	var out []Material
	for rows.Next() {
		var m Material
		if err := scanMaterial(rows, &m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

/* Materials CRUD */

func (r *Repo) Create(ctx context.Context, in Input) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO materials (name, category, unit, current_stock, min_stock, description)
		VALUES ($1, $2, $3, 0, $4, $5)
		RETURNING id
	`, in.Name, in.Category, in.Unit, in.MinStock, in.Description).Scan(&id)
	return id, err
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Material, error) {
	var m Material
	err := scanMaterial(r.pool.QueryRow(ctx, `SELECT `+materialColumns+` FROM materials WHERE id = $1`, id), &m)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *Repo) Update(ctx context.Context, id int64, in Input) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE materials
		SET name = $2, category = $3, unit = $4, min_stock = $5, description = $6, updated_at = now()
		WHERE id = $1
	`, id, in.Name, in.Category, in.Unit, in.MinStock, in.Description)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("material não encontrado")
	}
	return nil
}

// Delete removes a material that has never moved. Materials referenced by stock
// entries or request items are kept for history.
func (r *Repo) Delete(ctx context.Context, id int64) error {
	var used bool
	if err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM request_items WHERE material_id = $1)
		    OR EXISTS (SELECT 1 FROM stock_entries WHERE material_id = $1)
	`, id).Scan(&used); err != nil {
		return err
	}
	if used {
		return apperr.BusinessRule("não é possível excluir material que possui histórico de movimentação")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM materials WHERE id = $1`, id)
	if err != nil {
		return apperr.FromPg(err, "não é possível excluir material que possui histórico de movimentação")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("material não encontrado")
	}
	return nil
}

func (r *Repo) List(ctx context.Context) ([]Material, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+materialColumns+` FROM materials ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// Search matches by name fragment, case-insensitive, at most 20 rows.
func (r *Repo) Search(ctx context.Context, q string) ([]Material, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+materialColumns+`
		FROM materials
		WHERE name ILIKE $1
		ORDER BY name
		LIMIT 20
	`, "%"+escapeLike(q)+"%")
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *Repo) ListLowStock(ctx context.Context) ([]Material, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+materialColumns+`
		FROM materials
		WHERE current_stock <= min_stock
		ORDER BY current_stock - min_stock, name
	`)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM materials`).Scan(&n)
	return n, err
}

func (r *Repo) CountLowStock(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM materials WHERE current_stock <= min_stock`).Scan(&n)
	return n, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
