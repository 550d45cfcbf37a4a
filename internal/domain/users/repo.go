package users

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/school-supply/internal/apperr"
)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const userColumns = `id, name, email, password_hash, role, school, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.School, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, strings.TrimSpace(email)))
}

func (r *Repo) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.School, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Emails are unique regardless of case.
var errEmailTaken = apperr.BusinessRule("e-mail já cadastrado")

// Create stores a user whose password is already hashed.
func (r *Repo) Create(ctx context.Context, in Input, passwordHash string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, role, school)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, in.Name, strings.TrimSpace(in.Email), passwordHash, string(in.Role), in.School).Scan(&id)
	if apperr.IsUniqueViolation(err) {
		return 0, errEmailTaken
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Update changes profile fields; passwordHash == "" keeps the stored hash.
func (r *Repo) Update(ctx context.Context, id int64, in Input, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET
			name = $2,
			email = $3,
			role = $4,
			school = $5,
			password_hash = COALESCE(NULLIF($6, ''), password_hash),
			updated_at = now()
		WHERE id = $1
	`, id, in.Name, strings.TrimSpace(in.Email), string(in.Role), in.School, passwordHash)
	if apperr.IsUniqueViolation(err) {
		return errEmailTaken
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("usuário não encontrado")
	}
	return nil
}

// UpsertAdmin creates the administrator account or resets its password and role.
func (r *Repo) UpsertAdmin(ctx context.Context, name, email, passwordHash string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, $3, 'administrador')
		ON CONFLICT ((lower(email)))
		DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			role          = 'administrador',
			updated_at    = now()
		RETURNING `+userColumns, name, strings.TrimSpace(email), passwordHash))
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return apperr.FromPg(err, "não é possível excluir usuário que possui solicitações ou entradas registradas")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("usuário não encontrado")
	}
	return nil
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}
