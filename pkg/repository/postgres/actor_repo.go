package postgres

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/artem13815/jobboard/pkg/apperr"
	"github.com/artem13815/jobboard/pkg/auth"
)

// ActorRepository implements auth.ActorRepository backed by PostgreSQL (pgx).
type ActorRepository struct {
	pool *pgxpool.Pool
}

func NewActorRepository(pool *pgxpool.Pool) *ActorRepository {
	return &ActorRepository{pool: pool}
}

func (r *ActorRepository) Create(ctx context.Context, a auth.Actor) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO actors (id, email, name, phone, role, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, a.ID, strings.ToLower(a.Email), a.Name, a.Phone, string(a.Role), a.PasswordHash, a.CreatedAt)
	if err != nil {
		err = translate(err, "")
		if apperr.Is(err, apperr.KindConflict) {
			return apperr.Conflict("email already registered")
		}
		return err
	}
	return nil
}

// Delete cascades to the actor's profile.
func (r *ActorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM actors WHERE id = $1`, id); err != nil {
		return translate(err, "")
	}
	return nil
}

const actorColumns = `id, email, name, phone, role, password_hash, created_at`

func (r *ActorRepository) GetByEmail(ctx context.Context, email string) (auth.Actor, error) {
	return r.scanOne(ctx, `SELECT `+actorColumns+` FROM actors WHERE email = $1`, strings.ToLower(email))
}

func (r *ActorRepository) GetByID(ctx context.Context, id uuid.UUID) (auth.Actor, error) {
	return r.scanOne(ctx, `SELECT `+actorColumns+` FROM actors WHERE id = $1`, id)
}

func (r *ActorRepository) scanOne(ctx context.Context, query string, arg any) (auth.Actor, error) {
	var a auth.Actor
	var role string
	err := r.pool.QueryRow(ctx, query, arg).
		Scan(&a.ID, &a.Email, &a.Name, &a.Phone, &role, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		return auth.Actor{}, translate(err, "user not found")
	}
	a.Role = auth.Role(role)
	a.CreatedAt = a.CreatedAt.UTC()
	return a, nil
}
