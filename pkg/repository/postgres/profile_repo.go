package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/artem13815/jobboard/pkg/apperr"
	"github.com/artem13815/jobboard/pkg/auth"
	"github.com/artem13815/jobboard/pkg/profile"
)

// ProfileRepository keeps role-specific profile parts as JSONB documents.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

func (r *ProfileRepository) Create(ctx context.Context, p profile.Profile) error {
	applicant, employer, err := profileDocs(p)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO profiles (actor_id, role, phone, applicant, employer, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ActorID, string(p.Role), p.Phone, applicant, employer, p.UpdatedAt)
	return translate(err, "")
}

func (r *ProfileRepository) Get(ctx context.Context, actorID uuid.UUID) (profile.Profile, error) {
	var (
		p                   profile.Profile
		role                string
		applicant, employer []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT actor_id, role, phone, applicant, employer, updated_at
		FROM profiles WHERE actor_id = $1
	`, actorID).Scan(&p.ActorID, &role, &p.Phone, &applicant, &employer, &p.UpdatedAt)
	if err != nil {
		return profile.Profile{}, translate(err, "profile not found")
	}
	p.Role = auth.Role(role)
	p.UpdatedAt = p.UpdatedAt.UTC()
	if len(applicant) > 0 {
		p.Applicant = &profile.ApplicantProfile{}
		if err := json.Unmarshal(applicant, p.Applicant); err != nil {
			return profile.Profile{}, apperr.Internal("decode applicant profile", err)
		}
	}
	if len(employer) > 0 {
		p.Employer = &profile.EmployerProfile{}
		if err := json.Unmarshal(employer, p.Employer); err != nil {
			return profile.Profile{}, apperr.Internal("decode employer profile", err)
		}
	}
	return p, nil
}

func (r *ProfileRepository) Save(ctx context.Context, p profile.Profile) error {
	applicant, employer, err := profileDocs(p)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE profiles SET phone = $2, applicant = $3, employer = $4, updated_at = $5
		WHERE actor_id = $1
	`, p.ActorID, p.Phone, applicant, employer, p.UpdatedAt)
	if err != nil {
		return translate(err, "")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("profile not found")
	}
	return nil
}

// profileDocs encodes the role parts; an absent part is stored as NULL.
func profileDocs(p profile.Profile) (applicant, employer []byte, err error) {
	if p.Applicant != nil {
		if applicant, err = json.Marshal(p.Applicant); err != nil {
			return nil, nil, apperr.Internal("encode applicant profile", err)
		}
	}
	if p.Employer != nil {
		if employer, err = json.Marshal(p.Employer); err != nil {
			return nil, nil, apperr.Internal("encode employer profile", err)
		}
	}
	return applicant, employer, nil
}
