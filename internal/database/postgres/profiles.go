package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kozaktomas/barface/internal/database"
	"github.com/lib/pq"
)

// ProfileRepository stores profiles in PostgreSQL.
type ProfileRepository struct {
	pool *Pool
}

// NewProfileRepository creates a new PostgreSQL profile repository.
func NewProfileRepository(pool *Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// PutProfile stores a profile, replacing any profile with the same face ID.
func (r *ProfileRepository) PutProfile(ctx context.Context, profile *database.Profile) error {
	detail, err := json.Marshal(profile.FaceDetail)
	if err != nil {
		return fmt.Errorf("marshal face detail: %w", err)
	}

	drinks := profile.FavDrinks
	if drinks == nil {
		drinks = []string{}
	}

	err = r.pool.QueryRow(ctx, `
		INSERT INTO profiles (face_id, name, face_detail, fav_drinks)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (face_id) DO UPDATE
		SET name = EXCLUDED.name, face_detail = EXCLUDED.face_detail, fav_drinks = EXCLUDED.fav_drinks
		RETURNING created_at
	`, profile.FaceID, profile.Name, detail, pq.StringArray(drinks)).Scan(&profile.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// GetProfile retrieves a profile by face ID, returns nil if not found.
func (r *ProfileRepository) GetProfile(ctx context.Context, faceID string) (*database.Profile, error) {
	var p database.Profile
	var detail []byte
	var drinks pq.StringArray

	err := r.pool.QueryRow(ctx, `
		SELECT face_id, name, face_detail, fav_drinks, created_at
		FROM profiles
		WHERE face_id = $1
	`, faceID).Scan(&p.FaceID, &p.Name, &detail, &drinks, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	if err := json.Unmarshal(detail, &p.FaceDetail); err != nil {
		return nil, fmt.Errorf("unmarshal face detail: %w", err)
	}
	p.FavDrinks = []string(drinks)
	return &p, nil
}

// CountProfiles returns the total number of profiles stored.
func (r *ProfileRepository) CountProfiles(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM profiles").Scan(&count); err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return count, nil
}
