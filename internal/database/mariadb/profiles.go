package mariadb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kozaktomas/barface/internal/database"
)

// ProfileRepository stores profiles in MariaDB.
// Face details and drinks are kept as JSON text columns.
type ProfileRepository struct {
	pool *Pool
}

// NewProfileRepository creates a new MariaDB profile repository.
func NewProfileRepository(pool *Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// encodeProfile returns the JSON column values of a profile.
func encodeProfile(profile *database.Profile) (detail, drinks []byte, err error) {
	detail, err = json.Marshal(profile.FaceDetail)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal face detail: %w", err)
	}
	favDrinks := profile.FavDrinks
	if favDrinks == nil {
		favDrinks = []string{}
	}
	drinks, err = json.Marshal(favDrinks)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal drinks: %w", err)
	}
	return detail, drinks, nil
}

// decodeProfile fills the JSON-backed fields of a profile.
func decodeProfile(profile *database.Profile, detail, drinks []byte) error {
	if err := json.Unmarshal(detail, &profile.FaceDetail); err != nil {
		return fmt.Errorf("unmarshal face detail: %w", err)
	}
	if err := json.Unmarshal(drinks, &profile.FavDrinks); err != nil {
		return fmt.Errorf("unmarshal drinks: %w", err)
	}
	return nil
}

// PutProfile stores a profile, replacing any profile with the same face ID.
func (r *ProfileRepository) PutProfile(ctx context.Context, profile *database.Profile) error {
	detail, drinks, err := encodeProfile(profile)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO profiles (face_id, name, face_detail, fav_drinks)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE name = VALUES(name), face_detail = VALUES(face_detail), fav_drinks = VALUES(fav_drinks)
	`
	if _, err := r.pool.db.ExecContext(ctx, query, profile.FaceID, profile.Name, detail, drinks); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// GetProfile retrieves a profile by face ID, returns nil if not found.
func (r *ProfileRepository) GetProfile(ctx context.Context, faceID string) (*database.Profile, error) {
	var p database.Profile
	var detail, drinks []byte

	err := r.pool.db.QueryRowContext(ctx,
		`SELECT face_id, name, face_detail, fav_drinks, created_at FROM profiles WHERE face_id = ?`,
		faceID,
	).Scan(&p.FaceID, &p.Name, &detail, &drinks, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	if err := decodeProfile(&p, detail, drinks); err != nil {
		return nil, err
	}
	return &p, nil
}

// CountProfiles returns the total number of profiles stored.
func (r *ProfileRepository) CountProfiles(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM profiles").Scan(&count); err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return count, nil
}
