package store

import (
	"context"

	"github.com/wosledon/vitanote/internal/users"
)

const userColumns = `id, username, email, password_hash, display_name, diabetes_type,
	height_cm, target_glucose_min, target_glucose_max, created_at, updated_at`

// CreateUser implements users.Repository.
func (s *Store) CreateUser(ctx context.Context, u *users.User) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.DisplayName, string(u.DiabetesType),
		u.HeightCM, u.TargetGlucoseMin, u.TargetGlucoseMax, toMillis(u.CreatedAt), toMillis(u.UpdatedAt),
	)
	return mapError(err, "creating user")
}

// GetUser implements users.Repository.
func (s *Store) GetUser(ctx context.Context, id string) (*users.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

// GetUserByUsername implements users.Repository. Usernames match
// case-insensitively.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*users.User, error) {
	return s.getUser(ctx, "username = ?", username)
}

// GetUserByEmail implements users.Repository.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*users.User, error) {
	return s.getUser(ctx, "email = ?", email)
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (*users.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg)

	var (
		u                    users.User
		diabetes             string
		createdAt, updatedAt int64
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.DisplayName, &diabetes,
		&u.HeightCM, &u.TargetGlucoseMin, &u.TargetGlucoseMax, &createdAt, &updatedAt)
	if err != nil {
		return nil, mapError(err, "getting user")
	}
	u.DiabetesType = users.DiabetesType(diabetes)
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return &u, nil
}

// UpdateUser implements users.Repository.
func (s *Store) UpdateUser(ctx context.Context, u *users.User) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET
		email = ?, password_hash = ?, display_name = ?, diabetes_type = ?,
		height_cm = ?, target_glucose_min = ?, target_glucose_max = ?, updated_at = ?
		WHERE id = ?`,
		u.Email, u.PasswordHash, u.DisplayName, string(u.DiabetesType),
		u.HeightCM, u.TargetGlucoseMin, u.TargetGlucoseMax, toMillis(u.UpdatedAt), u.ID,
	)
	if err != nil {
		return mapError(err, "updating user")
	}
	return requireAffected(res, "updating user")
}
