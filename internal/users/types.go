// Package users manages VitaNote accounts: registration, login and profile.
package users

import (
	"context"
	"time"

	"github.com/wosledon/vitanote/pkg/auth"
)

// DiabetesType classifies the user's condition.
type DiabetesType string

const (
	DiabetesNone        DiabetesType = "none"
	DiabetesType1       DiabetesType = "type1"
	DiabetesType2       DiabetesType = "type2"
	DiabetesGestational DiabetesType = "gestational"
	DiabetesPre         DiabetesType = "prediabetes"
	DiabetesOther       DiabetesType = "other"
)

// Valid reports whether d is a known diabetes type.
func (d DiabetesType) Valid() bool {
	switch d {
	case DiabetesNone, DiabetesType1, DiabetesType2, DiabetesGestational, DiabetesPre, DiabetesOther:
		return true
	}
	return false
}

// User is a registered account.
type User struct {
	ID               string       `json:"id"`
	Username         string       `json:"username"`
	Email            string       `json:"email"`
	PasswordHash     string       `json:"-"`
	DisplayName      string       `json:"display_name"`
	DiabetesType     DiabetesType `json:"diabetes_type"`
	HeightCM         float64      `json:"height_cm"`
	TargetGlucoseMin float64      `json:"target_glucose_min"`
	TargetGlucoseMax float64      `json:"target_glucose_max"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// RegisterRequest creates an account.
type RegisterRequest struct {
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	Password     string       `json:"password"`
	DisplayName  string       `json:"display_name"`
	DiabetesType DiabetesType `json:"diabetes_type"`
}

// LoginRequest authenticates by username or email.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	*auth.Token
	User *User `json:"user"`
}

// ProfileUpdate changes profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	DisplayName      *string       `json:"display_name"`
	Email            *string       `json:"email"`
	DiabetesType     *DiabetesType `json:"diabetes_type"`
	HeightCM         *float64      `json:"height_cm"`
	TargetGlucoseMin *float64      `json:"target_glucose_min"`
	TargetGlucoseMax *float64      `json:"target_glucose_max"`
}

// PasswordChange replaces the password after verifying the current one.
type PasswordChange struct {
	Current string `json:"current_password"`
	New     string `json:"new_password"`
}

// Repository persists users. Lookups return v1.ErrNotFound for unknown
// users; Create and Update return v1.ErrConflict on duplicate username or
// email.
type Repository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, u *User) error
}
