// Package medication records medication intake events.
package medication

import (
	"context"
	"time"
)

// Medication is one intake event. Unit is free text such as mg, ml, IU or
// tablet.
type Medication struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Dosage    float64   `json:"dosage"`
	Unit      string    `json:"unit"`
	Frequency string    `json:"frequency"`
	TakenAt   time.Time `json:"taken_at"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Input creates or replaces a medication event. A zero TakenAt means now
// on create and "unchanged" on update.
type Input struct {
	Name      string    `json:"name"`
	Dosage    float64   `json:"dosage"`
	Unit      string    `json:"unit"`
	Frequency string    `json:"frequency"`
	TakenAt   time.Time `json:"taken_at"`
	Notes     string    `json:"notes"`
}

// Filter selects medication events. Limit 0 returns every match.
type Filter struct {
	UserID string
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

// Repository persists medication events, scoped by user.
type Repository interface {
	CreateMedication(ctx context.Context, m *Medication) error
	GetMedication(ctx context.Context, userID, id string) (*Medication, error)
	UpdateMedication(ctx context.Context, m *Medication) error
	DeleteMedication(ctx context.Context, userID, id string) error
	ListMedications(ctx context.Context, f Filter) ([]*Medication, int, error)
}
