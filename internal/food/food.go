// Package food records meals and their nutrition.
package food

import (
	"context"
	"time"
)

// MealType is the meal a food record belongs to.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// Valid reports whether m is a known meal type.
func (m MealType) Valid() bool {
	switch m {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	}
	return false
}

// Record is one logged food item.
type Record struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Name          string    `json:"name"`
	MealType      MealType  `json:"meal_type"`
	QuantityGrams float64   `json:"quantity_grams"`
	Calories      float64   `json:"calories"`
	Carbohydrates float64   `json:"carbohydrates"`
	Protein       float64   `json:"protein"`
	Fat           float64   `json:"fat"`
	EatenAt       time.Time `json:"eaten_at"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Input creates or replaces a food record. A zero EatenAt means now on
// create and "unchanged" on update.
type Input struct {
	Name          string    `json:"name"`
	MealType      MealType  `json:"meal_type"`
	QuantityGrams float64   `json:"quantity_grams"`
	Calories      float64   `json:"calories"`
	Carbohydrates float64   `json:"carbohydrates"`
	Protein       float64   `json:"protein"`
	Fat           float64   `json:"fat"`
	EatenAt       time.Time `json:"eaten_at"`
	Notes         string    `json:"notes"`
}

// Filter selects food records. Limit 0 returns every match.
type Filter struct {
	UserID string
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

// Repository persists food records, scoped by user.
type Repository interface {
	CreateFood(ctx context.Context, r *Record) error
	GetFood(ctx context.Context, userID, id string) (*Record, error)
	UpdateFood(ctx context.Context, r *Record) error
	DeleteFood(ctx context.Context, userID, id string) error
	ListFoods(ctx context.Context, f Filter) ([]*Record, int, error)
}
