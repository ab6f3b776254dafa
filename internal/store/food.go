package store

import (
	"context"

	"github.com/wosledon/vitanote/internal/food"
)

const foodColumns = `id, user_id, name, meal_type, quantity_grams, calories, carbohydrates,
	protein, fat, eaten_at, notes, created_at, updated_at`

// CreateFood implements food.Repository.
func (s *Store) CreateFood(ctx context.Context, r *food.Record) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO food_records (`+foodColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.Name, string(r.MealType), r.QuantityGrams, r.Calories, r.Carbohydrates,
		r.Protein, r.Fat, toMillis(r.EatenAt), r.Notes, toMillis(r.CreatedAt), toMillis(r.UpdatedAt),
	)
	return mapError(err, "creating food record")
}

// GetFood implements food.Repository.
func (s *Store) GetFood(ctx context.Context, userID, id string) (*food.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+foodColumns+` FROM food_records
		WHERE id = ? AND user_id = ?`, id, userID)
	r, err := scanFood(row)
	if err != nil {
		return nil, mapError(err, "getting food record")
	}
	return r, nil
}

// UpdateFood implements food.Repository.
func (s *Store) UpdateFood(ctx context.Context, r *food.Record) error {
	res, err := s.db.ExecContext(ctx, `UPDATE food_records SET
		name = ?, meal_type = ?, quantity_grams = ?, calories = ?, carbohydrates = ?,
		protein = ?, fat = ?, eaten_at = ?, notes = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		r.Name, string(r.MealType), r.QuantityGrams, r.Calories, r.Carbohydrates,
		r.Protein, r.Fat, toMillis(r.EatenAt), r.Notes, toMillis(r.UpdatedAt), r.ID, r.UserID,
	)
	if err != nil {
		return mapError(err, "updating food record")
	}
	return requireAffected(res, "updating food record")
}

// DeleteFood implements food.Repository.
func (s *Store) DeleteFood(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM food_records WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return mapError(err, "deleting food record")
	}
	return requireAffected(res, "deleting food record")
}

// ListFoods implements food.Repository.
func (s *Store) ListFoods(ctx context.Context, f food.Filter) ([]*food.Record, int, error) {
	conds := &conditions{}
	conds.add("user_id = ?", f.UserID)
	conds.timeRange("eaten_at", f.From, f.To)

	total, err := s.count(ctx, "food_records", conds)
	if err != nil {
		return nil, 0, mapError(err, "counting food records")
	}

	query, args := page(`SELECT `+foodColumns+` FROM food_records`+conds.String()+
		` ORDER BY eaten_at DESC, created_at DESC, id`, conds.args, f.Limit, f.Offset)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, mapError(err, "listing food records")
	}
	defer rows.Close()

	var out []*food.Record
	for rows.Next() {
		r, err := scanFood(rows)
		if err != nil {
			return nil, 0, mapError(err, "scanning food record")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err, "listing food records")
	}
	return out, total, nil
}

func scanFood(sc scanner) (*food.Record, error) {
	var (
		r                             food.Record
		meal                          string
		eatenAt, createdAt, updatedAt int64
	)
	err := sc.Scan(&r.ID, &r.UserID, &r.Name, &meal, &r.QuantityGrams, &r.Calories, &r.Carbohydrates,
		&r.Protein, &r.Fat, &eatenAt, &r.Notes, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	r.MealType = food.MealType(meal)
	r.EatenAt = fromMillis(eatenAt)
	r.CreatedAt = fromMillis(createdAt)
	r.UpdatedAt = fromMillis(updatedAt)
	return &r, nil
}
