package store

import (
	"context"

	"github.com/wosledon/vitanote/internal/medication"
)

const medicationColumns = `id, user_id, name, dosage, unit, frequency, taken_at, notes, created_at, updated_at`

// CreateMedication implements medication.Repository.
func (s *Store) CreateMedication(ctx context.Context, m *medication.Medication) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO medications (`+medicationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.Name, m.Dosage, m.Unit, m.Frequency, toMillis(m.TakenAt), m.Notes,
		toMillis(m.CreatedAt), toMillis(m.UpdatedAt),
	)
	return mapError(err, "creating medication")
}

// GetMedication implements medication.Repository.
func (s *Store) GetMedication(ctx context.Context, userID, id string) (*medication.Medication, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+medicationColumns+` FROM medications
		WHERE id = ? AND user_id = ?`, id, userID)
	m, err := scanMedication(row)
	if err != nil {
		return nil, mapError(err, "getting medication")
	}
	return m, nil
}

// UpdateMedication implements medication.Repository.
func (s *Store) UpdateMedication(ctx context.Context, m *medication.Medication) error {
	res, err := s.db.ExecContext(ctx, `UPDATE medications SET
		name = ?, dosage = ?, unit = ?, frequency = ?, taken_at = ?, notes = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		m.Name, m.Dosage, m.Unit, m.Frequency, toMillis(m.TakenAt), m.Notes, toMillis(m.UpdatedAt),
		m.ID, m.UserID,
	)
	if err != nil {
		return mapError(err, "updating medication")
	}
	return requireAffected(res, "updating medication")
}

// DeleteMedication implements medication.Repository.
func (s *Store) DeleteMedication(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM medications WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return mapError(err, "deleting medication")
	}
	return requireAffected(res, "deleting medication")
}

// ListMedications implements medication.Repository.
func (s *Store) ListMedications(ctx context.Context, f medication.Filter) ([]*medication.Medication, int, error) {
	conds := &conditions{}
	conds.add("user_id = ?", f.UserID)
	conds.timeRange("taken_at", f.From, f.To)

	total, err := s.count(ctx, "medications", conds)
	if err != nil {
		return nil, 0, mapError(err, "counting medications")
	}

	query, args := page(`SELECT `+medicationColumns+` FROM medications`+conds.String()+
		` ORDER BY taken_at DESC, created_at DESC, id`, conds.args, f.Limit, f.Offset)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, mapError(err, "listing medications")
	}
	defer rows.Close()

	var out []*medication.Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, 0, mapError(err, "scanning medication")
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err, "listing medications")
	}
	return out, total, nil
}

func scanMedication(sc scanner) (*medication.Medication, error) {
	var (
		m                             medication.Medication
		takenAt, createdAt, updatedAt int64
	)
	err := sc.Scan(&m.ID, &m.UserID, &m.Name, &m.Dosage, &m.Unit, &m.Frequency, &takenAt, &m.Notes,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	m.TakenAt = fromMillis(takenAt)
	m.CreatedAt = fromMillis(createdAt)
	m.UpdatedAt = fromMillis(updatedAt)
	return &m, nil
}
