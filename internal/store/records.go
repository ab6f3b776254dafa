package store

import (
	"context"
	"encoding/json"

	"github.com/wosledon/vitanote/internal/records"
)

const recordColumns = `id, user_id, record_type, value, recorded_at, notes, created_at, updated_at`

// CreateRecord implements records.Repository.
func (s *Store) CreateRecord(ctx context.Context, r *records.HealthRecord) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO health_records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, string(r.Type), string(r.Value), toMillis(r.RecordedAt), r.Notes,
		toMillis(r.CreatedAt), toMillis(r.UpdatedAt),
	)
	return mapError(err, "creating health record")
}

// GetRecord implements records.Repository.
func (s *Store) GetRecord(ctx context.Context, userID, id string) (*records.HealthRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM health_records
		WHERE id = ? AND user_id = ?`, id, userID)
	r, err := scanRecord(row)
	if err != nil {
		return nil, mapError(err, "getting health record")
	}
	return r, nil
}

// UpdateRecord implements records.Repository.
func (s *Store) UpdateRecord(ctx context.Context, r *records.HealthRecord) error {
	res, err := s.db.ExecContext(ctx, `UPDATE health_records
		SET value = ?, recorded_at = ?, notes = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		string(r.Value), toMillis(r.RecordedAt), r.Notes, toMillis(r.UpdatedAt), r.ID, r.UserID,
	)
	if err != nil {
		return mapError(err, "updating health record")
	}
	return requireAffected(res, "updating health record")
}

// DeleteRecord implements records.Repository.
func (s *Store) DeleteRecord(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM health_records WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return mapError(err, "deleting health record")
	}
	return requireAffected(res, "deleting health record")
}

// ListRecords implements records.Repository.
func (s *Store) ListRecords(ctx context.Context, f records.Filter) ([]*records.HealthRecord, int, error) {
	conds := &conditions{}
	conds.add("user_id = ?", f.UserID)
	if f.Type != "" {
		conds.add("record_type = ?", string(f.Type))
	}
	conds.timeRange("recorded_at", f.From, f.To)

	total, err := s.count(ctx, "health_records", conds)
	if err != nil {
		return nil, 0, mapError(err, "counting health records")
	}

	query, args := page(`SELECT `+recordColumns+` FROM health_records`+conds.String()+
		` ORDER BY recorded_at DESC, created_at DESC, id`, conds.args, f.Limit, f.Offset)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, mapError(err, "listing health records")
	}
	defer rows.Close()

	var out []*records.HealthRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, 0, mapError(err, "scanning health record")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err, "listing health records")
	}
	return out, total, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*records.HealthRecord, error) {
	var (
		r                                records.HealthRecord
		typ, value                       string
		recordedAt, createdAt, updatedAt int64
	)
	if err := sc.Scan(&r.ID, &r.UserID, &typ, &value, &recordedAt, &r.Notes, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	r.Type = records.RecordType(typ)
	r.Value = json.RawMessage(value)
	r.RecordedAt = fromMillis(recordedAt)
	r.CreatedAt = fromMillis(createdAt)
	r.UpdatedAt = fromMillis(updatedAt)
	return &r, nil
}
