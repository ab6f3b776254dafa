// Package records stores glucose, blood-pressure and weight readings as
// generic health records: a JSON value keyed by a record type.
package records

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	v1 "github.com/wosledon/vitanote/pkg/api/v1"
)

// RecordType discriminates the value stored in a HealthRecord.
type RecordType string

const (
	TypeGlucose       RecordType = "glucose"
	TypeBloodPressure RecordType = "blood_pressure"
	TypeWeight        RecordType = "weight"
)

// Valid reports whether t is a known record type.
func (t RecordType) Valid() bool {
	switch t {
	case TypeGlucose, TypeBloodPressure, TypeWeight:
		return true
	}
	return false
}

// ParseRecordType parses a type name. "blood-pressure" is accepted as an
// alias of "blood_pressure".
func ParseRecordType(s string) (RecordType, error) {
	if s == "blood-pressure" {
		s = string(TypeBloodPressure)
	}
	t := RecordType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown record type %q", v1.ErrInvalidRequest, s)
	}
	return t, nil
}

// Measurement is the context of a glucose reading.
type Measurement string

const (
	MeasurementFasting    Measurement = "fasting"
	MeasurementBeforeMeal Measurement = "before_meal"
	MeasurementAfterMeal  Measurement = "after_meal"
	MeasurementBedtime    Measurement = "bedtime"
	MeasurementRandom     Measurement = "random"
)

// Valid reports whether m is a known measurement.
func (m Measurement) Valid() bool {
	switch m {
	case MeasurementFasting, MeasurementBeforeMeal, MeasurementAfterMeal, MeasurementBedtime, MeasurementRandom:
		return true
	}
	return false
}

// GlucoseValue is a blood glucose reading in mmol/L.
type GlucoseValue struct {
	Value       float64     `json:"value"`
	Measurement Measurement `json:"measurement"`
}

// BloodPressureValue is a reading in mmHg. Pulse is optional (0).
type BloodPressureValue struct {
	Systolic  int `json:"systolic"`
	Diastolic int `json:"diastolic"`
	Pulse     int `json:"pulse,omitempty"`
}

// WeightValue is a body weight reading.
type WeightValue struct {
	Kg             float64 `json:"kg"`
	BodyFatPercent float64 `json:"body_fat_percent,omitempty"`
}

// HealthRecord is one stored reading.
type HealthRecord struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Type       RecordType      `json:"type"`
	Value      json.RawMessage `json:"value"`
	RecordedAt time.Time       `json:"recorded_at"`
	Notes      string          `json:"notes"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Glucose decodes the value of a glucose record.
func (r *HealthRecord) Glucose() (GlucoseValue, error) {
	var v GlucoseValue
	err := r.decode(TypeGlucose, &v)
	return v, err
}

// BloodPressure decodes the value of a blood-pressure record.
func (r *HealthRecord) BloodPressure() (BloodPressureValue, error) {
	var v BloodPressureValue
	err := r.decode(TypeBloodPressure, &v)
	return v, err
}

// Weight decodes the value of a weight record.
func (r *HealthRecord) Weight() (WeightValue, error) {
	var v WeightValue
	err := r.decode(TypeWeight, &v)
	return v, err
}

func (r *HealthRecord) decode(want RecordType, dst any) error {
	if r.Type != want {
		return fmt.Errorf("record %s is %s, not %s", r.ID, r.Type, want)
	}
	if err := json.Unmarshal(r.Value, dst); err != nil {
		return fmt.Errorf("decoding %s value of record %s: %w", r.Type, r.ID, err)
	}
	return nil
}

// Input creates or replaces a record. Unit applies to glucose only and may
// be "mmol/L" (default) or "mg/dL".
type Input struct {
	Type       RecordType      `json:"type"`
	Value      json.RawMessage `json:"value"`
	Unit       string          `json:"unit,omitempty"`
	RecordedAt time.Time       `json:"recorded_at"`
	Notes      string          `json:"notes"`
}

// CreateResult is a created record plus any alerts it raised.
type CreateResult struct {
	*HealthRecord
	Alerts []Alert `json:"alerts"`
}

// Filter selects records. A zero Type matches all types, zero times leave
// the range open, and Limit 0 returns every match.
type Filter struct {
	UserID string
	Type   RecordType
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

// Repository persists health records. Get, Update and Delete are scoped by
// user and return v1.ErrNotFound for records the user does not own. List
// returns newest first together with the total number of matches.
type Repository interface {
	CreateRecord(ctx context.Context, r *HealthRecord) error
	GetRecord(ctx context.Context, userID, id string) (*HealthRecord, error)
	UpdateRecord(ctx context.Context, r *HealthRecord) error
	DeleteRecord(ctx context.Context, userID, id string) error
	ListRecords(ctx context.Context, f Filter) ([]*HealthRecord, int, error)
}
