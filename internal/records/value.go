package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	v1 "github.com/wosledon/vitanote/pkg/api/v1"
)

// MgdlPerMmol converts glucose between mmol/L and mg/dL.
const MgdlPerMmol = 18.0182

const (
	UnitMmolL = "mmol/L"
	UnitMgdL  = "mg/dL"
)

// MmolToMgdl converts mmol/L to mg/dL.
func MmolToMgdl(v float64) float64 { return v * MgdlPerMmol }

// MgdlToMmol converts mg/dL to mmol/L.
func MgdlToMmol(v float64) float64 { return v / MgdlPerMmol }

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", v1.ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// normalizeValue decodes raw as the value type for t, converts units,
// applies defaults, validates, and returns the canonical encoding.
func normalizeValue(t RecordType, raw json.RawMessage, unit string) (json.RawMessage, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, invalid("value is required")
	}

	var v any
	switch t {
	case TypeGlucose:
		var g GlucoseValue
		if err := strictDecode(raw, &g); err != nil {
			return nil, err
		}
		converted := false
		switch strings.TrimSpace(unit) {
		case "", UnitMmolL, "mmol/l":
		case UnitMgdL, "mg/dl":
			g.Value = MgdlToMmol(g.Value)
			converted = true
		default:
			return nil, invalid("unit must be %q or %q", UnitMmolL, UnitMgdL)
		}
		if g.Measurement == "" {
			g.Measurement = MeasurementRandom
		}
		// range checks apply to the exact converted value
		if err := ValidateGlucose(g); err != nil {
			return nil, err
		}
		if converted {
			g.Value = math.Round(g.Value*100) / 100
		}
		v = g
	case TypeBloodPressure:
		var bp BloodPressureValue
		if err := strictDecode(raw, &bp); err != nil {
			return nil, err
		}
		if err := ValidateBloodPressure(bp); err != nil {
			return nil, err
		}
		v = bp
	case TypeWeight:
		var w WeightValue
		if err := strictDecode(raw, &w); err != nil {
			return nil, err
		}
		if err := ValidateWeight(w); err != nil {
			return nil, err
		}
		v = w
	default:
		return nil, invalid("unknown record type %q", t)
	}

	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding value: %w", err)
	}
	return out, nil
}

func strictDecode(raw json.RawMessage, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return invalid("malformed value: %v", err)
	}
	return nil
}

// ValidateGlucose checks a reading in mmol/L.
func ValidateGlucose(g GlucoseValue) error {
	if g.Value < 0.5 || g.Value > 40 || math.IsNaN(g.Value) {
		return invalid("glucose must be between 0.5 and 40 mmol/L")
	}
	if !g.Measurement.Valid() {
		return invalid("unknown measurement %q", g.Measurement)
	}
	return nil
}

// ValidateBloodPressure checks a reading in mmHg.
func ValidateBloodPressure(bp BloodPressureValue) error {
	if bp.Systolic < 50 || bp.Systolic > 300 {
		return invalid("systolic must be between 50 and 300 mmHg")
	}
	if bp.Diastolic < 30 || bp.Diastolic > 200 {
		return invalid("diastolic must be between 30 and 200 mmHg")
	}
	if bp.Systolic <= bp.Diastolic {
		return invalid("systolic must be greater than diastolic")
	}
	if bp.Pulse != 0 && (bp.Pulse < 30 || bp.Pulse > 250) {
		return invalid("pulse must be between 30 and 250 bpm")
	}
	return nil
}

// ValidateWeight checks a weight reading.
func ValidateWeight(w WeightValue) error {
	if w.Kg < 1 || w.Kg > 500 || math.IsNaN(w.Kg) {
		return invalid("weight must be between 1 and 500 kg")
	}
	if w.BodyFatPercent < 0 || w.BodyFatPercent > 75 {
		return invalid("body_fat_percent must be between 0 and 75")
	}
	return nil
}
