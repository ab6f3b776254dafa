package records

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/wosledon/vitanote/pkg/api/v1"
)

func TestNormalizeValue_Glucose(t *testing.T) {
	out, err := normalizeValue(TypeGlucose, json.RawMessage(`{"value":5.6}`), "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":5.6,"measurement":"random"}`, string(out))

	out, err = normalizeValue(TypeGlucose, json.RawMessage(`{"value":108,"measurement":"fasting"}`), "mg/dL")
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":5.99,"measurement":"fasting"}`, string(out))

	// 9.1 mg/dL is 0.505 mmol/L, just above the floor.
	out, err = normalizeValue(TypeGlucose, json.RawMessage(`{"value":9.1}`), "mg/dL")
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":0.51,"measurement":"random"}`, string(out))
}

func TestNormalizeValue_Errors(t *testing.T) {
	tests := []struct {
		name string
		typ  RecordType
		raw  string
		unit string
	}{
		{"missing", TypeGlucose, ``, ""},
		{"null", TypeWeight, `null`, ""},
		{"unknown field", TypeWeight, `{"kg":70,"lbs":154}`, ""},
		{"glucose too low", TypeGlucose, `{"value":0.2}`, ""},
		{"glucose too high", TypeGlucose, `{"value":41}`, ""},
		{"mg/dL too high", TypeGlucose, `{"value":800}`, "mg/dL"},
		{"mg/dL below floor before rounding", TypeGlucose, `{"value":9}`, "mg/dL"},
		{"bad unit", TypeGlucose, `{"value":5}`, "g/L"},
		{"bad measurement", TypeGlucose, `{"value":5,"measurement":"lunchtime"}`, ""},
		{"systolic not above diastolic", TypeBloodPressure, `{"systolic":80,"diastolic":80}`, ""},
		{"systolic out of range", TypeBloodPressure, `{"systolic":320,"diastolic":80}`, ""},
		{"pulse out of range", TypeBloodPressure, `{"systolic":120,"diastolic":80,"pulse":10}`, ""},
		{"weight out of range", TypeWeight, `{"kg":0.5}`, ""},
		{"body fat out of range", TypeWeight, `{"kg":70,"body_fat_percent":80}`, ""},
		{"wrong shape", TypeWeight, `[70]`, ""},
		{"unknown type", RecordType("steps"), `{}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := normalizeValue(tt.typ, json.RawMessage(tt.raw), tt.unit)
			assert.ErrorIs(t, err, v1.ErrInvalidRequest)
		})
	}
}

func TestNormalizeValue_BloodPressureAndWeight(t *testing.T) {
	out, err := normalizeValue(TypeBloodPressure, json.RawMessage(`{"systolic":120,"diastolic":80}`), "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"systolic":120,"diastolic":80}`, string(out))

	out, err = normalizeValue(TypeWeight, json.RawMessage(`{"kg":72.5,"body_fat_percent":21}`), "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"kg":72.5,"body_fat_percent":21}`, string(out))
}

func TestParseRecordType(t *testing.T) {
	typ, err := ParseRecordType("blood-pressure")
	require.NoError(t, err)
	assert.Equal(t, TypeBloodPressure, typ)

	_, err = ParseRecordType("steps")
	assert.ErrorIs(t, err, v1.ErrInvalidRequest)
}

func TestHealthRecord_DecodeWrongType(t *testing.T) {
	r := &HealthRecord{ID: "r1", Type: TypeWeight, Value: json.RawMessage(`{"kg":70}`)}
	_, err := r.Glucose()
	assert.Error(t, err)
	w, err := r.Weight()
	require.NoError(t, err)
	assert.Equal(t, 70.0, w.Kg)
}

func TestThresholds(t *testing.T) {
	th := DefaultThresholds()

	assert.Equal(t, []AlertType{AlertHypoglycemia}, th.EvaluateGlucose(GlucoseValue{Value: 3.5}))
	assert.Equal(t, []AlertType{AlertHyperglycemia}, th.EvaluateGlucose(GlucoseValue{Value: 10.5}))
	assert.Empty(t, th.EvaluateGlucose(GlucoseValue{Value: 3.9}))
	assert.Empty(t, th.EvaluateGlucose(GlucoseValue{Value: 10.0}))

	custom := th.WithGlucoseTarget(4.5, 0)
	assert.Equal(t, []AlertType{AlertHypoglycemia}, custom.EvaluateGlucose(GlucoseValue{Value: 4.2}))
	assert.Empty(t, custom.EvaluateGlucose(GlucoseValue{Value: 9.9}))

	assert.Equal(t, []AlertType{AlertHypertension}, th.EvaluateBloodPressure(BloodPressureValue{Systolic: 140, Diastolic: 70}))
	assert.Equal(t, []AlertType{AlertHypertension}, th.EvaluateBloodPressure(BloodPressureValue{Systolic: 130, Diastolic: 90}))
	assert.Equal(t, []AlertType{AlertHypotension}, th.EvaluateBloodPressure(BloodPressureValue{Systolic: 89, Diastolic: 65}))
	assert.Equal(t, []AlertType{AlertHypotension}, th.EvaluateBloodPressure(BloodPressureValue{Systolic: 100, Diastolic: 59}))
	assert.Empty(t, th.EvaluateBloodPressure(BloodPressureValue{Systolic: 120, Diastolic: 80}))
}

func TestUnitConversion(t *testing.T) {
	assert.InDelta(t, 100.0, MmolToMgdl(MgdlToMmol(100)), 1e-9)
	assert.InDelta(t, 5.55, MgdlToMmol(100), 0.01)
}
