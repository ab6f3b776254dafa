package statistics

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wosledon/vitanote/internal/food"
	"github.com/wosledon/vitanote/internal/medication"
	"github.com/wosledon/vitanote/internal/records"
	v1 "github.com/wosledon/vitanote/pkg/api/v1"
)

var day0 = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func rec(typ records.RecordType, at time.Time, value string) *records.HealthRecord {
	return &records.HealthRecord{ID: fmt.Sprint(at.UnixNano()), Type: typ, Value: json.RawMessage(value), RecordedAt: at}
}

func glucoseRec(at time.Time, v float64, m records.Measurement) *records.HealthRecord {
	return rec(records.TypeGlucose, at, fmt.Sprintf(`{"value":%g,"measurement":%q}`, v, m))
}

func bpRec(at time.Time, sys, dia, pulse int) *records.HealthRecord {
	return rec(records.TypeBloodPressure, at, fmt.Sprintf(`{"systolic":%d,"diastolic":%d,"pulse":%d}`, sys, dia, pulse))
}

func weightRec(at time.Time, kg float64) *records.HealthRecord {
	return rec(records.TypeWeight, at, fmt.Sprintf(`{"kg":%g}`, kg))
}

func TestGlucose(t *testing.T) {
	recs := []*records.HealthRecord{
		glucoseRec(day0.Add(1*time.Hour), 3.5, records.MeasurementFasting),
		glucoseRec(day0.Add(5*time.Hour), 6.5, records.MeasurementFasting),
		glucoseRec(day0.Add(3*time.Hour), 11.0, records.MeasurementAfterMeal),
		glucoseRec(day0.Add(2*time.Hour), 7.0, records.MeasurementAfterMeal),
		weightRec(day0, 70),
	}
	st := Glucose(recs, 3.9, 10.0)

	assert.Equal(t, 4, st.Count)
	assert.Equal(t, 7.0, st.Average)
	assert.Equal(t, 3.5, st.Min)
	assert.Equal(t, 11.0, st.Max)
	// Population stddev of 3.5, 6.5, 11, 7 around 7: sqrt((12.25+0.25+16+0)/4).
	assert.Equal(t, 2.67, st.StdDev)
	assert.Equal(t, 25.0, st.BelowPercent)
	assert.Equal(t, 25.0, st.AbovePercent)
	assert.Equal(t, 50.0, st.InRangePercent)
	// (7 * 18.0182 + 46.7) / 28.7
	assert.Equal(t, 6.02, st.EstimatedA1C)

	require.NotNil(t, st.Latest)
	assert.Equal(t, 6.5, st.Latest.Value)

	assert.Equal(t, MeasurementStats{Count: 2, Average: 5}, st.ByMeasurement[records.MeasurementFasting])
	assert.Equal(t, MeasurementStats{Count: 2, Average: 9}, st.ByMeasurement[records.MeasurementAfterMeal])
}

func TestGlucose_Empty(t *testing.T) {
	st := Glucose(nil, 3.9, 10)
	assert.Zero(t, st.Count)
	assert.Zero(t, st.Average)
	assert.Nil(t, st.Latest)
	assert.NotNil(t, st.ByMeasurement)
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		sys, dia int
		want     BloodPressureCategory
	}{
		{85, 55, CategoryLow},
		{100, 58, CategoryLow},
		{115, 75, CategoryNormal},
		{125, 75, CategoryElevated},
		{132, 78, CategoryStage1},
		{118, 84, CategoryStage1},
		{145, 85, CategoryStage2},
		{135, 92, CategoryStage2},
		{185, 100, CategoryCrisis},
		{150, 125, CategoryCrisis},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Categorize(tt.sys, tt.dia), "%d/%d", tt.sys, tt.dia)
	}
}

func TestBloodPressure(t *testing.T) {
	recs := []*records.HealthRecord{
		bpRec(day0.Add(time.Hour), 120, 80, 70),
		bpRec(day0.Add(3*time.Hour), 150, 95, 0),
		bpRec(day0.Add(2*time.Hour), 110, 70, 80),
	}
	st := BloodPressure(recs)

	assert.Equal(t, 3, st.Count)
	assert.Equal(t, 126.67, st.AverageSystolic)
	assert.Equal(t, 81.67, st.AverageDiastolic)
	assert.Equal(t, 75.0, st.AveragePulse, "only readings with a pulse count")
	assert.Equal(t, 110, st.MinSystolic)
	assert.Equal(t, 150, st.MaxSystolic)
	assert.Equal(t, 70, st.MinDiastolic)
	assert.Equal(t, 95, st.MaxDiastolic)
	require.NotNil(t, st.Latest)
	assert.Equal(t, 150, st.Latest.Systolic)
	assert.Equal(t, CategoryStage2, st.Latest.Category)

	empty := BloodPressure(nil)
	assert.Zero(t, empty.Count)
	assert.Nil(t, empty.Latest)
}

func TestWeight(t *testing.T) {
	recs := []*records.HealthRecord{
		weightRec(day0.Add(48*time.Hour), 79.2),
		weightRec(day0, 80.5),
		weightRec(day0.Add(24*time.Hour), 80.0),
	}
	st := Weight(recs, 180)

	assert.Equal(t, 3, st.Count)
	assert.Equal(t, 79.9, st.Average)
	assert.Equal(t, 79.2, st.Min)
	assert.Equal(t, 80.5, st.Max)
	assert.Equal(t, -1.3, st.Change)
	require.NotNil(t, st.Latest)
	assert.Equal(t, 79.2, st.Latest.Kg)
	assert.Equal(t, 24.44, st.BMI)

	assert.Zero(t, Weight(recs, 0).BMI, "no BMI without height")
}

func TestFood(t *testing.T) {
	foods := []*food.Record{
		{MealType: food.MealBreakfast, Calories: 300, Carbohydrates: 50, Protein: 10, Fat: 5},
		{MealType: food.MealLunch, Calories: 650.5, Carbohydrates: 70, Protein: 30, Fat: 20},
		{MealType: food.MealBreakfast, Calories: 250, Carbohydrates: 40, Protein: 8, Fat: 4},
	}
	st := Food(foods, 2)

	assert.Equal(t, 3, st.Count)
	assert.Equal(t, 1200.5, st.TotalCalories)
	assert.Equal(t, 160.0, st.TotalCarbohydrates)
	assert.Equal(t, 48.0, st.TotalProtein)
	assert.Equal(t, 29.0, st.TotalFat)
	assert.Equal(t, 600.25, st.DailyAverageCalories)
	assert.Equal(t, MealStats{Count: 2, Calories: 550}, st.ByMeal[food.MealBreakfast])
	assert.Equal(t, MealStats{Count: 1, Calories: 650.5}, st.ByMeal[food.MealLunch])
}

func TestMedications(t *testing.T) {
	meds := []*medication.Medication{
		{Name: "Metformin", Dosage: 500, Unit: "mg", TakenAt: day0},
		{Name: "Insulin", Dosage: 10, Unit: "IU", TakenAt: day0.Add(2 * time.Hour)},
		{Name: "Metformin", Dosage: 500, Unit: "mg", TakenAt: day0.Add(time.Hour)},
	}
	st := Medications(meds)

	assert.Equal(t, 3, st.Count)
	assert.Equal(t, map[string]int{"Metformin": 2, "Insulin": 1}, st.ByName)
	require.NotNil(t, st.Latest)
	assert.Equal(t, "Insulin", st.Latest.Name)

	assert.Nil(t, Medications(nil).Latest)
}

func TestDaily(t *testing.T) {
	r := Range{From: day0, To: day0.Add(3 * 24 * time.Hour)}
	recs := []*records.HealthRecord{
		glucoseRec(day0.Add(8*time.Hour), 5, records.MeasurementFasting),
		glucoseRec(day0.Add(20*time.Hour), 7, records.MeasurementRandom),
		bpRec(day0.Add(9*time.Hour), 120, 80, 0),
		weightRec(day0.Add(7*time.Hour), 80),
		weightRec(day0.Add(19*time.Hour), 79.5),
		glucoseRec(day0.Add(50*time.Hour), 6, records.MeasurementRandom),
	}
	foods := []*food.Record{
		{Calories: 500, Carbohydrates: 60, EatenAt: day0.Add(12 * time.Hour)},
		{Calories: 200, Carbohydrates: 20, EatenAt: day0.Add(13 * time.Hour)},
	}

	points := Daily(r, recs, foods)
	require.Len(t, points, 3)

	assert.Equal(t, DailyPoint{
		Date:             "2025-06-01",
		GlucoseAverage:   6,
		GlucoseCount:     2,
		Calories:         700,
		Carbohydrates:    80,
		SystolicAverage:  120,
		DiastolicAverage: 80,
		Weight:           79.5,
	}, points[0])
	assert.Equal(t, DailyPoint{Date: "2025-06-02"}, points[1], "empty days are zero-filled")
	assert.Equal(t, 6.0, points[2].GlucoseAverage)
}

func TestResolveRange(t *testing.T) {
	now := time.Date(2025, 6, 10, 15, 30, 0, 0, time.UTC)

	r, err := ResolveRange(time.Time{}, time.Time{}, 0, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC), r.From)
	assert.Equal(t, now, r.To)
	assert.Len(t, r.Days(), DefaultDays)

	r, err = ResolveRange(time.Time{}, time.Time{}, 1, now)
	require.NoError(t, err)
	assert.Len(t, r.Days(), 1)

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	r, err = ResolveRange(from, time.Time{}, 0, now)
	require.NoError(t, err)
	assert.Equal(t, from, r.From)
	assert.Equal(t, now, r.To)

	to := time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)
	r, err = ResolveRange(time.Time{}, to, 3, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), r.From)
	assert.Len(t, r.Days(), 3)

	_, err = ResolveRange(to, from, 0, now)
	assert.ErrorIs(t, err, v1.ErrInvalidRequest)
	_, err = ResolveRange(time.Time{}, time.Time{}, MaxDays+1, now)
	assert.ErrorIs(t, err, v1.ErrInvalidRequest)
	_, err = ResolveRange(from.AddDate(-2, 0, 0), from, 0, now)
	assert.ErrorIs(t, err, v1.ErrInvalidRequest)
}
