package statistics_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wosledon/vitanote/internal/food"
	"github.com/wosledon/vitanote/internal/medication"
	"github.com/wosledon/vitanote/internal/records"
	"github.com/wosledon/vitanote/internal/statistics"
	"github.com/wosledon/vitanote/internal/store"
	"github.com/wosledon/vitanote/internal/users"
)

type userLookup struct{ st *store.Store }

func (l userLookup) Get(ctx context.Context, id string) (*users.User, error) {
	return l.st.GetUser(ctx, id)
}

var day0 = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

func seed(t *testing.T) (*statistics.Service, statistics.Range) {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{Path: filepath.Join(t.TempDir(), "stats.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.CreateUser(ctx, &users.User{
		ID: "u1", Username: "alice", Email: "alice@example.com", PasswordHash: "x",
		DiabetesType: users.DiabetesType2, HeightCM: 170, TargetGlucoseMin: 4.4, TargetGlucoseMax: 7.2,
		CreatedAt: day0, UpdatedAt: day0,
	}))

	add := func(id string, typ records.RecordType, at time.Time, value string) {
		require.NoError(t, st.CreateRecord(ctx, &records.HealthRecord{
			ID: id, UserID: "u1", Type: typ, Value: json.RawMessage(value),
			RecordedAt: at, CreatedAt: at, UpdatedAt: at,
		}))
	}
	// 30 glucose readings so the overview spans more than one page.
	for i := 0; i < 30; i++ {
		v := 5.0
		if i%3 == 0 {
			v = 8.0
		}
		add("g"+string(rune('a'+i)), records.TypeGlucose, day0.Add(time.Duration(i)*time.Hour), `{"value":`+jsonFloat(v)+`,"measurement":"random"}`)
	}
	add("bp1", records.TypeBloodPressure, day0.Add(2*time.Hour), `{"systolic":130,"diastolic":85,"pulse":72}`)
	add("w1", records.TypeWeight, day0, `{"kg":72.25}`)
	add("w2", records.TypeWeight, day0.Add(48*time.Hour), `{"kg":71.5}`)
	add("old", records.TypeGlucose, day0.Add(-time.Hour), `{"value":20,"measurement":"random"}`)

	require.NoError(t, st.CreateFood(ctx, &food.Record{
		ID: "f1", UserID: "u1", Name: "Rice", MealType: food.MealLunch, Calories: 420, Carbohydrates: 90,
		EatenAt: day0.Add(12 * time.Hour), CreatedAt: day0, UpdatedAt: day0,
	}))
	require.NoError(t, st.CreateMedication(ctx, &medication.Medication{
		ID: "m1", UserID: "u1", Name: "Metformin", Dosage: 500, Unit: "mg",
		TakenAt: day0.Add(8 * time.Hour), CreatedAt: day0, UpdatedAt: day0,
	}))

	svc, err := statistics.NewService(statistics.Options{
		Records:     st,
		Foods:       st,
		Medications: st,
		Users:       userLookup{st},
		Logger:      zap.NewNop(),
	})
	require.NoError(t, err)
	return svc, statistics.Range{From: day0, To: day0.AddDate(0, 0, 3)}
}

func jsonFloat(v float64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestOverview(t *testing.T) {
	svc, r := seed(t)
	ov, err := svc.Overview(context.Background(), "u1", r)
	require.NoError(t, err)

	assert.Equal(t, 30, ov.Glucose.Count, "full range, not one page; older reading excluded")
	assert.Equal(t, 4.4, ov.Glucose.TargetLow)
	assert.Equal(t, 7.2, ov.Glucose.TargetHigh)
	assert.Equal(t, 6.0, ov.Glucose.Average)
	assert.Equal(t, 33.33, ov.Glucose.AbovePercent)

	assert.Equal(t, 1, ov.BloodPressure.Count)
	assert.Equal(t, statistics.CategoryStage1, ov.BloodPressure.Latest.Category)

	assert.Equal(t, 2, ov.Weight.Count)
	assert.Equal(t, -0.75, ov.Weight.Change)
	assert.Equal(t, 24.74, ov.Weight.BMI)

	assert.Equal(t, 420.0, ov.Food.TotalCalories)
	assert.Equal(t, 140.0, ov.Food.DailyAverageCalories)
	assert.Equal(t, 1, ov.Medication.ByName["Metformin"])
}

func TestSingleAggregates(t *testing.T) {
	svc, r := seed(t)
	ctx := context.Background()

	g, err := svc.Glucose(ctx, "u1", r)
	require.NoError(t, err)
	assert.Equal(t, 30, g.Count)

	bp, err := svc.BloodPressure(ctx, "u1", r)
	require.NoError(t, err)
	assert.Equal(t, 72.0, bp.AveragePulse)

	w, err := svc.Weight(ctx, "u1", r)
	require.NoError(t, err)
	assert.Equal(t, 71.5, w.Latest.Kg)

	f, err := svc.Food(ctx, "u1", r)
	require.NoError(t, err)
	assert.Equal(t, 1, f.ByMeal[food.MealLunch].Count)

	m, err := svc.Medications(ctx, "u1", r)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Count)

	other, err := svc.Glucose(ctx, "nobody", r)
	require.NoError(t, err)
	assert.Zero(t, other.Count)
}

func TestDaily(t *testing.T) {
	svc, r := seed(t)
	points, err := svc.Daily(context.Background(), "u1", r)
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, "2025-07-01", points[0].Date)
	assert.Equal(t, 24, points[0].GlucoseCount)
	assert.Equal(t, 420.0, points[0].Calories)
	assert.Equal(t, 72.25, points[0].Weight)
	assert.Equal(t, 6, points[1].GlucoseCount)
	assert.Equal(t, 0, points[2].GlucoseCount)
	assert.Equal(t, 71.5, points[2].Weight)
}
