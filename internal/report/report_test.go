package report

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wosledon/vitanote/internal/records"
	"github.com/wosledon/vitanote/internal/statistics"
)

func TestFormatters(t *testing.T) {
	assert.Equal(t, "72.5%", FormatPercent(72.5))
	assert.Equal(t, "5.5 mmol/L (99 mg/dL)", FormatGlucose(5.5))
	assert.Equal(t, "128/82 mmHg", FormatBloodPressure(128, 82))
	assert.Equal(t, "70.2 kg", FormatWeight(70.2, false))
	assert.Equal(t, "-1.5 kg", FormatWeight(-1.5, true))
	assert.Equal(t, "+0.4 kg", FormatWeight(0.4, true))
	assert.Equal(t, "1850 kcal", FormatCalories(1850.4))
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{50 * time.Hour, "2d ago"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAge(now.Add(-tt.ago), now))
	}
}

func TestOverview(t *testing.T) {
	now := time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC)
	ov := &statistics.Overview{
		Range: statistics.Range{From: now.AddDate(0, 0, -7), To: now},
		Glucose: statistics.GlucoseStats{
			Count: 3, Average: 6.2, Min: 4.8, Max: 8.1, InRangePercent: 100, EstimatedA1C: 5.5,
			Latest: &statistics.GlucoseReading{Value: 5.1, Measurement: records.MeasurementFasting, RecordedAt: now.Add(-2 * time.Hour)},
		},
		Medication: statistics.MedicationStats{Count: 2, ByName: map[string]int{"Metformin": 2}},
	}

	out := Overview(ov, now)
	assert.Contains(t, out, "VitaNote Summary")
	assert.Contains(t, out, "2026-03-01 to 2026-03-08")
	assert.Contains(t, out, "6.2 mmol/L")
	assert.Contains(t, out, "fasting, 2h ago")
	assert.Contains(t, out, "Metformin")
	assert.Contains(t, out, "2 doses")
	assert.Contains(t, out, "no data", "empty sections are marked")
}

func TestError(t *testing.T) {
	out := Error("http://localhost:5080", errors.New("connection refused"))
	assert.Contains(t, out, "Cannot load summary")
	assert.Contains(t, out, "connection refused")
}
