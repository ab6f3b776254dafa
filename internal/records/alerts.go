package records

import (
	"fmt"
	"time"

	"github.com/wosledon/vitanote/internal/config"
)

// AlertType names a health alert.
type AlertType string

const (
	AlertHypoglycemia  AlertType = "hypoglycemia"
	AlertHyperglycemia AlertType = "hyperglycemia"
	AlertHypertension  AlertType = "hypertension"
	AlertHypotension   AlertType = "hypotension"
)

// Alert is raised when a new reading crosses a threshold.
type Alert struct {
	Type       AlertType `json:"type"`
	Message    string    `json:"message"`
	RecordID   string    `json:"record_id"`
	UserID     string    `json:"user_id"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Thresholds are alert limits. Glucose is in mmol/L, pressure in mmHg.
type Thresholds struct {
	GlucoseLow    float64
	GlucoseHigh   float64
	SystolicHigh  int
	DiastolicHigh int
	SystolicLow   int
	DiastolicLow  int
}

// DefaultThresholds returns the built-in limits.
func DefaultThresholds() Thresholds {
	return ThresholdsFromConfig(config.Default().Thresholds)
}

// ThresholdsFromConfig converts configured thresholds.
func ThresholdsFromConfig(c config.ThresholdsConfig) Thresholds {
	return Thresholds{
		GlucoseLow:    c.GlucoseLow,
		GlucoseHigh:   c.GlucoseHigh,
		SystolicHigh:  c.SystolicHigh,
		DiastolicHigh: c.DiastolicHigh,
		SystolicLow:   c.SystolicLow,
		DiastolicLow:  c.DiastolicLow,
	}
}

// WithGlucoseTarget overrides the glucose limits with a user's target range.
// Zero values keep the configured limit. A target that would leave the low
// limit at or above the high one is ignored.
func (t Thresholds) WithGlucoseTarget(low, high float64) Thresholds {
	out := t
	if low > 0 {
		out.GlucoseLow = low
	}
	if high > 0 {
		out.GlucoseHigh = high
	}
	if out.GlucoseLow >= out.GlucoseHigh {
		return t
	}
	return out
}

// EvaluateGlucose returns the alert types raised by g.
func (t Thresholds) EvaluateGlucose(g GlucoseValue) []AlertType {
	switch {
	case g.Value < t.GlucoseLow:
		return []AlertType{AlertHypoglycemia}
	case g.Value > t.GlucoseHigh:
		return []AlertType{AlertHyperglycemia}
	}
	return nil
}

// EvaluateBloodPressure returns the alert types raised by bp.
func (t Thresholds) EvaluateBloodPressure(bp BloodPressureValue) []AlertType {
	switch {
	case bp.Systolic >= t.SystolicHigh || bp.Diastolic >= t.DiastolicHigh:
		return []AlertType{AlertHypertension}
	case bp.Systolic < t.SystolicLow || bp.Diastolic < t.DiastolicLow:
		return []AlertType{AlertHypotension}
	}
	return nil
}

func alertMessage(a AlertType, r *HealthRecord) string {
	switch a {
	case AlertHypoglycemia, AlertHyperglycemia:
		g, _ := r.Glucose()
		if a == AlertHypoglycemia {
			return fmt.Sprintf("Low blood glucose: %.1f mmol/L", g.Value)
		}
		return fmt.Sprintf("High blood glucose: %.1f mmol/L", g.Value)
	case AlertHypertension, AlertHypotension:
		bp, _ := r.BloodPressure()
		if a == AlertHypertension {
			return fmt.Sprintf("High blood pressure: %d/%d mmHg", bp.Systolic, bp.Diastolic)
		}
		return fmt.Sprintf("Low blood pressure: %d/%d mmHg", bp.Systolic, bp.Diastolic)
	}
	return string(a)
}
