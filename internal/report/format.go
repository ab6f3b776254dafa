package report

import (
	"fmt"
	"time"
)

// FormatPercent formats a 0..100 value as "X.X%".
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatGlucose formats mmol/L with the mg/dL equivalent.
func FormatGlucose(mmol float64) string {
	return fmt.Sprintf("%.1f mmol/L (%.0f mg/dL)", mmol, mmol*18.0182)
}

// FormatBloodPressure formats "120/80 mmHg".
func FormatBloodPressure(sys, dia int) string {
	return fmt.Sprintf("%d/%d mmHg", sys, dia)
}

// FormatWeight formats kilograms, with a sign when signed is set.
func FormatWeight(kg float64, signed bool) string {
	if signed {
		return fmt.Sprintf("%+.1f kg", kg)
	}
	return fmt.Sprintf("%.1f kg", kg)
}

// FormatCalories formats kcal without decimals.
func FormatCalories(kcal float64) string {
	return fmt.Sprintf("%.0f kcal", kcal)
}

// FormatAge formats how long ago t was, relative to now: "just now", "5m ago",
// "3h ago" or "2d ago".
func FormatAge(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	return fmt.Sprintf("%dd ago", int(d.Hours()/24))
}
