package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wosledon/vitanote/internal/statistics"
)

// Overview renders an overview as a bordered terminal panel.
func Overview(ov *statistics.Overview, now time.Time) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(" VitaNote Summary ") + "\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%s to %s",
		ov.Range.From.Format("2006-01-02"),
		ov.Range.To.Format("2006-01-02"))) + "\n")

	b.WriteString(section("Glucose"))
	g := ov.Glucose
	if g.Count == 0 {
		b.WriteString(empty())
	} else {
		b.WriteString(row("Average", FormatGlucose(g.Average)))
		b.WriteString(row("Range", fmt.Sprintf("%.1f - %.1f mmol/L", g.Min, g.Max)))
		b.WriteString(row("In target", rangeBadge(g.InRangePercent)))
		b.WriteString(row("Est. HbA1c", FormatPercent(g.EstimatedA1C)))
		if g.Latest != nil {
			b.WriteString(row("Latest", FormatGlucose(g.Latest.Value)+" "+
				dimStyle.Render(string(g.Latest.Measurement)+", "+FormatAge(g.Latest.RecordedAt, now))))
		}
	}

	b.WriteString(section("Blood pressure"))
	bp := ov.BloodPressure
	if bp.Count == 0 {
		b.WriteString(empty())
	} else {
		b.WriteString(row("Average", fmt.Sprintf("%.0f/%.0f mmHg", bp.AverageSystolic, bp.AverageDiastolic)))
		if bp.Latest != nil {
			b.WriteString(row("Latest", FormatBloodPressure(bp.Latest.Systolic, bp.Latest.Diastolic)+" "+
				categoryBadge(bp.Latest.Category)))
		}
	}

	b.WriteString(section("Weight"))
	w := ov.Weight
	if w.Count == 0 {
		b.WriteString(empty())
	} else {
		if w.Latest != nil {
			b.WriteString(row("Latest", FormatWeight(w.Latest.Kg, false)))
		}
		b.WriteString(row("Change", FormatWeight(w.Change, true)))
		if w.BMI > 0 {
			b.WriteString(row("BMI", fmt.Sprintf("%.1f", w.BMI)))
		}
	}

	b.WriteString(section("Food"))
	f := ov.Food
	if f.Count == 0 {
		b.WriteString(empty())
	} else {
		b.WriteString(row("Daily average", FormatCalories(f.DailyAverageCalories)))
		b.WriteString(row("Carbohydrates", fmt.Sprintf("%.0f g", f.TotalCarbohydrates)))
	}

	b.WriteString(section("Medication"))
	m := ov.Medication
	if m.Count == 0 {
		b.WriteString(empty())
	} else {
		names := make([]string, 0, len(m.ByName))
		for name := range m.ByName {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			b.WriteString(row(name, fmt.Sprintf("%d doses", m.ByName[name])))
		}
	}

	return containerStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// Error renders a failure panel.
func Error(server string, err error) string {
	content := headerStyle.Render(" VitaNote Summary ") + "\n\n" +
		errorStyle.Render("Cannot load summary") + "\n" +
		dimStyle.Render("Server: ") + valueStyle.Render(server) + "\n" +
		dimStyle.Render("Error: ") + errorStyle.Render(err.Error())
	return containerStyle.Render(content)
}

func section(title string) string {
	return sectionStyle.Render("┃ "+title) + "\n"
}

func row(label, value string) string {
	return "  " + labelStyle.Render(fmt.Sprintf("%-14s", label)) + valueStyle.Render(value) + "\n"
}

func empty() string {
	return "  " + dimStyle.Render("no data") + "\n"
}

func rangeBadge(pct float64) string {
	s := FormatPercent(pct)
	switch {
	case pct >= 70:
		return healthyStyle.Render("● " + s)
	case pct >= 50:
		return warningStyle.Render("● " + s)
	}
	return errorStyle.Render("● " + s)
}

func categoryBadge(c statistics.BloodPressureCategory) string {
	switch c {
	case statistics.CategoryNormal:
		return healthyStyle.Render(string(c))
	case statistics.CategoryElevated, statistics.CategoryStage1, statistics.CategoryLow:
		return warningStyle.Render(string(c))
	}
	return errorStyle.Render(string(c))
}
