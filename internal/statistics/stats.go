package statistics

import (
	"math"
	"time"

	"github.com/wosledon/vitanote/internal/food"
	"github.com/wosledon/vitanote/internal/medication"
	"github.com/wosledon/vitanote/internal/records"
)

// GlucoseReading is a single glucose value.
type GlucoseReading struct {
	Value       float64             `json:"value"`
	Measurement records.Measurement `json:"measurement"`
	RecordedAt  time.Time           `json:"recorded_at"`
}

// MeasurementStats aggregates readings of one measurement type.
type MeasurementStats struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// GlucoseStats summarizes glucose readings in mmol/L. Range percentages
// are 0..100.
type GlucoseStats struct {
	Count          int                                      `json:"count"`
	Average        float64                                  `json:"average"`
	Min            float64                                  `json:"min"`
	Max            float64                                  `json:"max"`
	StdDev         float64                                  `json:"std_dev"`
	Latest         *GlucoseReading                          `json:"latest"`
	TargetLow      float64                                  `json:"target_low"`
	TargetHigh     float64                                  `json:"target_high"`
	InRangePercent float64                                  `json:"in_range_percent"`
	BelowPercent   float64                                  `json:"below_range_percent"`
	AbovePercent   float64                                  `json:"above_range_percent"`
	EstimatedA1C   float64                                  `json:"estimated_a1c"`
	ByMeasurement  map[records.Measurement]MeasurementStats `json:"by_measurement"`
}

// EstimatedA1C converts an average glucose in mmol/L to an HbA1c percent.
func EstimatedA1C(avgMmol float64) float64 {
	return (records.MmolToMgdl(avgMmol) + 46.7) / 28.7
}

// Glucose aggregates glucose records against the target range [low, high].
// Records of other types are ignored.
func Glucose(recs []*records.HealthRecord, low, high float64) GlucoseStats {
	st := GlucoseStats{
		TargetLow:     low,
		TargetHigh:    high,
		ByMeasurement: map[records.Measurement]MeasurementStats{},
	}

	var sum, sumSq float64
	var below, above int
	sums := map[records.Measurement]float64{}
	for _, r := range recs {
		g, err := r.Glucose()
		if err != nil {
			continue
		}
		if st.Count == 0 || g.Value < st.Min {
			st.Min = g.Value
		}
		if st.Count == 0 || g.Value > st.Max {
			st.Max = g.Value
		}
		st.Count++
		sum += g.Value
		sumSq += g.Value * g.Value
		switch {
		case g.Value < low:
			below++
		case g.Value > high:
			above++
		}
		m := g.Measurement
		if m == "" {
			m = records.MeasurementRandom
		}
		ms := st.ByMeasurement[m]
		ms.Count++
		st.ByMeasurement[m] = ms
		sums[m] += g.Value

		if st.Latest == nil || r.RecordedAt.After(st.Latest.RecordedAt) {
			st.Latest = &GlucoseReading{Value: g.Value, Measurement: m, RecordedAt: r.RecordedAt}
		}
	}
	if st.Count == 0 {
		return st
	}

	n := float64(st.Count)
	avg := sum / n
	st.Average = round2(avg)
	st.StdDev = round2(math.Sqrt(math.Max(0, sumSq/n-avg*avg)))
	st.Min = round2(st.Min)
	st.Max = round2(st.Max)
	st.BelowPercent = round2(float64(below) / n * 100)
	st.AbovePercent = round2(float64(above) / n * 100)
	st.InRangePercent = round2(float64(st.Count-below-above) / n * 100)
	st.EstimatedA1C = round2(EstimatedA1C(avg))
	for m, ms := range st.ByMeasurement {
		ms.Average = round2(sums[m] / float64(ms.Count))
		st.ByMeasurement[m] = ms
	}
	return st
}

// BloodPressureCategory classifies a reading.
type BloodPressureCategory string

const (
	CategoryLow      BloodPressureCategory = "low"
	CategoryNormal   BloodPressureCategory = "normal"
	CategoryElevated BloodPressureCategory = "elevated"
	CategoryStage1   BloodPressureCategory = "stage1"
	CategoryStage2   BloodPressureCategory = "stage2"
	CategoryCrisis   BloodPressureCategory = "crisis"
)

// Categorize classifies a reading using the ACC/AHA bands, with readings
// below 90/60 reported as low.
func Categorize(systolic, diastolic int) BloodPressureCategory {
	switch {
	case systolic > 180 || diastolic > 120:
		return CategoryCrisis
	case systolic >= 140 || diastolic >= 90:
		return CategoryStage2
	case systolic >= 130 || diastolic >= 80:
		return CategoryStage1
	case systolic >= 120:
		return CategoryElevated
	case systolic < 90 || diastolic < 60:
		return CategoryLow
	}
	return CategoryNormal
}

// BloodPressureReading is a single reading.
type BloodPressureReading struct {
	Systolic   int                   `json:"systolic"`
	Diastolic  int                   `json:"diastolic"`
	Pulse      int                   `json:"pulse,omitempty"`
	Category   BloodPressureCategory `json:"category"`
	RecordedAt time.Time             `json:"recorded_at"`
}

// BloodPressureStats summarizes blood-pressure readings.
type BloodPressureStats struct {
	Count            int                   `json:"count"`
	AverageSystolic  float64               `json:"average_systolic"`
	AverageDiastolic float64               `json:"average_diastolic"`
	AveragePulse     float64               `json:"average_pulse"`
	MinSystolic      int                   `json:"min_systolic"`
	MaxSystolic      int                   `json:"max_systolic"`
	MinDiastolic     int                   `json:"min_diastolic"`
	MaxDiastolic     int                   `json:"max_diastolic"`
	Latest           *BloodPressureReading `json:"latest"`
}

// BloodPressure aggregates blood-pressure records.
func BloodPressure(recs []*records.HealthRecord) BloodPressureStats {
	var st BloodPressureStats
	var sumSys, sumDia, sumPulse float64
	var pulses int
	for _, r := range recs {
		bp, err := r.BloodPressure()
		if err != nil {
			continue
		}
		if st.Count == 0 {
			st.MinSystolic, st.MaxSystolic = bp.Systolic, bp.Systolic
			st.MinDiastolic, st.MaxDiastolic = bp.Diastolic, bp.Diastolic
		}
		st.MinSystolic = min(st.MinSystolic, bp.Systolic)
		st.MaxSystolic = max(st.MaxSystolic, bp.Systolic)
		st.MinDiastolic = min(st.MinDiastolic, bp.Diastolic)
		st.MaxDiastolic = max(st.MaxDiastolic, bp.Diastolic)
		st.Count++
		sumSys += float64(bp.Systolic)
		sumDia += float64(bp.Diastolic)
		if bp.Pulse > 0 {
			pulses++
			sumPulse += float64(bp.Pulse)
		}
		if st.Latest == nil || r.RecordedAt.After(st.Latest.RecordedAt) {
			st.Latest = &BloodPressureReading{
				Systolic:   bp.Systolic,
				Diastolic:  bp.Diastolic,
				Pulse:      bp.Pulse,
				Category:   Categorize(bp.Systolic, bp.Diastolic),
				RecordedAt: r.RecordedAt,
			}
		}
	}
	if st.Count == 0 {
		return st
	}
	st.AverageSystolic = round2(sumSys / float64(st.Count))
	st.AverageDiastolic = round2(sumDia / float64(st.Count))
	if pulses > 0 {
		st.AveragePulse = round2(sumPulse / float64(pulses))
	}
	return st
}

// WeightReading is a single weight value.
type WeightReading struct {
	Kg             float64   `json:"kg"`
	BodyFatPercent float64   `json:"body_fat_percent,omitempty"`
	RecordedAt     time.Time `json:"recorded_at"`
}

// WeightStats summarizes weight readings. BMI is set only when a height is
// known.
type WeightStats struct {
	Count   int            `json:"count"`
	Average float64        `json:"average"`
	Min     float64        `json:"min"`
	Max     float64        `json:"max"`
	Latest  *WeightReading `json:"latest"`
	Change  float64        `json:"change"`
	BMI     float64        `json:"bmi,omitempty"`
}

// BMI returns body mass index for kg and a height in centimeters.
func BMI(kg, heightCM float64) float64 {
	if heightCM <= 0 {
		return 0
	}
	m := heightCM / 100
	return kg / (m * m)
}

// Weight aggregates weight records. heightCM may be 0.
func Weight(recs []*records.HealthRecord, heightCM float64) WeightStats {
	var st WeightStats
	var sum float64
	var earliest *WeightReading
	for _, r := range recs {
		w, err := r.Weight()
		if err != nil {
			continue
		}
		if st.Count == 0 || w.Kg < st.Min {
			st.Min = w.Kg
		}
		if st.Count == 0 || w.Kg > st.Max {
			st.Max = w.Kg
		}
		st.Count++
		sum += w.Kg
		reading := &WeightReading{Kg: w.Kg, BodyFatPercent: w.BodyFatPercent, RecordedAt: r.RecordedAt}
		if st.Latest == nil || r.RecordedAt.After(st.Latest.RecordedAt) {
			st.Latest = reading
		}
		if earliest == nil || r.RecordedAt.Before(earliest.RecordedAt) {
			earliest = reading
		}
	}
	if st.Count == 0 {
		return st
	}
	st.Average = round2(sum / float64(st.Count))
	st.Change = round2(st.Latest.Kg - earliest.Kg)
	st.BMI = round2(BMI(st.Latest.Kg, heightCM))
	return st
}

// MealStats aggregates one meal type.
type MealStats struct {
	Count    int     `json:"count"`
	Calories float64 `json:"calories"`
}

// FoodStats summarizes food records.
type FoodStats struct {
	Count                int                         `json:"count"`
	TotalCalories        float64                     `json:"total_calories"`
	TotalCarbohydrates   float64                     `json:"total_carbohydrates"`
	TotalProtein         float64                     `json:"total_protein"`
	TotalFat             float64                     `json:"total_fat"`
	DailyAverageCalories float64                     `json:"daily_average_calories"`
	ByMeal               map[food.MealType]MealStats `json:"by_meal"`
}

// Food aggregates food records. days is the number of days in the range
// and divides the calorie total.
func Food(recs []*food.Record, days int) FoodStats {
	st := FoodStats{ByMeal: map[food.MealType]MealStats{}}
	for _, r := range recs {
		st.Count++
		st.TotalCalories += r.Calories
		st.TotalCarbohydrates += r.Carbohydrates
		st.TotalProtein += r.Protein
		st.TotalFat += r.Fat
		ms := st.ByMeal[r.MealType]
		ms.Count++
		ms.Calories += r.Calories
		st.ByMeal[r.MealType] = ms
	}
	if days > 0 {
		st.DailyAverageCalories = round2(st.TotalCalories / float64(days))
	}
	st.TotalCalories = round2(st.TotalCalories)
	st.TotalCarbohydrates = round2(st.TotalCarbohydrates)
	st.TotalProtein = round2(st.TotalProtein)
	st.TotalFat = round2(st.TotalFat)
	for k, ms := range st.ByMeal {
		ms.Calories = round2(ms.Calories)
		st.ByMeal[k] = ms
	}
	return st
}

// MedicationReading is a single intake.
type MedicationReading struct {
	Name    string    `json:"name"`
	Dosage  float64   `json:"dosage"`
	Unit    string    `json:"unit"`
	TakenAt time.Time `json:"taken_at"`
}

// MedicationStats summarizes medication events.
type MedicationStats struct {
	Count  int                `json:"count"`
	ByName map[string]int     `json:"by_name"`
	Latest *MedicationReading `json:"latest"`
}

// Medications aggregates medication events.
func Medications(meds []*medication.Medication) MedicationStats {
	st := MedicationStats{ByName: map[string]int{}}
	for _, m := range meds {
		st.Count++
		st.ByName[m.Name]++
		if st.Latest == nil || m.TakenAt.After(st.Latest.TakenAt) {
			st.Latest = &MedicationReading{Name: m.Name, Dosage: m.Dosage, Unit: m.Unit, TakenAt: m.TakenAt}
		}
	}
	return st
}

// DailyPoint holds one day of aggregates. Days without data are zero.
type DailyPoint struct {
	Date             string  `json:"date"`
	GlucoseAverage   float64 `json:"glucose_average"`
	GlucoseCount     int     `json:"glucose_count"`
	Calories         float64 `json:"calories"`
	Carbohydrates    float64 `json:"carbohydrates"`
	SystolicAverage  float64 `json:"systolic_average"`
	DiastolicAverage float64 `json:"diastolic_average"`
	Weight           float64 `json:"weight"`
}

type dailyAcc struct {
	point              DailyPoint
	glucoseSum         float64
	sysSum, diaSum     float64
	bpCount            int
	lastWeightRecorded time.Time
}

// Daily builds one point per calendar day of r.
func Daily(r Range, recs []*records.HealthRecord, foods []*food.Record) []DailyPoint {
	days := r.Days()
	acc := make(map[string]*dailyAcc, len(days))
	for _, d := range days {
		key := d.Format(time.DateOnly)
		acc[key] = &dailyAcc{point: DailyPoint{Date: key}}
	}
	lookup := func(t time.Time) *dailyAcc {
		return acc[t.UTC().Format(time.DateOnly)]
	}

	for _, rec := range recs {
		a := lookup(rec.RecordedAt)
		if a == nil {
			continue
		}
		switch rec.Type {
		case records.TypeGlucose:
			if g, err := rec.Glucose(); err == nil {
				a.point.GlucoseCount++
				a.glucoseSum += g.Value
			}
		case records.TypeBloodPressure:
			if bp, err := rec.BloodPressure(); err == nil {
				a.bpCount++
				a.sysSum += float64(bp.Systolic)
				a.diaSum += float64(bp.Diastolic)
			}
		case records.TypeWeight:
			if w, err := rec.Weight(); err == nil && !rec.RecordedAt.Before(a.lastWeightRecorded) {
				a.point.Weight = w.Kg
				a.lastWeightRecorded = rec.RecordedAt
			}
		}
	}
	for _, f := range foods {
		if a := lookup(f.EatenAt); a != nil {
			a.point.Calories += f.Calories
			a.point.Carbohydrates += f.Carbohydrates
		}
	}

	points := make([]DailyPoint, 0, len(days))
	for _, d := range days {
		a := acc[d.Format(time.DateOnly)]
		p := a.point
		if p.GlucoseCount > 0 {
			p.GlucoseAverage = round2(a.glucoseSum / float64(p.GlucoseCount))
		}
		if a.bpCount > 0 {
			p.SystolicAverage = round2(a.sysSum / float64(a.bpCount))
			p.DiastolicAverage = round2(a.diaSum / float64(a.bpCount))
		}
		p.Calories = round2(p.Calories)
		p.Carbohydrates = round2(p.Carbohydrates)
		points = append(points, p)
	}
	return points
}
