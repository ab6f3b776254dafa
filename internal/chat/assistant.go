package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/wosledon/vitanote/internal/statistics"
)

// Disclaimer ends every assistant reply.
const Disclaimer = "This is general information, not medical advice. Please consult your healthcare provider."

type topic int

const (
	topicNone topic = iota
	topicGreeting
	topicGlucose
	topicPressure
	topicWeight
	topicFood
	topicMedication
)

// topicKeywords are tried in order. Prefixes match the start of any word;
// words must match a whole word.
var topicKeywords = []struct {
	topic    topic
	prefixes []string
	words    []string
}{
	{topic: topicGlucose, prefixes: []string{"glucose", "sugar", "a1c", "hba1c", "hypoglyc", "hyperglyc"}, words: []string{"hypo", "hypos", "hyper"}},
	{topic: topicPressure, prefixes: []string{"pressure", "systolic", "diastolic", "hypertens", "hypotens"}},
	{topic: topicWeight, prefixes: []string{"weight", "bmi", "kg", "lose", "gain"}},
	{topic: topicFood, prefixes: []string{"food", "carb", "meal", "diet", "calorie", "eat"}},
	{topic: topicMedication, prefixes: []string{"medication", "medicine", "insulin", "metformin", "dose", "pill"}},
	{topic: topicGreeting, words: []string{"hello", "hi", "hey", "good morning", "good evening"}},
}

var cannedReplies = map[topic]string{
	topicGreeting:   "Hello! I can help you understand your glucose, blood pressure, weight, food and medication logs.",
	topicGlucose:    "Keeping blood glucose inside your target range matters more than any single reading. Regular meals, activity and consistent logging help you spot patterns.",
	topicPressure:   "Blood pressure is best measured at the same times each day after a few minutes of rest. Reducing salt and staying active can help keep it in range.",
	topicWeight:     "Gradual, steady weight change is more sustainable than rapid change. Weighing at the same time of day makes trends easier to read.",
	topicFood:       "Balanced meals with vegetables, lean protein and high-fiber carbohydrates help keep glucose steady. Logging carbohydrates makes the effect of each meal visible.",
	topicMedication: "Take medication as prescribed and log each dose so you and your care team can see how it lines up with your readings.",
	topicNone:       "I can answer questions about glucose, blood pressure, weight, food and medication. Try asking how your glucose has been this week.",
}

// RuleAssistant answers from keywords and recent statistics.
type RuleAssistant struct{}

// NewRuleAssistant creates the keyword assistant.
func NewRuleAssistant() *RuleAssistant {
	return &RuleAssistant{}
}

// Reply implements Assistant.
func (a *RuleAssistant) Reply(_ context.Context, in AssistantInput) (string, error) {
	t := classify(in.Message)
	parts := []string{cannedReplies[t]}
	if summary := summarize(t, in.Stats); summary != "" {
		parts = append(parts, summary)
	}
	parts = append(parts, Disclaimer)
	return strings.Join(parts, " "), nil
}

func classify(msg string) topic {
	words := strings.FieldsFunc(strings.ToLower(msg), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	text := " " + strings.Join(words, " ") + " "
	for _, tk := range topicKeywords {
		for _, w := range tk.words {
			if strings.Contains(text, " "+w+" ") {
				return tk.topic
			}
		}
		for _, p := range tk.prefixes {
			if strings.Contains(text, " "+p) {
				return tk.topic
			}
		}
	}
	return topicNone
}

func summarize(t topic, ov *statistics.Overview) string {
	if ov == nil {
		return ""
	}
	switch t {
	case topicGlucose:
		g := ov.Glucose
		if g.Count == 0 {
			return "You have no glucose readings in the last 7 days."
		}
		return fmt.Sprintf("Over the last 7 days your average glucose was %.1f mmol/L across %d readings, with %.0f%% in your target range.",
			g.Average, g.Count, g.InRangePercent)
	case topicPressure:
		bp := ov.BloodPressure
		if bp.Count == 0 {
			return "You have no blood pressure readings in the last 7 days."
		}
		return fmt.Sprintf("Your average blood pressure over the last 7 days was %.0f/%.0f mmHg across %d readings.",
			bp.AverageSystolic, bp.AverageDiastolic, bp.Count)
	case topicWeight:
		w := ov.Weight
		if w.Latest == nil {
			return "You have no weight readings in the last 7 days."
		}
		return fmt.Sprintf("Your latest weight is %.1f kg, a change of %+.1f kg over the last 7 days.", w.Latest.Kg, w.Change)
	case topicFood:
		f := ov.Food
		if f.Count == 0 {
			return "You have not logged any food in the last 7 days."
		}
		return fmt.Sprintf("You logged %d food entries in the last 7 days, averaging %.0f kcal per day.", f.Count, f.DailyAverageCalories)
	case topicMedication:
		m := ov.Medication
		if m.Count == 0 {
			return "You have not logged any medication in the last 7 days."
		}
		return fmt.Sprintf("You logged %d medication doses in the last 7 days.", m.Count)
	}
	return ""
}
