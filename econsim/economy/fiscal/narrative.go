package fiscal

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/aspired-future/startales-econsim/econsim/database/models"
	"github.com/google/uuid"
)

// NarrativeThreshold is the minimum applied effect magnitude worth telling
// the narrative system about.
const NarrativeThreshold = 0.1

const (
	narrativeWeightMin = 0.1
	narrativeWeightMax = 2.0
)

// narrativeTimeframe buckets a ramp duration into prose.
func narrativeTimeframe(months int) string {
	switch {
	case months <= 3:
		return "immediate"
	case months <= 12:
		return "months"
	case months <= 36:
		return "years"
	default:
		return "a generation"
	}
}

// categoryHeadline renders a policy category as a readable program name.
func categoryHeadline(category models.PolicyCategory) string {
	return strings.ReplaceAll(string(category), "_", " ")
}

// buildNarrativeInput turns a significant fiscal effect into a weighted,
// emotionally scored event. Weight grows with effect magnitude and, more
// slowly, with the money behind it.
func buildNarrativeInput(effect *models.FiscalPolicyEffect, m CategoryMultiplier, appliedDelta float64) *models.NarrativeInput {
	magnitude := math.Abs(appliedDelta)

	weight := 2*magnitude + 0.1*math.Log10(math.Max(effect.PolicyAmount/1_000_000, 1))
	weight = math.Max(narrativeWeightMin, math.Min(narrativeWeightMax, weight))

	headline := categoryHeadline(effect.PolicyCategory)
	title := fmt.Sprintf("Investment in %s reshapes %s", headline, m.ModifierCategory)
	description := fmt.Sprintf(
		"A %s program of %.0f is taking effect, shifting %s by %.3f over %s.",
		headline, effect.PolicyAmount, m.ModifierCategory, appliedDelta,
		narrativeTimeframe(effect.TimeToFullEffect),
	)

	return &models.NarrativeInput{
		ID:              uuid.NewString(),
		CivilizationID:  effect.CivilizationID,
		InputType:       "fiscal_policy_effect",
		NarrativeWeight: weight,
		NarrativeData: models.NarrativeData{
			Title:           title,
			Description:     description,
			Magnitude:       magnitude,
			Timeframe:       narrativeTimeframe(effect.TimeToFullEffect),
			AffectedSystems: []string{string(m.ModifierType), m.ModifierCategory},
		},
		EmotionalValence: m.EmotionalValence,
		Magnitude:        magnitude,
		CreatedAt:        time.Now(),
	}
}
