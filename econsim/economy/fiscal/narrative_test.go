package fiscal

import (
	"math"
	"testing"
	"time"

	"github.com/aspired-future/startales-econsim/econsim/database/models"
)

func testEffect(category models.PolicyCategory, amount float64, months int) *models.FiscalPolicyEffect {
	return &models.FiscalPolicyEffect{
		ID:               "effect-1",
		CivilizationID:   "civ1",
		PolicyType:       models.PolicySpending,
		PolicyCategory:   category,
		PolicyAmount:     amount,
		TimeToFullEffect: months,
		CreatedAt:        time.Now(),
	}
}

func TestNarrativeWeight(t *testing.T) {
	m := categoryMultipliers[models.CategoryHealthcareSystem]

	tests := []struct {
		name   string
		amount float64
		delta  float64
		want   float64
	}{
		{
			name:   "tiny delta clamps to floor",
			amount: 1_000_000,
			delta:  0.001,
			want:   narrativeWeightMin,
		},
		{
			name:   "huge delta clamps to ceiling",
			amount: 1_000_000,
			delta:  50,
			want:   narrativeWeightMax,
		},
		{
			name:   "mid-range combines magnitude and spend",
			amount: 100_000_000, // log10(100) = 2
			delta:  0.5,
			want:   2*0.5 + 0.1*2,
		},
		{
			name:   "sub-million spend contributes nothing",
			amount: 500_000,
			delta:  0.5,
			want:   1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := buildNarrativeInput(testEffect(models.CategoryHealthcareSystem, tt.amount, 18), m, tt.delta)
			if math.Abs(in.NarrativeWeight-tt.want) > 1e-9 {
				t.Errorf("weight = %v, want %v", in.NarrativeWeight, tt.want)
			}
		})
	}
}

func TestNarrativeInputFields(t *testing.T) {
	m := categoryMultipliers[models.CategoryEducationSystem]
	in := buildNarrativeInput(testEffect(models.CategoryEducationSystem, 20_000_000, 48), m, -0.4)

	if in.InputType != "fiscal_policy_effect" {
		t.Errorf("input type = %q, want fiscal_policy_effect", in.InputType)
	}
	if in.Magnitude != 0.4 {
		t.Errorf("magnitude = %v, want 0.4 (absolute delta)", in.Magnitude)
	}
	if in.EmotionalValence != m.EmotionalValence {
		t.Errorf("valence = %v, want %v", in.EmotionalValence, m.EmotionalValence)
	}
	if in.CivilizationID != "civ1" {
		t.Errorf("civilization = %q, want civ1", in.CivilizationID)
	}
	if len(in.NarrativeData.AffectedSystems) != 2 {
		t.Errorf("affected systems = %v, want [type, category]", in.NarrativeData.AffectedSystems)
	}
	if in.ProcessedAt != nil {
		t.Error("new narrative input already marked processed")
	}
}

func TestNarrativeTimeframe(t *testing.T) {
	tests := []struct {
		months int
		want   string
	}{
		{2, "immediate"},
		{3, "immediate"},
		{12, "months"},
		{24, "years"},
		{36, "years"},
		{60, "a generation"},
	}

	for _, tt := range tests {
		if got := narrativeTimeframe(tt.months); got != tt.want {
			t.Errorf("narrativeTimeframe(%d) = %q, want %q", tt.months, got, tt.want)
		}
	}
}
