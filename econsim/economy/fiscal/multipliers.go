package fiscal

import (
	"fmt"
	"sort"

	"github.com/aspired-future/startales-econsim/econsim/database/models"
	"github.com/sahilm/fuzzy"
)

// TimeProfile describes how much of a policy's effect lands immediately
// and how many periods the remainder takes to ramp in.
type TimeProfile struct {
	InitialIntensity float64
	DurationMonths   int
}

// CategoryMultiplier is the per-category effect calibration. Loaded once
// at startup into an immutable lookup; unknown categories are an error,
// never a silent default.
type CategoryMultiplier struct {
	BaseMultiplier            float64
	DiminishingReturnsFactor  float64
	TimeProfile               TimeProfile
	EconomicConditionModifier float64
	EffectType                string

	ModifierType     models.ModifierType
	ModifierCategory string

	// EmotionalValence biases narrative tone: social programs read as
	// good news, defense spending as neutral.
	EmotionalValence float64
}

// DiminishingReturnsSpendScale normalizes cumulative category spend in
// the saturation exponent: factor^(spend/scale).
const DiminishingReturnsSpendScale = 10_000_000.0

var categoryMultipliers = map[models.PolicyCategory]CategoryMultiplier{
	models.CategoryInfrastructureTransport: {
		BaseMultiplier:            1.2,
		DiminishingReturnsFactor:  0.8,
		TimeProfile:               TimeProfile{InitialIntensity: 0.2, DurationMonths: 24},
		EconomicConditionModifier: 1.0,
		EffectType:                "infrastructure_quality",
		ModifierType:              models.ModifierInfrastructure,
		ModifierCategory:          "transport_quality",
		EmotionalValence:          0.3,
	},
	models.CategoryInfrastructureUtilities: {
		BaseMultiplier:            1.15,
		DiminishingReturnsFactor:  0.8,
		TimeProfile:               TimeProfile{InitialIntensity: 0.25, DurationMonths: 18},
		EconomicConditionModifier: 1.0,
		EffectType:                "infrastructure_quality",
		ModifierType:              models.ModifierInfrastructure,
		ModifierCategory:          "utility_capacity",
		EmotionalValence:          0.3,
	},
	models.CategoryInfrastructureDigital: {
		BaseMultiplier:            1.3,
		DiminishingReturnsFactor:  0.75,
		TimeProfile:               TimeProfile{InitialIntensity: 0.3, DurationMonths: 12},
		EconomicConditionModifier: 1.0,
		EffectType:                "infrastructure_quality",
		ModifierType:              models.ModifierInfrastructure,
		ModifierCategory:          "digital_connectivity",
		EmotionalValence:          0.4,
	},
	models.CategoryDefensePersonnel: {
		BaseMultiplier:            0.9,
		DiminishingReturnsFactor:  0.85,
		TimeProfile:               TimeProfile{InitialIntensity: 0.6, DurationMonths: 3},
		EconomicConditionModifier: 1.0,
		EffectType:                "military_strength",
		ModifierType:              models.ModifierMilitary,
		ModifierCategory:          "personnel_readiness",
		EmotionalValence:          0.0,
	},
	models.CategoryDefenseEquipment: {
		BaseMultiplier:            1.0,
		DiminishingReturnsFactor:  0.8,
		TimeProfile:               TimeProfile{InitialIntensity: 0.15, DurationMonths: 36},
		EconomicConditionModifier: 1.0,
		EffectType:                "military_strength",
		ModifierType:              models.ModifierMilitary,
		ModifierCategory:          "equipment_quality",
		EmotionalValence:          0.0,
	},
	models.CategoryResearchBasic: {
		BaseMultiplier:            1.4,
		DiminishingReturnsFactor:  0.7,
		TimeProfile:               TimeProfile{InitialIntensity: 0.05, DurationMonths: 60},
		EconomicConditionModifier: 1.0,
		EffectType:                "research_output",
		ModifierType:              models.ModifierResearch,
		ModifierCategory:          "basic_science",
		EmotionalValence:          0.4,
	},
	models.CategoryResearchApplied: {
		BaseMultiplier:            1.25,
		DiminishingReturnsFactor:  0.75,
		TimeProfile:               TimeProfile{InitialIntensity: 0.15, DurationMonths: 30},
		EconomicConditionModifier: 1.0,
		EffectType:                "research_output",
		ModifierType:              models.ModifierResearch,
		ModifierCategory:          "applied_innovation",
		EmotionalValence:          0.4,
	},
	models.CategoryEducationSystem: {
		BaseMultiplier:            1.35,
		DiminishingReturnsFactor:  0.8,
		TimeProfile:               TimeProfile{InitialIntensity: 0.1, DurationMonths: 48},
		EconomicConditionModifier: 1.0,
		EffectType:                "social_wellbeing",
		ModifierType:              models.ModifierSocial,
		ModifierCategory:          "education_quality",
		EmotionalValence:          0.6,
	},
	models.CategoryHealthcareSystem: {
		BaseMultiplier:            1.2,
		DiminishingReturnsFactor:  0.8,
		TimeProfile:               TimeProfile{InitialIntensity: 0.3, DurationMonths: 18},
		EconomicConditionModifier: 1.0,
		EffectType:                "social_wellbeing",
		ModifierType:              models.ModifierSocial,
		ModifierCategory:          "healthcare_quality",
		EmotionalValence:          0.7,
	},
	models.CategorySocialSupport: {
		BaseMultiplier:            1.1,
		DiminishingReturnsFactor:  0.9,
		TimeProfile:               TimeProfile{InitialIntensity: 0.7, DurationMonths: 2},
		EconomicConditionModifier: 1.0,
		EffectType:                "social_wellbeing",
		ModifierType:              models.ModifierSocial,
		ModifierCategory:          "social_stability",
		EmotionalValence:          0.8,
	},
}

// UnknownPolicyCategoryError is returned when no multiplier record exists
// for a category. Suggestions list the closest known category names.
type UnknownPolicyCategoryError struct {
	Category    models.PolicyCategory
	Suggestions []string
}

func (e *UnknownPolicyCategoryError) Error() string {
	if len(e.Suggestions) > 0 {
		return fmt.Sprintf("unknown policy category %q (did you mean %v?)", e.Category, e.Suggestions)
	}
	return fmt.Sprintf("unknown policy category %q", e.Category)
}

// lookupMultiplier resolves a category or fails with near-miss suggestions.
func lookupMultiplier(category models.PolicyCategory) (CategoryMultiplier, error) {
	if m, ok := categoryMultipliers[category]; ok {
		return m, nil
	}
	return CategoryMultiplier{}, &UnknownPolicyCategoryError{
		Category:    category,
		Suggestions: suggestCategories(string(category), 3),
	}
}

func knownCategories() []string {
	names := make([]string, 0, len(categoryMultipliers))
	for c := range categoryMultipliers {
		names = append(names, string(c))
	}
	sort.Strings(names)
	return names
}

func suggestCategories(input string, limit int) []string {
	matches := fuzzy.Find(input, knownCategories())
	if len(matches) > limit {
		matches = matches[:limit]
	}
	suggestions := make([]string, 0, len(matches))
	for _, m := range matches {
		suggestions = append(suggestions, m.Str)
	}
	return suggestions
}

// taxElasticities are the fixed behavioral responsiveness constants per
// tax type.
var taxElasticities = map[models.TaxType]float64{
	models.TaxIncome:       -0.25,
	models.TaxCorporate:    -0.40,
	models.TaxSales:        -0.15,
	models.TaxProperty:     -0.10,
	models.TaxCapitalGains: -0.35,
}

// taxOptimalRates approximate the revenue-maximizing rate used for the
// Laffer position.
var taxOptimalRates = map[models.TaxType]float64{
	models.TaxIncome:       0.45,
	models.TaxCorporate:    0.35,
	models.TaxSales:        0.20,
	models.TaxProperty:     0.05,
	models.TaxCapitalGains: 0.28,
}

// taxBehaviorNames label the incentive channel each tax works through.
var taxBehaviorNames = map[models.TaxType]string{
	models.TaxIncome:       "work_incentive_shift",
	models.TaxCorporate:    "investment_incentive_shift",
	models.TaxSales:        "consumption_shift",
	models.TaxProperty:     "property_investment_shift",
	models.TaxCapitalGains: "capital_allocation_shift",
}
