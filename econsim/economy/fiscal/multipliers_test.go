package fiscal

import (
	"testing"

	"github.com/aspired-future/startales-econsim/econsim/database/models"
)

func TestLookupMultiplier(t *testing.T) {
	for _, category := range []models.PolicyCategory{
		models.CategoryInfrastructureTransport,
		models.CategoryInfrastructureUtilities,
		models.CategoryInfrastructureDigital,
		models.CategoryDefensePersonnel,
		models.CategoryDefenseEquipment,
		models.CategoryResearchBasic,
		models.CategoryResearchApplied,
		models.CategoryEducationSystem,
		models.CategoryHealthcareSystem,
		models.CategorySocialSupport,
	} {
		m, err := lookupMultiplier(category)
		if err != nil {
			t.Errorf("lookupMultiplier(%s) error = %v", category, err)
			continue
		}
		if m.BaseMultiplier <= 0 {
			t.Errorf("%s: base multiplier = %v, want positive", category, m.BaseMultiplier)
		}
		if m.DiminishingReturnsFactor <= 0 || m.DiminishingReturnsFactor > 1 {
			t.Errorf("%s: diminishing factor = %v, want in (0, 1]", category, m.DiminishingReturnsFactor)
		}
		if m.TimeProfile.InitialIntensity < 0 || m.TimeProfile.InitialIntensity > 1 {
			t.Errorf("%s: initial intensity = %v, want in [0, 1]", category, m.TimeProfile.InitialIntensity)
		}
		if m.TimeProfile.DurationMonths <= 0 {
			t.Errorf("%s: duration = %v, want positive", category, m.TimeProfile.DurationMonths)
		}
		if m.ModifierCategory == "" {
			t.Errorf("%s: empty modifier category", category)
		}
	}
}

func TestLookupMultiplierUnknown(t *testing.T) {
	_, err := lookupMultiplier("space_elevator")
	if err == nil {
		t.Fatal("lookupMultiplier(space_elevator) want error")
	}
}

func TestSuggestCategories(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"infra_transport", "infrastructure_transport"},
		{"helthcare", "healthcare_system"},
		{"socialsupport", "social_support"},
	}

	for _, tt := range tests {
		suggestions := suggestCategories(tt.input, 3)
		if len(suggestions) == 0 {
			t.Errorf("suggestCategories(%q) = empty, want %q among results", tt.input, tt.want)
			continue
		}
		found := false
		for _, s := range suggestions {
			if s == tt.want {
				found = true
			}
		}
		if !found {
			t.Errorf("suggestCategories(%q) = %v, want %q among results", tt.input, suggestions, tt.want)
		}
	}
}

func TestTaxTablesCoverAllTaxTypes(t *testing.T) {
	for _, taxType := range []models.TaxType{
		models.TaxIncome, models.TaxCorporate, models.TaxSales,
		models.TaxProperty, models.TaxCapitalGains,
	} {
		if _, ok := taxElasticities[taxType]; !ok {
			t.Errorf("no elasticity for %s", taxType)
		}
		if rate, ok := taxOptimalRates[taxType]; !ok || rate <= 0 {
			t.Errorf("optimal rate for %s = %v, want positive", taxType, rate)
		}
		if _, ok := taxBehaviorNames[taxType]; !ok {
			t.Errorf("no behavior name for %s", taxType)
		}
	}
}
