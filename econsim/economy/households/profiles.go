package households

import (
	"github.com/aspired-future/startales-econsim/econsim/database/models"
)

// ReferencePrice anchors the constant-elasticity demand curve. Demand
// tables are calibrated against this price, so a current price of 100
// leaves base demand unchanged.
const ReferencePrice = 100.0

// tierSeed holds the initialization constants for one income band.
type tierSeed struct {
	Percentage           float64
	AverageIncome        float64
	LuxuryDemandMult     float64
	BasicGoodsDemandMult float64
	SavingsRate          float64
	SocialMobilityRate   float64
}

// tierSeeds partitions the population 40/50/10 across poor/median/rich.
// Consumption power is derived as 80% of average income.
var tierSeeds = map[models.TierName]tierSeed{
	models.TierPoor: {
		Percentage:           40,
		AverageIncome:        25000,
		LuxuryDemandMult:     0.2,
		BasicGoodsDemandMult: 2.5,
		SavingsRate:          0.02,
		SocialMobilityRate:   0.005,
	},
	models.TierMedian: {
		Percentage:           50,
		AverageIncome:        75000,
		LuxuryDemandMult:     1.0,
		BasicGoodsDemandMult: 1.5,
		SavingsRate:          0.15,
		SocialMobilityRate:   0.015,
	},
	models.TierRich: {
		Percentage:           10,
		AverageIncome:        300000,
		LuxuryDemandMult:     5.0,
		BasicGoodsDemandMult: 0.8,
		SavingsRate:          0.30,
		SocialMobilityRate:   0.002,
	},
}

const consumptionPowerShare = 0.8

// profileSeed holds the per (tier, resource) demand curve constants.
type profileSeed struct {
	Resource   models.ResourceType
	BaseDemand float64
	Elasticity float64
	Luxury     float64
	Necessity  float64
}

// profileSeeds is the fixed consumption table. Elasticity magnitudes grow
// from necessities to luxuries within each tier, and shrink as income
// rises: the rich barely react to food prices, the poor abandon luxury
// goods at the first price bump.
var profileSeeds = map[models.TierName][]profileSeed{
	models.TierPoor: {
		{models.ResourceFood, 1000, -0.3, 0.0, 1.0},
		{models.ResourceWater, 800, -0.2, 0.0, 1.0},
		{models.ResourceEnergy, 300, -0.8, 0.1, 0.9},
		{models.ResourceHousing, 150, -1.2, 0.0, 1.0},
		{models.ResourceClothing, 200, -1.0, 0.2, 0.8},
		{models.ResourceHealthcare, 100, -1.5, 0.1, 0.9},
		{models.ResourceEducation, 50, -2.0, 0.3, 0.7},
		{models.ResourceEntertainment, 25, -2.5, 0.8, 0.2},
		{models.ResourceLuxuryGoods, 5, -3.0, 1.0, 0.0},
	},
	models.TierMedian: {
		{models.ResourceFood, 1200, -0.5, 0.1, 0.9},
		{models.ResourceWater, 900, -0.3, 0.0, 1.0},
		{models.ResourceEnergy, 600, -1.0, 0.2, 0.8},
		{models.ResourceHousing, 400, -1.0, 0.3, 0.7},
		{models.ResourceClothing, 500, -1.2, 0.4, 0.6},
		{models.ResourceHealthcare, 300, -1.0, 0.2, 0.8},
		{models.ResourceEducation, 200, -1.5, 0.5, 0.5},
		{models.ResourceEntertainment, 150, -1.8, 0.7, 0.3},
		{models.ResourceLuxuryGoods, 75, -2.2, 0.9, 0.1},
	},
	models.TierRich: {
		{models.ResourceFood, 1500, -0.1, 0.3, 0.7},
		{models.ResourceWater, 1000, -0.1, 0.0, 1.0},
		{models.ResourceEnergy, 1200, -0.3, 0.4, 0.6},
		{models.ResourceHousing, 1000, -0.5, 0.7, 0.3},
		{models.ResourceClothing, 1200, -0.8, 0.8, 0.2},
		{models.ResourceHealthcare, 800, -0.4, 0.5, 0.5},
		{models.ResourceEducation, 600, -0.6, 0.6, 0.4},
		{models.ResourceEntertainment, 800, -1.0, 0.8, 0.2},
		{models.ResourceLuxuryGoods, 2000, -1.2, 1.0, 0.0},
	},
}

// MobilityOpportunity describes one available upward transition from a
// tier, priced and weighted for the caller to propose.
type MobilityOpportunity struct {
	EventType            models.MobilityEventType
	FromTier             models.TierName
	ToTier               models.TierName
	SuccessProbability   float64
	ResourceCost         models.ResourceCost
	ExpectedIncomeChange float64
}

// opportunityCosts fixes the resource price of each proposable event type.
var opportunityCosts = map[models.MobilityEventType]models.ResourceCost{
	models.MobilityEducationInvestment: {"education": 5000, "gold": 2000},
	models.MobilityBusinessStart:       {"gold": 10000},
	models.MobilityMarriage:            {},
	models.MobilityNaturalProgression:  {},
}

// MobilityOpportunities enumerates the upward transitions a household in
// fromTier can attempt. The top tier has nowhere to climb.
func MobilityOpportunities(fromTier models.TierName) []MobilityOpportunity {
	var toTier models.TierName
	switch fromTier {
	case models.TierPoor:
		toTier = models.TierMedian
	case models.TierMedian:
		toTier = models.TierRich
	default:
		return nil
	}

	incomeChange := tierSeeds[toTier].AverageIncome - tierSeeds[fromTier].AverageIncome
	opportunities := make([]MobilityOpportunity, 0, len(opportunityCosts))
	for _, eventType := range []models.MobilityEventType{
		models.MobilityEducationInvestment,
		models.MobilityBusinessStart,
		models.MobilityMarriage,
		models.MobilityNaturalProgression,
	} {
		opportunities = append(opportunities, MobilityOpportunity{
			EventType:            eventType,
			FromTier:             fromTier,
			ToTier:               toTier,
			SuccessProbability:   mobilityProbability(eventType, fromTier),
			ResourceCost:         opportunityCosts[eventType],
			ExpectedIncomeChange: incomeChange,
		})
	}
	return opportunities
}

// mobilityProbability returns the base success chance for an event type
// from a given tier. Climbing out of poverty is harder than climbing from
// the middle; falls (business failure) succeed almost by default.
func mobilityProbability(eventType models.MobilityEventType, fromTier models.TierName) float64 {
	switch eventType {
	case models.MobilityEducationInvestment:
		if fromTier == models.TierPoor {
			return 0.15
		}
		return 0.25
	case models.MobilityBusinessStart:
		if fromTier == models.TierPoor {
			return 0.08
		}
		return 0.18
	case models.MobilityBusinessSuccess:
		return 0.30
	case models.MobilityBusinessFailure:
		return 0.85
	case models.MobilityInheritance:
		return 0.95
	case models.MobilityMarriage:
		return 0.20
	case models.MobilityPolicyImpact:
		return 0.10
	case models.MobilityCulturalShift:
		return 0.05
	case models.MobilityNaturalProgression:
		return 0.02
	default:
		return 0.10
	}
}

func mobilityDescription(eventType models.MobilityEventType, fromTier, toTier models.TierName) string {
	switch eventType {
	case models.MobilityEducationInvestment:
		return "Household invested in education to move from " + string(fromTier) + " to " + string(toTier)
	case models.MobilityBusinessStart:
		return "Household started a business attempting to move from " + string(fromTier) + " to " + string(toTier)
	case models.MobilityBusinessSuccess:
		return "Established business succeeded, lifting household from " + string(fromTier) + " to " + string(toTier)
	case models.MobilityBusinessFailure:
		return "Business failure pushed household from " + string(fromTier) + " to " + string(toTier)
	case models.MobilityInheritance:
		return "Inheritance moved household from " + string(fromTier) + " to " + string(toTier)
	case models.MobilityMarriage:
		return "Marriage joined households across " + string(fromTier) + " and " + string(toTier)
	case models.MobilityPolicyImpact:
		return "Economic policy shifted household from " + string(fromTier) + " to " + string(toTier)
	case models.MobilityCulturalShift:
		return "Cultural change moved household from " + string(fromTier) + " to " + string(toTier)
	default:
		return "Household moved from " + string(fromTier) + " to " + string(toTier)
	}
}
