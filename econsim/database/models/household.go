package models

import (
	"time"

	"github.com/uptrace/bun"
)

// TierName identifies one of the three household income bands.
type TierName string

const (
	TierPoor   TierName = "poor"
	TierMedian TierName = "median"
	TierRich   TierName = "rich"
)

// Tiers lists all tiers ordered poorest first.
var Tiers = []TierName{TierPoor, TierMedian, TierRich}

// ResourceType identifies a consumable resource households demand.
type ResourceType string

const (
	ResourceFood          ResourceType = "food"
	ResourceWater         ResourceType = "water"
	ResourceEnergy        ResourceType = "energy"
	ResourceHousing       ResourceType = "housing"
	ResourceClothing      ResourceType = "clothing"
	ResourceHealthcare    ResourceType = "healthcare"
	ResourceEducation     ResourceType = "education"
	ResourceEntertainment ResourceType = "entertainment"
	ResourceLuxuryGoods   ResourceType = "luxury_goods"
)

// ResourceTypes lists every resource a consumption profile is seeded for.
var ResourceTypes = []ResourceType{
	ResourceFood, ResourceWater, ResourceEnergy, ResourceHousing,
	ResourceClothing, ResourceHealthcare, ResourceEducation,
	ResourceEntertainment, ResourceLuxuryGoods,
}

// HouseholdTier is one income band of a civilization's population.
// Rows are created at campaign initialization and mutated only by
// mobility transitions; counts move between tiers, totals are conserved.
type HouseholdTier struct {
	bun.BaseModel `bun:"table:household_tiers,alias:ht"`

	ID                   int64     `bun:"id,pk,autoincrement"`
	CivilizationID       string    `bun:"civilization_id,notnull"`
	TierName             TierName  `bun:"tier_name,notnull"`
	HouseholdCount       int64     `bun:"household_count,notnull"`
	PopulationPercentage float64   `bun:"population_percentage,notnull,type:numeric(6,2)"`
	AverageIncome        float64   `bun:"average_income,notnull,type:numeric(18,2)"`
	ConsumptionPower     float64   `bun:"consumption_power,notnull,type:numeric(18,2)"`
	LuxuryDemandMult     float64   `bun:"luxury_demand_multiplier,notnull,type:numeric(8,3)"`
	BasicGoodsDemandMult float64   `bun:"basic_goods_demand_multiplier,notnull,type:numeric(8,3)"`
	SavingsRate          float64   `bun:"savings_rate,notnull,type:numeric(6,4)"`
	SocialMobilityRate   float64   `bun:"social_mobility_rate,notnull,type:numeric(8,6)"`
	CreatedAt            time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt            time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// ConsumptionProfile holds the per (tier, resource) demand curve parameters.
// Seeded once at initialization; changed only by explicit configuration updates.
type ConsumptionProfile struct {
	bun.BaseModel `bun:"table:consumption_profiles,alias:cp"`

	ID              int64        `bun:"id,pk,autoincrement"`
	CivilizationID  string       `bun:"civilization_id,notnull"`
	TierName        TierName     `bun:"tier_name,notnull"`
	ResourceType    ResourceType `bun:"resource_type,notnull"`
	BaseDemand      float64      `bun:"base_demand,notnull,type:numeric(14,2)"`
	PriceElasticity float64      `bun:"price_elasticity,notnull,type:numeric(6,3)"`
	LuxuryFactor    float64      `bun:"luxury_factor,notnull,type:numeric(4,2)"`
	NecessityFactor float64      `bun:"necessity_factor,notnull,type:numeric(4,2)"`
}

// MobilityEventType classifies what triggered a social mobility opportunity.
type MobilityEventType string

const (
	MobilityEducationInvestment MobilityEventType = "education_investment"
	MobilityBusinessStart       MobilityEventType = "business_start"
	MobilityBusinessSuccess     MobilityEventType = "business_success"
	MobilityBusinessFailure     MobilityEventType = "business_failure"
	MobilityInheritance         MobilityEventType = "inheritance"
	MobilityMarriage            MobilityEventType = "marriage"
	MobilityPolicyImpact        MobilityEventType = "economic_policy_impact"
	MobilityCulturalShift       MobilityEventType = "cultural_shift"
	MobilityNaturalProgression  MobilityEventType = "natural_progression"
)

// MobilityOutcome is the lifecycle state of a mobility event.
// Events transition from pending to exactly one terminal outcome.
type MobilityOutcome string

const (
	OutcomePending MobilityOutcome = "pending"
	OutcomeSuccess MobilityOutcome = "success"
	OutcomeFailure MobilityOutcome = "failure"
)

// ResourceCost maps a resource name to the amount required.
type ResourceCost map[string]float64

// SocialMobilityEvent records one household's attempt to move between tiers.
type SocialMobilityEvent struct {
	bun.BaseModel `bun:"table:social_mobility_events,alias:sme"`

	ID                 string            `bun:"id,pk"`
	CivilizationID     string            `bun:"civilization_id,notnull"`
	CampaignStep       int64             `bun:"campaign_step,notnull"`
	HouseholdID        string            `bun:"household_id,notnull"`
	EventType          MobilityEventType `bun:"event_type,notnull"`
	FromTier           TierName          `bun:"from_tier,notnull"`
	ToTier             TierName          `bun:"to_tier,notnull"`
	TriggerReason      string            `bun:"trigger_reason"`
	SuccessProbability float64           `bun:"success_probability,notnull,type:numeric(5,4)"`
	ResourceCost       ResourceCost      `bun:"resource_cost,type:jsonb"`
	Outcome            MobilityOutcome   `bun:"outcome,notnull,default:'pending'"`
	CreatedAt          time.Time         `bun:"created_at,notnull,default:current_timestamp"`
	ResolvedAt         *time.Time        `bun:"resolved_at"`
}
