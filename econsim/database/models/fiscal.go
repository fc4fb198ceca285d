package models

import (
	"time"

	"github.com/uptrace/bun"
)

// PolicyType distinguishes the broad classes of fiscal policy actions.
type PolicyType string

const (
	PolicySpending PolicyType = "spending"
	PolicyTaxation PolicyType = "taxation"
	PolicyTransfer PolicyType = "transfer"
)

// PolicyCategory identifies a spending category with its own multiplier record.
type PolicyCategory string

const (
	CategoryInfrastructureTransport PolicyCategory = "infrastructure_transport"
	CategoryInfrastructureUtilities PolicyCategory = "infrastructure_utilities"
	CategoryInfrastructureDigital   PolicyCategory = "infrastructure_digital"
	CategoryDefensePersonnel        PolicyCategory = "defense_personnel"
	CategoryDefenseEquipment        PolicyCategory = "defense_equipment"
	CategoryResearchBasic           PolicyCategory = "research_basic"
	CategoryResearchApplied         PolicyCategory = "research_applied"
	CategoryEducationSystem         PolicyCategory = "education_system"
	CategoryHealthcareSystem        PolicyCategory = "healthcare_system"
	CategorySocialSupport           PolicyCategory = "social_support"
)

// FiscalPolicyEffect is the historical ledger of one policy action's effect.
// currentEffectSize and implementationProgress only ever move toward
// baseEffectSize and 1.0; rows are never deleted. appliedAt is stamped
// exactly once when the initial effect size enters the simulation state.
type FiscalPolicyEffect struct {
	bun.BaseModel `bun:"table:fiscal_policy_effects,alias:fpe"`

	ID                     string         `bun:"id,pk"`
	CivilizationID         string         `bun:"civilization_id,notnull"`
	PolicyType             PolicyType     `bun:"policy_type,notnull"`
	PolicyCategory         PolicyCategory `bun:"policy_category,notnull"`
	PolicyAmount           float64        `bun:"policy_amount,notnull,type:numeric(18,2)"`
	EffectType             string         `bun:"effect_type,notnull"`
	BaseEffectSize         float64        `bun:"base_effect_size,notnull,type:numeric(12,6)"`
	CurrentEffectSize      float64        `bun:"current_effect_size,notnull,type:numeric(12,6)"`
	ImplementationProgress float64        `bun:"implementation_progress,notnull,type:numeric(7,6)"`
	TimeToFullEffect       int            `bun:"time_to_full_effect,notnull"`
	AppliedAt              *time.Time     `bun:"applied_at"`
	ExpiresAt              *time.Time     `bun:"expires_at"`
	CreatedAt              time.Time      `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt              time.Time      `bun:"updated_at,notnull,default:current_timestamp"`
}

// Expired reports whether the effect has passed its expiry, if it has one.
func (e *FiscalPolicyEffect) Expired(now time.Time) bool {
	return e.ExpiresAt != nil && now.After(*e.ExpiresAt)
}

// ModifierType groups simulation state modifiers by game system.
type ModifierType string

const (
	ModifierInfrastructure ModifierType = "infrastructure"
	ModifierMilitary       ModifierType = "military"
	ModifierResearch       ModifierType = "research"
	ModifierSocial         ModifierType = "social"
)

// SimulationStateModifier is the durable ledger entry for one modifier key.
// fiscalModifier accumulates contributions and is never reset outside
// explicit decay; totalValue is always base + fiscal + other.
type SimulationStateModifier struct {
	bun.BaseModel `bun:"table:simulation_state_modifiers,alias:ssm"`

	ID               int64        `bun:"id,pk,autoincrement"`
	CivilizationID   string       `bun:"civilization_id,notnull"`
	ModifierType     ModifierType `bun:"modifier_type,notnull"`
	ModifierCategory string       `bun:"modifier_category,notnull"`
	BaseValue        float64      `bun:"base_value,notnull,type:numeric(12,6)"`
	FiscalModifier   float64      `bun:"fiscal_modifier,notnull,type:numeric(12,6)"`
	OtherModifiers   float64      `bun:"other_modifiers,notnull,type:numeric(12,6)"`
	TotalValue       float64      `bun:"total_value,notnull,type:numeric(12,6)"`
	UpdatedAt        time.Time    `bun:"updated_at,notnull,default:current_timestamp"`
}

// TaxType identifies a tax whose rate changes produce behavioral effects.
type TaxType string

const (
	TaxIncome       TaxType = "income"
	TaxCorporate    TaxType = "corporate"
	TaxSales        TaxType = "sales"
	TaxProperty     TaxType = "property"
	TaxCapitalGains TaxType = "capital_gains"
)

// EconomicBehavioralEffect is one row of the append-only tax behavior log.
type EconomicBehavioralEffect struct {
	bun.BaseModel `bun:"table:economic_behavioral_effects,alias:ebe"`

	ID                  int64     `bun:"id,pk,autoincrement"`
	CivilizationID      string    `bun:"civilization_id,notnull"`
	TaxType             TaxType   `bun:"tax_type,notnull"`
	TaxRate             float64   `bun:"tax_rate,notnull,type:numeric(6,4)"`
	BehavioralEffect    string    `bun:"behavioral_effect,notnull"`
	EffectMagnitude     float64   `bun:"effect_magnitude,notnull,type:numeric(10,6)"`
	LafferCurvePosition float64   `bun:"laffer_curve_position,notnull,type:numeric(6,4)"`
	DeadweightLoss      float64   `bun:"deadweight_loss,notnull,type:numeric(10,6)"`
	CreatedAt           time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
