package models

import (
	"time"

	"github.com/uptrace/bun"
)

// ResourcePrice is one observed row of the raw price series the inflation
// engine ingests. Columns mirror the external price feed 1:1; zero means
// the feed had no observation for that series.
type ResourcePrice struct {
	bun.BaseModel `bun:"table:resource_prices,alias:rp"`

	ID             int64     `bun:"id,pk,autoincrement"`
	CivilizationID string    `bun:"civilization_id,notnull"`
	Timestamp      time.Time `bun:"timestamp,notnull"`

	ConsumerBasket  float64 `bun:"consumer_basket,type:numeric(14,4)"`
	CoreBasket      float64 `bun:"core_basket,type:numeric(14,4)"`
	FoodPrices      float64 `bun:"food_prices,type:numeric(14,4)"`
	EnergyPrices    float64 `bun:"energy_prices,type:numeric(14,4)"`
	HousingCosts    float64 `bun:"housing_costs,type:numeric(14,4)"`
	TransportCosts  float64 `bun:"transport_costs,type:numeric(14,4)"`
	HealthcareCosts float64 `bun:"healthcare_costs,type:numeric(14,4)"`
	EducationCosts  float64 `bun:"education_costs,type:numeric(14,4)"`

	ProducerPrices    float64 `bun:"producer_prices,type:numeric(14,4)"`
	RawMaterials      float64 `bun:"raw_materials,type:numeric(14,4)"`
	IntermediateGoods float64 `bun:"intermediate_goods,type:numeric(14,4)"`
	FinishedGoods     float64 `bun:"finished_goods,type:numeric(14,4)"`
	ServiceCosts      float64 `bun:"service_costs,type:numeric(14,4)"`

	AgriculturePrices   float64 `bun:"agriculture_prices,type:numeric(14,4)"`
	ManufacturingPrices float64 `bun:"manufacturing_prices,type:numeric(14,4)"`
	ServicePrices       float64 `bun:"service_prices,type:numeric(14,4)"`
	TechPrices          float64 `bun:"tech_prices,type:numeric(14,4)"`
	DefenseCosts        float64 `bun:"defense_costs,type:numeric(14,4)"`
	InfrastructureCosts float64 `bun:"infrastructure_costs,type:numeric(14,4)"`
}

// MonetaryPolicy is the latest monetary stance row consumed by the
// inflation engine.
type MonetaryPolicy struct {
	bun.BaseModel `bun:"table:monetary_policy,alias:mp"`

	ID             int64     `bun:"id,pk,autoincrement"`
	CivilizationID string    `bun:"civilization_id,notnull"`
	Timestamp      time.Time `bun:"timestamp,notnull"`
	InterestRate   float64   `bun:"interest_rate,notnull,type:numeric(6,4)"`
	MoneySupply    float64   `bun:"money_supply,notnull,type:numeric(18,2)"`
	PolicyStance   string    `bun:"policy_stance,notnull"`
}
