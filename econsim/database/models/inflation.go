package models

import (
	"time"

	"github.com/uptrace/bun"
)

// CPIComponents are consumer price sub-indices, each a year-over-year
// percentage change.
type CPIComponents struct {
	Overall        float64 `json:"overall"`
	Core           float64 `json:"core"`
	Food           float64 `json:"food"`
	Energy         float64 `json:"energy"`
	Housing        float64 `json:"housing"`
	Transportation float64 `json:"transportation"`
	Healthcare     float64 `json:"healthcare"`
	Education      float64 `json:"education"`
}

// PPIComponents are producer price sub-indices.
type PPIComponents struct {
	Overall           float64 `json:"overall"`
	RawMaterials      float64 `json:"raw_materials"`
	IntermediateGoods float64 `json:"intermediate_goods"`
	FinishedGoods     float64 `json:"finished_goods"`
	Services          float64 `json:"services"`
}

// InflationExpectations capture expected inflation over standard horizons.
type InflationExpectations struct {
	ShortTerm  float64 `json:"short_term"`
	MediumTerm float64 `json:"medium_term"`
	LongTerm   float64 `json:"long_term"`
	Breakeven  float64 `json:"breakeven"`
}

// MonetaryTransmission estimates how monetary policy moves market conditions.
type MonetaryTransmission struct {
	InterestRatePass  float64 `json:"interest_rate_pass"`
	CreditGrowth      float64 `json:"credit_growth"`
	MoneySupplyGrowth float64 `json:"money_supply_growth"`
	VelocityOfMoney   float64 `json:"velocity_of_money"`
}

// SectoralInflation breaks price change out per economic sector.
type SectoralInflation struct {
	Agriculture    float64 `json:"agriculture"`
	Manufacturing  float64 `json:"manufacturing"`
	Services       float64 `json:"services"`
	Technology     float64 `json:"technology"`
	Defense        float64 `json:"defense"`
	Healthcare     float64 `json:"healthcare"`
	Education      float64 `json:"education"`
	Infrastructure float64 `json:"infrastructure"`
}

// InflationDrivers decompose inflation into additive percentage-point
// contributions per driver.
type InflationDrivers struct {
	DemandPull        float64 `json:"demand_pull"`
	CostPush          float64 `json:"cost_push"`
	MonetaryExpansion float64 `json:"monetary_expansion"`
	ExchangeRate      float64 `json:"exchange_rate"`
	Expectations      float64 `json:"expectations"`
	SupplyShocks      float64 `json:"supply_shocks"`
}

// InflationMetrics is one immutable snapshot of a civilization's price level.
type InflationMetrics struct {
	bun.BaseModel `bun:"table:inflation_metrics,alias:im"`

	ID             string                `bun:"id,pk"`
	CivilizationID string                `bun:"civilization_id,notnull"`
	Timestamp      time.Time             `bun:"timestamp,notnull"`
	CPI            CPIComponents         `bun:"cpi_data,type:jsonb"`
	PPI            PPIComponents         `bun:"ppi_data,type:jsonb"`
	Expectations   InflationExpectations `bun:"expectations_data,type:jsonb"`
	Transmission   MonetaryTransmission  `bun:"transmission_data,type:jsonb"`
	Sectors        SectoralInflation     `bun:"sectors_data,type:jsonb"`
	Drivers        InflationDrivers      `bun:"drivers_data,type:jsonb"`
}

// ForecastPoints are point inflation forecasts per horizon.
type ForecastPoints struct {
	OneMonth   float64 `json:"one_month"`
	ThreeMonth float64 `json:"three_month"`
	SixMonth   float64 `json:"six_month"`
	OneYear    float64 `json:"one_year"`
	TwoYear    float64 `json:"two_year"`
	FiveYear   float64 `json:"five_year"`
}

// ForecastConfidence is the 0-100 confidence per horizon.
type ForecastConfidence struct {
	OneMonth   float64 `json:"one_month"`
	ThreeMonth float64 `json:"three_month"`
	SixMonth   float64 `json:"six_month"`
	OneYear    float64 `json:"one_year"`
	TwoYear    float64 `json:"two_year"`
	FiveYear   float64 `json:"five_year"`
}

// ForecastScenarios bracket the baseline forecast.
type ForecastScenarios struct {
	Baseline    float64 `json:"baseline"`
	Optimistic  float64 `json:"optimistic"`
	Pessimistic float64 `json:"pessimistic"`
}

// ForecastRisks list factors that could push inflation either way.
type ForecastRisks struct {
	Upside   []string `json:"upside"`
	Downside []string `json:"downside"`
}

// InflationForecast is one stored forecast run.
type InflationForecast struct {
	bun.BaseModel `bun:"table:inflation_forecasts,alias:if"`

	ID             string             `bun:"id,pk"`
	CivilizationID string             `bun:"civilization_id,notnull"`
	ForecastDate   time.Time          `bun:"forecast_date,notnull"`
	Forecasts      ForecastPoints     `bun:"forecasts_data,type:jsonb"`
	Confidence     ForecastConfidence `bun:"confidence_data,type:jsonb"`
	Scenarios      ForecastScenarios  `bun:"scenarios_data,type:jsonb"`
	Risks          ForecastRisks      `bun:"risks_data,type:jsonb"`
}

// BasketItem is one weighted, priced entry in a price basket.
type BasketItem struct {
	Category     string  `json:"category"`
	Item         string  `json:"item"`
	Weight       float64 `json:"weight"`
	BasePrice    float64 `json:"base_price"`
	CurrentPrice float64 `json:"current_price"`
	PriceChange  float64 `json:"price_change"`
}

// PriceBasket is a weighted set of priced items tracked as an index.
type PriceBasket struct {
	bun.BaseModel `bun:"table:price_baskets,alias:pb"`

	ID          string       `bun:"id,pk"`
	Name        string       `bun:"name,notnull"`
	Description string       `bun:"description"`
	Items       []BasketItem `bun:"items_data,type:jsonb"`
	TotalWeight float64      `bun:"total_weight,notnull,type:numeric(8,3)"`
	BasketValue float64      `bun:"basket_value,notnull,type:numeric(18,4)"`
	BaseValue   float64      `bun:"base_value,notnull,type:numeric(18,4)"`
	IndexValue  float64      `bun:"index_value,notnull,type:numeric(12,4)"`
	UpdatedAt   time.Time    `bun:"updated_at,notnull,default:current_timestamp"`
}
