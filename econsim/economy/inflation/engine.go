package inflation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aspired-future/startales-econsim/econsim/database/models"
	"github.com/aspired-future/startales-econsim/econsim/database/repositories"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
)

const (
	// priceHistoryDepth bounds how many raw price rows a metrics pass reads.
	priceHistoryDepth = 100
	// trendHistoryDepth bounds how many snapshots feed the trend estimate.
	trendHistoryDepth = 24
	// yearAgoWindow is how close a historical row must be to exactly one
	// year back to serve as the year-over-year reference.
	yearAgoWindow = 30 * 24 * time.Hour

	metricsCacheSize = 64
)

// Engine computes composite price indices from raw price series and
// produces forecasts with scenario bands.
type Engine struct {
	repo  repositories.InflationRepository
	cache *lru.Cache
}

func NewEngine(repo repositories.InflationRepository) (*Engine, error) {
	cache, err := lru.New(metricsCacheSize)
	if err != nil {
		return nil, err
	}
	return &Engine{repo: repo, cache: cache}, nil
}

// CalculateMetrics reads the latest and recent historical price rows plus
// the monetary stance and persists one immutable snapshot. Every
// sub-index is a year-over-year percentage change; missing year-ago data
// yields 0, never an error.
func (e *Engine) CalculateMetrics(ctx context.Context, civilizationID string) (*models.InflationMetrics, error) {
	history, err := e.repo.PriceHistory(ctx, civilizationID, priceHistoryDepth)
	if err != nil {
		return nil, err
	}

	var current *models.ResourcePrice
	if len(history) > 0 {
		current = history[0]
	} else {
		current = &models.ResourcePrice{}
	}

	policy, err := e.repo.LatestMonetaryPolicy(ctx, civilizationID)
	if err != nil {
		if !repositories.IsNotFound(err) {
			return nil, err
		}
		policy = &models.MonetaryPolicy{}
	}

	metrics := &models.InflationMetrics{
		ID:             fmt.Sprintf("inflation_%s_%d", civilizationID, time.Now().UnixMilli()),
		CivilizationID: civilizationID,
		Timestamp:      time.Now(),
		CPI: models.CPIComponents{
			Overall:        yoyChange(current.ConsumerBasket, history, func(r *models.ResourcePrice) float64 { return r.ConsumerBasket }),
			Core:           yoyChange(current.CoreBasket, history, func(r *models.ResourcePrice) float64 { return r.CoreBasket }),
			Food:           yoyChange(current.FoodPrices, history, func(r *models.ResourcePrice) float64 { return r.FoodPrices }),
			Energy:         yoyChange(current.EnergyPrices, history, func(r *models.ResourcePrice) float64 { return r.EnergyPrices }),
			Housing:        yoyChange(current.HousingCosts, history, func(r *models.ResourcePrice) float64 { return r.HousingCosts }),
			Transportation: yoyChange(current.TransportCosts, history, func(r *models.ResourcePrice) float64 { return r.TransportCosts }),
			Healthcare:     yoyChange(current.HealthcareCosts, history, func(r *models.ResourcePrice) float64 { return r.HealthcareCosts }),
			Education:      yoyChange(current.EducationCosts, history, func(r *models.ResourcePrice) float64 { return r.EducationCosts }),
		},
		PPI: models.PPIComponents{
			Overall:           yoyChange(current.ProducerPrices, history, func(r *models.ResourcePrice) float64 { return r.ProducerPrices }),
			RawMaterials:      yoyChange(current.RawMaterials, history, func(r *models.ResourcePrice) float64 { return r.RawMaterials }),
			IntermediateGoods: yoyChange(current.IntermediateGoods, history, func(r *models.ResourcePrice) float64 { return r.IntermediateGoods }),
			FinishedGoods:     yoyChange(current.FinishedGoods, history, func(r *models.ResourcePrice) float64 { return r.FinishedGoods }),
			Services:          yoyChange(current.ServiceCosts, history, func(r *models.ResourcePrice) float64 { return r.ServiceCosts }),
		},
		Expectations: estimateExpectations(),
		Transmission: estimateTransmission(policy),
		Sectors: models.SectoralInflation{
			Agriculture:    yoyChange(current.AgriculturePrices, history, func(r *models.ResourcePrice) float64 { return r.AgriculturePrices }),
			Manufacturing:  yoyChange(current.ManufacturingPrices, history, func(r *models.ResourcePrice) float64 { return r.ManufacturingPrices }),
			Services:       yoyChange(current.ServicePrices, history, func(r *models.ResourcePrice) float64 { return r.ServicePrices }),
			Technology:     yoyChange(current.TechPrices, history, func(r *models.ResourcePrice) float64 { return r.TechPrices }),
			Defense:        yoyChange(current.DefenseCosts, history, func(r *models.ResourcePrice) float64 { return r.DefenseCosts }),
			Healthcare:     yoyChange(current.HealthcareCosts, history, func(r *models.ResourcePrice) float64 { return r.HealthcareCosts }),
			Education:      yoyChange(current.EducationCosts, history, func(r *models.ResourcePrice) float64 { return r.EducationCosts }),
			Infrastructure: yoyChange(current.InfrastructureCosts, history, func(r *models.ResourcePrice) float64 { return r.InfrastructureCosts }),
		},
		Drivers: estimateDrivers(),
	}

	if err := e.repo.InsertMetrics(ctx, metrics); err != nil {
		return nil, err
	}
	e.cache.Add(civilizationID, metrics)

	slog.Info("Inflation metrics calculated",
		slog.String("engine", "inflation"),
		slog.String("civilization_id", civilizationID),
		slog.Float64("cpi_overall", metrics.CPI.Overall),
		slog.Float64("ppi_overall", metrics.PPI.Overall),
	)
	return metrics, nil
}

// yoyChange finds the historical row closest to one year ago (within the
// matching window) and reports the percentage change against it. Missing
// data reports 0.
func yoyChange(currentValue float64, history []*models.ResourcePrice, get func(*models.ResourcePrice) float64) float64 {
	if currentValue == 0 || len(history) == 0 {
		return 0
	}

	yearAgo := time.Now().AddDate(-1, 0, 0)
	for _, row := range history {
		diff := row.Timestamp.Sub(yearAgo)
		if diff < 0 {
			diff = -diff
		}
		if diff < yearAgoWindow {
			ref := get(row)
			if ref == 0 {
				return 0
			}
			return (currentValue - ref) / ref * 100
		}
	}
	return 0
}

// estimateExpectations returns fixed anchored expectations; a richer
// survey-driven model feeds in here later.
func estimateExpectations() models.InflationExpectations {
	return models.InflationExpectations{
		ShortTerm:  2.5,
		MediumTerm: 2.0,
		LongTerm:   2.0,
		Breakeven:  2.2,
	}
}

// estimateTransmission produces the fixed-formula transmission estimate.
func estimateTransmission(policy *models.MonetaryPolicy) models.MonetaryTransmission {
	t := models.MonetaryTransmission{
		InterestRatePass:  0.75,
		CreditGrowth:      5.2,
		MoneySupplyGrowth: 7.1,
		VelocityOfMoney:   1.8,
	}
	// A tightening stance passes through slightly better than easing.
	if policy.PolicyStance == "tightening" {
		t.InterestRatePass = 0.85
	}
	return t
}

// estimateDrivers decomposes inflation into additive percentage-point
// contributions.
func estimateDrivers() models.InflationDrivers {
	return models.InflationDrivers{
		DemandPull:        1.2,
		CostPush:          0.8,
		MonetaryExpansion: 0.5,
		ExchangeRate:      -0.2,
		Expectations:      0.3,
		SupplyShocks:      0.1,
	}
}

// LatestMetrics serves the most recent snapshot, preferring the
// in-process cache.
func (e *Engine) LatestMetrics(ctx context.Context, civilizationID string) (*models.InflationMetrics, error) {
	if cached, ok := e.cache.Get(civilizationID); ok {
		return cached.(*models.InflationMetrics), nil
	}
	metrics, err := e.repo.LatestMetrics(ctx, civilizationID)
	if err != nil {
		return nil, err
	}
	e.cache.Add(civilizationID, metrics)
	return metrics, nil
}

// GenerateForecast extrapolates the latest metrics along the recent trend
// and persists the run. With no metrics yet, the forecast starts from the
// long-term anchor.
func (e *Engine) GenerateForecast(ctx context.Context, civilizationID string) (*models.InflationForecast, error) {
	baseInflation := longTermAnchor
	if metrics, err := e.LatestMetrics(ctx, civilizationID); err == nil {
		baseInflation = metrics.CPI.Overall
	} else if !repositories.IsNotFound(err) {
		return nil, err
	}

	trend, err := e.recentTrend(ctx, civilizationID)
	if err != nil {
		return nil, err
	}

	forecast := &models.InflationForecast{
		ID:             fmt.Sprintf("forecast_%s_%d", civilizationID, time.Now().UnixMilli()),
		CivilizationID: civilizationID,
		ForecastDate:   time.Now(),
		Forecasts:      forecastPoints(baseInflation, trend),
		Confidence:     forecastConfidence(),
		Scenarios:      forecastScenarios(baseInflation),
		Risks:          forecastRisks(),
	}

	if err := e.repo.InsertForecast(ctx, forecast); err != nil {
		return nil, err
	}

	slog.Info("Inflation forecast generated",
		slog.String("engine", "inflation"),
		slog.String("civilization_id", civilizationID),
		slog.Float64("base", baseInflation),
		slog.Float64("trend", trend),
	)
	return forecast, nil
}

// LatestForecast returns the most recent stored forecast run.
func (e *Engine) LatestForecast(ctx context.Context, civilizationID string) (*models.InflationForecast, error) {
	return e.repo.LatestForecast(ctx, civilizationID)
}

// recentTrend is the overall CPI change between the two newest snapshots.
func (e *Engine) recentTrend(ctx context.Context, civilizationID string) (float64, error) {
	history, err := e.repo.MetricsHistory(ctx, civilizationID, trendHistoryDepth)
	if err != nil {
		return 0, err
	}
	if len(history) < 2 {
		return 0, nil
	}
	return history[0].CPI.Overall - history[1].CPI.Overall, nil
}

// CreatePriceBasket validates weights before any write. Weights must sum
// to 100 within tolerance.
func (e *Engine) CreatePriceBasket(ctx context.Context, name, description string, items []models.BasketItem) (*models.PriceBasket, error) {
	totalWeight, err := validateBasketWeights(items)
	if err != nil {
		return nil, err
	}

	basket := &models.PriceBasket{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Items:       items,
		TotalWeight: totalWeight,
		UpdatedAt:   time.Now(),
	}
	recomputeBasket(basket)

	if err := e.repo.CreateBasket(ctx, basket); err != nil {
		return nil, err
	}
	return basket, nil
}

// PriceBasket returns one basket by ID.
func (e *Engine) PriceBasket(ctx context.Context, basketID string) (*models.PriceBasket, error) {
	return e.repo.GetBasket(ctx, basketID)
}

// UpdatePriceBasket applies new prices to matching items and recomputes
// the index. The merge runs against the stored row under its lock, so a
// concurrent update to other items is not lost.
func (e *Engine) UpdatePriceBasket(ctx context.Context, basketID string, newPrices map[string]float64) (*models.PriceBasket, error) {
	return e.repo.MutateBasket(ctx, basketID, func(basket *models.PriceBasket) error {
		for i := range basket.Items {
			if price, ok := newPrices[basket.Items[i].Item]; ok {
				basket.Items[i].CurrentPrice = price
			}
		}
		recomputeBasket(basket)
		return nil
	})
}

// PolicyChange describes a monetary policy move to project.
type PolicyChange struct {
	InterestRateChange float64
}

// PolicyImpact is the projected inflation response over time.
type PolicyImpact struct {
	CurrentInflation     float64
	Immediate            float64
	ShortTerm            float64
	MediumTerm           float64
	LongTerm             float64
	Confidence           float64
	TransmissionChannels []string
	Timeline             map[string]string
}

// policyTransmission holds the fixed per-horizon coefficients applied to
// an interest rate change. Tightening lowers projected inflation, with
// the effect deepening over time.
var policyTransmission = struct {
	Immediate, ShortTerm, MediumTerm, LongTerm float64
}{-0.1, -0.3, -0.5, -0.7}

// AnalyzePolicyImpact projects how a monetary policy change moves
// inflation per horizon. Confidence rises with the volume of historical
// policy data.
func (e *Engine) AnalyzePolicyImpact(ctx context.Context, civilizationID string, change PolicyChange) (*PolicyImpact, error) {
	currentInflation := 0.0
	if metrics, err := e.LatestMetrics(ctx, civilizationID); err == nil {
		currentInflation = metrics.CPI.Overall
	} else if !repositories.IsNotFound(err) {
		return nil, err
	}

	historyCount, err := e.repo.MonetaryPolicyCount(ctx, civilizationID)
	if err != nil {
		return nil, err
	}
	confidence := 60.0
	if historyCount > 10 {
		confidence = 80.0
	}

	return &PolicyImpact{
		CurrentInflation: currentInflation,
		Immediate:        change.InterestRateChange * policyTransmission.Immediate,
		ShortTerm:        change.InterestRateChange * policyTransmission.ShortTerm,
		MediumTerm:       change.InterestRateChange * policyTransmission.MediumTerm,
		LongTerm:         change.InterestRateChange * policyTransmission.LongTerm,
		Confidence:       confidence,
		TransmissionChannels: []string{
			"Interest rate channel",
			"Credit channel",
			"Exchange rate channel",
			"Asset price channel",
			"Expectations channel",
		},
		Timeline: map[string]string{
			"immediate":   "0-1 months",
			"short_term":  "1-6 months",
			"medium_term": "6-18 months",
			"long_term":   "18+ months",
		},
	}, nil
}

// RecordPriceObservation ingests one raw price feed row.
func (e *Engine) RecordPriceObservation(ctx context.Context, row *models.ResourcePrice) error {
	return e.repo.InsertPriceRow(ctx, row)
}
