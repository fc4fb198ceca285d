package inflation

import (
	"math"

	"github.com/aspired-future/startales-econsim/econsim/database/models"
)

// longTermAnchor is the inflation level the five-year forecast settles on.
const longTermAnchor = 2.0

// trendFractions scale the recent trend into each horizon. The five-year
// point ignores trend entirely and reverts to the anchor.
var trendFractions = struct {
	OneMonth, ThreeMonth, SixMonth, OneYear, TwoYear float64
}{0.1, 0.25, 0.5, 1.0, 1.5}

// forecastPoints extrapolates the latest overall CPI along a linear trend,
// floored at zero per horizon.
func forecastPoints(baseInflation, trend float64) models.ForecastPoints {
	return models.ForecastPoints{
		OneMonth:   math.Max(0, baseInflation+trend*trendFractions.OneMonth),
		ThreeMonth: math.Max(0, baseInflation+trend*trendFractions.ThreeMonth),
		SixMonth:   math.Max(0, baseInflation+trend*trendFractions.SixMonth),
		OneYear:    math.Max(0, baseInflation+trend*trendFractions.OneYear),
		TwoYear:    math.Max(0, baseInflation+trend*trendFractions.TwoYear),
		FiveYear:   math.Max(0, longTermAnchor),
	}
}

// forecastConfidence decays with horizon, 90 down to 40.
func forecastConfidence() models.ForecastConfidence {
	return models.ForecastConfidence{
		OneMonth:   90,
		ThreeMonth: 80,
		SixMonth:   70,
		OneYear:    60,
		TwoYear:    50,
		FiveYear:   40,
	}
}

// forecastScenarios brackets the baseline one point down, two points up.
func forecastScenarios(baseline float64) models.ForecastScenarios {
	return models.ForecastScenarios{
		Baseline:    baseline,
		Optimistic:  math.Max(0, baseline-1.0),
		Pessimistic: baseline + 2.0,
	}
}

func forecastRisks() models.ForecastRisks {
	return models.ForecastRisks{
		Upside: []string{
			"Supply chain disruptions",
			"Energy price shocks",
			"Wage-price spiral",
			"Excessive monetary expansion",
			"Currency depreciation",
		},
		Downside: []string{
			"Technological deflation",
			"Demand weakness",
			"Increased competition",
			"Productivity gains",
			"Currency appreciation",
		},
	}
}
