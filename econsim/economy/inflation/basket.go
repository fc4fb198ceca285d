package inflation

import (
	"fmt"

	"github.com/aspired-future/startales-econsim/econsim/database/models"
	"github.com/aspired-future/startales-econsim/econsim/database/repositories"
)

// BasketWeightTolerance bounds the accepted deviation of item weights
// from 100.
const BasketWeightTolerance = 0.01

// validateBasketWeights checks that the weights sum to 100 within
// tolerance. This runs before any write.
func validateBasketWeights(items []models.BasketItem) (float64, error) {
	var total float64
	for _, item := range items {
		total += item.Weight
	}
	if diff := total - 100; diff > BasketWeightTolerance || diff < -BasketWeightTolerance {
		return 0, &repositories.ValidationError{
			Entity: "price_basket",
			Reason: fmt.Sprintf("item weights must sum to 100, got %g", total),
		}
	}
	return total, nil
}

// recomputeBasket refreshes per-item price changes and the weighted
// basket values. Index is the current basket relative to base, times 100.
func recomputeBasket(basket *models.PriceBasket) {
	var basketValue, baseValue float64
	for i := range basket.Items {
		item := &basket.Items[i]
		if item.BasePrice != 0 {
			item.PriceChange = (item.CurrentPrice - item.BasePrice) / item.BasePrice * 100
		}
		basketValue += item.CurrentPrice * item.Weight / 100
		baseValue += item.BasePrice * item.Weight / 100
	}
	basket.BasketValue = basketValue
	basket.BaseValue = baseValue
	if baseValue != 0 {
		basket.IndexValue = basketValue / baseValue * 100
	}
}
