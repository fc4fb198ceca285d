package repositories

import (
	"context"
	"time"

	"github.com/aspired-future/startales-econsim/econsim/database/models"
	"github.com/uptrace/bun"
)

type InflationRepository interface {
	InsertMetrics(ctx context.Context, metrics *models.InflationMetrics) error
	LatestMetrics(ctx context.Context, civilizationID string) (*models.InflationMetrics, error)
	MetricsHistory(ctx context.Context, civilizationID string, limit int) ([]*models.InflationMetrics, error)
	InsertForecast(ctx context.Context, forecast *models.InflationForecast) error
	LatestForecast(ctx context.Context, civilizationID string) (*models.InflationForecast, error)
	InsertPriceRow(ctx context.Context, row *models.ResourcePrice) error
	PriceHistory(ctx context.Context, civilizationID string, limit int) ([]*models.ResourcePrice, error)
	LatestMonetaryPolicy(ctx context.Context, civilizationID string) (*models.MonetaryPolicy, error)
	MonetaryPolicyCount(ctx context.Context, civilizationID string) (int, error)
	CreateBasket(ctx context.Context, basket *models.PriceBasket) error
	GetBasket(ctx context.Context, id string) (*models.PriceBasket, error)
	MutateBasket(ctx context.Context, id string, fn func(*models.PriceBasket) error) (*models.PriceBasket, error)
}

type inflationRepository struct {
	*BaseRepository
}

func NewInflationRepository(db *bun.DB) InflationRepository {
	return &inflationRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (r *inflationRepository) InsertMetrics(ctx context.Context, metrics *models.InflationMetrics) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	_, err := r.db.NewInsert().
		Model(metrics).
		Exec(ctx)
	return r.HandleErrorWithID("insert_metrics", "inflation_metrics", metrics.ID, err)
}

func (r *inflationRepository) LatestMetrics(ctx context.Context, civilizationID string) (*models.InflationMetrics, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	metrics := new(models.InflationMetrics)
	err := r.db.NewSelect().
		Model(metrics).
		Where("civilization_id = ?", civilizationID).
		Order("timestamp DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("latest_metrics", "inflation_metrics", civilizationID, err)
	}
	return metrics, nil
}

func (r *inflationRepository) MetricsHistory(ctx context.Context, civilizationID string, limit int) ([]*models.InflationMetrics, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var history []*models.InflationMetrics
	err := r.db.NewSelect().
		Model(&history).
		Where("civilization_id = ?", civilizationID).
		Order("timestamp DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("metrics_history", "inflation_metrics", civilizationID, err)
	}
	return history, nil
}

func (r *inflationRepository) InsertForecast(ctx context.Context, forecast *models.InflationForecast) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	_, err := r.db.NewInsert().
		Model(forecast).
		Exec(ctx)
	return r.HandleErrorWithID("insert_forecast", "inflation_forecast", forecast.ID, err)
}

func (r *inflationRepository) LatestForecast(ctx context.Context, civilizationID string) (*models.InflationForecast, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	forecast := new(models.InflationForecast)
	err := r.db.NewSelect().
		Model(forecast).
		Where("civilization_id = ?", civilizationID).
		Order("forecast_date DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("latest_forecast", "inflation_forecast", civilizationID, err)
	}
	return forecast, nil
}

func (r *inflationRepository) InsertPriceRow(ctx context.Context, row *models.ResourcePrice) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	if row.Timestamp.IsZero() {
		row.Timestamp = time.Now()
	}
	_, err := r.db.NewInsert().
		Model(row).
		Exec(ctx)
	return r.HandleError("insert_price_row", "resource_price", err)
}

// PriceHistory returns the newest rows first; callers walk the series for
// year-ago matching.
func (r *inflationRepository) PriceHistory(ctx context.Context, civilizationID string, limit int) ([]*models.ResourcePrice, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var rows []*models.ResourcePrice
	err := r.db.NewSelect().
		Model(&rows).
		Where("civilization_id = ?", civilizationID).
		Order("timestamp DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("price_history", "resource_price", civilizationID, err)
	}
	return rows, nil
}

func (r *inflationRepository) LatestMonetaryPolicy(ctx context.Context, civilizationID string) (*models.MonetaryPolicy, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	policy := new(models.MonetaryPolicy)
	err := r.db.NewSelect().
		Model(policy).
		Where("civilization_id = ?", civilizationID).
		Order("timestamp DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("latest_monetary_policy", "monetary_policy", civilizationID, err)
	}
	return policy, nil
}

func (r *inflationRepository) MonetaryPolicyCount(ctx context.Context, civilizationID string) (int, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	count, err := r.db.NewSelect().
		Model((*models.MonetaryPolicy)(nil)).
		Where("civilization_id = ?", civilizationID).
		Count(ctx)
	if err != nil {
		return 0, r.HandleErrorWithID("monetary_policy_count", "monetary_policy", civilizationID, err)
	}
	return count, nil
}

func (r *inflationRepository) CreateBasket(ctx context.Context, basket *models.PriceBasket) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	_, err := r.db.NewInsert().
		Model(basket).
		Exec(ctx)
	return r.HandleErrorWithID("create_basket", "price_basket", basket.ID, err)
}

func (r *inflationRepository) GetBasket(ctx context.Context, id string) (*models.PriceBasket, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	basket := new(models.PriceBasket)
	err := r.db.NewSelect().
		Model(basket).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get_basket", "price_basket", id, err)
	}
	return basket, nil
}

// MutateBasket runs a read-modify-write on one basket under a row lock.
// Concurrent updates to different items serialize on the lock instead of
// overwriting each other's items_data.
func (r *inflationRepository) MutateBasket(ctx context.Context, id string, fn func(*models.PriceBasket) error) (*models.PriceBasket, error) {
	basket := new(models.PriceBasket)
	err := r.WithTransaction(ctx, StandardTransactionOptions(), func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewSelect().
			Model(basket).
			Where("id = ?", id).
			For("UPDATE").
			Scan(ctx)
		if err != nil {
			return r.HandleErrorWithID("mutate_basket_lock", "price_basket", id, err)
		}

		if err := fn(basket); err != nil {
			return err
		}

		basket.UpdatedAt = time.Now()
		_, err = tx.NewUpdate().
			Model(basket).
			Column("items_data", "total_weight", "basket_value", "base_value", "index_value", "updated_at").
			WherePK().
			Exec(ctx)
		return r.HandleErrorWithID("mutate_basket_update", "price_basket", id, err)
	})
	if err != nil {
		return nil, err
	}
	return basket, nil
}
