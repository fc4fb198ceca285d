package repositories

import (
	"context"
	"time"

	"github.com/aspired-future/startales-econsim/econsim/database/models"
	"github.com/uptrace/bun"
)

type FiscalRepository interface {
	CreateEffect(ctx context.Context, effect *models.FiscalPolicyEffect) error
	GetEffect(ctx context.Context, id string) (*models.FiscalPolicyEffect, error)
	TotalCategorySpend(ctx context.Context, civilizationID string, category models.PolicyCategory, now time.Time) (float64, error)
	EffectsByCivilization(ctx context.Context, civilizationID string, limit int) ([]*models.FiscalPolicyEffect, error)
	RampingEffects(ctx context.Context, now time.Time) ([]*models.FiscalPolicyEffect, error)
	MarkEffectApplied(ctx context.Context, tx bun.Tx, effect *models.FiscalPolicyEffect) (bool, error)
	AdvanceEffectProgress(ctx context.Context, tx bun.Tx, effect *models.FiscalPolicyEffect, priorProgress float64) (bool, error)
	RecordBehavioralEffect(ctx context.Context, effect *models.EconomicBehavioralEffect) error
	BehavioralEffects(ctx context.Context, civilizationID string, limit int) ([]*models.EconomicBehavioralEffect, error)
}

type fiscalRepository struct {
	*BaseRepository
}

func NewFiscalRepository(db *bun.DB) FiscalRepository {
	return &fiscalRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (r *fiscalRepository) CreateEffect(ctx context.Context, effect *models.FiscalPolicyEffect) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	_, err := r.db.NewInsert().
		Model(effect).
		Exec(ctx)
	return r.HandleErrorWithID("create_effect", "fiscal_policy_effect", effect.ID, err)
}

func (r *fiscalRepository) GetEffect(ctx context.Context, id string) (*models.FiscalPolicyEffect, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	effect := new(models.FiscalPolicyEffect)
	err := r.db.NewSelect().
		Model(effect).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get_effect", "fiscal_policy_effect", id, err)
	}
	return effect, nil
}

// TotalCategorySpend sums all non-expired prior spend in a category. Feeds
// the diminishing-returns curve, so expired effects stop counting.
func (r *fiscalRepository) TotalCategorySpend(ctx context.Context, civilizationID string, category models.PolicyCategory, now time.Time) (float64, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var total float64
	err := r.db.NewSelect().
		Model((*models.FiscalPolicyEffect)(nil)).
		ColumnExpr("COALESCE(SUM(policy_amount), 0)").
		Where("civilization_id = ?", civilizationID).
		Where("policy_category = ?", category).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Scan(ctx, &total)
	if err != nil {
		return 0, r.HandleErrorWithID("total_category_spend", "fiscal_policy_effect", category, err)
	}
	return total, nil
}

func (r *fiscalRepository) EffectsByCivilization(ctx context.Context, civilizationID string, limit int) ([]*models.FiscalPolicyEffect, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var effects []*models.FiscalPolicyEffect
	err := r.db.NewSelect().
		Model(&effects).
		Where("civilization_id = ?", civilizationID).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("effects_by_civilization", "fiscal_policy_effect", civilizationID, err)
	}
	return effects, nil
}

// RampingEffects returns every non-expired effect still below full
// implementation, oldest first.
func (r *fiscalRepository) RampingEffects(ctx context.Context, now time.Time) ([]*models.FiscalPolicyEffect, error) {
	ctx, cancel := context.WithTimeout(ctx, BatchQueryTimeout)
	defer cancel()

	var effects []*models.FiscalPolicyEffect
	err := r.db.NewSelect().
		Model(&effects).
		Where("implementation_progress < 1").
		Where("expires_at IS NULL OR expires_at > ?", now).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("ramping_effects", "fiscal_policy_effect", err)
	}
	return effects, nil
}

// MarkEffectApplied stamps the one-time initial application, with the
// NULL applied_at column as the serialization token. Returns false when
// another writer stamped the row first; callers must not add the effect
// to the simulation state again.
func (r *fiscalRepository) MarkEffectApplied(ctx context.Context, tx bun.Tx, effect *models.FiscalPolicyEffect) (bool, error) {
	now := time.Now()
	effect.AppliedAt = &now
	effect.UpdatedAt = now
	res, err := tx.NewUpdate().
		Model(effect).
		Column("applied_at", "updated_at").
		Where("id = ?", effect.ID).
		Where("applied_at IS NULL").
		Exec(ctx)
	if err != nil {
		return false, r.HandleErrorWithID("mark_effect_applied", "fiscal_policy_effect", effect.ID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, r.HandleErrorWithID("mark_effect_applied", "fiscal_policy_effect", effect.ID, err)
	}
	return rows == 1, nil
}

// AdvanceEffectProgress persists a progress step using the prior progress
// value as an optimistic token. Returns false when another writer advanced
// the row first; callers skip the effect for this tick rather than
// double-applying it.
func (r *fiscalRepository) AdvanceEffectProgress(ctx context.Context, tx bun.Tx, effect *models.FiscalPolicyEffect, priorProgress float64) (bool, error) {
	effect.UpdatedAt = time.Now()
	res, err := tx.NewUpdate().
		Model(effect).
		Column("current_effect_size", "implementation_progress", "updated_at").
		Where("id = ?", effect.ID).
		Where("implementation_progress = ?", priorProgress).
		Exec(ctx)
	if err != nil {
		return false, r.HandleErrorWithID("advance_effect_progress", "fiscal_policy_effect", effect.ID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, r.HandleErrorWithID("advance_effect_progress", "fiscal_policy_effect", effect.ID, err)
	}
	return rows == 1, nil
}

func (r *fiscalRepository) RecordBehavioralEffect(ctx context.Context, effect *models.EconomicBehavioralEffect) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	_, err := r.db.NewInsert().
		Model(effect).
		Exec(ctx)
	return r.HandleError("record_behavioral_effect", "economic_behavioral_effect", err)
}

func (r *fiscalRepository) BehavioralEffects(ctx context.Context, civilizationID string, limit int) ([]*models.EconomicBehavioralEffect, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var effects []*models.EconomicBehavioralEffect
	err := r.db.NewSelect().
		Model(&effects).
		Where("civilization_id = ?", civilizationID).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("behavioral_effects", "economic_behavioral_effect", civilizationID, err)
	}
	return effects, nil
}
