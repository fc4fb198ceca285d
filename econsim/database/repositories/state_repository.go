package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aspired-future/startales-econsim/econsim/database/models"
	"github.com/uptrace/bun"
)

type StateRepository interface {
	AddFiscalContribution(ctx context.Context, tx bun.Tx, civilizationID string, modType models.ModifierType, category string, delta float64) (*models.SimulationStateModifier, error)
	GetModifier(ctx context.Context, civilizationID string, modType models.ModifierType, category string) (*models.SimulationStateModifier, error)
	ListModifiers(ctx context.Context, civilizationID string) ([]*models.SimulationStateModifier, error)
	SetBaseValue(ctx context.Context, civilizationID string, modType models.ModifierType, category string, base float64) error
	DecayFiscalModifiers(ctx context.Context, civilizationID string, retention float64) (int64, error)
}

type stateRepository struct {
	*BaseRepository
}

func NewStateRepository(db *bun.DB) StateRepository {
	return &stateRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// AddFiscalContribution is the single write path for fiscal contributions:
// the delta is always added to the stored fiscalModifier, never assigned
// over it, and totalValue is recomputed from its three components in the
// same statement. Runs inside the caller's transaction so the upsert
// commits or rolls back with the rest of an effect application.
func (r *stateRepository) AddFiscalContribution(ctx context.Context, tx bun.Tx, civilizationID string, modType models.ModifierType, category string, delta float64) (*models.SimulationStateModifier, error) {
	mod := new(models.SimulationStateModifier)
	err := tx.NewSelect().
		Model(mod).
		Where("civilization_id = ? AND modifier_type = ? AND modifier_category = ?", civilizationID, modType, category).
		For("UPDATE").
		Scan(ctx)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		mod = &models.SimulationStateModifier{
			CivilizationID:   civilizationID,
			ModifierType:     modType,
			ModifierCategory: category,
			BaseValue:        0,
			FiscalModifier:   delta,
			OtherModifiers:   0,
			UpdatedAt:        time.Now(),
		}
		mod.TotalValue = mod.BaseValue + mod.FiscalModifier + mod.OtherModifiers
		if _, err := tx.NewInsert().Model(mod).Exec(ctx); err != nil {
			return nil, r.HandleErrorWithID("add_fiscal_contribution_insert", "simulation_state_modifier", category, err)
		}
		return mod, nil
	case err != nil:
		return nil, r.HandleErrorWithID("add_fiscal_contribution_lock", "simulation_state_modifier", category, err)
	}

	mod.FiscalModifier += delta
	mod.TotalValue = mod.BaseValue + mod.FiscalModifier + mod.OtherModifiers
	mod.UpdatedAt = time.Now()
	_, err = tx.NewUpdate().
		Model(mod).
		Column("fiscal_modifier", "total_value", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("add_fiscal_contribution_update", "simulation_state_modifier", category, err)
	}
	return mod, nil
}

func (r *stateRepository) GetModifier(ctx context.Context, civilizationID string, modType models.ModifierType, category string) (*models.SimulationStateModifier, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	mod := new(models.SimulationStateModifier)
	err := r.db.NewSelect().
		Model(mod).
		Where("civilization_id = ? AND modifier_type = ? AND modifier_category = ?", civilizationID, modType, category).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get_modifier", "simulation_state_modifier", category, err)
	}
	return mod, nil
}

func (r *stateRepository) ListModifiers(ctx context.Context, civilizationID string) ([]*models.SimulationStateModifier, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var mods []*models.SimulationStateModifier
	err := r.db.NewSelect().
		Model(&mods).
		Where("civilization_id = ?", civilizationID).
		Order("modifier_type ASC", "modifier_category ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("list_modifiers", "simulation_state_modifier", civilizationID, err)
	}
	return mods, nil
}

// SetBaseValue upserts the base component only; fiscal and other
// contributions survive the update.
func (r *stateRepository) SetBaseValue(ctx context.Context, civilizationID string, modType models.ModifierType, category string, base float64) error {
	return r.WithTransaction(ctx, StandardTransactionOptions(), func(ctx context.Context, tx bun.Tx) error {
		mod := new(models.SimulationStateModifier)
		err := tx.NewSelect().
			Model(mod).
			Where("civilization_id = ? AND modifier_type = ? AND modifier_category = ?", civilizationID, modType, category).
			For("UPDATE").
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			mod = &models.SimulationStateModifier{
				CivilizationID:   civilizationID,
				ModifierType:     modType,
				ModifierCategory: category,
				BaseValue:        base,
				TotalValue:       base,
				UpdatedAt:        time.Now(),
			}
			_, err := tx.NewInsert().Model(mod).Exec(ctx)
			return r.HandleErrorWithID("set_base_value_insert", "simulation_state_modifier", category, err)
		}
		if err != nil {
			return r.HandleErrorWithID("set_base_value_lock", "simulation_state_modifier", category, err)
		}

		mod.BaseValue = base
		mod.TotalValue = mod.BaseValue + mod.FiscalModifier + mod.OtherModifiers
		mod.UpdatedAt = time.Now()
		_, err = tx.NewUpdate().
			Model(mod).
			Column("base_value", "total_value", "updated_at").
			WherePK().
			Exec(ctx)
		return r.HandleErrorWithID("set_base_value_update", "simulation_state_modifier", category, err)
	})
}

// DecayFiscalModifiers is the only sanctioned way fiscal contributions
// shrink. retention is the fraction kept per call, in (0, 1].
func (r *stateRepository) DecayFiscalModifiers(ctx context.Context, civilizationID string, retention float64) (int64, error) {
	if retention <= 0 || retention > 1 {
		return 0, &ValidationError{Entity: "simulation_state_modifier", Reason: "retention must be in (0, 1]"}
	}

	ctx, cancel := context.WithTimeout(ctx, BatchQueryTimeout)
	defer cancel()

	res, err := r.db.NewUpdate().
		Model((*models.SimulationStateModifier)(nil)).
		Set("fiscal_modifier = fiscal_modifier * ?", retention).
		Set("total_value = base_value + fiscal_modifier * ? + other_modifiers", retention).
		Set("updated_at = ?", time.Now()).
		Where("civilization_id = ?", civilizationID).
		Exec(ctx)
	if err != nil {
		return 0, r.HandleErrorWithID("decay_fiscal_modifiers", "simulation_state_modifier", civilizationID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, r.HandleErrorWithID("decay_fiscal_modifiers", "simulation_state_modifier", civilizationID, err)
	}
	return rows, nil
}
