package fiscal

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/aspired-future/startales-econsim/econsim/database/models"
	"github.com/aspired-future/startales-econsim/econsim/database/repositories"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TxRunner executes a unit of work inside a database transaction.
// *repositories.BaseRepository satisfies it; tests substitute a fake.
type TxRunner interface {
	WithTransaction(ctx context.Context, opts *repositories.TransactionOptions, fn func(context.Context, bun.Tx) error) error
}

// Engine converts policy actions into time-profiled simulation state
// effects, and tax rate changes into behavioral effect records.
type Engine struct {
	repo       repositories.FiscalRepository
	state      repositories.StateRepository
	narratives repositories.NarrativeRepository
	runner     TxRunner
}

func NewEngine(runner TxRunner, repo repositories.FiscalRepository, state repositories.StateRepository, narratives repositories.NarrativeRepository) *Engine {
	return &Engine{
		repo:       repo,
		state:      state,
		narratives: narratives,
		runner:     runner,
	}
}

// CalculateEffect prices a policy action against its category multiplier
// and persists a new effect ledger row. Diminishing returns saturate
// against all non-expired spend in the same category including this
// action, so doubling spend does not double effect. The effect starts at
// the time profile's initial intensity and ramps toward full strength.
func (e *Engine) CalculateEffect(ctx context.Context, civilizationID string, policyType models.PolicyType, category models.PolicyCategory, amount float64) (*models.FiscalPolicyEffect, error) {
	m, err := lookupMultiplier(category)
	if err != nil {
		return nil, err
	}
	if amount < 0 {
		return nil, &repositories.ValidationError{Entity: "fiscal_policy_effect", Reason: "amount must be non-negative"}
	}

	now := time.Now()
	priorSpend, err := e.repo.TotalCategorySpend(ctx, civilizationID, category, now)
	if err != nil {
		return nil, err
	}

	diminishing := math.Max(0.1, math.Pow(m.DiminishingReturnsFactor, (priorSpend+amount)/DiminishingReturnsSpendScale))
	baseEffect := amount * m.BaseMultiplier * diminishing * m.EconomicConditionModifier

	effect := &models.FiscalPolicyEffect{
		ID:                     uuid.NewString(),
		CivilizationID:         civilizationID,
		PolicyType:             policyType,
		PolicyCategory:         category,
		PolicyAmount:           amount,
		EffectType:             m.EffectType,
		BaseEffectSize:         baseEffect,
		CurrentEffectSize:      baseEffect * m.TimeProfile.InitialIntensity,
		ImplementationProgress: m.TimeProfile.InitialIntensity,
		TimeToFullEffect:       m.TimeProfile.DurationMonths,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	if err := e.repo.CreateEffect(ctx, effect); err != nil {
		return nil, err
	}

	slog.Info("Fiscal effect calculated",
		slog.String("engine", "fiscal"),
		slog.String("civilization_id", civilizationID),
		slog.String("category", string(category)),
		slog.Float64("amount", amount),
		slog.Float64("base_effect", baseEffect),
		slog.Float64("diminishing_factor", diminishing),
	)
	return effect, nil
}

// ApplyEffect pushes an effect's current size into the simulation state.
// The applied_at stamp, the modifier upsert, and any narrative insert
// share one transaction, so a failure leaves the effect pending
// reapplication with nothing half written. The stamp is the serialization
// token: a retried or concurrent apply of the same effect conflicts
// instead of adding the effect twice.
func (e *Engine) ApplyEffect(ctx context.Context, effectID string) error {
	effect, err := e.repo.GetEffect(ctx, effectID)
	if err != nil {
		return err
	}
	if effect.AppliedAt != nil {
		return &repositories.ConflictError{Entity: "fiscal_policy_effect", Field: "applied_at", Value: *effect.AppliedAt}
	}
	if effect.ImplementationProgress >= 1 {
		return &repositories.ConflictError{Entity: "fiscal_policy_effect", Field: "implementation_progress", Value: effect.ImplementationProgress}
	}
	if effect.Expired(time.Now()) {
		return &repositories.ConflictError{Entity: "fiscal_policy_effect", Field: "expires_at", Value: *effect.ExpiresAt}
	}

	m, err := lookupMultiplier(effect.PolicyCategory)
	if err != nil {
		return err
	}
	delta := effect.CurrentEffectSize

	return e.runner.WithTransaction(ctx, repositories.SerializableTransactionOptions(), func(ctx context.Context, tx bun.Tx) error {
		ok, err := e.repo.MarkEffectApplied(ctx, tx, effect)
		if err != nil {
			return err
		}
		if !ok {
			return &repositories.ConflictError{Entity: "fiscal_policy_effect", Field: "applied_at", Value: effect.ID}
		}

		mod, err := e.state.AddFiscalContribution(ctx, tx, effect.CivilizationID, m.ModifierType, m.ModifierCategory, delta)
		if err != nil {
			return err
		}

		if math.Abs(delta) > NarrativeThreshold {
			if err := e.narratives.InsertTx(ctx, tx, buildNarrativeInput(effect, m, delta)); err != nil {
				return err
			}
		}

		slog.Debug("Fiscal effect applied",
			slog.String("engine", "fiscal"),
			slog.String("civilization_id", effect.CivilizationID),
			slog.String("modifier_category", m.ModifierCategory),
			slog.Float64("delta", delta),
			slog.Float64("total_value", mod.TotalValue),
		)
		return nil
	})
}

// UpdateFiscalEffectProgress advances every ramping effect one period and
// applies the incremental effect. The prior progress value serves as an
// optimistic token: a row another writer advanced first is skipped this
// tick rather than double-applied. Returns the number of effects advanced.
func (e *Engine) UpdateFiscalEffectProgress(ctx context.Context) (int, error) {
	now := time.Now()
	effects, err := e.repo.RampingEffects(ctx, now)
	if err != nil {
		return 0, err
	}

	advanced := 0
	for _, effect := range effects {
		prior := effect.ImplementationProgress
		step := 1.0
		if effect.TimeToFullEffect > 0 {
			step = 1.0 / float64(effect.TimeToFullEffect)
		}
		progress := math.Min(1, prior+step)
		newCurrent := effect.BaseEffectSize * progress
		delta := newCurrent - effect.CurrentEffectSize

		effect.ImplementationProgress = progress
		effect.CurrentEffectSize = newCurrent

		var applied bool
		err := e.runner.WithTransaction(ctx, repositories.SerializableTransactionOptions(), func(ctx context.Context, tx bun.Tx) error {
			ok, err := e.repo.AdvanceEffectProgress(ctx, tx, effect, prior)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}

			m, err := lookupMultiplier(effect.PolicyCategory)
			if err != nil {
				return err
			}
			if _, err := e.state.AddFiscalContribution(ctx, tx, effect.CivilizationID, m.ModifierType, m.ModifierCategory, delta); err != nil {
				return err
			}
			if math.Abs(delta) > NarrativeThreshold {
				if err := e.narratives.InsertTx(ctx, tx, buildNarrativeInput(effect, m, delta)); err != nil {
					return err
				}
			}
			applied = true
			return nil
		})
		if err != nil {
			return advanced, err
		}
		if applied {
			advanced++
		}
	}

	slog.Info("Fiscal effect progress updated",
		slog.String("engine", "fiscal"),
		slog.Int("ramping", len(effects)),
		slog.Int("advanced", advanced),
	)
	return advanced, nil
}

// CalculateTaxBehavioralEffect records how a tax rate change shifts
// incentives: a fixed elasticity per tax type scales the relative rate
// change, with a Laffer position and deadweight loss estimate alongside.
func (e *Engine) CalculateTaxBehavioralEffect(ctx context.Context, civilizationID string, taxType models.TaxType, oldRate, newRate float64) (*models.EconomicBehavioralEffect, error) {
	elasticity, ok := taxElasticities[taxType]
	if !ok {
		return nil, &repositories.ValidationError{Entity: "economic_behavioral_effect", Reason: "unknown tax type " + string(taxType)}
	}
	if newRate < 0 || newRate > 1 || oldRate < 0 || oldRate > 1 {
		return nil, &repositories.ValidationError{Entity: "economic_behavioral_effect", Reason: "tax rates must be in [0, 1]"}
	}

	rateChange := (newRate - oldRate) / math.Max(oldRate, 0.001)
	response := elasticity * rateChange
	laffer := math.Min(1, newRate/taxOptimalRates[taxType])
	deadweight := 0.5 * math.Abs(elasticity) * newRate * newRate

	effect := &models.EconomicBehavioralEffect{
		CivilizationID:      civilizationID,
		TaxType:             taxType,
		TaxRate:             newRate,
		BehavioralEffect:    taxBehaviorNames[taxType],
		EffectMagnitude:     response,
		LafferCurvePosition: laffer,
		DeadweightLoss:      deadweight,
		CreatedAt:           time.Now(),
	}

	if err := e.repo.RecordBehavioralEffect(ctx, effect); err != nil {
		return nil, err
	}

	slog.Info("Tax behavioral effect recorded",
		slog.String("engine", "fiscal"),
		slog.String("civilization_id", civilizationID),
		slog.String("tax_type", string(taxType)),
		slog.Float64("magnitude", response),
	)
	return effect, nil
}

// Effects returns the newest policy effect ledger rows for a civilization.
func (e *Engine) Effects(ctx context.Context, civilizationID string, limit int) ([]*models.FiscalPolicyEffect, error) {
	return e.repo.EffectsByCivilization(ctx, civilizationID, limit)
}

// BehavioralEffects returns the newest tax behavior log rows.
func (e *Engine) BehavioralEffects(ctx context.Context, civilizationID string, limit int) ([]*models.EconomicBehavioralEffect, error) {
	return e.repo.BehavioralEffects(ctx, civilizationID, limit)
}

// StateSnapshot returns every simulation state modifier for a civilization.
func (e *Engine) StateSnapshot(ctx context.Context, civilizationID string) ([]*models.SimulationStateModifier, error) {
	return e.state.ListModifiers(ctx, civilizationID)
}

// GetNarrativeInputs exposes pending narrative events to the external
// narrative consumer.
func (e *Engine) GetNarrativeInputs(ctx context.Context, civilizationID string, unprocessedOnly bool, limit int) ([]*models.NarrativeInput, error) {
	return e.narratives.List(ctx, civilizationID, unprocessedOnly, limit)
}

// MarkNarrativeInputsProcessed stamps consumed narrative rows.
func (e *Engine) MarkNarrativeInputsProcessed(ctx context.Context, ids []string) (int64, error) {
	return e.narratives.MarkProcessed(ctx, ids)
}
