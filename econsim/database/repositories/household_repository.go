package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aspired-future/startales-econsim/econsim/database/models"
	"github.com/uptrace/bun"
)

var (
	ErrTierCountNegative = errors.New("tier household count would go negative")
)

type HouseholdRepository interface {
	ReplaceTiers(ctx context.Context, civilizationID string, tiers []*models.HouseholdTier) error
	GetTiers(ctx context.Context, civilizationID string) ([]*models.HouseholdTier, error)
	GetTier(ctx context.Context, civilizationID string, tier models.TierName) (*models.HouseholdTier, error)
	ReplaceProfiles(ctx context.Context, civilizationID string, profiles []*models.ConsumptionProfile) error
	GetProfilesByResource(ctx context.Context, civilizationID string, resource models.ResourceType) ([]*models.ConsumptionProfile, error)
	CreateMobilityEvent(ctx context.Context, event *models.SocialMobilityEvent) error
	GetMobilityEvent(ctx context.Context, id string) (*models.SocialMobilityEvent, error)
	ResolveMobilityEvent(ctx context.Context, id string, outcome models.MobilityOutcome) (*models.SocialMobilityEvent, error)
}

type householdRepository struct {
	*BaseRepository
}

func NewHouseholdRepository(db *bun.DB) HouseholdRepository {
	return &householdRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// ReplaceTiers deletes and re-inserts the tier rows for a civilization so
// re-initialization is idempotent.
func (r *householdRepository) ReplaceTiers(ctx context.Context, civilizationID string, tiers []*models.HouseholdTier) error {
	return r.WithTransaction(ctx, StandardTransactionOptions(), func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*models.HouseholdTier)(nil)).
			Where("civilization_id = ?", civilizationID).
			Exec(ctx)
		if err != nil {
			return r.HandleError("replace_tiers_delete", "household_tier", err)
		}

		if len(tiers) == 0 {
			return nil
		}

		_, err = tx.NewInsert().
			Model(&tiers).
			Exec(ctx)
		return r.HandleError("replace_tiers_insert", "household_tier", err)
	})
}

func (r *householdRepository) GetTiers(ctx context.Context, civilizationID string) ([]*models.HouseholdTier, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var tiers []*models.HouseholdTier
	err := r.db.NewSelect().
		Model(&tiers).
		Where("civilization_id = ?", civilizationID).
		Order("average_income ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get_tiers", "household_tier", civilizationID, err)
	}
	if len(tiers) == 0 {
		return nil, &NotFoundError{Entity: "household_tier", ID: civilizationID}
	}
	return tiers, nil
}

func (r *householdRepository) GetTier(ctx context.Context, civilizationID string, tier models.TierName) (*models.HouseholdTier, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	ht := new(models.HouseholdTier)
	err := r.db.NewSelect().
		Model(ht).
		Where("civilization_id = ? AND tier_name = ?", civilizationID, tier).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get_tier", "household_tier", tier, err)
	}
	return ht, nil
}

func (r *householdRepository) ReplaceProfiles(ctx context.Context, civilizationID string, profiles []*models.ConsumptionProfile) error {
	return r.WithTransaction(ctx, StandardTransactionOptions(), func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*models.ConsumptionProfile)(nil)).
			Where("civilization_id = ?", civilizationID).
			Exec(ctx)
		if err != nil {
			return r.HandleError("replace_profiles_delete", "consumption_profile", err)
		}

		if len(profiles) == 0 {
			return nil
		}

		_, err = tx.NewInsert().
			Model(&profiles).
			Exec(ctx)
		return r.HandleError("replace_profiles_insert", "consumption_profile", err)
	})
}

func (r *householdRepository) GetProfilesByResource(ctx context.Context, civilizationID string, resource models.ResourceType) ([]*models.ConsumptionProfile, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var profiles []*models.ConsumptionProfile
	err := r.db.NewSelect().
		Model(&profiles).
		Where("civilization_id = ? AND resource_type = ?", civilizationID, resource).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get_profiles", "consumption_profile", resource, err)
	}
	return profiles, nil
}

func (r *householdRepository) CreateMobilityEvent(ctx context.Context, event *models.SocialMobilityEvent) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	_, err := r.db.NewInsert().
		Model(event).
		Exec(ctx)
	return r.HandleErrorWithID("create_mobility_event", "social_mobility_event", event.ID, err)
}

func (r *householdRepository) GetMobilityEvent(ctx context.Context, id string) (*models.SocialMobilityEvent, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	event := new(models.SocialMobilityEvent)
	err := r.db.NewSelect().
		Model(event).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get_mobility_event", "social_mobility_event", id, err)
	}
	return event, nil
}

// ResolveMobilityEvent transitions a pending event to a terminal outcome and,
// on success, moves one household between the tiers. The event row is locked
// first so a second resolver sees the terminal outcome and gets a conflict;
// tier rows are locked in a fixed order to serialize concurrent count shifts.
func (r *householdRepository) ResolveMobilityEvent(ctx context.Context, id string, outcome models.MobilityOutcome) (*models.SocialMobilityEvent, error) {
	if outcome != models.OutcomeSuccess && outcome != models.OutcomeFailure {
		return nil, &ValidationError{Entity: "social_mobility_event", Reason: "outcome must be terminal"}
	}

	event := new(models.SocialMobilityEvent)
	err := r.WithTransaction(ctx, SerializableTransactionOptions(), func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewSelect().
			Model(event).
			Where("id = ?", id).
			For("UPDATE").
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return &NotFoundError{Entity: "social_mobility_event", ID: id}
		}
		if err != nil {
			return r.HandleErrorWithID("resolve_mobility_lock", "social_mobility_event", id, err)
		}

		if event.Outcome != models.OutcomePending {
			return &ConflictError{Entity: "social_mobility_event", Field: "outcome", Value: event.Outcome}
		}

		now := time.Now()
		event.Outcome = outcome
		event.ResolvedAt = &now
		_, err = tx.NewUpdate().
			Model(event).
			Column("outcome", "resolved_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			return r.HandleErrorWithID("resolve_mobility_update", "social_mobility_event", id, err)
		}

		if outcome != models.OutcomeSuccess {
			return nil
		}

		return r.shiftTierCounts(ctx, tx, event.CivilizationID, event.FromTier, event.ToTier)
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (r *householdRepository) shiftTierCounts(ctx context.Context, tx bun.Tx, civilizationID string, from, to models.TierName) error {
	var tiers []*models.HouseholdTier
	err := tx.NewSelect().
		Model(&tiers).
		Where("civilization_id = ?", civilizationID).
		Order("tier_name ASC").
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		return r.HandleErrorWithID("shift_tiers_lock", "household_tier", civilizationID, err)
	}

	var fromTier, toTier *models.HouseholdTier
	var total int64
	for _, t := range tiers {
		total += t.HouseholdCount
		switch t.TierName {
		case from:
			fromTier = t
		case to:
			toTier = t
		}
	}
	if fromTier == nil || toTier == nil {
		return &NotFoundError{Entity: "household_tier", ID: civilizationID}
	}
	if fromTier.HouseholdCount < 1 {
		return ErrTierCountNegative
	}

	fromTier.HouseholdCount--
	toTier.HouseholdCount++

	// Counts moved between tiers, total conserved; percentages follow counts.
	for _, t := range tiers {
		if total > 0 {
			t.PopulationPercentage = float64(t.HouseholdCount) / float64(total) * 100
		}
		t.UpdatedAt = time.Now()
		_, err := tx.NewUpdate().
			Model(t).
			Column("household_count", "population_percentage", "updated_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			return r.HandleErrorWithID("shift_tiers_update", "household_tier", t.TierName, err)
		}
	}
	return nil
}
