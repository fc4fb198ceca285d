package households

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/aspired-future/startales-econsim/econsim/database/models"
	"github.com/aspired-future/startales-econsim/econsim/database/repositories"
	"github.com/aspired-future/startales-econsim/econsim/economy/entropy"
	"github.com/google/uuid"
)

// Engine maintains the three-tier household structure: initialization,
// tier-specific demand, and stochastic mobility between tiers.
type Engine struct {
	repo   repositories.HouseholdRepository
	roller entropy.Roller
}

func NewEngine(repo repositories.HouseholdRepository, roller entropy.Roller) *Engine {
	return &Engine{
		repo:   repo,
		roller: roller,
	}
}

// Initialize partitions a civilization's population into the three tiers
// and seeds the consumption profile table. Re-initialization overwrites
// the previous rows for that civilization.
func (e *Engine) Initialize(ctx context.Context, civilizationID string, totalPopulation int64) error {
	now := time.Now()
	tiers := make([]*models.HouseholdTier, 0, len(models.Tiers))
	for _, name := range models.Tiers {
		seed := tierSeeds[name]
		tiers = append(tiers, &models.HouseholdTier{
			CivilizationID:       civilizationID,
			TierName:             name,
			HouseholdCount:       int64(math.Round(float64(totalPopulation) * seed.Percentage / 100)),
			PopulationPercentage: seed.Percentage,
			AverageIncome:        seed.AverageIncome,
			ConsumptionPower:     seed.AverageIncome * consumptionPowerShare,
			LuxuryDemandMult:     seed.LuxuryDemandMult,
			BasicGoodsDemandMult: seed.BasicGoodsDemandMult,
			SavingsRate:          seed.SavingsRate,
			SocialMobilityRate:   seed.SocialMobilityRate,
			CreatedAt:            now,
			UpdatedAt:            now,
		})
	}

	if err := e.repo.ReplaceTiers(ctx, civilizationID, tiers); err != nil {
		return err
	}

	profiles := make([]*models.ConsumptionProfile, 0, len(models.Tiers)*len(models.ResourceTypes))
	for _, name := range models.Tiers {
		for _, seed := range profileSeeds[name] {
			profiles = append(profiles, &models.ConsumptionProfile{
				CivilizationID:  civilizationID,
				TierName:        name,
				ResourceType:    seed.Resource,
				BaseDemand:      seed.BaseDemand,
				PriceElasticity: seed.Elasticity,
				LuxuryFactor:    seed.Luxury,
				NecessityFactor: seed.Necessity,
			})
		}
	}

	if err := e.repo.ReplaceProfiles(ctx, civilizationID, profiles); err != nil {
		return err
	}

	slog.Info("Household tiers initialized",
		slog.String("engine", "households"),
		slog.String("civilization_id", civilizationID),
		slog.Int64("total_population", totalPopulation),
	)
	return nil
}

// DemandResult is the computed demand for one tier at the current price.
type DemandResult struct {
	Tier             models.TierName
	ResourceType     models.ResourceType
	BaseDemand       float64
	ElasticityImpact float64
	PriceAdjusted    float64
	CulturalAdjusted float64
	FinalDemand      float64
}

// ComputeDemand evaluates each tier's demand curve for a resource:
// Q = Q0 * (P/P0)^e, then cultural and seasonal multipliers. Elasticity
// is non-positive, so demand falls as price rises. Results clamp at zero.
func (e *Engine) ComputeDemand(ctx context.Context, civilizationID string, resource models.ResourceType, currentPrice, culturalMultiplier, seasonalMultiplier float64) ([]DemandResult, error) {
	profiles, err := e.repo.GetProfilesByResource(ctx, civilizationID, resource)
	if err != nil {
		return nil, err
	}

	tiers, err := e.repo.GetTiers(ctx, civilizationID)
	if err != nil {
		return nil, err
	}
	counts := make(map[models.TierName]int64, len(tiers))
	for _, t := range tiers {
		counts[t.TierName] = t.HouseholdCount
	}

	if currentPrice < 0 {
		currentPrice = 0
	}

	results := make([]DemandResult, 0, len(profiles))
	for _, p := range profiles {
		baseDemand := p.BaseDemand * float64(counts[p.TierName])
		priceRatio := currentPrice / ReferencePrice
		impact := math.Pow(priceRatio, p.PriceElasticity)
		if math.IsInf(impact, 0) || math.IsNaN(impact) {
			// Zero price with negative elasticity; demand saturates
			// rather than diverging.
			impact = 1
		}

		priceAdjusted := baseDemand * impact
		culturalAdjusted := priceAdjusted * culturalMultiplier
		final := culturalAdjusted * seasonalMultiplier

		results = append(results, DemandResult{
			Tier:             p.TierName,
			ResourceType:     resource,
			BaseDemand:       baseDemand,
			ElasticityImpact: impact,
			PriceAdjusted:    math.Max(0, priceAdjusted),
			CulturalAdjusted: math.Max(0, culturalAdjusted),
			FinalDemand:      math.Max(0, final),
		})
	}
	return results, nil
}

// ProposeMobilityOpportunity records a pending mobility event with a
// success probability from the fixed (eventType, fromTier) table.
func (e *Engine) ProposeMobilityOpportunity(ctx context.Context, civilizationID string, campaignStep int64, householdID string, eventType models.MobilityEventType, fromTier, toTier models.TierName, resourceCost models.ResourceCost) (*models.SocialMobilityEvent, error) {
	if fromTier == toTier {
		return nil, &repositories.ValidationError{Entity: "social_mobility_event", Reason: "fromTier and toTier must differ"}
	}

	event := &models.SocialMobilityEvent{
		ID:                 uuid.NewString(),
		CivilizationID:     civilizationID,
		CampaignStep:       campaignStep,
		HouseholdID:        householdID,
		EventType:          eventType,
		FromTier:           fromTier,
		ToTier:             toTier,
		TriggerReason:      mobilityDescription(eventType, fromTier, toTier),
		SuccessProbability: mobilityProbability(eventType, fromTier),
		ResourceCost:       resourceCost,
		Outcome:            models.OutcomePending,
		CreatedAt:          time.Now(),
	}

	if err := e.repo.CreateMobilityEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// ResolveMobility settles a pending event exactly once. Missing resources
// fail deterministically; otherwise one uniform roll against the stored
// probability decides, and success moves a household between the tiers
// atomically. Resolving a terminal event returns a conflict.
func (e *Engine) ResolveMobility(ctx context.Context, eventID string, resourcesProvided models.ResourceCost) (*models.SocialMobilityEvent, error) {
	event, err := e.repo.GetMobilityEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Outcome != models.OutcomePending {
		return nil, &repositories.ConflictError{Entity: "social_mobility_event", Field: "outcome", Value: event.Outcome}
	}

	outcome := models.OutcomeFailure
	if meetsResourceRequirements(event.ResourceCost, resourcesProvided) {
		if e.roller.Float() <= event.SuccessProbability {
			outcome = models.OutcomeSuccess
		}
	}

	resolved, err := e.repo.ResolveMobilityEvent(ctx, eventID, outcome)
	if err != nil {
		return nil, err
	}

	slog.Info("Mobility event resolved",
		slog.String("engine", "households"),
		slog.String("civilization_id", event.CivilizationID),
		slog.String("event_type", string(event.EventType)),
		slog.String("outcome", string(outcome)),
	)
	return resolved, nil
}

func meetsResourceRequirements(required, provided models.ResourceCost) bool {
	for resource, amount := range required {
		if provided[resource] < amount {
			return false
		}
	}
	return true
}

// TierDistribution summarizes one tier for status reporting.
type TierDistribution struct {
	Count       int64
	Percentage  float64
	TotalIncome float64
}

// EconomicStatus is the aggregate view over a civilization's tiers.
type EconomicStatus struct {
	Tiers               map[models.TierName]TierDistribution
	GiniCoefficient     float64
	AverageMobilityRate float64
	EconomicHealthScore float64
}

// EconomicStatus derives a Gini-like inequality estimate from tier income
// shares and a composite 0-100 health score.
func (e *Engine) EconomicStatus(ctx context.Context, civilizationID string) (*EconomicStatus, error) {
	tiers, err := e.repo.GetTiers(ctx, civilizationID)
	if err != nil {
		return nil, err
	}

	status := &EconomicStatus{
		Tiers: make(map[models.TierName]TierDistribution, len(tiers)),
	}

	var totalIncome, mobilitySum, incomeSum float64
	for _, t := range tiers {
		tierIncome := float64(t.HouseholdCount) * t.AverageIncome
		totalIncome += tierIncome
		mobilitySum += t.SocialMobilityRate
		incomeSum += t.AverageIncome
		status.Tiers[t.TierName] = TierDistribution{
			Count:       t.HouseholdCount,
			Percentage:  t.PopulationPercentage,
			TotalIncome: tierIncome,
		}
	}

	status.GiniCoefficient = giniEstimate(status.Tiers, totalIncome)
	if len(tiers) > 0 {
		status.AverageMobilityRate = mobilitySum / float64(len(tiers))
	}
	status.EconomicHealthScore = healthScore(status.GiniCoefficient, mobilitySum, incomeSum, len(tiers))
	return status, nil
}

// giniEstimate approximates inequality from the spread between the rich
// and poor income shares, bounded to [0, 1].
func giniEstimate(tiers map[models.TierName]TierDistribution, totalIncome float64) float64 {
	if totalIncome <= 0 {
		return 0
	}
	poor, okPoor := tiers[models.TierPoor]
	rich, okRich := tiers[models.TierRich]
	if !okPoor || !okRich {
		return 0
	}
	poorShare := poor.TotalIncome / totalIncome
	richShare := rich.TotalIncome / totalIncome
	return math.Max(0, math.Min(1, (richShare-poorShare)*1.5))
}

// healthScore composes 40 points from equality, up to 30 from mobility,
// and up to 30 from average income.
func healthScore(gini, mobilitySum, incomeSum float64, tierCount int) float64 {
	if tierCount == 0 {
		return 0
	}
	inequalityScore := (1 - gini) * 40
	mobilityScore := math.Min(30, mobilitySum*1000)
	incomeScore := math.Min(30, (incomeSum/float64(tierCount))/5000)
	return math.Max(0, math.Min(100, inequalityScore+mobilityScore+incomeScore))
}
