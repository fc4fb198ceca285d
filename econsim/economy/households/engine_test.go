package households

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/aspired-future/startales-econsim/econsim/database/models"
	"github.com/aspired-future/startales-econsim/econsim/database/repositories"
)

// fakeHouseholdRepo is an in-memory stand-in for the Postgres repository.
type fakeHouseholdRepo struct {
	tiers    map[string][]*models.HouseholdTier
	profiles map[string][]*models.ConsumptionProfile
	events   map[string]*models.SocialMobilityEvent
}

func newFakeHouseholdRepo() *fakeHouseholdRepo {
	return &fakeHouseholdRepo{
		tiers:    make(map[string][]*models.HouseholdTier),
		profiles: make(map[string][]*models.ConsumptionProfile),
		events:   make(map[string]*models.SocialMobilityEvent),
	}
}

func (f *fakeHouseholdRepo) ReplaceTiers(_ context.Context, civID string, tiers []*models.HouseholdTier) error {
	f.tiers[civID] = tiers
	return nil
}

func (f *fakeHouseholdRepo) GetTiers(_ context.Context, civID string) ([]*models.HouseholdTier, error) {
	tiers, ok := f.tiers[civID]
	if !ok || len(tiers) == 0 {
		return nil, &repositories.NotFoundError{Entity: "household_tier", ID: civID}
	}
	return tiers, nil
}

func (f *fakeHouseholdRepo) GetTier(_ context.Context, civID string, tier models.TierName) (*models.HouseholdTier, error) {
	for _, t := range f.tiers[civID] {
		if t.TierName == tier {
			return t, nil
		}
	}
	return nil, &repositories.NotFoundError{Entity: "household_tier", ID: tier}
}

func (f *fakeHouseholdRepo) ReplaceProfiles(_ context.Context, civID string, profiles []*models.ConsumptionProfile) error {
	f.profiles[civID] = profiles
	return nil
}

func (f *fakeHouseholdRepo) GetProfilesByResource(_ context.Context, civID string, resource models.ResourceType) ([]*models.ConsumptionProfile, error) {
	var out []*models.ConsumptionProfile
	for _, p := range f.profiles[civID] {
		if p.ResourceType == resource {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeHouseholdRepo) CreateMobilityEvent(_ context.Context, event *models.SocialMobilityEvent) error {
	f.events[event.ID] = event
	return nil
}

func (f *fakeHouseholdRepo) GetMobilityEvent(_ context.Context, id string) (*models.SocialMobilityEvent, error) {
	event, ok := f.events[id]
	if !ok {
		return nil, &repositories.NotFoundError{Entity: "social_mobility_event", ID: id}
	}
	return event, nil
}

func (f *fakeHouseholdRepo) ResolveMobilityEvent(_ context.Context, id string, outcome models.MobilityOutcome) (*models.SocialMobilityEvent, error) {
	event, ok := f.events[id]
	if !ok {
		return nil, &repositories.NotFoundError{Entity: "social_mobility_event", ID: id}
	}
	if event.Outcome != models.OutcomePending {
		return nil, &repositories.ConflictError{Entity: "social_mobility_event", Field: "outcome", Value: event.Outcome}
	}
	now := time.Now()
	event.Outcome = outcome
	event.ResolvedAt = &now

	if outcome == models.OutcomeSuccess {
		var from, to *models.HouseholdTier
		var total int64
		for _, t := range f.tiers[event.CivilizationID] {
			total += t.HouseholdCount
			switch t.TierName {
			case event.FromTier:
				from = t
			case event.ToTier:
				to = t
			}
		}
		if from.HouseholdCount < 1 {
			return nil, repositories.ErrTierCountNegative
		}
		from.HouseholdCount--
		to.HouseholdCount++
		for _, t := range f.tiers[event.CivilizationID] {
			t.PopulationPercentage = float64(t.HouseholdCount) / float64(total) * 100
		}
	}
	return event, nil
}

// fixedRoller always returns the same value.
type fixedRoller struct{ v float64 }

func (r fixedRoller) Float() float64 { return r.v }

func TestInitialize(t *testing.T) {
	repo := newFakeHouseholdRepo()
	engine := NewEngine(repo, fixedRoller{0.5})
	ctx := context.Background()

	if err := engine.Initialize(ctx, "civ1", 1_000_000); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	tiers := repo.tiers["civ1"]
	if len(tiers) != 3 {
		t.Fatalf("got %d tiers, want 3", len(tiers))
	}

	var pctSum float64
	counts := make(map[models.TierName]int64)
	for _, tier := range tiers {
		pctSum += tier.PopulationPercentage
		counts[tier.TierName] = tier.HouseholdCount
	}
	if math.Abs(pctSum-100) > 0.5 {
		t.Errorf("population percentages sum to %v, want 100±0.5", pctSum)
	}
	if counts[models.TierPoor] != 400_000 || counts[models.TierMedian] != 500_000 || counts[models.TierRich] != 100_000 {
		t.Errorf("tier counts = %v, want 400000/500000/100000", counts)
	}

	if got := len(repo.profiles["civ1"]); got != 27 {
		t.Errorf("got %d consumption profiles, want 27", got)
	}

	// Re-initialization overwrites rather than duplicating.
	if err := engine.Initialize(ctx, "civ1", 500_000); err != nil {
		t.Fatalf("re-Initialize() error = %v", err)
	}
	if got := len(repo.tiers["civ1"]); got != 3 {
		t.Errorf("got %d tiers after re-init, want 3", got)
	}
}

func TestComputeDemand(t *testing.T) {
	repo := newFakeHouseholdRepo()
	engine := NewEngine(repo, fixedRoller{0.5})
	ctx := context.Background()

	if err := engine.Initialize(ctx, "civ1", 1000); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	tests := []struct {
		name       string
		price      float64
		cultural   float64
		seasonal   float64
		wantImpact float64 // for the poor tier (water, elasticity -0.2)
	}{
		{
			name:       "reference price leaves demand unchanged",
			price:      100,
			cultural:   1,
			seasonal:   1,
			wantImpact: 1,
		},
		{
			name:       "doubled price cuts demand per elasticity",
			price:      200,
			cultural:   1,
			seasonal:   1,
			wantImpact: math.Pow(2, -0.2),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := engine.ComputeDemand(ctx, "civ1", models.ResourceWater, tt.price, tt.cultural, tt.seasonal)
			if err != nil {
				t.Fatalf("ComputeDemand() error = %v", err)
			}
			if len(results) != 3 {
				t.Fatalf("got %d results, want 3", len(results))
			}
			for _, r := range results {
				if r.Tier != models.TierPoor {
					continue
				}
				if math.Abs(r.ElasticityImpact-tt.wantImpact) > 1e-9 {
					t.Errorf("elasticity impact = %v, want %v", r.ElasticityImpact, tt.wantImpact)
				}
				wantFinal := r.BaseDemand * tt.wantImpact * tt.cultural * tt.seasonal
				if math.Abs(r.FinalDemand-wantFinal) > 1e-6 {
					t.Errorf("final demand = %v, want %v", r.FinalDemand, wantFinal)
				}
			}
		})
	}
}

func TestComputeDemandClampsAtZeroPrice(t *testing.T) {
	repo := newFakeHouseholdRepo()
	engine := NewEngine(repo, fixedRoller{0.5})
	ctx := context.Background()

	if err := engine.Initialize(ctx, "civ1", 1000); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	results, err := engine.ComputeDemand(ctx, "civ1", models.ResourceFood, 0, 1, 1)
	if err != nil {
		t.Fatalf("ComputeDemand() error = %v", err)
	}
	for _, r := range results {
		if math.IsInf(r.FinalDemand, 0) || math.IsNaN(r.FinalDemand) || r.FinalDemand < 0 {
			t.Errorf("final demand for %s = %v, want finite non-negative", r.Tier, r.FinalDemand)
		}
	}
}

func TestProposeMobilityOpportunity(t *testing.T) {
	tests := []struct {
		name      string
		eventType models.MobilityEventType
		fromTier  models.TierName
		wantProb  float64
	}{
		{"education from poor", models.MobilityEducationInvestment, models.TierPoor, 0.15},
		{"education from median", models.MobilityEducationInvestment, models.TierMedian, 0.25},
		{"business start from poor", models.MobilityBusinessStart, models.TierPoor, 0.08},
		{"inheritance", models.MobilityInheritance, models.TierMedian, 0.95},
		{"cultural shift", models.MobilityCulturalShift, models.TierPoor, 0.05},
	}

	repo := newFakeHouseholdRepo()
	engine := NewEngine(repo, fixedRoller{0.5})
	ctx := context.Background()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toTier := models.TierMedian
			if tt.fromTier == models.TierMedian {
				toTier = models.TierRich
			}
			event, err := engine.ProposeMobilityOpportunity(ctx, "civ1", 1, "hh1", tt.eventType, tt.fromTier, toTier, nil)
			if err != nil {
				t.Fatalf("ProposeMobilityOpportunity() error = %v", err)
			}
			if event.SuccessProbability != tt.wantProb {
				t.Errorf("success probability = %v, want %v", event.SuccessProbability, tt.wantProb)
			}
			if event.Outcome != models.OutcomePending {
				t.Errorf("outcome = %v, want pending", event.Outcome)
			}
		})
	}
}

func TestProposeMobilitySameTierFails(t *testing.T) {
	engine := NewEngine(newFakeHouseholdRepo(), fixedRoller{0.5})
	_, err := engine.ProposeMobilityOpportunity(context.Background(), "civ1", 1, "hh1", models.MobilityMarriage, models.TierPoor, models.TierPoor, nil)
	var ve *repositories.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("error = %v, want ValidationError", err)
	}
}

func TestResolveMobility(t *testing.T) {
	ctx := context.Background()

	setup := func(roller fixedRoller) (*Engine, *fakeHouseholdRepo, *models.SocialMobilityEvent) {
		repo := newFakeHouseholdRepo()
		engine := NewEngine(repo, roller)
		if err := engine.Initialize(ctx, "civ1", 1000); err != nil {
			t.Fatalf("Initialize() error = %v", err)
		}
		event, err := engine.ProposeMobilityOpportunity(ctx, "civ1", 1, "hh1",
			models.MobilityEducationInvestment, models.TierPoor, models.TierMedian,
			models.ResourceCost{"education": 5000, "gold": 2000})
		if err != nil {
			t.Fatalf("ProposeMobilityOpportunity() error = %v", err)
		}
		return engine, repo, event
	}

	t.Run("insufficient resources fail deterministically", func(t *testing.T) {
		// Roller would succeed, but the resource check precedes the roll.
		engine, repo, event := setup(fixedRoller{0.0})
		resolved, err := engine.ResolveMobility(ctx, event.ID, models.ResourceCost{"education": 100})
		if err != nil {
			t.Fatalf("ResolveMobility() error = %v", err)
		}
		if resolved.Outcome != models.OutcomeFailure {
			t.Errorf("outcome = %v, want failure", resolved.Outcome)
		}
		poor, _ := repo.GetTier(ctx, "civ1", models.TierPoor)
		if poor.HouseholdCount != 400 {
			t.Errorf("poor count = %d, want unchanged 400", poor.HouseholdCount)
		}
	})

	t.Run("successful roll moves one household", func(t *testing.T) {
		engine, repo, event := setup(fixedRoller{0.1}) // 0.1 <= 0.15
		resolved, err := engine.ResolveMobility(ctx, event.ID, models.ResourceCost{"education": 5000, "gold": 2000})
		if err != nil {
			t.Fatalf("ResolveMobility() error = %v", err)
		}
		if resolved.Outcome != models.OutcomeSuccess {
			t.Fatalf("outcome = %v, want success", resolved.Outcome)
		}

		poor, _ := repo.GetTier(ctx, "civ1", models.TierPoor)
		median, _ := repo.GetTier(ctx, "civ1", models.TierMedian)
		if poor.HouseholdCount != 399 || median.HouseholdCount != 501 {
			t.Errorf("counts = %d/%d, want 399/501", poor.HouseholdCount, median.HouseholdCount)
		}

		var pctSum float64
		tiers, _ := repo.GetTiers(ctx, "civ1")
		for _, tier := range tiers {
			pctSum += tier.PopulationPercentage
		}
		if math.Abs(pctSum-100) > 0.5 {
			t.Errorf("percentages sum to %v after transition, want 100±0.5", pctSum)
		}
	})

	t.Run("failed roll keeps counts", func(t *testing.T) {
		engine, repo, event := setup(fixedRoller{0.9}) // 0.9 > 0.15
		resolved, err := engine.ResolveMobility(ctx, event.ID, models.ResourceCost{"education": 5000, "gold": 2000})
		if err != nil {
			t.Fatalf("ResolveMobility() error = %v", err)
		}
		if resolved.Outcome != models.OutcomeFailure {
			t.Errorf("outcome = %v, want failure", resolved.Outcome)
		}
		poor, _ := repo.GetTier(ctx, "civ1", models.TierPoor)
		if poor.HouseholdCount != 400 {
			t.Errorf("poor count = %d, want 400", poor.HouseholdCount)
		}
	})

	t.Run("re-resolving a terminal event errors without touching counts", func(t *testing.T) {
		engine, repo, event := setup(fixedRoller{0.1})
		if _, err := engine.ResolveMobility(ctx, event.ID, models.ResourceCost{"education": 5000, "gold": 2000}); err != nil {
			t.Fatalf("first ResolveMobility() error = %v", err)
		}

		_, err := engine.ResolveMobility(ctx, event.ID, models.ResourceCost{"education": 5000, "gold": 2000})
		var ce *repositories.ConflictError
		if !errors.As(err, &ce) {
			t.Fatalf("second resolve error = %v, want ConflictError", err)
		}

		poor, _ := repo.GetTier(ctx, "civ1", models.TierPoor)
		median, _ := repo.GetTier(ctx, "civ1", models.TierMedian)
		if poor.HouseholdCount != 399 || median.HouseholdCount != 501 {
			t.Errorf("counts moved twice: %d/%d, want 399/501", poor.HouseholdCount, median.HouseholdCount)
		}
	})
}

func TestEconomicStatus(t *testing.T) {
	repo := newFakeHouseholdRepo()
	engine := NewEngine(repo, fixedRoller{0.5})
	ctx := context.Background()

	if err := engine.Initialize(ctx, "civ1", 1_000_000); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	status, err := engine.EconomicStatus(ctx, "civ1")
	if err != nil {
		t.Fatalf("EconomicStatus() error = %v", err)
	}

	// Income shares: poor 400k*25k=1e10, median 500k*75k=3.75e10,
	// rich 100k*300k=3e10, total 7.75e10.
	total := 1e10 + 3.75e10 + 3e10
	wantGini := math.Min(1, (3e10/total-1e10/total)*1.5)
	if math.Abs(status.GiniCoefficient-wantGini) > 1e-9 {
		t.Errorf("gini = %v, want %v", status.GiniCoefficient, wantGini)
	}

	wantMobility := (0.005 + 0.015 + 0.002) / 3
	if math.Abs(status.AverageMobilityRate-wantMobility) > 1e-12 {
		t.Errorf("mobility rate = %v, want %v", status.AverageMobilityRate, wantMobility)
	}

	if status.EconomicHealthScore < 0 || status.EconomicHealthScore > 100 {
		t.Errorf("health score = %v, want within [0, 100]", status.EconomicHealthScore)
	}

	wantHealth := (1-wantGini)*40 + math.Min(30, (0.005+0.015+0.002)*1000) + math.Min(30, ((25000.0+75000+300000)/3)/5000)
	if math.Abs(status.EconomicHealthScore-wantHealth) > 1e-9 {
		t.Errorf("health score = %v, want %v", status.EconomicHealthScore, wantHealth)
	}
}
