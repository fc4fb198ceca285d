package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aspired-future/startales-econsim/econsim"
	"github.com/aspired-future/startales-econsim/econsim/database"
	"github.com/aspired-future/startales-econsim/econsim/database/repositories"
	"github.com/aspired-future/startales-econsim/econsim/economy/entropy"
	"github.com/aspired-future/startales-econsim/econsim/economy/fiscal"
	"github.com/aspired-future/startales-econsim/econsim/economy/households"
	"github.com/aspired-future/startales-econsim/econsim/economy/inflation"
	"github.com/aspired-future/startales-econsim/econsim/logger"
	"golang.org/x/sync/errgroup"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	path := flag.String("config", "config.toml", "path to config")
	initCivs := flag.Bool("init-civs", false, "initialize household tiers for configured civilizations")
	flag.Parse()

	cfg, err := econsim.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}

	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     cfg.Log.Level,
			AddSource: cfg.Log.AddSource,
		})
	} else {
		handler = logger.NewHandler(cfg.Log.Level, cfg.Log.AddSource)
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("Starting economic simulation core",
		slog.String("version", version),
		slog.String("commit", commit))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbStartTime := time.Now()
	db, err := database.New(ctx, cfg.DB)
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	defer db.Close()

	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Schema initialization failed", slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Database ready",
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStartTime)))

	bunDB := db.BunDB()
	householdRepo := repositories.NewHouseholdRepository(bunDB)
	fiscalRepo := repositories.NewFiscalRepository(bunDB)
	stateRepo := repositories.NewStateRepository(bunDB)
	inflationRepo := repositories.NewInflationRepository(bunDB)
	narrativeRepo := repositories.NewNarrativeRepository(bunDB)

	var roller entropy.Roller
	if cfg.Sim.RandomSeed != 0 {
		roller = entropy.NewSeeded(cfg.Sim.RandomSeed)
	} else {
		roller = entropy.NewCrypto()
	}

	householdEngine := households.NewEngine(householdRepo, roller)
	fiscalEngine := fiscal.NewEngine(repositories.NewBaseRepository(bunDB), fiscalRepo, stateRepo, narrativeRepo)
	inflationEngine, err := inflation.NewEngine(inflationRepo)
	if err != nil {
		slog.Error("Inflation engine init failed", slog.Any("error", err))
		os.Exit(-1)
	}

	if *initCivs {
		for _, civID := range cfg.Sim.Civilizations {
			if err := householdEngine.Initialize(ctx, civID, 1_000_000); err != nil {
				slog.Error("Civilization initialization failed",
					slog.String("civilization_id", civID),
					slog.Any("error", err))
				os.Exit(-1)
			}
		}
	}

	tickInterval := time.Duration(cfg.Sim.TickInterval) * time.Second
	if tickInterval <= 0 {
		tickInterval = time.Minute
	}

	go runTicks(ctx, cfg, fiscalEngine, inflationEngine, stateRepo, tickInterval)

	logger.LogSystem("Simulation core is now running. Press CTRL-C to exit.")
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
	logger.LogSystem("Shutting down...")
	cancel()
}

// runTicks drives the periodic batch work: fiscal effect ramping once per
// tick, then metrics and forecasts fanned out per civilization.
func runTicks(ctx context.Context, cfg *econsim.Config, fiscalEngine *fiscal.Engine, inflationEngine *inflation.Engine, stateRepo repositories.StateRepository, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick(ctx, cfg, fiscalEngine, inflationEngine, stateRepo)
		}
	}
}

func tick(ctx context.Context, cfg *econsim.Config, fiscalEngine *fiscal.Engine, inflationEngine *inflation.Engine, stateRepo repositories.StateRepository) {
	start := time.Now()

	_, err := fiscalEngine.UpdateFiscalEffectProgress(ctx)
	logger.LogTick("fiscal", time.Since(start), err)

	g, gctx := errgroup.WithContext(ctx)
	for _, civID := range cfg.Sim.Civilizations {
		civID := civID
		g.Go(func() error {
			civStart := time.Now()
			if _, err := inflationEngine.CalculateMetrics(gctx, civID); err != nil {
				logger.LogError("Metrics pass failed", err, slog.String("civilization_id", civID))
				return err
			}
			if _, err := inflationEngine.GenerateForecast(gctx, civID); err != nil {
				logger.LogError("Forecast pass failed", err, slog.String("civilization_id", civID))
				return err
			}
			if cfg.Sim.FiscalDecayRetention > 0 && cfg.Sim.FiscalDecayRetention < 1 {
				if _, err := stateRepo.DecayFiscalModifiers(gctx, civID, cfg.Sim.FiscalDecayRetention); err != nil {
					logger.LogError("Decay pass failed", err, slog.String("civilization_id", civID))
					return err
				}
			}
			logger.LogTick("inflation", time.Since(civStart), nil)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.LogError("Tick completed with errors", err)
	}
}
