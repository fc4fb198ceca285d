package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"time"

	"log/slog"

	"github.com/aspired-future/startales-econsim/econsim/database/models"
	"github.com/uptrace/bun"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

const (
	defaultConnTimeout   = 5 * time.Second
	defaultMaxRetries    = 3
	defaultRetryInterval = time.Second
)

type DBConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	Database     string `toml:"database"`
	PoolSize     int    `toml:"pool_size"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	MaxLifetime  int    `toml:"max_lifetime"`
}

type DB struct {
	pool  *pgxpool.Pool
	bunDB *bun.DB
}

func New(ctx context.Context, cfg DBConfig) (*DB, error) {
	// Probe reachability before building the pool so startup fails fast
	// with a clear error instead of a pool timeout.
	var conn net.Conn
	var err error

	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
	for i := 0; i < defaultMaxRetries; i++ {
		conn, err = net.DialTimeout("tcp", addr, defaultConnTimeout)
		if err == nil {
			break
		}
		time.Sleep(defaultRetryInterval)
	}
	if err != nil {
		return nil, fmt.Errorf("database server unreachable after %d attempts: %w", defaultMaxRetries, err)
	}
	defer conn.Close()

	poolConfig, err := pgxpool.ParseConfig(buildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if cfg.PoolSize > 0 {
		poolConfig.MaxConns = int32(cfg.PoolSize)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = time.Duration(cfg.MaxLifetime) * time.Second
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return &DB{pool: pool, bunDB: newBunDB(pool)}, nil
}

func buildConnString(cfg DBConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?connect_timeout=5",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
	)
}

func (db *DB) GetPool() *pgxpool.Pool {
	return db.pool
}

func (db *DB) BunDB() *bun.DB {
	return db.bunDB
}

func newBunDB(pool *pgxpool.Pool) *bun.DB {
	sslMode := os.Getenv("PG_SSLMODE")
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		pool.Config().ConnConfig.User,
		pool.Config().ConnConfig.Password,
		pool.Config().ConnConfig.Host,
		pool.Config().ConnConfig.Port,
		pool.Config().ConnConfig.Database,
		sslMode,
	)

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	return db.pool.Ping(ctx)
}

func (db *DB) ExecWithLog(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	start := time.Now()
	result, err := db.pool.Exec(ctx, sql, args...)
	duration := time.Since(start)

	if err != nil {
		slog.Error("Query failed",
			slog.String("type", "db"),
			slog.String("operation", "exec"),
			slog.String("query", sql),
			slog.Duration("took", duration),
			slog.Any("error", err),
		)
		return result, err
	}

	slog.Debug("Query executed",
		slog.String("type", "db"),
		slog.String("operation", "exec"),
		slog.String("query", sql),
		slog.Duration("took", duration),
		slog.Int64("affected_rows", result.RowsAffected()),
	)
	return result, nil
}

func (db *DB) QueryWithLog(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	start := time.Now()
	rows, err := db.pool.Query(ctx, sql, args...)
	duration := time.Since(start)

	if err != nil {
		slog.Error("Query failed",
			slog.String("type", "db"),
			slog.String("operation", "query"),
			slog.String("query", sql),
			slog.Duration("took", duration),
			slog.Any("error", err),
		)
		return rows, err
	}

	slog.Debug("Query executed",
		slog.String("type", "db"),
		slog.String("operation", "query"),
		slog.String("query", sql),
		slog.Duration("took", duration),
	)
	return rows, nil
}

func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
	if db.bunDB != nil {
		db.bunDB.Close()
	}
}

// InitializeSchema creates all required database tables and indexes
func (db *DB) InitializeSchema(ctx context.Context) error {
	tables := []interface{}{
		(*models.HouseholdTier)(nil),
		(*models.ConsumptionProfile)(nil),
		(*models.SocialMobilityEvent)(nil),
		(*models.FiscalPolicyEffect)(nil),
		(*models.SimulationStateModifier)(nil),
		(*models.EconomicBehavioralEffect)(nil),
		(*models.InflationMetrics)(nil),
		(*models.InflationForecast)(nil),
		(*models.PriceBasket)(nil),
		(*models.ResourcePrice)(nil),
		(*models.MonetaryPolicy)(nil),
		(*models.NarrativeInput)(nil),
	}

	for _, model := range tables {
		query := db.bunDB.NewCreateTable().
			Model(model).
			IfNotExists()

		_, err := query.Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_household_tiers_civ_tier ON household_tiers(civilization_id, tier_name);",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_consumption_profiles_key ON consumption_profiles(civilization_id, tier_name, resource_type);",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_state_modifiers_key ON simulation_state_modifiers(civilization_id, modifier_type, modifier_category);",
		"CREATE INDEX IF NOT EXISTS idx_mobility_events_civ ON social_mobility_events(civilization_id);",
		"CREATE INDEX IF NOT EXISTS idx_mobility_events_pending ON social_mobility_events(civilization_id, created_at) WHERE outcome = 'pending';",
		"CREATE INDEX IF NOT EXISTS idx_fiscal_effects_civ_category ON fiscal_policy_effects(civilization_id, policy_category);",
		"CREATE INDEX IF NOT EXISTS idx_fiscal_effects_ramping ON fiscal_policy_effects(created_at) WHERE implementation_progress < 1;",
		"CREATE INDEX IF NOT EXISTS idx_behavioral_effects_civ ON economic_behavioral_effects(civilization_id, created_at);",
		"CREATE INDEX IF NOT EXISTS idx_inflation_metrics_civ_ts ON inflation_metrics(civilization_id, timestamp DESC);",
		"CREATE INDEX IF NOT EXISTS idx_inflation_forecasts_civ_date ON inflation_forecasts(civilization_id, forecast_date DESC);",
		"CREATE INDEX IF NOT EXISTS idx_resource_prices_civ_ts ON resource_prices(civilization_id, timestamp DESC);",
		"CREATE INDEX IF NOT EXISTS idx_monetary_policy_civ_ts ON monetary_policy(civilization_id, timestamp DESC);",
		"CREATE INDEX IF NOT EXISTS idx_narrative_inputs_civ ON narrative_generation_inputs(civilization_id, created_at DESC);",
		"CREATE INDEX IF NOT EXISTS idx_narrative_inputs_unprocessed ON narrative_generation_inputs(civilization_id, created_at) WHERE processed_at IS NULL;",
	}

	for _, idx := range indexes {
		if _, err := db.ExecWithLog(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
