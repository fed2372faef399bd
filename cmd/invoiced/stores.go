package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/drivers/sqlitedriver"

	ledger "github.com/xraph/invoiceledger"
	"github.com/xraph/invoiceledger/blob"
	blobfs "github.com/xraph/invoiceledger/blob/fs"
	blobs3 "github.com/xraph/invoiceledger/blob/s3"
	"github.com/xraph/invoiceledger/cache"
	"github.com/xraph/invoiceledger/config"
	"github.com/xraph/invoiceledger/observability"
	"github.com/xraph/invoiceledger/store"
	"github.com/xraph/invoiceledger/store/memory"
	"github.com/xraph/invoiceledger/store/mongo"
	"github.com/xraph/invoiceledger/store/postgres"
	"github.com/xraph/invoiceledger/store/sqlite"
)

// openStore connects the configured backend. For mongo the database name
// is taken from the connection string path.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverPostgres:
		drv := pgdriver.New()
		if err := drv.Open(ctx, cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db, err := grove.Open(drv)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return postgres.New(db), nil
	case config.DriverSQLite:
		drv := sqlitedriver.New()
		if err := drv.Open(ctx, sqliteDSN(cfg.DatabaseURL)); err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		db, err := grove.Open(drv)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return sqlite.New(db), nil
	case config.DriverMongo:
		drv := mongodriver.New()
		if err := drv.Open(ctx, cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("open mongo: %w", err)
		}
		db, err := grove.Open(drv)
		if err != nil {
			return nil, fmt.Errorf("open mongo: %w", err)
		}
		return mongo.New(db), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func openDocuments(cfg *config.Config) (blob.Store, error) {
	switch {
	case cfg.S3Bucket != "":
		return blobs3.New(blobs3.Config{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
			Prefix:   "invoiced/",
		})
	case cfg.DocumentDir != "":
		return blobfs.New(cfg.DocumentDir)
	default:
		return nil, nil
	}
}

// runtime is a configured ledger plus the resources it owns besides its store.
type runtime struct {
	ledger  *ledger.Ledger
	metrics *observability.Prometheus
	redis   *redis.Client
}

func (r *runtime) close() {
	if r.redis != nil {
		_ = r.redis.Close()
	}
}

// build wires a ledger from cfg. The caller starts it.
func build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*runtime, error) {
	s, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	rt := &runtime{}
	opts := []ledger.Option{
		ledger.WithLogger(logger),
		ledger.WithCurrency(cfg.Currency),
		ledger.WithNumberRetries(cfg.NumberRetries),
	}
	if cfg.StrictTransitions {
		opts = append(opts, ledger.WithStrictTransitions())
	}

	if cfg.RedisAddr != "" {
		rt.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		sc := cache.NewStatsCache(rt.redis, cfg.StatsTTL)
		if err := sc.Ping(ctx); err != nil {
			rt.close()
			_ = s.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		opts = append(opts, ledger.WithStatsCache(sc))
	}

	docs, err := openDocuments(cfg)
	if err != nil {
		rt.close()
		_ = s.Close()
		return nil, fmt.Errorf("open document store: %w", err)
	}
	if docs != nil {
		opts = append(opts, ledger.WithDocumentStore(docs))
	}

	if cfg.Metrics {
		rt.metrics = observability.NewPrometheus()
		opts = append(opts, ledger.WithPlugin(observability.NewMetricsExtension(rt.metrics)))
	}

	rt.ledger = ledger.New(s, opts...)
	return rt, nil
}

// sqliteDSN turns on foreign key enforcement unless the DSN sets it.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}
