package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/pantry/internal/insights"
	"github.com/odyssey-erp/pantry/internal/inventory"
	"github.com/odyssey-erp/pantry/internal/observability"
	"github.com/odyssey-erp/pantry/internal/platform/cache"
	"github.com/odyssey-erp/pantry/internal/platform/db"
	"github.com/odyssey-erp/pantry/internal/purchasing"
	"github.com/odyssey-erp/pantry/internal/requests"
	"github.com/odyssey-erp/pantry/internal/shared"
	"github.com/odyssey-erp/pantry/internal/store"
)

const redisKeyPrefix = "pantry"

// Backends holds the external connections a process opened.
type Backends struct {
	Pool  *pgxpool.Pool
	Redis *redis.Client
}

// OpenBackends connects to postgres and redis as the configuration requires.
// Redis is optional unless it backs the store; an unreachable optional redis
// is logged and skipped.
func OpenBackends(ctx context.Context, cfg *Config, logger *slog.Logger) (*Backends, error) {
	b := &Backends{}
	if cfg.StoreDriver == StorePostgres {
		pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns, MaxConnLifetime: 30 * time.Minute})
		if err != nil {
			return nil, err
		}
		if err := db.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		b.Pool = pool
	}
	if cfg.RedisEnabled() {
		client, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		switch {
		case err == nil:
			b.Redis = client
		case cfg.StoreDriver == StoreRedis:
			b.Close(logger)
			return nil, err
		default:
			logger.Warn("redis unavailable, continuing without cache", slog.Any("error", err))
		}
	}
	return b, nil
}

// Close releases every open connection.
func (b *Backends) Close(logger *slog.Logger) {
	if b == nil {
		return
	}
	if b.Redis != nil {
		if err := b.Redis.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}
	if b.Pool != nil {
		b.Pool.Close()
	}
}

// Services bundles the domain services of one process.
type Services struct {
	Docs       store.DocumentStore
	Inventory  *inventory.Service
	Requests   *requests.Service
	Purchasing *purchasing.Service
	Advisor    *insights.Advisor
	Cache      *insights.Cache
	Reporter   purchasing.Reporter
}

// NewServices wires the domain services on top of the opened backends.
func NewServices(cfg *Config, logger *slog.Logger, backends *Backends, metrics *observability.Metrics) (*Services, error) {
	docs, err := newDocumentStore(cfg, backends)
	if err != nil {
		return nil, err
	}

	var idem *shared.IdempotencyStore
	switch {
	case backends.Pool != nil:
		idem = shared.NewIdempotencyStore(backends.Pool)
	case backends.Redis != nil:
		idem = shared.NewRedisIdempotencyStore(backends.Redis, cfg.IdempotencyTTL)
	default:
		idem = shared.NewMemoryIdempotencyStore()
	}
	audit := shared.NewAuditLogger(backends.Pool, logger)
	approvals := shared.NewApprovalRecorder(backends.Pool, logger)

	insightsCache := insights.NewCache(backends.Redis, cfg.InsightsTTL)
	model, err := insights.NewOpenAIModel(insights.ModelConfig{Model: cfg.LLMModel, Token: cfg.LLMToken, BaseURL: cfg.LLMBaseURL})
	if err != nil {
		return nil, err
	}
	if model == nil {
		logger.Info("LLM_TOKEN not set, AI assistant disabled")
	}

	var ledgerMetrics *observability.LedgerMetrics
	if metrics != nil {
		ledgerMetrics = metrics.Ledger()
	}
	locks := shared.NewUnitLocks()

	inventorySvc := inventory.NewService(inventory.NewRepository(docs), audit, idem, inventory.ServiceConfig{
		Logger:   logger,
		Locks:    locks,
		Metrics:  ledgerMetrics,
		Notifier: insightsCache,
	})
	requestsSvc := requests.NewService(requests.NewRepository(docs), approvals, requests.ServiceConfig{
		Logger:   logger,
		Locks:    locks,
		Audit:    audit,
		Metrics:  ledgerMetrics,
		Notifier: insightsCache,
	})

	return &Services{
		Docs:       docs,
		Inventory:  inventorySvc,
		Requests:   requestsSvc,
		Purchasing: purchasing.NewService(inventorySvc, docs, logger),
		Advisor:    insights.NewAdvisor(model, insightsCache, logger),
		Cache:      insightsCache,
	}, nil
}

func newDocumentStore(cfg *Config, backends *Backends) (store.DocumentStore, error) {
	switch cfg.StoreDriver {
	case StorePostgres:
		if backends.Pool == nil {
			return nil, fmt.Errorf("app: postgres store requires a pool")
		}
		return store.NewPostgres(backends.Pool), nil
	case StoreRedis:
		if backends.Redis == nil {
			return nil, fmt.Errorf("app: redis store requires a client")
		}
		return store.NewRedis(backends.Redis, redisKeyPrefix), nil
	default:
		return store.NewMemory(), nil
	}
}
