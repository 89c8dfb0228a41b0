package http

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/orris-inc/coinpayable/internal/application/payment/notification"
	"github.com/orris-inc/coinpayable/internal/application/payment/paymentlock"
	"github.com/orris-inc/coinpayable/internal/application/payment/usecases"
	"github.com/orris-inc/coinpayable/internal/domain/payment"
	"github.com/orris-inc/coinpayable/internal/infrastructure/blockchain"
	"github.com/orris-inc/coinpayable/internal/infrastructure/cache"
	"github.com/orris-inc/coinpayable/internal/infrastructure/config"
	"github.com/orris-inc/coinpayable/internal/infrastructure/exchangerate"
	"github.com/orris-inc/coinpayable/internal/infrastructure/pubsub"
	"github.com/orris-inc/coinpayable/internal/infrastructure/ratelimit"
	"github.com/orris-inc/coinpayable/internal/infrastructure/repository"
	"github.com/orris-inc/coinpayable/internal/infrastructure/scheduler"
	"github.com/orris-inc/coinpayable/internal/infrastructure/webhook"
	"github.com/orris-inc/coinpayable/internal/interfaces/http/handlers"
	"github.com/orris-inc/coinpayable/internal/shared/db"
	"github.com/orris-inc/coinpayable/internal/shared/logger"
)

// Container wires infrastructure, use cases and handlers together.
// The CLI commands reuse it without serving HTTP.
type Container struct {
	engine *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
	log    logger.Interface
	redis  *redis.Client

	settings usecases.Settings

	// Infrastructure
	paymentRepo *repository.CoinPaymentRepository
	rateRepo    *repository.ConversionRateRepository
	txManager   *db.TransactionManager
	adapters    *blockchain.Registry
	rates       *exchangerate.RepositoryRateProvider
	priceSource *exchangerate.CoinGeckoFetcher
	locker      paymentlock.Locker
	eventBus    *pubsub.RedisPaymentEventBus
	resolvers   *notification.ResolverRegistry

	// nil without redis or when server.refresh_rate_limit is 0
	refreshLimiter *ratelimit.RedisRateLimiter

	stateMachine *payment.StateMachine

	// Use cases
	createPaymentUC     *usecases.CreatePaymentUseCase
	getPaymentUC        *usecases.GetPaymentUseCase
	listPaymentsUC      *usecases.ListPaymentsUseCase
	refreshPaymentUC    *usecases.RefreshPaymentUseCase
	compPaymentUC       *usecases.CompPaymentUseCase
	reconcilePaymentsUC *usecases.ReconcilePaymentsUseCase
	updateRatesUC       *usecases.UpdateConversionRatesUseCase

	// Handlers
	paymentHandler *handlers.PaymentHandler
	healthHandler  *handlers.HealthHandler

	schedulerManager *scheduler.SchedulerManager
}

// NewContainer builds every component. Redis is optional: without it locks are process-local
// and lifecycle events are not broadcast.
func NewContainer(database *gorm.DB, cfg *config.Config, log logger.Interface) (*Container, error) {
	c := &Container{
		engine:   gin.New(),
		db:       database,
		cfg:      cfg,
		log:      log,
		settings: usecases.NewSettings(cfg.Payments, cfg.Rates, cfg.Coins),
	}

	if err := c.initInfrastructure(); err != nil {
		c.Shutdown()
		return nil, err
	}
	c.initUseCases()
	c.initHandlers()

	return c, nil
}

func (c *Container) initInfrastructure() error {
	if c.cfg.Redis.Enabled {
		c.redis = redis.NewClient(&redis.Options{
			Addr:     c.cfg.Redis.GetAddr(),
			Password: c.cfg.Redis.Password,
			DB:       c.cfg.Redis.DB,
		})
		if err := c.redis.Ping(context.Background()).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		c.log.Infow("redis connection established", "address", c.cfg.Redis.GetAddr())

		c.locker = cache.NewRedisPaymentLocker(c.redis, c.cfg.Payments.LockTTL, c.log.Named("payment_lock"))
		c.eventBus = pubsub.NewRedisPaymentEventBus(c.redis, c.log.Named("payment_events"))
		if c.cfg.Server.RefreshRateLimit > 0 {
			c.refreshLimiter = ratelimit.NewRedisRateLimiter(c.redis, c.cfg.Server.RefreshRateLimit, time.Minute)
		}
	} else {
		c.log.Warnw("redis disabled, payment locks are local to this process")
		c.locker = cache.NewLocalPaymentLocker()
	}

	c.paymentRepo = repository.NewCoinPaymentRepository(c.db, c.log)
	c.rateRepo = repository.NewConversionRateRepository(c.db)
	c.txManager = db.NewTransactionManager(c.db)

	adapters, err := blockchain.NewRegistryFromConfig(c.cfg.Coins, c.log.Named("blockchain"))
	if err != nil {
		return err
	}
	c.adapters = adapters

	c.rates = exchangerate.NewRepositoryRateProvider(c.rateRepo, c.cfg.Rates.MaxAge)
	c.priceSource = exchangerate.NewCoinGeckoFetcher(c.cfg.Rates.APIURL, c.cfg.Rates.APIKey, c.log.Named("coingecko"))

	c.resolvers = notification.NewResolverRegistry()
	bound := webhook.RegisterNotifiers(c.resolvers, c.cfg.Payables, c.adapters, c.settings.ExpireAfter, c.log.Named("webhook"))
	c.log.Infow("payable notifiers registered", "payable_types", bound)

	hooks := []payment.TransitionHook{
		notification.NewDispatcher(c.resolvers, c.log.Named("notification")),
	}
	if c.eventBus != nil {
		hooks = append(hooks, c.eventBus)
	}
	c.stateMachine = payment.NewStateMachine(c.paymentRepo, hooks...)

	return nil
}

func (c *Container) initUseCases() {
	syncer := usecases.NewLedgerSyncer(c.paymentRepo, c.adapters, c.rates, c.txManager, c.settings.FetchTimeout, c.log)

	c.createPaymentUC = usecases.NewCreatePaymentUseCase(c.paymentRepo, c.adapters, c.rates, c.txManager, c.settings, c.log)
	c.getPaymentUC = usecases.NewGetPaymentUseCase(c.paymentRepo, c.adapters, c.settings, c.log)
	c.listPaymentsUC = usecases.NewListPaymentsUseCase(c.paymentRepo, c.adapters, c.settings, c.log)
	c.refreshPaymentUC = usecases.NewRefreshPaymentUseCase(c.paymentRepo, c.adapters, syncer, c.locker, c.settings, c.log)
	c.compPaymentUC = usecases.NewCompPaymentUseCase(c.paymentRepo, c.adapters, c.stateMachine, c.settings, c.log)
	c.reconcilePaymentsUC = usecases.NewReconcilePaymentsUseCase(c.paymentRepo, c.adapters, syncer, c.stateMachine, c.locker, c.settings, c.log)
	c.updateRatesUC = usecases.NewUpdateConversionRatesUseCase(c.rateRepo, c.priceSource, c.adapters.CoinTypes(), c.settings.Currencies, c.log)
}

func (c *Container) initHandlers() {
	c.paymentHandler = handlers.NewPaymentHandler(
		c.createPaymentUC, c.getPaymentUC, c.listPaymentsUC, c.refreshPaymentUC, c.compPaymentUC, c.log,
	)

	checks := map[string]handlers.Pinger{
		"database": func(ctx context.Context) error {
			sqlDB, err := c.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if c.redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return c.redis.Ping(ctx).Err()
		}
	}
	c.healthHandler = handlers.NewHealthHandler(checks)
}

// StartScheduler registers the periodic jobs and starts them
func (c *Container) StartScheduler() error {
	manager, err := scheduler.NewSchedulerManager(c.log.Named("scheduler"))
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	if err := manager.RegisterReconcileJob(c.reconcilePaymentsUC, c.cfg.Payments.ReconcileInterval); err != nil {
		return fmt.Errorf("failed to register reconcile job: %w", err)
	}
	if err := manager.RegisterRateRefreshJob(c.updateRatesUC, c.cfg.Rates.RefreshInterval); err != nil {
		return fmt.Errorf("failed to register rate refresh job: %w", err)
	}

	manager.Start()
	c.schedulerManager = manager
	return nil
}

func (c *Container) ReconcilePayments() *usecases.ReconcilePaymentsUseCase {
	return c.reconcilePaymentsUC
}

func (c *Container) RefreshPayment() *usecases.RefreshPaymentUseCase {
	return c.refreshPaymentUC
}

func (c *Container) UpdateConversionRates() *usecases.UpdateConversionRatesUseCase {
	return c.updateRatesUC
}

// EventBus is nil when Redis is disabled
func (c *Container) EventBus() *pubsub.RedisPaymentEventBus {
	return c.eventBus
}

// Shutdown stops the scheduler and releases the Redis client. The database is owned by the caller.
func (c *Container) Shutdown() {
	if c.schedulerManager != nil {
		if err := c.schedulerManager.Stop(); err != nil {
			c.log.Errorw("failed to stop scheduler", "error", err)
		}
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.log.Errorw("failed to close redis client", "error", err)
		}
	}
}
