package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"example.com/storefront/app/internal/config"
	"example.com/storefront/app/internal/infra/cache"
	"example.com/storefront/app/internal/infra/events"
	"example.com/storefront/app/internal/infra/mail"
	"example.com/storefront/app/internal/infra/metrics"
	"example.com/storefront/app/internal/infra/payment/paystack"
	"example.com/storefront/app/internal/infra/persistence/sqlstore"
	"example.com/storefront/app/internal/infra/security"
	httpapi "example.com/storefront/app/internal/interface/http"
	authuc "example.com/storefront/app/internal/usecase/auth"
	cartuc "example.com/storefront/app/internal/usecase/cart"
	categoryuc "example.com/storefront/app/internal/usecase/category"
	checkoutuc "example.com/storefront/app/internal/usecase/checkout"
	guarduc "example.com/storefront/app/internal/usecase/guard"
	orderuc "example.com/storefront/app/internal/usecase/order"
	productuc "example.com/storefront/app/internal/usecase/product"
	settlementuc "example.com/storefront/app/internal/usecase/settlement"
	useruc "example.com/storefront/app/internal/usecase/user"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, _ *app.Telemetry) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return run(ctx, lg, cfg)
	})
}

func run(ctx context.Context, lg *zap.Logger, cfg *config.Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("driver", cfg.Database.Driver),
	)

	dbOpts := sqlstore.Options{
		Dialect:         sqlstore.Dialect(cfg.Database.Driver),
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}
	if cfg.Database.Migrate {
		if err := sqlstore.Migrate(ctx, dbOpts); err != nil {
			return errors.Wrap(err, "run migrations")
		}
	}
	db, err := sqlstore.Open(ctx, dbOpts)
	if err != nil {
		return errors.Wrap(err, "open database")
	}
	defer func() { _ = db.Close() }()

	userRepo := sqlstore.NewUserRepository(db)
	categoryRepo := sqlstore.NewCategoryRepository(db)
	productRepo := sqlstore.NewProductRepository(db)
	cartRepo := sqlstore.NewCartRepository(db)
	orderRepo := sqlstore.NewOrderRepository(db)
	deletionRepo := sqlstore.NewDeletionRepository(db)

	m := metrics.New()

	gateway := paystack.New(paystack.Config{
		BaseURL:     cfg.Paystack.BaseURL,
		SecretKey:   cfg.Paystack.SecretKey,
		Timeout:     cfg.Paystack.Timeout,
		MaxFailures: cfg.Paystack.Breaker.MaxFailures,
		OpenTimeout: cfg.Paystack.Breaker.OpenTimeout,
	}, lg.Named("paystack"))

	var verifier settlementuc.Verifier = gateway
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = rdb.Close() }()
		verifier = cache.NewVerificationCache(gateway, rdb, cfg.Redis.VerificationTTL, lg.Named("cache"))
		lg.Info("Verification cache enabled", zap.String("redis", cfg.Redis.Addr))
	}

	settlementOpts := []settlementuc.Option{
		settlementuc.WithRecorder(m),
		settlementuc.WithNotifyTimeout(cfg.SMTP.Timeout),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() {
			if err := publisher.Close(); err != nil {
				lg.Warn("Close event publisher", zap.Error(err))
			}
		}()
		settlementOpts = append(settlementOpts, settlementuc.WithEvents(publisher))
		lg.Info("Order events enabled", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	mailer := mail.NewSender(mail.Config{
		Addr:     cfg.SMTP.Addr,
		From:     cfg.SMTP.From,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
	})
	tokens := security.NewJWTService(cfg.JWT.Secret, cfg.JWT.TTL)

	api := httpapi.NewAPI(httpapi.Dependencies{
		AuthService:     authuc.NewService(userRepo, security.NewBcryptService(0), tokens),
		UserService:     useruc.NewService(userRepo),
		CategoryService: categoryuc.NewService(categoryRepo),
		ProductService:  productuc.NewService(productRepo, categoryRepo),
		CartService:     cartuc.NewService(cartRepo, userRepo),
		CheckoutService: checkoutuc.NewService(cartRepo, userRepo, gateway, cfg.Paystack.CallbackURL, lg.Named("checkout")),
		SettlementService: settlementuc.NewService(verifier, orderRepo, cartRepo, mailer, lg.Named("settlement"),
			settlementOpts...,
		),
		OrderService: orderuc.NewService(orderRepo),
		GuardService: guarduc.NewService(deletionRepo, m, lg.Named("guard")),
		TokenService: tokens,
		DB:           db,
		Metrics:      m,
		Logger:       lg,
	})

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           api.Router(),
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
