package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/yuchinglo/trifolio-backend/internal/adapter/httpapi"
	"github.com/yuchinglo/trifolio-backend/internal/adapter/quote"
	"github.com/yuchinglo/trifolio-backend/internal/adapter/repository/csvstore"
	"github.com/yuchinglo/trifolio-backend/internal/adapter/repository/memory"
	"github.com/yuchinglo/trifolio-backend/internal/adapter/repository/postgres"
	"github.com/yuchinglo/trifolio-backend/internal/common"
	"github.com/yuchinglo/trifolio-backend/internal/domain"
	"github.com/yuchinglo/trifolio-backend/internal/usecase/marketvalue"
	"github.com/yuchinglo/trifolio-backend/internal/usecase/reconcile"
	"github.com/yuchinglo/trifolio-backend/internal/usecase/seeder"
)

var hundred = decimal.NewFromInt(100)

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML config file")
	dataDir := flag.String("data", "data", "directory for CSV import/export")
	flag.Parse()

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := common.NewLogger(cfg.Logging.Level)

	if err := run(cfg, *dataDir, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}

func run(cfg *common.Config, dataDir string, logger *common.Logger) error {
	ctx := context.Background()

	var (
		planRepo        domain.PlanRepository
		allocationRepo  domain.AllocationRepository
		transactionRepo domain.TransactionRepository
		optionRepo      domain.OptionRepository
	)

	if cfg.Database.ConnString != "" {
		db, err := postgres.NewDB(cfg.Database.ConnString)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		if err := db.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}

		planRepo = postgres.NewPlanRepository(db)
		allocationRepo = postgres.NewAllocationRepository(db)
		transactionRepo = postgres.NewTransactionRepository(db)
		optionRepo = postgres.NewOptionRepository(db)
		logger.Info().Msg("using postgres store")
	} else {
		store := memory.NewStore()
		planRepo = store.Plans()
		allocationRepo = store.Allocations()
		transactionRepo = store.Transactions()
		optionRepo = store.Options()
		logger.Warn().Msg("no database configured, using in-memory store")
	}

	if err := seeder.NewSeeder(planRepo, allocationRepo).Seed(ctx); err != nil {
		return fmt.Errorf("failed to seed datasets: %w", err)
	}

	var quotes marketvalue.QuoteProvider = quote.NewYahooClient(
		quote.WithBaseURL(cfg.Quotes.BaseURL),
		quote.WithTimeout(cfg.QuoteTimeout()),
		quote.WithLogger(logger),
	)
	if cfg.Redis.URL != "" {
		redisOpts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("failed to parse redis url: %w", err)
		}
		quotes = quote.NewCachedProvider(quotes, redis.NewClient(redisOpts), cfg.CacheTTL())
		logger.Info().Dur("ttl", cfg.CacheTTL()).Msg("quote cache enabled")
	}

	policy := domain.FeePolicy{
		FeeRate:     decimal.NewFromFloat(cfg.Policy.FeeRatePercent).Div(hundred),
		SellTaxRate: decimal.NewFromFloat(cfg.Policy.SellTaxRatePercent).Div(hundred),
	}
	svc := reconcile.NewService(
		planRepo, allocationRepo, transactionRepo, optionRepo,
		marketvalue.NewService(quotes), policy,
	)

	policyStart, err := cfg.PolicyStartMonth()
	if err != nil {
		return err
	}

	api := httpapi.NewServer(logger, svc,
		httpapi.WithAuthToken(cfg.Server.APIToken),
		httpapi.WithFXProvider(quote.NewFXClient("", cfg.QuoteTimeout())),
		httpapi.WithSentimentProvider(quote.NewSentimentClient("", cfg.QuoteTimeout())),
		httpapi.WithCSVStore(csvstore.NewStore(dataDir)),
		httpapi.WithCompliancePolicy(
			policyStart,
			decimal.NewFromFloat(cfg.Policy.MinMonthly),
			decimal.NewFromFloat(cfg.Policy.MaxLotteryPercent),
		),
		httpapi.WithFallbackFXRate(decimal.NewFromFloat(cfg.Quotes.FallbackFXRate)),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
