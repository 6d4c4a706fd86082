package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/georgemunganga/stocksync/internal/config"
	"github.com/georgemunganga/stocksync/internal/logging"
	"github.com/georgemunganga/stocksync/internal/modules/auth"
	"github.com/georgemunganga/stocksync/internal/modules/catalog"
	"github.com/georgemunganga/stocksync/internal/modules/inventory"
	"github.com/georgemunganga/stocksync/internal/modules/notification"
	"github.com/georgemunganga/stocksync/internal/modules/run"
	"github.com/georgemunganga/stocksync/internal/modules/stockfeed"
	"github.com/georgemunganga/stocksync/internal/modules/storefront"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	notifyError := flag.Bool("notify-error", false, "send a push notification when the run fails")
	notifySuccess := flag.Bool("notify-success", false, "send a push notification when the run succeeds without errors")
	filterModel := flag.String("filter-single-model", "", "only process this model")
	dryRun := flag.Bool("dry-run", false, "do everything except saving products")
	serve := flag.Bool("serve", false, "run the HTTP trigger API instead of a single run")
	flag.Parse()

	envErr := godotenv.Load()

	cfg := config.Load()
	logger, closer := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	defer closer.Close()
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		logger.Warn("could not load .env file", "error", envErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.AWSSecretID != "" {
		sm, err := config.NewSecretsManager(ctx)
		if err == nil {
			err = config.ApplySecrets(ctx, sm, cfg.AWSSecretID, &cfg)
		}
		if err != nil {
			fatal(logger, "could not load secrets", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		fatal(logger, "invalid configuration", err)
	}

	filters, err := config.LoadFilters(cfg.FiltersFile)
	if err != nil {
		fatal(logger, "invalid filters", err)
	}
	overrides, err := config.PolicyOverrides(filters)
	if err != nil {
		fatal(logger, "invalid filters", err)
	}

	// ── Catalog & stock feed ────────────────────────────────
	source, err := catalog.NewSource(ctx, cfg.CatalogLocation)
	if err != nil {
		fatal(logger, "catalog source", err)
	}
	fetcher, err := newFetcher(cfg)
	if err != nil {
		fatal(logger, "stock feed", err)
	}
	fetcher = stockfeed.Retrying(fetcher, stockfeed.RetryPolicy{
		Attempts: cfg.FeedMaxAttempts,
		Delay:    cfg.FeedRetryDelay,
	}, logger)

	// ── Storefront & notifications ──────────────────────────
	shop, err := storefront.NewShopifyClient(storefront.ShopifyOptions{
		ShopURL:     cfg.ShopifyShopURL,
		AccessToken: cfg.ShopifyAPISecret,
		APIVersion:  cfg.ShopifyAPIVersion,
	})
	if err != nil {
		fatal(logger, "storefront", err)
	}
	notifier := notification.NewNoop()
	if cfg.NotificationAPISecret != "" {
		notifier = notification.NewPushbullet(cfg.NotificationAPISecret, "")
	}

	// ── Run history ─────────────────────────────────────────
	repo := run.NewMemoryRepository()
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			fatal(logger, "open database", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			fatal(logger, "connect database", err)
		}
		if err := run.Migrate(ctx, db); err != nil {
			fatal(logger, "migrate database", err)
		}
		repo = run.NewPostgresRepository(db)
	}

	runService := run.NewService(run.Deps{
		Source:     source,
		Filters:    filters,
		Overrides:  overrides,
		Fetcher:    fetcher,
		Storefront: shop,
		Notifier:   notifier,
		Repo:       repo,
		Timing: inventory.Timing{
			ProductDelay:   cfg.ProductDelay,
			SaveRetryDelay: cfg.SaveRetryDelay,
		},
		Logger: logger,
	})
	opts := run.Options{
		DryRun:            *dryRun,
		FilterSingleModel: *filterModel,
		NotifyError:       *notifyError,
		NotifySuccess:     *notifySuccess,
	}

	if !*serve {
		r, err := runService.Execute(ctx, opts)
		closer.Close()
		os.Exit(run.ExitCode(r, err))
	}

	// ── Router ──────────────────────────────────────────────
	if cfg.JWTSecret == "" || cfg.OperatorPasswordHash == "" {
		fatal(logger, "invalid configuration", errors.New("JWT_SECRET and OPERATOR_PASSWORD_HASH are required with --serve"))
	}
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	authService := auth.NewService(cfg.OperatorPasswordHash, cfg.JWTSecret, 0)
	auth.NewHandler(authService).RegisterRoutes(router)
	run.NewHandler(runService, opts, auth.Middleware(authService)).RegisterRoutes(router)

	// ── Start Server ─────────────────────────────────────────
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()
	logger.Info("stock sync API starting", "addr", cfg.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fatal(logger, "server stopped", err)
	}
}

func newFetcher(cfg config.Config) (stockfeed.Fetcher, error) {
	if cfg.FeedSource == config.FeedHTTP {
		return stockfeed.NewHTTPFetcher(stockfeed.HTTPOptions{
			LoginURL:    cfg.OrbeaLoginURL,
			DownloadURL: cfg.OrbeaDownloadURL,
			Email:       cfg.OrbeaEmail,
			Password:    cfg.OrbeaPassword,
		})
	}
	return stockfeed.NewFTPFetcher(stockfeed.FTPOptions{
		Host:     cfg.FTPHost,
		User:     cfg.FTPUser,
		Password: cfg.FTPPassword,
		Path:     cfg.FTPPath,
	})
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
