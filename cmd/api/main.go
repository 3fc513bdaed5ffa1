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

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cardshare/digital-card-api/internal/adapters/httpapi"
	"github.com/cardshare/digital-card-api/internal/adapters/qrcode"
	"github.com/cardshare/digital-card-api/internal/adapters/storage"
	"github.com/cardshare/digital-card-api/internal/app/accounts"
	"github.com/cardshare/digital-card-api/internal/app/cards"
	"github.com/cardshare/digital-card-api/internal/app/profiles"
	"github.com/cardshare/digital-card-api/internal/platform/auth/jwtverifier"
	platformclock "github.com/cardshare/digital-card-api/internal/platform/clock"
	"github.com/cardshare/digital-card-api/internal/platform/config"
	"github.com/cardshare/digital-card-api/internal/platform/logging"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid logging config: %v\n", err)
		os.Exit(1)
	}
	os.Exit(finish(log, run(cfg, log)))
}

// finish logs a fatal run error and flushes the logger before the process exits.
func finish(log *zap.Logger, err error) int {
	if err != nil {
		log.Error("api exited", zap.Error(err))
	}
	_ = log.Sync()
	if err != nil {
		return 1
	}
	return 0
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Auth configuration:
	// - Production: require auth.jwt settings (or JWT_* env vars) and enforce bearer auth
	// - Local dev: AUTH_MODE=dev bypasses JWT verification and uses X-Debug-Subject
	var authMW func(http.Handler) http.Handler
	switch cfg.Auth.Mode {
	case config.AuthModeDev:
		log.Warn("dev auth enabled; requests are trusted via X-Debug-Subject")
		authMW = httpapi.NewDevAuthMiddleware(cfg.Auth.DevSubject)
	default:
		jwtCfg := cfg.Auth.JWT
		if err := jwtCfg.Validate(); err != nil {
			return fmt.Errorf("invalid auth config: %w", err)
		}
		verifier := jwtverifier.New(jwtCfg, jwtverifier.Options{Logger: log.Named("jwt")})
		authMW = httpapi.NewAuthMiddleware(verifier)
	}

	stores, err := storage.Open(ctx, cfg.Storage, cfg.Auth.StoreIssuer(), log)
	if err != nil {
		return err
	}
	defer stores.Close()

	clk := platformclock.NewSystemClock()
	api := httpapi.NewServer(
		accounts.NewService(stores.Accounts, stores.Companies, clk, log.Named("accounts")),
		profiles.NewService(stores.Accounts, clk, log.Named("profiles")),
		cards.NewService(stores.Accounts, qrcode.NewEncoder(), log.Named("cards"), cfg.PublicBaseURL),
		stores.Idempotency,
		log.Named("http"),
	)

	handler := httpapi.NewRouterWithOptions(api, httpapi.RouterOptions{
		AuthMiddleware: authMW,
		Logger:         log.Named("access"),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("api listening",
			zap.String("addr", srv.Addr),
			zap.String("authMode", cfg.Auth.Mode),
			zap.String("storage", cfg.Storage.Backend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return storage.RunIdempotencyJanitor(gctx, stores.Idempotency, clk, cfg.Storage.IdempotencyTTL, time.Hour, log.Named("janitor"))
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
