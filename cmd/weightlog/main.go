package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	adapthttp "weightlog/internal/adapter/http"
	"weightlog/internal/adapter/postgres"
	"weightlog/internal/app"
	"weightlog/internal/config"
	"weightlog/internal/instrumentation"
	"weightlog/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}

	logging.Setup(logging.SetupParams{
		LogFileName:   cfg.LogFileName,
		LogToStdout:   cfg.LogToStdout,
		LogLevel:      cfg.LogLevel,
		LogFormatJSON: cfg.LogFormatJSON,
	})

	if cfg.DatabaseURL == "" {
		log.Fatal("database_url (or DATABASE_URL) is required")
	}

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db open: %s", err)
	}
	defer func() { _ = db.Close() }()

	userRepo := postgres.NewUserRepo(db)
	sessionRepo := postgres.NewSessionRepo(db)

	chartCache := app.NewChartCache(
		cfg.ChartCacheSizeMB*1024*1024,
		time.Duration(cfg.ChartCacheTTLSeconds)*time.Second,
	)

	recordsSvc := app.NewRecordsService(db, chartCache)
	chartsSvc := app.NewChartsService(db, chartCache)
	authSvc := app.NewAuthService(userRepo, sessionRepo, time.Duration(cfg.SessionTTLHours)*time.Hour)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	oidcConfig, err := setupOIDC(ctx, cfg.OIDC)
	if err != nil {
		log.Fatalf("oidc setup: %s", err)
	}

	go cleanupSessions(ctx, authSvc)

	instr := instrumentation.New("weightlog", "server")
	h := adapthttp.New(recordsSvc, chartsSvc, authSvc, oidcConfig, instr, cfg.WebDir).Handler()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("server shutdown: %s", err)
		}
	}()

	log.Infof("listening on %s", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func setupOIDC(ctx context.Context, cfg config.OIDC) (adapthttp.OIDCConfig, error) {
	if !cfg.Enabled {
		return adapthttp.OIDCConfig{}, nil
	}

	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return adapthttp.OIDCConfig{}, err
	}

	return adapthttp.OIDCConfig{
		Enabled:  true,
		Provider: provider,
		OAuth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}, nil
}

func cleanupSessions(ctx context.Context, authSvc *app.AuthService) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := authSvc.CleanupExpiredSessions(ctx); err != nil {
				log.Errorf("session cleanup: %s", err)
			}
		}
	}
}
