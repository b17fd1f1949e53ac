package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/eresidence/eresidence/internal/app"
	"github.com/eresidence/eresidence/internal/auth"
	"github.com/eresidence/eresidence/internal/authz"
	"github.com/eresidence/eresidence/internal/dashboard"
	"github.com/eresidence/eresidence/internal/iuran"
	"github.com/eresidence/eresidence/internal/iuran/categories"
	"github.com/eresidence/eresidence/internal/observability"
	"github.com/eresidence/eresidence/internal/platform/cache"
	"github.com/eresidence/eresidence/internal/platform/db"
	"github.com/eresidence/eresidence/internal/profiles"
	"github.com/eresidence/eresidence/internal/residents"
	"github.com/eresidence/eresidence/internal/roles"
	"github.com/eresidence/eresidence/internal/settings"
	"github.com/eresidence/eresidence/internal/shared"
	"github.com/eresidence/eresidence/internal/users"
	"github.com/eresidence/eresidence/internal/view"
	"github.com/eresidence/eresidence/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "eresidence_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	profileStore := profiles.NewStore(dbpool)
	resolver := authz.NewResolver(profileStore, logger)
	rulesetHolder := authz.NewRulesetHolder(nil)

	templates, err := view.NewEngine(rulesetHolder)
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	identity := auth.NewProvider()
	routeGate := authz.NewRouteGate(identity, logger)
	gatekeeper := authz.NewGatekeeper(identity, resolver, rulesetHolder,
		app.AccessDeniedHandler(logger, templates))

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	rolesRepo := roles.NewRepository(dbpool)
	rolesService := roles.NewService(logger, rolesRepo, profileStore, rulesetHolder)
	if err := rolesService.LoadRuleset(ctx); err != nil {
		logger.Error("load ruleset", slog.Any("error", err))
		os.Exit(1)
	}
	rolesHandler := roles.NewHandler(logger, rolesService, templates)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(logger, usersRepo, func(ctx context.Context, id authz.RoleID) error {
		_, err := rolesService.Find(ctx, id)
		return err
	})
	usersHandler := users.NewHandler(logger, usersService, templates)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	usersService.SetWelcomeNotifier(func(ctx context.Context, account *users.Account) {
		_, err := jobClient.EnqueueSendEmail(ctx, jobs.SendEmailPayload{
			To:      account.Email,
			Subject: "Selamat datang di E-Residence",
			Body:    "Halo " + account.FullName + ", akun Anda sudah aktif.",
		})
		if err != nil {
			logger.Warn("enqueue welcome mail", slog.Any("error", err))
		}
	})

	residentsRepo := residents.NewRepository(dbpool)
	residentsService := residents.NewService(logger, residentsRepo)
	residentsHandler := residents.NewHandler(logger, residentsService, templates)

	iuranRepo := iuran.NewRepository(dbpool)
	iuranService := iuran.NewService(logger, iuranRepo)
	iuranHandler := iuran.NewHandler(logger, iuranService, templates)

	categoriesRepo := categories.NewRepository(dbpool)
	categoriesService := categories.NewService(logger, categoriesRepo)
	categoriesHandler := categories.NewHandler(logger, categoriesService, templates)

	settingsRepo := settings.NewRepository(dbpool)
	settingsService, err := settings.NewService(ctx, logger, settingsRepo)
	if err != nil {
		logger.Error("load settings", slog.Any("error", err))
		os.Exit(1)
	}
	settingsHandler := settings.NewHandler(logger, settingsService, templates)
	maintenance := settings.NewMaintenanceGuard(settingsService, identity, resolver, templates)

	dashboardRepo := dashboard.NewRepository(dbpool, iuranRepo)
	dashboardService := dashboard.NewService(logger, dashboardRepo)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService, templates)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Templates:         templates,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		Gate:              routeGate,
		Gatekeeper:        gatekeeper,
		Maintenance:       maintenance,
		AuthHandler:       authHandler,
		DashboardHandler:  dashboardHandler,
		ResidentsHandler:  residentsHandler,
		IuranHandler:      iuranHandler,
		CategoriesHandler: categoriesHandler,
		UsersHandler:      usersHandler,
		RolesHandler:      rolesHandler,
		SettingsHandler:   settingsHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
