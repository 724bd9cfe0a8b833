package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/ajo/internal/auth"
	"github.com/MrJamesThe3rd/ajo/internal/config"
	"github.com/MrJamesThe3rd/ajo/internal/contribution"
	contributionStore "github.com/MrJamesThe3rd/ajo/internal/contribution/store"
	"github.com/MrJamesThe3rd/ajo/internal/database"
	"github.com/MrJamesThe3rd/ajo/internal/events"
	"github.com/MrJamesThe3rd/ajo/internal/goal"
	goalStore "github.com/MrJamesThe3rd/ajo/internal/goal/store"
	"github.com/MrJamesThe3rd/ajo/internal/group"
	groupStore "github.com/MrJamesThe3rd/ajo/internal/group/store"
	ajoHttp "github.com/MrJamesThe3rd/ajo/internal/http"
	contributionHandler "github.com/MrJamesThe3rd/ajo/internal/http/contribution"
	goalHandler "github.com/MrJamesThe3rd/ajo/internal/http/goal"
	groupHandler "github.com/MrJamesThe3rd/ajo/internal/http/group"
	importHandler "github.com/MrJamesThe3rd/ajo/internal/http/importcsv"
	"github.com/MrJamesThe3rd/ajo/internal/importer"
	"github.com/MrJamesThe3rd/ajo/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.App.LogLevel)

	if err := cfg.Validate(true); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	publisher, closePublisher := newPublisher(cfg)
	defer closePublisher()

	var (
		goalService         = goal.NewService(goalStore.New(db))
		contributionService = contribution.NewService(contributionStore.New(db), contribution.WithPublisher(publisher))
		groupService        = group.NewService(groupStore.New(db),
			group.WithPublisher(publisher),
			group.WithInviteCodes(cfg.Invite.Length, cfg.Invite.Attempts),
		)
		importService = importer.NewService(contributionService)
	)

	router := ajoHttp.New(ajoHttp.Handlers{
		Goals:         goalHandler.NewHandler(goalService, contributionService),
		Groups:        groupHandler.NewHandler(groupService),
		Contributions: contributionHandler.NewHandler(contributionService, groupService),
		Import:        importHandler.NewHandler(importService),
	}, auth.NewManager(cfg.Auth.Secret, cfg.Auth.TTL), cfg.Server.CORSOrigins)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("starting server", "app", cfg.App.Name, "addr", srv.Addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}

	slog.Info("server stopped")
}

// newPublisher dials the broker when AMQP_URL is set. Without a broker the
// ledger still works and events are dropped.
func newPublisher(cfg *config.Config) (events.Publisher, func()) {
	if cfg.AMQP.URL == "" {
		slog.Info("AMQP_URL not set, domain events disabled")
		return events.Nop{}, func() {}
	}

	p, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
	if err != nil {
		slog.Error("failed to connect to broker", "error", err)
		os.Exit(1)
	}

	return p, func() {
		if err := p.Close(); err != nil {
			slog.Warn("failed to close broker connection", "error", err)
		}
	}
}
