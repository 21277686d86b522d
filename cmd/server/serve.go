package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/garnizeh/pawfect/api"
	dbfs "github.com/garnizeh/pawfect/db"
	"github.com/garnizeh/pawfect/internal/adoption"
	"github.com/garnizeh/pawfect/internal/ai"
	"github.com/garnizeh/pawfect/internal/auth"
	"github.com/garnizeh/pawfect/internal/config"
	"github.com/garnizeh/pawfect/internal/db"
	"github.com/garnizeh/pawfect/internal/jobs"
	"github.com/garnizeh/pawfect/internal/mail"
	"github.com/garnizeh/pawfect/internal/repository/sqlstore"
	"github.com/garnizeh/pawfect/pkg/gemini"
	"github.com/garnizeh/pawfect/pkg/ollama"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the notification workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("starting pawfect", zap.String("version", version), zap.String("build_time", buildTime))

	api.SetLogger(logger.Named("api"))
	ollama.SetLogger(logger.Named("ollama"))
	gemini.SetLogger(logger.Named("gemini"))

	conn, err := db.New(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := db.Migrate(ctx, conn, dbfs.Migrations); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	store := sqlstore.New(conn, logger.Named("store"))

	classifier, closeClassifier, err := newClassifier(ctx, cfg.Classifier)
	if err != nil {
		return err
	}
	defer closeClassifier()

	schema, err := ai.LoadSchema("v1")
	if err != nil {
		return err
	}
	validator := ai.NewValidator(classifier, schema, cfg.Classifier.StrictExtraction, logger.Named("ai"))

	renderer, err := mail.NewRenderer(nil)
	if err != nil {
		return err
	}
	notifier := mail.NewNotifier(renderer, newSender(cfg.Mail, logger), logger.Named("mail"))

	pool := jobs.NewWorkerPool(jobs.NewRepository(conn), logger.Named("jobs"), cfg.Notifications.Workers, cfg.Notifications.PollInterval)
	adoption.RegisterJobs(pool, notifier, logger.Named("adoption"))

	svc := adoption.NewService(store, store, store, validator, pool, adoption.Options{
		RejectDelay:   cfg.Notifications.RejectDelay,
		EmailOnAccept: cfg.Notifications.EmailOnAccept,
	}, logger.Named("adoption"))

	handler := api.SetupRoutes(api.Deps{
		Version:        version,
		BuildTime:      buildTime,
		AllowedOrigins: cfg.AllowedOrigins,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		DB:             conn,
		Issuer:         auth.NewIssuer(cfg.JWTSecret, cfg.TokenDuration),
		Users:          store,
		Appointments:   store,
		Pets:           store,
		Adoptions:      store,
		Submitter:      svc,
		Mailer:         notifier,
	})

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.APITimeout,
		WriteTimeout: cfg.APITimeout,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return pool.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		// Give outstanding requests 30 seconds to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("server exited")
	return err
}

// newClassifier builds the configured provider and a func releasing it.
func newClassifier(ctx context.Context, cfg config.ClassifierConfig) (ai.Classifier, func(), error) {
	switch cfg.Provider {
	case "ollama":
		oc := ollama.DefaultConfig()
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		if cfg.Model != "" {
			oc.Model = cfg.Model
		}
		if cfg.Timeout > 0 {
			oc.Timeout = cfg.Timeout
		}
		c, err := ollama.NewDefaultClient(oc)
		if err != nil {
			return nil, nil, err
		}
		return c, func() { _ = c.Close() }, nil
	case "gemini":
		c, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
			BaseURL: cfg.BaseURL,
		}, nil)
		if err != nil {
			return nil, nil, err
		}
		return c, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported classifier provider %q", cfg.Provider)
	}
}

// newSender returns an SMTP sender when credentials are configured and a
// logging sender otherwise.
func newSender(cfg config.MailConfig, logger *zap.Logger) mail.Sender {
	if cfg.Host == "" || cfg.Username == "" {
		logger.Warn("smtp not configured; emails will be logged, not delivered")
		return &mail.LogSender{Logger: logger.Named("mail")}
	}
	return mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		FromName: cfg.FromName,
	})
}
