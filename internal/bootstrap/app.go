// Package bootstrap builds the application graph from configuration and runs it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"socialsaver/internal/api"
	"socialsaver/internal/bot"
	"socialsaver/internal/classifier"
	"socialsaver/internal/config"
	"socialsaver/internal/metrics"
	"socialsaver/internal/pipeline"
	"socialsaver/internal/scraper"
	"socialsaver/internal/storage"
)

type App struct {
	Config     config.Config
	Store      storage.Repository
	Scraper    *scraper.Service
	Classifier *classifier.Service
	Pipeline   *pipeline.Pipeline
	Metrics    *metrics.Metrics
	Router     *gin.Engine
	Bot        *bot.Handler

	log       logrus.FieldLogger
	StartedAt time.Time
}

// New wires every component. The Telegram bot is created only when a token
// is configured.
func New(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (*App, error) {
	store, err := storage.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("open store failed: %w", err)
	}

	app, err := newWithStore(ctx, cfg, store, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return app, nil
}

func newWithStore(ctx context.Context, cfg config.Config, store storage.Repository, logger logrus.FieldLogger) (*App, error) {
	m := metrics.New()

	scraperSvc := scraper.NewService(NewFetcher(cfg.Scraper, logger), logger)

	completer, err := NewCompleter(ctx, cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("create completer failed: %w", err)
	}
	classifierSvc := classifier.NewService(completer, classifier.Options{
		MaxTokens:   cfg.AI.MaxTokens,
		Temperature: &cfg.AI.Temperature,
	}, m, logger)

	pipe := pipeline.New(scraperSvc, classifierSvc, store, m, logger)

	app := &App{
		Config:     cfg,
		Store:      store,
		Scraper:    scraperSvc,
		Classifier: classifierSvc,
		Pipeline:   pipe,
		Metrics:    m,
		log:        logger.WithField("component", "app"),
		StartedAt:  time.Now(),
	}
	app.Router = api.NewRouter(api.Deps{
		Config:   cfg,
		Store:    store,
		Ingester: pipe,
		Metrics:  m,
		Logger:   logger,
	})

	if cfg.Telegram.BotToken != "" {
		app.Bot, err = bot.NewHandler(cfg.Telegram.BotToken, pipe, store, logger)
		if err != nil {
			return nil, err
		}
	}
	return app, nil
}

// NewFetcher returns the page fetcher selected by cfg.Backend.
func NewFetcher(cfg config.ScraperConfig, logger logrus.FieldLogger) scraper.Fetcher {
	if cfg.Backend == config.BackendRod {
		return scraper.NewRodFetcher(cfg.Timeout, cfg.UserAgent, logger)
	}
	return scraper.NewHTTPFetcher(cfg.Timeout, cfg.UserAgent, logger)
}

// NewCompleter returns the model backend selected by cfg.Provider, or nil
// when no credential is configured.
func NewCompleter(ctx context.Context, cfg config.AIConfig) (classifier.Completer, error) {
	if cfg.APIToken == "" {
		return nil, nil
	}
	switch cfg.Provider {
	case config.ProviderAnthropic:
		return classifier.NewAnthropicClient(cfg.APIToken, cfg.Model, cfg.Timeout), nil
	case config.ProviderGemini:
		return classifier.NewGeminiClient(ctx, cfg.APIToken, cfg.Model, cfg.Timeout)
	default:
		return classifier.NewOpenAICompatibleClient(cfg.BaseURL, cfg.APIToken, cfg.Model, cfg.Timeout), nil
	}
}

// Run serves HTTP, and polls Telegram when enabled, until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.HTTPAddr(),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	botDone := make(chan struct{})
	if a.Bot != nil {
		go func() {
			defer close(botDone)
			a.Bot.Start(runCtx)
		}()
	} else {
		close(botDone)
	}

	var serveErr error
	select {
	case <-runCtx.Done():
	case serveErr = <-errCh:
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.WithError(err).Error("HTTP server shutdown failed")
	}
	<-botDone

	if serveErr != nil {
		return fmt.Errorf("http server failed: %w", serveErr)
	}
	return nil
}

func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}
