package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"NewsRelay/internal/config"
	"NewsRelay/internal/infrastructure/metrics"
	"NewsRelay/internal/infrastructure/parser"
	"NewsRelay/internal/infrastructure/scheduler"
	"NewsRelay/internal/infrastructure/storage"
	"NewsRelay/internal/infrastructure/telegram"
	"NewsRelay/internal/logging"
	"NewsRelay/internal/ports"
	"NewsRelay/internal/scanner"
	"NewsRelay/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	ledger   *storage.SQLLedger
	metrics  *metrics.Recorder
	bot      *tgbotapi.BotAPI
	pipeline *usecase.Pipeline
}

// Option customizes New.
type Option func(*options)

type options struct {
	transport ports.Transport
	fetcher   parser.Fetcher
}

// WithTransport replaces the Telegram transport; the bot update loop is then unavailable.
func WithTransport(t ports.Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithFetcher replaces the HTTP page fetcher.
func WithFetcher(f parser.Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// New opens the ledger and builds the pipeline. The Telegram bot is connected
// only when a token is configured and no transport override is given.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger, opts ...Option) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	ledger, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN,
		storage.WithLocation(cfg.Scheduler.Location()))
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	a := &Application{
		cfg:     cfg,
		logger:  baseLogger,
		ledger:  ledger,
		metrics: metrics.NewRecorder(),
	}

	transport := o.transport
	if transport == nil && cfg.Telegram.BotToken != "" {
		api, err := telegram.Connect(cfg.Telegram.BotToken, baseLogger)
		if err != nil {
			_ = ledger.Close()
			return nil, err
		}
		a.bot = api
		transport = telegram.NewTransport(api, cfg.SourceIDs())
		baseLogger.Info("telegram bot authorized", "username", api.Self.UserName)
	}

	fetcher := o.fetcher
	if fetcher == nil {
		fetcher = parser.NewHTTPFetcher(nil, cfg.HTTP.Timeout, cfg.HTTP.UserAgent)
	}

	registry := scanner.NewRegistry()
	registry.Register(parser.NewHTMLScanner(baseLogger.With("component", "scanner.html")))
	registry.Register(parser.NewFeedScanner())

	source := parser.NewStrategySource(registry, fetcher, cfg.Sources, baseLogger.With("component", "source"))

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Extractor: source,
		Ledger:    ledger,
		Transport: transport,
		Metrics:   a.metrics,
		Channel:   cfg.Telegram.ChannelID,
		Logger:    baseLogger.With("component", "pipeline"),
	})

	return a, nil
}

// Pipeline exposes the dispatch pipeline for one-shot commands.
func (a *Application) Pipeline() *usecase.Pipeline {
	return a.pipeline
}

// Serve runs the bot update loop, the auto-publish scheduler and the metrics endpoint until ctx ends.
func (a *Application) Serve(ctx context.Context) error {
	if a.bot == nil {
		return errors.New("telegram bot is not connected")
	}

	g, ctx := errgroup.WithContext(ctx)

	conversation := usecase.NewConversation(a.pipeline, a.pipeline.Transport(), a.logger.With("component", "dialogue"))
	bot := telegram.NewBot(a.bot, conversation, a.cfg.Telegram.AllowedUsers, a.cfg.Telegram.PollTimeout,
		a.logger.With("component", "bot"))
	g.Go(func() error {
		if err := bot.Run(ctx); err != nil {
			return err
		}
		if ctx.Err() == nil {
			return errors.New("telegram update channel closed")
		}
		return nil
	})

	if a.cfg.Scheduler.Enabled {
		sched := usecase.NewScheduler(
			scheduler.NewTickerScheduler(a.cfg.Scheduler.Interval),
			a.pipeline,
			a.cfg.Scheduler.Count,
			a.logger.With("component", "scheduler"),
		)
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		g.Go(func() error {
			<-ctx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return sched.Stop(stopCtx)
		})
	}

	if a.cfg.Metrics.Addr != "" {
		srv := a.metricsServer()
		g.Go(func() error {
			a.logger.Info("metrics endpoint listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

func (a *Application) metricsServer() *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	return &http.Server{
		Addr:              a.cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Close releases the ledger connection.
func (a *Application) Close() error {
	if a.ledger == nil {
		return nil
	}
	return a.ledger.Close()
}
