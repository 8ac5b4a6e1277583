package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"NewsDigest/internal/api"
	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/infrastructure/cache"
	"NewsDigest/internal/infrastructure/extractor"
	"NewsDigest/internal/infrastructure/llm"
	"NewsDigest/internal/infrastructure/ml"
	"NewsDigest/internal/infrastructure/scheduler"
	"NewsDigest/internal/infrastructure/sources"
	"NewsDigest/internal/infrastructure/storage"
	"NewsDigest/internal/logging"
	"NewsDigest/internal/ports"
	"NewsDigest/internal/scanner"
	"NewsDigest/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// ErrNoDatabase reports an operation that needs durable storage while saved
// articles are kept in memory.
var ErrNoDatabase = errors.New("no database configured (set database.dsn or DATABASE_DSN)")

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	summarizer *usecase.SummaryService
	news       *usecase.NewsService
	saved      ports.ArticleRepository
	scheduler  *usecase.Scheduler
	router     *gin.Engine
	closers    []func() error
}

// New builds the application. A configured database or cron expression that
// cannot be used is an error; an unreachable Redis only disables the cache.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	a := &Application{cfg: cfg, logger: baseLogger}

	registry := scanner.NewRegistry()
	registry.Register(sources.NewNewsAPISource(cfg.News.NewsAPI, nil, baseLogger.With("component", "source.newsapi")))
	registry.Register(sources.NewRSSSource(cfg.News.Feeds, nil, cfg.News.NewsAPI.Timeout, baseLogger.With("component", "source.rss")))
	registry.Register(sources.NewListingSource(cfg.News.Sites, nil, cfg.News.NewsAPI.Timeout, baseLogger.With("component", "source.listing")))
	fetcher := sources.NewStrategySource(registry, cfg.News.Sources, cfg.News.Limit, baseLogger.With("component", "source"))

	a.summarizer = usecase.NewSummaryService(
		modelLoader(cfg.Summarizer, baseLogger),
		usecase.SummaryOptions{
			MinInputLength:   cfg.Summarizer.MinInputLength,
			MaxInputLength:   cfg.Summarizer.MaxInputLength,
			DescriptionLimit: cfg.Summarizer.DescriptionLimit,
			Timeout:          cfg.Summarizer.Timeout,
		},
		baseLogger.With("component", "summarizer"),
	)

	var summaryCache ports.SummaryCache
	if cfg.Redis.URL != "" {
		c, client, err := cache.Connect(ctx, cfg.Redis.URL, cfg.Redis.TTL)
		if err != nil {
			baseLogger.Warn("summary cache disabled", "error", err)
		} else {
			summaryCache = c
			a.closers = append(a.closers, client.Close)
		}
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Extractor:   extractor.New(nil, cfg.Extractor, baseLogger.With("component", "extractor")),
		Summarizer:  a.summarizer,
		Cache:       summaryCache,
		Logger:      baseLogger.With("component", "pipeline"),
		Workers:     cfg.Pipeline.Workers,
		ItemTimeout: cfg.Pipeline.ItemTimeout,
	})
	a.news = usecase.NewNewsService(fetcher, pipeline, baseLogger.With("component", "news"))

	saved, err := a.openRepository(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.saved = saved

	if cfg.Scheduler.CronExpression != "" {
		driver, err := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location())
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.scheduler = usecase.NewScheduler(driver, a.news, baseLogger.With("component", "scheduler"))
	}

	a.router = api.NewRouter(api.Deps{
		News:   a.news,
		Saved:  a.saved,
		Logger: baseLogger.With("component", "http"),

		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	return a, nil
}

func (a *Application) openRepository(ctx context.Context) (ports.ArticleRepository, error) {
	if a.cfg.Database.DSN == "" {
		a.logger.Info("no database configured, saved articles are kept in memory")
		return storage.NewMemoryRepository(), nil
	}

	db, err := storage.Open(ctx, a.cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)

	repo := storage.NewPostgresRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

// modelLoader picks the summarization backend. A nil loader keeps the
// summarizer in fallback-only mode.
func modelLoader(cfg config.SummarizerConfig, log *slog.Logger) ports.ModelLoader {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	switch cfg.Provider {
	case config.ProviderInference:
		return ml.NewLoader(cfg, httpClient)
	case config.ProviderOpenAI:
		return llm.NewOpenAILoader(cfg, httpClient)
	case config.ProviderAnthropic:
		return llm.NewAnthropicLoader(cfg, httpClient)
	case config.ProviderNone:
		return nil
	default:
		log.Warn("unknown summarizer provider, using fallback summaries", "provider", cfg.Provider)
		return nil
	}
}

// Handler exposes the HTTP router.
func (a *Application) Handler() http.Handler {
	return a.router
}

// Serve loads the model, starts the warm-up job and serves HTTP until ctx is done.
func (a *Application) Serve(ctx context.Context) error {
	a.summarizer.Init(ctx)

	if a.scheduler != nil {
		if err := a.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
	}

	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.scheduler != nil {
		if err := a.scheduler.Stop(shutdownCtx); err != nil {
			a.logger.Warn("stop scheduler", "error", err)
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http shutdown", "error", err)
	}

	if serveErr != nil {
		return fmt.Errorf("http server: %w", serveErr)
	}
	return nil
}

// RunOnce summarizes the latest headlines, or the search results for term.
func (a *Application) RunOnce(ctx context.Context, term string) ([]domain.SummarizedArticle, error) {
	if term == "" {
		return a.news.Latest(ctx)
	}
	return a.news.Search(ctx, term)
}

// ClearArticles deletes every saved article and reports how many were removed.
// It refuses to run against the in-memory store, which is always empty at start.
func (a *Application) ClearArticles(ctx context.Context) (int64, error) {
	if a.cfg.Database.DSN == "" {
		return 0, ErrNoDatabase
	}
	n, err := a.saved.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear saved articles: %w", err)
	}
	return n, nil
}

// Close releases database and cache connections.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
