package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/zonroxx/FitQuest-AI/internal/catalog"
	"github.com/zonroxx/FitQuest-AI/internal/envstruct"
	"github.com/zonroxx/FitQuest-AI/internal/errors"
	"github.com/zonroxx/FitQuest-AI/internal/flightrecorder"
	"github.com/zonroxx/FitQuest-AI/internal/logging"
	"github.com/zonroxx/FitQuest-AI/internal/sqlite"
	"github.com/zonroxx/FitQuest-AI/internal/workout"
)

type application struct {
	logger         *slog.Logger
	templateFS     fs.FS
	catalog        *catalog.Catalog
	workoutService *workout.Service
	registry       *prometheus.Registry
	flightRecorder *flightrecorder.Service
	// generationTimeout bounds plan generation requests, which may walk through every model.
	generationTimeout time.Duration
}

type config struct {
	// Addr is the address to listen on. It's possible to choose the address dynamically with localhost:0.
	Addr string `env:"FITQUEST_ADDR" envDefault:"localhost:8081"`
	// SqliteURL is the URL to the SQLite database. You can use ":memory:" for an ethereal in-memory database.
	SqliteURL string `env:"FITQUEST_SQLITE_URL" envDefault:"./fitquest.sqlite3"`
	// HuggingFaceToken enables model-backed generation. Without it every plan is built from rules.
	HuggingFaceToken string `env:"HUGGINGFACE_API_TOKEN" envDefault:""`
	// LLMBaseURL is the OpenAI-compatible endpoint serving the models.
	LLMBaseURL string `env:"FITQUEST_LLM_BASE_URL" envDefault:"https://router.huggingface.co/v1"`
	// LLMModels are tried in order until one answers. Empty means the built-in list.
	LLMModels []string `env:"FITQUEST_LLM_MODELS" envDefault:""`
	// LLMTimeout bounds each model call.
	LLMTimeout time.Duration `env:"FITQUEST_LLM_TIMEOUT" envDefault:"60s"`
	// CatalogPath optionally replaces the embedded exercise catalog with a YAML file.
	CatalogPath string `env:"FITQUEST_CATALOG_PATH" envDefault:""`
	// TemplatePath optionally loads the HTML templates from disk instead of the binary.
	TemplatePath string `env:"FITQUEST_TEMPLATE_PATH" envDefault:""`
	// TracesDir enables the flight recorder. Traces of timed out requests are written there.
	TracesDir string `env:"FITQUEST_TRACES_DIR" envDefault:""`
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		cancel context.CancelFunc
		err    error
	)

	ctx, cancel = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cfg config
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	templates, err := templateFS(cfg.TemplatePath)
	if err != nil {
		return errors.Wrap(err, "template fs")
	}

	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		if cat, err = catalog.Load(cfg.CatalogPath); err != nil {
			return errors.Wrap(err, "load catalog", slog.String("path", cfg.CatalogPath))
		}
	}

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "failed to close db", errors.SlogError(closeErr))
		}
	}()
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db")

	var recorder *flightrecorder.Service
	if cfg.TracesDir != "" {
		if recorder, err = flightrecorder.New(flightrecorder.Config{
			Logger:          logger,
			MinAge:          0,
			MaxBytes:        0,
			Cooldown:        0,
			TracesDirectory: cfg.TracesDir,
		}); err != nil {
			return errors.Wrap(err, "new flight recorder")
		}
		if err = recorder.Start(ctx); err != nil {
			return errors.Wrap(err, "start flight recorder")
		}
		defer recorder.Stop(ctx)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := workout.NewMetrics(registry)

	// Without a token every plan is rule-based.
	var requester workout.Requester
	if cfg.HuggingFaceToken != "" {
		requester = workout.NewModelRequester(workout.ModelConfig{
			APIKey:     cfg.HuggingFaceToken,
			BaseURL:    cfg.LLMBaseURL,
			Models:     cfg.LLMModels,
			Timeout:    cfg.LLMTimeout,
			HTTPClient: nil,
		}, logger, metrics)
	} else {
		logger.LogAttrs(ctx, slog.LevelWarn, "HUGGINGFACE_API_TOKEN not set, plans are built from rules")
	}
	generator := workout.NewGenerator(cat, requester, logger, workout.WithMetrics(metrics))

	app := application{
		logger:            logger,
		templateFS:        templates,
		catalog:           cat,
		workoutService:    workout.NewService(db, generator, logger),
		registry:          registry,
		flightRecorder:    recorder,
		generationTimeout: generationTimeout(cfg, requester != nil),
	}

	handler, err := app.routes()
	if err != nil {
		return errors.Wrap(err, "routes")
	}
	if err = app.configureAndStartServer(ctx, cfg.Addr, handler); err != nil {
		return errors.Wrap(err, "start server")
	}
	return nil
}

// generationTimeout leaves room for every configured model to run into its own timeout.
func generationTimeout(cfg config, modelsEnabled bool) time.Duration {
	if !modelsEnabled {
		return defaultTimeout
	}
	models := len(cfg.LLMModels)
	if models == 0 {
		models = len(workout.DefaultModels())
	}
	return time.Duration(models)*cfg.LLMTimeout + defaultTimeout
}

func main() {
	ctx := context.Background()
	level, err := logging.ParseLevel(os.Getenv("FITQUEST_LOG_LEVEL"))
	logger := logging.NewLogger(os.Stdout, level)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelWarn, "invalid log level, using info", errors.SlogError(err))
	}
	if err = run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
