package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/OCAP2/geotime/internal/ai"
	"github.com/OCAP2/geotime/internal/ai/gemini"
	"github.com/OCAP2/geotime/internal/api"
	"github.com/OCAP2/geotime/internal/cache"
	"github.com/OCAP2/geotime/internal/catalog"
	"github.com/OCAP2/geotime/internal/config"
	"github.com/OCAP2/geotime/internal/logging"
	intOtel "github.com/OCAP2/geotime/internal/otel"
	"github.com/OCAP2/geotime/internal/storage"
	"github.com/OCAP2/geotime/internal/workspace"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// app carries what every command shares: config, logging and telemetry.
type app struct {
	configDir string
	logLevel  string
	logStdout bool

	sessionStart time.Time
	logFile      *os.File
	logs         *logging.SlogManager
	logger       *slog.Logger
	otel         *intOtel.Provider

	out io.Writer
}

func newApp(out io.Writer) *app {
	return &app{
		sessionStart: time.Now(),
		logs:         logging.NewSlogManager(),
		logger:       slog.Default(),
		out:          out,
	}
}

// loadEnvFiles loads .env then .env.local; missing files are fine.
func loadEnvFiles() {
	for _, name := range []string{".env", ".env.local"} {
		_ = godotenv.Load(name)
	}
}

// setup loads configuration and starts logging. Records go to a session file
// under logsDir unless logStdout is set.
func (a *app) setup(ctx context.Context) error {
	loadEnvFiles()
	cfgErr := config.Load(a.configDir)
	if a.logLevel != "" {
		viper.Set("logLevel", a.logLevel)
	}

	var w io.Writer
	if !a.logStdout {
		f, err := logging.OpenLogFile(config.GetString("logsDir"), AppName, a.sessionStart)
		if err != nil {
			return err
		}
		a.logFile = f
		w = f
	}

	provider, err := intOtel.New(ctx, intOtel.FromConfig(config.GetOTelConfig(), w))
	if err != nil {
		// Keep going with plain logging.
		fmt.Fprintln(os.Stderr, "OpenTelemetry disabled:", err)
		provider, _ = intOtel.New(ctx, intOtel.Config{})
	}
	a.otel = provider

	a.logs.Setup(w, config.GetString("logLevel"), a.otel.LoggerProvider())
	a.logger = a.logs.Logger()
	a.logger.Info("Starting up", "app", AppName, "version", CurrentVersion, "build", BuildDate)
	if cfgErr != nil {
		a.logger.Warn("Using default configuration", "dir", a.configDir, "error", cfgErr)
	}
	if a.otel.Enabled() {
		a.logger.Info("OpenTelemetry log export enabled")
	}
	return nil
}

// close flushes telemetry and closes the session log.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.logs.Flush(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to flush logs:", err)
	}
	if a.otel != nil {
		if err := a.otel.Shutdown(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "Failed to shut down OpenTelemetry:", err)
		}
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

// openBackend creates and initializes the configured storage backend.
func (a *app) openBackend() (storage.Backend, error) {
	cfg := config.GetStorageConfig()
	backend, err := storage.NewBackend(cfg, a.logs.Zerolog())
	if err != nil {
		return nil, err
	}
	if err := backend.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize %s storage: %w", cfg.Type, err)
	}
	a.logger.Info("Storage backend initialized", "type", cfg.Type)
	return backend, nil
}

// newAI builds the AI collaborator and the geocoder chain. Without an API
// key the collaborator is disabled and geocoding falls back to Nominatim
// alone.
func (a *app) newAI(ctx context.Context) (ai.Service, ai.Geocoder) {
	cfg := config.GetAIConfig()
	osm := api.New(cfg.NominatimURL, cfg.Timeout)

	var (
		svc     ai.Service = ai.Disabled{}
		primary ai.Geocoder
	)
	client, err := a.newGemini(ctx, cfg)
	switch {
	case err == nil:
		svc, primary = client, client
		a.logger.Info("AI collaborator enabled", "model", cfg.Model)
	case errors.Is(err, ai.ErrMissingCredentials):
		a.logger.Warn("AI collaborator disabled, no API key in environment")
	default:
		a.logger.Error("AI collaborator disabled", "error", err)
	}

	geocoder := ai.CachedGeocoder{
		Geocoder: ai.FallbackGeocoder{Primary: primary, Fallback: osm, Logger: a.logger},
		Cache:    cache.NewGeoCache(cfg.CacheTTL),
	}
	return svc, geocoder
}

func (a *app) newGemini(ctx context.Context, cfg config.AIConfig) (*gemini.Client, error) {
	creds, err := ai.LoadCredentials()
	if err != nil {
		return nil, err
	}
	key, err := creds.Key()
	if err != nil {
		return nil, err
	}
	return gemini.New(ctx, gemini.Config{APIKey: key, Model: cfg.Model, Timeout: cfg.Timeout})
}

// newWorkspace wires a workspace. backend may be nil.
func (a *app) newWorkspace(ctx context.Context, backend storage.Backend) (*workspace.Workspace, error) {
	cat, err := catalog.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	svc, geocoder := a.newAI(ctx)
	return workspace.New(workspace.Dependencies{
		Catalog:  cat,
		AI:       svc,
		Geocoder: geocoder,
		Backend:  backend,
		Logger:   a.logger,
	})
}
