package application

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jay2u/expert-ruby-cartridge/internal/config"
	"github.com/jay2u/expert-ruby-cartridge/internal/environ"
	"github.com/jay2u/expert-ruby-cartridge/internal/render"
	"github.com/jay2u/expert-ruby-cartridge/internal/settings"
)

// App encapsulates the pumaconf dependencies.
type App struct {
	cfg    config.Config
	env    environ.Source
	stdout io.Writer
	logger *zap.Logger
}

// Option configures App behaviour.
type Option func(*App)

// WithSource replaces the process environment, primarily for tests.
func WithSource(src environ.Source) Option {
	return func(a *App) {
		a.env = src
	}
}

// WithStdout overrides where "-" output is written.
func WithStdout(w io.Writer) Option {
	return func(a *App) {
		a.stdout = w
	}
}

// New initializes the application from the provided configuration. When an
// env file is configured its values take precedence over the process
// environment.
func New(cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	app := &App{
		cfg:    cfg,
		env:    environ.OS(),
		stdout: os.Stdout,
		logger: logger,
	}
	for _, opt := range opts {
		opt(app)
	}

	if cfg.EnvFile != "" {
		fileEnv, err := environ.ReadDotEnv(cfg.EnvFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
		app.env = environ.Layered(fileEnv, app.env)
		logger.Debug("env file loaded", zap.String("path", cfg.EnvFile), zap.Strings("variables", fileEnv.Names()))
	}

	return app, nil
}

// Settings builds the server settings from the configured environment.
func (a *App) Settings() (settings.ServerSettings, error) {
	s, err := settings.Build(a.env,
		settings.WithPolicy(a.cfg.Policy()),
		settings.WithEnvironment(a.cfg.Environment),
		settings.WithThreads(a.cfg.MinThreads, a.cfg.MaxThreads),
		settings.WithWorkers(a.cfg.Workers),
		settings.WithLogger(a.logger),
	)
	if err != nil {
		return settings.ServerSettings{}, fmt.Errorf("build settings: %w", err)
	}

	if a.cfg.Strict {
		if err := s.Validate(); err != nil {
			return settings.ServerSettings{}, fmt.Errorf("validate settings: %w", err)
		}
	}
	return s, nil
}

// Run builds the settings and writes them in the configured format.
func (a *App) Run(ctx context.Context) error {
	s, err := a.Settings()
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if a.cfg.Output == "-" {
		return render.Render(a.stdout, s, a.cfg.Format)
	}

	if err := writeFile(a.cfg.Output, s, a.cfg.Format); err != nil {
		return err
	}
	a.logger.Info("server settings written",
		zap.String("path", a.cfg.Output),
		zap.String("format", string(a.cfg.Format)),
		zap.String("bind", s.BindAddress),
	)
	return nil
}

// writeFile replaces path atomically via a temp file in the same directory.
func writeFile(path string, s settings.ServerSettings, f render.Format) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if err := render.Render(tmp, s, f); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
