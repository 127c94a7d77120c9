package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/jay2u/expert-ruby-cartridge/internal/application"
	"github.com/jay2u/expert-ruby-cartridge/internal/config"
	"github.com/jay2u/expert-ruby-cartridge/internal/logging"
)

var notifyContext = signal.NotifyContext

// loggedError marks a failure already reported through the logger.
type loggedError struct {
	error
}

func (e loggedError) Unwrap() error {
	return e.error
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		var logged loggedError
		if !errors.As(err, &logged) {
			fmt.Fprintf(os.Stderr, "pumaconf: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	kingpinApp := kingpin.New("pumaconf", "Generates the Puma server settings for an OpenShift Ruby gear")
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	format := kingpinApp.Flag("format", "Output format (puma, yaml, json)").Short('f').String()
	output := kingpinApp.Flag("output", "Output path, - for stdout").Short('o').String()
	var strictSet bool
	strict := kingpinApp.Flag("strict", "Fail when an OPENSHIFT_RUBY_* variable is unset").IsSetByUser(&strictSet).Bool()
	envFile := kingpinApp.Flag("env-file", "Dotenv file layered over the process environment").ExistingFile()
	environment := kingpinApp.Flag("environment", "Server environment (production, development, test)").String()
	minThreads := kingpinApp.Flag("min-threads", "Minimum worker threads").Default("-1").Int()
	maxThreads := kingpinApp.Flag("max-threads", "Maximum worker threads").Default("-1").Int()
	workers := kingpinApp.Flag("workers", "Clustered worker processes (0 for single mode)").Default("-1").Int()
	logLevel := kingpinApp.Flag("log-level", "Log level (debug, info, warn, error)").String()

	if _, err := kingpinApp.Parse(args); err != nil {
		return err
	}

	overrides := &config.CLIOverrides{
		ConfigFile:  *configFile,
		Format:      format,
		Output:      output,
		EnvFile:     envFile,
		Environment: environment,
		LogLevel:    logLevel,
	}

	if strictSet {
		overrides.Strict = strict
	}

	if *minThreads >= 0 {
		overrides.MinThreads = minThreads
	}

	if *maxThreads >= 0 {
		overrides.MaxThreads = maxThreads
	}

	if *workers >= 0 {
		overrides.Workers = workers
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(cfg, logger, application.WithStdout(stdout))
	if err != nil {
		logger.Error("failed to initialize application", zap.Error(err))
		return loggedError{err}
	}

	ctx, stop := notifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		logger.Error("failed to generate server settings", zap.Error(err))
		return loggedError{err}
	}
	return nil
}
