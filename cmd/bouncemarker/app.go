package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/OCAP2/bouncemarker/internal/config"
	"github.com/OCAP2/bouncemarker/internal/logging"
	intOtel "github.com/OCAP2/bouncemarker/internal/otel"
)

// app holds the logging and telemetry shared by all commands.
type app struct {
	started time.Time
	logs    *logging.SlogManager
	logger  *slog.Logger

	logFile      *os.File
	logFilePath  string
	otelProvider *intOtel.Provider
	closers      []io.Closer
}

func newApp() *app {
	return &app{
		started: time.Now(),
		logs:    logging.NewSlogManager(),
		logger:  slog.Default(),
	}
}

// setup loads the config and builds the logger for cmd.
func (a *app) setup(cmd *cobra.Command) error {
	configDir, _ := cmd.Flags().GetString("config")
	cfgErr := config.Load(configDir)

	sinks := logging.Sinks{Console: cmd.ErrOrStderr()}

	if viper.GetBool("logToFile") {
		if err := a.openLogFile(cmd.Name()); err != nil {
			return err
		}
		sinks.File = a.logFile
	}

	var gelfErr error
	if config.GetBool("graylog.enabled") {
		w, err := logging.NewGELFWriter(config.GetString("graylog.address"))
		if err != nil {
			gelfErr = err
		} else {
			sinks.GELF = w
			a.closers = append(a.closers, w)
		}
	}

	otelErr := a.setupOTel()
	if a.otelProvider != nil {
		sinks.Provider = a.otelProvider.LoggerProvider()
	}

	a.logs.Setup(viper.GetString("logLevel"), sinks)
	a.logger = a.logs.Logger()

	var notFound viper.ConfigFileNotFoundError
	switch {
	case errors.As(cfgErr, &notFound):
		a.logger.Debug("No config file, using defaults", "dir", configDir)
	case cfgErr != nil:
		a.logger.Warn("Failed to load config, using defaults!", "error", cfgErr)
	default:
		a.logger.Info("Loaded config", "dir", configDir)
	}
	if a.logFile != nil {
		a.logger.Info("Logging to file", "path", a.logFilePath)
	}
	if gelfErr != nil {
		a.logger.Error("Failed to connect to Graylog", "error", gelfErr)
	}
	if otelErr != nil {
		a.logger.Error("Failed to initialize OTel provider", "error", otelErr)
	}
	return nil
}

func (a *app) openLogFile(command string) error {
	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs dir: %w", err)
	}

	a.logFilePath = logging.LogFilePath(logsDir, command, a.started)
	if _, err := os.Stat(a.logFilePath); err == nil {
		_ = os.Rename(a.logFilePath, a.logFilePath+".old")
	}

	f, err := os.OpenFile(a.logFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	a.logFile = f
	return nil
}

// setupOTel starts the OTel provider when enabled. Exported records and
// metrics go to the log file, or to an OTLP endpoint when one is set.
func (a *app) setupOTel() error {
	otelCfg := config.GetOTelConfig()
	if !otelCfg.Enabled {
		return nil
	}

	cfg := intOtel.Config{
		Enabled:      otelCfg.Enabled,
		ServiceName:  otelCfg.ServiceName,
		BatchTimeout: otelCfg.BatchTimeout,
		Endpoint:     otelCfg.Endpoint,
		Insecure:     otelCfg.Insecure,
	}
	if a.logFile != nil {
		cfg.LogWriter = a.logFile
		cfg.MetricWriter = a.logFile
	}

	p, err := intOtel.New(cfg)
	if err != nil {
		return err
	}
	a.otelProvider = p
	return nil
}

// shutdown flushes telemetry and closes every sink opened by setup.
func (a *app) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errs := []error{a.logs.Flush(ctx)}
	if a.otelProvider != nil {
		errs = append(errs, a.otelProvider.Shutdown(ctx))
		a.otelProvider = nil
	}
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	a.closers = nil
	if a.logFile != nil {
		errs = append(errs, a.logFile.Close())
		a.logFile = nil
	}
	return errors.Join(errs...)
}
