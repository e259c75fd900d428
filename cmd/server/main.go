package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/constants/internal/application"
	"github.com/eugenenazirov/constants/internal/config"
	"github.com/eugenenazirov/constants/internal/logging"
)

var signalNotify = signal.Notify

func main() {
	overrides, err := parseFlags(os.Args[1:])
	kingpin.FatalIfError(err, "parse flags")

	cfg, err := config.Load(overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

// parseFlags maps command-line flags onto config overrides. Flags the user
// did not pass stay nil so lower-precedence sources apply.
func parseFlags(args []string) (*config.CLIOverrides, error) {
	kingpinApp := kingpin.New("constants-server", "Loads a directory of YAML constants at startup and serves them read-only")
	configFile := kingpinApp.Flag("config", "Path to YAML settings file").String()

	var dirSet, nameSet, envSet, reservedSet, portSet, levelSet bool
	dir := kingpinApp.Flag("constants-dir", "Directory holding *.yml constant files").IsSetByUser(&dirSet).String()
	name := kingpinApp.Flag("name", "Name the constants are bound to").IsSetByUser(&nameSet).String()
	env := kingpinApp.Flag("env", "Run mode exposed to templates as .Env").IsSetByUser(&envSet).String()
	reserved := kingpinApp.Flag("reserved-names", "Reject constant keys that collide with query method names").IsSetByUser(&reservedSet).Bool()
	port := kingpinApp.Flag("port", "HTTP port exposed by the service").IsSetByUser(&portSet).String()
	logLevel := kingpinApp.Flag("log-level", "Log level (debug, info, warn, error)").IsSetByUser(&levelSet).String()
	rateLimitRPS := kingpinApp.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurst := kingpinApp.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	if _, err := kingpinApp.Parse(args); err != nil {
		return nil, err
	}

	overrides := &config.CLIOverrides{ConfigFile: *configFile}
	if dirSet {
		overrides.ConstantsDir = dir
	}
	if nameSet {
		overrides.BindingName = name
	}
	if envSet {
		overrides.Env = env
	}
	if reservedSet {
		overrides.ReservedNames = reserved
	}
	if portSet {
		overrides.Port = port
	}
	if levelSet {
		overrides.LogLevel = logLevel
	}
	if *rateLimitRPS >= 0 {
		overrides.RateLimitRPS = rateLimitRPS
	}
	if *rateLimitBurst >= 0 {
		overrides.RateLimitBurst = rateLimitBurst
	}
	return overrides, nil
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
