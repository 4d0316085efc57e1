package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/opendv/site-config/internal/application"
	"github.com/opendv/site-config/internal/config"
	"github.com/opendv/site-config/internal/logging"
	"github.com/opendv/site-config/internal/siteconfig"
)

var signalNotify = signal.Notify

func main() {
	kingpinApp := kingpin.New("site-config", "OPEN DV site configuration - resolves and serves the portfolio site settings")
	configFile := kingpinApp.Flag("config", "Path to YAML service configuration file").String()
	port := kingpinApp.Flag("port", "HTTP port exposed by the service").String()
	siteFile := kingpinApp.Flag("site-config", "Path to YAML site base overlay").String()
	sliceMachineFile := kingpinApp.Flag("slicemachine-config", "Path to slicemachine.config.json").String()
	logLevel := kingpinApp.Flag("log-level", "Log level (debug, info, warn, error)").String()
	rateLimitRPSFlag := kingpinApp.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := kingpinApp.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	serveCmd := kingpinApp.Command("serve", "Resolve the site configuration and serve it over HTTP").Default()
	checkCmd := kingpinApp.Command("check", "Resolve the site configuration, print it and exit")
	checkFormat := checkCmd.Flag("output", "Output format").Short('o').Default("yaml").Enum("yaml", "json")

	command := kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
	}

	if *port != "" {
		overrides.Port = port
	}

	if *siteFile != "" {
		overrides.SiteConfigFile = siteFile
	}

	if *sliceMachineFile != "" {
		overrides.SliceMachineFile = sliceMachineFile
	}

	if *logLevel != "" {
		overrides.LogLevel = logLevel
	}

	if *rateLimitRPSFlag >= 0 {
		overrides.RateLimitRPS = rateLimitRPSFlag
	}

	if *rateLimitBurstFlag >= 0 {
		overrides.RateLimitBurst = rateLimitBurstFlag
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	if command == checkCmd.FullCommand() {
		if err := runCheck(os.Stdout, cfg, siteconfig.OSEnvironment(), *checkFormat); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if command != serveCmd.FullCommand() {
		kingpinApp.FatalUsage("unknown command %q", command)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	site, err := application.ResolveSite(cfg, siteconfig.OSEnvironment(), logger)
	if err != nil {
		logger.Fatal("failed to resolve site configuration", zap.Error(err))
	}

	app, err := application.New(cfg, site, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

// runCheck resolves the site configuration and writes the redacted snapshot
// to w. On validation failure the returned error lists every violation.
func runCheck(w io.Writer, cfg config.Config, env siteconfig.Environment, format string) error {
	base, err := application.LoadBase(cfg)
	if err != nil {
		return err
	}

	site, err := siteconfig.Resolve(base, env)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(site.View())
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(site.View()); err != nil {
			return err
		}
		return enc.Close()
	default:
		return errors.New("unsupported output format " + format)
	}
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
