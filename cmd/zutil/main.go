package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dnlvgl/zutil/internal/command"
	"github.com/dnlvgl/zutil/internal/config"
	"github.com/dnlvgl/zutil/internal/logging"
	"github.com/dnlvgl/zutil/internal/metrics"
	"github.com/dnlvgl/zutil/internal/query"
	"github.com/dnlvgl/zutil/internal/ui"
	"github.com/dnlvgl/zutil/internal/zone"
)

var version = "dev" // overridden at build time via -ldflags

// app carries global flags and the state PersistentPreRunE builds from them.
type app struct {
	configPath string
	logLevel   string
	timeout    time.Duration
	output     string
	noColor    bool

	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	root := a.rootCmd()
	err := root.ExecuteContext(ctx)
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(exitCode(err))
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "zutil",
		Short:         "Query illumos zones, their configuration and services",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/zutil/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 0, "Timeout for each host command (default from config, 10s)")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", formatTable, "Output format: table, json, yaml")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(a.listCmd())
	root.AddCommand(a.currentCmd())
	root.AddCommand(a.getCmd())
	root.AddCommand(a.attrsCmd())
	root.AddCommand(a.svcCmd())
	root.AddCommand(a.browseCmd())
	root.AddCommand(a.exportCmd())
	return root
}

// setup loads config, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	if err := checkFormat(a.output); err != nil {
		return err
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Timeout = a.timeout
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	ui.ConfigureColor(a.noColor)

	logger.Debug("configuration loaded",
		zap.Duration("timeout", cfg.Timeout),
		zap.Strings("services", cfg.Services))
	return nil
}

// client builds a query client over the host tools named in the config.
func (a *app) client(ctx context.Context, m *metrics.Metrics) (*query.Client, error) {
	runner := command.NewExec(a.cfg.Timeout, a.logger)
	registry := zone.NewRegistry(runner,
		zone.WithCommands(a.cfg.ZoneCommands()),
		zone.WithLogger(a.logger))

	return query.New(ctx, query.Options{
		Registry:       registry,
		Runner:         runner,
		ZonecfgCommand: a.cfg.Commands.Zonecfg,
		SMFCommands:    a.cfg.SMFCommands(),
		Logger:         a.logger,
		Metrics:        m,
	})
}

// Exit codes by error kind.
const (
	exitError      = 1
	exitUsage      = 2
	exitNotFound   = 3
	exitRegistry   = 4
	exitTimeout    = 5
	exitServiceBad = 6
)

func exitCode(err error) int {
	if errors.Is(err, errServicesFailed) {
		return exitServiceBad
	}
	switch zone.KindOf(err) {
	case "validation":
		return exitUsage
	case "zone_not_found", "attribute_not_found", "service_not_found":
		return exitNotFound
	case "registry_unavailable":
		return exitRegistry
	case "timeout":
		return exitTimeout
	default:
		return exitError
	}
}
