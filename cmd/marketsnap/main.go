package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketsnap/internal/app"
	"github.com/ternarybob/marketsnap/internal/common"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	outputPath   = flag.String("out", "", "Snapshot output path (overrides config)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	common.LoadVersionFromFile()

	if *showVersion || *showVersionV {
		fmt.Printf("MarketSnap version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("marketsnap.toml"); err == nil {
			configFiles = append(configFiles, "marketsnap.toml")
		} else if _, err := os.Stat("deployments/local/marketsnap.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/marketsnap.toml")
		}
	}

	// Startup order: config (defaults -> files -> env) -> CLI overrides
	// -> logger -> banner.
	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}
	if *outputPath != "" {
		config.Snapshot.OutputPath = *outputPath
	}

	logger := common.InitLogger(config)
	common.PrintBanner(common.GetFullVersion())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := app.New(config, logger)

	if config.Schedule.Enabled {
		err = application.RunScheduled(ctx)
	} else {
		err = application.RunOnce(ctx)
	}
	if err != nil {
		// Non-zero exit only when no output was produced.
		logger.Error().Err(err).Msg("Snapshot run failed")
		os.Exit(1)
	}
}
