package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/roadshape-mcp/internal/config"
)

var (
	cfgFile      string
	logLevel     string
	outputFormat string
)

// level is shared by every handler so a config reload can change it.
var level = new(slog.LevelVar)

var rootCmd = &cobra.Command{
	Use:   "roadshape-mcp",
	Short: "MCP server that finds and classifies road shapes in map images",
	Long: `roadshape-mcp finds closed road formations in rendered street maps
(city blocks, loops, roundabouts, star intersections) and classifies each
one by its geometry.

Without a subcommand it runs as an MCP server on stdin/stdout. Configure it
in your MCP client (e.g., Claude Desktop).

Environment variables:
  ROADSHAPE_LOG_LEVEL=debug            Enable debug logging
  ROADSHAPE_DETECTION_MIN_AREA=1200    Any config key, upper-cased with _`,
	Version:      Version,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./roadshape.yaml or ~/.roadshape/roadshape.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "", "log level: debug, info, warn or error (overrides config)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "json", "output format: json or yaml",
	)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the configuration and returns it with a stderr logger.
// Stdout is reserved for MCP traffic and command output.
func loadConfig() (*config.Manager, *slog.Logger, error) {
	mgr, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if err := applyLogLevel(mgr.Get()); err != nil {
		return nil, nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	if f := mgr.ConfigFile(); f != "" {
		logger.Debug("config loaded", "file", f)
	}
	return mgr, logger, nil
}

// applyLogLevel sets the shared level from --log-level, or from cfg when
// the flag is absent.
func applyLogLevel(cfg *config.Config) error {
	name := cfg.LogLevel
	if logLevel != "" {
		name = logLevel
	}
	l, err := config.ParseLogLevel(name)
	if err != nil {
		return err
	}
	level.Set(l)
	return nil
}
