package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/roadshape-mcp/internal/config"
	"github.com/ironsheep/roadshape-mcp/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdin/stdout",
	Long: `Run the MCP server on stdin/stdout. This is the default command.

When a config file is in use it is watched, and edits to detection, mask
and OCR settings or the log level apply to the next tool call without a
restart. Logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	mgr, logger, err := loadConfig()
	if err != nil {
		return err
	}

	srv, err := server.New(server.Options{
		Config:  mgr.Get(),
		Logger:  logger,
		Version: Version,
	})
	if err != nil {
		return err
	}

	if f := mgr.ConfigFile(); f != "" {
		mgr.OnChange(func(cfg *config.Config) {
			srv.SetConfig(cfg)
			if err := applyLogLevel(cfg); err != nil {
				logger.Warn("log level unchanged", "error", err)
			}
			logger.Info("configuration reloaded", "file", f)
		})
		mgr.WatchConfig()
	}

	logger.Info("roadshape-mcp starting",
		"version", Version,
		"commit", GitCommit,
		"text_detector", mgr.Get().Detection.TextDetector)

	return srv.Run(ctx, os.Stdin, os.Stdout)
}
