package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ironsheep/roadshape-mcp/internal/config"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information and Tesseract availability",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "roadshape-mcp %s\n", Version)
		fmt.Fprintf(out, "  Go:         %s\n", runtime.Version())
		fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)

		cfg := config.DefaultConfig()
		if mgr, err := config.NewManager(cfgFile); err == nil {
			cfg = mgr.Get()
		}
		info := cfg.OCRDetector().Probe()
		if info.Available {
			fmt.Fprintf(out, "  Tesseract:  %s (%s)\n", info.Version, info.Language)
		} else {
			fmt.Fprintf(out, "  Tesseract:  unavailable (%s)\n", info.Error)
		}
	},
}
