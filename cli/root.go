// Package cli wires the flowpaint commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pthm-cable/flowpaint/config"
	"github.com/pthm-cable/flowpaint/logging"
)

// Version is set at build time with -ldflags "-X .../cli.Version=...".
var Version = "dev"

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "flowpaint",
		Short:         "Paint images by advecting pigment particles through flow fields",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(newRenderCmd(), newPreviewCmd(), newPaletteCmd())
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		zap.L().Error("command failed", zap.Error(err))
		_ = zap.L().Sync()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadRun reads the params file and installs the configured logger as the
// global zap logger.
func loadRun(cmd *cobra.Command, path string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if cmd.Flags().Changed("seed") {
		seed, _ := cmd.Flags().GetUint64("seed")
		cfg.SetSeed(seed)
	}

	log := logging.New(cfg.Logging, cmd.ErrOrStderr())
	zap.ReplaceGlobals(log)
	return cfg, log, nil
}
