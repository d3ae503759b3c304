package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pthm-cable/flowpaint/preview"
	"github.com/pthm-cable/flowpaint/render"
	"github.com/pthm-cable/flowpaint/session"
)

func newRenderCmd() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "render <params.yaml> <out.png|out.bmp>",
		Short: "Paint every layer headless and write the image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := args[1]
			if err := render.CheckPath(out); err != nil {
				return err
			}

			cfg, log, err := loadRun(cmd, args[0])
			if err != nil {
				return err
			}
			defer log.Sync()

			s, err := session.New(cfg, session.Options{Logger: log, OutputDir: outputDir})
			if err != nil {
				return err
			}
			defer s.Close()

			start := time.Now()
			if err := s.Run(); err != nil {
				return err
			}
			if err := render.WriteFile(out, s.Render()); err != nil {
				return err
			}

			log.Info("painting complete",
				zap.String("path", out),
				zap.Int("iterations", s.Iterations()),
				zap.Duration("elapsed", time.Since(start)),
			)
			return nil
		},
	}
	cmd.Flags().Uint64("seed", 0, "RNG seed (overrides rand_seed)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for CSV logs and config snapshot")
	return cmd
}

func newPreviewCmd() *cobra.Command {
	var (
		stepsPerFrame int
		savePath      string
	)

	cmd := &cobra.Command{
		Use:   "preview <params.yaml>",
		Short: "Watch the painting in a window and paint with the mouse",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if savePath != "" {
				if err := render.CheckPath(savePath); err != nil {
					return err
				}
			}

			cfg, log, err := loadRun(cmd, args[0])
			if err != nil {
				return err
			}
			defer log.Sync()

			s, err := session.New(cfg, session.Options{Logger: log})
			if err != nil {
				return err
			}
			defer s.Close()

			return preview.Run(s, preview.Options{
				StepsPerFrame: stepsPerFrame,
				SavePath:      savePath,
				Logger:        log,
			})
		},
	}
	cmd.Flags().Uint64("seed", 0, "RNG seed (overrides rand_seed)")
	cmd.Flags().IntVar(&stepsPerFrame, "steps-per-frame", 1, "Iterations run per rendered frame")
	cmd.Flags().StringVar(&savePath, "save", "", "Image path for the Save button")
	return cmd
}

func newPaletteCmd() *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "palette <image>",
		Short: "Print the most frequent colours of an image as hex",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if n < 1 {
				return fmt.Errorf("-n must be at least 1, got %d", n)
			}
			img, err := render.ReadFile(args[0])
			if err != nil {
				return err
			}
			for _, c := range render.TopColors(img, n) {
				fmt.Fprintln(cmd.OutOrStdout(), render.Hex(c))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "num", "n", 5, "Number of colours")
	return cmd
}
