package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/msomdec/strikkeguide/internal/config"
)

type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "patternctl",
		Short: "Extract and render size-specific knitting patterns",
		Long: `patternctl turns pattern PDFs, photos and text files into structured
pattern documents and prints the instructions for one size.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if a.verbose {
				level = slog.LevelDebug
			}
			a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			slog.SetDefault(a.logger)

			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", os.Getenv("STRIKKEGUIDE_CONFIG"), "YAML config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(newExtractCmd(a), newRenderCmd(a), newWatchCmd(a))
	return root
}
