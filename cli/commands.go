// Package cli implements the memorycard command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/digitorus/memorycard/config"
	"github.com/digitorus/memorycard/internal/logger"
)

type app struct {
	configPath string
	logLevel   string

	cfg config.Config
	log zerolog.Logger
}

// NewRootCmd returns the memorycard command tree.
func NewRootCmd() *cobra.Command {
	a := &app{log: zerolog.Nop()}
	root := &cobra.Command{
		Use:           "memorycard",
		Short:         "Turn concert memories into printable PDF cards",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if a.logLevel != "" {
				cfg.LogLevel = a.logLevel
			}
			a.cfg = cfg
			a.log = logger.New("memorycard", logger.Options{
				Level:  cfg.LogLevel,
				Format: cfg.LogFormat,
				Out:    cmd.ErrOrStderr(),
			})
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (default ./memorycard.toml when present)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override the configured log level")

	root.AddCommand(
		a.renderCmd(),
		a.previewCmd(),
		a.inspectCmd(),
		a.templatesCmd(),
		a.lookupCmd(),
	)
	return root
}

// Execute runs the command line with os.Args.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
