package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/suPer8Hu/ai-widget/internal/config"
	"github.com/suPer8Hu/ai-widget/internal/logging"
)

// app carries what every subcommand needs once the root has run.
type app struct {
	cfg    config.Config
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var (
		configFile string
		debug      bool
		logLevel   string
	)

	root := &cobra.Command{
		Use:           "widget",
		Short:         "Aidemy chat widget: terminal host and development webhook",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				if err := os.Setenv("WIDGET_CONFIG_FILE", configFile); err != nil {
					return err
				}
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("debug") {
				cfg.Debug = debug
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			a.cfg = cfg
			a.logger = logging.New(logging.Options{
				Debug:   cfg.Debug,
				Level:   cfg.LogLevel,
				Console: term.IsTerminal(int(os.Stderr.Fd())),
			})
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "YAML config file (overrides WIDGET_CONFIG_FILE)")
	pf.BoolVar(&debug, "debug", false, "log exchange diagnostics at debug level")
	pf.StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")

	root.AddCommand(newChatCmd(a), newDevhookCmd(a), newArchiveCmd(a))
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
