package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/LeJamon/goRingSim/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is the ringsim release, overridden at link time.
var Version = "0.1.0-dev"

// globalOptions holds the persistent flags and what they load.
type globalOptions struct {
	configFile string
	debug      bool
	quiet      bool

	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCommand builds the ringsim command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "ringsim",
		Short: "ringsim - ring settlement verifier",
		Long: `ringsim validates the orders of a ring settlement batch, replays the
settlement economics of every ring (fills, fees, burns, rebates and margins)
and reconciles the result against the balances, fee balances and filled
amounts reported after the batch was executed.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&opts.configFile, "conf", "", "configuration file path (TOML, YAML or JSON)")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging with human readable output")
	rootCmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "only log errors")

	rootCmd.AddCommand(
		newVerifyCommand(opts),
		newHistoryCommand(opts),
		newHashCommand(opts),
		newInitConfigCommand(),
		newVersionCommand(),
	)
	return rootCmd
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// load reads the configuration and builds the logger.
func (o *globalOptions) load() error {
	cfg, err := config.LoadConfig(o.configFile)
	if err != nil {
		return err
	}
	switch {
	case o.debug:
		cfg.Log.Level = "debug"
		cfg.Log.Development = true
	case o.quiet:
		cfg.Log.Level = "error"
	}

	logger, err := cfg.Log.NewLogger()
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.logger = logger
	return nil
}
