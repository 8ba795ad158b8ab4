package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"yashubustudio/reviewdesk/review"
)

var version = "dev"

type options struct {
	cfgFile string
	verbose bool
	logger  *zap.Logger
}

// Execute runs the review-cli command tree.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	opts := &options{logger: zap.NewNop()}
	cmd := &cobra.Command{
		Use:   "review-cli",
		Short: "Inspect and batch-edit image evaluation spreadsheets",
		Long: `review-cli works on the same spreadsheets as the review desk.

It summarizes verdicts per assignee, prints single records with their
resolved image, and applies YAML batches of verdict edits, exporting only
the rows that changed.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			if opts.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = opts.logger.Sync()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file path (default: ./config.json)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newSummaryCmd(opts))
	cmd.AddCommand(newShowCmd(opts))
	cmd.AddCommand(newApplyCmd(opts))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// openSession loads the configuration and the spreadsheet at path.
func (o *options) openSession(path string) (*review.Session, error) {
	cfg, err := review.LoadConfig(o.cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	s := review.NewSession(cfg, o.logger)
	if err := s.Load(path); err != nil {
		return nil, err
	}
	return s, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "review-cli version %s\n", version)
		},
	}
}
