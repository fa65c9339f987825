package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solatis/formrel/internal/core/config"
	"github.com/solatis/formrel/internal/core/logging"
	"github.com/solatis/formrel/internal/relation"
)

// Version is reported by serve at startup.
const Version = "0.1.0"

var configFile string

var rootCmd = &cobra.Command{
	Use:          "formrel",
	Short:        "formrel form relation engine",
	Long:         `formrel evaluates declarative form definitions whose fields enable, hide or require each other based on the values and validity of other fields.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().String("db-url", "", "database connection URL (sqlite://path or postgres://...)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (json, text)")
	rootCmd.PersistentFlags().String("resolver", "", "control lookup strategy (ancestor, descent)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// runtime is the shared setup every subcommand needs.
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
	engine *relation.Engine
}

// setup loads configuration with the command's flags bound over it and
// builds the logger and relation engine.
func setup(cmd *cobra.Command) (*runtime, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	resolver, err := relation.ResolverByName(cfg.Engine.Resolver)
	if err != nil {
		return nil, err
	}

	return &runtime{
		cfg:    cfg,
		logger: logger,
		engine: relation.NewEngine(relation.WithResolver(resolver)),
	}, nil
}
