package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solatis/formrel/internal/formdef"
	"github.com/solatis/formrel/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch <definition>",
	Short: "Re-evaluate a definition whenever it or its values file changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().String("values", "", "values file (JSON or YAML object of path -> value)")
	watchCmd.Flags().Bool("explain", false, "include per-condition traces")
	watchCmd.Flags().StringP("output", "o", "text", "output format (json, text)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.logger.Sync()

	valuesPath, _ := cmd.Flags().GetString("values")
	explain, _ := cmd.Flags().GetBool("explain")
	output, _ := cmd.Flags().GetString("output")

	out := cmd.OutOrStdout()
	w, err := watch.New(watch.Config{
		DefinitionPath: args[0],
		ValuesPath:     valuesPath,
		Options:        formdef.Options{Engine: rt.engine, Logger: rt.logger, Explain: explain},
	}, func(report formdef.Report) {
		if err := writeReport(out, report, output); err != nil {
			rt.logger.Error("failed to write report", zap.Error(err))
		}
	}, rt.logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt.logger.Info("watching definition", zap.String("path", args[0]), zap.String("values", valuesPath))
	return w.Run(ctx)
}
