package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solatis/formrel/internal/formdef"
)

var validateCmd = &cobra.Command{
	Use:   "validate <definition>...",
	Short: "Check definitions against the schema and build their relations",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// runValidate reports every file and fails if any is invalid. Building the
// form catches relation errors the schema cannot, such as self dependency.
func runValidate(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.logger.Sync()

	failed := 0
	for _, path := range args {
		doc, err := formdef.Load(path)
		if err == nil {
			_, err = formdef.Evaluate(doc, nil, formdef.Options{Engine: rt.engine, Logger: rt.logger})
		}
		if err != nil {
			failed++
			rt.logger.Error("invalid definition", zap.String("path", path), zap.Error(err))
			fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok   %s (%s, %d fields)\n", path, doc.ID, doc.FieldCount())
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d definitions invalid", failed, len(args))
	}
	return nil
}
