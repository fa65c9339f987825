package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/solatis/formrel/internal/formdef"
	"github.com/solatis/formrel/internal/types"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <definition>",
	Short: "Evaluate a form definition against a values file",
	Args:  cobra.ExactArgs(1),
	RunE:  runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().String("values", "", "values file (JSON or YAML object of path -> value)")
	evaluateCmd.Flags().Bool("explain", false, "include per-condition traces")
	evaluateCmd.Flags().StringP("output", "o", "json", "output format (json, text)")
	evaluateCmd.Flags().Bool("fail-invalid", false, "exit non-zero when the form is invalid")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.logger.Sync()

	valuesPath, _ := cmd.Flags().GetString("values")
	explain, _ := cmd.Flags().GetBool("explain")
	output, _ := cmd.Flags().GetString("output")
	failInvalid, _ := cmd.Flags().GetBool("fail-invalid")

	doc, err := formdef.Load(args[0])
	if err != nil {
		return err
	}
	values, err := formdef.LoadValues(valuesPath)
	if err != nil {
		return err
	}

	report, err := formdef.Evaluate(doc, values, formdef.Options{
		Engine:  rt.engine,
		Logger:  rt.logger,
		Explain: explain,
	})
	if err != nil {
		return err
	}

	if err := writeReport(cmd.OutOrStdout(), report, output); err != nil {
		return err
	}
	if failInvalid && report.Status == types.StatusInvalid {
		return fmt.Errorf("form %s is invalid", report.FormID)
	}
	return nil
}

// writeReport renders a report as indented JSON or an aligned table.
func writeReport(w io.Writer, report formdef.Report, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "text":
		return writeReportText(w, report)
	default:
		return fmt.Errorf("unknown output format %q (expected json or text)", format)
	}
}

func writeReportText(w io.Writer, report formdef.Report) error {
	fmt.Fprintf(w, "form %s: %s\n", report.FormID, report.Status)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tSTATUS\tDISABLED\tHIDDEN\tREQUIRED\tERRORS")
	for _, f := range report.Fields {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%t\t%t\t%s\n",
			f.Path, f.Status, f.Disabled, f.Hidden, f.Required, strings.Join(f.Errors, ","))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, tr := range report.Traces {
		fmt.Fprintf(w, "\n%s %s triggered=%t\n", tr.Field, tr.Action, tr.Triggered)
		for _, s := range tr.Steps {
			switch {
			case !s.Resolved:
				fmt.Fprintf(w, "  [%d] %s unresolved -> %t\n", s.Index, s.TargetID, s.Triggered)
			case s.ShortCircuited:
				fmt.Fprintf(w, "  [%d] %s short-circuited -> %t\n", s.Index, s.TargetID, s.Triggered)
			default:
				fmt.Fprintf(w, "  [%d] %s %s raw=%t -> %t\n", s.Index, s.TargetID, s.Operator, s.Raw, s.Triggered)
			}
		}
	}
	return nil
}
