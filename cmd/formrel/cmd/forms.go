package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solatis/formrel/internal/core/db"
	"github.com/solatis/formrel/internal/formdef"
)

var formsCmd = &cobra.Command{
	Use:   "forms",
	Short: "Manage stored form definitions",
}

var formsImportCmd = &cobra.Command{
	Use:   "import <definition>...",
	Short: "Validate and store definitions for a tenant",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFormsImport,
}

var formsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a tenant's stored definitions",
	Args:  cobra.NoArgs,
	RunE:  runFormsList,
}

var formsDeleteCmd = &cobra.Command{
	Use:   "delete <form-id>",
	Short: "Delete a stored definition",
	Args:  cobra.ExactArgs(1),
	RunE:  runFormsDelete,
}

func init() {
	rootCmd.AddCommand(formsCmd)
	formsCmd.AddCommand(formsImportCmd, formsListCmd, formsDeleteCmd)
	formsCmd.PersistentFlags().String("tenant", "", "tenant id")
	formsCmd.MarkPersistentFlagRequired("tenant")
}

func runFormsImport(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.logger.Sync()
	tenantID, _ := cmd.Flags().GetString("tenant")

	// Validate everything before writing anything
	docs := make([]*formdef.Document, 0, len(args))
	for _, path := range args {
		doc, err := formdef.Load(path)
		if err != nil {
			return err
		}
		if _, err := formdef.Evaluate(doc, nil, formdef.Options{Engine: rt.engine, Logger: rt.logger}); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		docs = append(docs, doc)
	}

	ctx := cmd.Context()
	database, queries, err := openStore(ctx, rt)
	if err != nil {
		return err
	}
	defer database.Close()

	store := db.NewFormStore(queries)
	for _, doc := range docs {
		etag, err := doc.ETag()
		if err != nil {
			return err
		}
		id, err := store.Save(ctx, tenantID, doc)
		if err != nil {
			return err
		}
		rt.logger.Info("form imported",
			zap.String("tenant_id", tenantID),
			zap.String("form_id", doc.ID),
			zap.String("id", string(id)))
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", doc.ID, id, etag)
	}
	return nil
}

func runFormsList(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.logger.Sync()
	tenantID, _ := cmd.Flags().GetString("tenant")

	ctx := cmd.Context()
	database, queries, err := openStore(ctx, rt)
	if err != nil {
		return err
	}
	defer database.Close()

	recs, err := db.NewFormStore(queries).List(ctx, tenantID)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FORM\tNAME\tID\tUPDATED")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Slug, r.Name, r.FormID, r.UpdatedAt.UTC().Format(time.RFC3339))
	}
	return tw.Flush()
}

func runFormsDelete(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.logger.Sync()
	tenantID, _ := cmd.Flags().GetString("tenant")

	ctx := cmd.Context()
	database, queries, err := openStore(ctx, rt)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.NewFormStore(queries).Delete(ctx, tenantID, args[0]); err != nil {
		return err
	}
	rt.logger.Info("form deleted", zap.String("tenant_id", tenantID), zap.String("form_id", args[0]))
	return nil
}
