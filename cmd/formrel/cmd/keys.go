package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solatis/formrel/internal/core/auth"
	"github.com/solatis/formrel/internal/core/config"
	"github.com/solatis/formrel/internal/core/db"
	"github.com/solatis/formrel/internal/types"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage API keys for the relation service",
}

var keysCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an API key; the key is printed once and never stored",
	Args:  cobra.NoArgs,
	RunE:  runKeysCreate,
}

var keysRevokeCmd = &cobra.Command{
	Use:   "revoke <key-id>",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysRevoke,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysCreateCmd, keysRevokeCmd)
	keysCreateCmd.Flags().String("tenant", "", "tenant id")
	keysCreateCmd.Flags().String("name", "", "key description")
	keysCreateCmd.Flags().String("secret-id", "", "HMAC secret to bind (default: any configured secret)")
	keysCreateCmd.MarkFlagRequired("tenant")
}

func runKeysCreate(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.logger.Sync()

	tenantID, _ := cmd.Flags().GetString("tenant")
	name, _ := cmd.Flags().GetString("name")
	secretID, _ := cmd.Flags().GetString("secret-id")

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	if secretID == "" {
		secretID, _ = secrets.Newest()
	}
	if _, ok := secrets[secretID]; !ok {
		return fmt.Errorf("no HMAC secret configured for secret_id %q (set FR_HMAC_SECRET)", secretID)
	}

	ctx := cmd.Context()
	database, queries, err := openStore(ctx, rt)
	if err != nil {
		return err
	}
	defer database.Close()

	key, err := auth.GenerateAPIKey(secretID)
	if err != nil {
		return err
	}
	hash, err := auth.NewAuthenticator(secrets, queries).Hash(key)
	if err != nil {
		return err
	}

	stored, err := db.NewKeyStore(queries).Insert(ctx, db.APIKey{
		ID:       types.NewKeyID(),
		TenantID: tenantID,
		Name:     name,
		SecretID: secretID,
	}, hash)
	if err != nil {
		return err
	}

	rt.logger.Info("api key created",
		zap.String("api_key_id", stored.ID),
		zap.String("tenant_id", tenantID),
		zap.String("secret_id", secretID))
	fmt.Fprintf(cmd.OutOrStdout(), "id:  %s\nkey: %s\n", stored.ID, key)
	return nil
}

func runKeysRevoke(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.logger.Sync()

	ctx := cmd.Context()
	database, queries, err := openStore(ctx, rt)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.NewKeyStore(queries).Revoke(ctx, args[0]); err != nil {
		return fmt.Errorf("failed to revoke %s: %w", args[0], err)
	}
	rt.logger.Info("api key revoked", zap.String("api_key_id", args[0]))
	return nil
}
