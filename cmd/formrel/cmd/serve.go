package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solatis/formrel/internal/core/api"
	"github.com/solatis/formrel/internal/core/auth"
	"github.com/solatis/formrel/internal/core/config"
	"github.com/solatis/formrel/internal/core/db"
	"github.com/solatis/formrel/internal/core/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gRPC relation service",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "", "gRPC server host")
	serveCmd.Flags().Int("port", 0, "gRPC server port")
}

func runServe(cmd *cobra.Command, args []string) error {
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

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	if len(secrets) == 0 {
		return fmt.Errorf("no HMAC secrets configured (set FR_HMAC_SECRET environment variable)")
	}

	authenticator := auth.NewAuthenticator(secrets, queries)

	service, err := api.NewRelationService(db.NewFormStore(queries), api.Options{
		Engine:    rt.engine,
		Logger:    rt.logger,
		MaxFields: rt.cfg.Server.MaxFields,
	})
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	grpcServer, err := server.NewGRPCServer(rt.cfg.Server, service, authenticator, rt.logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	rt.logger.Info("starting formrel relation service",
		zap.String("version", Version),
		zap.String("host", rt.cfg.Server.Host),
		zap.Int("port", rt.cfg.Server.Port),
		zap.String("resolver", rt.cfg.Engine.Resolver))

	errChan := make(chan error, 1)
	go func() {
		errChan <- grpcServer.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		rt.logger.Info("shutting down gracefully")
		return grpcServer.Shutdown(context.Background())
	}
}
