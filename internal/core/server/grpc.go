// Package server provides gRPC server lifecycle management.
package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/solatis/formrel/internal/core/api"
	"github.com/solatis/formrel/internal/core/auth"
	"github.com/solatis/formrel/internal/core/config"
)

// shutdownTimeout bounds GracefulStop before the server is stopped hard.
const shutdownTimeout = 30 * time.Second

// GRPCServer manages gRPC server lifecycle.
type GRPCServer struct {
	server *grpc.Server
	health *health.Server
	config config.ServerConfig
	logger *zap.Logger

	stopSweep context.CancelFunc
}

// NewGRPCServer creates gRPC server with logging, timeout, auth and
// optional per-tenant rate limit interceptors and registers the relation
// and health services. Health checks skip authentication.
func NewGRPCServer(cfg config.ServerConfig, service api.RelationServiceServer, authenticator *auth.Authenticator, logger *zap.Logger) (*GRPCServer, error) {
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if authenticator == nil {
		return nil, fmt.Errorf("authenticator cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	interceptors := []grpc.UnaryServerInterceptor{
		loggingInterceptor(logger),
		timeoutInterceptor(cfg.RequestTimeout),
		authenticator.UnaryInterceptor(
			grpc_health_v1.Health_Check_FullMethodName,
		),
	}
	stopSweep := func() {}
	if cfg.RateLimit > 0 {
		limiter := newTenantLimiter(cfg.RateLimit, cfg.RateBurst)
		interceptors = append(interceptors, limiter.unaryInterceptor())
		var sweepCtx context.Context
		sweepCtx, stopSweep = context.WithCancel(context.Background())
		go limiter.run(sweepCtx)
	}

	opts := []grpc.ServerOption{grpc.ChainUnaryInterceptor(interceptors...)}
	if cfg.MaxConnections > 0 {
		opts = append(opts, grpc.MaxConcurrentStreams(uint32(cfg.MaxConnections)))
	}

	server := grpc.NewServer(opts...)
	api.RegisterRelationServiceServer(server, service)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(api.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &GRPCServer{
		server: server,
		health: healthServer,
		config: cfg,
		logger: logger,

		stopSweep: stopSweep,
	}, nil
}

// Start binds listener and serves gRPC requests.
// Serve blocks until Shutdown is called.
func (s *GRPCServer) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}

	s.logger.Info("grpc server listening", zap.String("addr", listener.Addr().String()))
	return s.Serve(listener)
}

// Serve serves on an existing listener.
func (s *GRPCServer) Serve(listener net.Listener) error {
	return s.server.Serve(listener)
}

// Shutdown gracefully stops server with 30-second timeout.
func (s *GRPCServer) Shutdown(ctx context.Context) error {
	s.health.Shutdown()
	s.stopSweep()

	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return fmt.Errorf("shutdown cancelled by context: %w", ctx.Err())
	case <-time.After(shutdownTimeout):
		s.server.Stop()
		return fmt.Errorf("graceful shutdown timeout, forced stop")
	}
}

// loggingInterceptor logs one line per call with its code and latency.
func loggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("duration", time.Since(start)),
		}
		if err != nil {
			logger.Warn("grpc request failed", append(fields, zap.Error(err))...)
		} else {
			logger.Debug("grpc request", fields...)
		}
		return resp, err
	}
}

// timeoutInterceptor applies the configured per-request deadline.
func timeoutInterceptor(timeout time.Duration) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if timeout <= 0 {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return handler(ctx, req)
	}
}
