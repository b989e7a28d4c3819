package api

import (
	"context"
	"fmt"
	"net"
	"time"

	"roombook/internal/config"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// BookingServiceName is the health service name that tracks the booking store.
const BookingServiceName = "roombook.Bookings"

// GRPCServer serves the standard gRPC health protocol. Serving status follows
// the database ping.
type GRPCServer struct {
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
	pinger   Pinger
	log      zerolog.Logger
}

func NewGRPCServer(cfg config.APIConfig, pinger Pinger, logger *zerolog.Logger) (*GRPCServer, error) {
	addr := fmt.Sprintf(":%d", cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("grpc listen %s: %w", addr, err)
	}

	unary := ChainUnaryInterceptors(
		LoggingUnaryInterceptor(logger),
		RateLimitUnaryInterceptor(newRateLimiter(cfg.RateLimit)),
	)
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(unary))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	if cfg.GRPC.Reflection {
		reflection.Register(grpcServer)
	}

	serverLogger := zerolog.Nop()
	if logger != nil {
		serverLogger = logger.With().Str("component", "grpc").Logger()
	}

	return &GRPCServer{
		server:   grpcServer,
		health:   healthServer,
		listener: lis,
		pinger:   pinger,
		log:      serverLogger,
	}, nil
}

func (s *GRPCServer) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Port is the bound TCP port, useful when the configured port is 0.
func (s *GRPCServer) Port() int {
	if tcp, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}

// CheckDatabase pings the store once and publishes the result.
func (s *GRPCServer) CheckDatabase(ctx context.Context) bool {
	st := healthpb.HealthCheckResponse_SERVING
	ok := true
	if s.pinger == nil {
		st, ok = healthpb.HealthCheckResponse_NOT_SERVING, false
	} else if err := s.pinger.PingContext(ctx); err != nil {
		s.log.Warn().Err(err).Msg("database ping failed")
		st, ok = healthpb.HealthCheckResponse_NOT_SERVING, false
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(BookingServiceName, st)
	return ok
}

// Watch re-checks the database every interval until ctx is done.
func (s *GRPCServer) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	s.CheckDatabase(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CheckDatabase(ctx)
		}
	}
}

func (s *GRPCServer) Serve() error {
	s.log.Info().Str("addr", s.Addr()).Msg("gRPC health listening")
	return s.server.Serve(s.listener)
}

func (s *GRPCServer) Shutdown(ctx context.Context) {
	if s.server == nil {
		return
	}
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return
	case <-ctx.Done():
		s.log.Warn().Msg("gRPC graceful shutdown timed out; forcing stop")
		s.server.Stop()
		return
	case <-time.After(10 * time.Second):
		s.log.Warn().Msg("gRPC graceful shutdown timed out; forcing stop")
		s.server.Stop()
		return
	}
}
