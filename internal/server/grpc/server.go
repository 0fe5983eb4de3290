// Package grpc serves the standard gRPC health service so orchestrators can
// probe the API without going through HTTP.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the service reported alongside the overall "" status.
const ServiceName = "taskkeeper"

type HealthServer struct {
	address  string
	logger   logging.Logger
	check    func(context.Context) error
	interval time.Duration
	health   *health.Server
	ready    chan string
}

// NewHealthServer builds a health server that runs check every interval and
// reports NOT_SERVING while it fails. A nil check always reports SERVING.
func NewHealthServer(a string, l logging.Logger, check func(context.Context) error, interval time.Duration) *HealthServer {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &HealthServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		check:    check,
		interval: interval,
		health:   health.NewServer(),
		ready:    make(chan string, 1),
	}
}

// Ready delivers the listening address after Run has bound it.
func (s *HealthServer) Ready() <-chan string {
	return s.ready
}

func (s *HealthServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	s.probe(ctx)

	go func() {
		t := time.NewTicker(s.interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logger.Info(ctx, "Stopping gRPC server...")
				s.health.Shutdown()
				srv.GracefulStop()
				return
			case <-t.C:
				s.probe(ctx)
			}
		}
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())
	s.ready <- listen.Addr().String()

	return srv.Serve(listen)
}

func (s *HealthServer) probe(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING

	if s.check != nil {
		cctx, cancel := context.WithTimeout(ctx, s.interval)
		err := s.check(cctx)
		cancel()
		if err != nil {
			s.logger.Warn(ctx, "health check failed", "error", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}

	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
