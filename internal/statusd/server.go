// Package statusd exposes the state of a running grid search to external
// supervisors and records run summaries.
package statusd

import (
	"fmt"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/logger"
)

// ServiceName is the health service name a grid search reports under
const ServiceName = "gridsearch"

// Server is a gRPC health endpoint. It reports NOT_SERVING until a run starts
// and again once it has finished.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	lis        net.Listener

	mu      sync.Mutex
	serving bool
	stopped bool
}

// NewServer listens on addr and registers the health service
func NewServer(addr string) (*Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	// TODO: Configure gRPC server security (e.g., TLS) before exposing the
	// endpoint beyond localhost.
	gs := grpc.NewServer()
	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(gs, hs)

	return &Server{grpcServer: gs, health: hs, lis: lis}, nil
}

// Addr returns the address the server is listening on
func (s *Server) Addr() string {
	return s.lis.Addr().String()
}

// Start serves in the background
func (s *Server) Start() {
	go func() {
		logger.Info("status server listening", "addr", s.Addr())
		if err := s.grpcServer.Serve(s.lis); err != nil && err != grpc.ErrServerStopped {
			logger.Error("status server error", "error", err)
		}
	}()
}

// SetServing updates the reported status of the grid search service
func (s *Server) SetServing(serving bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.serving = serving
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(ServiceName, status)
}

// Serving reports the last status set
func (s *Server) Serving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serving
}

// Stop marks every service NOT_SERVING and stops the server gracefully
func (s *Server) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.serving = false
	s.mu.Unlock()

	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
