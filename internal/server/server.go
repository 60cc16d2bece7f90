package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"github.com/OEduardoGL/lps-ecommerce/internal/app"
)

type Server struct {
	services []app.Service
	grpcAddr string
	log      *logrus.Logger

	mu    sync.Mutex
	addrs map[string]string
}

// New prepares one HTTP server per service. grpcPort empty disables the gRPC health endpoint.
func New(services []app.Service, grpcPort string, logger *logrus.Logger) *Server {
	if grpcPort != "" && !strings.Contains(grpcPort, ":") {
		grpcPort = ":" + grpcPort
	}
	return &Server{
		services: services,
		grpcAddr: grpcPort,
		log:      logger,
		addrs:    map[string]string{},
	}
}

// Addr returns the address a service is listening on once Run has bound it.
func (s *Server) Addr(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addrs[name]
}

type listener struct {
	name string
	lis  net.Listener
	srv  *http.Server
}

// Run binds every port up front, serves until ctx is done or a server fails, then shuts
// everything down within shutdownTimeout.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	var listeners []listener
	closeAll := func() {
		for _, l := range listeners {
			_ = l.lis.Close()
		}
	}

	for _, svc := range s.services {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", svc.Port))
		if err != nil {
			closeAll()
			return fmt.Errorf("failed to listen for %s on port %d: %w", svc.Name, svc.Port, err)
		}
		listeners = append(listeners, listener{
			name: svc.Name,
			lis:  lis,
			srv:  &http.Server{Handler: NewRouter(svc.Name, svc.Routes, s.log), ReadHeaderTimeout: 10 * time.Second},
		})
		s.mu.Lock()
		s.addrs[svc.Name] = lis.Addr().String()
		s.mu.Unlock()
	}

	var (
		grpcServer   *grpc.Server
		healthServer *health.Server
		grpcLis      net.Listener
	)
	if s.grpcAddr != "" {
		var err error
		grpcLis, err = net.Listen("tcp", s.grpcAddr)
		if err != nil {
			closeAll()
			return fmt.Errorf("failed to listen for gRPC on %s: %w", s.grpcAddr, err)
		}
		grpcServer, healthServer = NewHealthServer(s.services)
		s.mu.Lock()
		s.addrs["grpc"] = grpcLis.Addr().String()
		s.mu.Unlock()
	}

	errCh := make(chan error, len(listeners)+1)
	for _, l := range listeners {
		l := l
		go func() {
			s.log.Infof("Feature '%s' listening on %s", l.name, l.lis.Addr())
			if err := l.srv.Serve(l.lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("%s server: %w", l.name, err)
			}
		}()
	}
	if grpcServer != nil {
		go func() {
			s.log.Infof("gRPC health server listening on %s", grpcLis.Addr())
			if err := grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		s.log.Warn("Shutdown signal received...")
	case runErr = <-errCh:
		s.log.Errorf("Server failed: %v", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, l := range listeners {
		if err := l.srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("Error shutting down %s: %v", l.name, err)
		}
	}
	if grpcServer != nil {
		healthServer.Shutdown()
		grpcServer.GracefulStop()
	}
	s.log.Info("All servers stopped")
	return runErr
}
