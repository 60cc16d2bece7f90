package server

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/OEduardoGL/lps-ecommerce/internal/app"
)

// NewHealthServer reports SERVING for the whole process ("") and for every active feature by name.
func NewHealthServer(services []app.Service) (*grpc.Server, *health.Server) {
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	for _, s := range services {
		healthServer.SetServingStatus(s.Name, healthpb.HealthCheckResponse_SERVING)
	}
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	return grpcServer, healthServer
}
