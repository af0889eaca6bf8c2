package grpc

import (
	"context"

	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/application"
	"google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

type PublicationInternalServer struct {
	grpc_health_v1.UnimplementedHealthServer
	service *application.Service
}

func NewPublicationInternalServer(service *application.Service) *PublicationInternalServer {
	return &PublicationInternalServer{service: service}
}

func Register(server grpc.ServiceRegistrar, svc *PublicationInternalServer) {
	grpc_health_v1.RegisterHealthServer(server, svc)
}

func (s *PublicationInternalServer) Check(context.Context, *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	_ = s.service
	return &grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_SERVING}, nil
}

func (s *PublicationInternalServer) Watch(*grpc_health_v1.HealthCheckRequest, grpc_health_v1.Health_WatchServer) error {
	_ = s.service
	return nil
}
