// Package grpc exposes the records service over gRPC with bearer-token
// authentication.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/bizkeeper/internal/logging"
	"github.com/dmitrijs2005/bizkeeper/internal/rpc"
	"github.com/dmitrijs2005/bizkeeper/internal/server/models"
	"google.golang.org/grpc"
)

// RecordService is the business layer the handlers delegate to.
type RecordService interface {
	List(ctx context.Context, userID, entityType string) ([]*models.Record, error)
	Get(ctx context.Context, userID, entityType, id string) (*models.Record, error)
	Upsert(ctx context.Context, userID string, record *models.Record) (*models.Record, error)
	Delete(ctx context.Context, userID, entityType, id string) (bool, error)
}

// Authenticator resolves a bearer token to a user id.
type Authenticator interface {
	Authenticate(token string) (string, error)
}

type GRPCServer struct {
	rpc.UnimplementedRecordsServer
	address string
	records RecordService
	tokens  Authenticator
	logger  logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, rs RecordService, tokens Authenticator) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		records: rs,
		tokens:  tokens,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))
	rpc.RegisterRecordsServer(srv, s)
	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	stopped := make(chan struct{})
	defer close(stopped)

	go func() {
		select {
		case <-ctx.Done():
			s.logger.Info(context.Background(), "Stopping gRPC server...")
			srv.GracefulStop()
		case <-stopped:
		}
	}()

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
