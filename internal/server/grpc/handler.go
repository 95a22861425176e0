package grpc

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dmitrijs2005/bizkeeper/internal/common"
	"github.com/dmitrijs2005/bizkeeper/internal/rpc"
	"github.com/dmitrijs2005/bizkeeper/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) Ping(ctx context.Context, req *rpc.PingRequest) (*rpc.PingResponse, error) {
	return &rpc.PingResponse{Status: "OK"}, nil
}

func (s *GRPCServer) List(ctx context.Context, req *rpc.ListRequest) (*rpc.ListResponse, error) {
	userID, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	items, err := s.records.List(ctx, userID, req.EntityType)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	out := make([]rpc.Record, 0, len(items))
	for _, r := range items {
		out = append(out, toWire(r))
	}
	return &rpc.ListResponse{Records: out}, nil
}

func (s *GRPCServer) Get(ctx context.Context, req *rpc.GetRequest) (*rpc.GetResponse, error) {
	userID, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	r, err := s.records.Get(ctx, userID, req.EntityType, req.ID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.GetResponse{Record: toWire(r)}, nil
}

func (s *GRPCServer) Upsert(ctx context.Context, req *rpc.UpsertRequest) (*rpc.UpsertResponse, error) {
	userID, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	r, err := s.records.Upsert(ctx, userID, &models.Record{
		EntityType: req.EntityType,
		ID:         req.Record.ID,
		CreatedAt:  req.Record.CreatedAt,
		UpdatedAt:  req.Record.UpdatedAt,
		Data:       req.Record.Data,
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Debug(ctx, "Upserted", "entity_type", r.EntityType, "id", r.ID, "user_id", userID)
	return &rpc.UpsertResponse{Record: toWire(r)}, nil
}

func (s *GRPCServer) Delete(ctx context.Context, req *rpc.DeleteRequest) (*rpc.DeleteResponse, error) {
	userID, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	existed, err := s.records.Delete(ctx, userID, req.EntityType, req.ID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.DeleteResponse{Existed: existed}, nil
}

func (s *GRPCServer) requireUser(ctx context.Context) (string, error) {
	userID, ok := userIDFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "unauthorized")
	}
	return userID, nil
}

// toStatus maps service errors to gRPC status codes. Unknown errors are
// logged and reported as Internal without details.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrorForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, common.ErrorInvalidEntityType), errors.Is(err, common.ErrorInvalidRecord):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		s.logger.Error(ctx, err.Error())
		return status.Error(codes.Internal, "internal error")
	}
}

func toWire(r *models.Record) rpc.Record {
	return rpc.Record{
		ID:        r.ID,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
		Data:      json.RawMessage(r.Data),
	}
}
