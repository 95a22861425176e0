package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/bizkeeper/internal/common"
	"github.com/dmitrijs2005/bizkeeper/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type recordsStub interface {
	Ping(ctx context.Context, in *rpc.PingRequest, opts ...grpc.CallOption) (*rpc.PingResponse, error)
	List(ctx context.Context, in *rpc.ListRequest, opts ...grpc.CallOption) (*rpc.ListResponse, error)
	Get(ctx context.Context, in *rpc.GetRequest, opts ...grpc.CallOption) (*rpc.GetResponse, error)
	Upsert(ctx context.Context, in *rpc.UpsertRequest, opts ...grpc.CallOption) (*rpc.UpsertResponse, error)
	Delete(ctx context.Context, in *rpc.DeleteRequest, opts ...grpc.CallOption) (*rpc.DeleteResponse, error)
}

type GRPCClient struct {
	endpointURL    string
	conn           *grpc.ClientConn
	client         recordsStub
	requestTimeout time.Duration
	dialOptions    []grpc.DialOption

	mu          sync.RWMutex
	accessToken string
}

type Option func(*GRPCClient)

// WithRequestTimeout bounds every call that has no earlier deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *GRPCClient) { c.requestTimeout = d }
}

// WithDialOptions appends dial options, e.g. a custom dialer in tests.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(c *GRPCClient) { c.dialOptions = append(c.dialOptions, opts...) }
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AuthorizationHeaderName)
	md.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if token := s.AccessToken(); token != "" {
		ctx = withAccessToken(ctx, token)
	}

	if _, ok := ctx.Deadline(); !ok && s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	return invoker(ctx, method, req, reply, cc, opts...)
}

func NewRecordsClient(endpointURL string, opts ...Option) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {
	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, s.dialOptions...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = rpc.NewRecordsClient(conn)
	return nil
}

// SetAccessToken replaces the bearer token used by subsequent calls. An
// empty token sends unauthenticated requests.
func (s *GRPCClient) SetAccessToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = token
}

func (s *GRPCClient) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx, &rpc.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}

	if resp.Status != "OK" {
		return ErrUnavailable
	}

	return nil
}

func (s *GRPCClient) List(ctx context.Context, entityType string) ([]rpc.Record, error) {
	resp, err := s.client.List(ctx, &rpc.ListRequest{EntityType: entityType})
	if err != nil {
		return nil, s.mapError(err)
	}
	if resp.Records == nil {
		return []rpc.Record{}, nil
	}
	return resp.Records, nil
}

func (s *GRPCClient) Get(ctx context.Context, entityType, id string) (*rpc.Record, error) {
	resp, err := s.client.Get(ctx, &rpc.GetRequest{EntityType: entityType, ID: id})
	if err != nil {
		return nil, s.mapError(err)
	}
	return &resp.Record, nil
}

func (s *GRPCClient) Upsert(ctx context.Context, entityType string, rec rpc.Record) (*rpc.Record, error) {
	resp, err := s.client.Upsert(ctx, &rpc.UpsertRequest{EntityType: entityType, Record: rec})
	if err != nil {
		return nil, s.mapError(err)
	}
	return &resp.Record, nil
}

func (s *GRPCClient) Delete(ctx context.Context, entityType, id string) (bool, error) {
	resp, err := s.client.Delete(ctx, &rpc.DeleteRequest{EntityType: entityType, ID: id})
	if err != nil {
		return false, s.mapError(err)
	}
	return resp.Existed, nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("rpc error: %w", err)
	}
	switch st.Code() {
	case codes.Unauthenticated:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	case codes.PermissionDenied, codes.InvalidArgument, codes.FailedPrecondition:
		return fmt.Errorf("%w: %s", ErrRejected, st.Message())
	case codes.NotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
