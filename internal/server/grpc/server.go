// Package grpcserver exposes the content history gRPC API handlers.
package grpcserver

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/and161185/content-history/internal/convert"
	"github.com/and161185/content-history/internal/errs"
	"github.com/and161185/content-history/internal/model"
	"github.com/and161185/content-history/internal/service"
)

// Server wires services into gRPC handlers.
type Server struct {
	history service.HistoryService
	tokens  service.TokenService
}

var _ HistoryServer = (*Server)(nil)

// New constructs a gRPC server with injected services.
func New(history service.HistoryService, tokens service.TokenService) *Server {
	return &Server{history: history, tokens: tokens}
}

// ListVersions returns the version list of one item plus its live fingerprint.
func (s *Server) ListVersions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := s.actorFromCtx(ctx)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "no auth")
	}
	alias, q, err := convert.FromListRequest(req)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "bad request: %v", err)
	}
	h, err := s.history.List(ctx, actor, alias, q)
	if err != nil {
		return nil, toStatus("list versions", err)
	}
	return encoded(convert.ToHistoryResponse(h))
}

// GetVersion returns one version the caller may modify.
func (s *Server) GetVersion(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := s.actorFromCtx(ctx)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "no auth")
	}
	id, err := convert.Int64(req, convert.FieldVersionID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "bad request: %v", err)
	}
	v, err := s.history.Get(ctx, actor, convert.String(req, convert.FieldTypeAlias), id)
	if err != nil {
		return nil, toStatus("get version", err)
	}
	return encoded(convert.ToVersionResponse(*v))
}

// DeleteVersions deletes a batch of versions.
func (s *Server) DeleteVersions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.batch(ctx, req, s.history.Delete, "delete versions")
}

// KeepVersions toggles keep-forever on a batch of versions.
func (s *Server) KeepVersions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.batch(ctx, req, s.history.Keep, "keep versions")
}

type batchFunc func(ctx context.Context, actor model.Actor, typeAlias string, keys []int64) (model.BatchResult, error)

func (s *Server) batch(ctx context.Context, req *structpb.Struct, run batchFunc, op string) (*structpb.Struct, error) {
	actor, err := s.actorFromCtx(ctx)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "no auth")
	}
	alias, keys, err := convert.FromBatchRequest(req)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "bad ids: %v", err)
	}
	res, err := run(ctx, actor, alias, keys)
	if err != nil {
		return nil, toStatus(op, err)
	}
	return encoded(convert.ToBatchResponse(res))
}

// CurrentHash returns the fingerprint of the live item.
func (s *Server) CurrentHash(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := s.actorFromCtx(ctx)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "no auth")
	}
	typeID, err := convert.Int64(req, convert.FieldTypeID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "bad request: %v", err)
	}
	itemID, err := convert.Int64(req, convert.FieldItemID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "bad request: %v", err)
	}
	hash, found, err := s.history.CurrentHash(ctx, actor, convert.String(req, convert.FieldTypeAlias), typeID, itemID)
	if err != nil {
		return nil, toStatus("current hash", err)
	}
	return encoded(convert.ToHashResponse(hash, found))
}

func encoded(out *structpb.Struct, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// toStatus maps service sentinels to gRPC codes.
func toStatus(op string, err error) error {
	switch {
	case errors.Is(err, errs.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, errs.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, "no auth")
	case errors.Is(err, errs.ErrUnauthorized):
		return status.Error(codes.PermissionDenied, "not permitted")
	case errors.Is(err, errs.ErrNotFound):
		return status.Errorf(codes.NotFound, "%s: not found", op)
	case errors.Is(err, errs.ErrKeptForever):
		return status.Errorf(codes.FailedPrecondition, "%s: kept forever", op)
	case errors.Is(err, errs.ErrBrokenData):
		return status.Errorf(codes.FailedPrecondition, "%s: %v", op, err)
	default:
		return status.Errorf(codes.Internal, "%s: %v", op, err)
	}
}

// actorFromCtx returns the caller set by an in-process caller or named by the
// bearer token.
func (s *Server) actorFromCtx(ctx context.Context) (model.Actor, error) {
	if a, ok := ActorFromCtx(ctx); ok {
		return a, nil
	}
	tok, err := bearerTokenFromMD(ctx)
	if err != nil {
		return model.Actor{}, err
	}
	return s.tokens.Actor(tok)
}

func bearerTokenFromMD(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", errors.New("no metadata")
	}
	for _, v := range md.Get("authorization") {
		v = strings.TrimSpace(v)
		if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
			t := strings.TrimSpace(v[7:])
			if t != "" {
				return t, nil
			}
		}
	}
	return "", errors.New("no bearer token")
}
