package grpc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/bps3275/sinora/internal/application"
	"github.com/bps3275/sinora/internal/domain"
)

const serviceName = "sinora.honor.v1.HonorInternalService"

// HonorInternalService is the internal contract other back-office services call.
type HonorInternalService interface {
	ValidateToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetMonthlyHonor(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type HonorInternalServer struct {
	service *application.Service
}

func NewHonorInternalServer(service *application.Service) *HonorInternalServer {
	return &HonorInternalServer{service: service}
}

func Register(server grpc.ServiceRegistrar, svc HonorInternalService) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*HonorInternalService)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "ValidateToken", Handler: unaryHandler("ValidateToken", svc.ValidateToken)},
			{MethodName: "GetMonthlyHonor", Handler: unaryHandler("GetMonthlyHonor", svc.GetMonthlyHonor)},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "sinora/honor/v1/honor_internal.proto",
	}, svc)
}

func (s *HonorInternalServer) ValidateToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	token := req.GetFields()["token"].GetStringValue()
	if token == "" {
		return nil, status.Error(codes.InvalidArgument, "missing token")
	}

	claims, err := s.service.ValidateToken(ctx, token)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}
	return newStruct(map[string]any{
		"valid":      true,
		"user_id":    claims.UserID,
		"nip":        claims.NIP,
		"role":       claims.Role,
		"expires_at": claims.ExpiresAt.Unix(),
	})
}

func (s *HonorInternalServer) GetMonthlyHonor(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	sobatID := fields["sobat_id"].GetStringValue()
	if sobatID == "" {
		return nil, status.Error(codes.InvalidArgument, "missing sobat_id")
	}
	month := int(fields["month"].GetNumberValue())
	year := int(fields["year"].GetNumberValue())

	resp, err := s.service.MitraMonthlyHonor(ctx, sobatID, month, year)
	if err != nil {
		return nil, toStatus(err)
	}
	out := map[string]any{
		"sobat_id":      resp.SobatID,
		"month":         resp.Month,
		"year":          resp.Year,
		"jenis_petugas": resp.JenisPetugas,
		"total_honor":   resp.TotalHonor,
		"honor_max":     nil,
		"remaining":     nil,
	}
	if resp.HonorMax != nil {
		out["honor_max"] = *resp.HonorMax
		out["remaining"] = *resp.Remaining
	}
	return newStruct(out)
}

func newStruct(fields map[string]any) (*structpb.Struct, error) {
	resp, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrSessionRevoked), errors.Is(err, domain.ErrSessionExpired):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

type unaryMethod func(context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := &structpb.Struct{}
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + serviceName + "/" + method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*structpb.Struct)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return call(ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}

// LoggingInterceptor logs every unary call with its status code.
func LoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		started := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		level := slog.LevelInfo
		outcome := "success"
		if err != nil {
			level = slog.LevelWarn
			outcome = "failure"
		}
		logger.Log(ctx, level, "grpc call completed",
			"module", "grpc",
			"layer", "adapter",
			"operation", info.FullMethod,
			"outcome", outcome,
			"code", code.String(),
			"duration_ms", time.Since(started).Milliseconds(),
		)
		return resp, err
	}
}
