package grpc

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/portalusers/internal/common"
	"github.com/dmitrijs2005/portalusers/internal/server/auth"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const (
	claimsKey    ctxKey = "claims"
	requestIDKey ctxKey = "requestID"

	RequestIDHeaderName = "x-request-id"
)

// protectedMethods need a valid access token.
var protectedMethods = map[string]bool{
	FullMethodCreateOrUpdateUser: true,
}

// ClaimsFromContext returns the token claims placed by the access-token interceptor.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*auth.Claims)
	return c, ok
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithAccessToken attaches token to outgoing call metadata.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, common.AccessTokenHeaderName, token)
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if protectedMethods[info.FullMethod] {

		var accessToken string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			values := md.Get(common.AccessTokenHeaderName)
			if len(values) > 0 {
				accessToken = values[0]
			}
		}
		if len(accessToken) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing token")
		}

		claims, err := auth.ParseToken(accessToken, s.jwtSecret)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}

		ctx = context.WithValue(ctx, claimsKey, claims)

	}

	return handler(ctx, req)
}

// loggingInterceptor tags each call with a request id, echoes it back in the
// response header and logs the outcome.
func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	id := uuid.NewString()
	ctx = context.WithValue(ctx, requestIDKey, id)
	// fails outside a real server stream
	_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeaderName, id))

	l := s.logger.With("request_id", id, "method", info.FullMethod)
	start := time.Now()

	resp, err := handler(ctx, req)

	// internal failures are logged with their cause by toStatus
	l.Info(ctx, "request handled", "code", status.Code(err).String(), "duration", time.Since(start))
	return resp, err
}

func (s *GRPCServer) metricsInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if s.metrics == nil {
		return handler(ctx, req)
	}
	start := time.Now()
	resp, err := handler(ctx, req)
	s.metrics.Observe(methodName(info.FullMethod), status.Code(err).String(), time.Since(start))
	return resp, err
}

// methodName strips the service prefix: "/pkg.Svc/Login" -> "Login".
func methodName(fullMethod string) string {
	return fullMethod[strings.LastIndexByte(fullMethod, '/')+1:]
}
