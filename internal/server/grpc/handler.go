package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/portalusers/internal/common"
	"github.com/dmitrijs2005/portalusers/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors onto gRPC codes. Internal details are logged,
// not returned.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	default:
		s.logger.Error(ctx, "request failed", "request_id", RequestIDFromContext(ctx), "error", err.Error())
		return status.Error(codes.Internal, "internal error")
	}
}

// CreateOrUpdateUser lets the admin manage any account and everybody else
// only their own. Tokens without ROLE_user are refused.
func (s *GRPCServer) CreateOrUpdateUser(ctx context.Context, req *CreateOrUpdateUserRequest) (*CreateOrUpdateUserResponse, error) {

	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}
	if !claims.HasAuthority(common.DefaultAuthority) ||
		(claims.Subject != s.adminUserName && claims.Subject != req.Username) {
		return nil, status.Error(codes.PermissionDenied, "not allowed to modify user "+req.Username)
	}

	err := s.users.CreateOrUpdate(ctx, &models.UserCandidate{
		UserName:    req.Username,
		Password:    req.Password,
		Email:       req.Email,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "User saved", "username", req.Username, "by", claims.Subject,
		"request_id", RequestIDFromContext(ctx))
	return &CreateOrUpdateUserResponse{}, nil
}

func (s *GRPCServer) SearchUsers(ctx context.Context, req *SearchUsersRequest) (*SearchUsersResponse, error) {

	users, err := s.users.SearchUsers(ctx, req.Keyword, req.Offset, req.Limit)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &SearchUsersResponse{Users: users}, nil
}

func (s *GRPCServer) FindUser(ctx context.Context, req *FindUserRequest) (*FindUserResponse, error) {

	user, err := s.users.FindByUserID(ctx, req.UserID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &FindUserResponse{User: user}, nil
}

func (s *GRPCServer) FindUsers(ctx context.Context, req *FindUsersRequest) (*FindUsersResponse, error) {

	users, err := s.users.FindByUserIDs(ctx, req.UserIDs)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &FindUsersResponse{Users: users}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {

	token, err := s.users.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &LoginResponse{AccessToken: token}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *PingRequest) (*PingResponse, error) {

	return &PingResponse{Status: "OK"}, nil

}
