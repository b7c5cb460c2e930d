package grpc

import (
	"context"

	"github.com/dmitrijs2005/portalusers/internal/server/models"
	"google.golang.org/grpc"
)

const ServiceName = "portalusers.UserService"

const (
	FullMethodCreateOrUpdateUser = "/" + ServiceName + "/CreateOrUpdateUser"
	FullMethodSearchUsers        = "/" + ServiceName + "/SearchUsers"
	FullMethodFindUser           = "/" + ServiceName + "/FindUser"
	FullMethodFindUsers          = "/" + ServiceName + "/FindUsers"
	FullMethodLogin              = "/" + ServiceName + "/Login"
	FullMethodPing               = "/" + ServiceName + "/Ping"
)

type CreateOrUpdateUserRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Email       string `json:"email"`
	DisplayName string `json:"userDisplayName"`
}

type CreateOrUpdateUserResponse struct{}

type SearchUsersRequest struct {
	Keyword string `json:"keyword"`
	Offset  int    `json:"offset"`
	Limit   int    `json:"limit"`
}

type SearchUsersResponse struct {
	Users []models.UserSummary `json:"users"`
}

type FindUserRequest struct {
	UserID string `json:"userId"`
}

// FindUserResponse carries a nil User when no such user exists.
type FindUserResponse struct {
	User *models.UserSummary `json:"user,omitempty"`
}

type FindUsersRequest struct {
	UserIDs []string `json:"userIds"`
}

type FindUsersResponse struct {
	Users []models.UserSummary `json:"users"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

// UserServiceServer is implemented by GRPCServer.
type UserServiceServer interface {
	CreateOrUpdateUser(context.Context, *CreateOrUpdateUserRequest) (*CreateOrUpdateUserResponse, error)
	SearchUsers(context.Context, *SearchUsersRequest) (*SearchUsersResponse, error)
	FindUser(context.Context, *FindUserRequest) (*FindUserResponse, error)
	FindUsers(context.Context, *FindUsersRequest) (*FindUsersResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
}

// unaryHandler adapts a typed server method to grpc.MethodHandler, running
// it through the server's interceptor chain.
func unaryHandler[Req, Resp any](fullMethod string, call func(UserServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(UserServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(UserServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*UserServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateOrUpdateUser", Handler: unaryHandler(FullMethodCreateOrUpdateUser, UserServiceServer.CreateOrUpdateUser)},
		{MethodName: "SearchUsers", Handler: unaryHandler(FullMethodSearchUsers, UserServiceServer.SearchUsers)},
		{MethodName: "FindUser", Handler: unaryHandler(FullMethodFindUser, UserServiceServer.FindUser)},
		{MethodName: "FindUsers", Handler: unaryHandler(FullMethodFindUsers, UserServiceServer.FindUsers)},
		{MethodName: "Login", Handler: unaryHandler(FullMethodLogin, UserServiceServer.Login)},
		{MethodName: "Ping", Handler: unaryHandler(FullMethodPing, UserServiceServer.Ping)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "portalusers/user_service",
}

// Client calls UserService over any connection, always with the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *Client, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateOrUpdateUser(ctx context.Context, in *CreateOrUpdateUserRequest, opts ...grpc.CallOption) (*CreateOrUpdateUserResponse, error) {
	return invoke[CreateOrUpdateUserResponse](ctx, c, FullMethodCreateOrUpdateUser, in, opts)
}

func (c *Client) SearchUsers(ctx context.Context, in *SearchUsersRequest, opts ...grpc.CallOption) (*SearchUsersResponse, error) {
	return invoke[SearchUsersResponse](ctx, c, FullMethodSearchUsers, in, opts)
}

func (c *Client) FindUser(ctx context.Context, in *FindUserRequest, opts ...grpc.CallOption) (*FindUserResponse, error) {
	return invoke[FindUserResponse](ctx, c, FullMethodFindUser, in, opts)
}

func (c *Client) FindUsers(ctx context.Context, in *FindUsersRequest, opts ...grpc.CallOption) (*FindUsersResponse, error) {
	return invoke[FindUsersResponse](ctx, c, FullMethodFindUsers, in, opts)
}

func (c *Client) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c, FullMethodLogin, in, opts)
}

func (c *Client) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c, FullMethodPing, in, opts)
}
