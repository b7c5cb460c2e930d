package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/portalusers/internal/logging"
	"github.com/dmitrijs2005/portalusers/internal/server/metrics"
	"github.com/dmitrijs2005/portalusers/internal/server/models"
	"google.golang.org/grpc"
)

// UserService is the business API the transport exposes.
type UserService interface {
	CreateOrUpdate(ctx context.Context, candidate *models.UserCandidate) error
	SearchUsers(ctx context.Context, keyword string, offset, limit int) ([]models.UserSummary, error)
	FindByUserID(ctx context.Context, userID string) (*models.UserSummary, error)
	FindByUserIDs(ctx context.Context, userIDs []string) ([]models.UserSummary, error)
	Authenticate(ctx context.Context, userName, password string) (string, error)
}

type GRPCServer struct {
	address       string
	users         UserService
	logger        logging.Logger
	metrics       *metrics.Metrics
	jwtSecret     []byte
	adminUserName string
}

// NewGRPCServer builds the server. m may be nil to disable metrics.
func NewGRPCServer(a string, l logging.Logger, us UserService, m *metrics.Metrics, secretKey, adminUserName string) *GRPCServer {
	return &GRPCServer{
		address:       a,
		logger:        l.With("module", "grpc_server"),
		users:         us,
		metrics:       m,
		jwtSecret:     []byte(secretKey),
		adminUserName: adminUserName,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		s.loggingInterceptor,
		s.metricsInterceptor,
		s.accessTokenInterceptor,
	))
	srv.RegisterService(&ServiceDesc, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
