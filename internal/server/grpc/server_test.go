package grpc

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/portalusers/internal/common"
	"github.com/dmitrijs2005/portalusers/internal/logging"
	"github.com/dmitrijs2005/portalusers/internal/server/auth"
	"github.com/dmitrijs2005/portalusers/internal/server/metrics"
	"github.com/dmitrijs2005/portalusers/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

// recordingLogger keeps Error calls, formatted with their args.
type recordingLogger struct {
	nopLogger
	errors []string
}

func (r *recordingLogger) Error(_ context.Context, msg string, args ...any) {
	r.errors = append(r.errors, fmt.Sprint(append([]any{msg}, args...)...))
}

func (r *recordingLogger) With(...any) logging.Logger { return r }

func newRecorder(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:0", nopLogger{}, &fakeUsers{}, nil, "secret", "apollo")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:99999", nopLogger{}, &fakeUsers{}, nil, "secret", "apollo")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Run(ctx); err == nil {
		t.Fatal("expected error from Run on bad address, got nil")
	}
}

// startBufconn serves s in memory and returns a connected client.
func startBufconn(t *testing.T, s *GRPCServer) *Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Serve(ctx, lis)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		<-done
	})
	return NewClient(conn)
}

func TestEndToEnd_OverJSONCodec(t *testing.T) {
	us := &fakeUsers{
		token:  "",
		search: []models.UserSummary{{UserID: "alice", Name: "Alice A", Email: "alice@example.com"}},
		found:  map[string]models.UserSummary{"alice": {UserID: "alice", Name: "Alice A", Email: "alice@example.com"}},
	}
	m := metrics.New()
	s := NewGRPCServer("", nopLogger{}, us, m, "secret", "apollo")
	c := startBufconn(t, s)
	ctx := context.Background()

	pong, err := c.Ping(ctx, &PingRequest{})
	require.NoError(t, err)
	assert.Equal(t, "OK", pong.Status)

	found, err := c.SearchUsers(ctx, &SearchUsersRequest{Keyword: "ali"})
	require.NoError(t, err)
	assert.Equal(t, us.search, found.Users)

	one, err := c.FindUser(ctx, &FindUserRequest{UserID: "ghost"})
	require.NoError(t, err)
	assert.Nil(t, one.User)

	many, err := c.FindUsers(ctx, &FindUsersRequest{UserIDs: []string{"alice"}})
	require.NoError(t, err)
	assert.Equal(t, us.search, many.Users)

	// no token
	_, err = c.CreateOrUpdateUser(ctx, &CreateOrUpdateUserRequest{Username: "alice"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	token, err := auth.GenerateToken("apollo", []string{common.DefaultAuthority}, []byte("secret"), time.Minute)
	require.NoError(t, err)
	us.token = token

	login, err := c.Login(ctx, &LoginRequest{Username: "apollo", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, token, login.AccessToken)

	var header metadata.MD
	_, err = c.CreateOrUpdateUser(WithAccessToken(ctx, login.AccessToken), &CreateOrUpdateUserRequest{
		Username: "alice", Password: "secret1", Email: "alice@example.com", DisplayName: "Alice",
	}, grpc.Header(&header))
	require.NoError(t, err)
	require.Len(t, us.saved, 1)
	assert.Equal(t, "alice", us.saved[0].UserName)
	assert.Len(t, header.Get(RequestIDHeaderName), 1)

	exposition := newRecorder(t, m)
	assert.Contains(t, exposition, `rpc_requests_total{code="OK",method="Ping"} 1`)
	assert.Contains(t, exposition, `rpc_requests_total{code="Unauthenticated",method="CreateOrUpdateUser"} 1`)
}
