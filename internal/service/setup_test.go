package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/chitfund/internal/auction"
	"github.com/mmynk/chitfund/internal/auth"
	"github.com/mmynk/chitfund/internal/clock"
	"github.com/mmynk/chitfund/internal/metrics"
	"github.com/mmynk/chitfund/internal/middleware"
	"github.com/mmynk/chitfund/internal/registry"
	"github.com/mmynk/chitfund/internal/storage/sqlite"
	"github.com/mmynk/chitfund/pkg/api"
	"github.com/mmynk/chitfund/pkg/api/apiconnect"
)

const testWindow = time.Hour

type testServer struct {
	url      string
	clock    *clock.Manual
	store    *sqlite.SQLiteStore
	registry *registry.Registry
	metrics  *metrics.Collector
}

// setupTestServer starts all three services over a temp database with a manual clock.
func setupTestServer(t *testing.T, bidsPerSecond float64, burst int) (*testServer, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "chitfund-service-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		os.RemoveAll(tempDir)
		t.Fatalf("failed to create store: %v", err)
	}

	clk := clock.NewManual(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	reg := registry.New(auction.NewEngine(testWindow, clk))
	collector := metrics.NewCollector("test")
	backend := &Backend{Registry: reg, Store: store, Metrics: collector}

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	authSvc := NewAuthService(authenticator, jwtManager, store, logger)
	limiter := middleware.NewRateLimiter(bidsPerSecond, burst, apiconnect.AuctionServicePlaceBidProcedure)

	mux := http.NewServeMux()
	Mount(mux, backend, authSvc, jwtManager, limiter)
	server := httptest.NewServer(mux)

	cleanup := func() {
		server.Close()
		store.Close()
		os.RemoveAll(tempDir)
	}

	return &testServer{
		url:      server.URL,
		clock:    clk,
		store:    store,
		registry: reg,
		metrics:  collector,
	}, cleanup
}

// withToken attaches a bearer token to every call made by a client.
func withToken(token string) connect.ClientOption {
	return connect.WithInterceptors(connect.UnaryInterceptorFunc(func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if token != "" {
				req.Header().Set("Authorization", "Bearer "+token)
			}
			return next(ctx, req)
		}
	}))
}

func (ts *testServer) authClient(token string) apiconnect.AuthServiceClient {
	return apiconnect.NewAuthServiceClient(http.DefaultClient, ts.url, withToken(token))
}

func (ts *testServer) groupClient(token string) apiconnect.GroupServiceClient {
	return apiconnect.NewGroupServiceClient(http.DefaultClient, ts.url, withToken(token))
}

func (ts *testServer) auctionClient(token string) apiconnect.AuctionServiceClient {
	return apiconnect.NewAuctionServiceClient(http.DefaultClient, ts.url, withToken(token))
}

// register creates an account for address and returns its token.
func (ts *testServer) register(t *testing.T, address, displayName string) string {
	t.Helper()
	resp, err := ts.authClient("").Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
		Address:     address,
		DisplayName: displayName,
		Password:    "password-" + address,
	}))
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", address, err)
	}
	return resp.Msg.Token
}

// formGroup registers members, has the first create the group and the rest join it.
// It returns the group ID and one token per member.
func (ts *testServer) formGroup(t *testing.T, contribution int64, members ...string) (string, map[string]string) {
	t.Helper()
	ctx := context.Background()

	tokens := make(map[string]string, len(members))
	for _, m := range members {
		tokens[m] = ts.register(t, m, "Member "+m)
	}

	created, err := ts.groupClient(tokens[members[0]]).CreateGroup(ctx, connect.NewRequest(&api.CreateGroupRequest{
		Name:               "Neighbourhood Chit",
		ContributionAmount: contribution,
		TotalMembers:       len(members),
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	groupID := created.Msg.Group.ID

	for _, m := range members[1:] {
		if _, err := ts.groupClient(tokens[m]).JoinGroup(ctx, connect.NewRequest(&api.JoinGroupRequest{GroupID: groupID})); err != nil {
			t.Fatalf("JoinGroup(%s) failed: %v", m, err)
		}
	}
	return groupID, tokens
}

// requireCode fails the test unless err is a Connect error with the given code
// and, when kind is set, the given error kind metadata.
func requireCode(t *testing.T, err error, code connect.Code, kind string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", code)
	}
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		t.Fatalf("expected connect.Error, got %T: %v", err, err)
	}
	if connectErr.Code() != code {
		t.Errorf("expected code %v, got %v (%v)", code, connectErr.Code(), err)
	}
	if kind != "" {
		if got := connectErr.Meta().Get(api.ErrorKindHeader); got != kind {
			t.Errorf("expected error kind %q, got %q", kind, got)
		}
	}
}
