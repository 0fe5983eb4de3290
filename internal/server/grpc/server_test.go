package grpc

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func startHealth(t *testing.T, check func(context.Context) error) healthpb.HealthClient {
	t.Helper()

	s := NewHealthServer("127.0.0.1:0", logging.Nop{}, check, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	var addr string
	select {
	case addr = <-s.Ready():
	case err := <-done:
		t.Fatalf("server stopped early: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not start")
	}

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})

	return healthpb.NewHealthClient(conn)
}

func TestHealthServer_Serving(t *testing.T) {
	client := startHealth(t, nil)

	for _, svc := range []string{"", ServiceName} {
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: svc})
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
	}
}

func TestHealthServer_FollowsCheck(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)

	client := startHealth(t, func(context.Context) error {
		if failing.Load() {
			return errors.New("db down")
		}
		return nil
	})

	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())

	failing.Store(false)
	assert.Eventually(t, func() bool {
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
		return err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING
	}, 2*time.Second, 20*time.Millisecond)
}

func TestHealthServer_ListenError(t *testing.T) {
	s := NewHealthServer("256.0.0.1:bad", logging.Nop{}, nil, 0)
	assert.Error(t, s.Run(context.Background()))
}
