package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"

	"github.com/fireflycore/go-discover/constant"
)

type authRecorder struct {
	got chan string
}

func (a *authRecorder) intercept(ctx context.Context, req interface{}, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	if v := md.Get(constant.Authorization); len(v) != 0 {
		select {
		case a.got <- v[0]:
		default:
		}
	}
	return handler(ctx, req)
}

func TestGRPCClient(t *testing.T) {
	t.Parallel()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen err = %v", err)
	}
	rec := &authRecorder{got: make(chan string, 1)}
	srv := grpc.NewServer(grpc.UnaryInterceptor(rec.intercept))
	healthpb.RegisterHealthServer(srv, health.NewServer())
	go func() { _ = srv.Serve(lis) }()
	defer srv.Stop()

	c, err := NewGRPCDialer(nil).Dial(lis.Addr().String(), newStamp(map[string]string{
		constant.PoolAuth: "Bearer g",
	}))
	if err != nil {
		t.Fatalf("Dial err = %v", err)
	}
	defer c.Close()

	if err := c.Open(); err != nil {
		t.Fatalf("Open err = %v", err)
	}
	if !c.IsOpen() {
		t.Fatalf("client not ready")
	}

	stub, err := GetStub(c, healthpb.NewHealthClient)
	if err != nil {
		t.Fatalf("GetStub err = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := stub.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("Check err = %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status = %v", resp.GetStatus())
	}

	select {
	case got := <-rec.got:
		if got != "Bearer g" {
			t.Fatalf("authorization = %q", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("authorization not received")
	}
}

func TestGRPCClientUnreachable(t *testing.T) {
	t.Parallel()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen err = %v", err)
	}
	addr := lis.Addr().String()
	_ = lis.Close()

	stamp := newStamp(nil)
	stamp.Timeout = 400 * time.Millisecond
	c, err := NewGRPCDialer(nil).Dial(addr, stamp)
	if err != nil {
		t.Fatalf("Dial err = %v", err)
	}
	defer c.Close()

	if err := c.Open(); err == nil {
		t.Fatalf("Open should fail against closed port")
	}
}
