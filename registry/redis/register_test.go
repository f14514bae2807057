package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fireflycore/go-discover/registry"
	"github.com/go-redis/redis/v8"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Instance) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})

	ins, err := NewRegistry(client, "test")
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return mr, ins
}

func TestRegisterHeartbeatAndExpire(t *testing.T) {
	mr, ins := setupTestRedis(t)
	ctx := context.Background()

	reg := &registry.Registration{Name: "order", Tags: []string{"blue"}, Address: "10.0.0.1", Port: 80, Interval: 5 * time.Second}
	if err := ins.Register(ctx, reg); err != nil {
		t.Fatalf("register: %v", err)
	}

	instances, err := ins.Resolve(ctx, "order", "blue")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(instances) != 1 || instances[0].Host() != "10.0.0.1:80" {
		t.Fatalf("unexpected instances: %+v", instances)
	}

	mr.FastForward(8 * time.Second)
	if err := ins.Heartbeat(ctx, registry.CheckID("order")); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	mr.FastForward(8 * time.Second)
	if instances, _ := ins.Resolve(ctx, "order", ""); len(instances) != 1 {
		t.Fatalf("heartbeat should keep instance alive, got %+v", instances)
	}

	mr.FastForward(11 * time.Second)
	instances, err = ins.Resolve(ctx, "order", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(instances) != 0 {
		t.Fatalf("expected expired instance to disappear, got %+v", instances)
	}
	if err := ins.Heartbeat(ctx, registry.CheckID("order")); !errors.Is(err, registry.ErrCheckNotRegistered) {
		t.Fatalf("expected ErrCheckNotRegistered after expiry, got %v", err)
	}
	if members, _ := mr.Members("test:services:order"); len(members) != 0 {
		t.Fatalf("expected stale member to be removed, got %v", members)
	}
}

func TestResolveFiltersTags(t *testing.T) {
	_, ins := setupTestRedis(t)
	ctx := context.Background()

	_ = ins.Register(ctx, &registry.Registration{Name: "order", Tags: []string{"blue", "http"}, Address: "10.0.0.1", Port: 80, Interval: time.Minute})
	_ = ins.Register(ctx, &registry.Registration{Name: "order", Tags: []string{"green"}, Address: "10.0.0.2", Port: 80, Interval: time.Minute})

	instances, err := ins.Resolve(ctx, "order", "blue,http")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(instances) != 1 || instances[0].Address != "10.0.0.1" {
		t.Fatalf("unexpected instances: %+v", instances)
	}
}

func TestDeregister(t *testing.T) {
	mr, ins := setupTestRedis(t)
	ctx := context.Background()

	_ = ins.Register(ctx, &registry.Registration{Name: "order", Address: "10.0.0.1", Port: 80, Interval: time.Minute})
	if err := ins.Deregister(ctx, "order"); err != nil {
		t.Fatalf("deregister: %v", err)
	}
	if mr.Exists("test:instance:order:10.0.0.1:80") {
		t.Fatalf("instance key should be deleted")
	}
	if members, _ := mr.Members("test:services:order"); len(members) != 0 {
		t.Fatalf("expected empty member set, got %v", members)
	}
}

func TestRegisterRejectsPassiveCheck(t *testing.T) {
	_, ins := setupTestRedis(t)

	err := ins.Register(context.Background(), &registry.Registration{Name: "order", Address: "10.0.0.1", TCPCheck: "10.0.0.1:80"})
	if !errors.Is(err, registry.ErrPassiveCheckUnsupported) {
		t.Fatalf("expected ErrPassiveCheckUnsupported, got %v", err)
	}
}

func TestKeyValue(t *testing.T) {
	_, ins := setupTestRedis(t)
	ctx := context.Background()

	if _, ok, err := ins.GetValue(ctx, "F:Config:order:MaxIdle"); err != nil || ok {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}
	if err := ins.PutValue(ctx, "F:Config:order:MaxIdle", "4"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if v, ok, err := ins.GetValue(ctx, "F:Config:order:MaxIdle"); err != nil || !ok || v != "4" {
		t.Fatalf("get: v=%q ok=%v err=%v", v, ok, err)
	}
}
