package kubernetes

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/fireflycore/go-discover/registry"
	kubefake "k8s.io/client-go/kubernetes/fake"
)

func TestNewRegistry(t *testing.T) {
	t.Parallel()

	if _, err := NewRegistry(nil, "test"); err == nil {
		t.Fatalf("expected error for nil client")
	}

	ins, err := NewRegistry(kubefake.NewSimpleClientset(), "")
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if ins.namespace != "default" {
		t.Fatalf("namespace = %q", ins.namespace)
	}
}

func TestLifecycleIsNoop(t *testing.T) {
	t.Parallel()

	ins, err := NewRegistry(kubefake.NewSimpleClientset(), "test")
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	ctx := context.Background()

	if err = ins.Register(ctx, nil); !errors.Is(err, registry.ErrRegistrationIsNil) {
		t.Fatalf("Register(nil) = %v", err)
	}
	if err = ins.Register(ctx, &registry.Registration{Name: "order", Port: 80}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err = ins.Heartbeat(ctx, registry.CheckID("order")); err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}
	if err = ins.Heartbeat(ctx, registry.CheckID("")); err == nil {
		t.Fatalf("expected error for empty checkId")
	}
	if err = ins.Deregister(ctx, "order"); err != nil {
		t.Fatalf("Deregister: %v", err)
	}
}

func TestNewClientsetMissingKubeconfig(t *testing.T) {
	t.Parallel()

	_, err := NewClientset(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, registry.ErrKubernetesConfig) {
		t.Fatalf("expected ErrKubernetesConfig, got %v", err)
	}
}
