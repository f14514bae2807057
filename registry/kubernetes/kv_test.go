package kubernetes

import (
	"context"
	"testing"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	kubefake "k8s.io/client-go/kubernetes/fake"
)

func TestKeyValueStoredInConfigMap(t *testing.T) {
	t.Parallel()

	client := kubefake.NewSimpleClientset()
	ins, _ := NewRegistry(client, "test")
	ctx := context.Background()

	if _, ok, err := ins.GetValue(ctx, "F:RegisterTag:order:host-1"); err != nil || ok {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}

	if err := ins.PutValue(ctx, "F:RegisterTag:order:host-1", "blue,http"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := ins.PutValue(ctx, "F:Config:order:MaxActive", "20"); err != nil {
		t.Fatalf("put: %v", err)
	}

	value, ok, err := ins.GetValue(ctx, "F:RegisterTag:order:host-1")
	if err != nil || !ok || value != "blue,http" {
		t.Fatalf("get: value=%q ok=%v err=%v", value, ok, err)
	}

	cm, err := client.CoreV1().ConfigMaps("test").Get(ctx, ConfigMapName, metav1.GetOptions{})
	if err != nil {
		t.Fatalf("get configmap: %v", err)
	}
	if len(cm.Data) != 2 {
		t.Fatalf("expected 2 entries, got %v", cm.Data)
	}
	if _, ok := cm.Data[encodeKey("F:Config:order:MaxActive")]; !ok {
		t.Fatalf("expected encoded key in configmap, got %v", cm.Data)
	}
}
