package conf

import (
	"os"
	"path/filepath"
	"testing"
)

const yamlConf = `
service:
  name: order
  tags: v1,grpc
  port: 9000
  heart_break: 5
registry:
  kind: redis
  address: 127.0.0.1:6379
services:
  - name: user
    tags: grpc
keys:
  - name: MaxActive
    value: "20"
  - name: Auth
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write err = %v", err)
	}
	return path
}

func TestLoadYaml(t *testing.T) {
	c, err := Load(writeFile(t, "discover.yaml", yamlConf))
	if err != nil {
		t.Fatalf("Load err = %v", err)
	}

	if c.Service.Name != "order" || c.Service.Port != 9000 || c.Service.HeartBreak != 5 {
		t.Fatalf("unexpected service %+v", c.Service)
	}
	// 未配置项取默认值
	if c.Service.Refresh != 60 || c.Service.MaxRetry != 3 || c.Service.RequestTimeout != 10 {
		t.Fatalf("defaults not applied %+v", c.Service)
	}
	if c.Registry.Kind != KindRedis || c.Registry.Namespace != "firefly" {
		t.Fatalf("unexpected registry %+v", c.Registry)
	}
	if len(c.Services) != 1 || c.Services[0].Tags != "grpc" {
		t.Fatalf("unexpected deps %+v", c.Services)
	}
	if len(c.Keys) != 2 || c.Keys[0].Value == nil || *c.Keys[0].Value != "20" || c.Keys[1].Value != nil {
		t.Fatalf("unexpected keys %+v", c.Keys)
	}
}

func TestLoadJson(t *testing.T) {
	c, err := Load(writeFile(t, "discover.json", `{"service":{"name":"pay","http_check":"/health"}}`))
	if err != nil {
		t.Fatalf("Load err = %v", err)
	}
	if c.Service.Name != "pay" || c.Service.HttpCheck != "/health" || c.Service.Port != 80 {
		t.Fatalf("unexpected service %+v", c.Service)
	}
	if c.Registry.Kind != KindConsul {
		t.Fatalf("default registry kind = %s", c.Registry.Kind)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := Load(writeFile(t, "bad.json", "{")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("FIREFLY_SERVICE_NAME", "env-order")
	t.Setenv("FIREFLY_SERVICE_PORT", "8081")
	t.Setenv("FIREFLY_REGISTRY_ENDPOINTS", "10.0.0.1:2379,10.0.0.2:2379")

	c := &Conf{Service: ServiceConf{Name: "order", Tags: "v1"}}
	if err := c.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv err = %v", err)
	}
	if c.Service.Name != "env-order" || c.Service.Port != 8081 {
		t.Fatalf("env not applied %+v", c.Service)
	}
	if c.Service.Tags != "v1" {
		t.Fatalf("unset env overrode tags: %q", c.Service.Tags)
	}
	if len(c.Registry.Endpoints) != 2 {
		t.Fatalf("endpoints = %v", c.Registry.Endpoints)
	}
}

func TestBootstrapIntervals(t *testing.T) {
	t.Parallel()

	s := ServiceConf{HeartBreak: -1}
	s.Bootstrap()
	if s.HeartbeatInterval().Seconds() != 15 || s.RefreshInterval().Seconds() != 60 || s.Timeout().Seconds() != 10 {
		t.Fatalf("unexpected intervals %+v", s)
	}
	if s.FallbackQPS != 20 {
		t.Fatalf("fallback qps = %v", s.FallbackQPS)
	}
}
