package consul

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/hashicorp/consul/api"
)

// fakeAgent 模拟 Consul agent/health/kv 的最小 HTTP 接口。
type fakeAgent struct {
	mu sync.Mutex

	registered   []api.AgentServiceRegistration
	deregistered []string
	ttlUpdates   []string
	kv           map[string]string
	// health 服务名 -> 健康实例
	health map[string][]*api.ServiceEntry
	// tagQueries 记录 health 查询的 tag 参数
	tagQueries []string
}

func newFakeAgent(t *testing.T) (*fakeAgent, *api.Client) {
	t.Helper()

	agent := &fakeAgent{
		kv:     make(map[string]string),
		health: make(map[string][]*api.ServiceEntry),
	}
	srv := httptest.NewServer(http.HandlerFunc(agent.serve))
	t.Cleanup(srv.Close)

	parsed, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}

	cfg := api.DefaultConfig()
	cfg.Scheme = parsed.Scheme
	cfg.Address = parsed.Host
	cfg.HttpClient = srv.Client()
	cli, err := api.NewClient(cfg)
	if err != nil {
		t.Fatalf("new consul client: %v", err)
	}
	return agent, cli
}

func (a *fakeAgent) serve(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Consul-Index", "7")
	w.Header().Set("X-Consul-LastContact", "0")
	w.Header().Set("X-Consul-KnownLeader", "true")

	path := r.URL.Path
	switch {
	case r.Method == http.MethodPut && path == "/v1/agent/service/register":
		var reg api.AgentServiceRegistration
		if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		a.registered = append(a.registered, reg)
	case r.Method == http.MethodPut && strings.HasPrefix(path, "/v1/agent/service/deregister/"):
		a.deregistered = append(a.deregistered, strings.TrimPrefix(path, "/v1/agent/service/deregister/"))
	case r.Method == http.MethodPut && strings.HasPrefix(path, "/v1/agent/check/update/"):
		a.ttlUpdates = append(a.ttlUpdates, strings.TrimPrefix(path, "/v1/agent/check/update/"))
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/v1/health/service/"):
		name := strings.TrimPrefix(path, "/v1/health/service/")
		tag := r.URL.Query().Get("tag")
		a.tagQueries = append(a.tagQueries, tag)
		out := make([]*api.ServiceEntry, 0)
		for _, entry := range a.health[name] {
			if tag == "" || containsTag(entry.Service.Tags, tag) {
				out = append(out, entry)
			}
		}
		_ = json.NewEncoder(w).Encode(out)
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/v1/kv/"):
		key := strings.TrimPrefix(path, "/v1/kv/")
		value, ok := a.kv[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode([]*api.KVPair{{Key: key, Value: []byte(value)}})
	case r.Method == http.MethodPut && strings.HasPrefix(path, "/v1/kv/"):
		body, _ := io.ReadAll(r.Body)
		a.kv[strings.TrimPrefix(path, "/v1/kv/")] = string(body)
		_, _ = w.Write([]byte("true"))
	default:
		http.NotFound(w, r)
	}
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
