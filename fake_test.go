package discover

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/fireflycore/go-discover/pool"
	"github.com/fireflycore/go-discover/registry"
	"github.com/fireflycore/go-discover/transport"
)

var errDown = errors.New("registry down")

type fakeRegistry struct {
	mu sync.Mutex

	values       map[string]string
	instances    map[string][]registry.ServiceInstance
	deregistered []string
	resolves     atomic.Int32
	gets         atomic.Int32
	down         atomic.Bool
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		values:    make(map[string]string),
		instances: make(map[string][]registry.ServiceInstance),
	}
}

func (f *fakeRegistry) Register(context.Context, *registry.Registration) error { return nil }

func (f *fakeRegistry) Deregister(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deregistered = append(f.deregistered, name)
	return nil
}

func (f *fakeRegistry) Heartbeat(context.Context, string) error { return nil }

func (f *fakeRegistry) Resolve(_ context.Context, name, tags string) ([]registry.ServiceInstance, error) {
	f.resolves.Add(1)
	if f.down.Load() {
		return nil, errDown
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return registry.FilterByTags(f.instances[name], registry.SplitTags(tags)), nil
}

func (f *fakeRegistry) GetValue(_ context.Context, key string) (string, bool, error) {
	f.gets.Add(1)
	if f.down.Load() {
		return "", false, errDown
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeRegistry) PutValue(_ context.Context, key, value string) error {
	if f.down.Load() {
		return errDown
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

func (f *fakeRegistry) set(key, value string) {
	f.mu.Lock()
	f.values[key] = value
	f.mu.Unlock()
}

func (f *fakeRegistry) setInstances(name string, instances ...registry.ServiceInstance) {
	f.mu.Lock()
	f.instances[name] = instances
	f.mu.Unlock()
}

// fakeClient Raw 返回 host。
type fakeClient struct {
	pool.Base
	host string
	open bool
}

func (c *fakeClient) Open() error  { c.open = true; return nil }
func (c *fakeClient) Close() error { c.open = false; return nil }
func (c *fakeClient) Reset()       {}
func (c *fakeClient) IsOpen() bool { return c.open }
func (c *fakeClient) Raw() any     { return c.host }

type fakeDialer struct{}

func (fakeDialer) Dial(host string, stamp pool.Stamp) (pool.Client, error) {
	return &fakeClient{Base: pool.NewBase(stamp), host: host}, nil
}

func (fakeDialer) Reset() {}

// countingFactory 记录 Dialer 创建次数，用于验证每个 (服务, 协议) 只有一个连接池。
type countingFactory struct {
	calls atomic.Int32
}

func (f *countingFactory) new(transport.Protocol, *zap.Logger) (pool.Dialer, error) {
	f.calls.Add(1)
	return fakeDialer{}, nil
}
