package processor

import (
	"context"
	"errors"
	"sync"

	"github.com/fireflycore/go-discover/registry"
)

var errFake = errors.New("fake registry down")

// fakeRegistry 内存注册中心。
type fakeRegistry struct {
	mu sync.Mutex

	values        map[string]string
	instances     map[string][]registry.ServiceInstance
	registrations []registry.Registration
	puts          []string
	heartbeats    []string
	deregistered  []string

	failRegister  int
	failHeartbeat int
	failGet       map[string]bool
	failResolve   map[string]bool
	// heartbeatCalls 含失败的心跳
	heartbeatCalls int
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		values:    make(map[string]string),
		instances: make(map[string][]registry.ServiceInstance),
		failGet:     make(map[string]bool),
		failResolve: make(map[string]bool),
	}
}

func (f *fakeRegistry) Register(_ context.Context, reg *registry.Registration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRegister > 0 {
		f.failRegister--
		return errFake
	}
	f.registrations = append(f.registrations, *reg)
	return nil
}

func (f *fakeRegistry) Deregister(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deregistered = append(f.deregistered, name)
	return nil
}

func (f *fakeRegistry) Heartbeat(_ context.Context, checkId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.heartbeatCalls++
	if f.failHeartbeat > 0 {
		f.failHeartbeat--
		return errFake
	}
	f.heartbeats = append(f.heartbeats, checkId)
	return nil
}

func (f *fakeRegistry) Resolve(_ context.Context, name, tags string) ([]registry.ServiceInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failResolve[name] {
		return nil, errFake
	}
	return registry.FilterByTags(f.instances[name], registry.SplitTags(tags)), nil
}

func (f *fakeRegistry) GetValue(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet[key] {
		return "", false, errFake
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeRegistry) PutValue(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	f.puts = append(f.puts, key)
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

func (f *fakeRegistry) lastRegistration() (registry.Registration, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.registrations) == 0 {
		return registry.Registration{}, 0
	}
	return f.registrations[len(f.registrations)-1], len(f.registrations)
}

func (f *fakeRegistry) heartbeatCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.heartbeats)
}

func (f *fakeRegistry) heartbeatCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.heartbeatCalls
}

func (f *fakeRegistry) putCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, k := range f.puts {
		if k == key {
			n++
		}
	}
	return n
}
