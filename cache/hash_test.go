package cache

import (
	"testing"

	"github.com/fireflycore/go-discover/registry"
)

func TestScorerIsOrderIndependent(t *testing.T) {
	t.Parallel()

	s := NewScorer(DefaultModulus)
	a := []registry.ServiceInstance{instance("10.0.0.1", 80, "blue", "http"), instance("10.0.0.2", 81)}
	b := []registry.ServiceInstance{instance("10.0.0.2", 81), instance("10.0.0.1", 80, "http", "blue")}

	if !s.Equal(a, b) {
		t.Fatalf("permuted sets should be equal")
	}
	if s.Equal(a, a[:1]) {
		t.Fatalf("sets with different counts should differ")
	}
	if s.Equal(a, []registry.ServiceInstance{instance("10.0.0.1", 80, "blue", "http"), instance("10.0.0.2", 82)}) {
		t.Fatalf("port change should change score")
	}
}

func TestCustomScorerControlsChangeDetection(t *testing.T) {
	t.Parallel()

	// 所有实例分值相同：只有数量变化会被识别
	c := New(WithScorer(func(registry.ServiceInstance) uint64 { return 1 }))
	defer c.Close()

	fired := make(chan string, 4)
	c.AddServiceHook("svc", func(name string) { fired <- name })

	c.SetServiceInstances("svc", []registry.ServiceInstance{instance("10.0.0.1", 80)})
	waitFor(t, fired)

	c.SetServiceInstances("svc", []registry.ServiceInstance{instance("10.0.0.2", 80)})
	expectSilence(t, fired)
	if hosts := c.GetFilteredHosts("svc", ""); hosts[0] != "10.0.0.1:80" {
		t.Fatalf("collision should keep the previous set until the next real change, got %v", hosts)
	}
}
