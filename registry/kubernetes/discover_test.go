package kubernetes

import (
	"context"
	"testing"

	discoveryv1 "k8s.io/api/discovery/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	kubefake "k8s.io/client-go/kubernetes/fake"
)

func ptr[T any](v T) *T { return &v }

func newSlice(name, service string, port int32, labels map[string]string, endpoints ...discoveryv1.Endpoint) *discoveryv1.EndpointSlice {
	all := map[string]string{discoveryv1.LabelServiceName: service}
	for k, v := range labels {
		all[k] = v
	}
	return &discoveryv1.EndpointSlice{
		ObjectMeta:  metav1.ObjectMeta{Name: name, Namespace: "test", Labels: all},
		AddressType: discoveryv1.AddressTypeIPv4,
		Ports:       []discoveryv1.EndpointPort{{Name: ptr("http"), Port: ptr(port)}},
		Endpoints:   endpoints,
	}
}

func TestResolveReadyEndpointsWithTags(t *testing.T) {
	t.Parallel()

	client := kubefake.NewSimpleClientset(
		newSlice("order-a", "order", 8080, map[string]string{TagLabelPrefix + "blue": "true", TagLabelPrefix + "http": "true"},
			discoveryv1.Endpoint{Addresses: []string{"10.0.0.1"}, Conditions: discoveryv1.EndpointConditions{Ready: ptr(true)}},
			discoveryv1.Endpoint{Addresses: []string{"10.0.0.2"}, Conditions: discoveryv1.EndpointConditions{Ready: ptr(false)}},
			discoveryv1.Endpoint{Addresses: []string{"10.0.0.3"}},
		),
		newSlice("order-b", "order", 8081, map[string]string{TagLabelPrefix + "green": "true"},
			discoveryv1.Endpoint{Addresses: []string{"10.0.1.1"}},
		),
		newSlice("user-a", "user", 9090, nil,
			discoveryv1.Endpoint{Addresses: []string{"10.0.2.1"}},
		),
	)

	ins, err := NewRegistry(client, "test")
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	all, err := ins.Resolve(context.Background(), "order", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 ready instances, got %+v", all)
	}

	blue, err := ins.Resolve(context.Background(), "order", "blue")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(blue) != 2 {
		t.Fatalf("expected 2 blue instances, got %+v", blue)
	}
	for _, ins := range blue {
		if ins.Port != 8080 || ins.Service != "order" {
			t.Fatalf("unexpected instance: %+v", ins)
		}
	}
}

func TestHeartbeatAndRegisterAreNoOps(t *testing.T) {
	t.Parallel()

	ins, _ := NewRegistry(kubefake.NewSimpleClientset(), "")
	if ins.namespace != "default" {
		t.Fatalf("expected default namespace, got %q", ins.namespace)
	}
	if err := ins.Heartbeat(context.Background(), "service:order"); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if err := ins.Deregister(context.Background(), "order"); err != nil {
		t.Fatalf("deregister: %v", err)
	}
}
