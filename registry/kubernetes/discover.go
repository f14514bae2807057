package kubernetes

import (
	"context"
	"fmt"
	"strings"

	"github.com/fireflycore/go-discover/registry"
	discoveryv1 "k8s.io/api/discovery/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Resolve 读取服务的全部 EndpointSlice，只保留 Ready 的端点。
func (s *Instance) Resolve(ctx context.Context, name, tags string) ([]registry.ServiceInstance, error) {
	list, err := s.client.DiscoveryV1().EndpointSlices(s.namespace).List(ctx, metav1.ListOptions{
		LabelSelector: discoveryv1.LabelServiceName + "=" + name,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: kubernetes list endpointslices %s: %w", registry.ErrRegistryUnavailable, name, err)
	}

	groups := make([][]registry.ServiceInstance, 0, len(list.Items))
	for i := range list.Items {
		groups = append(groups, sliceInstances(name, &list.Items[i]))
	}
	return registry.MergeResolved(groups, registry.SplitTags(tags)), nil
}

// sliceInstances 使用第一个声明了端口号的 port。
func sliceInstances(name string, slice *discoveryv1.EndpointSlice) []registry.ServiceInstance {
	port := 0
	for _, p := range slice.Ports {
		if p.Port != nil {
			port = int(*p.Port)
			break
		}
	}
	if port == 0 {
		return nil
	}

	tags := make([]string, 0)
	for label := range slice.Labels {
		if tag, ok := strings.CutPrefix(label, TagLabelPrefix); ok && tag != "" {
			tags = append(tags, tag)
		}
	}

	out := make([]registry.ServiceInstance, 0, len(slice.Endpoints))
	for _, ep := range slice.Endpoints {
		// Ready 为 nil 时按 ready 处理
		if ep.Conditions.Ready != nil && !*ep.Conditions.Ready {
			continue
		}
		for _, address := range ep.Addresses {
			out = append(out, registry.ServiceInstance{
				Service: name,
				Address: address,
				Port:    port,
				Tags:    tags,
			})
		}
	}
	return out
}
