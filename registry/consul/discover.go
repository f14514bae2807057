package consul

import (
	"context"
	"fmt"

	"github.com/fireflycore/go-discover/registry"
	"github.com/hashicorp/consul/api"
)

// Resolve 查询 passing 实例。
//
// 多个标签时按标签逐个查询再合并，最后按完整标签做交集，
// 与本地缓存的过滤语义保持一致。
func (s *Instance) Resolve(ctx context.Context, name, tags string) ([]registry.ServiceInstance, error) {
	tokens := registry.SplitTags(tags)
	queries := tokens
	if len(queries) == 0 {
		queries = []string{""}
	}

	groups := make([][]registry.ServiceInstance, 0, len(queries))
	for _, tag := range queries {
		entries, _, err := s.client.Health().Service(name, tag, true, (&api.QueryOptions{}).WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("%w: consul health service %s: %w", registry.ErrRegistryUnavailable, name, err)
		}
		groups = append(groups, toInstances(entries))
	}

	return registry.MergeResolved(groups, tokens), nil
}

// toInstances 服务地址为空时使用节点地址。
func toInstances(entries []*api.ServiceEntry) []registry.ServiceInstance {
	out := make([]registry.ServiceInstance, 0, len(entries))
	for _, entry := range entries {
		if entry == nil || entry.Service == nil {
			continue
		}
		address := entry.Service.Address
		if address == "" && entry.Node != nil {
			address = entry.Node.Address
		}
		if address == "" {
			continue
		}
		out = append(out, registry.ServiceInstance{
			Service: entry.Service.Service,
			Address: address,
			Port:    entry.Service.Port,
			Tags:    append([]string(nil), entry.Service.Tags...),
		})
	}
	return out
}
