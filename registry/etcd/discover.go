package etcd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fireflycore/go-discover/registry"
	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// Resolve 前缀读取实例，lease 未过期即视为 passing。
func (s *Instance) Resolve(ctx context.Context, name, tags string) ([]registry.ServiceInstance, error) {
	resp, err := s.client.Get(ctx, s.servicePrefix(name), clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("%w: etcd get %s: %w", registry.ErrRegistryUnavailable, name, err)
	}
	return registry.FilterByTags(decodeInstances(name, resp.Kvs), registry.SplitTags(tags)), nil
}

// GetValue 读取 KV。
func (s *Instance) GetValue(ctx context.Context, key string) (string, bool, error) {
	resp, err := s.client.Get(ctx, s.valueKey(key))
	if err != nil {
		return "", false, fmt.Errorf("%w: etcd get %s: %w", registry.ErrRegistryUnavailable, key, err)
	}
	if len(resp.Kvs) == 0 {
		return "", false, nil
	}
	return string(resp.Kvs[0].Value), true, nil
}

// PutValue 写入 KV。
func (s *Instance) PutValue(ctx context.Context, key, value string) error {
	if _, err := s.client.Put(ctx, s.valueKey(key), value); err != nil {
		return fmt.Errorf("%w: etcd put %s: %w", registry.ErrRegistryUnavailable, key, err)
	}
	return nil
}

// decodeInstances 跳过无法解析的记录。
func decodeInstances(name string, kvs []*mvccpb.KeyValue) []registry.ServiceInstance {
	out := make([]registry.ServiceInstance, 0, len(kvs))
	for _, kv := range kvs {
		if kv == nil {
			continue
		}
		var ins registry.ServiceInstance
		if err := json.Unmarshal(kv.Value, &ins); err != nil {
			continue
		}
		if ins.Address == "" {
			continue
		}
		if ins.Service == "" {
			ins.Service = name
		}
		out = append(out, ins)
	}
	return out
}
