package consul

import (
	"context"
	"fmt"

	"github.com/fireflycore/go-discover/registry"
	"github.com/hashicorp/consul/api"
)

// GetValue 读取 KV，key 不存在时返回 ok=false。
func (s *Instance) GetValue(ctx context.Context, key string) (string, bool, error) {
	pair, _, err := s.client.KV().Get(key, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return "", false, fmt.Errorf("%w: consul kv get %s: %w", registry.ErrRegistryUnavailable, key, err)
	}
	if pair == nil {
		return "", false, nil
	}
	return string(pair.Value), true, nil
}

// PutValue 写入 KV。
func (s *Instance) PutValue(ctx context.Context, key, value string) error {
	_, err := s.client.KV().Put(&api.KVPair{Key: key, Value: []byte(value)}, (&api.WriteOptions{}).WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: consul kv put %s: %w", registry.ErrRegistryUnavailable, key, err)
	}
	return nil
}
