package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fireflycore/go-discover/registry"
	"github.com/go-redis/redis/v8"
)

// Resolve 读取服务集合中仍未过期的实例，过期成员顺带从集合中移除。
func (s *Instance) Resolve(ctx context.Context, name, tags string) ([]registry.ServiceInstance, error) {
	hosts, err := s.client.SMembers(ctx, s.servicesKey(name)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: redis smembers %s: %w", registry.ErrRegistryUnavailable, name, err)
	}

	out := make([]registry.ServiceInstance, 0, len(hosts))
	for _, host := range hosts {
		raw, err := s.client.Get(ctx, s.instanceKey(name, host)).Bytes()
		if errors.Is(err, redis.Nil) {
			s.client.SRem(ctx, s.servicesKey(name), host)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: redis get %s: %w", registry.ErrRegistryUnavailable, host, err)
		}

		var ins registry.ServiceInstance
		if err := json.Unmarshal(raw, &ins); err != nil || ins.Address == "" {
			continue
		}
		out = append(out, ins)
	}
	return registry.FilterByTags(out, registry.SplitTags(tags)), nil
}

// GetValue 读取 KV。
func (s *Instance) GetValue(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.valueKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: redis get %s: %w", registry.ErrRegistryUnavailable, key, err)
	}
	return value, true, nil
}

// PutValue 写入 KV，不过期。
func (s *Instance) PutValue(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.valueKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("%w: redis set %s: %w", registry.ErrRegistryUnavailable, key, err)
	}
	return nil
}
