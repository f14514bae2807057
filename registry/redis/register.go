// Package redis 提供基于 Redis 的注册中心客户端实现。
//
// 布局：
//   - {namespace}:services:{name} 为实例地址集合；
//   - {namespace}:instance:{name}:{address:port} 保存 ServiceInstance(JSON)，带 TTL；
//   - {namespace}:kv:{key} 保存普通 key/value。
//
// 实例 key 未过期即视为 passing，因此只支持主动 TTL 心跳。
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fireflycore/go-discover/constant"
	"github.com/fireflycore/go-discover/registry"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ErrAddressIsEmpty redis 中的实例必须携带地址
var ErrAddressIsEmpty = errors.New("registration address is empty")

type lease struct {
	key  string
	host string
	ttl  time.Duration
}

// Instance 基于 Redis 的注册中心客户端。
type Instance struct {
	client    *redis.Client
	namespace string

	// mu 保护 leases
	mu sync.Mutex
	// leases checkId -> 实例 key 与 TTL
	leases map[string]lease

	log *zap.Logger
}

// NewRegistry 创建基于 Redis 的注册中心客户端。
func NewRegistry(client *redis.Client, namespace string) (*Instance, error) {
	if client == nil {
		return nil, fmt.Errorf(registry.ErrClientIsNil, "redis")
	}
	if namespace == "" {
		namespace = constant.DefaultNamespace
	}
	return &Instance{
		client:    client,
		namespace: namespace,
		leases:    make(map[string]lease),
		log:       zap.NewNop(),
	}, nil
}

// WithLog 设置内部日志。
func (s *Instance) WithLog(log *zap.Logger) {
	if log != nil {
		s.log = log
	}
}

// Register 写入带 TTL 的实例 key 并加入服务集合。
func (s *Instance) Register(ctx context.Context, reg *registry.Registration) error {
	if reg == nil {
		return registry.ErrRegistrationIsNil
	}
	if reg.Name == "" {
		return registry.ErrServiceNameIsEmpty
	}
	if reg.Passive() {
		return registry.ErrPassiveCheckUnsupported
	}
	if reg.Address == "" {
		return ErrAddressIsEmpty
	}

	ttl := reg.TTL()
	if ttl < time.Second {
		ttl = 2 * constant.DefaultHeartbeat * time.Second
	}

	ins := registry.ServiceInstance{
		Service: reg.Name,
		Address: reg.Address,
		Port:    reg.Port,
		Tags:    reg.Tags,
	}
	val, err := json.Marshal(ins)
	if err != nil {
		return err
	}

	key := s.instanceKey(reg.Name, ins.Host())
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, val, ttl)
	pipe.SAdd(ctx, s.servicesKey(reg.Name), ins.Host())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: redis register %s: %w", registry.ErrRegistryUnavailable, reg.Name, err)
	}

	s.mu.Lock()
	s.leases[registry.CheckID(reg.Name)] = lease{key: key, host: ins.Host(), ttl: ttl}
	s.mu.Unlock()

	s.log.Info("redis service registered", zap.String("service", reg.Name), zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

// Deregister 删除实例 key 并移出服务集合。
func (s *Instance) Deregister(ctx context.Context, name string) error {
	checkId := registry.CheckID(name)

	s.mu.Lock()
	l, ok := s.leases[checkId]
	delete(s.leases, checkId)
	s.mu.Unlock()

	if !ok {
		return nil
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, l.key)
	pipe.SRem(ctx, s.servicesKey(name), l.host)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: redis deregister %s: %w", registry.ErrRegistryUnavailable, name, err)
	}
	return nil
}

// Heartbeat 刷新实例 key 的 TTL；key 已过期时返回 ErrCheckNotRegistered，实例保持不可见直到再次 Register。
func (s *Instance) Heartbeat(ctx context.Context, checkId string) error {
	s.mu.Lock()
	l, ok := s.leases[checkId]
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", registry.ErrCheckNotRegistered, checkId)
	}

	alive, err := s.client.Expire(ctx, l.key, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: redis expire %s: %w", registry.ErrRegistryUnavailable, checkId, err)
	}
	if !alive {
		return fmt.Errorf("%w: %s expired", registry.ErrCheckNotRegistered, checkId)
	}
	return nil
}

func (s *Instance) servicesKey(name string) string {
	return fmt.Sprintf("%s:services:%s", s.namespace, name)
}

func (s *Instance) instanceKey(name, host string) string {
	return fmt.Sprintf("%s:instance:%s:%s", s.namespace, name, host)
}

func (s *Instance) valueKey(key string) string {
	return fmt.Sprintf("%s:kv:%s", s.namespace, key)
}
