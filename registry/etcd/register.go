// Package etcd 提供基于 etcd v3 的注册中心客户端实现。
//
// 布局：
//   - /{namespace}/services/{name}/{address:port} 保存 ServiceInstance(JSON)，绑定 lease；
//   - /{namespace}/kv/{key} 保存普通 key/value。
//
// lease 存活即视为 passing，因此只支持主动 TTL 心跳。
package etcd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/fireflycore/go-discover/constant"
	"github.com/fireflycore/go-discover/registry"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
)

// ErrAddressIsEmpty etcd 中的实例必须携带地址
var ErrAddressIsEmpty = errors.New("registration address is empty")

// Instance 基于 etcd 的注册中心客户端。
type Instance struct {
	client    *clientv3.Client
	namespace string

	// mu 保护 leases/keys
	mu sync.Mutex
	// leases checkId -> lease
	leases map[string]clientv3.LeaseID
	// keys 服务名 -> 实例 key
	keys map[string]string

	log *zap.Logger
}

// NewRegistry 创建基于 etcd 的注册中心客户端。
func NewRegistry(client *clientv3.Client, namespace string) (*Instance, error) {
	if client == nil {
		return nil, fmt.Errorf(registry.ErrClientIsNil, "etcd")
	}
	if namespace == "" {
		namespace = constant.DefaultNamespace
	}
	return &Instance{
		client:    client,
		namespace: namespace,
		leases:    make(map[string]clientv3.LeaseID),
		keys:      make(map[string]string),
		log:       zap.NewNop(),
	}, nil
}

// WithLog 设置内部日志。
func (s *Instance) WithLog(log *zap.Logger) {
	if log != nil {
		s.log = log
	}
}

// Register 申请 TTL 为心跳间隔两倍的 lease，并写入实例。
// 同名服务重复注册时会撤销旧 lease。
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

	ttl := int64(reg.TTL().Seconds())
	if ttl < 1 {
		ttl = int64(2 * constant.DefaultHeartbeat)
	}

	grant, err := s.client.Grant(ctx, ttl)
	if err != nil {
		return fmt.Errorf("%w: etcd grant: %w", registry.ErrRegistryUnavailable, err)
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

	key := s.instanceKey(ins)
	if _, err = s.client.Put(ctx, key, string(val), clientv3.WithLease(grant.ID)); err != nil {
		return fmt.Errorf("%w: etcd put %s: %w", registry.ErrRegistryUnavailable, key, err)
	}

	checkId := registry.CheckID(reg.Name)

	s.mu.Lock()
	prev, ok := s.leases[checkId]
	s.leases[checkId] = grant.ID
	s.keys[reg.Name] = key
	s.mu.Unlock()

	if ok && prev != grant.ID {
		if _, err := s.client.Revoke(ctx, prev); err != nil {
			s.log.Warn("etcd revoke previous lease failed", zap.String("service", reg.Name), zap.Error(err))
		}
	}

	s.log.Info("etcd service registered", zap.String("service", reg.Name), zap.String("key", key), zap.Int64("ttl", ttl))
	return nil
}

// Deregister 撤销 lease，实例 key 随之删除。
func (s *Instance) Deregister(ctx context.Context, name string) error {
	checkId := registry.CheckID(name)

	s.mu.Lock()
	lease, ok := s.leases[checkId]
	key := s.keys[name]
	delete(s.leases, checkId)
	delete(s.keys, name)
	s.mu.Unlock()

	if !ok {
		return nil
	}
	if _, err := s.client.Revoke(ctx, lease); err != nil {
		return fmt.Errorf("%w: etcd revoke: %w", registry.ErrRegistryUnavailable, err)
	}
	if key != "" {
		_, _ = s.client.Delete(ctx, key)
	}
	return nil
}

// Heartbeat 对 checkId 对应的 lease 续约一次。
func (s *Instance) Heartbeat(ctx context.Context, checkId string) error {
	s.mu.Lock()
	lease, ok := s.leases[checkId]
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", registry.ErrCheckNotRegistered, checkId)
	}
	if _, err := s.client.KeepAliveOnce(ctx, lease); err != nil {
		return fmt.Errorf("%w: etcd keepalive %s: %w", registry.ErrRegistryUnavailable, checkId, err)
	}
	return nil
}

func (s *Instance) servicePrefix(name string) string {
	return fmt.Sprintf("/%s/services/%s/", s.namespace, name)
}

func (s *Instance) instanceKey(ins registry.ServiceInstance) string {
	return s.servicePrefix(ins.Service) + ins.Host()
}

func (s *Instance) valueKey(key string) string {
	return fmt.Sprintf("/%s/kv/%s", s.namespace, key)
}
