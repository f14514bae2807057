// Package consul 提供基于 Consul 的注册中心客户端实现。
package consul

import (
	"context"
	"fmt"
	"time"

	"github.com/fireflycore/go-discover/registry"
	"github.com/hashicorp/consul/api"
	"go.uber.org/zap"
)

// defaultCheckInterval 被动检查未配置间隔时使用
const defaultCheckInterval = 10 * time.Second

// Instance 基于 Consul Agent/Health/KV API 的注册中心客户端。
//
// 服务 Id 与服务名相同，服务级 check 为 "service:<name>"。
type Instance struct {
	// client 为外部注入的 Consul 客户端
	client *api.Client

	log *zap.Logger
}

// NewRegistry 创建基于 Consul 的注册中心客户端。
func NewRegistry(client *api.Client) (*Instance, error) {
	if client == nil {
		return nil, fmt.Errorf(registry.ErrClientIsNil, "consul")
	}
	return &Instance{
		client: client,
		log:    zap.NewNop(),
	}, nil
}

// WithLog 设置内部日志。
func (s *Instance) WithLog(log *zap.Logger) {
	if log != nil {
		s.log = log
	}
}

// Register 通过 Agent 注册服务，并安装 http/tcp 被动检查或 TTL 检查之一。
func (s *Instance) Register(ctx context.Context, reg *registry.Registration) error {
	if reg == nil {
		return registry.ErrRegistrationIsNil
	}
	if reg.Name == "" {
		return registry.ErrServiceNameIsEmpty
	}

	registration := &api.AgentServiceRegistration{
		ID:      reg.Name,
		Name:    reg.Name,
		Address: reg.Address,
		Port:    reg.Port,
		Tags:    reg.Tags,
		Check:   newCheck(reg),
	}

	if err := s.client.Agent().ServiceRegisterOpts(registration, api.ServiceRegisterOpts{}.WithContext(ctx)); err != nil {
		return fmt.Errorf("%w: consul register %s: %w", registry.ErrRegistryUnavailable, reg.Name, err)
	}

	s.log.Info("consul service registered",
		zap.String("service", reg.Name),
		zap.Strings("tags", reg.Tags),
		zap.Int("port", reg.Port),
		zap.Bool("passive", reg.Passive()),
	)
	return nil
}

// Deregister 注销服务。
func (s *Instance) Deregister(ctx context.Context, name string) error {
	if err := s.client.Agent().ServiceDeregisterOpts(name, (&api.QueryOptions{}).WithContext(ctx)); err != nil {
		return fmt.Errorf("%w: consul deregister %s: %w", registry.ErrRegistryUnavailable, name, err)
	}
	return nil
}

// Heartbeat 通过 UpdateTTL 续命 TTL check。
func (s *Instance) Heartbeat(ctx context.Context, checkId string) error {
	if checkId == "" {
		return fmt.Errorf("consul checkId is null")
	}
	if err := s.client.Agent().UpdateTTLOpts(checkId, "ok", api.HealthPassing, (&api.QueryOptions{}).WithContext(ctx)); err != nil {
		return fmt.Errorf("%w: consul heartbeat %s: %w", registry.ErrRegistryUnavailable, checkId, err)
	}
	return nil
}

func newCheck(reg *registry.Registration) *api.AgentServiceCheck {
	check := &api.AgentServiceCheck{Status: api.HealthPassing}

	interval := reg.Interval
	if interval <= 0 {
		interval = defaultCheckInterval
	}

	switch {
	case reg.HTTPCheck != "":
		check.HTTP = reg.HTTPCheck
		check.Interval = interval.String()
	case reg.TCPCheck != "":
		check.TCP = reg.TCPCheck
		check.Interval = interval.String()
	default:
		check.TTL = fmt.Sprintf("%ds", int64((2 * interval).Seconds()))
	}
	return check
}
