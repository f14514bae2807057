package kubernetes

import (
	"context"
	"fmt"

	"github.com/fireflycore/go-discover/constant"
	"github.com/fireflycore/go-discover/registry"
	"go.uber.org/zap"
	"k8s.io/client-go/kubernetes"
)

// Instance 基于 Kubernetes API 的注册中心客户端。
type Instance struct {
	client    kubernetes.Interface
	namespace string

	log *zap.Logger
}

// NewRegistry 创建基于 Kubernetes 的注册中心客户端，namespace 为空时使用 default。
func NewRegistry(client kubernetes.Interface, namespace string) (*Instance, error) {
	if client == nil {
		return nil, fmt.Errorf(registry.ErrClientIsNil, "kubernetes")
	}
	if namespace == "" {
		namespace = "default"
	}
	return &Instance{
		client:    client,
		namespace: namespace,
		log:       zap.NewNop(),
	}, nil
}

// WithLog 设置内部日志。
func (s *Instance) WithLog(log *zap.Logger) {
	if log != nil {
		s.log = log
	}
}

// Register 不执行任何操作。
func (s *Instance) Register(_ context.Context, reg *registry.Registration) error {
	if reg == nil {
		return registry.ErrRegistrationIsNil
	}
	s.log.Info("kubernetes register is managed by the platform", zap.String("service", reg.Name))
	return nil
}

// Deregister 不执行任何操作。
func (s *Instance) Deregister(_ context.Context, name string) error {
	s.log.Info("kubernetes deregister is managed by the platform", zap.String("service", name))
	return nil
}

// Heartbeat 不执行任何操作，readiness probe 负责健康状态。
func (s *Instance) Heartbeat(_ context.Context, checkId string) error {
	if checkId == "" || checkId == constant.CheckIdPrefix {
		return fmt.Errorf("kubernetes checkId is null")
	}
	return nil
}
