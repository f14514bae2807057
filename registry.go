package discover

import (
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hashicorp/consul/api"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"

	"github.com/fireflycore/go-discover/conf"
	"github.com/fireflycore/go-discover/registry"
	"github.com/fireflycore/go-discover/registry/consul"
	"github.com/fireflycore/go-discover/registry/etcd"
	"github.com/fireflycore/go-discover/registry/kubernetes"
	rr "github.com/fireflycore/go-discover/registry/redis"
)

const etcdDialTimeout = 5 * time.Second

// NewRegistry 按 conf.Kind 构造注册中心客户端，closer 用于释放底层连接。
func NewRegistry(c conf.RegistryConf, log *zap.Logger) (reg registry.Registry, closer func() error, err error) {
	noop := func() error { return nil }

	switch c.Kind {
	case conf.KindConsul, "":
		cfg := api.DefaultConfig()
		if c.Address != "" {
			cfg.Address = c.Address
		}
		cfg.Token = c.Token
		cfg.Datacenter = c.Datacenter

		client, err := api.NewClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		ins, err := consul.NewRegistry(client)
		if err != nil {
			return nil, nil, err
		}
		ins.WithLog(log)
		return ins, noop, nil

	case conf.KindEtcd:
		client, err := clientv3.New(clientv3.Config{
			Endpoints:   c.Endpoints,
			Username:    c.Username,
			Password:    c.Password,
			DialTimeout: etcdDialTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		ins, err := etcd.NewRegistry(client, c.Namespace)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		ins.WithLog(log)
		return ins, client.Close, nil

	case conf.KindKubernetes:
		client, err := kubernetes.NewClientset(c.Kubeconfig)
		if err != nil {
			return nil, nil, err
		}
		ins, err := kubernetes.NewRegistry(client, c.Namespace)
		if err != nil {
			return nil, nil, err
		}
		ins.WithLog(log)
		return ins, noop, nil

	case conf.KindRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     c.Address,
			Password: c.Password,
			DB:       c.DB,
		})
		ins, err := rr.NewRegistry(client, c.Namespace)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		ins.WithLog(log)
		return ins, client.Close, nil
	}

	return nil, nil, fmt.Errorf("%w: %s", ErrRegistryKindUnknown, c.Kind)
}
