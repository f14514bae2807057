// Package discover 服务发现与连接池的进程级入口。
//
// Helper 由 New 显式构造，进程内通常只有一个：
// 注册本服务、维护本地缓存，并按 (服务, 协议) 懒加载连接池。
package discover

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/fireflycore/go-discover/cache"
	"github.com/fireflycore/go-discover/conf"
	"github.com/fireflycore/go-discover/constant"
	"github.com/fireflycore/go-discover/logger"
	"github.com/fireflycore/go-discover/pool"
	"github.com/fireflycore/go-discover/processor"
	"github.com/fireflycore/go-discover/registry"
	"github.com/fireflycore/go-discover/transport"
)

// Helper 服务发现入口。
type Helper struct {
	conf      *conf.Conf
	registry  registry.Registry
	closer    func() error
	cache     *cache.Cache
	processor *processor.Processor
	dialers   DialerFactory
	hostname  string

	// 缓存未命中时直连注册中心的限速与合并
	limiter *rate.Limiter
	group   singleflight.Group

	mu    sync.RWMutex
	pools map[string]*pool.Pool

	closed atomic.Bool
	log    *zap.Logger
}

// New 构造 Helper 并完成初始化：注册本服务、写入静态配置、同步一次缓存并启动后台循环。
func New(ctx context.Context, c *conf.Conf, opts ...Option) (*Helper, error) {
	if c == nil {
		return nil, processor.ErrConfIsNil
	}
	c.Bootstrap()

	h := &Helper{
		conf:    c,
		dialers: transport.NewDialer,
		pools:   make(map[string]*pool.Pool),
		closer:  func() error { return nil },
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.log == nil {
		h.log = logger.NewZapLogger(&c.Logger, nil)
	}

	if h.registry == nil {
		reg, closer, err := NewRegistry(c.Registry, h.log)
		if err != nil {
			return nil, err
		}
		h.registry, h.closer = reg, closer
	}

	h.cache = cache.New(cache.WithLog(h.log))

	p, err := processor.New(c, h.registry, h.cache)
	if err != nil {
		h.cache.Close()
		_ = h.closer()
		return nil, err
	}
	p.WithLog(h.log)
	p.WithHostname(h.hostname)
	h.processor = p

	qps := c.Service.FallbackQPS
	h.limiter = rate.NewLimiter(rate.Limit(qps), max(1, int(qps)))

	if err = p.Initialize(ctx); err != nil {
		h.cache.Close()
		_ = h.closer()
		return nil, err
	}
	return h, nil
}

// ServiceName 本服务名
func (h *Helper) ServiceName() string { return h.processor.ServiceName() }

// ServiceTags 本服务当前生效的注册标签
func (h *Helper) ServiceTags() string { return h.processor.Tags() }

// ServiceTagsKey 依赖服务的标签过滤 key
func (h *Helper) ServiceTagsKey(dependency string) string {
	return h.processor.ServiceTagsKey(dependency)
}

// ServiceConfigKey 本服务作用域的配置 key
func (h *Helper) ServiceConfigKey(name string) string {
	return h.processor.ServiceConfigKey(name)
}

// RegisterTagKey 本服务的注册标签覆盖 key
func (h *Helper) RegisterTagKey() string { return h.processor.RegisterTagKey() }

// Cache 本地缓存
func (h *Helper) Cache() *cache.Cache { return h.cache }

// Resync 立即执行一次全量同步。
func (h *Helper) Resync(ctx context.Context) { h.processor.Resync(ctx) }

// GetServiceHosts 返回 "ip:port" 列表。
//
// 缓存中没有该服务时直连注册中心并写入缓存；直连失败或被限速时返回空列表。
func (h *Helper) GetServiceHosts(ctx context.Context, service, tags string) []string {
	hosts := h.cache.GetFilteredHosts(service, tags)
	if len(hosts) != 0 || h.cache.HasService(service) {
		return hosts
	}

	_, err, _ := h.group.Do("service:"+service+":"+tags, func() (interface{}, error) {
		if !h.limiter.Allow() {
			return nil, ErrFallbackThrottled
		}
		instances, err := h.registry.Resolve(ctx, service, tags)
		if err != nil {
			return nil, err
		}
		h.cache.SetServiceInstances(service, instances)
		return nil, nil
	})
	if err != nil {
		h.log.Warn("resolve service failed", zap.String("service", service), zap.Error(err))
		return nil
	}
	return h.cache.GetFilteredHosts(service, tags)
}

// GetServiceHostsNoCache 直连注册中心，不写缓存；tags 为空时使用缓存的标签过滤。
func (h *Helper) GetServiceHostsNoCache(ctx context.Context, service, tags string) ([]string, error) {
	if tags == "" {
		tags = h.cache.GetServiceTags(service)
	}
	instances, err := h.registry.Resolve(ctx, service, tags)
	if err != nil {
		return nil, err
	}
	hosts := make([]string, 0, len(instances))
	for _, ins := range instances {
		hosts = append(hosts, ins.Host())
	}
	return hosts, nil
}

// GetKeyValue 读取 key，缓存中没有该 key 时直连注册中心并写入缓存。
func (h *Helper) GetKeyValue(ctx context.Context, key string) (string, bool) {
	if value, ok := h.cache.GetKeyValue(key); ok || h.cache.HasKey(key) {
		return value, ok
	}

	_, err, _ := h.group.Do("key:"+key, func() (interface{}, error) {
		if !h.limiter.Allow() {
			return nil, ErrFallbackThrottled
		}
		value, ok, err := h.registry.GetValue(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			h.cache.SetKeyValues(cache.NewKeyValue(key, value))
		} else {
			h.cache.SetKeyValues(cache.KeyValue{Key: key})
		}
		return nil, nil
	})
	if err != nil {
		h.log.Warn("get key failed", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return h.cache.GetKeyValue(key)
}

// GetKeyValueNoCache 直连注册中心读取 key。
func (h *Helper) GetKeyValueNoCache(ctx context.Context, key string) (string, bool, error) {
	return h.registry.GetValue(ctx, key)
}

// SetKeyValue 写入注册中心并更新缓存；注册中心写入失败时缓存仍会更新。
func (h *Helper) SetKeyValue(ctx context.Context, key, value string) error {
	err := h.registry.PutValue(ctx, key, value)
	if err != nil {
		h.log.Warn("put key failed", zap.String("key", key), zap.Error(err))
	}
	h.cache.SetKeyValues(cache.NewKeyValue(key, value))
	return err
}

// SetKeyValueNoCache 直连注册中心写入 key。
func (h *Helper) SetKeyValueNoCache(ctx context.Context, key, value string) error {
	return h.registry.PutValue(ctx, key, value)
}

// AddServiceHook 服务实例变化时回调。
func (h *Helper) AddServiceHook(service string, fn cache.ServiceHook) {
	h.cache.AddServiceHook(service, fn)
}

// RemoveServiceHooks 移除服务的全部钩子，包括连接池的重置钩子。
func (h *Helper) RemoveServiceHooks(service string) {
	h.cache.RemoveServiceHooks(service)
}

// AddKeyHook key 的值变化时回调。
func (h *Helper) AddKeyHook(key string, fn cache.KeyHook) {
	h.cache.AddKeyHook(key, fn)
}

// RemoveKeyHooks 移除 key 的全部钩子。
func (h *Helper) RemoveKeyHooks(key string) {
	h.cache.RemoveKeyHooks(key)
}

// GetServiceClient 从 (service, 协议) 对应的连接池借出客户端，用完需 pool.Release。
//
// protocolTags 省略时使用缓存的标签过滤，取第一个可识别的协议；
// 没有可识别协议时返回 ErrProtocolUnknown。
func (h *Helper) GetServiceClient(ctx context.Context, service string, protocolTags ...string) (pool.Client, error) {
	if h.closed.Load() {
		return nil, ErrHelperClosed
	}
	if service == "" {
		return nil, registry.ErrServiceNameIsEmpty
	}

	tags := strings.Join(protocolTags, ",")
	if tags == "" {
		tags = h.cache.GetServiceTags(service)
	}
	protocol, ok := transport.FirstProtocol(tags)
	if !ok {
		return nil, ErrProtocolUnknown
	}

	p, err := h.getPool(ctx, service, protocol, tags)
	if err != nil {
		return nil, err
	}
	return p.Borrow()
}

// GetServiceClientCount 返回连接池的空闲数与有效数，连接池不存在时为 (0, 0)。
func (h *Helper) GetServiceClientCount(service, protocol string) (idle, active int) {
	h.mu.RLock()
	p, ok := h.pools[poolKey(service, protocol)]
	h.mu.RUnlock()

	if !ok {
		return 0, 0
	}
	return p.IdleCount(), p.ActiveCount()
}

// Close 注销本服务，关闭全部连接池与注册中心连接。
func (h *Helper) Close(ctx context.Context) error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := h.processor.Uninstall(ctx)

	h.mu.Lock()
	for _, p := range h.pools {
		p.Close()
	}
	h.mu.Unlock()

	h.cache.Close()
	if cerr := h.closer(); err == nil {
		err = cerr
	}
	_ = h.log.Sync()
	return err
}

func poolKey(service, protocol string) string {
	return service + ":" + protocol
}

// getPool 双重检查，保证每个 (服务, 协议) 只创建一个连接池。
func (h *Helper) getPool(ctx context.Context, service string, protocol transport.Protocol, tags string) (*pool.Pool, error) {
	key := poolKey(service, protocol.String())

	h.mu.RLock()
	p, ok := h.pools[key]
	h.mu.RUnlock()
	if ok {
		return p, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if p, ok = h.pools[key]; ok {
		return p, nil
	}

	dialer, err := h.dialers(protocol, h.log)
	if err != nil {
		return nil, err
	}

	config := h.poolConfig(key)
	config.Set(constant.PoolServiceName, service)

	p = pool.New(key, h.GetServiceHosts(ctx, service, tags), config, dialer,
		pool.WithLog(h.log.With(zap.String("pool", key))))

	h.cache.AddServiceHook(service, func(name string) {
		p.ResetPool(h.cache.GetFilteredHosts(name, h.cache.GetServiceTags(name)))
	})

	h.pools[key] = p
	h.log.Info("pool created", zap.String("pool", key), zap.Strings("hosts", p.Hosts()))
	return p, nil
}

// poolConfig 收集名称包含 poolKey 的 key 作为配置项，配置名取最后一段，并跟随 key 变化更新。
func (h *Helper) poolConfig(key string) *pool.Config {
	config := pool.NewConfig(nil)
	for _, k := range h.cache.GetKnownKeys() {
		if !strings.Contains(k, key) {
			continue
		}
		name := configName(k)
		if value, ok := h.cache.GetKeyValue(k); ok {
			config.Set(name, value)
		}
		h.cache.AddKeyHook(k, func(k, v string) {
			config.Set(configName(k), v)
		})
	}
	return config
}

func configName(key string) string {
	return key[strings.LastIndex(key, ":")+1:]
}
