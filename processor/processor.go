// Package processor 管理本服务的注册身份，驱动心跳与全量同步两个后台循环。
package processor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	"github.com/fireflycore/go-discover/cache"
	"github.com/fireflycore/go-discover/conf"
	"github.com/fireflycore/go-discover/registry"
	"github.com/fireflycore/go-discover/sys"
)

const retryDelay = 200 * time.Millisecond

// Processor 注册与同步处理器，每个进程一个。
type Processor struct {
	service  conf.ServiceConf
	deps     []conf.ServiceDeps
	keys     []conf.KeyDefault
	registry registry.Registry
	cache    *cache.Cache
	hostname string

	heartbeat time.Duration
	refresh   time.Duration

	mu   sync.Mutex
	tags string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	initialized atomic.Bool
	registered  atomic.Bool

	log         *zap.Logger
	retryBefore func(attempt uint, err error)
}

// New 创建处理器，不访问注册中心。
func New(c *conf.Conf, reg registry.Registry, ch *cache.Cache) (*Processor, error) {
	if c == nil {
		return nil, ErrConfIsNil
	}
	if reg == nil {
		return nil, ErrRegistryIsNil
	}
	if ch == nil {
		return nil, ErrCacheIsNil
	}
	if c.Service.Name == "" {
		return nil, registry.ErrServiceNameIsEmpty
	}

	service := c.Service
	service.Bootstrap()

	ctx, cancel := context.WithCancel(context.Background())

	return &Processor{
		service:   service,
		deps:      c.Services,
		keys:      c.Keys,
		registry:  reg,
		cache:     ch,
		hostname:  sys.Hostname(),
		heartbeat: service.HeartbeatInterval(),
		refresh:   service.RefreshInterval(),
		tags:      service.Tags,
		ctx:       ctx,
		cancel:    cancel,
		log:       zap.NewNop(),
	}, nil
}

// WithLog 设置内部日志。
func (p *Processor) WithLog(log *zap.Logger) {
	if log != nil {
		p.log = log.With(zap.String("service", p.service.Name))
	}
}

// WithHostname 覆盖 key 命名使用的主机名，需在 Initialize 之前调用。
func (p *Processor) WithHostname(hostname string) {
	if hostname != "" {
		p.hostname = hostname
	}
}

// WithRetryBefore 注册失败、重试前回调。
func (p *Processor) WithRetryBefore(handle func(attempt uint, err error)) {
	p.retryBefore = handle
}

// ServiceName 本服务名
func (p *Processor) ServiceName() string { return p.service.Name }

// Hostname key 命名使用的主机名
func (p *Processor) Hostname() string { return p.hostname }

// Tags 当前生效的注册标签
func (p *Processor) Tags() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tags
}

// Registered 最近一次注册是否成功
func (p *Processor) Registered() bool { return p.registered.Load() }

// ServiceTagsKey 依赖服务 dependency 的标签过滤 key。
func (p *Processor) ServiceTagsKey(dependency string) string {
	return ServiceTagsKey(p.service.Name, dependency, p.hostname)
}

// RegisterTagKey 本服务的注册标签覆盖 key。
func (p *Processor) RegisterTagKey() string {
	return RegisterTagKey(p.service.Name, p.hostname)
}

// ServiceConfigKey 本服务作用域的配置 key。
func (p *Processor) ServiceConfigKey(name string) string {
	return ServiceConfigKey(p.service.Name, name)
}

// Initialize 注册本服务、写入缓存初始值并完成一次同步，然后启动后台循环。
//
// 注册中心错误只记录日志，不返回；注册失败时不订阅标签覆盖。
func (p *Processor) Initialize(ctx context.Context) error {
	if !p.initialized.CompareAndSwap(false, true) {
		return ErrAlreadyInitialized
	}

	p.negotiateTags(ctx)

	if p.register(ctx, p.Tags()) {
		p.cache.AddKeyHook(p.RegisterTagKey(), p.onRegisterTag)
	}
	if p.activeHeartbeat() {
		p.sendHeartbeat(ctx)
	}

	p.seed(ctx)

	p.Resync(ctx)

	if p.activeHeartbeat() {
		p.wg.Add(1)
		go p.heartbeatLoop()
	}
	p.wg.Add(1)
	go p.resyncLoop()

	p.log.Info("processor initialized",
		zap.String("tags", p.Tags()),
		zap.Bool("registered", p.Registered()),
		zap.Bool("heartbeat", p.activeHeartbeat()),
	)
	return nil
}

// Uninstall 停止后台循环并注销服务。
func (p *Processor) Uninstall(ctx context.Context) error {
	p.cancel()
	p.wg.Wait()

	if !p.registered.Swap(false) {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.service.Timeout())
	defer cancel()
	return p.registry.Deregister(ctx, p.service.Name)
}

// Resync 刷新全部 key，按 key 更新依赖服务的标签过滤，再重新解析全部服务。
func (p *Processor) Resync(ctx context.Context) {
	p.syncKeyValues(ctx)
	p.syncServices(ctx)
}

// negotiateTags 远端注册标签存在时覆盖本地标签，否则用本地标签初始化远端。
func (p *Processor) negotiateTags(ctx context.Context) {
	key := p.RegisterTagKey()
	tags := p.Tags()

	remote, ok, err := p.getValue(ctx, key)
	switch {
	case err != nil:
		p.log.Warn("get register tag failed", zap.String("key", key), zap.Error(err))
	case ok && remote != "":
		tags = remote
		p.setTags(remote)
	case tags != "":
		if err = p.putValue(ctx, key, tags); err != nil {
			p.log.Warn("put register tag failed", zap.String("key", key), zap.Error(err))
		}
	}

	// 标签为空时也记录该 key，后续同步可以拿到远端覆盖
	if tags == "" {
		p.cache.SetKeyValues(cache.KeyValue{Key: key})
		return
	}
	p.cache.SetKeyValues(cache.NewKeyValue(key, tags))
}

// seed 写入静态配置的 key 默认值与依赖服务标签过滤。
func (p *Processor) seed(ctx context.Context) {
	pairs := make([]cache.KeyValue, 0, len(p.keys)+len(p.deps))
	for _, kv := range p.keys {
		if kv.Value == nil {
			pairs = append(pairs, cache.KeyValue{Key: kv.Name})
			continue
		}
		pairs = append(pairs, cache.NewKeyValue(kv.Name, *kv.Value))
	}

	for _, dep := range p.deps {
		p.cache.SetServiceTag(dep.Name, dep.Tags)

		key := p.ServiceTagsKey(dep.Name)
		remote, ok, err := p.getValue(ctx, key)
		if err != nil {
			p.log.Warn("get service tags failed", zap.String("key", key), zap.Error(err))
		} else if !ok || remote == "" {
			if err = p.putValue(ctx, key, dep.Tags); err != nil {
				p.log.Warn("put service tags failed", zap.String("key", key), zap.Error(err))
			}
		}
		pairs = append(pairs, cache.NewKeyValue(key, dep.Tags))
	}

	p.cache.SetKeyValues(pairs...)
}

func (p *Processor) syncKeyValues(ctx context.Context) {
	keys := p.cache.GetKnownKeys()
	pairs := make([]cache.KeyValue, 0, len(keys))
	for _, key := range keys {
		value, ok, err := p.getValue(ctx, key)
		if err != nil {
			p.log.Warn("sync key failed", zap.String("key", key), zap.Error(err))
			continue
		}
		if ok {
			pairs = append(pairs, cache.NewKeyValue(key, value))
		}
	}
	p.cache.SetKeyValues(pairs...)

	for _, name := range p.cache.GetKnownServiceNames() {
		if tags, ok := p.cache.GetKeyValue(p.ServiceTagsKey(name)); ok {
			p.cache.SetServiceTag(name, tags)
		}
	}
}

func (p *Processor) syncServices(ctx context.Context) {
	total := 0
	for _, name := range p.cache.GetKnownServiceNames() {
		instances, err := p.resolve(ctx, name, p.cache.GetServiceTags(name))
		if err != nil {
			p.log.Warn("sync service failed", zap.String("key", name), zap.Error(err))
			continue
		}
		total += p.cache.SetServiceInstances(name, instances)
	}
	p.log.Debug("services synced", zap.Int("instances", total))
}

func (p *Processor) onRegisterTag(_ string, value string) {
	if value == "" || value == p.Tags() {
		return
	}
	p.setTags(value)
	p.log.Info("register tags overridden", zap.String("tags", value))
	p.register(p.ctx, value)
}

// register 按 MaxRetry 重试注册，返回是否成功。
func (p *Processor) register(ctx context.Context, tags string) bool {
	reg := &registry.Registration{
		Name:      p.service.Name,
		Tags:      registry.SplitTags(tags),
		Address:   p.address(),
		Port:      p.service.Port,
		Interval:  p.heartbeat,
		HTTPCheck: p.service.HttpCheck,
		TCPCheck:  p.service.TcpCheck,
	}

	err := retry.Do(
		func() error {
			rctx, cancel := context.WithTimeout(ctx, p.service.Timeout())
			defer cancel()
			return p.registry.Register(rctx, reg)
		},
		retry.Context(ctx),
		retry.Attempts(uint(p.service.MaxRetry)),
		retry.Delay(retryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			p.log.Warn("register failed, retrying", zap.Uint("attempt", attempt), zap.Error(err))
			if p.retryBefore != nil {
				p.retryBefore(attempt, err)
			}
		}),
	)
	if err != nil {
		p.log.Error("register failed", zap.Error(err))
		return false
	}
	p.registered.Store(true)
	return true
}

func (p *Processor) address() string {
	if p.service.Address != "" {
		return p.service.Address
	}
	ip, err := sys.InternalIP()
	if err != nil {
		p.log.Warn("resolve internal ip failed", zap.Error(err))
		return ""
	}
	return ip
}

func (p *Processor) activeHeartbeat() bool {
	return p.service.HttpCheck == "" && p.service.TcpCheck == "" && p.heartbeat > 0
}

func (p *Processor) sendHeartbeat(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.service.Timeout())
	defer cancel()

	if err := p.registry.Heartbeat(ctx, registry.CheckID(p.service.Name)); err != nil {
		p.log.Warn("heartbeat failed", zap.Error(err))
	}
}

func (p *Processor) heartbeatLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.sendHeartbeat(p.ctx)
		}
	}
}

func (p *Processor) resyncLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.Resync(p.ctx)
		}
	}
}

func (p *Processor) setTags(tags string) {
	p.mu.Lock()
	p.tags = tags
	p.mu.Unlock()
}

func (p *Processor) getValue(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, p.service.Timeout())
	defer cancel()
	return p.registry.GetValue(ctx, key)
}

func (p *Processor) putValue(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, p.service.Timeout())
	defer cancel()
	return p.registry.PutValue(ctx, key, value)
}

func (p *Processor) resolve(ctx context.Context, name, tags string) ([]registry.ServiceInstance, error) {
	ctx, cancel := context.WithTimeout(ctx, p.service.Timeout())
	defer cancel()
	return p.registry.Resolve(ctx, name, tags)
}
