// Package cache 本地服务发现缓存：镜像注册中心中的服务实例与 key/value，
// 检测有效变更并异步触发钩子。
package cache

import (
	"maps"
	"slices"
	"sync"

	"github.com/fireflycore/go-discover/constant"
	"github.com/fireflycore/go-discover/registry"
	"go.uber.org/zap"
)

// ServiceHook 服务实例集合变化时以服务名回调。
type ServiceHook func(name string)

// KeyHook key 的值变化时以 key 与新值回调。
type KeyHook func(key, value string)

// KeyValue 一条 key/value；Valid 为 false 表示值未知（从未取到）。
type KeyValue struct {
	Key   string
	Value string
	Valid bool
}

// NewKeyValue 构造一条已知值的 KeyValue。
func NewKeyValue(key, value string) KeyValue {
	return KeyValue{Key: key, Value: value, Valid: true}
}

// serviceRecord 服务记录，进程生命周期内不删除。
type serviceRecord struct {
	// tags 使用方声明的标签过滤
	tags string
	// hookedTags 上次变更检测时使用的过滤快照
	hookedTags []string
	instances  []registry.ServiceInstance
}

type keyValueRecord struct {
	value string
	valid bool
}

// Cache 线程安全的服务发现缓存。
//
// 所有写操作共用一把锁；钩子在锁外由 dispatcher 执行，
// 钩子内可以安全地再次调用 Cache。
type Cache struct {
	mu sync.RWMutex

	services map[string]*serviceRecord
	values   map[string]keyValueRecord

	serviceHooks map[string][]ServiceHook
	keyHooks     map[string][]KeyHook

	scorer     Scorer
	queueSize  int
	dispatcher *dispatcher

	log *zap.Logger
}

// Option 定义 Cache 的可选配置项。
type Option func(*Cache)

// WithScorer 替换变更检测使用的摘要函数。
func WithScorer(scorer Scorer) Option {
	return func(c *Cache) {
		if scorer != nil {
			c.scorer = scorer
		}
	}
}

// WithLog 设置内部日志。
func WithLog(log *zap.Logger) Option {
	return func(c *Cache) {
		if log != nil {
			c.log = log
		}
	}
}

// WithQueueSize 设置钩子分发队列长度。
func WithQueueSize(size int) Option {
	return func(c *Cache) {
		c.queueSize = size
	}
}

// New 创建缓存并启动钩子分发协程，使用完毕需调用 Close。
func New(opts ...Option) *Cache {
	c := &Cache{
		services:     make(map[string]*serviceRecord),
		values:       make(map[string]keyValueRecord),
		serviceHooks: make(map[string][]ServiceHook),
		keyHooks:     make(map[string][]KeyHook),
		scorer:       NewScorer(DefaultModulus),
		queueSize:    constant.DefaultHookQueueSize,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.dispatcher = newDispatcher(c.queueSize, c.fire)
	return c
}

// Close 停止钩子分发，已入队的批次会执行完。
func (c *Cache) Close() {
	c.dispatcher.close()
}

// SetServiceTag 声明解析 name 时使用的标签过滤，不触发钩子。
func (c *Cache) SetServiceTag(name, tags string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rec, ok := c.services[name]; ok {
		rec.tags = tags
		return
	}
	c.services[name] = &serviceRecord{tags: tags, hookedTags: registry.SplitTags(tags)}
}

// GetServiceTags 未声明时返回空串。
func (c *Cache) GetServiceTags(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if rec, ok := c.services[name]; ok {
		return rec.tags
	}
	return ""
}

// SetServiceInstances 替换 name 的实例集合；实例携带其他服务名时按服务名分组分别替换。
//
// 数量或摘要不同才算真实变更。真实变更时用当前过滤与上次快照分别过滤新旧集合，
// 过滤视图不同才调度钩子，随后更新快照。返回本次设置的实例总数。
func (c *Cache) SetServiceInstances(name string, instances []registry.ServiceInstance) int {
	groups := make(map[string][]registry.ServiceInstance)
	for _, ins := range instances {
		service := ins.Service
		if service == "" {
			service = name
			ins.Service = name
		}
		groups[service] = append(groups[service], ins)
	}
	if len(instances) == 0 && name != "" {
		groups[name] = nil
	}

	var (
		count   int
		changed []string
	)

	c.mu.Lock()
	for service, group := range groups {
		count += len(group)

		rec, ok := c.services[service]
		if !ok {
			rec = &serviceRecord{}
			c.services[service] = rec
		}
		if c.scorer.Equal(rec.instances, group) {
			continue
		}

		last := rec.instances
		rec.instances = group

		tags := registry.SplitTags(rec.tags)
		lastView := registry.FilterByTags(last, rec.hookedTags)
		nextView := registry.FilterByTags(group, tags)
		if !c.scorer.Equal(lastView, nextView) {
			changed = append(changed, service)
		}
		rec.hookedTags = tags
	}
	c.mu.Unlock()

	if len(changed) > 0 {
		c.log.Info("service instances changed", zap.Strings("services", changed))
	}
	c.dispatcher.submit(batch{services: changed})
	return count
}

// GetServiceInstances 返回 name 当前的全部实例。
func (c *Cache) GetServiceInstances(name string) []registry.ServiceInstance {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if rec, ok := c.services[name]; ok {
		return slices.Clone(rec.instances)
	}
	return nil
}

// GetFilteredHosts 返回携带全部非空标签的实例地址 "ip:port"。
func (c *Cache) GetFilteredHosts(name, tags string) []string {
	c.mu.RLock()
	rec, ok := c.services[name]
	var instances []registry.ServiceInstance
	if ok {
		instances = rec.instances
	}
	c.mu.RUnlock()

	filtered := registry.FilterByTags(instances, registry.SplitTags(tags))
	hosts := make([]string, 0, len(filtered))
	for _, ins := range filtered {
		hosts = append(hosts, ins.Host())
	}
	return hosts
}

// HasService 服务是否已被声明或解析过。
func (c *Cache) HasService(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.services[name]
	return ok
}

// GetKnownServiceNames 已知服务名，按字典序。
func (c *Cache) GetKnownServiceNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Sorted(maps.Keys(c.services))
}

// SetKeyValues 首次出现的 key 直接写入，不触发钩子；已知 key 的值变化时调度钩子。
// 返回处理的 key 数量。
func (c *Cache) SetKeyValues(pairs ...KeyValue) int {
	var changed []string

	c.mu.Lock()
	for _, pair := range pairs {
		next := keyValueRecord{value: pair.Value, valid: pair.Valid}
		prev, ok := c.values[pair.Key]
		c.values[pair.Key] = next
		if ok && prev != next {
			changed = append(changed, pair.Key)
		}
	}
	c.mu.Unlock()

	c.dispatcher.submit(batch{keys: changed})
	return len(pairs)
}

// GetKeyValue 值未知时 ok 为 false。
func (c *Cache) GetKeyValue(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.values[key]
	if !ok || !rec.valid {
		return "", false
	}
	return rec.value, true
}

// HasKey key 是否已知（值可能未知）。
func (c *Cache) HasKey(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.values[key]
	return ok
}

// GetKnownKeys 已知 key，按字典序。
func (c *Cache) GetKnownKeys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Sorted(maps.Keys(c.values))
}

// AddServiceHook 追加服务钩子。
func (c *Cache) AddServiceHook(name string, fn ServiceHook) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.serviceHooks[name] = append(c.serviceHooks[name], fn)
}

// RemoveServiceHooks 移除服务的全部钩子。
func (c *Cache) RemoveServiceHooks(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.serviceHooks, name)
}

// AddKeyHook 追加 key 钩子。
func (c *Cache) AddKeyHook(key string, fn KeyHook) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keyHooks[key] = append(c.keyHooks[key], fn)
}

// RemoveKeyHooks 移除 key 的全部钩子。
func (c *Cache) RemoveKeyHooks(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.keyHooks, key)
}

// fire 执行一个批次。钩子 panic 会中止本批次剩余的钩子，dispatcher 继续工作。
func (c *Cache) fire(b batch) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("cache hook panicked, remaining hooks of this batch are skipped",
				zap.Any("panic", r),
				zap.Strings("services", b.services),
				zap.Strings("keys", b.keys),
			)
		}
	}()

	for _, name := range b.services {
		c.mu.RLock()
		hooks := slices.Clone(c.serviceHooks[name])
		c.mu.RUnlock()

		for _, fn := range hooks {
			fn(name)
		}
	}

	for _, key := range b.keys {
		c.mu.RLock()
		hooks := slices.Clone(c.keyHooks[key])
		rec := c.values[key]
		c.mu.RUnlock()

		for _, fn := range hooks {
			fn(key, rec.value)
		}
	}
}
