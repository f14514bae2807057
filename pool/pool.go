// Package pool 通用连接池：容量有界、基于版本失效、借出时惰性校验。
//
// 各协议只需实现 Dialer，见 transport 包。
package pool

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync/atomic"
	"time"

	"github.com/fireflycore/go-discover/constant"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Pool 一个 (服务, 协议) 对应一个连接池。
//
// sem 是可超时获取的互斥锁，avail 是归还与重置时发送的容量信号。
// done 在 Close 时关闭，唤醒所有等待容量的 Borrow。
type Pool struct {
	name    string
	dialer  Dialer
	config  *Config
	log     *zap.Logger
	metrics *metrics

	sem   *semaphore.Weighted
	avail chan struct{}
	done  chan struct{}

	// 以下字段受 sem 保护
	idle      []Client
	hosts     []string
	closed    bool
	maxActive int
	minIdle   int
	maxIdle   int

	version     atomic.Uint64
	idleCount   atomic.Int64
	activeCount atomic.Int64
	timeout     atomic.Int64
}

// Option 定义 Pool 的可选配置项。
type Option func(*Pool)

// WithLog 设置内部日志。
func WithLog(log *zap.Logger) Option {
	return func(p *Pool) {
		if log != nil {
			p.log = log
		}
	}
}

// New 创建连接池；config 为 nil 时全部使用默认值。
func New(name string, hosts []string, config *Config, dialer Dialer, opts ...Option) *Pool {
	if config == nil {
		config = NewConfig(nil)
	}
	p := &Pool{
		name:    name,
		dialer:  dialer,
		config:  config,
		log:     zap.NewNop(),
		metrics: newMetrics(name),
		sem:     semaphore.NewWeighted(1),
		avail:   make(chan struct{}, 1),
		done:    make(chan struct{}),
		hosts:   slices.Clone(hosts),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.reload()
	return p
}

// Name 连接池名称，一般为 "service:protocol"。
func (p *Pool) Name() string { return p.name }

// Version 当前版本。
func (p *Pool) Version() uint64 { return p.version.Load() }

// IdleCount 空闲客户端数量。
func (p *Pool) IdleCount() int { return int(p.idleCount.Load()) }

// ActiveCount 已创建且尚未销毁的客户端数量（含空闲）。
func (p *Pool) ActiveCount() int { return int(p.activeCount.Load()) }

// Hosts 当前 host 列表。
func (p *Pool) Hosts() []string {
	p.lock()
	defer p.unlock()
	return slices.Clone(p.hosts)
}

// Config 连接池配置。
func (p *Pool) Config() *Config { return p.config }

// Borrow 借出一个已校验的客户端。
//
// 等待锁超时返回 ErrPoolBusy；容量已满且在 ClientTimeout 内无归还返回 ErrPoolExhausted；
// 所有 host 都失败返回 ErrClientUnavailable。
func (p *Pool) Borrow() (Client, error) {
	start := time.Now()
	timeout := time.Duration(p.timeout.Load())

	if !p.tryLock(timeout) {
		p.metrics.borrowed(outcomeBusy, start)
		return nil, fmt.Errorf("%w: %s waited %s", ErrPoolBusy, p.name, timeout)
	}

	deadline := time.Now().Add(timeout)
	for {
		client, full, err := p.borrowLocked()
		p.unlock()

		switch {
		case err != nil:
			outcome := outcomeUnavailable
			if errors.Is(err, ErrPoolClosed) {
				outcome = outcomeClosed
			}
			p.metrics.borrowed(outcome, start)
			return nil, err
		case !full:
			p.metrics.borrowed(outcomeOK, start)
			return client, nil
		}

		// 容量已满：释放锁等待归还信号，随后重新尝试
		if !p.waitAvailable(time.Until(deadline)) {
			p.metrics.borrowed(outcomeExhausted, start)
			return nil, fmt.Errorf("%w: %s active=%d", ErrPoolExhausted, p.name, p.ActiveCount())
		}
		if !p.tryLock(time.Until(deadline)) {
			p.metrics.borrowed(outcomeBusy, start)
			return nil, fmt.Errorf("%w: %s waited %s", ErrPoolBusy, p.name, timeout)
		}
	}
}

// borrowLocked 调用方持有锁。full 为 true 表示容量已满需要等待。
func (p *Pool) borrowLocked() (client Client, full bool, err error) {
	if p.closed {
		return nil, false, ErrPoolClosed
	}

	if len(p.idle) > 0 {
		client = p.dequeue()
		if err := client.Open(); err != nil {
			p.log.Warn("pool idle client is invalid", zap.String("pool", p.name), zap.String("client", client.ID()), zap.Error(err))
			p.destroy(client, "invalid")
			client = nil
		}
	}

	if client == nil {
		if p.ActiveCount() >= p.maxActive {
			return nil, true, nil
		}
		if client, err = p.create(); err != nil {
			return nil, false, err
		}
	}

	// 尽力补充一个空闲客户端，失败忽略
	if p.IdleCount() < p.minIdle && p.ActiveCount() < p.maxActive {
		if extra, err := p.create(); err == nil {
			p.enqueue(extra)
		}
	}

	return client, false, nil
}

// Return 归还客户端。空闲已满或版本过期时销毁，否则入队并发送可用信号。
// 归还时不校验连接，失效连接在下次借出时发现。
func (p *Pool) Return(client Client) {
	if client == nil {
		return
	}

	p.lock()
	defer p.unlock()

	switch {
	case p.closed:
		p.destroy(client, "closed")
	case client.Version() != p.Version():
		p.destroy(client, "stale")
	case p.IdleCount() >= p.maxIdle:
		p.destroy(client, "idle_full")
	default:
		client.Reset()
		p.enqueue(client)
	}
	p.signal()
}

// ResetPool 替换 host 列表、版本加一、销毁全部空闲客户端，并重新读取配置。
// 已借出的客户端归还时因版本过期被销毁。
func (p *Pool) ResetPool(hosts []string) {
	p.lock()
	defer p.unlock()

	p.hosts = slices.Clone(hosts)
	p.version.Add(1)
	p.reload()
	p.drain("reset")
	if p.dialer != nil {
		p.dialer.Reset()
	}

	p.signal()

	p.log.Info("pool reset",
		zap.String("pool", p.name),
		zap.Strings("hosts", p.hosts),
		zap.Uint64("version", p.Version()),
	)
}

// Close 进程退出时调用：版本加一、销毁空闲客户端，之后的 Borrow 返回 ErrPoolClosed。
func (p *Pool) Close() {
	p.lock()
	defer p.unlock()

	if p.closed {
		return
	}
	p.closed = true
	close(p.done)
	p.version.Add(1)
	p.drain("closed")
	if p.dialer != nil {
		p.dialer.Reset()
	}
}

func (p *Pool) reload() {
	p.maxActive = p.config.Int(constant.PoolMaxActive, constant.DefaultMaxActive)
	p.minIdle = p.config.Int(constant.PoolMinIdle, constant.DefaultMinIdle)
	p.maxIdle = p.config.Int(constant.PoolMaxIdle, constant.DefaultMaxIdle)

	timeout := p.config.Int(constant.PoolClientTimeout, constant.DefaultClientTimeout)
	if timeout <= 0 {
		timeout = constant.DefaultClientTimeout
	}
	p.timeout.Store(int64(time.Duration(timeout) * time.Millisecond))
}

// create 从随机 host 开始尝试，失败的位置由剩余候选替换，直到成功或全部尝试过一次。
func (p *Pool) create() (Client, error) {
	if p.dialer == nil || len(p.hosts) == 0 {
		return nil, fmt.Errorf("%w: %s: %w", ErrClientUnavailable, p.name, ErrNoHosts)
	}

	stamp := Stamp{
		Owner:   p,
		Version: p.Version(),
		Timeout: time.Duration(p.timeout.Load()),
		Config:  p.config,
	}

	candidates := make([]int, len(p.hosts))
	for i := range candidates {
		candidates[i] = i
	}

	var errs []error
	for len(candidates) > 0 {
		j := rand.IntN(len(candidates))
		host := p.hosts[candidates[j]]

		client, err := p.open(host, stamp)
		if err == nil {
			p.activeCount.Add(1)
			client.Reset()
			return client, nil
		}

		errs = append(errs, fmt.Errorf("%s: %w", host, err))
		candidates[j] = candidates[len(candidates)-1]
		candidates = candidates[:len(candidates)-1]
	}

	return nil, fmt.Errorf("%w: %s: %w", ErrClientUnavailable, p.name, errors.Join(errs...))
}

func (p *Pool) open(host string, stamp Stamp) (Client, error) {
	client, err := p.dialer.Dial(host, stamp)
	if err != nil {
		return nil, err
	}
	if err := client.Open(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func (p *Pool) destroy(client Client, reason string) {
	if err := client.Close(); err != nil {
		p.log.Warn("pool destroy client failed", zap.String("pool", p.name), zap.String("client", client.ID()), zap.Error(err))
	}
	p.activeCount.Add(-1)
	p.metrics.destroy(reason)
}

func (p *Pool) drain(reason string) {
	for len(p.idle) > 0 {
		p.destroy(p.dequeue(), reason)
	}
}

func (p *Pool) enqueue(client Client) {
	p.idle = append(p.idle, client)
	p.idleCount.Add(1)
}

func (p *Pool) dequeue() Client {
	client := p.idle[0]
	p.idle[0] = nil
	p.idle = p.idle[1:]
	p.idleCount.Add(-1)
	return client
}

func (p *Pool) lock() {
	_ = p.sem.Acquire(context.Background(), 1)
}

func (p *Pool) unlock() {
	p.sem.Release(1)
}

func (p *Pool) tryLock(timeout time.Duration) bool {
	if p.sem.TryAcquire(1) {
		return true
	}
	if timeout <= 0 {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return p.sem.Acquire(ctx, 1) == nil
}

func (p *Pool) signal() {
	select {
	case p.avail <- struct{}{}:
	default:
	}
}

func (p *Pool) waitAvailable(timeout time.Duration) bool {
	if timeout <= 0 {
		return false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-p.avail:
		return true
	case <-p.done:
		return true
	case <-timer.C:
		return false
	}
}
