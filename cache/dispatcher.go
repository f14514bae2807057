package cache

import (
	"sync"
)

// batch 一次缓存更新产生的待触发目标。
type batch struct {
	services []string
	keys     []string
}

func (b batch) empty() bool {
	return len(b.services) == 0 && len(b.keys) == 0
}

// dispatcher 在独立 goroutine 中串行执行钩子批次，与缓存写锁解耦。
//
// 队列满时该批次退化为单独的 goroutine 执行，调用方永远不会阻塞。
// close 之后提交的批次直接丢弃。
type dispatcher struct {
	queue chan batch
	run   func(batch)

	// mu 保证 submit 与 close 互斥，close 返回后不再有批次执行
	mu       sync.Mutex
	shutdown bool
	closed   chan struct{}
	wg       sync.WaitGroup
}

func newDispatcher(size int, run func(batch)) *dispatcher {
	if size <= 0 {
		size = 1
	}
	d := &dispatcher{
		queue:  make(chan batch, size),
		run:    run,
		closed: make(chan struct{}),
	}
	d.wg.Add(1)
	go d.loop()
	return d
}

func (d *dispatcher) loop() {
	defer d.wg.Done()
	for {
		select {
		case b := <-d.queue:
			d.run(b)
		case <-d.closed:
			for {
				select {
				case b := <-d.queue:
					d.run(b)
				default:
					return
				}
			}
		}
	}
}

// submit 返回批次是否被接收。
func (d *dispatcher) submit(b batch) bool {
	if b.empty() {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.shutdown {
		return false
	}
	select {
	case d.queue <- b:
	default:
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.run(b)
		}()
	}
	return true
}

// close 执行完已接收的批次后返回，允许重复调用。
func (d *dispatcher) close() {
	d.mu.Lock()
	if !d.shutdown {
		d.shutdown = true
		close(d.closed)
	}
	d.mu.Unlock()

	d.wg.Wait()
}
