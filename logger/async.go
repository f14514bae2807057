package logger

import (
	"sync"
	"sync/atomic"
)

// AsyncLogger 把日志写入缓冲队列，由后台 goroutine 串行调用 handle。
//
// 队列满时丢弃新日志，不阻塞调用方；同时实现 io.Writer。
type AsyncLogger struct {
	queue  chan []byte
	handle func(b []byte)

	// closed Close 后 Write 直接丢弃，后台协程 drain 队列后退出
	closed chan struct{}
	// done 后台协程退出后关闭
	done    chan struct{}
	once    sync.Once
	dropped atomic.Uint64
}

// NewAsyncLogger size 为队列长度，小于等于 0 时按 1 处理。
func NewAsyncLogger(size int, handle func(b []byte)) *AsyncLogger {
	if size <= 0 {
		size = 1
	}
	l := &AsyncLogger{
		queue:  make(chan []byte, size),
		handle: handle,
		closed: make(chan struct{}),
		done:   make(chan struct{}),
	}

	go l.run()

	return l
}

func (l *AsyncLogger) run() {
	defer close(l.done)

	for {
		select {
		case b := <-l.queue:
			l.emit(b)
		case <-l.closed:
			for {
				select {
				case b := <-l.queue:
					l.emit(b)
				default:
					return
				}
			}
		}
	}
}

func (l *AsyncLogger) emit(b []byte) {
	if l.handle != nil {
		l.handle(b)
	}
}

// Write 实现 io.Writer，入队前复制 p，上层可复用底层数组。
func (l *AsyncLogger) Write(p []byte) (n int, err error) {
	if l == nil {
		return len(p), nil
	}
	select {
	case <-l.closed:
		l.dropped.Add(1)
		return len(p), nil
	default:
	}
	select {
	case l.queue <- append([]byte(nil), p...):
	default:
		l.dropped.Add(1)
	}
	return len(p), nil
}

// Logger 可直接作为 NewZapLogger 的 handle。
func (l *AsyncLogger) Logger(b []byte) {
	_, _ = l.Write(b)
}

// Dropped 因队列满或已关闭而丢弃的日志条数。
func (l *AsyncLogger) Dropped() uint64 {
	if l == nil {
		return 0
	}
	return l.dropped.Load()
}

// Close 允许 nil 接收者和重复调用。
func (l *AsyncLogger) Close() {
	if l == nil {
		return
	}
	l.once.Do(func() {
		close(l.closed)
	})
}

// Sync 关闭队列并等待已入队日志全部写出。
func (l *AsyncLogger) Sync() error {
	if l == nil {
		return nil
	}
	l.Close()
	<-l.done
	return nil
}
