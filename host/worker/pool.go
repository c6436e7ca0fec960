package worker

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrPoolClosed = errors.New("worker pool closed")

// Pool provides bounded concurrency execution.
type Pool struct {
	tasks    chan func()
	wg       sync.WaitGroup
	senders  sync.WaitGroup
	shutdown chan struct{}
	mu       sync.RWMutex
	closed   bool
	size     int
	timers   map[*time.Timer]struct{}
}

// New creates a worker pool with the given size.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}

	queueSize := size * 8
	if queueSize < 8 {
		queueSize = 8
	}

	p := &Pool{
		tasks:    make(chan func(), queueSize),
		shutdown: make(chan struct{}),
		size:     size,
		timers:   make(map[*time.Timer]struct{}),
	}

	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for task := range p.tasks {
				if task != nil {
					task()
				}
			}
		}()
	}

	return p
}

// Submit enqueues a task for execution. It blocks while the queue is full
// and gives up once the pool shuts down.
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrPoolClosed
	}
	p.senders.Add(1)
	p.mu.RUnlock()
	defer p.senders.Done()

	select {
	case <-p.shutdown:
		return ErrPoolClosed
	case p.tasks <- task:
		return nil
	}
}

// SubmitWait enqueues a task and waits for it to complete.
func (p *Pool) SubmitWait(task func() error) error {
	return p.SubmitWaitContext(context.Background(), task)
}

// SubmitWaitContext enqueues a task and waits for it or for ctx to finish.
func (p *Pool) SubmitWaitContext(ctx context.Context, task func() error) error {
	if task == nil {
		return nil
	}

	result := make(chan error, 1)
	err := p.Submit(func() {
		result <- task()
	})
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-result:
		return err
	}
}

// After runs task on the pool once delay has elapsed. The returned cancel
// reports whether it stopped the task before it was queued. Pending tasks are
// dropped when the pool shuts down, and a closed pool returns ErrPoolClosed.
func (p *Pool) After(delay time.Duration, task func()) (cancel func() bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPoolClosed
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		p.mu.Lock()
		_, pending := p.timers[timer]
		delete(p.timers, timer)
		p.mu.Unlock()
		if pending {
			_ = p.Submit(task)
		}
	})
	p.timers[timer] = struct{}{}

	return func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		if _, pending := p.timers[timer]; !pending {
			return false
		}
		delete(p.timers, timer)
		return timer.Stop()
	}, nil
}

// Pending returns the number of delayed tasks not yet queued.
func (p *Pool) Pending() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.timers)
}

// Shutdown waits for in-flight tasks until context is done.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.close()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// StopNow closes the pool without waiting for tasks to finish.
func (p *Pool) StopNow() {
	p.close()
}

// close stops new work, releases blocked senders and then closes the queue
// so workers drain what was already accepted.
func (p *Pool) close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	for timer := range p.timers {
		timer.Stop()
	}
	p.timers = make(map[*time.Timer]struct{})
	close(p.shutdown)
	p.mu.Unlock()

	p.senders.Wait()
	close(p.tasks)
}

// Size returns the worker count.
func (p *Pool) Size() int {
	return p.size
}
