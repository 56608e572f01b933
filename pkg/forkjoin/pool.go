// Package forkjoin is a fixed-size work-stealing pool.
//
// Every worker owns a deque. Submissions are spread round-robin across the
// deques; an owner pops from the tail of its own deque and an idle worker
// steals from the head of a sibling's.
package forkjoin

import (
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

var ErrShutdown = errors.New("forkjoin: pool is shut down")

// Task is one unit of work.
type Task func()

type deque struct {
	mu    sync.Mutex
	tasks []Task
}

func (d *deque) pushBack(t Task) {
	d.mu.Lock()
	d.tasks = append(d.tasks, t)
	d.mu.Unlock()
}

func (d *deque) popBack() Task {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(d.tasks)
	if n == 0 {
		return nil
	}
	t := d.tasks[n-1]
	d.tasks[n-1] = nil
	d.tasks = d.tasks[:n-1]
	return t
}

func (d *deque) popFront() Task {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.tasks) == 0 {
		return nil
	}
	t := d.tasks[0]
	d.tasks[0] = nil
	d.tasks = d.tasks[1:]
	return t
}

// Stats counts what the pool did so far.
type Stats struct {
	Workers  int
	Executed int64
	Stolen   int64
	Panics   int64
}

type Pool struct {
	deques []*deque
	logger *slog.Logger

	// mu guards shutdown and pairs with cond for idle workers
	mu       sync.Mutex
	cond     *sync.Cond
	shutdown bool

	pending  atomic.Int64
	next     atomic.Uint64
	executed atomic.Int64
	stolen   atomic.Int64
	panics   atomic.Int64

	wg   sync.WaitGroup
	done chan struct{}
}

// New starts a pool of workers goroutines; workers <= 0 means runtime.NumCPU().
func New(workers int, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pool{
		deques: make([]*deque, workers),
		logger: logger,
		done:   make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)
	for i := range p.deques {
		p.deques[i] = &deque{}
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker(i)
	}
	go func() {
		p.wg.Wait()
		close(p.done)
	}()
	return p
}

func (p *Pool) Workers() int {
	return len(p.deques)
}

// Submit queues t. It fails with ErrShutdown once Shutdown was called.
func (p *Pool) Submit(t Task) error {
	if t == nil {
		return errors.New("forkjoin: nil task")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.shutdown {
		return ErrShutdown
	}
	i := p.next.Add(1) - 1
	p.pending.Add(1)
	p.deques[i%uint64(len(p.deques))].pushBack(t)
	p.cond.Signal()
	return nil
}

// Shutdown stops accepting tasks. Already queued tasks still run.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	p.shutdown = true
	p.cond.Broadcast()
	p.mu.Unlock()
}

// AwaitTermination blocks until every worker exited after Shutdown, or timeout elapses.
// It reports whether the pool terminated.
func (p *Pool) AwaitTermination(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-p.done:
		return true
	case <-timer.C:
		return false
	}
}

// Done is closed once the pool has terminated.
func (p *Pool) Done() <-chan struct{} {
	return p.done
}

func (p *Pool) Stats() Stats {
	return Stats{
		Workers:  len(p.deques),
		Executed: p.executed.Load(),
		Stolen:   p.stolen.Load(),
		Panics:   p.panics.Load(),
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		t := p.take(id)
		if t == nil {
			return
		}
		p.run(id, t)
	}
}

func (p *Pool) run(id int, t Task) {
	defer func() {
		if r := recover(); r != nil {
			p.panics.Add(1)
			p.logger.Error("task panic", "worker", id, "panic", r, "stack", string(debug.Stack()))
		}
		p.executed.Add(1)
	}()
	t()
}

// take returns the next task for worker id, or nil when the pool is drained and shut down.
func (p *Pool) take(id int) Task {
	n := len(p.deques)
	for {
		if t := p.deques[id].popBack(); t != nil {
			p.pending.Add(-1)
			return t
		}
		for k := 1; k < n; k++ {
			if t := p.deques[(id+k)%n].popFront(); t != nil {
				p.pending.Add(-1)
				p.stolen.Add(1)
				return t
			}
		}

		p.mu.Lock()
		for p.pending.Load() == 0 && !p.shutdown {
			p.cond.Wait()
		}
		if p.pending.Load() == 0 && p.shutdown {
			p.mu.Unlock()
			return nil
		}
		p.mu.Unlock()
		// pending > 0 but the push may not have landed yet
		runtime.Gosched()
	}
}
