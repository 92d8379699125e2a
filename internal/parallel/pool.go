// Package parallel provides the fixed-size worker pool that frame graph
// record tasks run on.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool is a fixed set of goroutines executing submitted tasks.
//
// Each worker owns a queue. A worker whose queue is empty steals from the
// others, so a pass that stalls in a synchronous device call only holds up
// its own worker.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers    int
	workQueues []chan func()
	done       chan struct{}
	wg         sync.WaitGroup
	running    atomic.Bool

	// wake nudges idle workers to look for work to steal.
	wake chan struct{}

	// next selects the queue for Submit round-robin.
	next atomic.Uint32
}

// NewWorkerPool starts a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := workers * 4
	if queueSize < 8 {
		queueSize = 8
	}

	p := &WorkerPool{
		workers:    workers,
		workQueues: make([]chan func(), workers),
		done:       make(chan struct{}),
		wake:       make(chan struct{}, workers),
	}
	for i := range workers {
		p.workQueues[i] = make(chan func(), queueSize)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	own := p.workQueues[id]
	for {
		select {
		case <-p.done:
			p.drain(own)
			return
		case task := <-own:
			run(task)
		default:
			if stolen := p.steal(id); stolen != nil {
				run(stolen)
				continue
			}
			select {
			case <-p.done:
				p.drain(own)
				return
			case task := <-own:
				run(task)
			case <-p.wake:
			}
		}
	}
}

func run(task func()) {
	if task != nil {
		task()
	}
}

// drain executes everything left in queue without blocking.
func (p *WorkerPool) drain(queue chan func()) {
	for {
		select {
		case task := <-queue:
			run(task)
		default:
			return
		}
	}
}

// steal takes one task from another worker's queue, or returns nil.
func (p *WorkerPool) steal(self int) func() {
	for i := range p.workers {
		if i == self {
			continue
		}
		select {
		case task := <-p.workQueues[i]:
			return task
		default:
		}
	}
	return nil
}

// Submit queues fn on the next worker in round-robin order. It blocks
// while that worker's queue is full. Submit on a closed pool is a no-op
// and reports false.
func (p *WorkerPool) Submit(fn func()) bool {
	if fn == nil || !p.running.Load() {
		return false
	}
	idx := int(p.next.Add(1)-1) % p.workers
	select {
	case p.workQueues[idx] <- fn:
		select {
		case p.wake <- struct{}{}:
		default:
		}
		return true
	case <-p.done:
		return false
	}
}

// ExecuteAll runs every function in work and waits for all of them.
func (p *WorkerPool) ExecuteAll(work []func()) {
	if len(work) == 0 || !p.running.Load() {
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(work))
	for _, fn := range work {
		if !p.Submit(func() {
			defer wg.Done()
			fn()
		}) {
			wg.Done()
		}
	}
	wg.Wait()
}

// Close stops accepting work, runs what is queued, and stops the workers.
// Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool accepts work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
