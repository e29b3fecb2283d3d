package pool

import "sync"

// Pool runs submitted jobs on a fixed set of goroutines.
type Pool struct {
	jobs   chan func()
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

func New(n int) *Pool {
	if n < 1 {
		n = 1
	}
	p := &Pool{
		jobs: make(chan func(), n*2),
	}
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer p.wg.Done()
			for f := range p.jobs {
				if f != nil {
					f()
				}
			}
		}()
	}
	return p
}

// Submit blocks until a worker slot frees up. Jobs submitted after Close are dropped.
func (p *Pool) Submit(f func()) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	p.jobs <- f
}

// TrySubmit enqueues f unless the queue is full or the pool is closed.
func (p *Pool) TrySubmit(f func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.jobs <- f:
		return true
	default:
		return false
	}
}

func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
}

func (p *Pool) Wait() {
	p.wg.Wait()
}

// Shutdown stops accepting work and waits for queued jobs to finish.
func (p *Pool) Shutdown() {
	p.Close()
	p.Wait()
}
