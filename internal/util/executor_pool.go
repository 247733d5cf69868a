package util

import "sync"

// ExecutorPool runs submitted tasks on a fixed number of goroutines
type ExecutorPool struct {
	tasks   chan any
	handler func(task any)
	wg      sync.WaitGroup
	once    sync.Once
}

// NewExecutorPool starts workers goroutines reading from a queue of queueSize tasks
func NewExecutorPool(workers, queueSize int, handler func(task any)) *ExecutorPool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	p := &ExecutorPool{
		tasks:   make(chan any, queueSize),
		handler: handler,
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer p.wg.Done()
			for task := range p.tasks {
				p.handler(task)
			}
		}()
	}
	return p
}

// Submit queues a task, blocking while the queue is full
func (p *ExecutorPool) Submit(task any) {
	p.tasks <- task
}

// Close stops accepting tasks and waits for the queued ones to finish
func (p *ExecutorPool) Close() {
	p.once.Do(func() {
		close(p.tasks)
	})
	p.wg.Wait()
}
