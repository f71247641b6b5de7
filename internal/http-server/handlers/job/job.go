package job

import (
	"time"
)

// Job is one unit of deferred work: announcing winners, publishing a
// root, sweeping sessions.
type Job interface {
	Execute()
}

// Queue carries jobs to the worker pool. Handlers hold the queue they
// were wired with; there is no shared package state.
type Queue chan Job

func NewQueue(size int) Queue {
	return make(Queue, size)
}

// Dispatch enqueues the job after the given delay without blocking
// the caller.
func (q Queue) Dispatch(job Job, delay time.Duration) {
	go func() {
		if delay > 0 {
			<-time.After(delay)
		}
		q <- job
	}()
}

// WorkerPool drains its queue with a fixed set of workers. The pool
// owns the queue's consuming side; producers only Dispatch.
type WorkerPool struct {
	queue   Queue
	workers int
}

func NewWorkerPool(size int, queue Queue) *WorkerPool {
	return &WorkerPool{
		queue:   queue,
		workers: size,
	}
}

func (p *WorkerPool) Start() {
	for i := 0; i < p.workers; i++ {
		go func() {
			for job := range p.queue {
				job.Execute()
			}
		}()
	}
}
