package wreckit

import "context"

// WorkerPool bounds the number of items driven at the same time.
type WorkerPool struct {
	sem chan struct{}
}

// NewWorkerPool creates a pool with size slots. Sizes below one mean one.
func NewWorkerPool(size int) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	return &WorkerPool{
		sem: make(chan struct{}, size),
	}
}

// Acquire blocks until a slot is free or ctx ends.
func (p *WorkerPool) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot to the pool.
func (p *WorkerPool) Release() {
	<-p.sem
}
