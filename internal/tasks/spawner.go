// Package tasks tracks fire-and-forget background work so it can be drained
// at shutdown without ever blocking the request path.
package tasks

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Spawner runs detached tasks with a concurrency bound. Task errors are
// logged and swallowed; callers never observe them.
type Spawner struct {
	log *logrus.Logger
	sem chan struct{}
	wg  sync.WaitGroup
}

// NewSpawner bounds concurrent tasks at limit.
func NewSpawner(limit int, log *logrus.Logger) *Spawner {
	if limit <= 0 {
		limit = 1
	}
	return &Spawner{log: log, sem: make(chan struct{}, limit)}
}

// Go launches fn on its own goroutine and returns immediately. The
// concurrency slot is acquired inside the goroutine, so a full spawner
// queues the task instead of blocking the caller.
func (s *Spawner) Go(name string, fn func(ctx context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.sem <- struct{}{}
		defer func() { <-s.sem }()
		if err := fn(context.Background()); err != nil {
			s.log.WithError(err).WithField("task", name).Error("background task failed")
		}
	}()
}

// Drain waits for in-flight tasks to finish or for ctx to expire.
func (s *Spawner) Drain(ctx context.Context) bool {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
