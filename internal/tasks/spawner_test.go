package tasks

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestSpawnerRunsTasksAndDrains(t *testing.T) {
	s := NewSpawner(4, newTestLogger())

	var ran int32
	for i := 0; i < 10; i++ {
		s.Go("count", func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.True(t, s.Drain(ctx))
	assert.Equal(t, int32(10), atomic.LoadInt32(&ran))
}

func TestSpawnerSwallowsErrors(t *testing.T) {
	s := NewSpawner(1, newTestLogger())

	s.Go("failing", func(ctx context.Context) error {
		return errors.New("queue unavailable")
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.True(t, s.Drain(ctx))
}

func TestSpawnerNeverBlocksCaller(t *testing.T) {
	s := NewSpawner(1, newTestLogger())

	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	s.Go("hold-slot", func(ctx context.Context) error {
		wg.Done()
		<-release
		return nil
	})
	wg.Wait()

	// The slot is taken; Go must still return immediately.
	done := make(chan struct{})
	go func() {
		s.Go("queued", func(ctx context.Context) error { return nil })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Go blocked while the spawner was full")
	}

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.True(t, s.Drain(ctx))
}

func TestSpawnerDrainTimesOut(t *testing.T) {
	s := NewSpawner(1, newTestLogger())

	release := make(chan struct{})
	s.Go("slow", func(ctx context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.False(t, s.Drain(ctx))
	close(release)
}
