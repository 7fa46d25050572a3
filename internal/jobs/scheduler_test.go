// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/v2m3u/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

type fakeRefresh struct {
	calls atomic.Int32
	ran   chan struct{}
	err   error
}

func newFakeRefresh() *fakeRefresh {
	return &fakeRefresh{ran: make(chan struct{}, 16)}
}

func (f *fakeRefresh) run(_ context.Context, _ config.AppConfig) (*Status, error) {
	n := f.calls.Add(1)
	f.ran <- struct{}{}
	if f.err != nil {
		return nil, f.err
	}
	return &Status{RunID: string(rune('a' + n - 1)), Channels: int(n)}, nil
}

func waitRun(t *testing.T, f *fakeRefresh) {
	t.Helper()
	select {
	case <-f.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not run")
	}
}

func startScheduler(t *testing.T, s *Scheduler) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Run(ctx)
	}()
	return func() {
		stop()
		wg.Wait()
	}
}

func TestScheduler_InitialRunAndTrigger(t *testing.T) {
	f := newFakeRefresh()
	cfg := config.Defaults()
	cfg.Server.RefreshInterval = 0
	s := NewScheduler(f.run, func() config.AppConfig { return cfg })

	stop := startScheduler(t, s)
	defer stop()

	waitRun(t, f)
	require.Eventually(t, func() bool { return s.Last() != nil && !s.Running() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, s.Last().Channels)

	assert.True(t, s.Trigger())
	waitRun(t, f)
	require.Eventually(t, func() bool { return s.Last().Channels == 2 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_Periodic(t *testing.T) {
	f := newFakeRefresh()
	cfg := config.Defaults()
	cfg.Server.RefreshInterval = 10 * time.Millisecond
	s := NewScheduler(f.run, func() config.AppConfig { return cfg })

	stop := startScheduler(t, s)
	for range 3 {
		waitRun(t, f)
	}
	stop()
	assert.GreaterOrEqual(t, f.calls.Load(), int32(3))
}

func TestScheduler_TriggerCoalesces(t *testing.T) {
	s := NewScheduler(newFakeRefresh().run, config.Defaults)

	assert.True(t, s.Trigger())
	assert.False(t, s.Trigger())
}

func TestScheduler_RecordsFailure(t *testing.T) {
	f := newFakeRefresh()
	f.err = errors.New("boom")
	cfg := config.Defaults()
	cfg.Server.RefreshInterval = 0
	s := NewScheduler(f.run, func() config.AppConfig { return cfg })

	stop := startScheduler(t, s)
	defer stop()

	waitRun(t, f)
	require.Eventually(t, func() bool { return s.Last() != nil }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "boom", s.Last().Error)
}

func TestScheduler_StopsOnCancel(t *testing.T) {
	f := newFakeRefresh()
	cfg := config.Defaults()
	s := NewScheduler(f.run, func() config.AppConfig { return cfg })

	stop := startScheduler(t, s)
	waitRun(t, f)
	stop()
}
