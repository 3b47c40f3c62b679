package connectivity

import (
	"context"
	"sync/atomic"
	"time"

	"tasksync/pkg/logger"
)

// Monitor polls remote reachability and fires the sync trigger on the
// offline → online edge, never on steady online. It also fires once at start
// when the remote is reachable and work is queued, so a restart with a
// backlog does not wait for the first flap.
type Monitor struct {
	probe    func(ctx context.Context) error
	pending  func() int
	onOnline func(ctx context.Context)
	interval time.Duration
	online   atomic.Bool
}

// New builds a monitor. probe reports reachability, pending the queue size,
// onOnline is the sync trigger.
func New(probe func(ctx context.Context) error, pending func() int,
	onOnline func(ctx context.Context), interval time.Duration) *Monitor {
	return &Monitor{
		probe:    probe,
		pending:  pending,
		onOnline: onOnline,
		interval: interval,
	}
}

// Run blocks until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	m.online.Store(m.probe(ctx) == nil)
	if m.online.Load() && m.pending() > 0 {
		logger.Info(ctx, "Online at start with queued work, triggering sync",
			"pending", m.pending())
		m.onOnline(ctx)
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check performs one reachability check and fires the trigger on the
// offline → online transition.
func (m *Monitor) Check(ctx context.Context) {
	online := m.probe(ctx) == nil
	wasOnline := m.online.Swap(online)

	if online && !wasOnline {
		logger.Info(ctx, "Connectivity restored")
		m.onOnline(ctx)
	} else if !online && wasOnline {
		logger.Info(ctx, "Connectivity lost")
	}
}

// Online reports the last observed reachability. Safe to call from outside
// the Run goroutine.
func (m *Monitor) Online() bool {
	return m.online.Load()
}
