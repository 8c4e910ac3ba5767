// Package monitor runs the scheduled session-validity probe so an expired
// portal login is noticed before someone is standing at the door.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/jberusch/pi-home-server/internal/db"
	"github.com/jberusch/pi-home-server/internal/door"
)

// Monitor probes the portal on a cron schedule and records validity
// transitions to the audit log.
type Monitor struct {
	mu        sync.Mutex
	schedule  string
	opener    door.Controller
	store     *db.Store
	scheduler *cronlib.Cron

	// wasValid tracks the previous probe result so only transitions are
	// recorded, not every probe.
	wasValid  bool
	hasProbed bool
}

// New creates a monitor. schedule accepts cron expressions and @every forms.
func New(schedule string, opener door.Controller, store *db.Store) *Monitor {
	return &Monitor{
		schedule:  schedule,
		opener:    opener,
		store:     store,
		scheduler: cronlib.New(),
	}
}

// Start schedules the probe. It runs until Stop or context cancellation.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.scheduler.AddFunc(m.schedule, func() {
		m.probe(ctx)
	}); err != nil {
		return fmt.Errorf("invalid monitor schedule %q: %w", m.schedule, err)
	}
	m.scheduler.Start()

	go func() {
		<-ctx.Done()
		m.Stop()
	}()

	logx.Infof("session monitor scheduled: %s", m.schedule)
	return nil
}

// Stop halts the scheduler. Safe to call more than once.
func (m *Monitor) Stop() {
	m.scheduler.Stop()
}

func (m *Monitor) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	valid, err := m.opener.CheckSession(probeCtx)
	if err != nil {
		logx.Errorf("session probe failed: %v", err)
		return
	}

	m.mu.Lock()
	transition := !m.hasProbed || valid != m.wasValid
	m.wasValid = valid
	m.hasProbed = true
	m.mu.Unlock()

	if !transition {
		return
	}

	outcome := "session_valid"
	if !valid {
		outcome = db.OutcomeExpired
	}
	logx.Infof("session probe: %s", outcome)
	if m.store != nil {
		if _, err := m.store.RecordEvent(probeCtx, "monitor", "probe", outcome, ""); err != nil {
			logx.Errorf("failed to record probe event: %v", err)
		}
	}
}
