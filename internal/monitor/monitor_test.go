package monitor

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jberusch/pi-home-server/internal/db"
	"github.com/jberusch/pi-home-server/internal/door"
)

type fakeController struct {
	valid bool
	err   error
}

func (f *fakeController) OpenDoor(ctx context.Context) (time.Time, error) {
	return time.Now(), nil
}

func (f *fakeController) CheckSession(ctx context.Context) (bool, error) {
	return f.valid, f.err
}

func (f *fakeController) Status() door.Status {
	return door.Status{SessionValid: f.valid}
}

func setupStore(t *testing.T) *db.Store {
	t.Helper()
	store, err := db.NewSQLite(filepath.Join(t.TempDir(), "pihome.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestProbeRecordsTransitionsOnly(t *testing.T) {
	store := setupStore(t)
	ctrl := &fakeController{valid: true}
	m := New("@every 30m", ctrl, store)
	ctx := context.Background()

	// First probe always records a baseline.
	m.probe(ctx)
	// Same result again: no new event.
	m.probe(ctx)
	// Session expires: transition recorded.
	ctrl.valid = false
	m.probe(ctx)
	// Still expired: no new event.
	m.probe(ctx)

	events, err := store.ListEvents(ctx, 10)
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 (baseline + expiry transition)", len(events))
	}

	outcomes := map[string]bool{}
	for _, e := range events {
		outcomes[e.Outcome] = true
	}
	if !outcomes["session_valid"] || !outcomes[db.OutcomeExpired] {
		t.Errorf("unexpected outcomes recorded: %v", outcomes)
	}
}

func TestProbeErrorDoesNotRecord(t *testing.T) {
	store := setupStore(t)
	ctrl := &fakeController{err: context.DeadlineExceeded}
	m := New("@every 30m", ctrl, store)

	m.probe(context.Background())

	events, err := store.ListEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("probe error produced %d events, want 0", len(events))
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	m := New("not a schedule", &fakeController{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := m.Start(ctx); err == nil {
		t.Error("Start accepted an invalid cron schedule")
	}
}

func TestStartAndStop(t *testing.T) {
	m := New("@every 1h", &fakeController{valid: true}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	cancel()
	// Stop again directly; must be idempotent.
	m.Stop()
}
