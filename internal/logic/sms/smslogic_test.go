package sms

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jberusch/pi-home-server/internal/config"
	"github.com/jberusch/pi-home-server/internal/db"
	"github.com/jberusch/pi-home-server/internal/door"
	"github.com/jberusch/pi-home-server/internal/ratelimit"
	"github.com/jberusch/pi-home-server/internal/svc"
	"github.com/jberusch/pi-home-server/internal/types"
)

type fakeDoor struct {
	openedAt time.Time
	openErr  error
	status   door.Status
	opens    int
}

func (f *fakeDoor) OpenDoor(ctx context.Context) (time.Time, error) {
	f.opens++
	return f.openedAt, f.openErr
}

func (f *fakeDoor) CheckSession(ctx context.Context) (bool, error) {
	return f.status.SessionValid, nil
}

func (f *fakeDoor) Status() door.Status {
	return f.status
}

func newTestSvcCtx(t *testing.T, d door.Controller) *svc.ServiceContext {
	t.Helper()

	store, err := db.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	var c config.Config
	c.Twilio.AllowedNumbers = "+15551234567,+15559876543"
	c.RateLimit.MaxRequests = 10
	c.RateLimit.WindowSeconds = 3600

	return &svc.ServiceContext{
		Config:  c,
		DB:      store,
		Door:    d,
		Limiter: ratelimit.NewWindow(10, time.Hour),
	}
}

func TestDoorCommandOpensDoor(t *testing.T) {
	fd := &fakeDoor{openedAt: time.Date(2025, 6, 1, 14, 5, 0, 0, time.Local)}
	svcCtx := newTestSvcCtx(t, fd)
	l := NewSMSLogic(context.Background(), svcCtx)

	reply, err := l.Handle(&types.SMSWebhookRequest{From: "+15551234567", Body: "door"})
	require.NoError(t, err)

	assert.False(t, reply.Silent)
	assert.Equal(t, "Door opened at 2:05PM", reply.Message)
	assert.Equal(t, 1, fd.opens)

	events, err := svcCtx.DB.ListEvents(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, db.OutcomeOpened, events[0].Outcome)
	assert.Equal(t, "+15551234567", events[0].Sender)
}

func TestDoorCommandNormalizesBody(t *testing.T) {
	fd := &fakeDoor{openedAt: time.Now()}
	l := NewSMSLogic(context.Background(), newTestSvcCtx(t, fd))

	reply, err := l.Handle(&types.SMSWebhookRequest{From: "+15551234567", Body: "  DOOR \n"})
	require.NoError(t, err)

	assert.Contains(t, reply.Message, "Door opened at")
	assert.Equal(t, 1, fd.opens)
}

func TestDoorCommandSessionExpired(t *testing.T) {
	fd := &fakeDoor{openErr: door.ErrSessionExpired}
	svcCtx := newTestSvcCtx(t, fd)
	l := NewSMSLogic(context.Background(), svcCtx)

	reply, err := l.Handle(&types.SMSWebhookRequest{From: "+15551234567", Body: "door"})
	require.NoError(t, err)

	assert.Equal(t, "Session expired. Re-authenticate on Pi.", reply.Message)

	events, err := svcCtx.DB.ListEvents(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, db.OutcomeExpired, events[0].Outcome)
}

func TestDoorCommandFailure(t *testing.T) {
	fd := &fakeDoor{openErr: errors.New("navigation timeout")}
	l := NewSMSLogic(context.Background(), newTestSvcCtx(t, fd))

	reply, err := l.Handle(&types.SMSWebhookRequest{From: "+15551234567", Body: "door"})
	require.NoError(t, err)

	assert.Equal(t, "Failed to open door. Try again or check session.", reply.Message)
}

func TestStatusCommand(t *testing.T) {
	tests := []struct {
		name   string
		status door.Status
		want   string
	}{
		{"session active", door.Status{SessionValid: true, CookiesExist: true}, "Server online. Session active."},
		{"session maybe expired", door.Status{CookiesExist: true}, "Server online. Session may be expired."},
		{"no session", door.Status{}, "Server online. No session found."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fd := &fakeDoor{status: tt.status}
			l := NewSMSLogic(context.Background(), newTestSvcCtx(t, fd))

			reply, err := l.Handle(&types.SMSWebhookRequest{From: "+15551234567", Body: "status"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, reply.Message)
		})
	}
}

func TestUnknownCommand(t *testing.T) {
	fd := &fakeDoor{}
	l := NewSMSLogic(context.Background(), newTestSvcCtx(t, fd))

	reply, err := l.Handle(&types.SMSWebhookRequest{From: "+15551234567", Body: "open sesame"})
	require.NoError(t, err)

	assert.Equal(t, "Unknown command. Send 'door' to open.", reply.Message)
	assert.Equal(t, 0, fd.opens)
}

func TestUnauthorizedSenderIsSilent(t *testing.T) {
	fd := &fakeDoor{}
	svcCtx := newTestSvcCtx(t, fd)
	l := NewSMSLogic(context.Background(), svcCtx)

	reply, err := l.Handle(&types.SMSWebhookRequest{From: "+19995550000", Body: "door"})
	require.NoError(t, err)

	assert.True(t, reply.Silent)
	assert.Empty(t, reply.Message)
	assert.Equal(t, 0, fd.opens)

	events, err := svcCtx.DB.ListEvents(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, db.OutcomeUnauthorized, events[0].Outcome)
}

func TestRateLimitReply(t *testing.T) {
	fd := &fakeDoor{status: door.Status{SessionValid: true}}
	svcCtx := newTestSvcCtx(t, fd)
	svcCtx.Limiter = ratelimit.NewWindow(2, time.Hour)
	l := NewSMSLogic(context.Background(), svcCtx)

	req := &types.SMSWebhookRequest{From: "+15551234567", Body: "status"}
	for i := 0; i < 2; i++ {
		reply, err := l.Handle(req)
		require.NoError(t, err)
		assert.False(t, reply.Silent)
	}

	reply, err := l.Handle(req)
	require.NoError(t, err)
	assert.Equal(t, "Rate limit exceeded. Max 2 requests per hour.", reply.Message)
}

func TestRateLimitIsPerSender(t *testing.T) {
	fd := &fakeDoor{status: door.Status{SessionValid: true}}
	svcCtx := newTestSvcCtx(t, fd)
	svcCtx.Limiter = ratelimit.NewWindow(1, time.Hour)
	l := NewSMSLogic(context.Background(), svcCtx)

	_, err := l.Handle(&types.SMSWebhookRequest{From: "+15551234567", Body: "status"})
	require.NoError(t, err)

	reply, err := l.Handle(&types.SMSWebhookRequest{From: "+15559876543", Body: "status"})
	require.NoError(t, err)
	assert.NotContains(t, reply.Message, "Rate limit")
}
