package sms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/jberusch/pi-home-server/internal/db"
	"github.com/jberusch/pi-home-server/internal/door"
	"github.com/jberusch/pi-home-server/internal/svc"
	"github.com/jberusch/pi-home-server/internal/types"
)

// Reply is the outcome of processing one inbound SMS.
type Reply struct {
	// Message is the TwiML reply body. Empty when Silent.
	Message string
	// Silent means respond with an empty 200 and no TwiML: the sender is
	// not on the allowlist and must not learn the server exists.
	Silent bool
}

type SMSLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewSMSLogic(ctx context.Context, svcCtx *svc.ServiceContext) *SMSLogic {
	return &SMSLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Handle runs the webhook pipeline for an already signature-verified message:
// allowlist, rate limit, then command dispatch.
func (l *SMSLogic) Handle(req *types.SMSWebhookRequest) (Reply, error) {
	l.Infof("received SMS from %s: %s", req.From, req.Body)

	if !l.svcCtx.Config.IsPhoneAllowed(req.From) {
		l.Infof("unauthorized phone number: %s", req.From)
		l.record(req.From, req.Body, db.OutcomeUnauthorized, "")
		return Reply{Silent: true}, nil
	}

	if !l.svcCtx.Limiter.Allow(req.From) {
		l.Infof("rate limit exceeded for %s", req.From)
		l.record(req.From, req.Body, db.OutcomeRateLimited, "")
		return Reply{Message: fmt.Sprintf(
			"Rate limit exceeded. Max %d requests per hour.",
			l.svcCtx.Limiter.Max(),
		)}, nil
	}
	l.Infof("%s has %d requests left this window", req.From, l.svcCtx.Limiter.Remaining(req.From))

	command := strings.ToLower(strings.TrimSpace(req.Body))
	switch command {
	case "door":
		return l.handleDoor(req.From), nil
	case "status":
		return l.handleStatus(req.From), nil
	default:
		l.Infof("unknown command from %s: %s", req.From, command)
		l.record(req.From, command, db.OutcomeUnknown, "")
		return Reply{Message: "Unknown command. Send 'door' to open."}, nil
	}
}

func (l *SMSLogic) handleDoor(from string) Reply {
	l.Infof("processing 'door' command from %s", from)

	openedAt, err := l.svcCtx.Door.OpenDoor(l.ctx)
	switch {
	case err == nil:
		l.Infof("door opened for %s", from)
		l.record(from, "door", db.OutcomeOpened, "")
		return Reply{Message: fmt.Sprintf("Door opened at %s", openedAt.Format("3:04PM"))}
	case errors.Is(err, door.ErrSessionExpired):
		l.Errorf("door open failed: %v", err)
		l.record(from, "door", db.OutcomeExpired, err.Error())
		return Reply{Message: "Session expired. Re-authenticate on Pi."}
	default:
		l.Errorf("door open failed: %v", err)
		l.record(from, "door", db.OutcomeFailed, err.Error())
		return Reply{Message: "Failed to open door. Try again or check session."}
	}
}

func (l *SMSLogic) handleStatus(from string) Reply {
	l.Infof("processing 'status' command from %s", from)

	status := l.svcCtx.Door.Status()
	l.record(from, "status", db.OutcomeStatus, "")

	switch {
	case status.SessionValid:
		return Reply{Message: "Server online. Session active."}
	case status.CookiesExist:
		return Reply{Message: "Server online. Session may be expired."}
	default:
		return Reply{Message: "Server online. No session found."}
	}
}

func (l *SMSLogic) record(sender, command, outcome, detail string) {
	if l.svcCtx.DB == nil {
		return
	}
	if _, err := l.svcCtx.DB.RecordEvent(l.ctx, sender, command, outcome, detail); err != nil {
		l.Errorf("failed to record event: %v", err)
	}
}
