package svc

import (
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/jberusch/pi-home-server/internal/browser"
	"github.com/jberusch/pi-home-server/internal/config"
	"github.com/jberusch/pi-home-server/internal/db"
	"github.com/jberusch/pi-home-server/internal/door"
	"github.com/jberusch/pi-home-server/internal/ratelimit"
	"github.com/jberusch/pi-home-server/internal/twilio"
)

// ServiceContext carries the shared dependencies handlers and logic use.
type ServiceContext struct {
	Config    config.Config
	DB        *db.Store
	Cookies   *browser.CookieStore
	Door      door.Controller
	Limiter   *ratelimit.Window
	Validator *twilio.Validator
}

// NewServiceContext wires up the service dependencies from config.
func NewServiceContext(c config.Config) (*ServiceContext, error) {
	store, err := db.NewSQLite(c.Database.SQLitePath)
	if err != nil {
		return nil, err
	}

	cookies := browser.NewCookieStore(c.Session.CookiesFile)
	opener := door.NewOpener(door.Config{
		PortalURL:  c.Portal.URL,
		ButtonText: c.Portal.DoorButtonText,
		Headless:   c.IsHeadless(),
	}, cookies)

	return &ServiceContext{
		Config:  c,
		DB:      store,
		Cookies: cookies,
		Door:    opener,
		Limiter: ratelimit.NewWindow(
			c.RateLimit.MaxRequests,
			time.Duration(c.RateLimit.WindowSeconds)*time.Second,
		),
		Validator: twilio.NewValidator(
			c.Twilio.AuthToken,
			c.Twilio.PublicBaseURL,
			c.IsSignatureValidationEnabled(),
		),
	}, nil
}

// ReloadSession drops the running browser session so the next door command
// picks up a freshly written cookie file.
func (svc *ServiceContext) ReloadSession() {
	if opener, ok := svc.Door.(*door.Opener); ok {
		logx.Info("cookie file changed, reloading browser session")
		opener.ReloadCookies()
	}
}

// Close releases the service resources.
func (svc *ServiceContext) Close() {
	if opener, ok := svc.Door.(*door.Opener); ok {
		opener.Stop()
	}
	if svc.DB != nil {
		if err := svc.DB.Close(); err != nil {
			logx.Errorf("failed to close database: %v", err)
		}
	}
}
