package handler

import (
	"net/http"
	"time"

	"github.com/jberusch/pi-home-server/internal/httputil"
	"github.com/jberusch/pi-home-server/internal/svc"
	"github.com/jberusch/pi-home-server/internal/types"
)

// StatusHandler reports the door session state without touching the browser.
func StatusHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := svcCtx.Door.Status()

		resp := types.StatusResponse{
			BrowserRunning: status.BrowserRunning,
			SessionValid:   status.SessionValid,
			CookiesExist:   status.CookiesExist,
		}
		if !status.LastCheckedAt.IsZero() {
			resp.LastCheckedAt = status.LastCheckedAt.Format(time.RFC3339)
		}
		httputil.OkJSON(w, resp)
	}
}
