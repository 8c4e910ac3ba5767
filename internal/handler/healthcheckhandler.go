package handler

import (
	"net/http"

	"github.com/jberusch/pi-home-server/internal/httputil"
	"github.com/jberusch/pi-home-server/internal/svc"
	"github.com/jberusch/pi-home-server/internal/types"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

func HealthCheckHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.OkJSON(w, types.HealthResponse{
			Status:  "online",
			Service: "pi-home-server",
			Version: Version,
		})
	}
}
