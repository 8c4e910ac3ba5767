package handler

import (
	"net/http"
	"time"

	"github.com/jberusch/pi-home-server/internal/httputil"
	"github.com/jberusch/pi-home-server/internal/svc"
	"github.com/jberusch/pi-home-server/internal/types"
)

// EventsHandler returns the most recent audit events, newest first.
func EventsHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.EventsRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}

		events, err := svcCtx.DB.ListEvents(r.Context(), req.Limit)
		if err != nil {
			httputil.InternalError(w, err.Error())
			return
		}

		resp := types.EventsResponse{Events: make([]types.Event, 0, len(events))}
		for _, ev := range events {
			resp.Events = append(resp.Events, types.Event{
				ID:        ev.ID,
				From:      ev.Sender,
				Command:   ev.Command,
				Outcome:   ev.Outcome,
				Detail:    ev.Detail,
				CreatedAt: ev.CreatedAt.Format(time.RFC3339),
			})
		}
		httputil.OkJSON(w, resp)
	}
}
