package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/jberusch/pi-home-server/internal/httputil"
	"github.com/jberusch/pi-home-server/internal/logic/sms"
	"github.com/jberusch/pi-home-server/internal/svc"
	"github.com/jberusch/pi-home-server/internal/twilio"
	"github.com/jberusch/pi-home-server/internal/types"
)

// SMSHandler receives Twilio's inbound message webhook and replies with TwiML.
func SMSHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svcCtx.Validator.Validate(r); err != nil {
			logx.WithContext(r.Context()).Errorf("webhook signature rejected: %v", err)
			httputil.Forbidden(w, "invalid signature")
			return
		}

		var req types.SMSWebhookRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}

		reply, err := sms.NewSMSLogic(r.Context(), svcCtx).Handle(&req)
		if err != nil {
			httputil.InternalError(w, err.Error())
			return
		}
		if reply.Silent {
			httputil.OkEmpty(w)
			return
		}

		twiml, err := twilio.MessageResponse(reply.Message)
		if err != nil {
			httputil.InternalError(w, err.Error())
			return
		}
		httputil.OkXML(w, twiml)
	}
}
