package types

// SMSWebhookRequest is the form payload Twilio posts to /sms.
// Twilio sends application/x-www-form-urlencoded; only the fields we act on
// are declared here.
type SMSWebhookRequest struct {
	From       string `form:"From"`
	Body       string `form:"Body"`
	MessageSid string `form:"MessageSid,optional"`
}

// HealthResponse is returned by GET / and GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// StatusResponse mirrors the door opener's status snapshot.
type StatusResponse struct {
	BrowserRunning bool   `json:"browser_running"`
	SessionValid   bool   `json:"session_valid"`
	CookiesExist   bool   `json:"cookies_exist"`
	LastCheckedAt  string `json:"last_checked_at,omitempty"`
}

// EventsRequest selects a page of audit events.
type EventsRequest struct {
	Limit int `form:"limit,optional"`
}

// Event is one audited webhook or CLI decision.
type Event struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Command   string `json:"command"`
	Outcome   string `json:"outcome"`
	Detail    string `json:"detail,omitempty"`
	CreatedAt string `json:"created_at"`
}

// EventsResponse is the audit event page returned by GET /api/v1/events.
type EventsResponse struct {
	Events []Event `json:"events"`
}
