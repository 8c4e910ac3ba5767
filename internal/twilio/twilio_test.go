package twilio

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
)

// twilioSign computes the signature Twilio would send: base64 HMAC-SHA1 over
// the URL with sorted form parameters appended.
func twilioSign(authToken, reqURL string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	payload := reqURL
	for _, k := range keys {
		payload += k + params.Get(k)
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestValidateAcceptsSignedRequest(t *testing.T) {
	const authToken = "test-auth-token"
	v := NewValidator(authToken, "https://pi.example.com", true)

	form := url.Values{}
	form.Set("From", "+15551234567")
	form.Set("Body", "door")

	r := httptest.NewRequest("POST", "/sms", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.Header.Set(SignatureHeader, twilioSign(authToken, "https://pi.example.com/sms", form))

	if err := v.Validate(r); err != nil {
		t.Errorf("Validate rejected a correctly signed request: %v", err)
	}
}

func TestValidateRejectsBadSignature(t *testing.T) {
	v := NewValidator("test-auth-token", "https://pi.example.com", true)

	form := url.Values{}
	form.Set("From", "+15551234567")
	form.Set("Body", "door")

	r := httptest.NewRequest("POST", "/sms", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.Header.Set(SignatureHeader, "bogus")

	if err := v.Validate(r); err == nil {
		t.Error("Validate accepted a forged signature")
	}
}

func TestValidateRejectsMissingHeader(t *testing.T) {
	v := NewValidator("test-auth-token", "", true)

	r := httptest.NewRequest("POST", "/sms", nil)
	if err := v.Validate(r); err == nil {
		t.Error("Validate accepted a request with no signature header")
	}
}

func TestValidateDisabled(t *testing.T) {
	v := NewValidator("test-auth-token", "", false)

	r := httptest.NewRequest("POST", "/sms", nil)
	if err := v.Validate(r); err != nil {
		t.Errorf("disabled validator rejected request: %v", err)
	}
}

func TestMessageResponse(t *testing.T) {
	doc, err := MessageResponse("Door opened at 3:04PM")
	if err != nil {
		t.Fatalf("MessageResponse failed: %v", err)
	}
	if !strings.Contains(doc, "<Response>") {
		t.Errorf("missing <Response> wrapper: %s", doc)
	}
	if !strings.Contains(doc, "Door opened at 3:04PM") {
		t.Errorf("missing message body: %s", doc)
	}
}

func TestMessageResponseEscapesXML(t *testing.T) {
	doc, err := MessageResponse(`Unknown command. Send 'door' to open.`)
	if err != nil {
		t.Fatalf("MessageResponse failed: %v", err)
	}
	if !strings.Contains(doc, "Unknown command") {
		t.Errorf("body not rendered: %s", doc)
	}
}
