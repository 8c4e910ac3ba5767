// Package twilio wraps the pieces of the Twilio SDK the webhook needs:
// request signature validation and TwiML reply construction.
package twilio

import (
	"fmt"
	"net/http"
	"strings"

	twclient "github.com/twilio/twilio-go/client"
	"github.com/twilio/twilio-go/twiml"
)

// SignatureHeader is the header Twilio signs webhook requests with.
const SignatureHeader = "X-Twilio-Signature"

// Validator verifies that webhook requests were signed by Twilio.
type Validator struct {
	inner         twclient.RequestValidator
	publicBaseURL string
	enabled       bool
}

// NewValidator creates a validator for the given auth token.
// publicBaseURL, when set, overrides the scheme and host used to reconstruct
// the signed URL — required when the server sits behind a proxy or tunnel
// whose public address differs from the local listener.
func NewValidator(authToken, publicBaseURL string, enabled bool) *Validator {
	return &Validator{
		inner:         twclient.NewRequestValidator(authToken),
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		enabled:       enabled,
	}
}

// Validate checks the X-Twilio-Signature header against the request's form
// parameters. The request body must already be parsed (r.PostForm populated).
func (v *Validator) Validate(r *http.Request) error {
	if !v.enabled {
		return nil
	}

	signature := r.Header.Get(SignatureHeader)
	if signature == "" {
		return fmt.Errorf("missing %s header", SignatureHeader)
	}

	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("parse form: %w", err)
	}
	params := make(map[string]string, len(r.PostForm))
	for key := range r.PostForm {
		params[key] = r.PostForm.Get(key)
	}

	if !v.inner.Validate(v.signedURL(r), params, signature) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}

// signedURL reconstructs the URL Twilio used when computing the signature.
func (v *Validator) signedURL(r *http.Request) string {
	if v.publicBaseURL != "" {
		url := v.publicBaseURL + r.URL.Path
		if r.URL.RawQuery != "" {
			url += "?" + r.URL.RawQuery
		}
		return url
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	url := scheme + "://" + r.Host + r.URL.Path
	if r.URL.RawQuery != "" {
		url += "?" + r.URL.RawQuery
	}
	return url
}

// MessageResponse builds a TwiML document replying to an SMS with one message.
func MessageResponse(body string) (string, error) {
	doc, err := twiml.Messages([]twiml.Element{
		&twiml.MessagingMessage{Body: body},
	})
	if err != nil {
		return "", fmt.Errorf("build twiml: %w", err)
	}
	return doc, nil
}
