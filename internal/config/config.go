package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/rest"
)

// LoadFromBytes loads configuration from YAML bytes with environment variable expansion.
func LoadFromBytes(data []byte) (Config, error) {
	var c Config
	expanded := os.ExpandEnv(string(data))
	if err := conf.LoadFromYamlBytes([]byte(expanded), &c); err != nil {
		return c, err
	}
	return c, nil
}

// parseBool parses a string as boolean with a default value.
// Accepts: "true", "1", "yes" as true; empty or other values return default.
func parseBool(s string, defaultVal bool) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return defaultVal
	}
	return s == "true" || s == "1" || s == "yes"
}

type Config struct {
	rest.RestConf
	Twilio struct {
		AccountSID        string `json:",optional"`
		AuthToken         string `json:",optional"`
		AllowedNumbers    string `json:",optional"`
		PublicBaseURL     string `json:",optional"`
		ValidateSignature string `json:",default=true"`
	}
	Portal struct {
		URL            string `json:",optional"`
		DoorButtonText string `json:",optional"`
	}
	Session struct {
		CookiesFile string `json:",default=cookies.json"`
	}
	Browser struct {
		Headless string `json:",default=true"`
	}
	RateLimit struct {
		MaxRequests   int `json:",default=10"`
		WindowSeconds int `json:",default=3600"`
	}
	Database struct {
		SQLitePath string `json:",default=./data/pihome.db"`
	}
	Monitor struct {
		Schedule string `json:",default=@every 30m"`
	}
}

// Validate checks the invariants the server cannot run without.
func (c Config) Validate() error {
	if c.Twilio.AuthToken == "" {
		return fmt.Errorf("TWILIO_AUTH_TOKEN is not set")
	}
	if c.Portal.URL == "" {
		return fmt.Errorf("AVIGILON_URL is not set")
	}
	if c.Portal.DoorButtonText == "" {
		return fmt.Errorf("DOOR_BUTTON_TEXT is not set")
	}
	if _, err := c.AllowedNumbers(); err != nil {
		return err
	}
	return nil
}

// AllowedNumbers parses the comma-separated allowlist into E.164 numbers.
func (c Config) AllowedNumbers() ([]string, error) {
	raw := strings.TrimSpace(c.Twilio.AllowedNumbers)
	if raw == "" {
		return nil, fmt.Errorf("ALLOWED_PHONE_NUMBERS is not set")
	}

	var numbers []string
	for _, num := range strings.Split(raw, ",") {
		num = strings.TrimSpace(num)
		if num == "" {
			continue
		}
		if !strings.HasPrefix(num, "+") {
			return nil, fmt.Errorf("phone number %s must be in E.164 format (+1234567890)", num)
		}
		if !isDigits(num[1:]) {
			return nil, fmt.Errorf("phone number %s contains invalid characters", num)
		}
		numbers = append(numbers, num)
	}
	if len(numbers) == 0 {
		return nil, fmt.Errorf("ALLOWED_PHONE_NUMBERS is empty")
	}
	return numbers, nil
}

// IsPhoneAllowed checks if a phone number is in the allowlist.
func (c Config) IsPhoneAllowed(phone string) bool {
	numbers, err := c.AllowedNumbers()
	if err != nil {
		return false
	}
	for _, n := range numbers {
		if n == phone {
			return true
		}
	}
	return false
}

// IsHeadless reports whether the door browser runs without UI.
func (c Config) IsHeadless() bool {
	return parseBool(c.Browser.Headless, true)
}

// IsSignatureValidationEnabled reports whether Twilio webhook signatures are verified.
func (c Config) IsSignatureValidationEnabled() bool {
	return parseBool(c.Twilio.ValidateSignature, true)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
