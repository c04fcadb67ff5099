package config

import (
	"net/url"
	"strings"
)

const redacted = "***REDACTED***"

// SecretString holds a value that must not reach logs or config dumps, such
// as a database URL with credentials. fmt and encoding/json see a
// placeholder; Unmask returns the real value for the driver.
type SecretString string

func (s SecretString) String() string   { return redacted }
func (s SecretString) GoString() string { return redacted }

// MarshalJSON always encodes the placeholder.
func (s SecretString) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

// Unmask returns the raw value.
func (s SecretString) Unmask() string {
	return string(s)
}

// Redacted returns the value with any URL password masked, for startup logs.
// Plain paths such as sqlite files are returned unchanged. Anything that
// cannot be shown safely collapses to the placeholder.
func (s SecretString) Redacted() string {
	u, err := url.Parse(string(s))
	if err != nil {
		return redacted
	}
	if u.User != nil {
		u.RawQuery = ""
		return u.Redacted()
	}
	if strings.Contains(strings.ToLower(string(s)), "password") {
		return redacted
	}
	return string(s)
}
