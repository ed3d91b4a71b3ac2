package api

import (
	"fmt"
	"net/url"
	"strconv"
)

// ValidateSensorURL checks that raw points at a sensor endpoint: an http(s)
// URL whose query identifies the sensor by a numeric id.
func ValidateSensorURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("missing sensor url")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid sensor url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid scheme: %s", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("missing host")
	}

	id := u.Query().Get("id")
	if id == "" {
		return fmt.Errorf("missing sensor id")
	}
	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		return fmt.Errorf("invalid sensor id: %s", id)
	}

	return nil
}
