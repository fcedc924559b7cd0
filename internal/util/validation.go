package util

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInvalidUUID is returned when a value is not an RFC 4122 UUID.
	ErrInvalidUUID = errors.New("invalid uuid")
	// ErrInvalidURL indicates that a URL failed validation.
	ErrInvalidURL = errors.New("invalid url")
)

// ParseUUID parses and validates a UUID string. Any RFC 4122 version is
// accepted; producers emit v4 but the queue contract only requires a UUID.
func ParseUUID(value string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return uuid.UUID{}, fmt.Errorf("%w: value is empty", ErrInvalidUUID)
	}

	u, err := uuid.Parse(trimmed)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("%w: %v", ErrInvalidUUID, err)
	}

	return u, nil
}

// ValidateHTTPURL ensures the provided string is a valid HTTP or HTTPS URL
// with a host, returning the trimmed value.
func ValidateHTTPURL(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("%w: value is empty", ErrInvalidURL)
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: host is required", ErrInvalidURL)
	}

	return strings.TrimRight(trimmed, "/"), nil
}
