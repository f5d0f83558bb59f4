package collector

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrValidation    = errors.New("validation error")
	ErrUpstream      = errors.New("upstream error")
	ErrStorage       = errors.New("storage error")
)

// Wrap builds an error message that includes collection context while
// tagging it with the provided marker for later classification. The marker
// should be one of the exported sentinel errors above.
func Wrap(marker error, channel, operation, message string, err error) error {
	detail := buildDetail(channel, operation, message)
	if marker == nil {
		marker = ErrUpstream
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(channel, operation, message string) string {
	parts := make([]string, 0, 3)
	if channel = strings.TrimSpace(channel); channel != "" {
		parts = append(parts, channel)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "collection failure"
	}
	return strings.Join(parts, ": ")
}
