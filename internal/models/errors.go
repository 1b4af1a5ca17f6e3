package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingValue marks a required order field that was empty, null or absent.
var ErrMissingValue = errors.New("missing value")

// ConfigError reports configuration keys that must be set before an analysis can run.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration incomplete: missing %s", strings.Join(e.Missing, ", "))
}

// MalformedRecordError identifies an order whose numeric field could not be parsed or was missing.
type MalformedRecordError struct {
	OrderID int64
	Field   string
	Value   string
	Err     error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("order %d: malformed %s %q: %v", e.OrderID, e.Field, e.Value, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}
