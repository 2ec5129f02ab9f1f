package rollup

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingService is returned when a grid is built without an AggregationService.
	ErrMissingService = errors.New("rollup: aggregation service not configured")
	// ErrTileNotFound is returned for indexes outside the materialized slots.
	ErrTileNotFound = errors.New("rollup: tile not materialized")
	// ErrGridClosed is returned by operations invoked after Close.
	ErrGridClosed = errors.New("rollup: grid closed")
	// ErrInstanceNotFound is returned when a page has no grid with the requested id.
	ErrInstanceNotFound = errors.New("rollup: instance not found")
)

// Tile-facing messages.
const (
	MessageTimeout         = "Loading this rollup timed out after 15 seconds. Try refreshing."
	MessageNoData          = "No data returned."
	MessageUnexpectedError = "Unexpected error while loading rollup."
	messageRenderPrefix    = "Unexpected error while rendering rollups"
)

// ErrorKind classifies why a tile ended up in the error state.
type ErrorKind int

const (
	ErrorNone ErrorKind = iota
	ErrorConfiguration
	ErrorBusiness
	ErrorTimeout
	ErrorTransport
	ErrorRender
)

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	switch k {
	case ErrorConfiguration:
		return "configuration"
	case ErrorBusiness:
		return "business"
	case ErrorTimeout:
		return "timeout"
	case ErrorTransport:
		return "transport"
	case ErrorRender:
		return "render"
	default:
		return "none"
	}
}

// MarshalJSON encodes the kind by name.
func (k ErrorKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind name; unknown names decode as ErrorNone.
func (k *ErrorKind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*k = ErrorNone
	for _, candidate := range []ErrorKind{ErrorConfiguration, ErrorBusiness, ErrorTimeout, ErrorTransport, ErrorRender} {
		if candidate.String() == name {
			*k = candidate
			break
		}
	}
	return nil
}

// ServiceError is a structured failure reported by a remote Aggregation Service.
type ServiceError struct {
	Status  int
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("rollup: aggregation service error %d: %s", e.Status, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("rollup: aggregation service error %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("rollup: aggregation service error %d", e.Status)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// ErrorMessage extracts the most specific message available from err: a
// structured service message, then the error text, then a fixed fallback.
func ErrorMessage(err error) string {
	if err == nil {
		return MessageUnexpectedError
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && strings.TrimSpace(svcErr.Message) != "" {
		return svcErr.Message
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return MessageUnexpectedError
}

func renderErrorMessage(recovered any) string {
	if recovered == nil {
		return messageRenderPrefix + "."
	}
	return fmt.Sprintf("%s: %v", messageRenderPrefix, recovered)
}
