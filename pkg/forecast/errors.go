package forecast

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/solarcast/solarcast/pkg/types"
)

// ErrEmptyWindow is returned when no forecast point falls on or after the
// requested start date.
var ErrEmptyWindow = errors.New("no forecast data on or after the start date")

// ValidationError is returned when a date range cannot be predicted. No request
// is sent to the forecast service.
type ValidationError struct {
	Range  types.DateRange
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NetworkError is returned when the forecast service could not be reached or
// responded with a non-2xx status. StatusCode is zero for transport failures.
type NetworkError struct {
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		msg := fmt.Sprintf("forecast service returned status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
		if e.Err != nil {
			msg += ": " + e.Err.Error()
		}
		return msg
	}
	return fmt.Sprintf("forecast request failed: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ParseError is returned when the forecast service responded with a payload that
// is not a forecast table.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse forecast response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Message returns the text shown to users when predicting r failed with err.
func Message(r types.DateRange, err error) string {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		return vErr.Reason
	case errors.Is(err, ErrEmptyWindow):
		return fmt.Sprintf("No forecast data is available on or after %s.", r.Start)
	default:
		return fmt.Sprintf("Error fetching data: %v", err)
	}
}

// outcomeLabel classifies err for metrics.
func outcomeLabel(err error) string {
	var (
		vErr *ValidationError
		nErr *NetworkError
		pErr *ParseError
	)
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &vErr):
		return "validation_error"
	case errors.As(err, &nErr):
		return "network_error"
	case errors.As(err, &pErr):
		return "parse_error"
	case errors.Is(err, ErrEmptyWindow):
		return "empty_window"
	default:
		return "error"
	}
}
