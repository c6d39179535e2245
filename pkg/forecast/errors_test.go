package forecast

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/solarcast/solarcast/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestErrors(t *testing.T) {
	t.Run("NetworkError Status", func(t *testing.T) {
		err := &NetworkError{StatusCode: 503}
		assert.Equal(t, "forecast service returned status 503 Service Unavailable", err.Error())
	})

	t.Run("NetworkError Transport", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := &NetworkError{Err: cause}
		assert.Equal(t, "forecast request failed: connection refused", err.Error())
		assert.ErrorIs(t, err, cause)
	})

	t.Run("ParseError Unwraps", func(t *testing.T) {
		cause := errors.New("bad json")
		err := &ParseError{Err: cause}
		assert.Equal(t, "failed to parse forecast response: bad json", err.Error())
		assert.ErrorIs(t, err, cause)
	})

	t.Run("Messages", func(t *testing.T) {
		r := types.DateRange{
			Start: civil.Date{Year: 2023, Month: time.July, Day: 5},
			End:   civil.Date{Year: 2023, Month: time.July, Day: 10},
		}
		assert.Equal(t, "End date must be after start date.", Message(r, &ValidationError{Reason: "End date must be after start date."}))
		assert.Equal(t, "No forecast data is available on or after 2023-07-05.", Message(r, ErrEmptyWindow))
		assert.Equal(t, "Error fetching data: forecast service returned status 502 Bad Gateway", Message(r, &NetworkError{StatusCode: 502}))
		assert.Equal(t, "Error fetching data: failed to parse forecast response: bad json", Message(r, &ParseError{Err: errors.New("bad json")}))
	})

	t.Run("Outcome Labels", func(t *testing.T) {
		assert.Equal(t, "success", outcomeLabel(nil))
		assert.Equal(t, "validation_error", outcomeLabel(&ValidationError{}))
		assert.Equal(t, "network_error", outcomeLabel(fmt.Errorf("wrapped: %w", &NetworkError{})))
		assert.Equal(t, "parse_error", outcomeLabel(&ParseError{}))
		assert.Equal(t, "empty_window", outcomeLabel(ErrEmptyWindow))
		assert.Equal(t, "error", outcomeLabel(errors.New("other")))
	})
}
