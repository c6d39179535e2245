package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/solarcast/solarcast/pkg/log"
	"github.com/solarcast/solarcast/pkg/types"
)

const (
	timestampColumn = "ds"
	valueColumn     = "yhat"

	// timestamps outside of ±2^63 nanoseconds cannot be represented and are
	// treated like any other unparseable timestamp
	maxEpochMillis = float64(math.MaxInt64 / int64(time.Millisecond))

	// values must round up to an int64
	maxValue = float64(1 << 63)
)

// rawRow is a single table row before its cells are parsed.
type rawRow struct {
	ds   json.RawMessage
	yhat json.RawMessage
}

// DecodeSeries parses a forecast service response body.
//
// The service serializes its table to JSON and then returns that document as a
// JSON string, so a string body is decoded a second time. The table may be laid
// out as records ([{"ds":..,"yhat":..}]), columns ({"ds":{"0":..},"yhat":{"0":..}})
// or index ({"0":{"ds":..,"yhat":..}}).
//
// Rows whose ds cannot be parsed as epoch milliseconds are kept with Valid set
// to false. Rows without a numeric yhat, or with one beyond the int64 range, are
// dropped. A non-empty table where no row has a ds, or no row has a yhat, is a
// *ParseError in every layout.
func DecodeSeries(ctx context.Context, body []byte) (types.ForecastSeries, error) {
	data := bytes.TrimSpace(body)
	if len(data) > 0 && data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return nil, &ParseError{Err: fmt.Errorf("failed to decode outer document: %w", err)}
		}
		data = bytes.TrimSpace([]byte(inner))
	}
	if len(data) == 0 {
		return nil, &ParseError{Err: errors.New("empty response")}
	}

	var (
		rows []rawRow
		err  error
	)
	switch data[0] {
	case '[':
		rows, err = decodeRecords(data)
	case '{':
		rows, err = decodeTable(data)
	default:
		err = fmt.Errorf("unexpected payload starting with %q", data[0])
	}
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	series := make(types.ForecastSeries, 0, len(rows))
	var invalidTimestamps, droppedValues int
	for _, row := range rows {
		value, ok := parseValue(row.yhat)
		if !ok {
			droppedValues++
			continue
		}
		ts, ok := parseTimestamp(row.ds)
		if !ok {
			invalidTimestamps++
		}
		series = append(series, types.ForecastPoint{
			Timestamp: ts,
			Valid:     ok,
			Value:     value,
		})
	}

	if droppedValues > 0 {
		log.Ctx(ctx).WarnContext(ctx, "dropped forecast rows without a value", slog.Int("count", droppedValues))
	}
	if invalidTimestamps > 0 {
		log.Ctx(ctx).WarnContext(ctx, "forecast rows with invalid timestamps", slog.Int("count", invalidTimestamps))
	}
	return series, nil
}

func decodeRecords(data []byte) ([]rawRow, error) {
	var records []map[string]json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	rows := make([]rawRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, rawRow{ds: rec[timestampColumn], yhat: rec[valueColumn]})
	}
	if err := checkColumns(rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// checkColumns fails when a non-empty table has no row carrying ds or no row
// carrying yhat, matching a missing column in the columns layout.
func checkColumns(rows []rawRow) error {
	if len(rows) == 0 {
		return nil
	}
	var hasDS, hasYhat bool
	for _, row := range rows {
		hasDS = hasDS || row.ds != nil
		hasYhat = hasYhat || row.yhat != nil
	}
	if !hasDS {
		return fmt.Errorf("missing %s column", timestampColumn)
	}
	if !hasYhat {
		return fmt.Errorf("missing %s column", valueColumn)
	}
	return nil
}

// decodeTable handles both the columns and index layouts, which share the same
// shape of an object of objects.
func decodeTable(data []byte) ([]rawRow, error) {
	var table map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to decode table: %w", err)
	}

	dsCol, hasDS := table[timestampColumn]
	yhatCol, hasYhat := table[valueColumn]
	if hasDS || hasYhat {
		if !hasDS {
			return nil, fmt.Errorf("missing %s column", timestampColumn)
		}
		if !hasYhat {
			return nil, fmt.Errorf("missing %s column", valueColumn)
		}
		keys := indexKeys(dsCol, yhatCol)
		rows := make([]rawRow, 0, len(keys))
		for _, k := range keys {
			rows = append(rows, rawRow{ds: dsCol[k], yhat: yhatCol[k]})
		}
		return rows, nil
	}

	keys := indexKeys(table)
	rows := make([]rawRow, 0, len(keys))
	for _, k := range keys {
		rec := table[k]
		rows = append(rows, rawRow{ds: rec[timestampColumn], yhat: rec[valueColumn]})
	}
	if err := checkColumns(rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// indexKeys returns the union of the row keys of the given maps ordered by
// their numeric value. Non-numeric keys sort after numeric ones.
func indexKeys[V any](maps ...map[string]V) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, m := range maps {
		for k := range m {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.ParseInt(keys[i], 10, 64)
		b, errB := strconv.ParseInt(keys[j], 10, 64)
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

// parseNumber accepts a JSON number or a JSON string holding a number.
func parseNumber(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseTimestamp(raw json.RawMessage) (time.Time, bool) {
	ms, ok := parseNumber(raw)
	if !ok || math.Abs(ms) > maxEpochMillis {
		return time.Time{}, false
	}
	return time.Unix(0, int64(ms*float64(time.Millisecond))).UTC(), true
}

// parseValue rejects values whose ceiling does not fit in an int64.
func parseValue(raw json.RawMessage) (float64, bool) {
	v, ok := parseNumber(raw)
	if !ok || math.Abs(v) >= maxValue {
		return 0, false
	}
	return v, true
}
