package results

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Well-known record fields.
const (
	FieldMachine     = "machine"
	FieldDate        = "date"
	FieldInitialTime = "initial_time"
	FieldComputeTime = "compute_time"
	FieldTestResult  = "test_result"
)

// FieldTotalTime names the derived initial+compute sum. It never occurs in
// stored records.
const FieldTotalTime = "total_time"

// Record is one configuration's decoded benchmark output, tagged with the
// name of the file it came from.
type Record struct {
	File   string           `json:"file"`
	Fields map[string]Value `json:"fields"`
}

// DecodeRecord parses a flat JSON object, keeping only primitive-valued
// fields. Nested objects, arrays and nulls are dropped silently. A missing
// or null test_result is normalized to pass in a single fill step.
func DecodeRecord(data []byte) (Record, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var raw map[string]any

	err := decoder.Decode(&raw)
	if err != nil {
		return Record{}, fmt.Errorf("decoding record: %w", err)
	}

	fields := make(map[string]Value, len(raw))

	for name, rawValue := range raw {
		value := valueOf(rawValue)
		if value.IsPrimitive() {
			fields[name] = value
		}
	}

	if _, ok := fields[FieldTestResult]; !ok {
		fields[FieldTestResult] = Bool(true)
	}

	return Record{Fields: fields}, nil
}

// Timestamp parses the record's date field. ok is false when the field is
// absent, non-string, or not a recognizable timestamp.
func (r Record) Timestamp() (ts time.Time, ok bool) {
	value, present := r.Fields[FieldDate]
	if !present || value.Kind != KindString {
		return time.Time{}, false
	}

	ts, err := ParseTimestamp(value.Str)
	if err != nil {
		return time.Time{}, false
	}

	return ts, true
}

// Float returns the named field as a number, or 0 when the field is absent
// or not numeric. The zero default matches how timing columns are read for
// charting: a missing timing is a zero-length run, not an error.
func (r Record) Float(name string) float64 {
	value, ok := r.Fields[name]
	if !ok {
		return 0
	}

	num, isNumber := value.Float()
	if !isNumber {
		return 0
	}

	return num
}

// TestPassed reports the record's pass/fail flag. Anything but an explicit
// boolean false counts as a pass.
func (r Record) TestPassed() bool {
	value, ok := r.Fields[FieldTestResult]
	if !ok || value.Kind != KindBool {
		return true
	}

	return value.Bool
}

// timestampLayouts are the date formats seen in result files: RFC 3339, a
// zoneless variant, and a bare date.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateOnly,
}

// ParseTimestamp parses a result-file timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		ts, err := time.Parse(layout, s)
		if err == nil {
			return ts, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
