// Package results models benchmark result records and loads the current
// records of an application's configurations. Records are flat JSON objects;
// only primitive-valued fields (number, string, boolean) survive decoding.
package results

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind discriminates the primitive value kinds a record field may hold.
type Kind int

// Value kinds. KindOther marks anything the pipeline discards: nested
// objects, arrays, and nulls.
const (
	KindNumber Kind = iota
	KindString
	KindBool
	KindOther
)

// Value is a tagged union over the primitive JSON kinds.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
	Bool bool
}

// Number wraps a float64 as a [Value].
func Number(v float64) Value {
	return Value{Kind: KindNumber, Num: v}
}

// String wraps a string as a [Value].
func String(v string) Value {
	return Value{Kind: KindString, Str: v}
}

// Bool wraps a bool as a [Value].
func Bool(v bool) Value {
	return Value{Kind: KindBool, Bool: v}
}

// IsPrimitive reports whether the value is one of the kinds records keep.
func (v Value) IsPrimitive() bool {
	return v.Kind != KindOther
}

// Float returns the numeric value and whether the value is a number.
func (v Value) Float() (float64, bool) {
	return v.Num, v.Kind == KindNumber
}

// Display renders the value for tables and diagnostics.
func (v Value) Display() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindString:
		return v.Str
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindOther:
		return ""
	default:
		return ""
	}
}

// MarshalJSON writes the value back as the primitive it wraps.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		return json.Marshal(v.Num)
	case KindString:
		return json.Marshal(v.Str)
	case KindBool:
		return json.Marshal(v.Bool)
	case KindOther:
		return []byte("null"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes any JSON value, tagging non-primitives as KindOther.
func (v *Value) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var raw any

	err := decoder.Decode(&raw)
	if err != nil {
		return fmt.Errorf("decoding value: %w", err)
	}

	*v = valueOf(raw)

	return nil
}

// MarshalYAML writes the value as the primitive it wraps.
func (v Value) MarshalYAML() (any, error) {
	switch v.Kind {
	case KindNumber:
		return v.Num, nil
	case KindString:
		return v.Str, nil
	case KindBool:
		return v.Bool, nil
	case KindOther:
		return nil, nil
	default:
		return nil, nil
	}
}

// valueOf tags a decoded JSON value. json.Number keeps integer precision out
// of the decoder; anything unparseable or structured becomes KindOther.
func valueOf(raw any) Value {
	switch typed := raw.(type) {
	case json.Number:
		f, err := typed.Float64()
		if err != nil {
			return Value{Kind: KindOther}
		}

		return Number(f)
	case float64:
		return Number(typed)
	case string:
		return String(typed)
	case bool:
		return Bool(typed)
	default:
		return Value{Kind: KindOther}
	}
}
