// Package render presents benchmark data: current records as terminal
// tables, revision histories as echarts HTML pages, and either as JSON or
// YAML for scripting.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	jsonIndent = "  "
	yamlIndent = 2
)

// Format selects an output encoding for records and histories.
type Format string

// Accepted output formats.
const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ErrUnknownFormat reports an output format outside the accepted set.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat maps a user-supplied format name onto a [Format]. Matching is
// case-insensitive and ignores surrounding whitespace.
func ParseFormat(name string) (Format, error) {
	format := Format(strings.ToLower(strings.TrimSpace(name)))

	switch format {
	case FormatTable, FormatJSON, FormatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", jsonIndent)

	err := encoder.Encode(v)
	if err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}

	return nil
}

// WriteYAML writes v as a YAML document.
func WriteYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(yamlIndent)

	encodeErr := encoder.Encode(v)
	closeErr := encoder.Close()

	if encodeErr != nil {
		return fmt.Errorf("encoding yaml: %w", encodeErr)
	}

	if closeErr != nil {
		return fmt.Errorf("closing yaml encoder: %w", closeErr)
	}

	return nil
}
