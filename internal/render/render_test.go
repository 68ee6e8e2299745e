package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numpex/exa-di-g5k-dashboard/internal/results"
)

func TestParseFormat_Known(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"table", "json", "yaml", "JSON", " yaml "} {
		format, err := ParseFormat(name)

		require.NoError(t, err, name)
		assert.NotEmpty(t, format, name)
	}
}

func TestParseFormat_Unknown(t *testing.T) {
	t.Parallel()

	_, err := ParseFormat("xml")

	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestWriteJSON_Indented(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	err := WriteJSON(&buf, map[string]string{"application": "cg"})

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "\n"+jsonIndent+"\"application\": \"cg\"")
}

func TestWriteJSON_EncodeError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	err := WriteJSON(&buf, make(chan int))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "encoding json")
}

func TestWriteYAML_Record(t *testing.T) {
	t.Parallel()

	record := results.Record{
		File: "strong_scaling.json",
		Fields: map[string]results.Value{
			results.FieldInitialTime: results.Number(1.25),
			results.FieldTestResult:  results.Bool(true),
		},
	}

	var buf bytes.Buffer

	err := WriteYAML(&buf, record)
	require.NoError(t, err)

	out := buf.String()

	assert.Contains(t, out, "file: strong_scaling.json")
	assert.Contains(t, out, "initial_time: 1.25")
	assert.Contains(t, out, "test_result: true")
}

func TestWriteJSON_RecordRoundTrip(t *testing.T) {
	t.Parallel()

	record := results.Record{
		File: "weak_scaling.json",
		Fields: map[string]results.Value{
			results.FieldMachine:     results.String("grisou"),
			results.FieldComputeTime: results.Number(40.5),
		},
	}

	var buf bytes.Buffer

	err := WriteJSON(&buf, record)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"machine": "grisou"`)
	assert.Contains(t, buf.String(), `"compute_time": 40.5`)
}
