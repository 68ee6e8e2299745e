package cache

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pierrec/lz4/v4"
)

// File extensions for supported codecs.
const (
	jsonExtension = ".json"
	gobExtension  = ".gob"
	lz4Extension  = ".lz4"
)

// Default indentation for pretty-printed JSON snapshots.
const defaultIndent = "  "

// Codec defines how a snapshot is serialized and deserialized.
type Codec interface {
	// Encode writes the snapshot to the writer.
	Encode(w io.Writer, state any) error
	// Decode reads the snapshot from the reader.
	Decode(r io.Reader, state any) error
	// Extension returns the file extension for this codec (e.g. ".json").
	Extension() string
}

// JSONCodec implements Codec using JSON encoding with optional indentation.
type JSONCodec struct {
	// Indent specifies the indentation string. Empty string means compact JSON.
	Indent string
}

// NewJSONCodec creates a JSON codec with pretty-printing (2-space indent).
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{Indent: defaultIndent}
}

// Encode implements Codec.Encode using JSON encoding.
func (c *JSONCodec) Encode(w io.Writer, state any) error {
	encoder := json.NewEncoder(w)
	if c.Indent != "" {
		encoder.SetIndent("", c.Indent)
	}

	err := encoder.Encode(state)
	if err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode using JSON decoding.
func (c *JSONCodec) Decode(r io.Reader, state any) error {
	decoder := json.NewDecoder(r)

	err := decoder.Decode(state)
	if err != nil {
		return fmt.Errorf("json decode: %w", err)
	}

	return nil
}

// Extension implements Codec.Extension for JSON files.
func (c *JSONCodec) Extension() string {
	return jsonExtension
}

// GobCodec implements Codec using gob encoding.
type GobCodec struct{}

// NewGobCodec creates a gob codec.
func NewGobCodec() *GobCodec {
	return &GobCodec{}
}

// Encode implements Codec.Encode using gob encoding.
func (c *GobCodec) Encode(w io.Writer, state any) error {
	encoder := gob.NewEncoder(w)

	err := encoder.Encode(state)
	if err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode using gob decoding.
func (c *GobCodec) Decode(r io.Reader, state any) error {
	decoder := gob.NewDecoder(r)

	err := decoder.Decode(state)
	if err != nil {
		return fmt.Errorf("gob decode: %w", err)
	}

	return nil
}

// Extension implements Codec.Extension for gob files.
func (c *GobCodec) Extension() string {
	return gobExtension
}

// LZ4Codec wraps another codec's byte stream in the LZ4 frame format.
// History snapshots are repetitive (field names, revision prefixes) and
// compress well.
type LZ4Codec struct {
	Inner Codec
}

// NewLZ4Codec creates an LZ4 codec over gob encoding.
func NewLZ4Codec() *LZ4Codec {
	return &LZ4Codec{Inner: NewGobCodec()}
}

// Encode implements Codec.Encode, compressing the inner codec's output.
func (c *LZ4Codec) Encode(w io.Writer, state any) error {
	zw := lz4.NewWriter(w)

	err := c.Inner.Encode(zw, state)
	if err != nil {
		zw.Close()

		return fmt.Errorf("lz4 encode: %w", err)
	}

	closeErr := zw.Close()
	if closeErr != nil {
		return fmt.Errorf("lz4 flush: %w", closeErr)
	}

	return nil
}

// Decode implements Codec.Decode, decompressing before the inner codec runs.
func (c *LZ4Codec) Decode(r io.Reader, state any) error {
	err := c.Inner.Decode(lz4.NewReader(r), state)
	if err != nil {
		return fmt.Errorf("lz4 decode: %w", err)
	}

	return nil
}

// Extension implements Codec.Extension, stacking the inner extension.
func (c *LZ4Codec) Extension() string {
	return c.Inner.Extension() + lz4Extension
}

// SaveState saves the given state to a file in the specified directory.
// The filename is the basename plus the codec's extension. The write goes
// through a temp file and a rename, so a crash never leaves a torn snapshot.
func SaveState(dir, basename string, codec Codec, state any) error {
	path := filepath.Join(dir, basename+codec.Extension())

	tmp, err := os.CreateTemp(dir, basename+".tmp-*")
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}

	encodeErr := codec.Encode(tmp, state)

	closeErr := tmp.Close()

	if encodeErr != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("encode snapshot: %w", encodeErr)
	}

	if closeErr != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("close snapshot file: %w", closeErr)
	}

	renameErr := os.Rename(tmp.Name(), path)
	if renameErr != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("publish snapshot: %w", renameErr)
	}

	return nil
}

// LoadState loads state from a file in the specified directory.
// The filename is the basename plus the codec's extension.
// The state parameter must be a pointer to the target value.
func LoadState(dir, basename string, codec Codec, state any) error {
	path := filepath.Join(dir, basename+codec.Extension())

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open snapshot file: %w", err)
	}
	defer file.Close()

	decodeErr := codec.Decode(file, state)
	if decodeErr != nil {
		return fmt.Errorf("decode snapshot: %w", decodeErr)
	}

	return nil
}
