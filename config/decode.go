package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Decoder turns the contents of a configuration file into a Tree.
type Decoder interface {
	Decode(data []byte, filename string) (*Tree, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(data []byte, filename string) (*Tree, error)

// Decode calls f(data, filename).
func (f DecoderFunc) Decode(data []byte, filename string) (*Tree, error) {
	return f(data, filename)
}

// Extension is a file extension bound to its decoder. Lists of extensions are
// tried in order when looking up a fragment.
type Extension struct {
	Ext     string
	Decoder Decoder
}

// DefaultExtensions returns the supported file formats in lookup order.
func DefaultExtensions() []Extension {
	return []Extension{
		{Ext: ".json", Decoder: JSONDecoder{}},
		{Ext: ".yaml", Decoder: YAMLDecoder{}},
		{Ext: ".yml", Decoder: YAMLDecoder{}},
		{Ext: ".hcl", Decoder: HCLDecoder{}},
	}
}

// DecodeFile reads and decodes a file, choosing the decoder by extension.
func DecodeFile(path string) (*Tree, error) {
	ext := filepath.Ext(path)
	for _, e := range DefaultExtensions() {
		if e.Ext == ext {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, err
			}
			return e.Decoder.Decode(data, path)
		}
	}
	return nil, fmt.Errorf("%s: unsupported config format %q", path, ext)
}

// JSONDecoder decodes JSON objects, keeping the key order of the document.
type JSONDecoder struct{}

// Decode implements Decoder.
func (JSONDecoder) Decode(data []byte, filename string) (*Tree, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return NewTree(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%s: top level must be an object", filename)
	}

	tree, err := decodeJSONObject(dec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: unexpected data after top-level object", filename)
	}
	return tree, nil
}

// decodeJSONObject reads object members after the opening brace.
func decodeJSONObject(dec *json.Decoder) (*Tree, error) {
	tree := NewTree()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key must be a string, got %v", tok)
		}
		value, err := decodeJSONValue(dec)
		if err != nil {
			return nil, err
		}
		tree.Set(key, value)
	}
	// closing brace
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return tree, nil
}

func decodeJSONArray(dec *json.Decoder) ([]any, error) {
	items := make([]any, 0)
	for dec.More() {
		v, err := decodeJSONValue(dec)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return items, nil
}

func decodeJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return decodeJSONObject(dec)
		case '[':
			return decodeJSONArray(dec)
		}
		return nil, fmt.Errorf("unexpected delimiter %v", v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), nil
		}
		return v.Float64()
	default:
		// string, bool or nil
		return v, nil
	}
}
