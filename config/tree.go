package config

import (
	"bytes"
	"encoding/json"
)

// Tree is an insertion-ordered mapping from string keys to configuration
// values. A value is nil, a scalar (string, bool or a number), a sequence
// ([]any) or a nested *Tree.
//
// Key order is the order in which keys were first set, which for decoded
// files is the order they appear in the source.
type Tree struct {
	keys   []string
	values map[string]any
}

// NewTree creates an empty tree.
func NewTree() *Tree {
	return &Tree{values: make(map[string]any)}
}

// Len returns the number of keys in the tree.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

// Keys returns the keys in insertion order.
func (t *Tree) Keys() []string {
	if t == nil {
		return nil
	}
	keys := make([]string, len(t.keys))
	copy(keys, t.keys)
	return keys
}

// Has reports whether key is present, even with a nil value.
func (t *Tree) Has(key string) bool {
	if t == nil {
		return false
	}
	_, ok := t.values[key]
	return ok
}

// Get returns the value stored under key.
func (t *Tree) Get(key string) (any, bool) {
	if t == nil {
		return nil, false
	}
	v, ok := t.values[key]
	return v, ok
}

// Set stores value under key. New keys are appended; existing keys keep
// their position.
func (t *Tree) Set(key string, value any) {
	if t.values == nil {
		t.values = make(map[string]any)
	}
	if _, ok := t.values[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.values[key] = value
}

// Delete removes key from the tree.
func (t *Tree) Delete(key string) {
	if _, ok := t.values[key]; !ok {
		return
	}
	delete(t.values, key)
	for i, k := range t.keys {
		if k == key {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			break
		}
	}
}

// Subtree returns the nested tree stored under key, or nil.
func (t *Tree) Subtree(key string) *Tree {
	v, _ := t.Get(key)
	sub, _ := v.(*Tree)
	return sub
}

// Clone returns a deep copy of the tree.
func (t *Tree) Clone() *Tree {
	if t == nil {
		return nil
	}
	out := &Tree{
		keys:   make([]string, len(t.keys)),
		values: make(map[string]any, len(t.values)),
	}
	copy(out.keys, t.keys)
	for k, v := range t.values {
		out.values[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies a configuration value.
func CloneValue(v any) any {
	switch val := v.(type) {
	case *Tree:
		return val.Clone()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = CloneValue(item)
		}
		return out
	default:
		return v
	}
}

// Map converts the tree into plain Go values: nested trees become
// map[string]any. Key order is lost.
func (t *Tree) Map() map[string]any {
	if t == nil {
		return nil
	}
	out := make(map[string]any, len(t.keys))
	for _, k := range t.keys {
		out[k] = Plain(t.values[k])
	}
	return out
}

// Plain converts a configuration value into plain Go values.
func Plain(v any) any {
	switch val := v.(type) {
	case *Tree:
		return val.Map()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Plain(item)
		}
		return out
	default:
		return v
	}
}

// MarshalJSON encodes the tree as a JSON object, keeping key order.
func (t *Tree) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range t.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(t.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// String renders the tree as JSON, for diagnostics.
func (t *Tree) String() string {
	b, err := t.MarshalJSON()
	if err != nil {
		return "<invalid tree>"
	}
	return string(b)
}

// isScalar reports whether v is neither a tree nor a sequence.
func isScalar(v any) bool {
	switch v.(type) {
	case *Tree, []any:
		return false
	}
	return true
}
