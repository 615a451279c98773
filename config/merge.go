package config

import "fmt"

// MergeInto deep-merges fragment into target in place.
//
// For every key of fragment the value already in target decides what is
// accepted:
//
//   - nil or absent: any value is accepted and stored
//   - sequence: a sequence of the same length, merged element by element
//   - tree: a tree, merged recursively
//   - scalar: a scalar or nil, which replaces it
//
// keyPrefix is prepended to key paths in errors. The first incompatibility
// stops the merge and is returned as a *MergeError; keys merged before it
// stay merged.
func MergeInto(target, fragment *Tree, keyPrefix string) error {
	for _, key := range fragment.Keys() {
		incoming, _ := fragment.Get(key)
		current, _ := target.Get(key)
		merged, err := mergeValue(current, incoming, joinKey(keyPrefix, key))
		if err != nil {
			return err
		}
		target.Set(key, merged)
	}
	return nil
}

// mergeValue merges incoming onto current and returns the value to store.
func mergeValue(current, incoming any, fullKey string) (any, error) {
	// A hole in the target accepts anything, whatever the merge strategy.
	if current == nil {
		return CloneValue(incoming), nil
	}

	switch cur := current.(type) {
	case []any:
		in, ok := incoming.([]any)
		if !ok {
			return nil, &MergeError{Kind: ErrIncompatibleType, Path: fullKey}
		}
		if len(cur) != len(in) {
			return nil, &MergeError{Kind: ErrLengthMismatch, Path: fullKey}
		}
		for i := range cur {
			v, err := mergeValue(cur[i], in[i], fmt.Sprintf("%s[%d]", fullKey, i))
			if err != nil {
				return nil, err
			}
			cur[i] = v
		}
		return cur, nil

	case *Tree:
		in, ok := incoming.(*Tree)
		if !ok {
			return nil, &MergeError{Kind: ErrIncompatibleType, Path: fullKey}
		}
		if err := MergeInto(cur, in, fullKey); err != nil {
			return nil, err
		}
		return cur, nil

	default:
		if !isScalar(incoming) {
			return nil, &MergeError{Kind: ErrIncompatibleType, Path: fullKey}
		}
		return incoming, nil
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
