package config

// Merger applies one decoded fragment onto the accumulated configuration.
type Merger interface {
	Merge(target, fragment *Tree) error
}

// MergerFunc adapts a function to the Merger interface.
type MergerFunc func(target, fragment *Tree) error

// Merge calls f(target, fragment).
func (f MergerFunc) Merge(target, fragment *Tree) error {
	return f(target, fragment)
}

// AppMerger merges application settings. Keys missing from the target are
// filled in; existing keys must keep their kind.
type AppMerger struct{}

// Merge implements Merger.
func (AppMerger) Merge(target, fragment *Tree) error {
	return MergeInto(target, fragment, "")
}

// MiddlewareMerger merges middleware configuration. The top two levels are
// closed: every phase of the fragment must exist in the target, and every
// middleware of a phase must exist in that phase of the target. Middleware
// values are then merged with MergeInto rules.
type MiddlewareMerger struct{}

// Merge implements Merger.
func (MiddlewareMerger) Merge(target, fragment *Tree) error {
	for _, phase := range fragment.Keys() {
		if !target.Has(phase) {
			return &UndefinedError{Phase: phase}
		}
		if err := mergePhase(target, fragment, phase); err != nil {
			return err
		}
	}
	return nil
}

func mergePhase(target, fragment *Tree, phase string) error {
	incoming, _ := fragment.Get(phase)
	current, _ := target.Get(phase)

	in, ok := incoming.(*Tree)
	if !ok {
		if incoming == nil {
			return nil
		}
		return &MergeError{Kind: ErrIncompatibleType, Path: phase}
	}
	cur, ok := current.(*Tree)
	if !ok {
		// A phase declared empty (null) accepts no middleware.
		if in.Len() == 0 {
			return nil
		}
		return &UndefinedError{Phase: phase, Middleware: in.Keys()[0]}
	}

	for _, name := range in.Keys() {
		if !cur.Has(name) {
			return &UndefinedError{Phase: phase, Middleware: name}
		}
		value, _ := in.Get(name)
		existing, _ := cur.Get(name)
		merged, err := mergeValue(existing, value, joinKey(phase, name))
		if err != nil {
			return err
		}
		cur.Set(name, merged)
	}
	return nil
}
