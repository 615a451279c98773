package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/taoyuan/witty/middleware"
)

// Loader reads the fragments of a configuration category from a directory
// and merges them into one tree.
type Loader struct {
	extensions []Extension
	logger     middleware.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithExtensions replaces the supported file formats. Extensions are tried
// in the given order.
func WithExtensions(exts ...Extension) LoaderOption {
	return func(l *Loader) {
		l.extensions = exts
	}
}

// WithLogger sets the logger for load events.
func WithLogger(logger middleware.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a Loader for the default formats.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		extensions: DefaultExtensions(),
		logger:     middleware.NopLogger{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load is a shortcut for NewLoader().Load.
func Load(dir, env, category string, m Merger) (*Tree, error) {
	return NewLoader().Load(dir, env, category, m)
}

// fragment is a located configuration file.
type fragment struct {
	path string
	ext  Extension
}

// Load reads the base file of category from dir, then the "<category>.local"
// and "<category>.<env>" overrides when present, merging each override onto
// the accumulated tree with m.
//
// A missing base file yields an empty tree and any overrides are ignored.
// Missing overrides are skipped. A failing merge stops the load with a
// *LoadError naming the override file.
func (l *Loader) Load(dir, env, category string, m Merger) (*Tree, error) {
	files, err := l.findFragments(dir, env, category)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return NewTree(), nil
	}

	result, err := l.read(files[0])
	if err != nil {
		return nil, err
	}
	for _, f := range files[1:] {
		next, err := l.read(f)
		if err != nil {
			return nil, err
		}
		if err := m.Merge(result, next); err != nil {
			return nil, &LoadError{File: filepath.Base(f.path), Err: err}
		}
	}
	return result, nil
}

func (l *Loader) findFragments(dir, env, category string) ([]fragment, error) {
	names := []string{category + ".local"}
	if env != "" {
		names = append(names, category+"."+env)
	}

	base, ok, err := l.find(dir, category)
	if err != nil {
		return nil, err
	}
	if !ok {
		for _, name := range names {
			if f, found, _ := l.find(dir, name); found {
				l.logger.Warn("main config file is missing, ignoring override",
					middleware.F("category", category),
					middleware.F("file", f.path),
				)
			}
		}
		return nil, nil
	}

	files := []fragment{base}
	for _, name := range names {
		f, found, err := l.find(dir, name)
		if err != nil {
			return nil, err
		}
		if found {
			files = append(files, f)
		}
	}

	l.logger.Debug("found config files",
		middleware.F("category", category),
		middleware.F("env", env),
		middleware.F("count", len(files)),
	)
	return files, nil
}

// find tries dir/name with each known extension.
func (l *Loader) find(dir, name string) (fragment, bool, error) {
	for _, ext := range l.extensions {
		path := filepath.Join(dir, name+ext.Ext)
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fragment{}, false, err
		}
		if info.IsDir() {
			continue
		}
		return fragment{path: path, ext: ext}, true, nil
	}
	return fragment{}, false, nil
}

func (l *Loader) read(f fragment) (*Tree, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, &LoadError{File: filepath.Base(f.path), Err: err}
	}
	tree, err := f.ext.Decoder.Decode(data, f.path)
	if err != nil {
		return nil, &LoadError{File: filepath.Base(f.path), Err: err}
	}
	return tree, nil
}
