// Package registry holds the Go modules middleware references resolve to.
//
// A module is any Go value mounted at an absolute virtual path. The registry
// is a read-only file system over those paths, so a resolver can search it,
// and a loader that returns the mounted value for a resolved path.
package registry

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"
)

// Exports is a module whose named exports are looked up by key.
type Exports map[string]any

// Registry maps virtual paths to module values. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]any
	dirs    map[string]map[string]bool
	exts    []string
}

// Option configures a Registry.
type Option func(*Registry)

// WithExtensions sets the extensions tried when loading a path that has no
// module mounted at it. Default: ".go".
func WithExtensions(exts ...string) Option {
	return func(r *Registry) {
		r.exts = exts
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		modules: make(map[string]any),
		dirs:    map[string]map[string]bool{"/": {}},
		exts:    []string{".go"},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Mount registers module at name, an absolute slash-separated path.
// Mounting over a module, a directory, or below a module fails.
func (r *Registry) Mount(name string, module any) error {
	if module == nil {
		return fmt.Errorf("registry: nil module for %q", name)
	}
	p, err := clean(name)
	if err != nil {
		return err
	}
	if p == "/" {
		return fmt.Errorf("registry: cannot mount at root")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.modules[p]; ok {
		return fmt.Errorf("registry: %q is already mounted", p)
	}
	if _, ok := r.dirs[p]; ok {
		return fmt.Errorf("registry: %q is a directory", p)
	}
	for dir := path.Dir(p); dir != "/"; dir = path.Dir(dir) {
		if _, ok := r.modules[dir]; ok {
			return fmt.Errorf("registry: %q is below module %q", p, dir)
		}
	}

	r.modules[p] = module
	for child := p; child != "/"; child = path.Dir(child) {
		parent := path.Dir(child)
		if r.dirs[parent] == nil {
			r.dirs[parent] = make(map[string]bool)
		}
		r.dirs[parent][path.Base(child)] = true
	}
	return nil
}

// MustMount is like Mount but panics on error.
func (r *Registry) MustMount(name string, module any) {
	if err := r.Mount(name, module); err != nil {
		panic(err)
	}
}

// Load returns the module for sourceFile: the module mounted at it, else
// at sourceFile<ext>, else at sourceFile/index or sourceFile/index<ext>.
func (r *Registry) Load(sourceFile string) (any, error) {
	p, err := clean(sourceFile)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	candidates := []string{p}
	for _, ext := range r.exts {
		candidates = append(candidates, p+ext)
	}
	candidates = append(candidates, path.Join(p, "index"))
	for _, ext := range r.exts {
		candidates = append(candidates, path.Join(p, "index"+ext))
	}
	for _, c := range candidates {
		if m, ok := r.modules[c]; ok {
			return m, nil
		}
	}
	return nil, fmt.Errorf("registry: no module at %q: %w", sourceFile, fs.ErrNotExist)
}

// HasExport reports whether the module at sourceFile exports a function
// named name.
func (r *Registry) HasExport(sourceFile, name string) bool {
	m, err := r.Load(sourceFile)
	if err != nil {
		return false
	}
	v, ok := Export(m, name)
	if !ok || v == nil {
		return false
	}
	return reflect.TypeOf(v).Kind() == reflect.Func
}

// Paths returns the mounted paths in sorted order.
func (r *Registry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paths := make([]string, 0, len(r.modules))
	for p := range r.modules {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Stat implements resolver.FileSystem. Mounted modules are files, their
// parents directories.
func (r *Registry) Stat(name string) (fs.FileInfo, error) {
	p, err := clean(name)
	if err != nil {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.modules[p]; ok {
		return entry{name: path.Base(p)}, nil
	}
	if _, ok := r.dirs[p]; ok {
		return entry{name: path.Base(p), dir: true}, nil
	}
	return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
}

// ReadDir implements resolver.FileSystem.
func (r *Registry) ReadDir(name string) ([]fs.DirEntry, error) {
	p, err := clean(name)
	if err != nil {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	children, ok := r.dirs[p]
	if !ok {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}
	entries := make([]fs.DirEntry, 0, len(children))
	for child := range children {
		_, isModule := r.modules[path.Join(p, child)]
		entries = append(entries, entry{name: child, dir: !isModule})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

// Export looks up name on module. Exports maps are indexed directly; other
// values are searched for a method called name, then for one with name's
// first letter upper-cased. Methods come back bound to module.
func Export(module any, name string) (any, bool) {
	if name == "" || module == nil {
		return nil, false
	}
	if exports, ok := module.(Exports); ok {
		v, ok := exports[name]
		return v, ok
	}

	v := reflect.ValueOf(module)
	for _, candidate := range []string{name, capitalize(name)} {
		if m := v.MethodByName(candidate); m.IsValid() {
			return m.Interface(), true
		}
	}
	return nil, false
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

func clean(name string) (string, error) {
	p := filepath.ToSlash(name)
	if !strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("registry: path %q is not absolute", name)
	}
	return path.Clean(p), nil
}

// entry is both the FileInfo and the DirEntry of a virtual path.
type entry struct {
	name string
	dir  bool
}

func (e entry) Name() string { return e.name }
func (e entry) Size() int64  { return 0 }
func (e entry) Mode() fs.FileMode {
	if e.dir {
		return fs.ModeDir | 0o555
	}
	return 0o444
}
func (e entry) ModTime() time.Time         { return time.Time{} }
func (e entry) IsDir() bool                { return e.dir }
func (e entry) Sys() any                   { return nil }
func (e entry) Type() fs.FileMode          { return e.Mode().Type() }
func (e entry) Info() (fs.FileInfo, error) { return e, nil }
