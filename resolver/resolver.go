package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/taoyuan/witty/middleware"
)

// Default option values.
const (
	DefaultModulesDir = "witty_modules"
	PathEnv           = "WITTY_PATH"
)

// Location is a resolved middleware reference.
type Location struct {
	// SourceFile is the module to load.
	SourceFile string
	// Fragment names an export of the module, or is empty.
	Fragment string
}

// String renders the location in reference syntax.
func (l Location) String() string {
	if l.Fragment == "" {
		return l.SourceFile
	}
	return l.SourceFile + "#" + l.Fragment
}

// ExportChecker reports whether the module at sourceFile exports a function
// named name. Modules that cannot be loaded export nothing.
type ExportChecker interface {
	HasExport(sourceFile, name string) bool
}

// Resolver resolves middleware references. It is safe for concurrent use
// once configured.
type Resolver struct {
	fs          FileSystem
	exports     ExportChecker
	modulesDir  string
	globalPaths []string
	scriptExts  []string
	dataExts    []string
	strict      bool
	fullResolve bool
	logger      middleware.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithExportChecker sets how fragment exports are detected. Without one,
// every fragment is treated as a sub-module name.
func WithExportChecker(c ExportChecker) Option {
	return func(r *Resolver) {
		r.exports = c
	}
}

// WithModulesDir sets the directory name searched in the root and its
// ancestors. Default: witty_modules.
func WithModulesDir(name string) Option {
	return func(r *Resolver) {
		r.modulesDir = name
	}
}

// WithGlobalPaths sets the module roots searched before the ancestor walk.
// Default: the entries of WITTY_PATH.
func WithGlobalPaths(paths ...string) Option {
	return func(r *Resolver) {
		r.globalPaths = paths
	}
}

// WithScriptExts sets the extensions of loadable modules. The empty string
// stands for extension-less modules. Default: ".go" and "".
func WithScriptExts(exts ...string) Option {
	return func(r *Resolver) {
		r.scriptExts = exts
	}
}

// WithDataExts sets the extensions of data-only files, which are replaced by
// a sibling script when one exists. Default: .json .yaml .yml .hcl.
func WithDataExts(exts ...string) Option {
	return func(r *Resolver) {
		r.dataExts = exts
	}
}

// WithStrict controls whether bare identifiers are only searched in module
// roots (true, the default) or first tried relative to the root.
func WithStrict(strict bool) Option {
	return func(r *Resolver) {
		r.strict = strict
	}
}

// WithFullResolve controls whether a module found in a module root resolves
// to its entry file (true) or to the module path itself (false, the default).
func WithFullResolve(full bool) Option {
	return func(r *Resolver) {
		r.fullResolve = full
	}
}

// WithLogger sets the logger for skipped candidates.
func WithLogger(l middleware.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// New creates a Resolver over fsys. A nil fsys means the local disk.
func New(fsys FileSystem, opts ...Option) *Resolver {
	if fsys == nil {
		fsys = OS()
	}
	r := &Resolver{
		fs:          fsys,
		modulesDir:  DefaultModulesDir,
		globalPaths: filepath.SplitList(os.Getenv(PathEnv)),
		scriptExts:  []string{".go", ""},
		dataExts:    []string{".json", ".yaml", ".yml", ".hcl"},
		strict:      true,
		logger:      middleware.NopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve resolves reference against rootDir.
//
// Without a fragment the result is the module's source file. With one, the
// fragment is kept if the module exports it; otherwise it names a
// sub-module, tried as <path>/server/middleware/<fragment> and then
// <path>/middleware/<fragment>. When nothing matches, the error of the
// first candidate is returned. A reference may carry at most one fragment.
func (r *Resolver) Resolve(rootDir, reference string) (Location, error) {
	pathName, fragment, _ := strings.Cut(reference, "#")
	if strings.Contains(fragment, "#") {
		return Location{}, fmt.Errorf("%w %q: more than one fragment", ErrInvalidReference, reference)
	}

	modulePath := pathName
	if isRelative(pathName) {
		modulePath = filepath.Join(absDir(rootDir), pathName)
	}

	var first error
	sourceFile, err := r.ResolveScript(rootDir, pathName)
	if err == nil {
		if fragment == "" {
			return Location{SourceFile: sourceFile}, nil
		}
		if r.exports != nil && r.exports.HasExport(sourceFile, fragment) {
			return Location{SourceFile: sourceFile, Fragment: fragment}, nil
		}
	} else {
		if fragment == "" {
			return Location{}, err
		}
		first = err
	}

	candidates := []string{
		modulePath + "/server/middleware/" + fragment,
		modulePath + "/middleware/" + fragment,
	}
	for _, candidate := range candidates {
		sourceFile, err := r.ResolveScript(rootDir, candidate)
		if err == nil {
			return Location{SourceFile: sourceFile}, nil
		}
		r.logger.Debug("skipping middleware candidate", middleware.F("path", candidate))
		if first == nil {
			first = err
		}
	}
	return Location{}, first
}

// ResolveScript resolves p to a loadable file. A data-file match is
// replaced by a sibling script with the same base name when there is one.
func (r *Resolver) ResolveScript(rootDir, p string) (string, error) {
	resolved, err := r.resolvePath(rootDir, p)
	if err != nil {
		return "", err
	}
	if fixed, ok := r.fixExtension(resolved); ok {
		return fixed, nil
	}
	return resolved, nil
}

func isRelative(p string) bool {
	return strings.HasPrefix(p, "./") || strings.HasPrefix(p, "../")
}

func absDir(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return filepath.Clean(dir)
	}
	return abs
}
