package resolver

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/taoyuan/witty/middleware"
)

// resolvePath finds p by existence, then module lookup, then the module
// roots.
func (r *Resolver) resolvePath(rootDir, p string) (string, error) {
	root := absDir(rootDir)

	var full string
	moduleRelative := false
	switch {
	case filepath.IsAbs(p):
		full = filepath.Clean(p)
	case strings.HasPrefix(p, "./") || strings.HasPrefix(p, ".."):
		full = filepath.Join(root, p)
	case !r.strict:
		moduleRelative = true
		full = filepath.Join(root, p)
	}

	if full != "" {
		// Directories count: a module may be a directory.
		if r.exists(full) {
			return full, nil
		}
		if found, ok := r.lookup(full); ok {
			return found, nil
		}
		if !moduleRelative {
			r.logger.Debug("skipping path", middleware.F("path", full))
			return "", &PathError{Path: p, Root: rootDir}
		}
	}

	for _, dir := range r.moduleRoots(root) {
		candidate := filepath.Join(dir, p)
		if found, ok := r.lookup(candidate); ok {
			if !r.fullResolve {
				return candidate, nil
			}
			return found, nil
		}
		if r.exists(candidate) {
			return candidate, nil
		}
	}

	r.logger.Debug("skipping path: module not found", middleware.F("path", p))
	return "", &PathError{Path: p, Root: rootDir}
}

// lookup applies module resolution to p: p itself, p<ext> for each script
// and data extension, then p/index<ext>.
func (r *Resolver) lookup(p string) (string, bool) {
	if r.isFile(p) {
		return p, true
	}
	exts := r.allExts()
	for _, ext := range exts {
		if ext != "" && r.isFile(p+ext) {
			return p + ext, true
		}
	}
	for _, ext := range exts {
		index := filepath.Join(p, "index"+ext)
		if r.isFile(index) {
			return index, true
		}
	}
	return "", false
}

// moduleRoots lists the global paths followed by <dir>/<modulesDir> for
// root and every ancestor.
func (r *Resolver) moduleRoots(root string) []string {
	roots := slices.Clone(r.globalPaths)
	for dir := root; ; {
		if filepath.Base(dir) != r.modulesDir {
			roots = append(roots, filepath.Join(dir, r.modulesDir))
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return roots
}

// fixExtension replaces a data file, or a directory, with the first sibling
// script sharing its base name.
func (r *Resolver) fixExtension(p string) (string, bool) {
	ext := filepath.Ext(p)
	isDir := r.isDir(p)
	if !isDir && r.isScript(ext) {
		return p, true
	}

	base := filepath.Base(p)
	if r.isData(ext) {
		base = strings.TrimSuffix(base, ext)
	}
	dir := filepath.Dir(p)

	entries, err := r.fs.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		other := filepath.Ext(name)
		if other == "" || r.isData(other) || !r.isScript(other) {
			continue
		}
		if strings.TrimSuffix(name, other) == base {
			return filepath.Join(dir, name), true
		}
	}
	return "", false
}

func (r *Resolver) allExts() []string {
	return append(slices.Clone(r.scriptExts), r.dataExts...)
}

func (r *Resolver) isScript(ext string) bool {
	return slices.Contains(r.scriptExts, ext) && !r.isData(ext)
}

func (r *Resolver) isData(ext string) bool {
	return ext != "" && slices.Contains(r.dataExts, ext)
}

func (r *Resolver) exists(p string) bool {
	_, err := r.fs.Stat(p)
	return err == nil
}

func (r *Resolver) isFile(p string) bool {
	info, err := r.fs.Stat(p)
	return err == nil && !info.IsDir()
}

func (r *Resolver) isDir(p string) bool {
	info, err := r.fs.Stat(p)
	return err == nil && info.IsDir()
}
