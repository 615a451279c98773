package resolver

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// FileSystem is the namespace references are resolved in. Names are
// absolute, OS-style paths.
type FileSystem interface {
	Stat(name string) (fs.FileInfo, error)
	ReadDir(name string) ([]fs.DirEntry, error)
}

type osFS struct{}

// OS returns the FileSystem backed by the local disk.
func OS() FileSystem {
	return osFS{}
}

func (osFS) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}

func (osFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return os.ReadDir(name)
}

type ioFS struct {
	fsys fs.FS
}

// FromFS adapts fsys to a FileSystem. The absolute name "/a/b" maps to
// "a/b" inside fsys.
func FromFS(fsys fs.FS) FileSystem {
	return ioFS{fsys: fsys}
}

func (f ioFS) Stat(name string) (fs.FileInfo, error) {
	return fs.Stat(f.fsys, fsName(name))
}

func (f ioFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return fs.ReadDir(f.fsys, fsName(name))
}

func fsName(name string) string {
	name = strings.TrimPrefix(path.Clean(filepath.ToSlash(name)), "/")
	if name == "" {
		return "."
	}
	return name
}

type unionFS []FileSystem

// Union layers file systems. Stat returns the first hit; ReadDir merges the
// listings, earlier layers shadowing later ones.
func Union(layers ...FileSystem) FileSystem {
	return unionFS(layers)
}

func (u unionFS) Stat(name string) (fs.FileInfo, error) {
	var first error
	for _, layer := range u {
		info, err := layer.Stat(name)
		if err == nil {
			return info, nil
		}
		if first == nil {
			first = err
		}
	}
	if first == nil {
		first = &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	return nil, first
}

func (u unionFS) ReadDir(name string) ([]fs.DirEntry, error) {
	seen := make(map[string]bool)
	var entries []fs.DirEntry
	found := false
	for _, layer := range u {
		list, err := layer.ReadDir(name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		found = true
		for _, e := range list {
			if !seen[e.Name()] {
				seen[e.Name()] = true
				entries = append(entries, e)
			}
		}
	}
	if !found {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}
