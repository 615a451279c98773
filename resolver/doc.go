// Package resolver turns middleware references into source locations.
//
// A reference is "path" or "path#fragment". Relative paths ("./x", "../x")
// are resolved against the application root, absolute paths are used as is
// and bare identifiers are searched in module roots: WITTY_PATH entries,
// then a witty_modules directory in the application root and each of its
// ancestors.
//
// Lookups go through a FileSystem, so the same resolver works against the
// real disk, an fs.FS in tests, or a registry of mounted Go modules:
//
//	r := resolver.New(resolver.Union(reg, resolver.OS()), resolver.WithExportChecker(reg))
//	loc, err := r.Resolve("/srv/app", "witty#logger")
package resolver
