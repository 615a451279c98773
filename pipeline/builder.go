package pipeline

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/taoyuan/witty/config"
	"github.com/taoyuan/witty/middleware"
	"github.com/taoyuan/witty/resolver"
)

var (
	// phaseQualifier matches the ":before" / ":after" suffix of a phase.
	phaseQualifier = regexp.MustCompile(`:[^:]+$`)

	// pathParam matches params that are paths relative to the app root.
	pathParam = regexp.MustCompile(`^\$!(\./|\.\./)`)
)

// Resolver resolves middleware references.
type Resolver interface {
	Resolve(rootDir, reference string) (resolver.Location, error)
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithBuilderLogger sets the logger for resolved references.
func WithBuilderLogger(l middleware.Logger) BuilderOption {
	return func(b *Builder) {
		b.logger = l
	}
}

// Builder compiles merged middleware configurations into plans. Resolved
// references are cached for the lifetime of the Builder. A Builder is not
// safe for concurrent use.
type Builder struct {
	resolver Resolver
	cache    map[string]resolver.Location
	logger   middleware.Logger
}

// NewBuilder creates a Builder that resolves references with r.
func NewBuilder(r Resolver, opts ...BuilderOption) *Builder {
	b := &Builder{
		resolver: r,
		cache:    make(map[string]resolver.Location),
		logger:   middleware.NopLogger{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build compiles merged into a plan. Phases and middleware keep their
// declared order; a middleware configured with a sequence yields one
// instruction per element.
func (b *Builder) Build(rootDir string, merged *config.Tree) (*Plan, error) {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", rootDir, err)
	}

	plan := &Plan{
		Phases:     Phases(merged.Keys()),
		Middleware: []Instruction{},
	}

	for _, phase := range merged.Keys() {
		v, _ := merged.Get(phase)
		if v == nil {
			continue
		}
		phaseConfig, ok := v.(*config.Tree)
		if !ok {
			return nil, &ConfigError{Phase: phase, Reason: fmt.Sprintf("expected an object, got %T", v)}
		}

		for _, name := range phaseConfig.Keys() {
			v, _ := phaseConfig.Get(name)
			configs, err := configList(v)
			if err != nil {
				return nil, &ConfigError{Phase: phase, Middleware: name, Reason: err.Error()}
			}

			for _, cfg := range configs {
				loc, err := b.resolve(rootDir, name)
				if err != nil {
					return nil, fmt.Errorf("middleware %q in phase %q: %w", name, phase, err)
				}

				instrConfig := cfg.Clone()
				if instrConfig == nil {
					instrConfig = config.NewTree()
				}
				instrConfig.Set("phase", phase)
				if params, ok := instrConfig.Get("params"); ok && params != nil {
					instrConfig.Set("params", resolveParams(absRoot, params))
				}

				plan.Middleware = append(plan.Middleware, Instruction{
					SourceFile: loc.SourceFile,
					Fragment:   loc.Fragment,
					Config:     instrConfig,
				})
			}
		}
	}
	return plan, nil
}

func (b *Builder) resolve(rootDir, reference string) (resolver.Location, error) {
	key := rootDir + "\x00" + reference
	if loc, ok := b.cache[key]; ok {
		return loc, nil
	}
	loc, err := b.resolver.Resolve(rootDir, reference)
	if err != nil {
		return resolver.Location{}, err
	}
	b.logger.Debug("resolved middleware",
		middleware.F("reference", reference),
		middleware.F("location", loc.String()),
	)
	b.cache[key] = loc
	return loc, nil
}

// configList normalizes a middleware value to its configs.
func configList(v any) ([]*config.Tree, error) {
	switch c := v.(type) {
	case nil:
		return []*config.Tree{nil}, nil
	case *config.Tree:
		return []*config.Tree{c}, nil
	case []any:
		list := make([]*config.Tree, 0, len(c))
		for i, item := range c {
			switch t := item.(type) {
			case nil:
				list = append(list, nil)
			case *config.Tree:
				list = append(list, t)
			default:
				return nil, fmt.Errorf("item %d: expected an object, got %T", i, item)
			}
		}
		return list, nil
	}
	return nil, fmt.Errorf("expected an object or a list of objects, got %T", v)
}

// resolveParams rewrites "$!./x" and "$!../x" strings into paths under
// root, through nested trees and sequences. v is modified in place.
func resolveParams(root string, v any) any {
	switch p := v.(type) {
	case string:
		if pathParam.MatchString(p) {
			return filepath.Join(root, p[2:])
		}
		return p
	case *config.Tree:
		for _, k := range p.Keys() {
			child, _ := p.Get(k)
			p.Set(k, resolveParams(root, child))
		}
		return p
	case []any:
		for i, item := range p {
			p[i] = resolveParams(root, item)
		}
		return p
	}
	return v
}

// Phases maps phase names to base names and collapses adjacent duplicates,
// so [a b:before b b:after a] becomes [a b a].
func Phases(names []string) []string {
	phases := make([]string, 0, len(names))
	for _, name := range names {
		base := BaseName(name)
		if len(phases) > 0 && phases[len(phases)-1] == base {
			continue
		}
		phases = append(phases, base)
	}
	return phases
}

// BaseName strips a ":qualifier" suffix from a phase name.
func BaseName(phase string) string {
	return phaseQualifier.ReplaceAllString(phase, "")
}
