package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAMLDecoder decodes YAML mappings. Key order follows the document; aliases
// are expanded and merge keys ("<<") fill in keys the mapping does not set.
type YAMLDecoder struct{}

// Decode implements Decoder.
func (YAMLDecoder) Decode(data []byte, filename string) (*Tree, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	d := &yamlDecoder{active: map[*yaml.Node]bool{}}
	v, err := d.value(&doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	switch tree := v.(type) {
	case nil:
		return NewTree(), nil
	case *Tree:
		return tree, nil
	default:
		return nil, fmt.Errorf("%s: top level must be a mapping", filename)
	}
}

// yamlDecoder walks a node tree. active holds the anchored nodes currently
// being expanded; the counters bound alias expansion the way yaml.v3 bounds
// its own decoding.
type yamlDecoder struct {
	active     map[*yaml.Node]bool
	aliasDepth int
	nodes      int
	aliased    int
}

func aliasRatio(nodes int) float64 {
	switch {
	case nodes <= 400000:
		return 0.99
	case nodes >= 4000000:
		return 0.10
	default:
		return 0.99 - 0.89*(float64(nodes-400000)/3600000)
	}
}

func (d *yamlDecoder) value(n *yaml.Node) (any, error) {
	d.nodes++
	if d.aliasDepth > 0 {
		d.aliased++
	}
	if d.aliased > 100 && d.nodes > 1000 && float64(d.aliased)/float64(d.nodes) > aliasRatio(d.nodes) {
		return nil, fmt.Errorf("line %d: document contains excessive aliasing", n.Line)
	}

	if n.Anchor != "" {
		d.active[n] = true
		defer delete(d.active, n)
	}

	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return d.value(n.Content[0])
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, fmt.Errorf("line %d: unknown anchor", n.Line)
		}
		if d.active[n.Alias] {
			return nil, fmt.Errorf("line %d: recursive alias", n.Line)
		}
		d.aliasDepth++
		defer func() { d.aliasDepth-- }()
		return d.value(n.Alias)
	case yaml.MappingNode:
		return d.mapping(n)
	case yaml.SequenceNode:
		items := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := d.value(c)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
}

func (d *yamlDecoder) mapping(n *yaml.Node) (*Tree, error) {
	tree := NewTree()
	var merges []*Tree

	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: mapping keys must be scalars", k.Line)
		}
		val, err := d.value(v)
		if err != nil {
			return nil, err
		}
		if k.Tag == "!!merge" || k.Value == "<<" && k.Style == 0 {
			switch m := val.(type) {
			case *Tree:
				merges = append(merges, m)
			case []any:
				for _, item := range m {
					if t, ok := item.(*Tree); ok {
						merges = append(merges, t)
					}
				}
			}
			continue
		}
		tree.Set(k.Value, val)
	}

	for _, m := range merges {
		for _, key := range m.Keys() {
			if !tree.Has(key) {
				v, _ := m.Get(key)
				tree.Set(key, CloneValue(v))
			}
		}
	}
	return tree, nil
}
