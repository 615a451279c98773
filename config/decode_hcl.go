package config

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// HCLDecoder decodes HCL files made of top-level attributes:
//
//	routes = {
//	  "./middleware/static" = { params = "$!./public" }
//	}
//
// Attribute names must be identifiers, so keys such as "routes:before" are
// written with a file that is a single object instead:
//
//	{
//	  "routes:before" = { "witty#cors" = {} }
//	  routes          = { "./middleware/static" = { params = "$!./public" } }
//	}
//
// Expressions are evaluated without variables or functions. Object and tuple
// constructors are walked in source order so keys keep their declared order.
type HCLDecoder struct{}

// Decode implements Decoder.
func (HCLDecoder) Decode(data []byte, filename string) (*Tree, error) {
	if isHCLObject(data, filename) {
		return decodeHCLObject(data, filename)
	}

	file, diags := hclsyntax.ParseConfig(data, filename, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, diags
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected HCL body type %T", filename, file.Body)
	}
	if len(body.Blocks) > 0 {
		b := body.Blocks[0]
		return nil, fmt.Errorf("%s: blocks are not supported, use attributes (found %q)", b.DefRange(), b.Type)
	}

	attrs := make([]*hclsyntax.Attribute, 0, len(body.Attributes))
	for _, a := range body.Attributes {
		attrs = append(attrs, a)
	}
	sort.Slice(attrs, func(i, j int) bool {
		return attrs[i].SrcRange.Start.Byte < attrs[j].SrcRange.Start.Byte
	})

	tree := NewTree()
	for _, a := range attrs {
		v, err := hclValue(a.Expr)
		if err != nil {
			return nil, fmt.Errorf("in attribute '%s': %w", a.Name, err)
		}
		tree.Set(a.Name, v)
	}
	return tree, nil
}

// isHCLObject reports whether the first token after comments opens an object.
func isHCLObject(data []byte, filename string) bool {
	tokens, _ := hclsyntax.LexConfig(data, filename, hcl.Pos{Line: 1, Column: 1})
	for _, tok := range tokens {
		switch tok.Type {
		case hclsyntax.TokenNewline, hclsyntax.TokenComment:
			continue
		}
		return tok.Type == hclsyntax.TokenOBrace
	}
	return false
}

// decodeHCLObject decodes a file holding one object constructor.
func decodeHCLObject(data []byte, filename string) (*Tree, error) {
	expr, diags := hclsyntax.ParseExpression(data, filename, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, diags
	}
	if _, ok := expr.(*hclsyntax.ObjectConsExpr); !ok {
		return nil, fmt.Errorf("%s: top level must be an object", expr.Range())
	}
	v, err := hclValue(expr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return v.(*Tree), nil
}

func hclValue(expr hclsyntax.Expression) (any, error) {
	switch e := expr.(type) {
	case *hclsyntax.ObjectConsExpr:
		tree := NewTree()
		for _, item := range e.Items {
			kv, diags := item.KeyExpr.Value(nil)
			if diags.HasErrors() {
				return nil, diags
			}
			key, err := convert.Convert(kv, cty.String)
			if err != nil || key.IsNull() || !key.IsKnown() {
				return nil, fmt.Errorf("%s: object key must be a string", item.KeyExpr.Range())
			}
			v, err := hclValue(item.ValueExpr)
			if err != nil {
				return nil, fmt.Errorf("in attribute '%s': %w", key.AsString(), err)
			}
			tree.Set(key.AsString(), v)
		}
		return tree, nil

	case *hclsyntax.TupleConsExpr:
		items := make([]any, 0, len(e.Exprs))
		for _, ex := range e.Exprs {
			v, err := hclValue(ex)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil

	default:
		v, diags := expr.Value(nil)
		if diags.HasErrors() {
			return nil, diags
		}
		return ctyToNative(v)
	}
}

// ctyToNative converts an evaluated cty value into tree values.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return int(i), nil
			}
		}
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("could not convert number: %w", err)
		}
		return f, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		items := make([]any, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, ev := it.Element()
			native, err := ctyToNative(ev)
			if err != nil {
				return nil, err
			}
			items = append(items, native)
		}
		return items, nil

	case ty.IsObjectType() || ty.IsMapType():
		tree := NewTree()
		it := v.ElementIterator()
		for it.Next() {
			k, ev := it.Element()
			native, err := ctyToNative(ev)
			if err != nil {
				return nil, fmt.Errorf("in attribute '%s': %w", k.AsString(), err)
			}
			tree.Set(k.AsString(), native)
		}
		return tree, nil
	}
	return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
}
