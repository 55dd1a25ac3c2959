package hcldef

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/kbukum/flowgraph/flow"
)

// argList converts the args attribute of a node block. A missing attribute
// yields no arguments.
func argList(expr hcl.Expression) (flow.ArgList, hcl.Diagnostics) {
	if expr == nil || isNull(expr) {
		return nil, nil
	}
	items, diags := hcl.ExprList(expr)
	if diags.HasErrors() {
		return nil, diags
	}
	args := make(flow.ArgList, 0, len(items))
	for _, item := range items {
		a, d := toArg(item)
		diags = append(diags, d...)
		if d.HasErrors() {
			continue
		}
		args = append(args, a)
	}
	return args, diags
}

func isNull(expr hcl.Expression) bool {
	if len(expr.Variables()) > 0 {
		return false
	}
	v, diags := expr.Value(nil)
	return !diags.HasErrors() && v.IsNull()
}

// toArg maps one HCL expression onto an argument: traversals become
// references, tuples become lists, the rest is evaluated as a literal.
// The keywords true, false and null parse as traversals too, so only
// expressions that mention a variable are read as references.
func toArg(expr hcl.Expression) (flow.Arg, hcl.Diagnostics) {
	if len(expr.Variables()) > 0 {
		if trav, diags := hcl.AbsTraversalForExpr(expr); !diags.HasErrors() {
			return traversalArg(trav, expr.Range())
		}
	}

	if items, diags := hcl.ExprList(expr); !diags.HasErrors() {
		out := make([]flow.Arg, 0, len(items))
		var all hcl.Diagnostics
		for _, item := range items {
			a, d := toArg(item)
			all = append(all, d...)
			out = append(out, a)
		}
		if all.HasErrors() {
			return flow.Arg{}, all
		}
		return flow.List(out...), nil
	}

	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return flow.Arg{}, diags
	}
	goVal, err := fromCty(v)
	if err != nil {
		return flow.Arg{}, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unsupported literal",
			Detail:   err.Error(),
			Subject:  expr.Range().Ptr(),
		}}
	}
	return flow.Literal(goVal), nil
}

func traversalArg(trav hcl.Traversal, rng hcl.Range) (flow.Arg, hcl.Diagnostics) {
	root := trav.RootName()
	switch len(trav) {
	case 1:
		return flow.Ref(root), nil
	case 2:
		if attr, ok := trav[1].(hcl.TraverseAttr); ok {
			return flow.Attr(root, attr.Name), nil
		}
	default:
		if _, ok := trav[1].(hcl.TraverseAttr); ok {
			return flow.Arg{}, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Reference too deep",
				Detail:   fmt.Sprintf("%s: %v", root, flow.ErrAttributeDepth),
				Subject:  rng.Ptr(),
			}}
		}
	}
	return flow.Arg{}, hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Unsupported reference",
		Detail:   "References are node or node.field; index steps are not supported.",
		Subject:  rng.Ptr(),
	}}
}

// fromCty converts a known cty value into plain Go values: whole numbers
// become int, other numbers float64, collections []any and map[string]any.
func fromCty(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("value is not known")
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		var s string
		err := gocty.FromCtyValue(v, &s)
		return s, err
	case ty == cty.Bool:
		var b bool
		err := gocty.FromCtyValue(v, &b)
		return b, err
	case ty == cty.Number:
		var i int
		if err := gocty.FromCtyValue(v, &i); err == nil {
			return i, nil
		}
		var f float64
		err := gocty.FromCtyValue(v, &f)
		return f, err
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			gv, err := fromCty(ev)
			if err != nil {
				return nil, err
			}
			out = append(out, gv)
		}
		return out, nil
	case ty.IsMapType() || ty.IsObjectType():
		out := make(map[string]any, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			gv, err := fromCty(ev)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = gv
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported type %s", ty.FriendlyName())
	}
}
