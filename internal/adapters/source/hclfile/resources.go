package hclfile

import (
	"fmt"
	"maps"
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/olusolaa/appliance-converge/internal/core/domain"
)

const forEachAttr = "for_each"

type instance struct {
	key     string
	evalCtx *hcl.EvalContext
}

func evaluateResources(blocks hcl.Blocks, evalCtx *hcl.EvalContext) ([]domain.Declaration, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	var decls []domain.Declaration
	seen := make(map[string]hcl.Range)

	for _, b := range blocks {
		if b.Type != "resource" {
			continue
		}
		kind, label := b.Labels[0], b.Labels[1]
		addr := kind + "." + label
		if prev, dup := seen[addr]; dup {
			diags = diags.Append(errorDiag("Duplicate resource",
				fmt.Sprintf("Resource %s was already declared at %s.", addr, prev), &b.DefRange))
			continue
		}
		seen[addr] = b.DefRange

		attrs, d := b.Body.JustAttributes()
		diags = append(diags, d...)
		if d.HasErrors() {
			continue
		}

		instances := []instance{{evalCtx: evalCtx}}
		if fe, ok := attrs[forEachAttr]; ok {
			delete(attrs, forEachAttr)
			instances, d = expandForEach(fe, evalCtx)
			diags = append(diags, d...)
			if d.HasErrors() {
				continue
			}
		}

		for _, inst := range instances {
			params, d := evaluateAttributes(attrs, inst.evalCtx)
			diags = append(diags, d...)
			if d.HasErrors() {
				continue
			}
			source := fmt.Sprintf("%s:%d", b.DefRange.Filename, b.DefRange.Start.Line)
			if _, ok := params[domain.KeyName]; !ok {
				params[domain.KeyName] = label
				if inst.key != "" {
					params[domain.KeyName] = inst.key
				}
			}
			if inst.key != "" {
				source = fmt.Sprintf("%s[%q]", source, inst.key)
			}
			decls = append(decls, domain.Declaration{
				Kind:   domain.ResourceKind(kind),
				Params: params,
				Source: source,
			})
		}
	}
	return decls, diags
}

func evaluateAttributes(attrs hcl.Attributes, evalCtx *hcl.EvalContext) (map[string]any, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	params := make(map[string]any, len(attrs)+1)
	for _, name := range slices.Sorted(maps.Keys(attrs)) {
		attr := attrs[name]
		val, d := attr.Expr.Value(evalCtx)
		diags = append(diags, d...)
		if d.HasErrors() {
			continue
		}
		goVal, err := toGo(val)
		if err != nil {
			diags = diags.Append(errorDiag("Unsupported attribute value",
				(&ValueConversionError{Attribute: name, Err: err}).Error(), attr.Expr.Range().Ptr()))
			continue
		}
		// null leaves the attribute undeclared
		if goVal != nil {
			params[name] = goVal
		}
	}
	return params, diags
}

// expandForEach yields one instance per element of a map, object or set
// of strings, exposing each.key and each.value.
func expandForEach(attr *hcl.Attribute, evalCtx *hcl.EvalContext) ([]instance, hcl.Diagnostics) {
	val, diags := attr.Expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, diags
	}
	subject := attr.Expr.Range().Ptr()
	if val.IsNull() || !val.IsWhollyKnown() {
		return nil, diags.Append(errorDiag("Invalid for_each argument", "for_each must be a known, non-null value.", subject))
	}

	ty := val.Type()
	isStringSet := ty.IsSetType() && ty.ElementType().Equals(cty.String)
	if !ty.IsMapType() && !ty.IsObjectType() && !isStringSet {
		return nil, diags.Append(errorDiag("Invalid for_each argument",
			fmt.Sprintf("for_each must be a map or a set of strings, got %s.", ty.FriendlyName()), subject))
	}

	var out []instance
	for it := val.ElementIterator(); it.Next(); {
		k, v := it.Element()
		key := k.AsString()
		if isStringSet {
			key = v.AsString()
		}
		child := evalCtx.NewChild()
		child.Variables = map[string]cty.Value{
			"each": cty.ObjectVal(map[string]cty.Value{"key": cty.StringVal(key), "value": v}),
		}
		out = append(out, instance{key: key, evalCtx: child})
	}
	return out, diags
}
