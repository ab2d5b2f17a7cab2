package hclfile

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/typeexpr"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

var variableSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "description"},
		{Name: "default"},
		{Name: "type"},
		{Name: "sensitive"},
	},
}

type variable struct {
	name       string
	typ        cty.Type
	def        cty.Value
	hasDefault bool
	declRange  hcl.Range
}

func decodeVariable(block *hcl.Block) (*variable, hcl.Diagnostics) {
	content, diags := block.Body.Content(variableSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	v := &variable{name: block.Labels[0], typ: cty.DynamicPseudoType, declRange: block.DefRange}
	if attr, ok := content.Attributes["type"]; ok {
		ty, d := typeexpr.TypeConstraint(attr.Expr)
		diags = append(diags, d...)
		if !d.HasErrors() {
			v.typ = ty
		}
	}
	if attr, ok := content.Attributes["default"]; ok {
		val, d := attr.Expr.Value(nil)
		diags = append(diags, d...)
		if !d.HasErrors() {
			v.def, v.hasDefault = val, true
		}
	}
	return v, diags
}

// variables resolves every declared variable. Precedence: explicit
// values, then var files in order, then defaults.
func (s *Source) variables(ctx context.Context, parser *hclparse.Parser, blocks hcl.Blocks) (cty.Value, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	defs := make(map[string]*variable)
	for _, b := range blocks {
		if b.Type != "variable" {
			continue
		}
		v, d := decodeVariable(b)
		diags = append(diags, d...)
		if v == nil {
			continue
		}
		if prev, dup := defs[v.name]; dup {
			diags = diags.Append(errorDiag("Duplicate variable declaration",
				fmt.Sprintf("Variable %q was already declared at %s.", v.name, prev.declRange), &b.DefRange))
			continue
		}
		defs[v.name] = v
	}

	values := make(map[string]cty.Value, len(defs))
	for name, v := range defs {
		if v.hasDefault {
			values[name] = v.def
		}
	}
	for _, path := range s.opts.VarFiles {
		fileVals, d := loadVarFile(parser, path)
		diags = append(diags, d...)
		for name, val := range fileVals {
			if _, declared := defs[name]; !declared {
				s.logger.Warnf(ctx, "var file %s sets undeclared variable %q", path, name)
				continue
			}
			values[name] = val
		}
	}
	for name, raw := range s.opts.Variables {
		if _, declared := defs[name]; !declared {
			s.logger.Warnf(ctx, "ignoring value for undeclared variable %q", name)
			continue
		}
		val, err := fromGo(raw)
		if err != nil {
			diags = diags.Append(errorDiag("Invalid variable value", fmt.Sprintf("Variable %q: %v", name, err), nil))
			continue
		}
		values[name] = val
	}

	out := make(map[string]cty.Value, len(defs))
	for _, name := range slices.Sorted(maps.Keys(defs)) {
		v := defs[name]
		val, ok := values[name]
		if !ok {
			diags = diags.Append(errorDiag("No value for required variable",
				fmt.Sprintf("Variable %q has no default and no value was supplied.", name), &v.declRange))
			continue
		}
		if !v.typ.Equals(cty.DynamicPseudoType) {
			converted, err := convert.Convert(val, v.typ)
			if err != nil {
				diags = diags.Append(errorDiag("Invalid value for variable",
					fmt.Sprintf("Variable %q: %v", name, err), &v.declRange))
				continue
			}
			val = converted
		}
		out[name] = val
	}
	return cty.ObjectVal(out), diags
}

func loadVarFile(parser *hclparse.Parser, path string) (map[string]cty.Value, hcl.Diagnostics) {
	file, diags := parseFile(parser, path)
	if file == nil || diags.HasErrors() {
		return nil, diags
	}
	attrs, d := file.Body.JustAttributes()
	diags = append(diags, d...)

	vals := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		val, d := attr.Expr.Value(nil)
		diags = append(diags, d...)
		if !d.HasErrors() {
			vals[name] = val
		}
	}
	return vals, diags
}

// evaluateLocals evaluates locals in passes so a local may refer to
// another regardless of declaration order.
func evaluateLocals(blocks hcl.Blocks, evalCtx *hcl.EvalContext) (cty.Value, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	pending := make(map[string]*hcl.Attribute)
	for _, b := range blocks {
		if b.Type != "locals" {
			continue
		}
		attrs, d := b.Body.JustAttributes()
		diags = append(diags, d...)
		for name, attr := range attrs {
			if prev, dup := pending[name]; dup {
				diags = diags.Append(errorDiag("Duplicate local value definition",
					fmt.Sprintf("Local %q was already defined at %s.", name, prev.NameRange), &attr.NameRange))
				continue
			}
			pending[name] = attr
		}
	}
	if diags.HasErrors() {
		return cty.NilVal, diags
	}

	values := make(map[string]cty.Value, len(pending))
	for len(pending) > 0 {
		passCtx := evalCtx.NewChild()
		passCtx.Variables = map[string]cty.Value{"local": cty.ObjectVal(maps.Clone(values))}

		var passDiags hcl.Diagnostics
		progressed := false
		for _, name := range slices.Sorted(maps.Keys(pending)) {
			val, d := pending[name].Expr.Value(passCtx)
			if d.HasErrors() {
				passDiags = append(passDiags, d...)
				continue
			}
			values[name] = val
			delete(pending, name)
			progressed = true
		}
		if !progressed {
			return cty.NilVal, append(diags, passDiags...)
		}
	}
	return cty.ObjectVal(values), diags
}
