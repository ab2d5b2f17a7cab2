package hclfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/olusolaa/appliance-converge/internal/core/domain"
	"github.com/olusolaa/appliance-converge/internal/core/ports"
	"github.com/olusolaa/appliance-converge/internal/errors"
)

const SourceType = "hcl"

type Options struct {
	// Path is a single manifest or a directory of *.hcl / *.hcl.json files.
	Path     string
	VarFiles []string
	// Variables override var files and defaults.
	Variables map[string]any
}

// Source evaluates HCL manifests made of variable, locals and
// resource "<kind>" "<label>" blocks.
type Source struct {
	opts   Options
	logger ports.Logger
}

var _ ports.DesiredStateSource = (*Source)(nil)

var rootSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "variable", LabelNames: []string{"name"}},
		{Type: "locals"},
		{Type: "resource", LabelNames: []string{"kind", "label"}},
	},
}

func NewSource(opts Options, logger ports.Logger) (*Source, error) {
	if opts.Path == "" {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation,
			"hcl source requires a path", "Set source.path to a manifest file or directory.")
	}
	return &Source{
		opts:   opts,
		logger: logger.WithFields(map[string]any{"component": "hcl_source", "path": opts.Path}),
	}, nil
}

func (s *Source) Type() string { return SourceType }

func (s *Source) Load(ctx context.Context) ([]domain.Declaration, error) {
	paths, err := discover(s.opts.Path)
	if err != nil {
		return nil, err
	}

	parser := hclparse.NewParser()
	var files []*hcl.File
	var diags hcl.Diagnostics
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.logger.Debugf(ctx, "parsing %s", p)
		file, d := parseFile(parser, p)
		diags = append(diags, d...)
		if file != nil {
			files = append(files, file)
		}
	}
	if diags.HasErrors() {
		return nil, diagsError("parse", s.opts.Path, diags, errors.CodeSourceParseError)
	}

	content, d := hcl.MergeFiles(files).Content(rootSchema)
	if d.HasErrors() {
		return nil, diagsError("parse", s.opts.Path, d, errors.CodeSourceParseError)
	}

	vars, d := s.variables(ctx, parser, content.Blocks)
	if d.HasErrors() {
		return nil, diagsError("variable", s.opts.Path, d, errors.CodeHCLEvalError)
	}
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{"var": vars, "local": cty.EmptyObjectVal},
		Functions: Functions(),
	}

	locals, d := evaluateLocals(content.Blocks, evalCtx)
	if d.HasErrors() {
		return nil, diagsError("locals", s.opts.Path, d, errors.CodeHCLEvalError)
	}
	evalCtx.Variables["local"] = locals

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	decls, d := evaluateResources(content.Blocks, evalCtx)
	if d.HasErrors() {
		return nil, diagsError("resource", s.opts.Path, d, errors.CodeHCLEvalError)
	}
	for _, w := range d {
		s.logger.Warnf(ctx, "%s", w.Error())
	}

	s.logger.Infof(ctx, "loaded %d declaration(s) from %d file(s)", len(decls), len(files))
	return decls, nil
}

func discover(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSourceReadError, fmt.Sprintf("cannot access %s", path))
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSourceReadError, fmt.Sprintf("failed to read directory %s", path))
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && isManifest(e.Name()) {
			out = append(out, filepath.Join(path, e.Name()))
		}
	}
	if len(out) == 0 {
		return nil, errors.NewUserFacing(errors.CodeSourceParseError,
			fmt.Sprintf("no HCL manifests found in %s", path), "Manifests must end in .hcl or .hcl.json.")
	}
	return out, nil
}

func isManifest(name string) bool {
	return strings.HasSuffix(name, ".hcl") || strings.HasSuffix(name, ".hcl.json")
}

func parseFile(parser *hclparse.Parser, path string) (*hcl.File, hcl.Diagnostics) {
	if strings.HasSuffix(path, ".json") {
		return parser.ParseJSONFile(path)
	}
	return parser.ParseHCLFile(path)
}

func diagsError(op, path string, diags hcl.Diagnostics, code errors.Code) error {
	return errors.WrapUserFacing(&DiagnosticsError{Operation: op, Path: path, Diags: diags}, code,
		fmt.Sprintf("invalid manifest: %s", diags.Error()), "")
}
