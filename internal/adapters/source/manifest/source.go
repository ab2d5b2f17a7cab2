package manifest

import (
	"context"
	stderrs "errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/olusolaa/appliance-converge/internal/core/domain"
	"github.com/olusolaa/appliance-converge/internal/core/ports"
	"github.com/olusolaa/appliance-converge/internal/errors"
)

const SourceType = "yaml"

// document is one YAML document of a manifest file.
type document struct {
	// Defaults are merged into the params of every entry that does not set them.
	Defaults  map[string]any `yaml:"defaults"`
	Resources []yaml.Node    `yaml:"resources"`
}

type entry struct {
	Kind   string         `yaml:"kind"`
	Params map[string]any `yaml:"params"`
}

// Source reads YAML manifests: a single file or every *.yaml / *.yml in a
// directory, in lexical order.
type Source struct {
	path   string
	logger ports.Logger
}

var _ ports.DesiredStateSource = (*Source)(nil)

func NewSource(path string, logger ports.Logger) (*Source, error) {
	if path == "" {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation,
			"yaml source requires a path", "Set source.path to a manifest file or directory.")
	}
	return &Source{
		path:   path,
		logger: logger.WithFields(map[string]any{"component": "yaml_source", "path": path}),
	}, nil
}

func (s *Source) Type() string { return SourceType }

func (s *Source) Load(ctx context.Context) ([]domain.Declaration, error) {
	files, err := discover(s.path)
	if err != nil {
		return nil, err
	}

	var decls []domain.Declaration
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fileDecls, err := loadFile(f)
		if err != nil {
			return nil, err
		}
		s.logger.Debugf(ctx, "read %d declaration(s) from %s", len(fileDecls), f)
		decls = append(decls, fileDecls...)
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
		ext := filepath.Ext(e.Name())
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			out = append(out, filepath.Join(path, e.Name()))
		}
	}
	if len(out) == 0 {
		return nil, errors.NewUserFacing(errors.CodeSourceParseError,
			fmt.Sprintf("no YAML manifests found in %s", path), "Manifests must end in .yaml or .yml.")
	}
	return out, nil
}

func loadFile(path string) ([]domain.Declaration, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSourceReadError, fmt.Sprintf("failed to open %s", path))
	}
	defer f.Close()

	var decls []domain.Declaration
	dec := yaml.NewDecoder(f)
	for {
		var doc document
		err := dec.Decode(&doc)
		if stderrs.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, parseError(path, err)
		}
		for i := range doc.Resources {
			d, err := decodeEntry(path, &doc.Resources[i], doc.Defaults)
			if err != nil {
				return nil, err
			}
			decls = append(decls, d)
		}
	}
	return decls, nil
}

func decodeEntry(path string, node *yaml.Node, defaults map[string]any) (domain.Declaration, error) {
	source := fmt.Sprintf("%s:%d", path, node.Line)
	var e entry
	if err := node.Decode(&e); err != nil {
		return domain.Declaration{}, parseError(source, err)
	}
	if strings.TrimSpace(e.Kind) == "" {
		return domain.Declaration{}, errors.NewUserFacing(errors.CodeSourceParseError,
			fmt.Sprintf("%s: resource entry has no kind", source), "Every entry needs `kind` and `params`.")
	}

	params := maps.Clone(defaults)
	if params == nil {
		params = make(map[string]any, len(e.Params))
	}
	maps.Copy(params, e.Params)
	return domain.Declaration{Kind: domain.ResourceKind(e.Kind), Params: params, Source: source}, nil
}

func parseError(where string, err error) error {
	return errors.WrapUserFacing(err, errors.CodeSourceParseError,
		fmt.Sprintf("invalid manifest %s: %v", where, err), "")
}
