package tfstate

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	tfjson "github.com/hashicorp/terraform-json"
	jsoniter "github.com/json-iterator/go"

	"github.com/olusolaa/appliance-converge/internal/core/domain"
	"github.com/olusolaa/appliance-converge/internal/core/ports"
	"github.com/olusolaa/appliance-converge/internal/errors"
)

const SourceType = "tfstate"

// Source reads the output of `terraform show -json` (state or saved plan)
// and turns bigip_* resources into declarations.
type Source struct {
	path   string
	logger ports.Logger

	mu     sync.Mutex
	values *tfjson.StateValues
	err    error
}

var _ ports.DesiredStateSource = (*Source)(nil)

func NewSource(path string, logger ports.Logger) (*Source, error) {
	if path == "" {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation,
			"tfstate source requires a path", "Set source.path to the output of `terraform show -json`.")
	}
	return &Source{
		path:   path,
		logger: logger.WithFields(map[string]any{"component": "tfstate_source", "file_path": path}),
	}, nil
}

func (s *Source) Type() string { return SourceType }

func (s *Source) Load(ctx context.Context) ([]domain.Declaration, error) {
	values, err := s.parseAndCache(ctx)
	if err != nil {
		return nil, err
	}
	if values == nil || values.RootModule == nil {
		s.logger.Warnf(ctx, "state contains no resources")
		return nil, nil
	}

	var decls []domain.Declaration
	walkModules(values.RootModule, func(r *tfjson.StateResource) {
		if r.Mode != tfjson.ManagedResourceMode {
			return
		}
		kind, params, ok := mapResource(r.Type, r.AttributeValues)
		if !ok {
			s.logger.Debugf(ctx, "skipping unmapped resource %s", r.Address)
			return
		}
		decls = append(decls, domain.Declaration{Kind: kind, Params: params, Source: r.Address})
	})
	s.logger.Infof(ctx, "loaded %d declaration(s) from state", len(decls))
	return decls, nil
}

func (s *Source) parseAndCache(ctx context.Context) (*tfjson.StateValues, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.values != nil || s.err != nil {
		return s.values, s.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.values, s.err = parseFile(s.path)
	return s.values, s.err
}

func parseFile(path string) (*tfjson.StateValues, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSourceReadError, "failed to read state file")
	}
	if len(raw) == 0 {
		return nil, errors.NewUserFacing(errors.CodeSourceParseError, "state file is empty", "")
	}

	// A saved plan carries the desired values under planned_values.
	if jsoniter.Get(raw, "planned_values").ValueType() == jsoniter.ObjectValue {
		var plan tfjson.Plan
		if err := plan.UnmarshalJSON(raw); err != nil {
			return nil, errors.WrapUserFacing(err, errors.CodeSourceParseError, "invalid Terraform plan JSON",
				"Generate the file with `terraform show -json <planfile>`.")
		}
		return plan.PlannedValues, nil
	}

	var state tfjson.State
	if err := state.UnmarshalJSON(raw); err != nil {
		return nil, errors.WrapUserFacing(err, errors.CodeSourceParseError,
			fmt.Sprintf("invalid Terraform state JSON in %s", path),
			"Generate the file with `terraform show -json`; raw .tfstate files are not supported.")
	}
	return state.Values, nil
}

// walkModules visits resources depth-first, root module first, child
// modules ordered by address.
func walkModules(m *tfjson.StateModule, visit func(*tfjson.StateResource)) {
	if m == nil {
		return
	}
	for _, r := range m.Resources {
		if r != nil {
			visit(r)
		}
	}
	children := append([]*tfjson.StateModule(nil), m.ChildModules...)
	sort.Slice(children, func(i, j int) bool { return children[i].Address < children[j].Address })
	for _, c := range children {
		walkModules(c, visit)
	}
}
