package inline

import (
	"context"
	"fmt"
	"maps"

	"github.com/olusolaa/appliance-converge/internal/core/domain"
	"github.com/olusolaa/appliance-converge/internal/core/ports"
	"github.com/olusolaa/appliance-converge/internal/errors"
)

const SourceType = "config"

// Entry is one item of the `resources:` list in the configuration file.
type Entry struct {
	Kind   string         `mapstructure:"kind" yaml:"kind"`
	Params map[string]any `mapstructure:"params" yaml:"params"`
}

// Source serves declarations embedded in the configuration itself.
type Source struct {
	entries []Entry
	logger  ports.Logger
}

var _ ports.DesiredStateSource = (*Source)(nil)

func NewSource(entries []Entry, logger ports.Logger) *Source {
	return &Source{
		entries: entries,
		logger:  logger.WithFields(map[string]any{"component": "config_source"}),
	}
}

func (s *Source) Type() string { return SourceType }

func (s *Source) Load(ctx context.Context) ([]domain.Declaration, error) {
	decls := make([]domain.Declaration, 0, len(s.entries))
	for i, e := range s.entries {
		where := fmt.Sprintf("config:resources[%d]", i)
		if e.Kind == "" {
			return nil, errors.NewUserFacing(errors.CodeConfigValidation,
				fmt.Sprintf("%s has no kind", where), "Every entry under resources needs `kind` and `params`.")
		}
		params := maps.Clone(e.Params)
		if params == nil {
			params = make(map[string]any)
		}
		decls = append(decls, domain.Declaration{Kind: domain.ResourceKind(e.Kind), Params: params, Source: where})
	}
	s.logger.Debugf(ctx, "loaded %d declaration(s) from configuration", len(decls))
	return decls, nil
}
