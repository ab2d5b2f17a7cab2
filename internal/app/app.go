package app

import (
	"context"

	"github.com/olusolaa/appliance-converge/internal/core/domain"
	"github.com/olusolaa/appliance-converge/internal/core/ports"
	"github.com/olusolaa/appliance-converge/internal/core/service"
)

// Application wires the converge engine to its logger and registry.
type Application struct {
	Engine   *service.ConvergeEngine
	Registry *service.ComponentRegistry
	Logger   ports.Logger
	closers  []func()
}

// Run reconciles every declared resource.
func (a *Application) Run(ctx context.Context) error {
	a.Logger.Infof(ctx, "Starting converge run...")

	results, err := a.Engine.Run(ctx)
	if err != nil {
		a.Logger.Errorf(ctx, err, "Converge run failed")
		return err
	}

	changed := 0
	for _, r := range results {
		if r.Changed {
			changed++
		}
	}
	a.Logger.Infof(ctx, "Converge run completed: %d resource(s), %d changed", len(results), changed)
	return nil
}

// Facts reads a single resource and reports its attributes. params are
// name=value pairs locating the resource, e.g. "policy=p1" for a policy rule.
func (a *Application) Facts(ctx context.Context, kind domain.ResourceKind, id domain.Identity, params []string) error {
	located, err := parseAssignments("param", params)
	if err != nil {
		return err
	}
	if _, err := a.Engine.Gather(ctx, kind, id, located); err != nil {
		a.Logger.Errorf(ctx, err, "Gathering facts failed")
		return err
	}
	return nil
}

func (a *Application) Kinds() []domain.ResourceKind {
	return a.Registry.Kinds()
}

// Close releases the appliance client.
func (a *Application) Close() {
	for _, c := range a.closers {
		c()
	}
}
