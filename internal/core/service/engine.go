package service

import (
	"context"
	stderrs "errors"
	"fmt"
	"maps"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/olusolaa/appliance-converge/internal/core/domain"
	"github.com/olusolaa/appliance-converge/internal/core/ports"
	"github.com/olusolaa/appliance-converge/internal/errors"
)

type EngineOptions struct {
	// Concurrency bounds parallel reconciliations. 1 keeps declaration order.
	Concurrency     int
	CheckMode       bool
	ContinueOnError bool
}

// ConvergeEngine loads declarations from one source and reconciles each of
// them against the appliance.
type ConvergeEngine struct {
	registry   *ComponentRegistry
	source     ports.DesiredStateSource
	reporter   ports.Reporter
	logger     ports.Logger
	reconciler *Reconciler
	opts       EngineOptions
}

func NewConvergeEngine(
	registry *ComponentRegistry,
	source ports.DesiredStateSource,
	reporter ports.Reporter,
	logger ports.Logger,
	opts EngineOptions,
) (*ConvergeEngine, error) {
	if registry == nil {
		return nil, errors.New(errors.CodeConfigValidation, "component registry cannot be nil")
	}
	if source == nil {
		return nil, errors.New(errors.CodeConfigValidation, "desired state source cannot be nil")
	}
	if reporter == nil {
		return nil, errors.New(errors.CodeConfigValidation, "reporter cannot be nil")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}

	return &ConvergeEngine{
		registry:   registry,
		source:     source,
		reporter:   reporter,
		logger:     logger,
		reconciler: NewReconciler(logger, WithCheckMode(opts.CheckMode)),
		opts:       opts,
	}, nil
}

func (e *ConvergeEngine) Run(ctx context.Context) ([]domain.ReconciliationResult, error) {
	log := e.logger.WithFields(map[string]any{"run_id": uuid.NewString(), "source": e.source.Type()})
	log.Infof(ctx, "Starting converge run (check=%t, concurrency=%d)", e.opts.CheckMode, e.opts.Concurrency)

	decls, err := e.source.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSourceReadError, "failed loading desired state")
	}
	if len(decls) == 0 {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation, "no resources declared",
			"Add resources to the configured source.")
	}
	log.Debugf(ctx, "Loaded %d declaration(s)", len(decls))

	results := make([]domain.ReconciliationResult, len(decls))
	done := make([]bool, len(decls))

	g, childCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for i, decl := range decls {
		if childCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := e.process(childCtx, decl, log)
			if err != nil {
				res.Error = err
			}
			results[i] = res
			done[i] = true
			if err != nil && !e.opts.ContinueOnError {
				return err
			}
			return nil
		})
	}
	runErr := g.Wait()

	final := make([]domain.ReconciliationResult, 0, len(results))
	failed := 0
	for i, res := range results {
		if !done[i] {
			continue
		}
		if res.Error != nil {
			failed++
		}
		final = append(final, res)
	}

	if runErr != nil {
		if stderrs.Is(runErr, context.Canceled) || stderrs.Is(runErr, context.DeadlineExceeded) {
			log.Warnf(ctx, "Converge run cancelled or timed out: %v", runErr)
		} else {
			log.Errorf(ctx, runErr, "converge run aborted")
		}
		if len(final) > 0 {
			if reportErr := e.reporter.Report(ctx, final); reportErr != nil {
				log.Errorf(ctx, reportErr, "failed to report partial results after error")
			}
		}
		return final, runErr
	}

	log.Infof(ctx, "Converge run completed, reporting %d results", len(final))
	if err := e.reporter.Report(ctx, final); err != nil {
		return final, errors.Wrap(err, errors.CodeReportError, "failed to generate final report")
	}
	if failed > 0 {
		return final, errors.NewUserFacing(errors.CodeInternal,
			fmt.Sprintf("%d of %d resource(s) failed", failed, len(final)), "See the report for details.")
	}
	return final, nil
}

// Gather reads one resource without modifying anything. params carries
// whatever the kind needs to locate the resource, such as a parent reference.
func (e *ConvergeEngine) Gather(ctx context.Context, kind domain.ResourceKind, id domain.Identity, params map[string]any) (domain.ReconciliationResult, error) {
	result := domain.ReconciliationResult{Kind: kind, Identity: id}
	handler, err := e.registry.GetHandler(kind)
	if err != nil {
		return result, err
	}
	attrs := maps.Clone(params)
	if attrs == nil {
		attrs = make(map[string]any)
	}
	desired := domain.DesiredState{Kind: kind, Identity: id, State: domain.StatePresent, Attributes: attrs}
	target, err := handler.Resolve(ctx, desired)
	if err != nil {
		return result, err
	}
	if target.Unresolved != nil {
		return result, target.Unresolved
	}
	if target.Binding == nil {
		return result, errors.NewUserFacing(errors.CodeValidation,
			fmt.Sprintf("%s is a list entry kind and has no standalone facts", kind), "Gather its parent object instead.")
	}
	res, err := e.reconciler.Gather(ctx, id, *target.Binding)
	if err != nil {
		return result, err
	}
	if err := e.reporter.Report(ctx, []domain.ReconciliationResult{res}); err != nil {
		return res, errors.Wrap(err, errors.CodeReportError, "failed to report facts")
	}
	return res, nil
}

func (e *ConvergeEngine) process(ctx context.Context, decl domain.Declaration, runLog ports.Logger) (domain.ReconciliationResult, error) {
	result := domain.ReconciliationResult{Kind: decl.Kind, Source: decl.Source, Checked: e.opts.CheckMode}
	if name, ok := decl.Params[domain.KeyName].(string); ok {
		result.Identity.Name = name
	}

	log := runLog.WithFields(map[string]any{"resource_kind": decl.Kind, "declared_at": decl.Source})

	handler, err := e.registry.GetHandler(decl.Kind)
	if err != nil {
		log.Errorf(ctx, err, "No handler for kind")
		return result, err
	}

	params, err := handler.Normalize(decl.Params)
	if err != nil {
		return result, err
	}
	desired, err := domain.NewDesiredState(decl.Kind, params)
	if err != nil {
		return result, errors.WrapUserFacing(err, errors.CodeValidation, "invalid declaration", "Fix the resource parameters.")
	}
	desired.Source = decl.Source
	result.Identity = desired.Identity

	target, err := handler.Resolve(ctx, desired)
	if err != nil {
		return result, err
	}

	return e.reconciler.ReconcileTarget(ctx, desired, target)
}
