package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/olusolaa/appliance-converge/internal/core/domain"
	"github.com/olusolaa/appliance-converge/internal/core/ports"
	"github.com/olusolaa/appliance-converge/internal/errors"
	"github.com/olusolaa/appliance-converge/pkg/compare"
)

// Reconciler converges one named resource to its desired state with a single
// existence check, an optional read, a comparison and at most one mutating
// call (plus one transition). It keeps no state between calls.
type Reconciler struct {
	logger    ports.Logger
	checkMode bool
}

type ReconcilerOption func(*Reconciler)

// WithCheckMode makes the reconciler plan changes without issuing them.
func WithCheckMode(enabled bool) ReconcilerOption {
	return func(r *Reconciler) {
		r.checkMode = enabled
	}
}

func NewReconciler(logger ports.Logger, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reconciler) Reconcile(ctx context.Context, desired domain.DesiredState, b ports.Binding) (domain.ReconciliationResult, error) {
	result := domain.ReconciliationResult{
		Kind:     desired.Kind,
		Identity: desired.Identity,
		Source:   desired.Source,
		Checked:  r.checkMode,
	}
	id := desired.Identity
	log := r.logger.WithFields(map[string]any{"resource_kind": desired.Kind, "resource": id.FullPath()})

	if err := precheck(desired, b); err != nil {
		return result, err
	}

	exists, remote, err := r.exists(ctx, id, b)
	if err != nil {
		return result, errors.Wrap(err, errors.CodeTransport, fmt.Sprintf("existence check for %s %s failed", desired.Kind, id))
	}
	log.Debugf(ctx, "Existence check: exists=%t", exists)

	if desired.State == domain.StateAbsent {
		if !exists {
			log.Debugf(ctx, "Resource already absent")
			return result, nil
		}
		result.Changed = true
		result.Actions = append(result.Actions, domain.ActionDelete)
		if r.checkMode {
			return result, nil
		}
		if err := b.Delete(ctx, id); err != nil {
			return result, errors.Wrap(err, errors.CodeTransport, fmt.Sprintf("delete %s %s failed", desired.Kind, id))
		}
		log.Infof(ctx, "Deleted")
		return result, nil
	}

	if !exists {
		if b.Create == nil {
			return result, errors.NewUserFacing(errors.CodeValidation,
				fmt.Sprintf("%s %s does not exist and this kind cannot be created", desired.Kind, id),
				"Create the object on the appliance first or correct its name.")
		}
		result.Changed = true
		result.Actions = append(result.Actions, domain.ActionCreate)
		if r.checkMode {
			return result, nil
		}
		created, err := b.Create(ctx, desired)
		if err != nil {
			return result, errors.Wrap(err, errors.CodeTransport, fmt.Sprintf("create %s %s failed", desired.Kind, id))
		}
		log.Infof(ctx, "Created")
		return r.transition(ctx, desired, b, created, result, log)
	}

	if remote == nil {
		if b.Read == nil {
			return result, errors.New(errors.CodeConfiguration, fmt.Sprintf("binding for %s has no read operation", desired.Kind))
		}
		read, err := b.Read(ctx, id)
		if err != nil {
			return result, errors.Wrap(err, errors.CodeTransport, fmt.Sprintf("read %s %s failed", desired.Kind, id))
		}
		remote = &read
	}

	diffs, err := Diff(desired.Attributes, remote.Attributes, excludedFields(b), b.SetFields)
	if err != nil {
		return result, err
	}
	result.Differences = diffs

	if len(diffs) == 0 {
		log.Debugf(ctx, "No attribute differences")
		return r.transition(ctx, desired, b, *remote, result, log)
	}

	if b.Update == nil {
		return result, errors.NewUserFacing(errors.CodeValidation,
			fmt.Sprintf("%s %s differs from the desired state but this kind cannot be updated", desired.Kind, id),
			"Remove the differing parameters or recreate the object.")
	}
	result.Changed = true
	result.Actions = append(result.Actions, domain.ActionUpdate)
	if r.checkMode {
		return r.transition(ctx, desired, b, *remote, result, log)
	}
	updated, err := b.Update(ctx, id, desired)
	if err != nil {
		return result, errors.Wrap(err, errors.CodeTransport, fmt.Sprintf("update %s %s failed", desired.Kind, id))
	}
	log.Infof(ctx, "Updated %d attribute(s)", len(diffs))
	if len(updated.Attributes) == 0 {
		updated = *remote
	}
	return r.transition(ctx, desired, b, updated, result, log)
}

// ReconcileTarget dispatches to Reconcile or ReconcileMember. An unresolved
// target fails outside check mode; in check mode the child is planned
// against a parent that does not exist yet.
func (r *Reconciler) ReconcileTarget(ctx context.Context, desired domain.DesiredState, target ports.Target) (domain.ReconciliationResult, error) {
	switch {
	case target.Member != nil:
		return r.ReconcileMember(ctx, desired, *target.Member)
	case target.Binding == nil:
		return domain.ReconciliationResult{Kind: desired.Kind, Identity: desired.Identity, Source: desired.Source},
			errors.New(errors.CodeInternal, fmt.Sprintf("kind %s resolved to an empty target", desired.Kind))
	case target.Unresolved != nil && !r.checkMode:
		return domain.ReconciliationResult{Kind: desired.Kind, Identity: desired.Identity, Source: desired.Source},
			target.Unresolved
	case target.Unresolved != nil:
		r.logger.Debugf(ctx, "Planning %s %s under a missing parent: %v", desired.Kind, desired.Identity, target.Unresolved)
	}
	return r.Reconcile(ctx, desired, *target.Binding)
}

// Gather reads the resource and returns its attributes as facts.
func (r *Reconciler) Gather(ctx context.Context, id domain.Identity, b ports.Binding) (domain.ReconciliationResult, error) {
	result := domain.ReconciliationResult{Kind: b.Kind, Identity: id}
	if b.Read == nil {
		return result, errors.NewUserFacing(errors.CodeValidation,
			fmt.Sprintf("%s does not support reading", b.Kind), "")
	}
	remote, err := b.Read(ctx, id)
	if err != nil {
		return result, errors.Wrap(err, errors.CodeTransport, fmt.Sprintf("read %s %s failed", b.Kind, id))
	}
	result.Facts = remote.Attributes
	return result, nil
}

func precheck(desired domain.DesiredState, b ports.Binding) error {
	if desired.Identity.Name == "" {
		return errors.NewUserFacing(errors.CodeValidation, "name is required", "Set the name parameter.")
	}
	if b.Exists == nil && b.Read == nil {
		return errors.New(errors.CodeConfiguration, fmt.Sprintf("binding for %s can neither check existence nor read", desired.Kind))
	}
	switch desired.State {
	case domain.StateAbsent:
		if b.Delete == nil {
			return errors.NewUserFacing(errors.CodeValidation,
				fmt.Sprintf("%s cannot be deleted", desired.Kind),
				"Use state=present for this kind.")
		}
	case domain.StatePresent:
		if b.Create == nil && b.Update == nil {
			return errors.NewUserFacing(errors.CodeValidation,
				fmt.Sprintf("%s is read-only", desired.Kind), "Use the facts command to inspect it.")
		}
	default:
		return errors.NewUserFacing(errors.CodeValidation, fmt.Sprintf("unsupported state %q", desired.State), "Use present or absent.")
	}
	return nil
}

// exists uses the binding's existence check, or a read that treats not-found
// as absence when the kind has none. The read result is returned for reuse.
func (r *Reconciler) exists(ctx context.Context, id domain.Identity, b ports.Binding) (bool, *domain.RemoteResource, error) {
	if b.Exists != nil {
		ok, err := b.Exists(ctx, id)
		if errors.IsNotFound(err) {
			return false, nil, nil
		}
		return ok, nil, err
	}
	remote, err := b.Read(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return false, nil, nil
		}
		return false, nil, err
	}
	return true, &remote, nil
}

func (r *Reconciler) transition(ctx context.Context, desired domain.DesiredState, b ports.Binding, remote domain.RemoteResource, result domain.ReconciliationResult, log ports.Logger) (domain.ReconciliationResult, error) {
	t := b.Transition
	if t == nil {
		return result, nil
	}
	target, _ := desired.Attributes[t.Key].(string)
	if target == "" {
		return result, nil
	}
	current := ""
	if t.Current != nil {
		current = t.Current(remote)
	}
	if current == target {
		return result, nil
	}
	if t.Apply == nil {
		return result, errors.NewUserFacing(errors.CodeValidation,
			fmt.Sprintf("%s does not support moving to %s", desired.Kind, target), "")
	}

	result.Changed = true
	result.Actions = append(result.Actions, domain.ActionTransition)
	result.Differences = append(result.Differences, domain.AttributeDiff{
		AttributeName: t.Key,
		ExpectedValue: target,
		ActualValue:   current,
		Details:       fmt.Sprintf("transition %s -> %s", current, target),
	})
	if r.checkMode {
		return result, nil
	}
	if err := t.Apply(ctx, desired.Identity, target); err != nil {
		return result, errors.Wrap(err, errors.CodeTransport, fmt.Sprintf("transition %s %s to %s failed", desired.Kind, desired.Identity, target))
	}
	log.Infof(ctx, "Transitioned %s -> %s", current, target)
	return result, nil
}

func excludedFields(b ports.Binding) map[string]struct{} {
	out := make(map[string]struct{}, len(b.IgnoreFields)+1)
	for k := range b.IgnoreFields {
		out[k] = struct{}{}
	}
	if b.Transition != nil {
		out[b.Transition.Key] = struct{}{}
	}
	return out
}

// Diff compares every desired attribute with the remote value. Reserved keys
// and ignored fields are skipped; attributes only present remotely never
// produce a difference. Results are sorted by attribute name.
func Diff(desired, remote map[string]any, ignore, setFields map[string]struct{}) ([]domain.AttributeDiff, error) {
	keys := make([]string, 0, len(desired))
	for k := range desired {
		if domain.IsReservedKey(k) {
			continue
		}
		if _, skip := ignore[k]; skip {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var diffs []domain.AttributeDiff
	for _, k := range keys {
		want := desired[k]
		have, haveOK := remote[k]
		_, unordered := setFields[k]

		var equal bool
		var err error
		if unordered {
			equal, err = compare.UnorderedCompare(want, have, true, haveOK)
		} else {
			equal, err = compare.RobustCompare(want, have, true, haveOK)
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeConfiguration, fmt.Sprintf("cannot compare attribute %s", k))
		}
		if equal {
			continue
		}
		diffs = append(diffs, domain.AttributeDiff{
			AttributeName: k,
			ExpectedValue: want,
			ActualValue:   have,
			Details:       compare.Describe(want, have, unordered),
		})
	}
	return diffs, nil
}
