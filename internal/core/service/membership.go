package service

import (
	"context"
	"fmt"
	"maps"

	"github.com/olusolaa/appliance-converge/internal/core/domain"
	"github.com/olusolaa/appliance-converge/internal/core/ports"
	"github.com/olusolaa/appliance-converge/internal/errors"
)

// memberPlan is the outcome of planning one entry against the loaded list.
// Entries is the complete list to persist when Action is not ActionNone.
type memberPlan struct {
	Action      domain.Action
	Entries     []map[string]any
	Differences []domain.AttributeDiff
}

// ReconcileMember converges one keyed entry inside a parent object's list.
// The parent is loaded once and, when the plan is non-empty, saved once.
func (r *Reconciler) ReconcileMember(ctx context.Context, desired domain.DesiredState, mb ports.MemberBinding) (domain.ReconciliationResult, error) {
	result := domain.ReconciliationResult{
		Kind:     desired.Kind,
		Identity: desired.Identity,
		Source:   desired.Source,
		Checked:  r.checkMode,
	}
	if mb.Load == nil || mb.Save == nil || mb.Key == nil || mb.KeyField == "" {
		return result, errors.New(errors.CodeConfiguration, fmt.Sprintf("membership binding for %s is incomplete", desired.Kind))
	}

	key := mb.Key(desired)
	if key == "" {
		if desired.State == domain.StateAbsent {
			return result, errors.NewUserFacing(errors.CodeConfiguration,
				fmt.Sprintf("no removable %s entry specified", desired.Kind),
				fmt.Sprintf("Set %s to the entry to remove.", mb.KeyField))
		}
		return result, errors.NewUserFacing(errors.CodeValidation,
			fmt.Sprintf("%s is required for %s", mb.KeyField, desired.Kind), "")
	}
	log := r.logger.WithFields(map[string]any{"resource_kind": desired.Kind, "resource": desired.Identity.FullPath(), "entry": key})

	entries, err := mb.Load(ctx, desired.Identity)
	if err != nil {
		return result, errors.Wrap(err, errors.CodeTransport, fmt.Sprintf("load %s list for %s failed", desired.Kind, desired.Identity))
	}

	plan, err := planMember(entries, key, desired, mb)
	if err != nil {
		return result, err
	}
	result.Differences = plan.Differences
	if plan.Action == domain.ActionNone {
		log.Debugf(ctx, "Entry already converged")
		return result, nil
	}

	result.Changed = true
	result.Actions = []domain.Action{plan.Action}
	if r.checkMode {
		return result, nil
	}
	if err := mb.Save(ctx, desired.Identity, plan.Entries); err != nil {
		return result, errors.Wrap(err, errors.CodeTransport, fmt.Sprintf("save %s list for %s failed", desired.Kind, desired.Identity))
	}
	log.Infof(ctx, "Entry %s: %s", key, plan.Action)
	return result, nil
}

func planMember(entries []map[string]any, key string, desired domain.DesiredState, mb ports.MemberBinding) (memberPlan, error) {
	idx := -1
	for i, e := range entries {
		if v, ok := e[mb.KeyField]; ok && fmt.Sprint(v) == key {
			idx = i
			break
		}
	}

	if desired.State == domain.StateAbsent {
		if idx < 0 {
			return memberPlan{Action: domain.ActionNone}, nil
		}
		out := make([]map[string]any, 0, len(entries)-1)
		out = append(out, entries[:idx]...)
		out = append(out, entries[idx+1:]...)
		return memberPlan{Action: domain.ActionDelete, Entries: out}, nil
	}

	if idx < 0 {
		entry := make(map[string]any, len(desired.Attributes)+1)
		for k, v := range desired.Attributes {
			if _, skip := mb.IgnoreFields[k]; skip {
				continue
			}
			entry[k] = v
		}
		entry[mb.KeyField] = key
		out := make([]map[string]any, 0, len(entries)+1)
		out = append(out, entries...)
		out = append(out, entry)
		return memberPlan{Action: domain.ActionCreate, Entries: out}, nil
	}

	ignore := maps.Clone(mb.IgnoreFields)
	if ignore == nil {
		ignore = make(map[string]struct{})
	}
	ignore[mb.KeyField] = struct{}{}
	diffs, err := Diff(desired.Attributes, entries[idx], ignore, mb.SetFields)
	if err != nil {
		return memberPlan{}, err
	}
	if len(diffs) == 0 {
		return memberPlan{Action: domain.ActionNone}, nil
	}

	merged := maps.Clone(entries[idx])
	for _, d := range diffs {
		merged[d.AttributeName] = d.ExpectedValue
	}
	out := make([]map[string]any, len(entries))
	copy(out, entries)
	out[idx] = merged
	return memberPlan{Action: domain.ActionUpdate, Entries: out, Differences: diffs}, nil
}
