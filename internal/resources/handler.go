package resources

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"strings"

	"github.com/olusolaa/appliance-converge/internal/core/domain"
	"github.com/olusolaa/appliance-converge/internal/core/ports"
	"github.com/olusolaa/appliance-converge/internal/errors"
	"github.com/olusolaa/appliance-converge/internal/schema"
)

// Handler binds one Definition to an appliance client.
type Handler struct {
	def    Definition
	client ports.ApplianceClient
	logger ports.Logger
}

var _ ports.KindHandler = (*Handler)(nil)

func NewHandler(def Definition, client ports.ApplianceClient, logger ports.Logger) *Handler {
	if def.Schema == nil {
		def.Schema = &schema.Schema{}
	}
	return &Handler{
		def:    def,
		client: client,
		logger: logger.WithFields(map[string]any{"component": "resource_handler", "resource_kind": def.Kind}),
	}
}

func (h *Handler) Kind() domain.ResourceKind { return h.def.Kind }

func (h *Handler) Definition() Definition { return h.def }

// Normalize validates params against the kind's schema and qualifies object
// references with the declared partition.
func (h *Handler) Normalize(params map[string]any) (map[string]any, error) {
	p := maps.Clone(params)
	if p == nil {
		p = make(map[string]any)
	}
	if h.def.FixedName != "" {
		if name, _ := p[domain.KeyName].(string); name == "" {
			p[domain.KeyName] = h.def.FixedName
		}
	}

	out, err := h.def.Schema.Validate(p)
	if err != nil {
		msg, suggestion, _ := errors.GetUserFacingMessage(err)
		return nil, errors.WrapUserFacing(err, errors.CodeValidation, fmt.Sprintf("%s: %s", h.def.Kind, msg), suggestion)
	}

	partition, _ := out[domain.KeyPartition].(string)
	for _, f := range h.def.Schema.Fields {
		if v, ok := out[f.Name]; ok && f.Reference {
			out[f.Name] = qualifyValue(partition, v)
		}
	}
	return out, nil
}

// Resolve builds the target for desired, looking the parent up first for
// child kinds. A missing parent leaves the target Unresolved with a
// RESOURCE_NOT_FOUND error and a binding that sees the child as absent.
func (h *Handler) Resolve(ctx context.Context, desired domain.DesiredState) (ports.Target, error) {
	if h.def.Member != nil {
		mb := h.memberBinding()
		return ports.Target{Member: &mb}, nil
	}
	if h.def.Scope != ScopeChild {
		b := h.binding(h.def.Collection)
		return ports.Target{Binding: &b}, nil
	}

	parentPath, err := h.parentPath(desired)
	if err != nil {
		return ports.Target{}, err
	}
	b := h.binding(parentPath + "/" + h.def.Parent.SubCollection)

	found, err := h.parentExists(ctx, parentPath)
	if err != nil {
		return ports.Target{}, err
	}
	if found {
		return ports.Target{Binding: &b}, nil
	}

	ref := h.def.Parent
	missing := errors.NewUserFacing(errors.CodeResourceNotFound,
		fmt.Sprintf("parent %s %s does not exist", ref.Kind, parentDisplay(parentPath)),
		fmt.Sprintf("Declare the %s before its children.", ref.Kind))
	b.Exists = func(context.Context, domain.Identity) (bool, error) { return false, nil }
	b.Read = func(context.Context, domain.Identity) (domain.RemoteResource, error) {
		return domain.RemoteResource{}, missing
	}
	return ports.Target{Binding: &b, Unresolved: missing}, nil
}

func (h *Handler) parentPath(desired domain.DesiredState) (string, error) {
	ref := h.def.Parent
	name, _ := desired.Attributes[ref.Param].(string)
	if name == "" {
		return "", errors.NewUserFacing(errors.CodeValidation,
			fmt.Sprintf("%s requires parameter %s", h.def.Kind, ref.Param),
			fmt.Sprintf("Set %s to the parent %s.", ref.Param, ref.Kind))
	}
	parentID := ParseReference(Qualify(desired.Identity.Partition, name))
	return ref.Collection + "/" + tildePath(parentID), nil
}

func (h *Handler) parentExists(ctx context.Context, parentPath string) (bool, error) {
	if err := h.client.Get(ctx, parentPath+"?$select=name", nil); err != nil {
		if errors.IsNotFound(err) {
			h.logger.Debugf(ctx, "Parent %s is missing", parentPath)
			return false, nil
		}
		return false, err
	}
	h.logger.Debugf(ctx, "Resolved parent %s", parentPath)
	return true, nil
}

// parentDisplay turns "ltm/policy/~Common~p1" into "/Common/p1".
func parentDisplay(parentPath string) string {
	if i := strings.LastIndexByte(parentPath, '/'); i >= 0 {
		parentPath = parentPath[i+1:]
	}
	return strings.ReplaceAll(parentPath, "~", "/")
}

// ObjectPath returns the REST path of id within collection.
func (h *Handler) ObjectPath(collection string, id domain.Identity) string {
	switch h.def.Scope {
	case ScopeSingleton:
		return collection
	case ScopeGlobal, ScopeChild:
		return collection + "/" + id.Name
	default:
		return collection + "/" + tildePath(id)
	}
}

func (h *Handler) binding(collection string) ports.Binding {
	s := h.def.Schema
	b := ports.Binding{
		Kind:         h.def.Kind,
		SetFields:    s.Names(func(f schema.Field) bool { return f.Set }),
		IgnoreFields: s.Names(func(f schema.Field) bool { return f.WriteOnly || f.Control }),
	}

	switch {
	case h.def.Scope == ScopeSingleton:
		b.Exists = func(context.Context, domain.Identity) (bool, error) { return true, nil }
	case !h.def.ExistsByRead:
		b.Exists = func(ctx context.Context, id domain.Identity) (bool, error) {
			err := h.client.Get(ctx, h.ObjectPath(collection, id)+"?$select=name", nil)
			if errors.IsNotFound(err) {
				return false, nil
			}
			return err == nil, err
		}
	}

	b.Read = func(ctx context.Context, id domain.Identity) (domain.RemoteResource, error) {
		var obj map[string]any
		if err := h.client.Get(ctx, h.ObjectPath(collection, id), &obj); err != nil {
			return domain.RemoteResource{}, err
		}
		return h.remote(id, obj), nil
	}

	if h.def.Ops.Has(OpCreate) {
		b.Create = func(ctx context.Context, desired domain.DesiredState) (domain.RemoteResource, error) {
			var obj map[string]any
			if err := h.client.Create(ctx, collection, h.body(desired, true), &obj); err != nil {
				return domain.RemoteResource{}, err
			}
			return h.remote(desired.Identity, obj), nil
		}
	}
	if h.def.Ops.Has(OpUpdate) {
		b.Update = func(ctx context.Context, id domain.Identity, desired domain.DesiredState) (domain.RemoteResource, error) {
			var obj map[string]any
			if err := h.client.Update(ctx, h.ObjectPath(collection, id), h.body(desired, false), &obj); err != nil {
				return domain.RemoteResource{}, err
			}
			return h.remote(id, obj), nil
		}
	}
	if h.def.Ops.Has(OpDelete) {
		b.Delete = func(ctx context.Context, id domain.Identity) error {
			return h.client.Delete(ctx, h.ObjectPath(collection, id))
		}
	}

	if t := h.def.Transition; t != nil {
		b.Transition = &ports.Transition{
			Key: t.Param,
			Current: func(remote domain.RemoteResource) string {
				s, _ := remote.Attributes[t.Param].(string)
				return s
			},
			Apply: func(ctx context.Context, id domain.Identity, target string) error {
				call, err := t.Call(collection, h.ObjectPath(collection, id), id, target)
				if err != nil {
					return err
				}
				if call.Method == http.MethodPatch {
					return h.client.Update(ctx, call.Path, call.Body, nil)
				}
				return h.client.Command(ctx, call.Path, call.Body, nil)
			},
		}
	}
	return b
}

// body builds the request payload. Identity fields are only sent on create;
// updates address the object by path.
func (h *Handler) body(desired domain.DesiredState, withIdentity bool) map[string]any {
	body := make(map[string]any, len(desired.Attributes)+3)
	if withIdentity {
		switch h.def.Scope {
		case ScopePartition:
			body["name"] = desired.Identity.Name
			body["partition"] = desired.Identity.Partition
			if desired.Identity.SubPath != "" {
				body["subPath"] = desired.Identity.SubPath
			}
		case ScopeGlobal, ScopeChild:
			body["name"] = desired.Identity.Name
		}
	}
	encodeAttributes(h.def.Schema, desired.Attributes, body)
	if h.def.Hooks.ToAPI != nil {
		h.def.Hooks.ToAPI(body, desired.Attributes)
	}
	return body
}

func (h *Handler) remote(id domain.Identity, obj map[string]any) domain.RemoteResource {
	attrs := decodeAttributes(h.def.Schema, obj, false)
	if h.def.Hooks.FromAPI != nil {
		h.def.Hooks.FromAPI(attrs, obj)
	}
	return domain.RemoteResource{Identity: id, Attributes: attrs}
}

func (h *Handler) memberBinding() ports.MemberBinding {
	m := h.def.Member
	s := h.def.Schema
	return ports.MemberBinding{
		Kind:         h.def.Kind,
		KeyField:     m.KeyParam,
		SetFields:    s.Names(func(f schema.Field) bool { return f.Set }),
		IgnoreFields: s.Names(func(f schema.Field) bool { return f.WriteOnly || f.Control }),
		Key: func(desired domain.DesiredState) string {
			if m.KeyFromIdentity {
				if desired.Identity.Name == "" {
					return ""
				}
				return desired.Identity.FullPath()
			}
			v, _ := desired.Attributes[m.KeyParam].(string)
			return v
		},
		Load: func(ctx context.Context, parent domain.Identity) ([]map[string]any, error) {
			var obj map[string]any
			if err := h.client.Get(ctx, m.ParentPath(parent), &obj); err != nil {
				return nil, err
			}
			raw, _ := obj[m.ListAttr].([]any)
			entries := make([]map[string]any, 0, len(raw))
			for _, r := range raw {
				e, ok := r.(map[string]any)
				if !ok {
					return nil, errors.New(errors.CodeTransport, fmt.Sprintf("unexpected %s entry %v", m.ListAttr, r))
				}
				entries = append(entries, decodeAttributes(s, e, true))
			}
			return entries, nil
		},
		Save: func(ctx context.Context, parent domain.Identity, entries []map[string]any) error {
			list := make([]map[string]any, len(entries))
			for i, e := range entries {
				body := make(map[string]any, len(e))
				encodeAttributes(s, e, body)
				list[i] = body
			}
			return h.client.Update(ctx, m.ParentPath(parent), map[string]any{m.ListAttr: list}, nil)
		},
	}
}
