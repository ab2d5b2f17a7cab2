package service

import (
	"fmt"
	"sort"
	"sync"

	"github.com/olusolaa/appliance-converge/internal/core/domain"
	"github.com/olusolaa/appliance-converge/internal/core/ports"
	"github.com/olusolaa/appliance-converge/internal/errors"
)

type ComponentRegistry struct {
	mu       sync.RWMutex
	sources  map[string]ports.DesiredStateSource
	handlers map[domain.ResourceKind]ports.KindHandler
}

func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		sources:  make(map[string]ports.DesiredStateSource),
		handlers: make(map[domain.ResourceKind]ports.KindHandler),
	}
}

func (r *ComponentRegistry) RegisterSource(source ports.DesiredStateSource) error {
	if source == nil {
		return errors.New(errors.CodeInternal, "attempted to register nil desired state source")
	}
	sourceType := source.Type()
	if sourceType == "" {
		return errors.New(errors.CodeInternal, "desired state source type cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sources[sourceType]; exists {
		return errors.New(errors.CodeInternal, fmt.Sprintf("desired state source type '%s' already registered", sourceType))
	}
	r.sources[sourceType] = source
	return nil
}

func (r *ComponentRegistry) GetSource(sourceType string) (ports.DesiredStateSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	source, exists := r.sources[sourceType]
	if !exists {
		return nil, errors.New(errors.CodeConfigValidation, fmt.Sprintf("desired state source type '%s' not found", sourceType))
	}
	return source, nil
}

func (r *ComponentRegistry) RegisterHandler(handler ports.KindHandler) error {
	if handler == nil {
		return errors.New(errors.CodeInternal, "attempted to register nil kind handler")
	}
	kind := handler.Kind()
	if kind == "" {
		return errors.New(errors.CodeInternal, "kind handler kind cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[kind]; exists {
		return errors.New(errors.CodeInternal, fmt.Sprintf("kind handler for '%s' already registered", kind))
	}
	r.handlers[kind] = handler
	return nil
}

func (r *ComponentRegistry) GetHandler(kind domain.ResourceKind) (ports.KindHandler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handler, exists := r.handlers[kind]
	if !exists {
		return nil, errors.NewUserFacing(errors.CodeNotImplemented,
			fmt.Sprintf("resource kind '%s' is not supported", kind),
			"Run 'converge kinds' to list supported kinds.")
	}
	return handler, nil
}

// Kinds lists registered kinds in lexical order.
func (r *ComponentRegistry) Kinds() []domain.ResourceKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ResourceKind, 0, len(r.handlers))
	for k := range r.handlers {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
