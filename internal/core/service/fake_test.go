package service

import (
	"context"
	"maps"
	"sync"

	"github.com/olusolaa/appliance-converge/internal/core/domain"
	"github.com/olusolaa/appliance-converge/internal/core/ports"
	"github.com/olusolaa/appliance-converge/internal/errors"
)

// fakeStore is an in-memory appliance collection that counts calls per
// operation and can be told to fail one of them.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string]map[string]any
	calls   map[string]int
	fail    map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		objects: make(map[string]map[string]any),
		calls:   make(map[string]int),
		fail:    make(map[string]error),
	}
}

func (f *fakeStore) seed(id domain.Identity, attrs map[string]any) {
	f.objects[id.FullPath()] = maps.Clone(attrs)
}

func (f *fakeStore) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.fail[op]
}

func (f *fakeStore) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeStore) mutations() int {
	return f.count("create") + f.count("update") + f.count("delete") + f.count("transition")
}

func (f *fakeStore) binding() ports.Binding {
	return ports.Binding{
		Kind: "test_pool",
		Exists: func(ctx context.Context, id domain.Identity) (bool, error) {
			if err := f.record("exists"); err != nil {
				return false, err
			}
			_, ok := f.objects[id.FullPath()]
			return ok, nil
		},
		Read: func(ctx context.Context, id domain.Identity) (domain.RemoteResource, error) {
			if err := f.record("read"); err != nil {
				return domain.RemoteResource{}, err
			}
			obj, ok := f.objects[id.FullPath()]
			if !ok {
				return domain.RemoteResource{}, errors.New(errors.CodeResourceNotFound, id.FullPath()+" not found")
			}
			return domain.RemoteResource{Identity: id, Attributes: maps.Clone(obj)}, nil
		},
		Create: func(ctx context.Context, desired domain.DesiredState) (domain.RemoteResource, error) {
			if err := f.record("create"); err != nil {
				return domain.RemoteResource{}, err
			}
			obj := maps.Clone(desired.Attributes)
			delete(obj, "status")
			f.objects[desired.Identity.FullPath()] = obj
			return domain.RemoteResource{Identity: desired.Identity, Attributes: maps.Clone(obj)}, nil
		},
		Update: func(ctx context.Context, id domain.Identity, desired domain.DesiredState) (domain.RemoteResource, error) {
			if err := f.record("update"); err != nil {
				return domain.RemoteResource{}, err
			}
			obj := f.objects[id.FullPath()]
			for k, v := range desired.Attributes {
				if k == "status" {
					continue
				}
				obj[k] = v
			}
			return domain.RemoteResource{Identity: id, Attributes: maps.Clone(obj)}, nil
		},
		Delete: func(ctx context.Context, id domain.Identity) error {
			if err := f.record("delete"); err != nil {
				return err
			}
			delete(f.objects, id.FullPath())
			return nil
		},
	}
}

// withTransition adds a draft/published style substate stored in "status",
// which create and update never write.
func (f *fakeStore) withTransition(b ports.Binding) ports.Binding {
	b.Transition = &ports.Transition{
		Key: "status",
		Current: func(remote domain.RemoteResource) string {
			s, _ := remote.Attributes["status"].(string)
			return s
		},
		Apply: func(ctx context.Context, id domain.Identity, target string) error {
			if err := f.record("transition"); err != nil {
				return err
			}
			f.objects[id.FullPath()]["status"] = target
			return nil
		},
	}
	return b
}

func desired(state domain.State, attrs map[string]any) domain.DesiredState {
	return domain.DesiredState{
		Kind:       "test_pool",
		Identity:   domain.Identity{Name: "pool1", Partition: "Common"},
		State:      state,
		Attributes: attrs,
	}
}
