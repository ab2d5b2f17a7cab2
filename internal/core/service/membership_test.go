package service

import (
	"context"
	"maps"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/appliance-converge/internal/core/domain"
	"github.com/olusolaa/appliance-converge/internal/core/ports"
	"github.com/olusolaa/appliance-converge/internal/errors"
	"github.com/olusolaa/appliance-converge/internal/log"
)

type fakeList struct {
	entries []map[string]any
	loads   int
	saves   int
}

func (f *fakeList) binding() ports.MemberBinding {
	return ports.MemberBinding{
		Kind:     "test_server",
		KeyField: "name",
		Key:      func(d domain.DesiredState) string { return d.Identity.Name },
		Load: func(ctx context.Context, parent domain.Identity) ([]map[string]any, error) {
			f.loads++
			out := make([]map[string]any, len(f.entries))
			for i, e := range f.entries {
				out[i] = maps.Clone(e)
			}
			return out, nil
		},
		Save: func(ctx context.Context, parent domain.Identity, entries []map[string]any) error {
			f.saves++
			f.entries = entries
			return nil
		},
	}
}

func member(state domain.State, name string, attrs map[string]any) domain.DesiredState {
	return domain.DesiredState{
		Kind:       "test_server",
		Identity:   domain.Identity{Name: name, Partition: "Common"},
		State:      state,
		Attributes: attrs,
	}
}

func TestReconcileMemberAddIsIdempotent(t *testing.T) {
	list := &fakeList{entries: []map[string]any{{"name": "/Common/a", "host": "10.0.0.1"}}}
	r := NewReconciler(log.Nop())
	want := member(domain.StatePresent, "/Common/b", map[string]any{"host": "10.0.0.2", "remote_port": 514})

	res, err := r.ReconcileMember(context.Background(), want, list.binding())
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, domain.ActionCreate, res.Primary())
	require.Len(t, list.entries, 2)
	assert.Equal(t, "/Common/b", list.entries[1]["name"])

	res, err = r.ReconcileMember(context.Background(), want, list.binding())
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, 1, list.saves)
	assert.Len(t, list.entries, 2)
}

func TestReconcileMemberUpdatePreservesUnnamedFields(t *testing.T) {
	list := &fakeList{entries: []map[string]any{{"name": "/Common/a", "host": "10.0.0.1", "local_ip": "10.1.1.1"}}}
	r := NewReconciler(log.Nop())

	res, err := r.ReconcileMember(context.Background(),
		member(domain.StatePresent, "/Common/a", map[string]any{"host": "10.0.0.9"}), list.binding())
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, domain.ActionUpdate, res.Primary())
	assert.Equal(t, map[string]any{"name": "/Common/a", "host": "10.0.0.9", "local_ip": "10.1.1.1"}, list.entries[0])
}

func TestReconcileMemberRemove(t *testing.T) {
	list := &fakeList{entries: []map[string]any{{"name": "/Common/a"}, {"name": "/Common/b"}}}
	r := NewReconciler(log.Nop())

	res, err := r.ReconcileMember(context.Background(), member(domain.StateAbsent, "/Common/a", nil), list.binding())
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, []map[string]any{{"name": "/Common/b"}}, list.entries)

	res, err = r.ReconcileMember(context.Background(), member(domain.StateAbsent, "/Common/a", nil), list.binding())
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, 1, list.saves)
}

func TestReconcileMemberAbsentWithoutKey(t *testing.T) {
	list := &fakeList{}
	_, err := NewReconciler(log.Nop()).ReconcileMember(context.Background(), member(domain.StateAbsent, "", nil), list.binding())
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfiguration, errors.GetCode(err))
	assert.Zero(t, list.loads)
}

func TestReconcileMemberCheckMode(t *testing.T) {
	list := &fakeList{}
	res, err := NewReconciler(log.Nop(), WithCheckMode(true)).ReconcileMember(context.Background(),
		member(domain.StatePresent, "/Common/a", map[string]any{"host": "h"}), list.binding())
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Zero(t, list.saves)
	assert.Empty(t, list.entries)
}
