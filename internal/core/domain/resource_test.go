package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDesiredStateDefaults(t *testing.T) {
	ds, err := NewDesiredState("ltm_pool", map[string]any{
		"name":    "pool1",
		"monitor": "http",
	})
	require.NoError(t, err)

	assert.Equal(t, "pool1", ds.Identity.Name)
	assert.Equal(t, DefaultPartition, ds.Identity.Partition)
	assert.Equal(t, StatePresent, ds.State)
	assert.Equal(t, map[string]any{"monitor": "http"}, ds.Attributes)
	assert.Equal(t, "/Common/pool1", ds.Identity.FullPath())
}

func TestNewDesiredStateHierarchical(t *testing.T) {
	ds, err := NewDesiredState("ltm_policy_rule", map[string]any{
		"name":      "rule1",
		"partition": "/Tenant/",
		"sub_path":  "Drafts",
		"state":     "absent",
	})
	require.NoError(t, err)

	assert.Equal(t, StateAbsent, ds.State)
	assert.Equal(t, "/Tenant/Drafts/rule1", ds.Identity.FullPath())
	assert.Empty(t, ds.Attributes)
}

func TestNewDesiredStateRejectsBadState(t *testing.T) {
	_, err := NewDesiredState("ltm_pool", map[string]any{"name": "p", "state": "gone"})
	assert.ErrorContains(t, err, "state must be one of")

	_, err = NewDesiredState("ltm_pool", map[string]any{"name": 3})
	assert.Error(t, err)
}

func TestParamsRoundTripIncludesReservedKeys(t *testing.T) {
	ds, err := NewDesiredState("ltm_pool", map[string]any{"name": "p", "monitor": "tcp"})
	require.NoError(t, err)

	params := ds.Params()
	assert.Equal(t, "p", params[KeyName])
	assert.Equal(t, "Common", params[KeyPartition])
	assert.Equal(t, "present", params[KeyState])
	assert.Equal(t, "tcp", params["monitor"])
	assert.NotContains(t, ds.Attributes, KeyName)
}

func TestIsReservedKey(t *testing.T) {
	assert.True(t, IsReservedKey("partition"))
	assert.False(t, IsReservedKey("monitor"))
}
