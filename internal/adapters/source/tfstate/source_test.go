package tfstate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/appliance-converge/internal/core/domain"
	"github.com/olusolaa/appliance-converge/internal/errors"
	"github.com/olusolaa/appliance-converge/mocks"
)

func loadFile(t *testing.T, name string) ([]domain.Declaration, error) {
	t.Helper()
	src, err := NewSource(filepath.Join("testdata", name), mocks.NewPermissiveLogger())
	require.NoError(t, err)
	return src.Load(context.Background())
}

func byAddress(decls []domain.Declaration) map[string]domain.Declaration {
	out := make(map[string]domain.Declaration, len(decls))
	for _, d := range decls {
		out[d.Source] = d
	}
	return out
}

func TestSource_LoadState(t *testing.T) {
	decls, err := loadFile(t, "state.json")
	require.NoError(t, err)
	require.Len(t, decls, 4, "data sources, unknown types and unmapped monitor parents are skipped")

	// Root module first, then children.
	assert.Equal(t, "bigip_ltm_pool.web", decls[0].Source)

	got := byAddress(decls)

	pool := got["bigip_ltm_pool.web"]
	assert.Equal(t, domain.ResourceKind("ltm_pool"), pool.Kind)
	assert.Equal(t, map[string]any{
		"name":       "web-pool",
		"partition":  "Prod",
		"lb_method":  "least-connections-member",
		"monitor":    "/Common/http and /Common/tcp",
		"allow_snat": "yes",
	}, pool.Params)

	mon := got["bigip_ltm_monitor.http"]
	assert.Equal(t, domain.ResourceKind("ltm_monitor_http"), mon.Kind)
	assert.Equal(t, float64(5), mon.Params["interval"])

	vs := got["module.edge.bigip_ltm_virtual_server.https"]
	assert.Equal(t, domain.ResourceKind("ltm_virtual"), vs.Kind)
	assert.Equal(t, "10.0.0.10:443", vs.Params["destination"])
	assert.Equal(t, "automap", vs.Params["snat_type"])
	assert.Equal(t, true, vs.Params["enabled"])

	vlan := got["module.edge.bigip_net_vlan.external"]
	assert.Equal(t, []string{"1.1"}, vlan.Params["tagged_interfaces"])
	assert.Equal(t, []string{"1.2"}, vlan.Params["untagged_interfaces"])
}

func TestSource_LoadPlan(t *testing.T) {
	decls, err := loadFile(t, "plan.json")
	require.NoError(t, err)
	require.Len(t, decls, 1)
	assert.Equal(t, domain.ResourceKind("ltm_node"), decls[0].Kind)
	assert.Equal(t, "10.0.1.11", decls[0].Params["address"])
	_, hasLimit := decls[0].Params["connection_limit"]
	assert.False(t, hasLimit, "zero values are left to the appliance")
}

func TestSource_Errors(t *testing.T) {
	_, err := loadFile(t, "missing.json")
	assert.True(t, errors.Is(err, errors.CodeSourceReadError))

	_, err = loadFile(t, "truncated.json")
	assert.True(t, errors.Is(err, errors.CodeSourceParseError))

	empty := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	src, err := NewSource(empty, mocks.NewPermissiveLogger())
	require.NoError(t, err)
	_, err = src.Load(context.Background())
	assert.True(t, errors.Is(err, errors.CodeSourceParseError))

	_, err = NewSource("", mocks.NewPermissiveLogger())
	assert.True(t, errors.Is(err, errors.CodeConfigValidation))
}

func TestSource_CachesParse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	raw, err := os.ReadFile(filepath.Join("testdata", "plan.json"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	src, err := NewSource(path, mocks.NewPermissiveLogger())
	require.NoError(t, err)
	first, err := src.Load(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	second, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSource_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src, err := NewSource(filepath.Join("testdata", "state.json"), mocks.NewPermissiveLogger())
	require.NoError(t, err)
	_, err = src.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSplitFullPath(t *testing.T) {
	tests := []struct {
		in   string
		want domain.Identity
	}{
		{"plain", domain.Identity{Name: "plain", Partition: "Common"}},
		{"/Prod/web", domain.Identity{Name: "web", Partition: "Prod"}},
		{"/Prod/app.app/web", domain.Identity{Name: "web", Partition: "Prod", SubPath: "app.app"}},
		{"/only", domain.Identity{Name: "only", Partition: "Common"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, splitFullPath(tt.in))
		})
	}
}

func TestMappedKindsExist(t *testing.T) {
	assert.NotEmpty(t, SupportedTypes())
	for tfType, m := range typeMappings {
		if m.kindFor == nil {
			assert.NotEmpty(t, m.kind, tfType)
		}
	}
}
