package app

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/appliance-converge/internal/adapters/source/inline"
	"github.com/olusolaa/appliance-converge/internal/config"
	"github.com/olusolaa/appliance-converge/internal/core/domain"
	"github.com/olusolaa/appliance-converge/internal/errors"
	"github.com/olusolaa/appliance-converge/internal/log"
)

const sampleConfig = `
settings:
  log_level: debug
  concurrency: 2
appliance:
  driver: memory
  snapshot: testdata/snapshot.yaml
reporter:
  type: json
  json:
    compact: true
resources:
  - kind: ltm_pool
    params:
      name: web
      lb_method: least-connections-member
`

func loadViper(t *testing.T, doc string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(doc)))
	return v
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(loadViper(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, log.LevelDebug, cfg.Settings.LogLevel)
	assert.Equal(t, log.FormatText, cfg.Settings.LogFormat, "defaults survive")
	assert.Equal(t, 2, cfg.Settings.Concurrency)
	assert.Equal(t, config.DriverMemory, cfg.Appliance.Driver)
	assert.Equal(t, "mgmt/tm", cfg.Appliance.BasePath)
	assert.True(t, cfg.Reporter.JSON.Compact)
	require.Len(t, cfg.Resources, 1)
	assert.Equal(t, "ltm_pool", cfg.Resources[0].Kind)
	assert.Equal(t, "web", cfg.Resources[0].Params["name"])
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := LoadConfig(loadViper(t, "settings:\n  concurrency: 0\n"))
	assert.True(t, errors.Is(err, errors.CodeConfigValidation))
}

func memoryConfig(check bool) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Settings.CheckMode = check
	cfg.Appliance.Driver = config.DriverMemory
	cfg.Appliance.Snapshot = filepath.Join("testdata", "snapshot.yaml")
	cfg.Reporter.Type = "json"
	cfg.Resources = []inline.Entry{
		{Kind: "ltm_pool", Params: map[string]any{"name": "web", "lb_method": "least-connections-member"}},
		{Kind: "ltm_node", Params: map[string]any{"name": "app1", "address": "10.0.1.11"}},
	}
	return cfg
}

func TestBuild_RunAgainstMemoryAppliance(t *testing.T) {
	ctx := context.Background()
	application, err := Build(ctx, memoryConfig(false), nil, log.Nop())
	require.NoError(t, err)
	defer application.Close()

	results, err := application.Engine.Run(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, []domain.Action{domain.ActionUpdate}, results[0].Actions)
	assert.Equal(t, []domain.Action{domain.ActionCreate}, results[1].Actions)

	again, err := application.Engine.Run(ctx)
	require.NoError(t, err)
	for _, r := range again {
		assert.False(t, r.Changed, "%s should already be converged", r.Identity)
	}
}

func TestBuild_CheckModeAndFacts(t *testing.T) {
	ctx := context.Background()
	application, err := Build(ctx, memoryConfig(true), nil, log.Nop())
	require.NoError(t, err)

	require.NoError(t, application.Run(ctx))
	results, err := application.Engine.Run(ctx)
	require.NoError(t, err)
	assert.True(t, results[1].Changed, "check mode left the node uncreated")

	require.NoError(t, application.Facts(ctx, "ltm_pool", domain.Identity{Name: "web", Partition: "Common"}, nil))
	err = application.Facts(ctx, "ltm_node", domain.Identity{Name: "app1", Partition: "Common"}, nil)
	assert.True(t, errors.IsNotFound(err))

	assert.Contains(t, application.Kinds(), domain.ResourceKind("ltm_policy"))
}

func policyWithRule(check bool) *config.Config {
	cfg := memoryConfig(check)
	cfg.Resources = []inline.Entry{
		{Kind: "ltm_policy", Params: map[string]any{"name": "p1", "strategy": "first-match"}},
		{Kind: "ltm_policy_rule", Params: map[string]any{"name": "r1", "policy": "p1", "ordinal": 1}},
	}
	return cfg
}

func TestBuild_PlanChildUnderPlannedParent(t *testing.T) {
	ctx := context.Background()
	application, err := Build(ctx, policyWithRule(true), nil, log.Nop())
	require.NoError(t, err)

	results, err := application.Engine.Run(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, []domain.Action{domain.ActionCreate}, r.Actions, "%s %s", r.Kind, r.Identity)
		assert.NoError(t, r.Error)
	}
}

func TestBuild_FactsForChildKind(t *testing.T) {
	ctx := context.Background()
	application, err := Build(ctx, policyWithRule(false), nil, log.Nop())
	require.NoError(t, err)
	require.NoError(t, application.Run(ctx))

	id := domain.Identity{Name: "r1", Partition: "Common"}
	require.NoError(t, application.Facts(ctx, "ltm_policy_rule", id, []string{"policy=p1"}))

	err = application.Facts(ctx, "ltm_policy_rule", id, nil)
	assert.True(t, errors.IsValidation(err), "the parent must be named")

	err = application.Facts(ctx, "ltm_policy_rule", id, []string{"policy=p2"})
	assert.True(t, errors.IsNotFound(err))

	err = application.Facts(ctx, "ltm_policy_rule", id, []string{"policy"})
	assert.True(t, errors.Is(err, errors.CodeConfigValidation))
}

func TestBuild_UnsupportedComponents(t *testing.T) {
	cfg := memoryConfig(false)
	cfg.Source.Type = "ini"
	_, err := Build(context.Background(), cfg, nil, log.Nop())
	assert.True(t, errors.Is(err, errors.CodeConfigValidation))

	cfg = memoryConfig(false)
	cfg.Appliance.Driver = config.DriverREST
	_, err = Build(context.Background(), cfg, nil, log.Nop())
	assert.True(t, errors.Is(err, errors.CodeConfigValidation), "rest driver needs an address")
}

func TestParseVarOverrides(t *testing.T) {
	vars, err := parseVarOverrides([]string{"partition=Prod", "port=443", "enabled=true", " ", "motd=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"partition": "Prod",
		"port":      int64(443),
		"enabled":   true,
		"motd":      "a=b",
	}, vars)

	vars, err = parseVarOverrides(nil)
	require.NoError(t, err)
	assert.Nil(t, vars)

	_, err = parseVarOverrides([]string{"novalue"})
	assert.True(t, errors.Is(err, errors.CodeConfigValidation))
}
