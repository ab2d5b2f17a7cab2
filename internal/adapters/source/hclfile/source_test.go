package hclfile

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/appliance-converge/internal/core/domain"
	"github.com/olusolaa/appliance-converge/internal/errors"
	"github.com/olusolaa/appliance-converge/mocks"
)

func load(t *testing.T, opts Options) ([]domain.Declaration, error) {
	t.Helper()
	src, err := NewSource(opts, mocks.NewPermissiveLogger())
	require.NoError(t, err)
	return src.Load(context.Background())
}

func manifests() string { return filepath.Join("testdata", "manifests") }

func TestLoad_Directory(t *testing.T) {
	decls, err := load(t, Options{
		Path:     manifests(),
		VarFiles: []string{filepath.Join(manifests(), "prod.hclvars")},
	})
	require.NoError(t, err)
	require.Len(t, decls, 5)

	mon := decls[0]
	assert.Equal(t, domain.ResourceKind("ltm_monitor_http"), mon.Kind)
	assert.Equal(t, "web-check", mon.Params["name"])
	assert.Equal(t, "Prod", mon.Params["partition"])
	assert.Equal(t, int64(5), mon.Params["interval"])
	assert.Contains(t, mon.Source, "20-resources.hcl:1")

	assert.Equal(t, "app1", decls[1].Params["name"], "for_each key names the instance")
	assert.Equal(t, "10.0.1.11", decls[1].Params["address"])
	assert.Equal(t, "app2", decls[2].Params["name"])
	assert.Contains(t, decls[2].Source, `["app2"]`)
	assert.NotContains(t, decls[2].Params, forEachAttr)

	pool := decls[3]
	assert.Equal(t, "web-pool", pool.Params["name"], "locals resolve regardless of order")
	assert.Equal(t, "/Prod/web-check", pool.Params["monitor"])
	assert.Equal(t, true, pool.Params["allow_snat"])
	assert.NotContains(t, pool.Params, "members", "null attributes are omitted")

	vs := decls[4]
	assert.Equal(t, "https", vs.Params["name"], "label is the default name")
	assert.Equal(t, []any{"tcp", "http"}, vs.Params["profiles"])
}

func TestLoad_ExplicitVariablesWin(t *testing.T) {
	decls, err := load(t, Options{
		Path:     manifests(),
		VarFiles: []string{filepath.Join(manifests(), "prod.hclvars")},
		Variables: map[string]any{
			"partition":        "Staging",
			"monitor_interval": "10",
			"nodes":            map[string]any{"only": "10.9.9.9"},
		},
	})
	require.NoError(t, err)
	require.Len(t, decls, 4)
	assert.Equal(t, "Staging", decls[0].Params["partition"])
	assert.Equal(t, int64(10), decls[0].Params["interval"], "string converts to the declared number type")
	assert.Equal(t, "only", decls[1].Params["name"])
}

func TestLoad_MissingRequiredVariable(t *testing.T) {
	_, err := load(t, Options{Path: manifests()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeHCLEvalError))
	assert.Contains(t, err.Error(), "nodes")
}

func TestLoad_SingleFile(t *testing.T) {
	decls, err := load(t, Options{Path: filepath.Join("testdata", "single.hcl")})
	require.NoError(t, err)
	require.Len(t, decls, 1)
	assert.Equal(t, domain.ResourceKind("sys_db"), decls[0].Kind)
	assert.Equal(t, "setup.run", decls[0].Params["name"])
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		file string
		code errors.Code
	}{
		{"invalid.hcl", errors.CodeSourceParseError},
		{"duplicate.hcl", errors.CodeHCLEvalError},
		{"cycle.hcl", errors.CodeHCLEvalError},
		{"unknown_fn.hcl", errors.CodeHCLEvalError},
		{"missing.hcl", errors.CodeSourceReadError},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			_, err := load(t, Options{Path: filepath.Join("testdata", tt.file)})
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
}

func TestLoad_EmptyDirectory(t *testing.T) {
	_, err := load(t, Options{Path: t.TempDir()})
	assert.True(t, errors.Is(err, errors.CodeSourceParseError))
}

func TestNewSource_RequiresPath(t *testing.T) {
	_, err := NewSource(Options{}, mocks.NewPermissiveLogger())
	assert.True(t, errors.Is(err, errors.CodeConfigValidation))
}
