package inline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/appliance-converge/internal/core/domain"
	"github.com/olusolaa/appliance-converge/internal/errors"
	"github.com/olusolaa/appliance-converge/mocks"
)

func TestLoad(t *testing.T) {
	params := map[string]any{"name": "web"}
	src := NewSource([]Entry{
		{Kind: "ltm_pool", Params: params},
		{Kind: "sys_ntp"},
	}, mocks.NewPermissiveLogger())
	assert.Equal(t, "config", src.Type())

	decls, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, decls, 2)
	assert.Equal(t, domain.Declaration{Kind: "ltm_pool", Params: params, Source: "config:resources[0]"}, decls[0])
	assert.NotNil(t, decls[1].Params)

	decls[0].Params["name"] = "changed"
	assert.Equal(t, "web", params["name"], "params are copied")
}

func TestLoad_MissingKind(t *testing.T) {
	src := NewSource([]Entry{{Params: map[string]any{"name": "x"}}}, mocks.NewPermissiveLogger())
	_, err := src.Load(context.Background())
	assert.True(t, errors.Is(err, errors.CodeConfigValidation))
	assert.Contains(t, err.Error(), "resources[0]")
}
