package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/appliance-converge/internal/errors"
	"github.com/olusolaa/appliance-converge/internal/log"
)

func TestCreateGetUpdateDelete(t *testing.T) {
	ctx := context.Background()
	a := New(log.Nop())

	require.NoError(t, a.Create(ctx, "ltm/pool", map[string]any{"name": "web", "partition": "Common", "slowRampTime": 10}, nil))

	var got map[string]any
	require.NoError(t, a.Get(ctx, "ltm/pool/~Common~web?$select=name", &got))
	assert.Equal(t, float64(10), got["slowRampTime"])
	assert.Equal(t, "/Common/web", got["fullPath"])

	require.NoError(t, a.Update(ctx, "ltm/pool/~Common~web", map[string]any{"description": "d"}, &got))
	assert.Equal(t, "d", got["description"])
	assert.Equal(t, float64(10), got["slowRampTime"])

	require.NoError(t, a.Delete(ctx, "ltm/pool/~Common~web"))
	err := a.Get(ctx, "ltm/pool/~Common~web", &got)
	assert.True(t, errors.IsNotFound(err))
	assert.Equal(t, 2, a.Calls("GET"))
	assert.Equal(t, 3, a.Mutations())
}

func TestCreateConflict(t *testing.T) {
	ctx := context.Background()
	a := New(log.Nop())
	body := map[string]any{"name": "web", "partition": "Common"}
	require.NoError(t, a.Create(ctx, "ltm/pool", body, nil))
	err := a.Create(ctx, "ltm/pool", body, nil)
	assert.True(t, errors.IsTransport(err))
}

func TestDeleteRemovesChildren(t *testing.T) {
	ctx := context.Background()
	a := New(log.Nop())
	require.NoError(t, a.Seed("ltm/policy/~Common~p1", map[string]any{"name": "p1"}))
	require.NoError(t, a.Seed("ltm/policy/~Common~p1/rules/r1", map[string]any{"name": "r1"}))

	require.NoError(t, a.Delete(ctx, "ltm/policy/~Common~p1"))
	assert.Empty(t, a.Paths())
}

func TestPublishCommand(t *testing.T) {
	ctx := context.Background()
	a := New(log.Nop())
	require.NoError(t, a.Seed("ltm/policy/~Common~p1", map[string]any{"name": "p1", "status": "draft"}))

	require.NoError(t, a.Command(ctx, "ltm/policy", map[string]any{"command": "publish", "name": "/Common/p1"}, nil))
	obj, _ := a.Object("ltm/policy/~Common~p1")
	assert.Equal(t, "published", obj["status"])

	require.NoError(t, a.Update(ctx, "ltm/policy/~Common~p1?options=create-draft", nil, nil))
	obj, _ = a.Object("ltm/policy/~Common~p1")
	assert.Equal(t, "draft", obj["status"])
}

func TestLoadSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
ltm/pool/~Common~web:
  name: web
  partition: Common
  monitor: /Common/http
sys/ntp:
  servers: [10.0.0.1]
`), 0o600))

	a, err := LoadSnapshot(path, log.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"ltm/pool/~Common~web", "sys/ntp"}, a.Paths())

	_, err = LoadSnapshot(filepath.Join(t.TempDir(), "missing.yaml"), log.Nop())
	assert.Equal(t, errors.CodeConfigReadError, errors.GetCode(err))
}
