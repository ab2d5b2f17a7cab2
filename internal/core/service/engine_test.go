package service

import (
	"context"
	stderrs "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/appliance-converge/internal/core/domain"
	"github.com/olusolaa/appliance-converge/internal/core/ports"
	"github.com/olusolaa/appliance-converge/internal/errors"
	"github.com/olusolaa/appliance-converge/mocks"
)

func newTestEngine(t *testing.T, store *fakeStore, decls []domain.Declaration, opts EngineOptions) (*ConvergeEngine, *mocks.MockReporter) {
	t.Helper()

	handler := new(mocks.MockKindHandler)
	handler.On("Kind").Return(domain.ResourceKind("test_pool"))
	handler.On("Normalize", mock.Anything).Return(func(p map[string]any) map[string]any { return p }, nil).Maybe()
	b := store.binding()
	handler.On("Resolve", mock.Anything, mock.Anything).Return(ports.Target{Binding: &b}, nil).Maybe()

	registry := NewComponentRegistry()
	require.NoError(t, registry.RegisterHandler(handler))

	source := new(mocks.MockDesiredStateSource)
	source.On("Type").Return("test")
	source.On("Load", mock.Anything).Return(decls, nil)

	reporter := new(mocks.MockReporter)
	engine, err := NewConvergeEngine(registry, source, reporter, mocks.NewPermissiveLogger(), opts)
	require.NoError(t, err)
	return engine, reporter
}

func decl(kind, name string, extra map[string]any) domain.Declaration {
	params := map[string]any{"name": name}
	for k, v := range extra {
		params[k] = v
	}
	return domain.Declaration{Kind: domain.ResourceKind(kind), Params: params, Source: "test:" + name}
}

func TestEngineRunReconcilesInOrder(t *testing.T) {
	store := newFakeStore()
	store.seed(domain.Identity{Name: "b", Partition: "Common"}, map[string]any{"monitor": "http"})

	engine, reporter := newTestEngine(t, store, []domain.Declaration{
		decl("test_pool", "a", map[string]any{"monitor": "http"}),
		decl("test_pool", "b", map[string]any{"monitor": "http"}),
	}, EngineOptions{})
	reporter.On("Report", mock.Anything, mock.Anything).Return(nil)

	results, err := engine.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Identity.Name)
	assert.True(t, results[0].Changed)
	assert.Equal(t, "test:a", results[0].Source)
	assert.False(t, results[1].Changed)
	reporter.AssertNumberOfCalls(t, "Report", 1)
}

func TestEngineAbortsOnFirstErrorAndReportsPartialResults(t *testing.T) {
	store := newFakeStore()
	engine, reporter := newTestEngine(t, store, []domain.Declaration{
		decl("test_pool", "a", nil),
		decl("unknown_kind", "b", nil),
		decl("test_pool", "c", nil),
	}, EngineOptions{Concurrency: 1})

	var reported []domain.ReconciliationResult
	reporter.On("Report", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		reported = args.Get(1).([]domain.ReconciliationResult)
	}).Return(nil)

	_, err := engine.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotImplemented, errors.GetCode(err))
	require.Len(t, reported, 2)
	assert.NoError(t, reported[0].Error)
	assert.Error(t, reported[1].Error)
	assert.Equal(t, 1, store.count("create"))
}

func TestEngineContinueOnError(t *testing.T) {
	store := newFakeStore()
	engine, reporter := newTestEngine(t, store, []domain.Declaration{
		decl("unknown_kind", "a", nil),
		decl("test_pool", "b", nil),
	}, EngineOptions{ContinueOnError: true})
	reporter.On("Report", mock.Anything, mock.Anything).Return(nil)

	results, err := engine.Run(context.Background())
	require.Error(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, 1, store.count("create"))
}

func TestEngineCheckMode(t *testing.T) {
	store := newFakeStore()
	engine, reporter := newTestEngine(t, store, []domain.Declaration{decl("test_pool", "a", nil)}, EngineOptions{CheckMode: true})
	reporter.On("Report", mock.Anything, mock.Anything).Return(nil)

	results, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, results[0].Changed)
	assert.True(t, results[0].Checked)
	assert.Zero(t, store.mutations())
}

func TestEngineRejectsInvalidState(t *testing.T) {
	store := newFakeStore()
	engine, reporter := newTestEngine(t, store, []domain.Declaration{
		decl("test_pool", "a", map[string]any{"state": "gone"}),
	}, EngineOptions{})
	reporter.On("Report", mock.Anything, mock.Anything).Return(nil)

	_, err := engine.Run(context.Background())
	assert.True(t, errors.IsValidation(err))
}

func TestEngineNoDeclarations(t *testing.T) {
	engine, _ := newTestEngine(t, newFakeStore(), []domain.Declaration{}, EngineOptions{})
	_, err := engine.Run(context.Background())
	assert.Equal(t, errors.CodeConfigValidation, errors.GetCode(err))
}

func TestEngineReportFailure(t *testing.T) {
	engine, reporter := newTestEngine(t, newFakeStore(), []domain.Declaration{decl("test_pool", "a", nil)}, EngineOptions{})
	reporter.On("Report", mock.Anything, mock.Anything).Return(stderrs.New("disk full"))

	_, err := engine.Run(context.Background())
	assert.Equal(t, errors.CodeReportError, errors.GetCode(err))
}

func TestEngineGather(t *testing.T) {
	store := newFakeStore()
	id := domain.Identity{Name: "a", Partition: "Common"}
	store.seed(id, map[string]any{"monitor": "http"})
	engine, reporter := newTestEngine(t, store, nil, EngineOptions{})
	reporter.On("Report", mock.Anything, mock.Anything).Return(nil)

	res, err := engine.Gather(context.Background(), "test_pool", id, nil)
	require.NoError(t, err)
	assert.Equal(t, "http", res.Facts["monitor"])
	assert.Zero(t, store.mutations())
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	registry := NewComponentRegistry()
	h := new(mocks.MockKindHandler)
	h.On("Kind").Return(domain.ResourceKind("x"))
	require.NoError(t, registry.RegisterHandler(h))
	assert.Error(t, registry.RegisterHandler(h))
	assert.Equal(t, []domain.ResourceKind{"x"}, registry.Kinds())

	_, err := registry.GetSource("missing")
	assert.Error(t, err)
}
