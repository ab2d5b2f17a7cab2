package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/olusolaa/appliance-converge/internal/core/domain"
	ports "github.com/olusolaa/appliance-converge/internal/core/ports"
)

// MockLogger is a mock implementation of ports.Logger. Variadic arguments are
// recorded as a single []any argument.
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debugf(ctx context.Context, format string, args ...any) {
	m.Called(ctx, format, args)
}

func (m *MockLogger) Infof(ctx context.Context, format string, args ...any) {
	m.Called(ctx, format, args)
}

func (m *MockLogger) Warnf(ctx context.Context, format string, args ...any) {
	m.Called(ctx, format, args)
}

func (m *MockLogger) Errorf(ctx context.Context, err error, format string, args ...any) {
	m.Called(ctx, err, format, args)
}

func (m *MockLogger) WithFields(fields map[string]any) ports.Logger {
	args := m.Called(fields)
	if args.Get(0) == nil {
		return m
	}
	return args.Get(0).(ports.Logger)
}

// NewPermissiveLogger returns a MockLogger that accepts every call.
func NewPermissiveLogger() *MockLogger {
	l := new(MockLogger)
	l.On("Debugf", mock.Anything, mock.Anything, mock.Anything).Maybe().Return()
	l.On("Infof", mock.Anything, mock.Anything, mock.Anything).Maybe().Return()
	l.On("Warnf", mock.Anything, mock.Anything, mock.Anything).Maybe().Return()
	l.On("Errorf", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Maybe().Return()
	l.On("WithFields", mock.Anything).Maybe().Return(l)
	return l
}

// MockApplianceClient is a mock implementation of ports.ApplianceClient.
// Configure Run on Get/Create/Update/Command to populate out.
type MockApplianceClient struct {
	mock.Mock
}

func (m *MockApplianceClient) Get(ctx context.Context, path string, out any) error {
	return m.Called(ctx, path, out).Error(0)
}

func (m *MockApplianceClient) Create(ctx context.Context, collection string, body any, out any) error {
	return m.Called(ctx, collection, body, out).Error(0)
}

func (m *MockApplianceClient) Update(ctx context.Context, path string, body any, out any) error {
	return m.Called(ctx, path, body, out).Error(0)
}

func (m *MockApplianceClient) Delete(ctx context.Context, path string) error {
	return m.Called(ctx, path).Error(0)
}

func (m *MockApplianceClient) Command(ctx context.Context, path string, body any, out any) error {
	return m.Called(ctx, path, body, out).Error(0)
}

// MockReporter is a mock implementation of ports.Reporter.
type MockReporter struct {
	mock.Mock
}

func (m *MockReporter) Report(ctx context.Context, results []domain.ReconciliationResult) error {
	return m.Called(ctx, results).Error(0)
}

// MockDesiredStateSource is a mock implementation of ports.DesiredStateSource.
type MockDesiredStateSource struct {
	mock.Mock
}

func (m *MockDesiredStateSource) Type() string {
	return m.Called().String(0)
}

func (m *MockDesiredStateSource) Load(ctx context.Context) ([]domain.Declaration, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Declaration), args.Error(1)
}

// MockKindHandler is a mock implementation of ports.KindHandler.
type MockKindHandler struct {
	mock.Mock
}

func (m *MockKindHandler) Kind() domain.ResourceKind {
	return m.Called().Get(0).(domain.ResourceKind)
}

func (m *MockKindHandler) Normalize(params map[string]any) (map[string]any, error) {
	args := m.Called(params)
	if fn, ok := args.Get(0).(func(map[string]any) map[string]any); ok {
		return fn(params), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

func (m *MockKindHandler) Resolve(ctx context.Context, desired domain.DesiredState) (ports.Target, error) {
	args := m.Called(ctx, desired)
	return args.Get(0).(ports.Target), args.Error(1)
}
