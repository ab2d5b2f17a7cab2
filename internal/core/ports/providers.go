package ports

import (
	"context"

	"github.com/olusolaa/appliance-converge/internal/core/domain"
)

// DesiredStateSource yields raw declarations; validation happens in the engine.
//
//go:generate mockery --name DesiredStateSource --output ./mocks --outpkg mocks --case underscore
type DesiredStateSource interface {
	Type() string
	Load(ctx context.Context) ([]domain.Declaration, error)
}
