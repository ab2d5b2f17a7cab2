package ports

import (
	"context"

	"github.com/olusolaa/appliance-converge/internal/core/domain"
)

//go:generate mockery --name ConvergeEngine --output ./mocks --outpkg mocks --case underscore
type ConvergeEngine interface {
	Run(ctx context.Context) ([]domain.ReconciliationResult, error)
}
