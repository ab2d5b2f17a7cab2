package ports

import (
	"context"

	"github.com/olusolaa/appliance-converge/internal/core/domain"
)

//go:generate mockery --name Reporter --output ./mocks --outpkg mocks --case underscore
type Reporter interface {
	Report(ctx context.Context, results []domain.ReconciliationResult) error
}
