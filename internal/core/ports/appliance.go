package ports

import "context"

// ApplianceClient is the transport to the appliance's REST management API.
// Paths are relative to the management root, e.g. "ltm/pool/~Common~pool1".
// Get and Delete fail with a RESOURCE_NOT_FOUND AppError on 404.
//
//go:generate mockery --name ApplianceClient --output ./mocks --outpkg mocks --case underscore
type ApplianceClient interface {
	Get(ctx context.Context, path string, out any) error
	Create(ctx context.Context, collection string, body any, out any) error
	Update(ctx context.Context, path string, body any, out any) error
	Delete(ctx context.Context, path string) error
	// Command posts an action payload (e.g. {"command":"publish"}) to path.
	Command(ctx context.Context, path string, body any, out any) error
}
