//go:build windows || no_cgo

package registration

import (
	"context"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"go.viam.com/meshreg/mesh"
)

// RegisterMeshes is not supported on no_cgo builds; the metric itself still
// is.
func RegisterMeshes(
	ctx context.Context,
	fixed, moving mesh.Mesh,
	cfg Config,
	logger golog.Logger,
) (*Result, error) {
	return nil, errors.New("nlopt is not supported on this build")
}
