package registration

import "github.com/pkg/errors"

var (
	errMissingTransform   = errors.New("transform is not present")
	errMissingMovingMesh  = errors.New("moving mesh is not present")
	errMissingFixedMesh   = errors.New("fixed mesh is not present")
	errEmptyFixedMesh     = errors.New("fixed mesh has no vertices")
	errNoNearestVertex    = errors.New("matcher found no nearest fixed vertex")
	errTargetsNotComputed = errors.New("target positions have not been computed; call Initialize first")
)

func newDimensionMismatchError(got, want int) error {
	return errors.Errorf("parameter vector has %d elements but the moving mesh requires %d", got, want)
}
