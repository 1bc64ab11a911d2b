package markov

import (
	"fmt"

	shaperrors "github.com/Aman-CERP/shapeshifter/internal/errors"
)

// Sentinel errors. Compare with errors.Is; they match any ShapeError with the
// same code.
var (
	// ErrOutOfRange is returned by Tuple.Token for an index past the end.
	ErrOutOfRange = shaperrors.New(shaperrors.ErrCodeOutOfRange, "token index out of range", nil)

	// ErrInvalidOrder is returned when an order outside [1,5] is configured.
	ErrInvalidOrder = shaperrors.New(shaperrors.ErrCodeInvalidOrder, "Argument must be in the interval [1,5].", nil)

	// ErrIndexInconsistency signals a broken index invariant found during a walk.
	// It indicates a logic defect and aborts the generation.
	ErrIndexInconsistency = shaperrors.New(shaperrors.ErrCodeIndexInconsistency, "index inconsistency", nil)
)

func invalidOrder(order int) error {
	return shaperrors.New(shaperrors.ErrCodeInvalidOrder, ErrInvalidOrder.Message, nil).
		WithDetail("order", fmt.Sprint(order))
}

func inconsistency(format string, args ...any) error {
	return shaperrors.New(shaperrors.ErrCodeIndexInconsistency,
		"index inconsistency: "+fmt.Sprintf(format, args...), nil)
}
