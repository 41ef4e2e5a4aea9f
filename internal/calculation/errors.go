package calculation

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrCanceled means the caller canceled the batch
	ErrCanceled = errors.New("simulation canceled")
	// ErrTimeout means the batch ran past its time budget
	ErrTimeout = errors.New("simulation time budget exceeded")
	// ErrNoTrials means every trial was excluded
	ErrNoTrials = errors.New("no valid trials to aggregate")
)

// BatchError reports a batch that stopped before all trials ran. No partial result is returned.
type BatchError struct {
	Completed int
	Total     int
	Err       error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch stopped after %d of %d trials: %v", e.Completed, e.Total, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ErrCanceled
}
