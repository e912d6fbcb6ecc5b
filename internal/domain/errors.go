package domain

import "fmt"

// Sentinel errors for the domain layer. Data-quality problems in the
// external snapshots never surface as errors; these cover the storage
// and input-validation failures that do propagate.
var (
	ErrNoSnapshot    = fmt.Errorf("no intelligence snapshot available")
	ErrSnapshotStore = fmt.Errorf("snapshot store failure")
	ErrInvalidTask   = fmt.Errorf("invalid task request")
	ErrEngineClosed  = fmt.Errorf("engine closed")
)

// WrapOp adds operation context to an error using fmt.Errorf wrapping.
// Returns nil if err is nil, enabling idiomatic use: return domain.WrapOp("op", err)
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
