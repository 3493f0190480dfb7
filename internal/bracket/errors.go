package bracket

import "errors"

// Error kinds shared by the bracket core, the store and the services. Callers match them
// with errors.Is; the wrapped message carries the detail.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrStorage    = errors.New("storage failure")
)
