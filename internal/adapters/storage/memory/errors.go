package memory

import "pawfect-match/internal/platform/apperr"

var (
	ErrNotFound = apperr.ErrNotFound
	ErrConflict = apperr.ErrConflict
)
