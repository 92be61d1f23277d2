package patch

import "errors"

// Errors returned by patch operations.
var (
	// ErrPatchDoesNotApply indicates a splice whose literal old text cannot
	// be reconciled with the changes already recorded in the patch.
	ErrPatchDoesNotApply = errors.New("patch does not apply")

	// ErrMalformed indicates serialized patch data that is truncated or
	// describes an impossible tree.
	ErrMalformed = errors.New("malformed patch data")
)
