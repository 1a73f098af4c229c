package exec

import "github.com/iov-one/vault/errors"

// x/exec reserves 170 ~ 189.
var (
	ErrInvalidMessage   = errors.Register(errors.Validation, 170, "invalid transaction message")
	ErrAccountMismatch  = errors.Register(errors.Structural, 171, "account mismatch")
	ErrLookupTable      = errors.Register(errors.Structural, 172, "invalid lookup table")
	ErrMissingSigner    = errors.Register(errors.Authorization, 173, "missing signer")
	ErrProtectedAccount = errors.Register(errors.Structural, 174, "protected account")
	ErrNotWritable      = errors.Register(errors.Structural, 175, "account not writable")
)
