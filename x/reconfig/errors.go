package reconfig

import "github.com/iov-one/vault/errors"

// x/reconfig reserves 140 ~ 149.
var (
	ErrNoActions         = errors.Register(errors.Validation, 140, "no actions")
	ErrProofOfPossession = errors.Register(errors.Authorization, 141, "missing proof of possession")
	ErrProfileNotFound   = errors.Register(errors.Authorization, 142, "profile not registered")
	ErrUnknownAction     = errors.Register(errors.Validation, 143, "unknown action")
)
