package auth

import "github.com/iov-one/vault/errors"

// x/auth reserves 40 ~ 49.
var (
	ErrNoSignerFound  = errors.Register(errors.Authorization, 40, "no signer found")
	ErrDomainMismatch = errors.Register(errors.Authorization, 41, "domain mismatch")
)
