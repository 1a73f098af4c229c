package passkey

import "github.com/iov-one/vault/errors"

// x/passkey reserves 120 ~ 139.
var (
	ErrDomainDisabled    = errors.Register(errors.Authorization, 120, "domain disabled")
	ErrFreshnessMismatch = errors.Register(errors.Freshness, 121, "recent hash mismatch")
	ErrAuthenticatorData = errors.Register(errors.Validation, 122, "invalid authenticator data")
	ErrChallengeMismatch = errors.Register(errors.Authorization, 123, "challenge mismatch")
	ErrOrigin            = errors.Register(errors.Authorization, 124, "origin not allowed")
	ErrCeremonyType      = errors.Register(errors.Validation, 125, "invalid ceremony type")
	ErrSignature         = errors.Register(errors.Authorization, 126, "invalid passkey signature")
	ErrPriorCall         = errors.Register(errors.Validation, 127, "invalid prior verification call")
	ErrUserNotPresent    = errors.Register(errors.Authorization, 128, "user not present")
	ErrDomainConfig      = errors.Register(errors.Validation, 129, "invalid domain config")
	ErrClientData        = errors.Register(errors.Validation, 130, "invalid client data")
)
