package settings

import "github.com/iov-one/vault/errors"

// x/settings reserves 100 ~ 119.
var (
	ErrMemberCount             = errors.Register(errors.Validation, 100, "invalid member count")
	ErrDuplicateMember         = errors.Register(errors.Validation, 101, "duplicate member")
	ErrInvalidThreshold        = errors.Register(errors.Validation, 102, "invalid threshold")
	ErrNoInitiator             = errors.Register(errors.Validation, 103, "no member can initiate")
	ErrNoExecutor              = errors.Register(errors.Validation, 104, "no member can execute")
	ErrPermanentMember         = errors.Register(errors.Validation, 105, "invalid permanent member")
	ErrTransactionManager      = errors.Register(errors.Validation, 106, "invalid transaction manager")
	ErrAdministrator           = errors.Register(errors.Validation, 107, "invalid administrator")
	ErrMemberNotFound          = errors.Register(errors.Validation, 108, "member not found")
	ErrInsufficientPermissions = errors.Register(errors.Authorization, 109, "insufficient permissions")
	ErrDomainBinding           = errors.Register(errors.Validation, 110, "invalid domain binding")
	ErrInvalidPermissions      = errors.Register(errors.Validation, 111, "invalid permissions")
	ErrInsufficientVotes       = errors.Register(errors.Authorization, 112, "insufficient votes")
	ErrStaleFreshness          = errors.Register(errors.Freshness, 113, "stale freshness token")
	ErrDelegate                = errors.Register(errors.Validation, 114, "invalid delegate")
)
