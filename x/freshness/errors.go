package freshness

import "github.com/iov-one/vault/errors"

// x/freshness reserves 190 ~ 199.
var (
	ErrUnknownReference = errors.Register(errors.Freshness, 190, "unknown freshness reference")
	ErrStaleReference   = errors.Register(errors.Freshness, 191, "stale freshness reference")
	ErrReferenceOrder   = errors.Register(errors.Validation, 192, "freshness reference not increasing")
)
