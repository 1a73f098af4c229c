package sigs

import (
	"github.com/iov-one/vault/errors"
)

// x/sigs reserves 20 ~ 29.
var (
	ErrInvalidSequence  = errors.Register(errors.Freshness, 20, "invalid sequence number")
	ErrInvalidSignature = errors.Register(errors.Authorization, 21, "invalid signature")
)
