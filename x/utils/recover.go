package utils

import (
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
)

// Recovery turns a panic raised further down the stack into an ErrPanic
// failure of the call.
type Recovery struct{}

var _ vault.Decorator = Recovery{}

func NewRecovery() Recovery {
	return Recovery{}
}

func (Recovery) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx, next vault.Checker) (_ *vault.CheckResult, err error) {
	defer recoverCall(ctx, tx, &err)
	return next.Check(ctx, db, tx)
}

func (Recovery) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx, next vault.Deliverer) (_ *vault.DeliverResult, err error) {
	defer recoverCall(ctx, tx, &err)
	return next.Deliver(ctx, db, tx)
}

// recoverCall must be deferred directly for recover to see the panic.
func recoverCall(ctx vault.Context, tx vault.Tx, err *error) {
	if r := recover(); r != nil {
		*err = errors.Wrapf(errors.ErrPanic, "%v", r)
		vault.GetLogger(ctx).Error("call panicked", "path", vault.GetPath(tx), "panic", r)
	}
}
