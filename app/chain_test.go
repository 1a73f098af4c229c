package app

import (
	"context"
	"testing"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/vaulttest"
	"github.com/iov-one/vault/vaulttest/assert"
	"github.com/iov-one/vault/x/utils"
)

// panicAbove panics when the block height is greater than the limit.
type panicAbove int64

func (p panicAbove) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx, next vault.Checker) (*vault.CheckResult, error) {
	if h, _ := vault.GetHeight(ctx); h > int64(p) {
		panic("too high")
	}
	return next.Check(ctx, db, tx)
}

func (p panicAbove) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx, next vault.Deliverer) (*vault.DeliverResult, error) {
	if h, _ := vault.GetHeight(ctx); h > int64(p) {
		panic("too high")
	}
	return next.Deliver(ctx, db, tx)
}

func TestChain(t *testing.T) {
	var c1, c2, c3 vaulttest.Decorator
	var h vaulttest.Handler

	stack := ChainDecorators(
		&c1,
		utils.NewLogging(),
		utils.NewRecovery(),
		&c2,
		panicAbove(5),
		&c3,
	).WithHandler(&h)

	ctx := vault.WithHeight(context.Background(), 4)
	tx := &vaulttest.Tx{Msg: &vaulttest.Msg{RoutePath: "test/chain"}}
	_, err := stack.Check(ctx, nil, tx)
	assert.Nil(t, err)
	_, err = stack.Deliver(ctx, nil, tx)
	assert.Nil(t, err)
	assert.Equal(t, 2, c1.CallCount())
	assert.Equal(t, 2, c3.CallCount())
	assert.Equal(t, 2, h.CallCount())

	ctx = vault.WithHeight(context.Background(), 6)
	_, err = stack.Check(ctx, nil, tx)
	assert.IsErr(t, errors.ErrPanic, err)
	_, err = stack.Deliver(ctx, nil, tx)
	assert.IsErr(t, errors.ErrPanic, err)

	// The panic is raised below c2 and never reaches c3.
	assert.Equal(t, 4, c1.CallCount())
	assert.Equal(t, 4, c2.CallCount())
	assert.Equal(t, 2, c3.CallCount())
	assert.Equal(t, 2, h.CallCount())
}

func TestChainDropsNil(t *testing.T) {
	var c vaulttest.Decorator
	var missing *vaulttest.Decorator
	h := &vaulttest.Handler{DeliverErr: errors.ErrNotFound}

	base := ChainDecorators(nil, missing)
	stack := base.Chain(&c, nil).WithHandler(h)
	_, err := stack.Deliver(context.Background(), nil, &vaulttest.Tx{})
	assert.IsErr(t, errors.ErrNotFound, err)
	assert.Equal(t, 1, c.DeliverCallCount())

	// Chain does not modify the list it is called on.
	_, err = base.WithHandler(h).Deliver(context.Background(), nil, &vaulttest.Tx{})
	assert.IsErr(t, errors.ErrNotFound, err)
	assert.Equal(t, 1, c.DeliverCallCount())
	assert.Equal(t, 2, h.DeliverCallCount())
}
