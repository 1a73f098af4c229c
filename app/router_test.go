package app

import (
	"context"
	"testing"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/vaulttest"
	"github.com/iov-one/vault/vaulttest/assert"
)

func TestRouter(t *testing.T) {
	r := NewRouter()
	good := &vaulttest.Handler{}
	bad := &vaulttest.Handler{DeliverErr: errors.ErrUnauthorized}
	r.Handle(&vaulttest.Msg{RoutePath: "test/good"}, good)
	r.Handle(&vaulttest.Msg{RoutePath: "test/bad"}, bad)

	assert.Panics(t, func() { r.Handle(&vaulttest.Msg{RoutePath: "test/good"}, good) })
	assert.Panics(t, func() { r.Handle(&vaulttest.Msg{RoutePath: "l:7"}, good) })
	assert.Equal(t, []string{"test/bad", "test/good"}, r.Paths())

	ctx := context.Background()
	call := func(path string) *vaulttest.Tx {
		return &vaulttest.Tx{Msg: &vaulttest.Msg{RoutePath: path}}
	}

	_, err := r.Check(ctx, nil, call("test/good"))
	assert.Nil(t, err)
	_, err = r.Deliver(ctx, nil, call("test/good"))
	assert.Nil(t, err)
	assert.Equal(t, 2, good.CallCount())

	_, err = r.Deliver(ctx, nil, call("test/bad"))
	assert.IsErr(t, errors.ErrUnauthorized, err)

	cases := map[string]struct {
		tx   vault.Tx
		want *errors.Error
	}{
		"unknown path":   {tx: call("test/missing"), want: errors.ErrNotFound},
		"no message":     {tx: &vaulttest.Tx{}, want: errors.ErrMsg},
		"broken message": {tx: &vaulttest.Tx{Err: errors.ErrInput}, want: errors.ErrInput},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			_, err := r.Check(ctx, nil, tc.tx)
			assert.IsErr(t, tc.want, err)
			_, err = r.Deliver(ctx, nil, tc.tx)
			assert.IsErr(t, tc.want, err)
		})
	}
	assert.Equal(t, 2, good.CallCount())
	assert.Equal(t, 1, bad.CallCount())
}
