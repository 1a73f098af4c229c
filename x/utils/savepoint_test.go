package utils

import (
	"context"
	"testing"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/store"
	"github.com/iov-one/vault/vaulttest"
	"github.com/iov-one/vault/vaulttest/assert"
)

// writeHandler stores its record and then returns err.
type writeHandler struct {
	key, value []byte
	err        error
}

func (h writeHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if err := db.Set(h.key, h.value); err != nil {
		return nil, err
	}
	if h.err != nil {
		return nil, h.err
	}
	return &vault.CheckResult{}, nil
}

func (h writeHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	if err := db.Set(h.key, h.value); err != nil {
		return nil, err
	}
	if h.err != nil {
		return nil, h.err
	}
	return &vault.DeliverResult{}, nil
}

func TestSavepoint(t *testing.T) {
	existing := []byte("settings")
	written := []byte("buffer")
	failing := writeHandler{key: written, value: []byte{1}, err: errors.ErrExpired}

	cases := map[string]struct {
		save    Savepoint
		handler vault.Handler
		check   bool
		wantErr *errors.Error
		stored  bool
	}{
		"inactive keeps writes of a failed check": {
			save:    NewSavepoint(),
			handler: failing,
			check:   true,
			wantErr: errors.ErrExpired,
			stored:  true,
		},
		"check rolls back": {
			save:    NewSavepoint().OnCheck(),
			handler: failing,
			check:   true,
			wantErr: errors.ErrExpired,
		},
		"deliver rolls back": {
			save:    NewSavepoint().OnDeliver(),
			handler: failing,
			wantErr: errors.ErrExpired,
		},
		"both modes kept": {
			save:    NewSavepoint().OnDeliver().OnCheck(),
			handler: failing,
			wantErr: errors.ErrExpired,
		},
		"check mode does not affect deliver": {
			save:    NewSavepoint().OnCheck(),
			handler: failing,
			wantErr: errors.ErrExpired,
			stored:  true,
		},
		"success is written": {
			save:    NewSavepoint().OnCheck().OnDeliver(),
			handler: writeHandler{key: written, value: []byte{1}},
			stored:  true,
		},
		"handler error without writes": {
			save:    NewSavepoint().OnDeliver(),
			handler: &vaulttest.Handler{DeliverErr: errors.ErrUnauthorized},
			wantErr: errors.ErrUnauthorized,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			ctx := context.Background()
			db := store.MemStore()
			assert.Nil(t, db.Set(existing, []byte("v")))

			var err error
			if tc.check {
				_, err = tc.save.Check(ctx, db, &vaulttest.Tx{}, tc.handler)
			} else {
				_, err = tc.save.Deliver(ctx, db, &vaulttest.Tx{}, tc.handler)
			}
			if tc.wantErr == nil {
				assert.Nil(t, err)
			} else {
				assert.IsErr(t, tc.wantErr, err)
			}

			ok, err := db.Has(existing)
			assert.Nil(t, err)
			assert.Equal(t, true, ok)
			ok, err = db.Has(written)
			assert.Nil(t, err)
			assert.Equal(t, tc.stored, ok)
		})
	}
}
