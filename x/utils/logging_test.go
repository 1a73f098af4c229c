package utils

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/vaulttest"
	"github.com/iov-one/vault/vaulttest/assert"
	"github.com/tendermint/tendermint/libs/log"
)

func TestLogging(t *testing.T) {
	var out bytes.Buffer
	ctx := vault.WithLogger(context.Background(), log.NewTMLogger(log.NewSyncWriter(&out)))
	tx := &vaulttest.Tx{Msg: &vaulttest.Msg{RoutePath: "vault/vote_buffer"}}

	cases := map[string]struct {
		handler *vaulttest.Handler
		check   bool
		want    []string
	}{
		"check is debug": {
			handler: &vaulttest.Handler{CheckResult: vault.CheckResult{Log: "checked"}},
			check:   true,
			want:    []string{"D[", "checked", "path=vault/vote_buffer"},
		},
		"deliver is info": {
			handler: &vaulttest.Handler{DeliverResult: vault.DeliverResult{Log: "voted"}},
			want:    []string{"I[", "voted", "path=vault/vote_buffer"},
		},
		"failure is error with class": {
			handler: &vaulttest.Handler{DeliverErr: errors.Wrap(errors.ErrExpired, "buffer")},
			want:    []string{"E[", "class=freshness", "path=vault/vote_buffer"},
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			out.Reset()
			var err error
			if tc.check {
				_, err = NewLogging().Check(ctx, nil, tx, tc.handler)
			} else {
				_, err = NewLogging().Deliver(ctx, nil, tx, tc.handler)
			}
			assert.Equal(t, tc.handler.DeliverErr, err)
			for _, w := range tc.want {
				if !strings.Contains(out.String(), w) {
					t.Errorf("%q not logged in %q", w, out.String())
				}
			}
		})
	}
}
