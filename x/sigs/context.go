package sigs

import (
	"context"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/x"
)

type contextKey int // local to the sigs module

const (
	contextKeySigners contextKey = iota
)

// withSigners is a private method, as only this module
// can add a signer
func withSigners(ctx vault.Context, signers []vault.MemberKey) vault.Context {
	return context.WithValue(ctx, contextKeySigners, signers)
}

// Authenticate reveals the direct keys that signed the current call.
type Authenticate struct{}

var _ x.Authenticator = Authenticate{}

// GetSigners returns who signed the current Context.
// May be empty
func (a Authenticate) GetSigners(ctx vault.Context) []vault.MemberKey {
	val, _ := ctx.Value(contextKeySigners).([]vault.MemberKey)
	return val
}

// HasSigner returns true if given key signed the current Context.
func (a Authenticate) HasSigner(ctx vault.Context, key vault.MemberKey) bool {
	for _, s := range a.GetSigners(ctx) {
		if key.Equals(s) {
			return true
		}
	}
	return false
}
