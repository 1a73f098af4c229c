package vaulttest

import (
	"context"
	"fmt"

	"github.com/iov-one/vault"
)

// Auth is a mock implementing x.Authenticator interface.
//
// This structure authenticates any of referenced keys.
// You can use either Signer or Signers (or both) attributes to reference
// keys. Each time all signers (regardless which attribute) are considered.
type Auth struct {
	// Signer represents an authentication of a single signer.
	Signer vault.MemberKey

	// Signers represents an authentication of multiple signers.
	Signers []vault.MemberKey
}

func (a *Auth) GetSigners(vault.Context) []vault.MemberKey {
	if a.Signer.IsZero() {
		return a.Signers
	}
	return append(append([]vault.MemberKey{}, a.Signers...), a.Signer)
}

func (a *Auth) HasSigner(ctx vault.Context, key vault.MemberKey) bool {
	for _, s := range a.GetSigners(ctx) {
		if key.Equals(s) {
			return true
		}
	}
	return false
}

// CtxAuth is a mock implementing x.Authenticator interface.
//
// This implementation is using context to store and retrieve signers.
type CtxAuth struct {
	// Key used to set and retrieve signers from the context. For
	// convenience only string type keys are allowed.
	Key string
}

func (a *CtxAuth) SetSigners(ctx vault.Context, signers ...vault.MemberKey) vault.Context {
	return context.WithValue(ctx, a.Key, signers)
}

func (a *CtxAuth) GetSigners(ctx vault.Context) []vault.MemberKey {
	val := ctx.Value(a.Key)
	if val == nil {
		return nil
	}
	keys, ok := val.([]vault.MemberKey)
	if !ok {
		panic(fmt.Sprintf("instead of []vault.MemberKey got %T", val))
	}
	return keys
}

func (a *CtxAuth) HasSigner(ctx vault.Context, key vault.MemberKey) bool {
	for _, s := range a.GetSigners(ctx) {
		if key.Equals(s) {
			return true
		}
	}
	return false
}
