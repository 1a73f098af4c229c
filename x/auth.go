package x

import (
	"github.com/iov-one/vault"
)

// Authenticator is an interface we can use to extract authentication info
// from the context. This should be passed into the constructor of
// handlers, so we can plug in another authentication system,
// rather than hard-coding x/sigs for all extensions.
type Authenticator interface {
	// GetSigners reveals all member keys that authenticated the call.
	GetSigners(vault.Context) []vault.MemberKey
	// HasSigner checks if given key authenticated the call.
	HasSigner(vault.Context, vault.MemberKey) bool
}

// MultiAuth chains together many Authenticators into one
type MultiAuth struct {
	impls []Authenticator
}

var _ Authenticator = MultiAuth{}

// ChainAuth groups together a series of Authenticator
func ChainAuth(impls ...Authenticator) MultiAuth {
	return MultiAuth{impls}
}

// GetSigners combines all signers from all Authenticators. Each key is
// returned once, in order of first appearance.
func (m MultiAuth) GetSigners(ctx vault.Context) []vault.MemberKey {
	var res []vault.MemberKey
	seen := make(map[vault.MemberKey]struct{})
	for _, impl := range m.impls {
		for _, k := range impl.GetSigners(ctx) {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			res = append(res, k)
		}
	}
	return res
}

// HasSigner returns true iff any Authenticator support this
func (m MultiAuth) HasSigner(ctx vault.Context, key vault.MemberKey) bool {
	for _, impl := range m.impls {
		if impl.HasSigner(ctx, key) {
			return true
		}
	}
	return false
}

// MainSigner returns the first signer if any, otherwise the zero key and
// false.
func MainSigner(ctx vault.Context, auth Authenticator) (vault.MemberKey, bool) {
	signers := auth.GetSigners(ctx)
	if len(signers) == 0 {
		return vault.MemberKey{}, false
	}
	return signers[0], true
}

// HasAllSigners returns true if all elements in required are
// also in context.
func HasAllSigners(ctx vault.Context, auth Authenticator, required []vault.MemberKey) bool {
	return HasNSigners(ctx, auth, required, len(required))
}

// HasNSigners returns true if at least n elements in requested are
// also in context.
// Useful for threshold conditions (1 of 3, 3 of 5, etc...)
func HasNSigners(ctx vault.Context, auth Authenticator, requested []vault.MemberKey, n int) bool {
	if n <= 0 {
		return true
	}
	for _, key := range requested {
		if auth.HasSigner(ctx, key) {
			n--
			if n == 0 {
				return true
			}
		}
	}
	return false
}
