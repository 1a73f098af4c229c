package auth

import (
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/x"
	"github.com/iov-one/vault/x/passkey"
	"github.com/iov-one/vault/x/settings"
)

// Proof is what a caller presents to be recognized as a member. Exactly
// one of the fields is expected. When both are present the direct proof
// is used.
type Proof struct {
	// Direct is a key that signed the transaction.
	Direct *vault.MemberKey
	// Passkey is a WebAuthn assertion.
	Passkey *passkey.Assertion
}

// DirectProof returns a proof for a key that signed the transaction.
func DirectProof(key vault.MemberKey) Proof {
	return Proof{Direct: &key}
}

// PasskeyProof returns a proof backed by given assertion.
func PasskeyProof(a *passkey.Assertion) Proof {
	return Proof{Passkey: a}
}

// Key returns the key the proof claims, without verifying it.
func (p Proof) Key() (vault.MemberKey, bool) {
	switch {
	case p.Direct != nil:
		return *p.Direct, true
	case p.Passkey != nil:
		return p.Passkey.Key, true
	default:
		return vault.MemberKey{}, false
	}
}

// Signer is a resolved identity.
type Signer struct {
	Key vault.MemberKey
	// Reference is the freshness reference of a passkey assertion. It is
	// zero for direct signers.
	Reference uint64
}

// IsPasskey returns true if the signer authenticated with an assertion.
func (s Signer) IsPasskey() bool {
	return s.Key.IsPasskey()
}

// Resolver authenticates proofs.
type Resolver struct {
	auth     x.Authenticator
	verifier *passkey.Verifier
	domains  passkey.DomainBucket
}

// NewResolver returns a resolver that accepts direct signatures reported by
// given authenticator and passkey assertions checked by given verifier.
func NewResolver(auth x.Authenticator, verifier *passkey.Verifier) *Resolver {
	return &Resolver{
		auth:     auth,
		verifier: verifier,
		domains:  passkey.NewDomainBucket(),
	}
}

// Resolve authenticates the proof. A passkey assertion must be made on the
// expected domain and bound to given binding. Direct proofs ignore both.
func (r *Resolver) Resolve(ctx vault.Context, db vault.ReadOnlyKVStore, p Proof, domain *vault.Address, b passkey.Binding) (Signer, error) {
	switch {
	case p.Direct != nil:
		if !p.Direct.IsDirect() {
			return Signer{}, errors.Wrapf(errors.ErrInput, "%s is not a direct key", p.Direct)
		}
		if !r.auth.HasSigner(ctx, *p.Direct) {
			return Signer{}, errors.Wrapf(ErrNoSignerFound, "%s did not sign", p.Direct)
		}
		return Signer{Key: *p.Direct}, nil
	case p.Passkey != nil:
		a := p.Passkey
		if domain == nil {
			return Signer{}, errors.Wrapf(ErrDomainMismatch, "%s is not bound to a domain", a.Key)
		}
		if !a.Domain.Equals(*domain) {
			return Signer{}, errors.Wrapf(ErrDomainMismatch, "assertion made on %s, member bound to %s", a.Domain, domain)
		}
		conf, err := r.domains.Load(db, a.Domain)
		if err != nil {
			return Signer{}, err
		}
		if err := r.verifier.Verify(ctx, db, a, conf, b); err != nil {
			return Signer{}, errors.Wrapf(err, "passkey %s", a.Key)
		}
		return Signer{Key: a.Key, Reference: a.Reference}, nil
	default:
		return Signer{}, errors.Wrap(ErrNoSignerFound, "no proof")
	}
}

// Session resolves the signers of a single call against one vault. It
// enforces the vault freshness token across all passkey signers of the call.
type Session struct {
	resolver *Resolver
	settings *settings.Settings
	highest  uint64
}

// Session starts resolving signers for given vault settings.
func (r *Resolver) Session(s *settings.Settings) *Session {
	return &Session{resolver: r, settings: s}
}

// Member resolves a proof made by an existing member of the vault.
func (s *Session) Member(ctx vault.Context, db vault.ReadOnlyKVStore, p Proof, b passkey.Binding) (Signer, *settings.Member, error) {
	key, ok := p.Key()
	if !ok {
		return Signer{}, nil, errors.Wrap(ErrNoSignerFound, "no proof")
	}
	m, ok := s.settings.Member(key)
	if !ok {
		return Signer{}, nil, errors.Wrapf(settings.ErrInsufficientPermissions, "%s is not a member", key)
	}
	signer, err := s.Candidate(ctx, db, p, m, b)
	if err != nil {
		return Signer{}, nil, err
	}
	return signer, m, nil
}

// Candidate resolves a proof made by given member, that does not need to
// belong to the vault yet.
func (s *Session) Candidate(ctx vault.Context, db vault.ReadOnlyKVStore, p Proof, m *settings.Member, b passkey.Binding) (Signer, error) {
	if key, ok := p.Key(); ok && !key.Equals(m.Key) {
		return Signer{}, errors.Wrapf(ErrNoSignerFound, "proof made by %s, expected %s", key, m.Key)
	}
	if p.Direct == nil && p.Passkey != nil {
		if err := s.settings.CheckFreshness(p.Passkey.Reference); err != nil {
			return Signer{}, err
		}
	}
	signer, err := s.resolver.Resolve(ctx, db, p, m.DomainBinding, b)
	if err != nil {
		return Signer{}, err
	}
	if signer.Reference > s.highest {
		s.highest = signer.Reference
	}
	return signer, nil
}

// Commit advances the vault freshness token to the highest reference used
// in this session. Settings must be persisted by the caller.
func (s *Session) Commit() {
	s.settings.ObserveFreshness(s.highest)
}
