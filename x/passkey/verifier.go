package passkey

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
)

// RecentHashes resolves a freshness reference to the recorded hash.
type RecentHashes interface {
	RecentHash(db vault.ReadOnlyKVStore, reference uint64) ([32]byte, error)
}

// Verifier checks WebAuthn assertions made by passkey bound members.
type Verifier struct {
	Hashes    RecentHashes
	Signature SignatureCheck
}

// NewVerifier returns a verifier checking signatures with the secp256r1
// curve primitive.
func NewVerifier(hashes RecentHashes) *Verifier {
	return &Verifier{Hashes: hashes, Signature: NewCurveCheck()}
}

// Verify returns nil only if the assertion was made by the passkey for the
// given binding, on the given domain, using a still fresh token.
func (v *Verifier) Verify(ctx vault.Context, db vault.ReadOnlyKVStore, a *Assertion, domain *DomainConfig, b Binding) error {
	if err := a.Validate(); err != nil {
		return errors.Wrap(err, "assertion")
	}
	if domain.Disabled {
		return errors.Wrapf(ErrDomainDisabled, "relying party %q", domain.RelyingPartyID)
	}

	recent, err := v.Hashes.RecentHash(db, a.Reference)
	if err != nil {
		return errors.Wrapf(err, "reference %d", a.Reference)
	}
	if recent != a.RecentHash {
		return errors.Wrapf(ErrFreshnessMismatch, "reference %d", a.Reference)
	}

	var authData protocol.AuthenticatorData
	raw := make([]byte, 0, 32+len(a.AuthenticatorData))
	raw = append(raw, domain.RelyingPartyIDHash[:]...)
	raw = append(raw, a.AuthenticatorData...)
	if err := authData.Unmarshal(raw); err != nil {
		return errors.Wrap(ErrAuthenticatorData, err.Error())
	}
	if !authData.Flags.UserPresent() {
		return errors.Wrap(ErrUserNotPresent, "user present flag not set")
	}

	clientData, err := decodeClientData(a.ClientDataJSON)
	if err != nil {
		return err
	}
	challenge, err := decodeChallenge(clientData.Challenge)
	if err != nil {
		return err
	}
	expected := Challenge(b, a.RecentHash, a.ClientDeviceHash)
	if subtle.ConstantTimeCompare(challenge, expected[:]) != 1 {
		return errors.Wrapf(ErrChallengeMismatch, "action %s", b.Action)
	}

	origin, ok := domain.Origin(int(a.OriginIndex))
	if !ok {
		return errors.Wrapf(ErrOrigin, "origin index %d", a.OriginIndex)
	}
	if clientData.Origin != origin {
		return errors.Wrapf(ErrOrigin, "got %q, want %q", clientData.Origin, origin)
	}
	if clientData.Type != protocol.AssertCeremony {
		return errors.Wrapf(ErrCeremonyType, "%q", clientData.Type)
	}

	if err := v.Signature.CheckSignature(ctx, a.Key, a.Message(domain.RelyingPartyIDHash), a.Signature); err != nil {
		return err
	}
	return nil
}

func decodeClientData(raw []byte) (*protocol.CollectedClientData, error) {
	var cd protocol.CollectedClientData
	if err := json.Unmarshal(raw, &cd); err != nil {
		return nil, errors.Wrap(ErrClientData, err.Error())
	}
	return &cd, nil
}

// decodeChallenge reads a base64url challenge. Padding is tolerated.
func decodeChallenge(s string) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, errors.Wrap(ErrChallengeMismatch, "challenge is not base64url")
	}
	return raw, nil
}
