package passkey

import (
	"crypto/sha256"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
)

// Assertion is the proof a passkey bound member presents instead of a direct
// signature.
type Assertion struct {
	// Key is the passkey bound member key that made the assertion.
	Key vault.MemberKey
	// Domain is the address of the DomainConfig the assertion is made for.
	Domain vault.Address
	// AuthenticatorData as returned by the authenticator, without the
	// leading relying party id hash that is taken from the domain.
	AuthenticatorData []byte
	ClientDataJSON    []byte
	// Signature is the 64 byte r || s encoding. It may be empty when the
	// signature was verified by a prior call.
	Signature []byte
	// OriginIndex selects the whitelisted origin the client reports.
	OriginIndex uint8
	// Reference and RecentHash are the freshness token the challenge is
	// bound to.
	Reference        uint64
	RecentHash       [32]byte
	ClientDeviceHash [32]byte
}

// Validate checks the assertion shape.
func (a *Assertion) Validate() error {
	var errs error
	if !a.Key.IsPasskey() {
		errs = errors.Append(errs, errors.Field("Key", errors.ErrInput, "must be a passkey key"))
	} else {
		errs = errors.AppendField(errs, "Key", a.Key.Validate())
	}
	if a.Domain.IsZero() {
		errs = errors.AppendField(errs, "Domain", errors.ErrEmpty)
	}
	if len(a.AuthenticatorData) < 5 {
		errs = errors.Append(errs, errors.Field("AuthenticatorData", ErrAuthenticatorData, "too short"))
	}
	if len(a.ClientDataJSON) == 0 {
		errs = errors.AppendField(errs, "ClientDataJSON", errors.ErrEmpty)
	}
	if n := len(a.Signature); n != 0 && n != 64 {
		errs = errors.Append(errs, errors.Field("Signature", ErrSignature, "must be 64 bytes"))
	}
	return errs
}

// Message returns the WebAuthn signed message for given relying party id
// hash: rpIdHash || authenticatorData || sha256(clientDataJSON).
func (a *Assertion) Message(rpIDHash [32]byte) []byte {
	clientHash := sha256.Sum256(a.ClientDataJSON)
	msg := make([]byte, 0, 32+len(a.AuthenticatorData)+32)
	msg = append(msg, rpIDHash[:]...)
	msg = append(msg, a.AuthenticatorData...)
	msg = append(msg, clientHash[:]...)
	return msg
}
