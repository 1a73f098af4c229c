package sigs

import (
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"golang.org/x/crypto/ed25519"
)

// SignedTx represents a call that contains signatures,
// which can be verified by the sigs.Decorator
type SignedTx interface {
	vault.Tx

	// GetSignBytes returns the canonical byte representation of the call
	// message. This is what each signer signs, prefixed by BuildSignBytes.
	GetSignBytes() ([]byte, error)

	// GetSignatures returns the signature of signers who signed the Msg.
	GetSignatures() []*StdSignature
}

// StdSignature is an ed25519 signature of a direct member key.
type StdSignature struct {
	Pubkey    [ed25519.PublicKeySize]byte
	Signature []byte
	// Sequence is the nonce of the signer. It must be equal to the
	// current sequence of the signer account.
	Sequence int64
}

// Validate ensures the StdSignature meets basic standards
func (s *StdSignature) Validate() error {
	if s.Sequence < 0 {
		return errors.Wrap(ErrInvalidSequence, "negative")
	}
	if s.Pubkey == [ed25519.PublicKeySize]byte{} {
		return errors.Wrap(errors.ErrUnauthorized, "missing public key")
	}
	if len(s.Signature) != ed25519.SignatureSize {
		return errors.Wrapf(ErrInvalidSignature, "signature must be %d bytes", ed25519.SignatureSize)
	}
	return nil
}

// Key returns the member key that produced this signature.
func (s *StdSignature) Key() vault.MemberKey {
	return vault.NewDirectKey(s.Pubkey)
}
