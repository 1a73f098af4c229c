package sigs

import (
	"crypto/sha512"
	"encoding/binary"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"golang.org/x/crypto/ed25519"
)

// SignCodeV1 is the current way to prefix the bytes we use to build
// a signature
var SignCodeV1 = []byte{0, 0xCA, 0xFE, 0}

// Signer is implemented by anything holding an ed25519 private key.
type Signer interface {
	PublicKey() [32]byte
	Sign(message []byte) ([]byte, error)
}

// VerifyTxSignatures checks all the signatures on the call.
//
// returns list of signer keys (possibly empty),
// or error if any signature is invalid
func VerifyTxSignatures(db vault.KVStore, tx SignedTx, chainID string) ([]vault.MemberKey, error) {
	bz, err := tx.GetSignBytes()
	if err != nil {
		return nil, err
	}
	sigs := tx.GetSignatures()

	signers := make([]vault.MemberKey, 0, len(sigs))
	for i, sig := range sigs {
		signer, err := VerifySignature(db, sig, bz, chainID)
		if err != nil {
			return nil, errors.Wrapf(err, "signature %d", i)
		}
		signers = append(signers, signer)
	}
	return signers, nil
}

// VerifySignature checks one signature against signbytes,
// check chain and updates state in the store
func VerifySignature(db vault.KVStore, sig *StdSignature, signBytes []byte, chainID string) (vault.MemberKey, error) {
	if err := sig.Validate(); err != nil {
		return vault.MemberKey{}, err
	}

	bucket := NewBucket()
	user, err := bucket.GetOrCreate(db, sig.Pubkey)
	if err != nil {
		return vault.MemberKey{}, err
	}

	toSign, err := BuildSignBytes(signBytes, chainID, sig.Sequence)
	if err != nil {
		return vault.MemberKey{}, err
	}
	if !ed25519.Verify(sig.Pubkey[:], toSign, sig.Signature) {
		return vault.MemberKey{}, errors.Wrap(ErrInvalidSignature, "ed25519 verification failed")
	}

	if err := user.CheckAndIncrementSequence(sig.Sequence); err != nil {
		return vault.MemberKey{}, err
	}
	if err := bucket.Put(db, sig.Pubkey[:], user); err != nil {
		return vault.MemberKey{}, err
	}
	return sig.Key(), nil
}

/*
BuildSignBytes combines all info on the actual call before signing

We use the following format:

version | len(chainID) | chainID      | nonce             | signBytes
4bytes  | uint8        | ascii string | int64 (bigendian) | serialized message

This is then prehashed with sha512 before fed into
the public key signing/verification step
*/
func BuildSignBytes(signBytes []byte, chainID string, seq int64) ([]byte, error) {
	if seq < 0 {
		return nil, errors.Wrap(ErrInvalidSequence, "negative")
	}
	if !vault.IsValidChainID(chainID) {
		return nil, errors.Wrapf(errors.ErrInput, "chain id: %v", chainID)
	}

	// encode nonce as 8 byte, big-endian
	nonce := make([]byte, 8)
	binary.BigEndian.PutUint64(nonce, uint64(seq))

	output := make([]byte, 0, 4+1+len(chainID)+8+len(signBytes))
	output = append(output, SignCodeV1...)
	output = append(output, uint8(len(chainID)))
	output = append(output, []byte(chainID)...)
	output = append(output, nonce...)
	output = append(output, signBytes...)

	// constant length output to feed into eddsa
	hashed := sha512.Sum512(output)
	return hashed[:], nil
}

// SignTx creates a signature for the given call
func SignTx(signer Signer, tx SignedTx, chainID string, seq int64) (*StdSignature, error) {
	signBytes, err := tx.GetSignBytes()
	if err != nil {
		return nil, err
	}
	toSign, err := BuildSignBytes(signBytes, chainID, seq)
	if err != nil {
		return nil, err
	}
	sig, err := signer.Sign(toSign)
	if err != nil {
		return nil, err
	}
	return &StdSignature{
		Pubkey:    signer.PublicKey(),
		Signature: sig,
		Sequence:  seq,
	}, nil
}

// NextNonce returns the next numeric nonce value that should be used during a
// call signing. If the key was never used, nonce counting starts with zero.
func NextNonce(db vault.ReadOnlyKVStore, pubkey [32]byte) (int64, error) {
	u, err := NewBucket().GetOrCreate(db, pubkey)
	if err != nil {
		return 0, errors.Wrap(err, "bucket get")
	}
	return u.Sequence, nil
}
