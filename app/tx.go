package app

import (
	"encoding/json"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/x/sigs"
)

// Tx is a vault call signed by one or more direct keys. The first
// signature belongs to the payer.
type Tx struct {
	Msg        vault.Msg
	Signatures []*sigs.StdSignature
}

var _ sigs.SignedTx = (*Tx)(nil)

func (tx *Tx) GetMsg() (vault.Msg, error) {
	return tx.Msg, nil
}

func (tx *Tx) GetSignatures() []*sigs.StdSignature {
	return tx.Signatures
}

// GetSignBytes returns the message path followed by the JSON encoded
// message. Signatures are not part of it.
func (tx *Tx) GetSignBytes() ([]byte, error) {
	if tx.Msg == nil {
		return nil, errors.Wrap(errors.ErrMsg, "no message")
	}
	raw, err := json.Marshal(tx.Msg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	path := tx.Msg.Path()
	out := make([]byte, 0, len(path)+1+len(raw))
	out = append(out, path...)
	out = append(out, 0)
	return append(out, raw...), nil
}

// Sign appends a signature of given signer using its next sequence.
func (tx *Tx) Sign(db vault.ReadOnlyKVStore, signer sigs.Signer, chainID string) error {
	seq, err := sigs.NextNonce(db, signer.PublicKey())
	if err != nil {
		return err
	}
	sig, err := sigs.SignTx(signer, tx, chainID, seq)
	if err != nil {
		return errors.Wrap(err, "sign")
	}
	tx.Signatures = append(tx.Signatures, sig)
	return nil
}
