package sigs

import (
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/vaulttest"
)

// signedTx is a minimal SignedTx implementation.
type signedTx struct {
	vaulttest.Tx
	payload    []byte
	signatures []*StdSignature
}

var _ SignedTx = (*signedTx)(nil)

func newSignedTx(payload []byte) *signedTx {
	return &signedTx{
		Tx:      vaulttest.Tx{Msg: &vaulttest.Msg{RoutePath: "test/signed"}},
		payload: payload,
	}
}

func (tx *signedTx) GetSignBytes() ([]byte, error) {
	return tx.payload, nil
}

func (tx *signedTx) GetSignatures() []*StdSignature {
	return tx.signatures
}

// signersHandler stores the seen signers on each call
type signersHandler struct {
	signers []vault.MemberKey
}

var _ vault.Handler = (*signersHandler)(nil)

func (h *signersHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	h.signers = Authenticate{}.GetSigners(ctx)
	return &vault.CheckResult{}, nil
}

func (h *signersHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	h.signers = Authenticate{}.GetSigners(ctx)
	return &vault.DeliverResult{}, nil
}
