package passkey

import (
	"bytes"
	"context"
	"crypto/elliptic"
	"crypto/sha256"
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto/secp256r1"
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
)

// SignatureCheck verifies that the passkey key signed the WebAuthn message.
type SignatureCheck interface {
	CheckSignature(ctx vault.Context, key vault.MemberKey, message, signature []byte) error
}

// CurveVerifier is the host primitive verifying P-256 signatures over a
// digest.
type CurveVerifier interface {
	VerifyP256(compressed [33]byte, digest [32]byte, signature []byte) bool
}

// CurveCheck verifies the signature directly using a curve primitive over
// sha256(message).
type CurveCheck struct {
	Verifier CurveVerifier
}

var _ SignatureCheck = CurveCheck{}

// NewCurveCheck returns a check using the secp256r1 verifier.
func NewCurveCheck() CurveCheck {
	return CurveCheck{Verifier: Secp256r1Verifier{}}
}

func (c CurveCheck) CheckSignature(ctx vault.Context, key vault.MemberKey, message, signature []byte) error {
	if !key.IsPasskey() {
		return errors.Wrap(ErrSignature, "not a passkey key")
	}
	if len(signature) != 64 {
		return errors.Wrap(ErrSignature, "signature must be 64 bytes")
	}
	var compressed [33]byte
	copy(compressed[:], key.Raw())
	digest := sha256.Sum256(message)
	if !c.Verifier.VerifyP256(compressed, digest, signature) {
		return errors.Wrap(ErrSignature, "curve verification failed")
	}
	return nil
}

// Secp256r1Verifier verifies low-s P-256 signatures using the go-ethereum
// secp256r1 implementation.
type Secp256r1Verifier struct{}

var _ CurveVerifier = Secp256r1Verifier{}

var p256HalfOrder = new(big.Int).Rsh(elliptic.P256().Params().N, 1)

func (Secp256r1Verifier) VerifyP256(compressed [33]byte, digest [32]byte, signature []byte) bool {
	if len(signature) != 64 {
		return false
	}
	x, y := elliptic.UnmarshalCompressed(elliptic.P256(), compressed[:])
	if x == nil {
		return false
	}
	r := new(big.Int).SetBytes(signature[:32])
	s := new(big.Int).SetBytes(signature[32:])
	if s.Cmp(p256HalfOrder) > 0 {
		return false
	}
	return secp256r1.Verify(digest[:], r, s, x, y)
}

// Secp256r1ProgramID is the identity of the host program that verifies P-256
// signatures in a separate call of the same transaction.
var Secp256r1ProgramID = mustAddress("Secp256r1SigVerify1111111111111111111111111")

func mustAddress(s string) vault.Address {
	a, err := vault.ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// PriorCalls gives access to the verification call that precedes the current
// call in the same transaction.
type PriorCalls interface {
	PriorCall(ctx vault.Context) (program vault.Address, data []byte, err error)
}

// PriorCallCheck accepts a signature that was already verified by a prior
// call to the secp256r1 program for the same key and message.
type PriorCallCheck struct {
	Calls PriorCalls
}

var _ SignatureCheck = PriorCallCheck{}

func (c PriorCallCheck) CheckSignature(ctx vault.Context, key vault.MemberKey, message, _ []byte) error {
	program, data, err := c.Calls.PriorCall(ctx)
	if err != nil {
		return errors.Wrap(err, "prior call")
	}
	if !program.Equals(Secp256r1ProgramID) {
		return errors.Wrapf(ErrPriorCall, "program %s", program)
	}
	verified, err := DecodeVerificationPayload(data)
	if err != nil {
		return err
	}
	raw := key.Raw()
	for _, v := range verified {
		if bytes.Equal(v.PublicKey, raw) && bytes.Equal(v.Message, message) {
			return nil
		}
	}
	return errors.Wrap(ErrPriorCall, "no verified signature for key and message")
}

// VerifiedSignature is a single entry of a secp256r1 verification payload.
type VerifiedSignature struct {
	PublicKey []byte
	Signature []byte
	Message   []byte
}

const (
	// currentCall marks data located within the verification payload
	// itself.
	currentCall = 0xFFFF

	payloadHeaderSize = 2
	offsetsSize       = 14
)

// DecodeVerificationPayload reads the instruction data of a secp256r1
// verification call: count(1) padding(1) followed by count offset records
// of seven u16 little endian values and the referenced data. Only data
// within the payload itself is supported.
func DecodeVerificationPayload(data []byte) ([]VerifiedSignature, error) {
	if len(data) < payloadHeaderSize {
		return nil, errors.Wrap(ErrPriorCall, "payload too short")
	}
	count := int(data[0])
	if count == 0 {
		return nil, errors.Wrap(ErrPriorCall, "no signatures")
	}
	if len(data) < payloadHeaderSize+count*offsetsSize {
		return nil, errors.Wrap(ErrPriorCall, "truncated offsets")
	}

	out := make([]VerifiedSignature, 0, count)
	for i := 0; i < count; i++ {
		rec := data[payloadHeaderSize+i*offsetsSize:]
		u := func(n int) int { return int(binary.LittleEndian.Uint16(rec[2*n:])) }
		var (
			sigOff, sigIx = u(0), u(1)
			keyOff, keyIx = u(2), u(3)
			msgOff, msgSz = u(4), u(5)
			msgIx         = u(6)
		)
		if sigIx != currentCall || keyIx != currentCall || msgIx != currentCall {
			return nil, errors.Wrapf(ErrPriorCall, "signature %d references another call", i)
		}
		sig, err := slice(data, sigOff, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "signature %d", i)
		}
		key, err := slice(data, keyOff, vault.PasskeyKeyLength)
		if err != nil {
			return nil, errors.Wrapf(err, "public key %d", i)
		}
		msg, err := slice(data, msgOff, msgSz)
		if err != nil {
			return nil, errors.Wrapf(err, "message %d", i)
		}
		out = append(out, VerifiedSignature{PublicKey: key, Signature: sig, Message: msg})
	}
	return out, nil
}

func slice(data []byte, off, size int) ([]byte, error) {
	if off < 0 || size < 0 || off+size > len(data) {
		return nil, errors.Wrapf(ErrPriorCall, "range %d+%d out of %d bytes", off, size, len(data))
	}
	return data[off : off+size], nil
}

// EncodeVerificationPayload builds a single signature verification payload
// with all data inline.
func EncodeVerificationPayload(compressed [33]byte, signature [64]byte, message []byte) []byte {
	sigOff := payloadHeaderSize + offsetsSize
	keyOff := sigOff + 64
	msgOff := keyOff + 33

	data := make([]byte, 0, msgOff+len(message))
	data = append(data, 1, 0)
	for _, v := range []int{sigOff, currentCall, keyOff, currentCall, msgOff, len(message), currentCall} {
		data = binary.LittleEndian.AppendUint16(data, uint16(v))
	}
	data = append(data, signature[:]...)
	data = append(data, compressed[:]...)
	data = append(data, message...)
	return data
}

type priorCallKey struct{}

type priorCall struct {
	program vault.Address
	data    []byte
}

// WithPriorCall records the verification call that preceded the current
// call.
func WithPriorCall(ctx vault.Context, program vault.Address, data []byte) vault.Context {
	return context.WithValue(ctx, priorCallKey{}, priorCall{program: program, data: data})
}

// ContextPriorCalls reads the prior call recorded with WithPriorCall.
type ContextPriorCalls struct{}

var _ PriorCalls = ContextPriorCalls{}

func (ContextPriorCalls) PriorCall(ctx vault.Context) (vault.Address, []byte, error) {
	pc, ok := ctx.Value(priorCallKey{}).(priorCall)
	if !ok {
		return vault.Address{}, nil, errors.Wrap(ErrPriorCall, "no prior call")
	}
	return pc.program, pc.data, nil
}
