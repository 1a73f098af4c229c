package vaulttest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"math/big"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/iov-one/vault"
	"golang.org/x/crypto/ed25519"
)

// DirectSigner is an ed25519 key pair of a direct member.
type DirectSigner struct {
	priv ed25519.PrivateKey
}

// NewDirectSigner returns a new random direct signer.
func NewDirectSigner() *DirectSigner {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		panic(err)
	}
	return &DirectSigner{priv: priv}
}

// PublicKey returns the raw ed25519 public key.
func (s *DirectSigner) PublicKey() [32]byte {
	var pub [32]byte
	copy(pub[:], s.priv.Public().(ed25519.PublicKey))
	return pub
}

// Key returns the member key of this signer.
func (s *DirectSigner) Key() vault.MemberKey {
	return vault.NewDirectKey(s.PublicKey())
}

// Address returns the ledger address of this signer.
func (s *DirectSigner) Address() vault.Address {
	return vault.Address(s.PublicKey())
}

// Sign returns an ed25519 signature of given message.
func (s *DirectSigner) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(s.priv, message), nil
}

// NewDirectKey returns the member key of a new random direct signer.
func NewDirectKey() vault.MemberKey {
	return NewDirectSigner().Key()
}

// PasskeySigner is a P-256 key pair held by an authenticator device.
type PasskeySigner struct {
	priv *ecdsa.PrivateKey
	// SignCount is reported in the authenticator data of every assertion.
	SignCount uint32
}

// NewPasskeySigner returns a new random passkey signer.
func NewPasskeySigner() *PasskeySigner {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		panic(err)
	}
	return &PasskeySigner{priv: priv}
}

// Compressed returns the 33 byte compressed public key.
func (s *PasskeySigner) Compressed() [33]byte {
	var c [33]byte
	copy(c[:], elliptic.MarshalCompressed(elliptic.P256(), s.priv.X, s.priv.Y))
	return c
}

// Key returns the member key of this signer.
func (s *PasskeySigner) Key() vault.MemberKey {
	return vault.NewPasskeyKey(s.Compressed())
}

// ClientData describes the client data an authenticator signs over.
type ClientData struct {
	// Type defaults to "webauthn.get".
	Type string
	// Challenge is the raw challenge, base64url encoded in the JSON.
	Challenge []byte
	Origin    string
}

// JSON returns the client data JSON as a browser would produce it.
func (cd ClientData) JSON() []byte {
	ceremony := protocol.CeremonyType(cd.Type)
	if ceremony == "" {
		ceremony = protocol.AssertCeremony
	}
	raw, err := json.Marshal(protocol.CollectedClientData{
		Type:      ceremony,
		Challenge: base64.RawURLEncoding.EncodeToString(cd.Challenge),
		Origin:    cd.Origin,
	})
	if err != nil {
		panic(err)
	}
	return raw
}

// Assertion is the signed output of an authenticator.
type Assertion struct {
	// AuthenticatorData without the leading relying party id hash.
	AuthenticatorData []byte
	ClientDataJSON    []byte
	// Signature is the 64 byte r || s encoding.
	Signature []byte
}

// Assert produces an assertion for given relying party and client data with
// the user present flag set.
func (s *PasskeySigner) Assert(rpID string, cd ClientData) Assertion {
	return s.AssertWithFlags(rpID, cd, byte(protocol.FlagUserPresent|protocol.FlagUserVerified))
}

// AssertWithFlags produces an assertion with the given authenticator flags.
func (s *PasskeySigner) AssertWithFlags(rpID string, cd ClientData, flags byte) Assertion {
	s.SignCount++
	authData := []byte{
		flags,
		byte(s.SignCount >> 24), byte(s.SignCount >> 16), byte(s.SignCount >> 8), byte(s.SignCount),
	}
	clientData := cd.JSON()
	return Assertion{
		AuthenticatorData: authData,
		ClientDataJSON:    clientData,
		Signature:         s.SignAssertion(rpID, authData, clientData),
	}
}

// SignAssertion signs the WebAuthn message built from given parts:
// sha256(rpID) || authenticator data || sha256(client data JSON).
func (s *PasskeySigner) SignAssertion(rpID string, authData, clientDataJSON []byte) []byte {
	rpIDHash := sha256.Sum256([]byte(rpID))
	clientHash := sha256.Sum256(clientDataJSON)
	message := append(append(rpIDHash[:], authData...), clientHash[:]...)
	return s.SignMessage(message)
}

// SignMessage returns the low-s r || s signature of sha256(message).
func (s *PasskeySigner) SignMessage(message []byte) []byte {
	digest := sha256.Sum256(message)
	r, ss, err := ecdsa.Sign(rand.Reader, s.priv, digest[:])
	if err != nil {
		panic(err)
	}
	n := elliptic.P256().Params().N
	if ss.Cmp(new(big.Int).Rsh(n, 1)) > 0 {
		ss = new(big.Int).Sub(n, ss)
	}
	sig := make([]byte, 64)
	r.FillBytes(sig[:32])
	ss.FillBytes(sig[32:])
	return sig
}

// RandomAddress returns a random ledger address.
func RandomAddress() vault.Address {
	var a vault.Address
	if _, err := rand.Read(a[:]); err != nil {
		panic(err)
	}
	return a
}
