/*
Package passkeytest provides fixtures for tests of packages that accept
passkey assertions.
*/
package passkeytest

import (
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/vaulttest"
	"github.com/iov-one/vault/x/passkey"
)

const (
	RPID   = "vault.test"
	Origin = "https://vault.test"
)

// Fixture is a stored domain configuration together with a canned
// freshness registry.
type Fixture struct {
	Domain vault.Address
	Config *passkey.DomainConfig
	Hashes vaulttest.RecentHashes
	// Device is the client device hash put in every assertion.
	Device [32]byte

	reference uint64
}

// NewFixture stores a domain configuration for RPID in given database.
func NewFixture(t testing.TB, ctx vault.Context, db vault.KVStore) *Fixture {
	t.Helper()
	conf := passkey.NewDomainConfig(RPID, vaulttest.RandomAddress(), Origin)
	addr, err := passkey.NewDomainBucket().Save(ctx, db, conf)
	if err != nil {
		t.Fatalf("cannot save domain: %s", err)
	}
	return &Fixture{
		Domain: addr,
		Config: conf,
		Hashes: make(vaulttest.RecentHashes),
		Device: sha256.Sum256([]byte("passkeytest device")),
	}
}

// Verifier returns a verifier reading the fixture registry.
func (f *Fixture) Verifier() *passkey.Verifier {
	return passkey.NewVerifier(f.Hashes)
}

// Bind returns the domain binding members signing with this fixture use.
func (f *Fixture) Bind() *vault.Address {
	d := f.Domain
	return &d
}

// Assert returns an assertion for given binding. Each call uses a new,
// higher freshness reference.
func (f *Fixture) Assert(s *vaulttest.PasskeySigner, b passkey.Binding) *passkey.Assertion {
	f.reference++
	return f.AssertAt(s, b, f.reference)
}

// AssertAt returns an assertion for given binding using given freshness
// reference.
func (f *Fixture) AssertAt(s *vaulttest.PasskeySigner, b passkey.Binding, reference uint64) *passkey.Assertion {
	if reference > f.reference {
		f.reference = reference
	}
	recent, ok := f.Hashes[reference]
	if !ok {
		var ref [8]byte
		binary.BigEndian.PutUint64(ref[:], reference)
		recent = sha256.Sum256(ref[:])
		f.Hashes[reference] = recent
	}
	challenge := passkey.Challenge(b, recent, f.Device)
	a := s.Assert(RPID, vaulttest.ClientData{Challenge: challenge[:], Origin: Origin})
	return &passkey.Assertion{
		Key:               s.Key(),
		Domain:            f.Domain,
		AuthenticatorData: a.AuthenticatorData,
		ClientDataJSON:    a.ClientDataJSON,
		Signature:         a.Signature,
		Reference:         reference,
		RecentHash:        recent,
		ClientDeviceHash:  f.Device,
	}
}
