package vault

import (
	"crypto/sha256"
	"encoding/json"

	"filippo.io/edwards25519"
	"github.com/iov-one/vault/errors"
	"github.com/mr-tron/base58"
)

// AddressLength is the length of all ledger identities.
const AddressLength = 32

const (
	// MaxSeeds is the maximum number of seeds a derived address can be
	// computed from, including the bump seed.
	MaxSeeds = 16
	// MaxSeedLength is the maximum length of a single seed.
	MaxSeedLength = 32
)

var derivedAddressMarker = []byte("ProgramDerivedAddress")

// DefaultProgramID is the identity of the program that owns vault records
// when the context does not declare one.
var DefaultProgramID = Address(sha256.Sum256([]byte("iov-one/vault")))

// Address is a 32 byte ledger identity. It is either an ed25519 public key or
// a derived address that has no corresponding private key.
type Address [AddressLength]byte

// ParseAddress decodes the base58 representation of an address.
func ParseAddress(s string) (Address, error) {
	var a Address
	raw, err := base58.Decode(s)
	if err != nil {
		return a, errors.Wrapf(errors.ErrInput, "base58 address %q: %s", s, err)
	}
	if len(raw) != AddressLength {
		return a, errors.Wrapf(errors.ErrInput, "address length %d", len(raw))
	}
	copy(a[:], raw)
	return a, nil
}

// AddressFromBytes copies given 32 bytes into an address.
func AddressFromBytes(raw []byte) (Address, error) {
	var a Address
	if len(raw) != AddressLength {
		return a, errors.Wrapf(errors.ErrInput, "address length %d", len(raw))
	}
	copy(a[:], raw)
	return a, nil
}

// Equals checks if two addresses are the same
func (a Address) Equals(b Address) bool {
	return a == b
}

// IsZero returns true if this is the zero address.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Bytes returns a copy of the raw address bytes.
func (a Address) Bytes() []byte {
	b := make([]byte, AddressLength)
	copy(b, a[:])
	return b
}

// String returns the base58 representation.
func (a Address) String() string {
	return base58.Encode(a[:])
}

// MarshalJSON provides a base58 representation for JSON.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Address) UnmarshalJSON(raw []byte) error {
	var enc string
	if err := json.Unmarshal(raw, &enc); err != nil {
		return errors.Wrap(err, "cannot decode json")
	}
	// No value zero the address.
	if len(enc) == 0 {
		*a = Address{}
		return nil
	}
	addr, err := ParseAddress(enc)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// CreateDerivedAddress computes the address derived from given seeds and the
// owning program. The result must not be a valid ed25519 point, so that no
// private key can ever sign for it: only the owning program can act on its
// behalf by presenting the same seeds.
func CreateDerivedAddress(seeds [][]byte, program Address) (Address, error) {
	var a Address
	if len(seeds) > MaxSeeds {
		return a, errors.Wrapf(errors.ErrInput, "too many seeds: %d", len(seeds))
	}
	h := sha256.New()
	for i, s := range seeds {
		if len(s) > MaxSeedLength {
			return a, errors.Wrapf(errors.ErrInput, "seed %d too long: %d", i, len(s))
		}
		_, _ = h.Write(s)
	}
	_, _ = h.Write(program[:])
	_, _ = h.Write(derivedAddressMarker)
	copy(a[:], h.Sum(nil))

	if isOnCurve(a[:]) {
		return Address{}, errors.Wrap(errors.ErrInput, "derived address is a curve point")
	}
	return a, nil
}

// FindDerivedAddress searches for the highest bump seed that together with
// given seeds produces a valid derived address. The bump must be stored
// alongside the record so that the address can be recomputed cheaply.
func FindDerivedAddress(seeds [][]byte, program Address) (Address, uint8, error) {
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{byte(bump)}
		addr, err := CreateDerivedAddress(withBump, program)
		if err == nil {
			return addr, uint8(bump), nil
		}
		if !errors.ErrInput.Is(err) {
			return Address{}, 0, err
		}
	}
	return Address{}, 0, errors.Wrap(errors.ErrHuman, "no viable bump seed")
}

// CreateDerivedAddressWithBump recomputes an address found earlier with
// FindDerivedAddress.
func CreateDerivedAddressWithBump(seeds [][]byte, bump uint8, program Address) (Address, error) {
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	withBump[len(seeds)] = []byte{bump}
	return CreateDerivedAddress(withBump, program)
}

func isOnCurve(raw []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(raw)
	return err == nil
}
