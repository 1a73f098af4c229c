package vault

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iov-one/vault/errors"
	"github.com/mr-tron/base58"
)

// KeyKind tells how a member key authenticates.
type KeyKind uint8

const (
	// DirectKey is an ed25519 public key that signs calls directly.
	DirectKey KeyKind = 1
	// PasskeyKey is a compressed P-256 public key that authenticates
	// through a WebAuthn assertion.
	PasskeyKey KeyKind = 2
)

const (
	DirectKeyLength  = 32
	PasskeyKeyLength = 33

	// MemberKeyFixedLength is the size of a member key inside fixed width
	// record layouts: kind byte followed by 33 zero padded key bytes.
	MemberKeyFixedLength = 1 + PasskeyKeyLength
)

func (k KeyKind) String() string {
	switch k {
	case DirectKey:
		return "direct"
	case PasskeyKey:
		return "passkey"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

func (k KeyKind) keyLength() int {
	switch k {
	case DirectKey:
		return DirectKeyLength
	case PasskeyKey:
		return PasskeyKeyLength
	default:
		return -1
	}
}

// MemberKey is the canonical signer identity. It is immutable and two keys are
// equal only if both kind and raw bytes are equal, which also allows using it
// as a map key.
type MemberKey struct {
	kind KeyKind
	raw  [PasskeyKeyLength]byte
}

// NewDirectKey returns a member key for an ed25519 public key.
func NewDirectKey(pub [DirectKeyLength]byte) MemberKey {
	k := MemberKey{kind: DirectKey}
	copy(k.raw[:], pub[:])
	return k
}

// NewPasskeyKey returns a member key for a compressed P-256 public key.
func NewPasskeyKey(compressed [PasskeyKeyLength]byte) MemberKey {
	return MemberKey{kind: PasskeyKey, raw: compressed}
}

// DirectKeyOf returns the direct member key of the owner of given address.
func DirectKeyOf(a Address) MemberKey {
	return NewDirectKey(a)
}

// NewMemberKey builds a key from its kind and raw bytes.
func NewMemberKey(kind KeyKind, raw []byte) (MemberKey, error) {
	if n := kind.keyLength(); n < 0 {
		return MemberKey{}, errors.Wrapf(errors.ErrInput, "unknown key kind %d", kind)
	} else if len(raw) != n {
		return MemberKey{}, errors.Wrapf(errors.ErrInput, "%s key must be %d bytes, got %d", kind, n, len(raw))
	}
	k := MemberKey{kind: kind}
	copy(k.raw[:], raw)
	return k, k.Validate()
}

// Kind returns the authentication scheme of this key.
func (k MemberKey) Kind() KeyKind {
	return k.kind
}

// IsDirect returns true for ed25519 keys.
func (k MemberKey) IsDirect() bool {
	return k.kind == DirectKey
}

// IsPasskey returns true for passkey bound P-256 keys.
func (k MemberKey) IsPasskey() bool {
	return k.kind == PasskeyKey
}

// IsZero returns true for the zero value.
func (k MemberKey) IsZero() bool {
	return k == MemberKey{}
}

// Equals checks if two keys are the same.
func (k MemberKey) Equals(o MemberKey) bool {
	return k == o
}

// Raw returns a copy of the key bytes: 32 for direct and 33 for passkey keys.
func (k MemberKey) Raw() []byte {
	n := k.kind.keyLength()
	if n < 0 {
		return nil
	}
	b := make([]byte, n)
	copy(b, k.raw[:n])
	return b
}

// Seed returns a 32 byte value identifying this key that can be used as a
// derivation seed. Direct keys use the public key itself. Passkey keys are
// hashed, because a seed is limited to 32 bytes and dropping the parity byte
// would make two distinct keys collide.
func (k MemberKey) Seed() []byte {
	switch k.kind {
	case DirectKey:
		return k.Raw()
	default:
		h := sha256.Sum256(k.raw[:])
		return h[:]
	}
}

// Address returns the ledger address of a direct key. Passkey keys have no
// ledger address and the zero address is returned.
func (k MemberKey) Address() Address {
	var a Address
	if k.kind == DirectKey {
		copy(a[:], k.raw[:DirectKeyLength])
	}
	return a
}

// Validate returns an error if this is not a well formed key.
func (k MemberKey) Validate() error {
	switch k.kind {
	case DirectKey:
		if k.raw[DirectKeyLength] != 0 {
			return errors.Wrap(errors.ErrInput, "direct key padding")
		}
		if k.Address().IsZero() {
			return errors.Wrap(errors.ErrEmpty, "direct key")
		}
	case PasskeyKey:
		if p := k.raw[0]; p != 0x02 && p != 0x03 {
			return errors.Wrapf(errors.ErrInput, "passkey key prefix %#x", p)
		}
	default:
		return errors.Wrapf(errors.ErrInput, "unknown key kind %d", k.kind)
	}
	return nil
}

// Bytes returns the variable length encoding: kind byte followed by the raw
// key bytes.
func (k MemberKey) Bytes() []byte {
	return append([]byte{byte(k.kind)}, k.Raw()...)
}

// DecodeMemberKey reads a variable length key encoding from the beginning of
// given data. It returns the key and the number of bytes consumed.
func DecodeMemberKey(data []byte) (MemberKey, int, error) {
	if len(data) < 1 {
		return MemberKey{}, 0, errors.Wrap(errors.ErrRecordSize, "member key kind")
	}
	kind := KeyKind(data[0])
	n := kind.keyLength()
	if n < 0 {
		return MemberKey{}, 0, errors.Wrapf(errors.ErrInput, "unknown key kind %d", kind)
	}
	if len(data) < 1+n {
		return MemberKey{}, 0, errors.Wrapf(errors.ErrRecordSize, "%s key needs %d bytes", kind, n)
	}
	k, err := NewMemberKey(kind, data[1:1+n])
	return k, 1 + n, err
}

// AppendFixed appends the fixed width encoding of this key to dst.
func (k MemberKey) AppendFixed(dst []byte) []byte {
	dst = append(dst, byte(k.kind))
	return append(dst, k.raw[:]...)
}

// DecodeFixedMemberKey reads the fixed width encoding written by AppendFixed.
func DecodeFixedMemberKey(data []byte) (MemberKey, error) {
	if len(data) != MemberKeyFixedLength {
		return MemberKey{}, errors.Wrapf(errors.ErrRecordSize, "fixed member key is %d bytes", len(data))
	}
	k := MemberKey{kind: KeyKind(data[0])}
	copy(k.raw[:], data[1:])
	if err := k.Validate(); err != nil {
		return MemberKey{}, err
	}
	return k, nil
}

// String returns a human readable "<kind>:<base58>" representation.
func (k MemberKey) String() string {
	if k.IsZero() {
		return "(nil)"
	}
	return k.kind.String() + ":" + base58.Encode(k.Raw())
}

// ParseMemberKey decodes the String representation of a key.
func ParseMemberKey(s string) (MemberKey, error) {
	chunks := strings.SplitN(s, ":", 2)
	if len(chunks) != 2 {
		return MemberKey{}, errors.Wrapf(errors.ErrInput, "member key %q", s)
	}
	var kind KeyKind
	switch chunks[0] {
	case "direct":
		kind = DirectKey
	case "passkey":
		kind = PasskeyKey
	default:
		return MemberKey{}, errors.Wrapf(errors.ErrInput, "unknown key kind %q", chunks[0])
	}
	raw, err := base58.Decode(chunks[1])
	if err != nil {
		return MemberKey{}, errors.Wrapf(errors.ErrInput, "member key %q: %s", s, err)
	}
	return NewMemberKey(kind, raw)
}

func (k MemberKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *MemberKey) UnmarshalJSON(raw []byte) error {
	var enc string
	if err := json.Unmarshal(raw, &enc); err != nil {
		return errors.Wrap(err, "cannot decode json")
	}
	key, err := ParseMemberKey(enc)
	if err != nil {
		return err
	}
	*k = key
	return nil
}
