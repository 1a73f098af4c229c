package passkey

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/orm"
)

const (
	MaxRelyingPartyIDLength = 255
	MaxOriginsLength        = 512

	// DomainConfigSize is the size of the fixed DomainConfig record:
	// rpIdHash(32) authority(32) disabled(1) rpIdLen(1) rpId(255)
	// originsLen(2) origins(512).
	DomainConfigSize = 32 + 32 + 1 + 1 + MaxRelyingPartyIDLength + 2 + MaxOriginsLength
)

// DomainConfig binds passkey assertions to a relying party and a set of web
// origins.
type DomainConfig struct {
	RelyingPartyIDHash [32]byte
	// Authority may update the configuration.
	Authority      vault.Address
	Disabled       bool
	RelyingPartyID string
	Origins        []string
}

// NewDomainConfig returns a configuration with the relying party id hash
// computed.
func NewDomainConfig(rpID string, authority vault.Address, origins ...string) *DomainConfig {
	return &DomainConfig{
		RelyingPartyIDHash: sha256.Sum256([]byte(rpID)),
		Authority:          authority,
		RelyingPartyID:     rpID,
		Origins:            origins,
	}
}

var _ orm.Model = (*DomainConfig)(nil)

// Validate returns an error if the configuration is malformed.
func (d *DomainConfig) Validate() error {
	var errs error
	switch n := len(d.RelyingPartyID); {
	case n == 0:
		errs = errors.AppendField(errs, "RelyingPartyID", errors.ErrEmpty)
	case n > MaxRelyingPartyIDLength:
		errs = errors.Append(errs, errors.Field("RelyingPartyID", ErrDomainConfig, "longer than %d", MaxRelyingPartyIDLength))
	}
	if sha256.Sum256([]byte(d.RelyingPartyID)) != d.RelyingPartyIDHash {
		errs = errors.Append(errs, errors.Field("RelyingPartyIDHash", ErrDomainConfig, "must be the hash of the relying party id"))
	}
	if d.Authority.IsZero() {
		errs = errors.AppendField(errs, "Authority", errors.ErrEmpty)
	}
	if len(d.Origins) == 0 {
		errs = errors.AppendField(errs, "Origins", errors.ErrEmpty)
	}
	for i, o := range d.Origins {
		if o == "" {
			errs = errors.Append(errs, errors.Field("Origins", errors.ErrEmpty, "origin %d", i))
		}
	}
	if n := originsLength(d.Origins); n > MaxOriginsLength {
		errs = errors.Append(errs, errors.Field("Origins", ErrDomainConfig, "encoded origins take %d bytes", n))
	}
	return errs
}

// Origin returns the whitelisted origin at given index.
func (d *DomainConfig) Origin(index int) (string, bool) {
	if index < 0 || index >= len(d.Origins) {
		return "", false
	}
	return d.Origins[index], true
}

func originsLength(origins []string) int {
	n := 0
	for _, o := range origins {
		n += 2 + len(o)
	}
	return n
}

// Marshal returns the fixed size record layout.
func (d *DomainConfig) Marshal() ([]byte, error) {
	if len(d.RelyingPartyID) > MaxRelyingPartyIDLength {
		return nil, errors.Wrap(ErrDomainConfig, "relying party id too long")
	}
	blob := make([]byte, 0, MaxOriginsLength)
	for _, o := range d.Origins {
		if len(o) > 0xFFFF {
			return nil, errors.Wrap(ErrDomainConfig, "origin too long")
		}
		blob = binary.LittleEndian.AppendUint16(blob, uint16(len(o)))
		blob = append(blob, o...)
	}
	if len(blob) > MaxOriginsLength {
		return nil, errors.Wrapf(ErrDomainConfig, "encoded origins take %d bytes", len(blob))
	}

	raw := make([]byte, DomainConfigSize)
	off := 0
	off += copy(raw[off:], d.RelyingPartyIDHash[:])
	off += copy(raw[off:], d.Authority[:])
	if d.Disabled {
		raw[off] = 1
	}
	off++
	raw[off] = byte(len(d.RelyingPartyID))
	off++
	copy(raw[off:], d.RelyingPartyID)
	off += MaxRelyingPartyIDLength
	binary.LittleEndian.PutUint16(raw[off:], uint16(len(blob)))
	off += 2
	copy(raw[off:], blob)
	return raw, nil
}

// Unmarshal reads the fixed size record layout.
func (d *DomainConfig) Unmarshal(raw []byte) error {
	if len(raw) != DomainConfigSize {
		return errors.Wrapf(errors.ErrRecordSize, "domain config is %d bytes, want %d", len(raw), DomainConfigSize)
	}
	off := 0
	copy(d.RelyingPartyIDHash[:], raw[off:off+32])
	off += 32
	copy(d.Authority[:], raw[off:off+32])
	off += 32
	switch raw[off] {
	case 0:
		d.Disabled = false
	case 1:
		d.Disabled = true
	default:
		return errors.Wrapf(ErrDomainConfig, "disabled flag %d", raw[off])
	}
	off++
	rpLen := int(raw[off])
	off++
	d.RelyingPartyID = string(raw[off : off+rpLen])
	if !isZero(raw[off+rpLen : off+MaxRelyingPartyIDLength]) {
		return errors.Wrap(ErrDomainConfig, "relying party id padding")
	}
	off += MaxRelyingPartyIDLength
	blobLen := int(binary.LittleEndian.Uint16(raw[off:]))
	off += 2
	if blobLen > MaxOriginsLength {
		return errors.Wrapf(ErrDomainConfig, "origins length %d", blobLen)
	}
	blob := raw[off : off+blobLen]

	d.Origins = nil
	for len(blob) > 0 {
		if len(blob) < 2 {
			return errors.Wrap(ErrDomainConfig, "truncated origin length")
		}
		n := int(binary.LittleEndian.Uint16(blob))
		blob = blob[2:]
		if n > len(blob) {
			return errors.Wrap(ErrDomainConfig, "truncated origin")
		}
		d.Origins = append(d.Origins, string(blob[:n]))
		blob = blob[n:]
	}
	return nil
}

func isZero(b []byte) bool {
	return len(bytes.Trim(b, "\x00")) == 0
}

// DomainAddress returns the derived address of the configuration record for
// given relying party id.
func DomainAddress(program vault.Address, rpID string) (vault.Address, uint8, error) {
	h := sha256.Sum256([]byte(rpID))
	return vault.FindDerivedAddress([][]byte{[]byte("domain_config"), h[:]}, program)
}

// DomainBucket stores domain configurations by their derived address.
type DomainBucket struct {
	orm.ModelBucket
}

// NewDomainBucket returns a bucket for domain configurations.
func NewDomainBucket() DomainBucket {
	return DomainBucket{ModelBucket: orm.NewModelBucket("domains")}
}

// Load returns the configuration stored under given address.
func (b DomainBucket) Load(db vault.ReadOnlyKVStore, addr vault.Address) (*DomainConfig, error) {
	var d DomainConfig
	if err := b.One(db, addr[:], &d); err != nil {
		return nil, errors.Wrapf(err, "domain %s", addr)
	}
	return &d, nil
}

// Save stores given configuration under its derived address and returns
// the address.
func (b DomainBucket) Save(ctx vault.Context, db vault.KVStore, d *DomainConfig) (vault.Address, error) {
	addr, _, err := DomainAddress(vault.GetProgramID(ctx), d.RelyingPartyID)
	if err != nil {
		return addr, err
	}
	if err := b.Put(db, addr[:], d); err != nil {
		return addr, err
	}
	return addr, nil
}
