package settings

import (
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
)

// MemberRecordSize is the size of a single member within the settings
// record: key, permissions, role, delegate flag, domain flag and domain.
const MemberRecordSize = vault.MemberKeyFixedLength + 1 + 1 + 1 + 1 + vault.AddressLength

// Member is a single participant of a vault.
type Member struct {
	Key         vault.MemberKey
	Permissions Permissions
	Role        Role
	// IsDelegate marks the member as the active signer of its key for this
	// vault.
	IsDelegate bool
	// DomainBinding is the domain configuration a passkey bound member
	// asserts on. Direct key members have none.
	DomainBinding *vault.Address
}

// Validate checks a single member in isolation.
func (m *Member) Validate() error {
	var errs error
	if m.Key.IsZero() {
		errs = errors.AppendField(errs, "Key", errors.ErrEmpty)
	} else {
		errs = errors.AppendField(errs, "Key", m.Key.Validate())
	}
	errs = errors.AppendField(errs, "Permissions", m.Permissions.Validate())
	errs = errors.AppendField(errs, "Role", m.Role.Validate())

	switch {
	case m.Key.IsDirect() && m.DomainBinding != nil:
		errs = errors.Append(errs, errors.Field("DomainBinding", ErrDomainBinding, "direct key cannot be bound to a domain"))
	case m.Key.IsPasskey() && (m.DomainBinding == nil || m.DomainBinding.IsZero()):
		errs = errors.Append(errs, errors.Field("DomainBinding", ErrDomainBinding, "passkey must be bound to a domain"))
	}
	return errs
}

// Has returns true if the member holds all given permissions.
func (m *Member) Has(p Permissions) bool {
	return m.Permissions.Has(p)
}

func (m *Member) appendRecord(dst []byte) []byte {
	dst = m.Key.AppendFixed(dst)
	dst = append(dst, byte(m.Permissions), byte(m.Role), boolByte(m.IsDelegate))
	if m.DomainBinding == nil {
		dst = append(dst, 0)
		return append(dst, make([]byte, vault.AddressLength)...)
	}
	dst = append(dst, 1)
	return append(dst, m.DomainBinding[:]...)
}

func (m *Member) readRecord(raw []byte) error {
	if len(raw) != MemberRecordSize {
		return errors.Wrapf(errors.ErrRecordSize, "member is %d bytes", len(raw))
	}
	key, err := vault.DecodeFixedMemberKey(raw[:vault.MemberKeyFixedLength])
	if err != nil {
		return errors.Wrap(err, "key")
	}
	off := vault.MemberKeyFixedLength
	m.Key = key
	m.Permissions = Permissions(raw[off])
	m.Role = Role(raw[off+1])
	if m.IsDelegate, err = readBool(raw[off+2]); err != nil {
		return errors.Wrap(err, "delegate flag")
	}
	hasDomain, err := readBool(raw[off+3])
	if err != nil {
		return errors.Wrap(err, "domain flag")
	}
	domain := raw[off+4:]
	m.DomainBinding = nil
	if hasDomain {
		var a vault.Address
		copy(a[:], domain)
		m.DomainBinding = &a
	} else if !allZero(domain) {
		return errors.Wrap(errors.ErrInput, "domain set without flag")
	}
	return nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func readBool(b byte) (bool, error) {
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, errors.Wrapf(errors.ErrInput, "boolean value %d", b)
	}
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// Marshal returns the fixed size member record.
func (m *Member) Marshal() ([]byte, error) {
	return m.appendRecord(make([]byte, 0, MemberRecordSize)), nil
}

// Unmarshal reads the fixed size member record.
func (m *Member) Unmarshal(raw []byte) error {
	return m.readRecord(raw)
}
