package exec

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
)

// Marshal returns the binary form of the message. Every list and byte
// string is prefixed with its varint encoded length.
func (m *VaultTransactionMessage) Marshal() ([]byte, error) {
	b := proto.NewBuffer(nil)
	for _, v := range []uint8{m.NumSigners, m.NumWritableSigners, m.NumWritableNonSigners} {
		if err := b.EncodeVarint(uint64(v)); err != nil {
			return nil, err
		}
	}
	if err := b.EncodeVarint(uint64(len(m.AccountKeys))); err != nil {
		return nil, err
	}
	for _, k := range m.AccountKeys {
		if err := b.EncodeRawBytes(k[:]); err != nil {
			return nil, err
		}
	}
	if err := b.EncodeVarint(uint64(len(m.Instructions))); err != nil {
		return nil, err
	}
	for _, ix := range m.Instructions {
		if err := b.EncodeVarint(uint64(ix.ProgramIDIndex)); err != nil {
			return nil, err
		}
		if err := b.EncodeRawBytes(ix.AccountIndexes); err != nil {
			return nil, err
		}
		if err := b.EncodeRawBytes(ix.Data); err != nil {
			return nil, err
		}
	}
	if err := b.EncodeVarint(uint64(len(m.AddressTableLookups))); err != nil {
		return nil, err
	}
	for _, l := range m.AddressTableLookups {
		if err := b.EncodeRawBytes(l.AccountKey[:]); err != nil {
			return nil, err
		}
		if err := b.EncodeRawBytes(l.WritableIndexes); err != nil {
			return nil, err
		}
		if err := b.EncodeRawBytes(l.ReadonlyIndexes); err != nil {
			return nil, err
		}
	}
	return b.Bytes(), nil
}

// Unmarshal reads the binary form of the message. Trailing bytes are
// rejected.
func (m *VaultTransactionMessage) Unmarshal(raw []byte) error {
	r := reader{raw: raw}
	m.NumSigners = r.uint8()
	m.NumWritableSigners = r.uint8()
	m.NumWritableNonSigners = r.uint8()

	m.AccountKeys = make([]vault.Address, r.count())
	for i := range m.AccountKeys {
		m.AccountKeys[i] = r.address()
	}
	m.Instructions = make([]CompiledInstruction, r.count())
	for i := range m.Instructions {
		m.Instructions[i] = CompiledInstruction{
			ProgramIDIndex: r.uint8(),
			AccountIndexes: r.bytes(),
			Data:           r.bytes(),
		}
	}
	m.AddressTableLookups = make([]AddressTableLookup, r.count())
	for i := range m.AddressTableLookups {
		m.AddressTableLookups[i] = AddressTableLookup{
			AccountKey:      r.address(),
			WritableIndexes: r.bytes(),
			ReadonlyIndexes: r.bytes(),
		}
	}
	if r.err != nil {
		return r.err
	}
	if len(r.raw) != 0 {
		return errors.Wrapf(ErrInvalidMessage, "%d trailing bytes", len(r.raw))
	}
	return nil
}

// maxCount bounds list lengths read from untrusted input.
const maxCount = 0x100

// reader decodes varint framed values. After the first failure every read
// returns a zero value and err holds the failure.
type reader struct {
	raw []byte
	err error
}

func (r *reader) varint() uint64 {
	if r.err != nil {
		return 0
	}
	v, n := proto.DecodeVarint(r.raw)
	if n == 0 {
		r.err = errors.Wrap(ErrInvalidMessage, "truncated varint")
		return 0
	}
	r.raw = r.raw[n:]
	return v
}

func (r *reader) uint8() uint8 {
	v := r.varint()
	if v > 0xFF {
		r.fail("value %d does not fit a byte", v)
		return 0
	}
	return uint8(v)
}

func (r *reader) count() int {
	v := r.varint()
	if v > maxCount {
		r.fail("list of %d elements", v)
		return 0
	}
	return int(v)
}

func (r *reader) bytes() []byte {
	n := r.varint()
	if r.err != nil {
		return nil
	}
	if n > uint64(len(r.raw)) {
		r.fail("%d bytes declared, %d left", n, len(r.raw))
		return nil
	}
	b := append([]byte(nil), r.raw[:n]...)
	r.raw = r.raw[n:]
	return b
}

func (r *reader) address() vault.Address {
	var a vault.Address
	b := r.bytes()
	if r.err != nil {
		return a
	}
	if len(b) != vault.AddressLength {
		r.fail("address of %d bytes", len(b))
		return a
	}
	copy(a[:], b)
	return a
}

func (r *reader) fail(format string, args ...interface{}) {
	if r.err == nil {
		r.err = errors.Wrapf(ErrInvalidMessage, format, args...)
	}
}
