package txbuffer

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/orm"
)

// HashSize is the size of the final and chunk hashes.
const HashSize = sha256.Size

// fixedSize is the size of the leading fixed width part of the record.
const fixedSize = vault.AddressLength + 1 + 1 + 1 + 8 + vault.AddressLength + 1 + 1 + HashSize + 2

// Buffer is a staged vault transaction.
type Buffer struct {
	// Settings is the address of the vault settings the buffer belongs
	// to.
	Settings     vault.Address
	VaultBump    uint8
	CanExecute   bool
	Preauthorize bool
	ValidTill    vault.UnixTime
	// Payer funded the buffer record and gets the storage back when it is
	// closed.
	Payer       vault.Address
	Bump        uint8
	BufferIndex uint8
	FinalHash   [HashSize]byte
	FinalSize   uint16
	Creator     vault.MemberKey
	// ChunkHashes are the hashes of the chunks still to be appended, in
	// order.
	ChunkHashes [][HashSize]byte
	Voters      []vault.MemberKey
	Buffer      []byte
}

var _ orm.Model = (*Buffer)(nil)

func (b *Buffer) Validate() error {
	var errs error
	if b.Settings.IsZero() {
		errs = errors.AppendField(errs, "Settings", errors.ErrEmpty)
	}
	if b.Payer.IsZero() {
		errs = errors.AppendField(errs, "Payer", errors.ErrEmpty)
	}
	if err := b.ValidTill.Validate(); err != nil {
		errs = errors.AppendField(errs, "ValidTill", err)
	} else if b.ValidTill.IsZero() {
		errs = errors.AppendField(errs, "ValidTill", errors.ErrEmpty)
	}
	if b.Creator.IsZero() {
		errs = errors.AppendField(errs, "Creator", errors.ErrEmpty)
	} else {
		errs = errors.AppendField(errs, "Creator", b.Creator.Validate())
	}
	if b.FinalSize == 0 {
		errs = errors.AppendField(errs, "FinalSize", ErrBufferSize)
	}
	if len(b.Buffer) > int(b.FinalSize) {
		errs = errors.Append(errs, errors.Field("Buffer", ErrBufferSize, "%d bytes, final size %d", len(b.Buffer), b.FinalSize))
	}
	seen := make(map[vault.MemberKey]struct{}, len(b.Voters))
	for i, v := range b.Voters {
		if err := v.Validate(); err != nil {
			errs = errors.Append(errs, errors.Field("Voters", err, "voter %d", i))
		}
		if _, ok := seen[v]; ok {
			errs = errors.Append(errs, errors.Field("Voters", errors.ErrDuplicate, "voter %s", v))
		}
		seen[v] = struct{}{}
	}
	return errs
}

// Extend appends the next chunk. The chunk must match the head of the
// committed chunk hashes and fit the final size. The last chunk must
// complete the payload. The buffer is not modified on failure.
func (b *Buffer) Extend(chunk []byte) error {
	if len(b.ChunkHashes) == 0 {
		return errors.Wrap(ErrNoChunks, "buffer already complete")
	}
	size := len(b.Buffer) + len(chunk)
	if size > int(b.FinalSize) {
		return errors.Wrapf(ErrBufferSize, "%d+%d exceeds %d", len(b.Buffer), len(chunk), b.FinalSize)
	}
	if h := sha256.Sum256(chunk); h != b.ChunkHashes[0] {
		return errors.Wrapf(ErrChunkHash, "chunk %x, expected %x", h, b.ChunkHashes[0])
	}
	if len(b.ChunkHashes) == 1 {
		if size != int(b.FinalSize) {
			return errors.Wrapf(ErrBufferSize, "last chunk leaves %d of %d bytes", size, b.FinalSize)
		}
		h := sha256.New()
		_, _ = h.Write(b.Buffer)
		_, _ = h.Write(chunk)
		if !bytes.Equal(h.Sum(nil), b.FinalHash[:]) {
			return errors.Wrap(ErrFinalHash, "buffered payload")
		}
	}
	b.Buffer = append(b.Buffer, chunk...)
	b.ChunkHashes = b.ChunkHashes[1:]
	return nil
}

// FullyBuffered returns true when all chunks were appended and the payload
// matches the final hash.
func (b *Buffer) FullyBuffered() bool {
	return len(b.ChunkHashes) == 0 &&
		len(b.Buffer) == int(b.FinalSize) &&
		sha256.Sum256(b.Buffer) == b.FinalHash
}

// AddVoter records a vote. It returns false if the key already voted.
func (b *Buffer) AddVoter(key vault.MemberKey) bool {
	for _, v := range b.Voters {
		if v.Equals(key) {
			return false
		}
	}
	b.Voters = append(b.Voters, key)
	return true
}

// Copy returns a deep copy of the buffer.
func (b *Buffer) Copy() *Buffer {
	c := *b
	c.ChunkHashes = append([][HashSize]byte(nil), b.ChunkHashes...)
	c.Voters = append([]vault.MemberKey(nil), b.Voters...)
	c.Buffer = append([]byte(nil), b.Buffer...)
	return &c
}

// Expired returns true once the block time is past ValidTill.
func (b *Buffer) Expired(ctx vault.Context) bool {
	return vault.IsExpired(ctx, b.ValidTill)
}

// Marshal returns the record layout: the fixed width header followed by the
// creator key and the u32 length prefixed chunk hashes, voters and payload.
func (b *Buffer) Marshal() ([]byte, error) {
	raw := make([]byte, 0, fixedSize+vault.MemberKeyFixedLength+12+len(b.ChunkHashes)*HashSize+len(b.Voters)*vault.MemberKeyFixedLength+len(b.Buffer))
	raw = append(raw, b.Settings[:]...)
	raw = append(raw, b.VaultBump, boolByte(b.CanExecute), boolByte(b.Preauthorize))
	raw = binary.LittleEndian.AppendUint64(raw, uint64(b.ValidTill))
	raw = append(raw, b.Payer[:]...)
	raw = append(raw, b.Bump, b.BufferIndex)
	raw = append(raw, b.FinalHash[:]...)
	raw = binary.LittleEndian.AppendUint16(raw, b.FinalSize)
	raw = append(raw, b.Creator.Bytes()...)

	raw = binary.LittleEndian.AppendUint32(raw, uint32(len(b.ChunkHashes)))
	for _, h := range b.ChunkHashes {
		raw = append(raw, h[:]...)
	}
	raw = binary.LittleEndian.AppendUint32(raw, uint32(len(b.Voters)))
	for _, v := range b.Voters {
		raw = append(raw, v.Bytes()...)
	}
	raw = binary.LittleEndian.AppendUint32(raw, uint32(len(b.Buffer)))
	return append(raw, b.Buffer...), nil
}

// Unmarshal reads the record layout written by Marshal.
func (b *Buffer) Unmarshal(raw []byte) error {
	if len(raw) < fixedSize {
		return errors.Wrapf(errors.ErrRecordSize, "buffer is %d bytes", len(raw))
	}
	r := cursor{raw: raw}
	copy(b.Settings[:], r.take(vault.AddressLength))
	b.VaultBump = r.u8()
	b.CanExecute = r.flag()
	b.Preauthorize = r.flag()
	b.ValidTill = vault.UnixTime(binary.LittleEndian.Uint64(r.take(8)))
	copy(b.Payer[:], r.take(vault.AddressLength))
	b.Bump = r.u8()
	b.BufferIndex = r.u8()
	copy(b.FinalHash[:], r.take(HashSize))
	b.FinalSize = binary.LittleEndian.Uint16(r.take(2))

	creator, err := r.key()
	if err != nil {
		return errors.Wrap(err, "creator")
	}
	b.Creator = creator

	n, err := r.count(HashSize)
	if err != nil {
		return errors.Wrap(err, "chunk hashes")
	}
	b.ChunkHashes = make([][HashSize]byte, n)
	for i := range b.ChunkHashes {
		copy(b.ChunkHashes[i][:], r.take(HashSize))
	}

	if n, err = r.count(1 + vault.DirectKeyLength); err != nil {
		return errors.Wrap(err, "voters")
	}
	b.Voters = make([]vault.MemberKey, n)
	for i := range b.Voters {
		if b.Voters[i], err = r.key(); err != nil {
			return errors.Wrapf(err, "voter %d", i)
		}
	}

	if n, err = r.count(1); err != nil {
		return errors.Wrap(err, "payload")
	}
	b.Buffer = append([]byte(nil), r.take(n)...)
	if r.err != nil {
		return r.err
	}
	if len(r.raw) != 0 {
		return errors.Wrapf(errors.ErrRecordSize, "%d trailing bytes", len(r.raw))
	}
	return nil
}

// cursor reads consecutive fields of a record. Reading past the end sets
// err and returns zero values.
type cursor struct {
	raw []byte
	err error
}

func (c *cursor) take(n int) []byte {
	if c.err != nil {
		return make([]byte, n)
	}
	if n > len(c.raw) {
		c.err = errors.Wrapf(errors.ErrRecordSize, "%d bytes needed, %d left", n, len(c.raw))
		return make([]byte, n)
	}
	b := c.raw[:n]
	c.raw = c.raw[n:]
	return b
}

func (c *cursor) u8() uint8 {
	return c.take(1)[0]
}

func (c *cursor) flag() bool {
	return c.u8() != 0
}

// count reads a u32 list length. Each element takes at least elem bytes,
// which bounds the length by what is left.
func (c *cursor) count(elem int) (int, error) {
	n := int(binary.LittleEndian.Uint32(c.take(4)))
	if c.err != nil {
		return 0, c.err
	}
	if n > len(c.raw)/elem {
		return 0, errors.Wrapf(errors.ErrRecordSize, "%d elements, %d bytes left", n, len(c.raw))
	}
	return n, nil
}

func (c *cursor) key() (vault.MemberKey, error) {
	if c.err != nil {
		return vault.MemberKey{}, c.err
	}
	k, n, err := vault.DecodeMemberKey(c.raw)
	if err != nil {
		return vault.MemberKey{}, err
	}
	c.raw = c.raw[n:]
	return k, nil
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
