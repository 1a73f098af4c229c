package txbuffer

import (
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/orm"
)

var (
	seedPrefix = []byte("multisig")
	seedBuffer = []byte("transaction_buffer")
)

// BufferAddress returns the derived address of the buffer created by given
// key with given index. A creator can stage several transactions at once
// by using different indexes.
func BufferAddress(program, settings vault.Address, creator vault.MemberKey, index uint8) (vault.Address, uint8, error) {
	return vault.FindDerivedAddress([][]byte{seedPrefix, settings[:], seedBuffer, creator.Seed(), {index}}, program)
}

// Bucket stores buffers by their derived address.
type Bucket struct {
	orm.ModelBucket
}

// NewBucket returns a buffer bucket.
func NewBucket() Bucket {
	return Bucket{ModelBucket: orm.NewModelBucket("txbuffer")}
}

// Load returns the buffer stored under given address.
func (b Bucket) Load(db vault.ReadOnlyKVStore, addr vault.Address) (*Buffer, error) {
	var buf Buffer
	if err := b.One(db, addr[:], &buf); err != nil {
		return nil, errors.Wrapf(err, "buffer %s", addr)
	}
	return &buf, nil
}

// Save validates and stores given buffer.
func (b Bucket) Save(db vault.KVStore, addr vault.Address, buf *Buffer) error {
	return b.Put(db, addr[:], buf)
}
