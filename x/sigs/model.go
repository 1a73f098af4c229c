package sigs

import (
	"encoding/binary"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/orm"
)

// BucketName is where we store the accounts
const BucketName = "sigs"

// maxSequenceValue is limited by the client. The greatest supported
// nonce value at client side is
//
//	Number.MAX_SAFE_INTEGER = 9007199254740991 = 2^53 - 1
const maxSequenceValue = (1 << 53) - 1

// User is the replay protection state of a single direct key.
type User struct {
	Pubkey   [32]byte
	Sequence int64
}

var _ orm.Model = (*User)(nil)

const userSize = 32 + 8

func (u *User) Marshal() ([]byte, error) {
	raw := make([]byte, userSize)
	copy(raw, u.Pubkey[:])
	binary.LittleEndian.PutUint64(raw[32:], uint64(u.Sequence))
	return raw, nil
}

func (u *User) Unmarshal(raw []byte) error {
	if len(raw) != userSize {
		return errors.Wrapf(errors.ErrRecordSize, "user is %d bytes", len(raw))
	}
	copy(u.Pubkey[:], raw)
	u.Sequence = int64(binary.LittleEndian.Uint64(raw[32:]))
	return nil
}

func (u *User) Validate() error {
	var errs error
	if u.Sequence < 0 || u.Sequence > maxSequenceValue {
		errs = errors.AppendField(errs, "Sequence", ErrInvalidSequence)
	}
	if u.Pubkey == [32]byte{} {
		errs = errors.AppendField(errs, "Pubkey", errors.ErrEmpty)
	}
	return errs
}

// CheckAndIncrementSequence implements check and increment operation.
// If current sequence value is the same as given expected value then it is
// incremented. Otherwise an error is returned.
// Before incrementing the sequence, this function is testing for a value
// overflow.
func (u *User) CheckAndIncrementSequence(expected int64) error {
	if u.Sequence != expected {
		return errors.Wrapf(ErrInvalidSequence, "mismatch expected %d, got %d", expected, u.Sequence)
	}
	next := u.Sequence + 1
	if next <= 0 || next > maxSequenceValue {
		return errors.Wrap(errors.ErrOverflow, "sequence out of range")
	}
	u.Sequence = next
	return nil
}

// Bucket stores a User per direct key.
type Bucket struct {
	orm.ModelBucket
}

// NewBucket returns a bucket for managing users.
func NewBucket() Bucket {
	return Bucket{ModelBucket: orm.NewModelBucket(BucketName)}
}

// GetOrCreate returns the user for given key. A user that was never seen
// starts with sequence zero.
func (b Bucket) GetOrCreate(db vault.ReadOnlyKVStore, pubkey [32]byte) (*User, error) {
	var u User
	err := b.One(db, pubkey[:], &u)
	switch {
	case err == nil:
		return &u, nil
	case errors.ErrNotFound.Is(err):
		return &User{Pubkey: pubkey}, nil
	default:
		return nil, err
	}
}
