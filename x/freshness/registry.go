package freshness

import (
	"encoding/binary"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/orm"
)

const hashSize = 32

// entry is a single recorded hash.
type entry struct {
	Hash [hashSize]byte
}

func (e *entry) Marshal() ([]byte, error) {
	return append([]byte(nil), e.Hash[:]...), nil
}

func (e *entry) Unmarshal(raw []byte) error {
	if len(raw) != hashSize {
		return errors.Wrapf(errors.ErrRecordSize, "entry is %d bytes", len(raw))
	}
	copy(e.Hash[:], raw)
	return nil
}

func (e *entry) Validate() error {
	if e.Hash == [hashSize]byte{} {
		return errors.Field("Hash", errors.ErrEmpty, "required")
	}
	return nil
}

// tip remembers the highest recorded reference.
type tip struct {
	Reference uint64
}

func (t *tip) Marshal() ([]byte, error) {
	return refKey(t.Reference), nil
}

func (t *tip) Unmarshal(raw []byte) error {
	if len(raw) != 8 {
		return errors.Wrapf(errors.ErrRecordSize, "tip is %d bytes", len(raw))
	}
	t.Reference = binary.BigEndian.Uint64(raw)
	return nil
}

func (t *tip) Validate() error {
	return nil
}

var tipKey = []byte("latest")

func refKey(ref uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, ref)
	return k
}

// Registry is the append-only store of recent hashes.
type Registry struct {
	entries orm.ModelBucket
	tips    orm.ModelBucket
}

// NewRegistry returns a registry instance.
func NewRegistry() *Registry {
	return &Registry{
		entries: orm.NewModelBucket("freshness"),
		tips:    orm.NewModelBucket("freshness_tip"),
	}
}

// Latest returns the highest recorded reference and false if nothing was
// recorded yet.
func (r *Registry) Latest(db vault.ReadOnlyKVStore) (uint64, bool, error) {
	var t tip
	switch err := r.tips.One(db, tipKey, &t); {
	case err == nil:
		return t.Reference, true, nil
	case errors.ErrNotFound.Is(err):
		return 0, false, nil
	default:
		return 0, false, err
	}
}

// Record appends a hash under given reference. References must strictly
// increase.
func (r *Registry) Record(db vault.KVStore, reference uint64, hash [32]byte) error {
	latest, ok, err := r.Latest(db)
	if err != nil {
		return err
	}
	if ok && reference <= latest {
		return errors.Wrapf(ErrReferenceOrder, "reference %d, latest %d", reference, latest)
	}
	if err := r.entries.Create(db, refKey(reference), &entry{Hash: hash}); err != nil {
		return errors.Wrap(err, "cannot save entry")
	}
	if err := r.tips.Put(db, tipKey, &tip{Reference: reference}); err != nil {
		return errors.Wrap(err, "cannot save tip")
	}
	return nil
}

// RecentHash returns the hash recorded under given reference, as long as
// the reference is within the accepted age window.
func (r *Registry) RecentHash(db vault.ReadOnlyKVStore, reference uint64) ([32]byte, error) {
	var e entry
	switch err := r.entries.One(db, refKey(reference), &e); {
	case err == nil:
	case errors.ErrNotFound.Is(err):
		return e.Hash, errors.Wrapf(ErrUnknownReference, "reference %d", reference)
	default:
		return e.Hash, err
	}

	latest, _, err := r.Latest(db)
	if err != nil {
		return e.Hash, err
	}
	conf, err := loadConf(db)
	if err != nil {
		return e.Hash, err
	}
	if latest-reference > conf.MaxAge {
		return e.Hash, errors.Wrapf(ErrStaleReference, "reference %d is %d behind %d", reference, latest-reference, latest)
	}
	return e.Hash, nil
}
