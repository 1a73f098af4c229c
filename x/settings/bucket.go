package settings

import (
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/orm"
)

// Bucket stores settings by their derived address.
type Bucket struct {
	orm.ModelBucket
}

// NewBucket returns a settings bucket.
func NewBucket() Bucket {
	return Bucket{ModelBucket: orm.NewModelBucket("settings")}
}

// Load returns the settings stored under given address.
func (b Bucket) Load(db vault.ReadOnlyKVStore, addr vault.Address) (*Settings, error) {
	var s Settings
	if err := b.One(db, addr[:], &s); err != nil {
		return nil, errors.Wrapf(err, "settings %s", addr)
	}
	return &s, nil
}

// Save validates and stores given settings.
func (b Bucket) Save(db vault.KVStore, addr vault.Address, s *Settings) error {
	return b.Put(db, addr[:], s)
}

// DelegateSize is the size of a delegate record.
const DelegateSize = vault.MemberKeyFixedLength + vault.AddressLength

// Delegate records which vault a key acts for.
type Delegate struct {
	Key      vault.MemberKey
	Settings vault.Address
}

var _ orm.Model = (*Delegate)(nil)

func (d *Delegate) Validate() error {
	var errs error
	if d.Key.IsZero() {
		errs = errors.AppendField(errs, "Key", errors.ErrEmpty)
	} else {
		errs = errors.AppendField(errs, "Key", d.Key.Validate())
	}
	if d.Settings.IsZero() {
		errs = errors.AppendField(errs, "Settings", errors.ErrEmpty)
	}
	return errs
}

func (d *Delegate) Marshal() ([]byte, error) {
	raw := make([]byte, 0, DelegateSize)
	raw = d.Key.AppendFixed(raw)
	return append(raw, d.Settings[:]...), nil
}

func (d *Delegate) Unmarshal(raw []byte) error {
	if len(raw) != DelegateSize {
		return errors.Wrapf(errors.ErrRecordSize, "delegate is %d bytes", len(raw))
	}
	key, err := vault.DecodeFixedMemberKey(raw[:vault.MemberKeyFixedLength])
	if err != nil {
		return errors.Wrap(err, "key")
	}
	d.Key = key
	copy(d.Settings[:], raw[vault.MemberKeyFixedLength:])
	return nil
}

// DelegateBucket stores delegate records keyed by the member key seed. A key
// is the delegate of at most one vault at a time.
type DelegateBucket struct {
	orm.ModelBucket
}

// NewDelegateBucket returns a delegate bucket.
func NewDelegateBucket() DelegateBucket {
	return DelegateBucket{ModelBucket: orm.NewModelBucket("delegates")}
}

// DelegateOf returns the delegate record of given key.
func (b DelegateBucket) DelegateOf(db vault.ReadOnlyKVStore, key vault.MemberKey) (*Delegate, error) {
	var d Delegate
	if err := b.One(db, key.Seed(), &d); err != nil {
		return nil, errors.Wrapf(err, "delegate %s", key)
	}
	return &d, nil
}

// IsFree returns nil if no delegate record exists for given key.
func (b DelegateBucket) IsFree(db vault.ReadOnlyKVStore, key vault.MemberKey) error {
	switch err := b.Has(db, key.Seed()); {
	case err == nil:
		return errors.Wrapf(ErrDelegate, "%s is already a delegate", key)
	case errors.ErrNotFound.Is(err):
		return nil
	default:
		return err
	}
}

// Open creates a delegate record binding given key to given settings.
func (b DelegateBucket) Open(db vault.KVStore, key vault.MemberKey, settings vault.Address) error {
	d := &Delegate{Key: key, Settings: settings}
	if err := b.Create(db, key.Seed(), d); err != nil {
		if errors.ErrDuplicate.Is(err) {
			return errors.Wrapf(ErrDelegate, "%s is already a delegate", key)
		}
		return err
	}
	return nil
}

// Close removes the delegate record of given key. Only the record bound to
// given settings can be closed.
func (b DelegateBucket) Close(db vault.KVStore, key vault.MemberKey, settings vault.Address) error {
	d, err := b.DelegateOf(db, key)
	if err != nil {
		return err
	}
	if !d.Settings.Equals(settings) {
		return errors.Wrapf(ErrDelegate, "%s is a delegate of %s", key, d.Settings)
	}
	return b.Delete(db, key.Seed())
}
