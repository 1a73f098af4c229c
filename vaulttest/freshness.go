package vaulttest

import (
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
)

// RecentHashes is an in-memory freshness registry. Unknown references
// return ErrNotFound.
type RecentHashes map[uint64][32]byte

func (r RecentHashes) RecentHash(db vault.ReadOnlyKVStore, reference uint64) ([32]byte, error) {
	h, ok := r[reference]
	if !ok {
		return h, errors.Wrapf(errors.ErrNotFound, "reference %d", reference)
	}
	return h, nil
}
