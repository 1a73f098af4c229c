package store

import "github.com/iov-one/vault"

// Move references for all storage types into this package
// for shorter names everywhere

type ReadOnlyKVStore = vault.ReadOnlyKVStore
type SetDeleter = vault.SetDeleter
type KVStore = vault.KVStore
type CacheableKVStore = vault.CacheableKVStore
type KVCacheWrap = vault.KVCacheWrap

// Batch can write multiple ops atomically to an underlying KVStore
type Batch interface {
	SetDeleter
	Write() error
}
