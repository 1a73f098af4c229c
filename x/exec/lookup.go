package exec

import (
	"encoding/binary"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
)

const (
	// LookupTableMetaSize is the size of the lookup table header preceding
	// the addresses.
	LookupTableMetaSize = 56

	lookupTableDiscriminator = 1
)

// LookupTableProgramID owns every valid lookup table account.
var LookupTableProgramID = mustAddress("AddressLookupTab1e1111111111111111111111111")

func mustAddress(s string) vault.Address {
	a, err := vault.ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// LookupTable is a decoded address lookup table account.
type LookupTable struct {
	Key       vault.Address
	Addresses []vault.Address
}

// ParseLookupTable decodes a lookup table account. The account must be
// owned by the lookup table program.
func ParseLookupTable(acc AccountInfo) (*LookupTable, error) {
	if !acc.Owner.Equals(LookupTableProgramID) {
		return nil, errors.Wrapf(ErrLookupTable, "%s owned by %s", acc.Key, acc.Owner)
	}
	if len(acc.Data) < LookupTableMetaSize {
		return nil, errors.Wrapf(ErrLookupTable, "%s has %d bytes", acc.Key, len(acc.Data))
	}
	if d := binary.LittleEndian.Uint32(acc.Data); d != lookupTableDiscriminator {
		return nil, errors.Wrapf(ErrLookupTable, "%s is not initialized", acc.Key)
	}
	body := acc.Data[LookupTableMetaSize:]
	if len(body)%vault.AddressLength != 0 {
		return nil, errors.Wrapf(ErrLookupTable, "%s address list of %d bytes", acc.Key, len(body))
	}
	t := &LookupTable{Key: acc.Key, Addresses: make([]vault.Address, len(body)/vault.AddressLength)}
	for i := range t.Addresses {
		copy(t.Addresses[i][:], body[i*vault.AddressLength:])
	}
	return t, nil
}

// Lookup returns the address stored at given index.
func (t *LookupTable) Lookup(i uint8) (vault.Address, error) {
	if int(i) >= len(t.Addresses) {
		return vault.Address{}, errors.Wrapf(ErrLookupTable, "%s has no index %d", t.Key, i)
	}
	return t.Addresses[i], nil
}

// EncodeLookupTable returns the account data of a lookup table holding given
// addresses.
func EncodeLookupTable(addrs []vault.Address) []byte {
	data := make([]byte, LookupTableMetaSize, LookupTableMetaSize+len(addrs)*vault.AddressLength)
	binary.LittleEndian.PutUint32(data, lookupTableDiscriminator)
	for _, a := range addrs {
		data = append(data, a[:]...)
	}
	return data
}
