package exec

import (
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
)

// VaultTransactionMessage is a set of calls to make under the vault
// authority. Static account keys are ordered: writable signers, read only
// signers, writable non signers, read only non signers.
type VaultTransactionMessage struct {
	NumSigners            uint8
	NumWritableSigners    uint8
	NumWritableNonSigners uint8
	AccountKeys           []vault.Address
	Instructions          []CompiledInstruction
	AddressTableLookups   []AddressTableLookup
}

// CompiledInstruction is a single call. Indexes point into the account
// list: static keys first, then writable and then read only accounts
// loaded from lookup tables.
type CompiledInstruction struct {
	ProgramIDIndex uint8
	AccountIndexes []uint8
	Data           []byte
}

// AddressTableLookup loads accounts from a lookup table.
type AddressTableLookup struct {
	AccountKey      vault.Address
	WritableIndexes []uint8
	ReadonlyIndexes []uint8
}

// NumLoadedWritable returns the number of writable accounts loaded from
// lookup tables.
func (m *VaultTransactionMessage) NumLoadedWritable() int {
	var n int
	for _, l := range m.AddressTableLookups {
		n += len(l.WritableIndexes)
	}
	return n
}

// NumLoadedReadonly returns the number of read only accounts loaded from
// lookup tables.
func (m *VaultTransactionMessage) NumLoadedReadonly() int {
	var n int
	for _, l := range m.AddressTableLookups {
		n += len(l.ReadonlyIndexes)
	}
	return n
}

// NumAccounts returns the size of the full account list.
func (m *VaultTransactionMessage) NumAccounts() int {
	return len(m.AccountKeys) + m.NumLoadedWritable() + m.NumLoadedReadonly()
}

// IsSigner returns true if the account at given index must sign.
func (m *VaultTransactionMessage) IsSigner(i int) bool {
	return i < int(m.NumSigners)
}

// IsStaticWritable returns true if the static account at given index is
// writable.
func (m *VaultTransactionMessage) IsStaticWritable(i int) bool {
	if i >= len(m.AccountKeys) {
		return false
	}
	if m.IsSigner(i) {
		return i < int(m.NumWritableSigners)
	}
	return i-int(m.NumSigners) < int(m.NumWritableNonSigners)
}

// IsWritable returns true if the account at given index of the full account
// list is writable.
func (m *VaultTransactionMessage) IsWritable(i int) bool {
	if i < len(m.AccountKeys) {
		return m.IsStaticWritable(i)
	}
	return i-len(m.AccountKeys) < m.NumLoadedWritable()
}

// Validate checks that all counts and indexes are within bounds.
func (m *VaultTransactionMessage) Validate() error {
	static := len(m.AccountKeys)
	if static > 0xFF {
		return errors.Wrapf(ErrInvalidMessage, "%d account keys", static)
	}
	if int(m.NumSigners) > static {
		return errors.Wrapf(ErrInvalidMessage, "%d signers, %d account keys", m.NumSigners, static)
	}
	if m.NumWritableSigners > m.NumSigners {
		return errors.Wrapf(ErrInvalidMessage, "%d writable signers, %d signers", m.NumWritableSigners, m.NumSigners)
	}
	if int(m.NumWritableNonSigners) > static-int(m.NumSigners) {
		return errors.Wrapf(ErrInvalidMessage, "%d writable non signers, %d non signers", m.NumWritableNonSigners, static-int(m.NumSigners))
	}
	total := m.NumAccounts()
	if total > 0x100 {
		return errors.Wrapf(ErrInvalidMessage, "%d accounts", total)
	}
	for i, l := range m.AddressTableLookups {
		if l.AccountKey.IsZero() {
			return errors.Wrapf(ErrInvalidMessage, "lookup %d has no table", i)
		}
		if len(l.WritableIndexes)+len(l.ReadonlyIndexes) == 0 {
			return errors.Wrapf(ErrInvalidMessage, "lookup %d loads nothing", i)
		}
	}
	for i, ix := range m.Instructions {
		if int(ix.ProgramIDIndex) >= static {
			return errors.Wrapf(ErrInvalidMessage, "instruction %d program index %d not a static account", i, ix.ProgramIDIndex)
		}
		for _, a := range ix.AccountIndexes {
			if int(a) >= total {
				return errors.Wrapf(ErrInvalidMessage, "instruction %d account index %d out of %d", i, a, total)
			}
		}
	}
	return nil
}
