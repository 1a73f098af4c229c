package exec

import (
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
)

// AccountInfo is an account supplied with a call.
type AccountInfo struct {
	Key        vault.Address
	Owner      vault.Address
	IsSigner   bool
	IsWritable bool
	Data       []byte
}

// AccountMeta is an account passed to a delegated call.
type AccountMeta struct {
	Key        vault.Address
	IsSigner   bool
	IsWritable bool
}

// Instruction is a single delegated call.
type Instruction struct {
	Program  vault.Address
	Accounts []AccountMeta
	Data     []byte
}

// DerivedSigner is a keyless authority the program signs for. Its address
// is derived from the seeds and the bump.
type DerivedSigner struct {
	Seeds [][]byte
	Bump  uint8
}

// Address returns the derived address for given program.
func (s DerivedSigner) Address(program vault.Address) (vault.Address, error) {
	return vault.CreateDerivedAddressWithBump(s.Seeds, s.Bump, program)
}

// Invoker makes delegated calls.
type Invoker interface {
	Invoke(ctx vault.Context, ix Instruction, signers []DerivedSigner) error
}

// ValidatedMessage is a message whose accounts were checked against the
// accounts supplied with the call.
type ValidatedMessage struct {
	message  *VaultTransactionMessage
	accounts []AccountInfo
	vault    vault.Address
}

// NewValidated checks the supplied accounts against the message.
//
// Accounts are the static accounts followed by the writable and then the
// read only accounts loaded through lookup tables, in lookup order. Lookup
// tables are given in the order of the message lookups. Every account
// marked as a signer must have signed, except the vault that is authorized
// by the program.
func NewValidated(m *VaultTransactionMessage, accounts []AccountInfo, lookupTables []AccountInfo, vaultAddr vault.Address) (*ValidatedMessage, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if len(lookupTables) != len(m.AddressTableLookups) {
		return nil, errors.Wrapf(ErrLookupTable, "%d tables supplied, %d referenced", len(lookupTables), len(m.AddressTableLookups))
	}
	if len(accounts) != m.NumAccounts() {
		return nil, errors.Wrapf(ErrAccountMismatch, "%d accounts supplied, message uses %d", len(accounts), m.NumAccounts())
	}

	for i, key := range m.AccountKeys {
		acc := accounts[i]
		if !acc.Key.Equals(key) {
			return nil, errors.Wrapf(ErrAccountMismatch, "account %d is %s, message declares %s", i, acc.Key, key)
		}
		if m.IsSigner(i) && !key.Equals(vaultAddr) && !acc.IsSigner {
			return nil, errors.Wrapf(ErrMissingSigner, "%s", key)
		}
		if m.IsStaticWritable(i) && !acc.IsWritable {
			return nil, errors.Wrapf(ErrNotWritable, "%s", key)
		}
	}

	tables := make([]*LookupTable, len(lookupTables))
	for i, l := range m.AddressTableLookups {
		if !lookupTables[i].Key.Equals(l.AccountKey) {
			return nil, errors.Wrapf(ErrLookupTable, "table %d is %s, message declares %s", i, lookupTables[i].Key, l.AccountKey)
		}
		t, err := ParseLookupTable(lookupTables[i])
		if err != nil {
			return nil, err
		}
		tables[i] = t
	}

	next := len(m.AccountKeys)
	check := func(t *LookupTable, index uint8, writable bool) error {
		want, err := t.Lookup(index)
		if err != nil {
			return err
		}
		acc := accounts[next]
		next++
		if !acc.Key.Equals(want) {
			return errors.Wrapf(ErrAccountMismatch, "account %d is %s, table %s holds %s", next-1, acc.Key, t.Key, want)
		}
		if writable && !acc.IsWritable {
			return errors.Wrapf(ErrNotWritable, "%s", acc.Key)
		}
		return nil
	}
	for i, l := range m.AddressTableLookups {
		for _, idx := range l.WritableIndexes {
			if err := check(tables[i], idx, true); err != nil {
				return nil, err
			}
		}
	}
	for i, l := range m.AddressTableLookups {
		for _, idx := range l.ReadonlyIndexes {
			if err := check(tables[i], idx, false); err != nil {
				return nil, err
			}
		}
	}

	return &ValidatedMessage{message: m, accounts: accounts, vault: vaultAddr}, nil
}

// Instructions returns the delegated calls the message makes.
func (v *ValidatedMessage) Instructions() []Instruction {
	m := v.message
	out := make([]Instruction, len(m.Instructions))
	for i, ix := range m.Instructions {
		metas := make([]AccountMeta, len(ix.AccountIndexes))
		for j, idx := range ix.AccountIndexes {
			metas[j] = AccountMeta{
				Key:        v.accounts[idx].Key,
				IsSigner:   m.IsSigner(int(idx)),
				IsWritable: m.IsWritable(int(idx)),
			}
		}
		out[i] = Instruction{
			Program:  v.accounts[ix.ProgramIDIndex].Key,
			Accounts: metas,
			Data:     ix.Data,
		}
	}
	return out
}

// ExecuteMessage makes all calls of the message signed by the vault
// authority. No call is made if any of them would write to a protected
// account. Calls are not rolled back when a later call fails.
func (v *ValidatedMessage) ExecuteMessage(ctx vault.Context, invoker Invoker, authority DerivedSigner, protected []vault.Address) error {
	program := vault.GetProgramID(ctx)
	addr, err := authority.Address(program)
	if err != nil {
		return errors.Wrap(err, "vault authority")
	}
	if !addr.Equals(v.vault) {
		return errors.Wrapf(errors.ErrUnauthorized, "authority %s does not sign for vault %s", addr, v.vault)
	}

	ixs := v.Instructions()
	for i, ix := range ixs {
		for _, a := range ix.Accounts {
			if !a.IsWritable {
				continue
			}
			for _, p := range protected {
				if a.Key.Equals(p) {
					return errors.Wrapf(ErrProtectedAccount, "instruction %d writes to %s", i, p)
				}
			}
		}
	}

	log := vault.GetLogger(ctx)
	signers := []DerivedSigner{authority}
	for i, ix := range ixs {
		if err := invoker.Invoke(ctx, ix, signers); err != nil {
			return errors.Wrapf(err, "instruction %d", i)
		}
		log.Debug("delegated call", "index", i, "program", ix.Program, "accounts", len(ix.Accounts))
	}
	return nil
}
