package exec

import (
	"testing"
	"time"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/vaulttest"
	"github.com/iov-one/vault/vaulttest/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type invokerMock struct {
	mock.Mock
}

func (m *invokerMock) Invoke(ctx vault.Context, ix Instruction, signers []DerivedSigner) error {
	return m.Called(ix, signers).Error(0)
}

// fixture is a vault paying from itself to a recipient, with a token
// account loaded through a lookup table.
type fixture struct {
	authority DerivedSigner
	vault     vault.Address
	cosigner  vault.Address
	recipient vault.Address
	program   vault.Address
	token     vault.Address
	table     AccountInfo
	msg       *VaultTransactionMessage
}

func newFixture(t *testing.T) *fixture {
	seeds := [][]byte{[]byte("multisig"), []byte("test vault")}
	addr, bump, err := vault.FindDerivedAddress(seeds, vault.DefaultProgramID)
	require.NoError(t, err)

	f := &fixture{
		authority: DerivedSigner{Seeds: seeds, Bump: bump},
		vault:     addr,
		cosigner:  vaulttest.RandomAddress(),
		recipient: vaulttest.RandomAddress(),
		program:   vaulttest.RandomAddress(),
		token:     vaulttest.RandomAddress(),
	}
	f.table = AccountInfo{
		Key:   vaulttest.RandomAddress(),
		Owner: LookupTableProgramID,
		Data:  EncodeLookupTable([]vault.Address{vaulttest.RandomAddress(), f.token}),
	}
	f.msg = &VaultTransactionMessage{
		NumSigners:            2,
		NumWritableSigners:    1,
		NumWritableNonSigners: 1,
		AccountKeys:           []vault.Address{f.vault, f.cosigner, f.recipient, f.program},
		Instructions: []CompiledInstruction{
			{ProgramIDIndex: 3, AccountIndexes: []uint8{0, 2}, Data: []byte("pay")},
			{ProgramIDIndex: 3, AccountIndexes: []uint8{0, 1, 4}, Data: []byte("burn")},
		},
		AddressTableLookups: []AddressTableLookup{{AccountKey: f.table.Key, WritableIndexes: []uint8{1}}},
	}
	return f
}

func (f *fixture) accounts() []AccountInfo {
	return []AccountInfo{
		{Key: f.vault, IsWritable: true},
		{Key: f.cosigner, IsSigner: true},
		{Key: f.recipient, IsWritable: true},
		{Key: f.program},
		{Key: f.token, IsWritable: true},
	}
}

func TestNewValidated(t *testing.T) {
	cases := map[string]struct {
		mutate  func(f *fixture, accounts []AccountInfo, tables []AccountInfo) ([]AccountInfo, []AccountInfo)
		wantErr *errors.Error
	}{
		"valid": {},
		"substituted static account": {
			mutate: func(f *fixture, a, t []AccountInfo) ([]AccountInfo, []AccountInfo) {
				a[2].Key = vaulttest.RandomAddress()
				return a, t
			},
			wantErr: ErrAccountMismatch,
		},
		"cosigner did not sign": {
			mutate: func(f *fixture, a, t []AccountInfo) ([]AccountInfo, []AccountInfo) {
				a[1].IsSigner = false
				return a, t
			},
			wantErr: ErrMissingSigner,
		},
		"writable account passed read only": {
			mutate: func(f *fixture, a, t []AccountInfo) ([]AccountInfo, []AccountInfo) {
				a[2].IsWritable = false
				return a, t
			},
			wantErr: ErrNotWritable,
		},
		"missing account": {
			mutate: func(f *fixture, a, t []AccountInfo) ([]AccountInfo, []AccountInfo) {
				return a[:4], t
			},
			wantErr: ErrAccountMismatch,
		},
		"substituted loaded account": {
			mutate: func(f *fixture, a, t []AccountInfo) ([]AccountInfo, []AccountInfo) {
				a[4].Key = vaulttest.RandomAddress()
				return a, t
			},
			wantErr: ErrAccountMismatch,
		},
		"loaded writable account passed read only": {
			mutate: func(f *fixture, a, t []AccountInfo) ([]AccountInfo, []AccountInfo) {
				a[4].IsWritable = false
				return a, t
			},
			wantErr: ErrNotWritable,
		},
		"table owned by another program": {
			mutate: func(f *fixture, a, t []AccountInfo) ([]AccountInfo, []AccountInfo) {
				t[0].Owner = vaulttest.RandomAddress()
				return a, t
			},
			wantErr: ErrLookupTable,
		},
		"another table supplied": {
			mutate: func(f *fixture, a, t []AccountInfo) ([]AccountInfo, []AccountInfo) {
				t[0].Key = vaulttest.RandomAddress()
				return a, t
			},
			wantErr: ErrLookupTable,
		},
		"table content replaced": {
			mutate: func(f *fixture, a, t []AccountInfo) ([]AccountInfo, []AccountInfo) {
				t[0].Data = EncodeLookupTable([]vault.Address{f.token})
				return a, t
			},
			wantErr: ErrLookupTable,
		},
		"table missing": {
			mutate: func(f *fixture, a, t []AccountInfo) ([]AccountInfo, []AccountInfo) {
				return a, nil
			},
			wantErr: ErrLookupTable,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t)
			accounts, tables := f.accounts(), []AccountInfo{f.table}
			if tc.mutate != nil {
				accounts, tables = tc.mutate(f, accounts, tables)
			}
			_, err := NewValidated(f.msg, accounts, tables, f.vault)
			assert.IsErr(t, tc.wantErr, err)
		})
	}
}

func TestExecuteMessage(t *testing.T) {
	f := newFixture(t)
	ctx := vault.WithProgramID(vaulttest.NewContext(time.Now()), vault.DefaultProgramID)

	v, err := NewValidated(f.msg, f.accounts(), []AccountInfo{f.table}, f.vault)
	require.NoError(t, err)

	invoker := &invokerMock{}
	signers := []DerivedSigner{f.authority}
	invoker.On("Invoke", Instruction{
		Program: f.program,
		Accounts: []AccountMeta{
			{Key: f.vault, IsSigner: true, IsWritable: true},
			{Key: f.recipient, IsWritable: true},
		},
		Data: []byte("pay"),
	}, signers).Return(nil).Once()
	invoker.On("Invoke", Instruction{
		Program: f.program,
		Accounts: []AccountMeta{
			{Key: f.vault, IsSigner: true, IsWritable: true},
			{Key: f.cosigner, IsSigner: true},
			{Key: f.token, IsWritable: true},
		},
		Data: []byte("burn"),
	}, signers).Return(nil).Once()

	require.NoError(t, v.ExecuteMessage(ctx, invoker, f.authority, []vault.Address{vaulttest.RandomAddress()}))
	invoker.AssertExpectations(t)
}

func TestExecuteMessageProtectedAccounts(t *testing.T) {
	f := newFixture(t)
	ctx := vault.WithProgramID(vaulttest.NewContext(time.Now()), vault.DefaultProgramID)
	v, err := NewValidated(f.msg, f.accounts(), []AccountInfo{f.table}, f.vault)
	require.NoError(t, err)

	invoker := &invokerMock{}
	// The token is written by the second call only. The first call must
	// not be made either.
	err = v.ExecuteMessage(ctx, invoker, f.authority, []vault.Address{f.token})
	assert.IsErr(t, ErrProtectedAccount, err)
	assert.IsClass(t, errors.Structural, err)
	invoker.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything)

	// Read only use of a protected account is allowed.
	invoker.On("Invoke", mock.Anything, mock.Anything).Return(nil)
	require.NoError(t, v.ExecuteMessage(ctx, invoker, f.authority, []vault.Address{f.program, f.cosigner}))
	invoker.AssertNumberOfCalls(t, "Invoke", 2)
}

func TestExecuteMessageAuthority(t *testing.T) {
	f := newFixture(t)
	ctx := vault.WithProgramID(vaulttest.NewContext(time.Now()), vault.DefaultProgramID)
	v, err := NewValidated(f.msg, f.accounts(), []AccountInfo{f.table}, f.vault)
	require.NoError(t, err)

	seeds := [][]byte{[]byte("multisig"), []byte("another vault")}
	_, bump, err := vault.FindDerivedAddress(seeds, vault.DefaultProgramID)
	require.NoError(t, err)
	other := DerivedSigner{Seeds: seeds, Bump: bump}
	err = v.ExecuteMessage(ctx, &invokerMock{}, other, nil)
	assert.IsErr(t, errors.ErrUnauthorized, err)
}

func TestExecuteMessageStopsOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := vault.WithProgramID(vaulttest.NewContext(time.Now()), vault.DefaultProgramID)
	v, err := NewValidated(f.msg, f.accounts(), []AccountInfo{f.table}, f.vault)
	require.NoError(t, err)

	invoker := &invokerMock{}
	invoker.On("Invoke", mock.Anything, mock.Anything).Return(errors.Wrap(errors.ErrInput, "insufficient funds")).Once()
	err = v.ExecuteMessage(ctx, invoker, f.authority, nil)
	assert.IsErr(t, errors.ErrInput, err)
	invoker.AssertNumberOfCalls(t, "Invoke", 1)
}
