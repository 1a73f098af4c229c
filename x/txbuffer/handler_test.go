package txbuffer

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"testing"
	"time"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/store"
	"github.com/iov-one/vault/vaulttest"
	"github.com/iov-one/vault/vaulttest/assert"
	"github.com/iov-one/vault/x/auth"
	"github.com/iov-one/vault/x/exec"
	"github.com/iov-one/vault/x/passkey"
	"github.com/iov-one/vault/x/passkey/passkeytest"
	"github.com/iov-one/vault/x/settings"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type invokerMock struct {
	mock.Mock
}

func (m *invokerMock) Invoke(ctx vault.Context, ix exec.Instruction, signers []exec.DerivedSigner) error {
	return m.Called(ix, signers).Error(0)
}

// env is a vault with threshold 2 and three members: owner holds all
// permissions and pays for buffers, alice can only vote and phone is a
// passkey that can vote and execute.
type env struct {
	now      time.Time
	ctx      vault.Context
	db       vault.CacheableKVStore
	fx       *passkeytest.Fixture
	authn    *vaulttest.Auth
	resolver *auth.Resolver
	invoker  *invokerMock

	owner *vaulttest.DirectSigner
	alice *vaulttest.DirectSigner
	phone *vaulttest.PasskeySigner

	settings  vault.Address
	vault     vault.Address
	recipient vault.Address
	program   vault.Address
}

func newEnv(t testing.TB) *env {
	now := time.Now()
	ctx := vault.WithProgramID(vaulttest.NewContext(now), vault.DefaultProgramID)
	db := store.MemStore()
	fx := passkeytest.NewFixture(t, ctx, db)
	e := &env{
		now:       now,
		ctx:       ctx,
		db:        db,
		fx:        fx,
		authn:     &vaulttest.Auth{},
		invoker:   &invokerMock{},
		owner:     vaulttest.NewDirectSigner(),
		alice:     vaulttest.NewDirectSigner(),
		phone:     vaulttest.NewPasskeySigner(),
		recipient: vaulttest.RandomAddress(),
		program:   vaulttest.RandomAddress(),
	}
	e.resolver = auth.NewResolver(e.authn, fx.Verifier())

	index := [settings.IndexLength]byte{15: 1}
	addr, recordBump, err := settings.SettingsAddress(vault.DefaultProgramID, index)
	require.NoError(t, err)
	vaultAddr, vaultBump, err := settings.VaultAddress(vault.DefaultProgramID, addr, 0)
	require.NoError(t, err)
	s := &settings.Settings{
		Index: index,
		Members: []settings.Member{
			{Key: e.owner.Key(), Permissions: settings.AllPermissions},
			{Key: e.alice.Key(), Permissions: settings.Vote},
			{Key: e.phone.Key(), Permissions: settings.Vote | settings.Execute, DomainBinding: fx.Bind()},
		},
		Threshold:  2,
		VaultBump:  vaultBump,
		RecordBump: recordBump,
	}
	require.NoError(t, settings.NewBucket().Save(db, addr, s))
	e.settings = addr
	e.vault = vaultAddr
	return e
}

// sign sets the keys that signed the call. The first one pays.
func (e *env) sign(keys ...vault.MemberKey) {
	e.authn.Signer = vault.MemberKey{}
	e.authn.Signers = keys
}

// at returns the context of a block given time after the environment was
// created.
func (e *env) at(d time.Duration) vault.Context {
	return vault.WithBlockTime(e.ctx, e.now.Add(d))
}

// transfer returns a message paying from the vault to the recipient,
// together with the accounts it uses.
func (e *env) transfer(t testing.TB, dest vault.Address) ([]byte, []exec.AccountInfo) {
	m := &exec.VaultTransactionMessage{
		NumSigners:            1,
		NumWritableSigners:    1,
		NumWritableNonSigners: 1,
		AccountKeys:           []vault.Address{e.vault, dest, e.program},
		Instructions: []exec.CompiledInstruction{
			{ProgramIDIndex: 2, AccountIndexes: []uint8{0, 1}, Data: bytes.Repeat([]byte("transfer"), 8)},
		},
	}
	raw, err := m.Marshal()
	require.NoError(t, err)
	return raw, []exec.AccountInfo{
		{Key: e.vault, IsWritable: true},
		{Key: dest, IsWritable: true},
		{Key: e.program},
	}
}

func split(payload []byte, n int) [][]byte {
	var chunks [][]byte
	size := (len(payload) + n - 1) / n
	for len(payload) > 0 {
		if size > len(payload) {
			size = len(payload)
		}
		chunks = append(chunks, payload[:size])
		payload = payload[size:]
	}
	return chunks
}

func createMsg(settingsAddr vault.Address, creator auth.Proof, payload []byte, chunks [][]byte) *CreateBufferMsg {
	msg := &CreateBufferMsg{
		Settings:  settingsAddr,
		FinalHash: sha256.Sum256(payload),
		FinalSize: uint16(len(payload)),
		Creator:   creator,
	}
	for _, c := range chunks {
		msg.ChunkHashes = append(msg.ChunkHashes, sha256.Sum256(c))
	}
	return msg
}

func (e *env) deliver(ctx vault.Context, h vault.Handler, msg vault.Msg) (*vault.DeliverResult, error) {
	if _, err := h.Check(ctx, e.db, &vaulttest.Tx{Msg: msg}); err != nil {
		return nil, err
	}
	return h.Deliver(ctx, e.db, &vaulttest.Tx{Msg: msg})
}

// stage creates a buffer by owner and fills it with the payload.
func (e *env) stage(t testing.TB, payload []byte, preauthorize bool) vault.Address {
	chunks := split(payload, 2)
	msg := createMsg(e.settings, auth.DirectProof(e.owner.Key()), payload, chunks)
	msg.Preauthorize = preauthorize
	e.sign(e.owner.Key())
	res, err := e.deliver(e.ctx, NewCreateHandler(e.authn, e.resolver), msg)
	require.NoError(t, err)
	addr, err := vault.AddressFromBytes(res.Data)
	require.NoError(t, err)
	for _, c := range chunks {
		_, err := e.deliver(e.ctx, NewExtendHandler(), &ExtendBufferMsg{Buffer: addr, Chunk: c})
		require.NoError(t, err)
	}
	return addr
}

func (e *env) passkeyProof(action passkey.Action, addr vault.Address, finalHash [HashSize]byte) auth.Proof {
	return auth.PasskeyProof(e.fx.Assert(e.phone, passkey.Binding{Action: action, Target: addr, MessageHash: finalHash}))
}

func (e *env) load(t testing.TB, addr vault.Address) *Buffer {
	buf, err := NewBucket().Load(e.db, addr)
	require.NoError(t, err)
	return buf
}

func TestBufferLifecycle(t *testing.T) {
	Convey("Given a vault with threshold two", t, func() {
		e := newEnv(t)
		payload, accounts := e.transfer(t, e.recipient)
		chunks := split(payload, 2)
		finalHash := sha256.Sum256(payload)

		Convey("the owner stages a transaction", func() {
			msg := createMsg(e.settings, auth.DirectProof(e.owner.Key()), payload, chunks)
			e.sign(e.owner.Key())
			res, err := e.deliver(e.ctx, NewCreateHandler(e.authn, e.resolver), msg)
			So(err, ShouldBeNil)
			addr, err := vault.AddressFromBytes(res.Data)
			So(err, ShouldBeNil)

			want, _, err := BufferAddress(vault.DefaultProgramID, e.settings, e.owner.Key(), 0)
			So(err, ShouldBeNil)
			So(addr, ShouldEqual, want)

			buf := e.load(t, addr)
			So(buf.Payer, ShouldEqual, e.owner.Address())
			So(buf.Voters, ShouldResemble, []vault.MemberKey{e.owner.Key()})
			So(buf.ValidTill, ShouldEqual, vault.AsUnixTime(e.now).Add(DefaultBufferLifetime))
			So(buf.CanExecute, ShouldBeFalse)

			Convey("authorization waits for the payload", func() {
				exe := e.passkeyProof(passkey.ActionExecute, addr, finalHash)
				_, err := e.deliver(e.ctx, NewAuthorizeHandler(e.resolver), &AuthorizeBufferMsg{Buffer: addr, Executor: &exe})
				So(ErrNotBuffered.Is(err), ShouldBeTrue)
			})

			Convey("the chunks are appended in order", func() {
				for _, c := range chunks {
					_, err := e.deliver(e.ctx, NewExtendHandler(), &ExtendBufferMsg{Buffer: addr, Chunk: c})
					So(err, ShouldBeNil)
				}
				So(e.load(t, addr).FullyBuffered(), ShouldBeTrue)

				Convey("execution needs authorization", func() {
					_, err := e.deliver(e.ctx, NewExecuteHandler(e.authn, e.invoker),
						&ExecuteBufferMsg{Buffer: addr, Accounts: accounts})
					So(ErrNotAuthorized.Is(err), ShouldBeTrue)
				})

				Convey("the passkey executes with its implicit vote", func() {
					exe := e.passkeyProof(passkey.ActionExecute, addr, finalHash)
					_, err := e.deliver(e.ctx, NewAuthorizeHandler(e.resolver), &AuthorizeBufferMsg{Buffer: addr, Executor: &exe})
					So(err, ShouldBeNil)
					So(e.load(t, addr).CanExecute, ShouldBeTrue)

					s, err := settings.NewBucket().Load(e.db, e.settings)
					So(err, ShouldBeNil)
					So(s.LatestFreshness, ShouldEqual, exe.Passkey.Reference)

					Convey("and the buffered message runs under the vault authority", func() {
						e.invoker.On("Invoke", mock.MatchedBy(func(ix exec.Instruction) bool {
							return ix.Program == e.program && ix.Accounts[0].Key == e.vault && ix.Accounts[0].IsSigner
						}), mock.Anything).Return(nil).Once()

						e.sign(vaulttest.NewDirectKey())
						res, err := e.deliver(e.ctx, NewExecuteHandler(e.authn, e.invoker),
							&ExecuteBufferMsg{Buffer: addr, Accounts: accounts})
						So(err, ShouldBeNil)
						So(string(res.Tags[1].Value), ShouldEqual, e.owner.Address().String())
						e.invoker.AssertExpectations(t)

						_, err = NewBucket().Load(e.db, addr)
						So(errors.ErrNotFound.Is(err), ShouldBeTrue)
					})
				})

				Convey("a vote assertion cannot authorize execution", func() {
					vote := e.passkeyProof(passkey.ActionVote, addr, finalHash)
					_, err := e.deliver(e.ctx, NewAuthorizeHandler(e.resolver), &AuthorizeBufferMsg{Buffer: addr, Executor: &vote})
					So(passkey.ErrChallengeMismatch.Is(err), ShouldBeTrue)
					So(e.load(t, addr).CanExecute, ShouldBeFalse)
				})

				Convey("alice votes twice and the owner executes", func() {
					e.sign(e.alice.Key())
					vote := &VoteBufferMsg{Buffer: addr, Voter: auth.DirectProof(e.alice.Key())}
					_, err := e.deliver(e.ctx, NewVoteHandler(e.resolver), vote)
					So(err, ShouldBeNil)
					_, err = e.deliver(e.ctx, NewVoteHandler(e.resolver), vote)
					So(err, ShouldBeNil)
					So(e.load(t, addr).Voters, ShouldResemble, []vault.MemberKey{e.owner.Key(), e.alice.Key()})

					e.sign(e.owner.Key())
					exe := auth.DirectProof(e.owner.Key())
					_, err = e.deliver(e.ctx, NewAuthorizeHandler(e.resolver), &AuthorizeBufferMsg{Buffer: addr, Executor: &exe})
					So(err, ShouldBeNil)

					_, err = e.deliver(e.ctx, NewAuthorizeHandler(e.resolver), &AuthorizeBufferMsg{Buffer: addr, Executor: &exe})
					So(ErrAlreadyAuthorized.Is(err), ShouldBeTrue)
				})

				Convey("the owner alone does not reach the threshold", func() {
					exe := auth.DirectProof(e.owner.Key())
					_, err := e.deliver(e.ctx, NewAuthorizeHandler(e.resolver), &AuthorizeBufferMsg{Buffer: addr, Executor: &exe})
					So(settings.ErrInsufficientVotes.Is(err), ShouldBeTrue)
					So(err.Error(), ShouldContainSubstring, "insufficient votes: 1/2")
				})

				Convey("after expiry", func() {
					later := e.at(DefaultBufferLifetime + time.Second)

					Convey("nobody can vote", func() {
						e.sign(e.alice.Key())
						_, err := e.deliver(later, NewVoteHandler(e.resolver), &VoteBufferMsg{Buffer: addr, Voter: auth.DirectProof(e.alice.Key())})
						So(errors.ErrExpired.Is(err), ShouldBeTrue)
						So(errors.ClassOf(err), ShouldEqual, errors.Freshness)
					})

					Convey("the creator cannot close", func() {
						closer := auth.DirectProof(e.owner.Key())
						_, err := e.deliver(later, NewCloseHandler(e.authn, e.resolver), &CloseBufferMsg{Buffer: addr, Closer: &closer})
						So(errors.ErrExpired.Is(err), ShouldBeTrue)
					})

					Convey("the payer reclaims the storage", func() {
						_, err := e.deliver(later, NewCloseHandler(e.authn, e.resolver), &CloseBufferMsg{Buffer: addr})
						So(err, ShouldBeNil)
						_, err = NewBucket().Load(e.db, addr)
						So(errors.ErrNotFound.Is(err), ShouldBeTrue)
					})
				})
			})
		})
	})
}

func TestExtendKeepsBufferOnFailure(t *testing.T) {
	e := newEnv(t)
	first := bytes.Repeat([]byte{1}, 60)
	second := bytes.Repeat([]byte{2}, 40)
	payload := append(append([]byte(nil), first...), second...)

	e.sign(e.owner.Key())
	res, err := e.deliver(e.ctx, NewCreateHandler(e.authn, e.resolver),
		createMsg(e.settings, auth.DirectProof(e.owner.Key()), payload, [][]byte{first, second}))
	assert.Nil(t, err)
	addr, err := vault.AddressFromBytes(res.Data)
	assert.Nil(t, err)

	h := NewExtendHandler()
	_, err = e.deliver(e.ctx, h, &ExtendBufferMsg{Buffer: addr, Chunk: first})
	assert.Nil(t, err)
	before := e.load(t, addr)

	_, err = h.Deliver(e.ctx, e.db, &vaulttest.Tx{Msg: &ExtendBufferMsg{Buffer: addr, Chunk: append(second, 2)}})
	assert.IsErr(t, ErrBufferSize, err)
	assert.Equal(t, before, e.load(t, addr))

	_, err = h.Deliver(e.ctx, e.db, &vaulttest.Tx{Msg: &ExtendBufferMsg{Buffer: addr, Chunk: first[:40]}})
	assert.IsErr(t, ErrChunkHash, err)
	assert.Equal(t, before, e.load(t, addr))

	_, err = h.Deliver(e.ctx, e.db, &vaulttest.Tx{Msg: &ExtendBufferMsg{Buffer: addr, Chunk: second}})
	assert.Nil(t, err)
	buf := e.load(t, addr)
	assert.Equal(t, 100, len(buf.Buffer))
	assert.Equal(t, 0, len(buf.ChunkHashes))
}

func TestCreateBuffer(t *testing.T) {
	payload := []byte("a small payload")

	cases := map[string]struct {
		msg     func(t *testing.T, e *env) *CreateBufferMsg
		signers func(e *env) []vault.MemberKey
		wantErr *errors.Error
	}{
		"passkey outside the vault": {
			msg: func(t *testing.T, e *env) *CreateBufferMsg {
				outsider := vaulttest.NewPasskeySigner()
				addr, _, err := BufferAddress(vault.DefaultProgramID, e.settings, outsider.Key(), 0)
				require.NoError(t, err)
				proof := auth.PasskeyProof(e.fx.Assert(outsider, passkey.Binding{
					Action:      passkey.ActionCreate,
					Target:      addr,
					MessageHash: sha256.Sum256(payload),
				}))
				return createMsg(e.settings, proof, payload, [][]byte{payload})
			},
			signers: func(e *env) []vault.MemberKey { return []vault.MemberKey{e.owner.Key()} },
			wantErr: settings.ErrInsufficientPermissions,
		},
		"voter cannot initiate": {
			msg: func(t *testing.T, e *env) *CreateBufferMsg {
				return createMsg(e.settings, auth.DirectProof(e.alice.Key()), payload, [][]byte{payload})
			},
			signers: func(e *env) []vault.MemberKey { return []vault.MemberKey{e.alice.Key()} },
			wantErr: settings.ErrInsufficientPermissions,
		},
		"preauthorize requires execute": {
			msg: func(t *testing.T, e *env) *CreateBufferMsg {
				require.NoError(t, editPermissions(e, e.alice.Key(), settings.Initiate|settings.Vote))
				m := createMsg(e.settings, auth.DirectProof(e.alice.Key()), payload, [][]byte{payload})
				m.Preauthorize = true
				return m
			},
			signers: func(e *env) []vault.MemberKey { return []vault.MemberKey{e.alice.Key()} },
			wantErr: settings.ErrInsufficientPermissions,
		},
		"creator did not sign": {
			msg: func(t *testing.T, e *env) *CreateBufferMsg {
				return createMsg(e.settings, auth.DirectProof(e.owner.Key()), payload, [][]byte{payload})
			},
			signers: func(e *env) []vault.MemberKey { return []vault.MemberKey{e.alice.Key()} },
			wantErr: auth.ErrNoSignerFound,
		},
		"nobody pays": {
			msg: func(t *testing.T, e *env) *CreateBufferMsg {
				return createMsg(e.settings, e.passkeyProof(passkey.ActionCreate, vault.Address{}, sha256.Sum256(payload)), payload, [][]byte{payload})
			},
			wantErr: errors.ErrUnauthorized,
		},
		"assertion bound to another buffer": {
			msg: func(t *testing.T, e *env) *CreateBufferMsg {
				return createMsg(e.settings, e.passkeyProof(passkey.ActionCreate, vaulttest.RandomAddress(), sha256.Sum256(payload)), payload, [][]byte{payload})
			},
			signers: func(e *env) []vault.MemberKey { return []vault.MemberKey{e.owner.Key()} },
			wantErr: passkey.ErrChallengeMismatch,
		},
		"payload too large": {
			msg: func(t *testing.T, e *env) *CreateBufferMsg {
				big := make([]byte, DefaultMaxBufferSize+1)
				return createMsg(e.settings, auth.DirectProof(e.owner.Key()), big, [][]byte{big})
			},
			signers: func(e *env) []vault.MemberKey { return []vault.MemberKey{e.owner.Key()} },
			wantErr: ErrBufferSize,
		},
		"no chunks": {
			msg: func(t *testing.T, e *env) *CreateBufferMsg {
				return createMsg(e.settings, auth.DirectProof(e.owner.Key()), payload, nil)
			},
			signers: func(e *env) []vault.MemberKey { return []vault.MemberKey{e.owner.Key()} },
			wantErr: errors.ErrEmpty,
		},
		"unknown vault": {
			msg: func(t *testing.T, e *env) *CreateBufferMsg {
				return createMsg(vaulttest.RandomAddress(), auth.DirectProof(e.owner.Key()), payload, [][]byte{payload})
			},
			signers: func(e *env) []vault.MemberKey { return []vault.MemberKey{e.owner.Key()} },
			wantErr: errors.ErrNotFound,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			e := newEnv(t)
			msg := tc.msg(t, e)
			if tc.signers != nil {
				e.sign(tc.signers(e)...)
			}
			_, err := e.deliver(e.ctx, NewCreateHandler(e.authn, e.resolver), msg)
			assert.IsErr(t, tc.wantErr, err)

			// Nothing was stored.
			creator, _ := msg.Creator.Key()
			addr, _, err := BufferAddress(vault.DefaultProgramID, msg.Settings, creator, 0)
			assert.Nil(t, err)
			assert.IsErr(t, errors.ErrNotFound, NewBucket().Has(e.db, addr[:]))
		})
	}
}

func editPermissions(e *env, key vault.MemberKey, p settings.Permissions) error {
	b := settings.NewBucket()
	s, err := b.Load(e.db, e.settings)
	if err != nil {
		return err
	}
	if err := s.EditPermissions(settings.PermissionEdit{Key: key, Permissions: p}); err != nil {
		return err
	}
	return b.Save(e.db, e.settings, s)
}

func TestPasskeyCreatorWithPreauthorizedExecution(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, editPermissions(e, e.phone.Key(), settings.AllPermissions))
	payload, accounts := e.transfer(t, e.recipient)
	finalHash := sha256.Sum256(payload)

	addr, _, err := BufferAddress(vault.DefaultProgramID, e.settings, e.phone.Key(), 7)
	assert.Nil(t, err)

	// An assertion for a plain create does not preauthorize.
	msg := createMsg(e.settings, e.passkeyProof(passkey.ActionCreate, addr, finalHash), payload, [][]byte{payload})
	msg.BufferIndex = 7
	msg.Preauthorize = true
	e.sign(e.owner.Key())
	_, err = e.deliver(e.ctx, NewCreateHandler(e.authn, e.resolver), msg)
	assert.IsErr(t, passkey.ErrChallengeMismatch, err)

	msg.Creator = e.passkeyProof(passkey.ActionCreateWithPreauthorizedExecution, addr, finalHash)
	_, err = e.deliver(e.ctx, NewCreateHandler(e.authn, e.resolver), msg)
	assert.Nil(t, err)

	_, err = e.deliver(e.ctx, NewExtendHandler(), &ExtendBufferMsg{Buffer: addr, Chunk: payload})
	assert.Nil(t, err)

	// One vote of the creator is below the threshold.
	_, err = e.deliver(e.ctx, NewAuthorizeHandler(e.resolver), &AuthorizeBufferMsg{Buffer: addr})
	assert.IsErr(t, settings.ErrInsufficientVotes, err)

	e.sign(e.alice.Key())
	_, err = e.deliver(e.ctx, NewVoteHandler(e.resolver), &VoteBufferMsg{Buffer: addr, Voter: auth.DirectProof(e.alice.Key())})
	assert.Nil(t, err)

	// No executor is needed once enough members voted.
	_, err = e.deliver(e.ctx, NewAuthorizeHandler(e.resolver), &AuthorizeBufferMsg{Buffer: addr})
	assert.Nil(t, err)

	// Execution is still allowed at the very last second.
	e.invoker.On("Invoke", mock.Anything, mock.Anything).Return(nil).Once()
	_, err = e.deliver(e.at(DefaultBufferLifetime), NewExecuteHandler(e.authn, e.invoker),
		&ExecuteBufferMsg{Buffer: addr, Accounts: accounts})
	assert.Nil(t, err)
	e.invoker.AssertExpectations(t)
}

func TestReplayedAssertionIsStale(t *testing.T) {
	e := newEnv(t)
	payload, _ := e.transfer(t, e.recipient)
	addr := e.stage(t, payload, false)

	vote := e.passkeyProof(passkey.ActionVote, addr, sha256.Sum256(payload))
	_, err := e.deliver(e.ctx, NewVoteHandler(e.resolver), &VoteBufferMsg{Buffer: addr, Voter: vote})
	assert.Nil(t, err)

	_, err = e.deliver(e.ctx, NewVoteHandler(e.resolver), &VoteBufferMsg{Buffer: addr, Voter: vote})
	assert.IsErr(t, settings.ErrStaleFreshness, err)
	assert.IsClass(t, errors.Freshness, err)
}

func TestExecuteProtectsRecords(t *testing.T) {
	e := newEnv(t)
	// The message tries to write to the vault settings record.
	payload, accounts := e.transfer(t, e.settings)
	addr := e.stage(t, payload, false)

	vote := e.passkeyProof(passkey.ActionExecute, addr, sha256.Sum256(payload))
	_, err := e.deliver(e.ctx, NewAuthorizeHandler(e.resolver), &AuthorizeBufferMsg{Buffer: addr, Executor: &vote})
	assert.Nil(t, err)

	_, err = e.deliver(e.ctx, NewExecuteHandler(e.authn, e.invoker), &ExecuteBufferMsg{Buffer: addr, Accounts: accounts})
	assert.IsErr(t, exec.ErrProtectedAccount, err)
	e.invoker.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything)
	assert.Nil(t, NewBucket().Has(e.db, addr[:]))

	// Accounts that differ from the buffered message are rejected too.
	accounts[1].Key = vaulttest.RandomAddress()
	_, err = e.deliver(e.ctx, NewExecuteHandler(e.authn, e.invoker), &ExecuteBufferMsg{Buffer: addr, Accounts: accounts})
	assert.IsErr(t, exec.ErrAccountMismatch, err)
}

func TestCloseBuffer(t *testing.T) {
	cases := map[string]struct {
		ctx     func(e *env) vault.Context
		closer  func(e *env, addr vault.Address) *auth.Proof
		signers func(e *env) []vault.MemberKey
		wantErr *errors.Error
	}{
		"creator before expiry": {
			closer: func(e *env, addr vault.Address) *auth.Proof {
				p := auth.DirectProof(e.owner.Key())
				return &p
			},
			signers: func(e *env) []vault.MemberKey { return []vault.MemberKey{e.owner.Key()} },
		},
		"another member": {
			closer: func(e *env, addr vault.Address) *auth.Proof {
				p := auth.DirectProof(e.alice.Key())
				return &p
			},
			signers: func(e *env) []vault.MemberKey { return []vault.MemberKey{e.alice.Key()} },
			wantErr: ErrNotCreator,
		},
		"payer before expiry": {
			signers: func(e *env) []vault.MemberKey { return []vault.MemberKey{e.owner.Key()} },
			wantErr: ErrNotExpired,
		},
		"payer at the last valid second": {
			ctx:     func(e *env) vault.Context { return e.at(DefaultBufferLifetime) },
			signers: func(e *env) []vault.MemberKey { return []vault.MemberKey{e.owner.Key()} },
			wantErr: ErrNotExpired,
		},
		"payer after expiry": {
			ctx:     func(e *env) vault.Context { return e.at(time.Hour) },
			signers: func(e *env) []vault.MemberKey { return []vault.MemberKey{e.owner.Key()} },
		},
		"someone else after expiry": {
			ctx:     func(e *env) vault.Context { return e.at(time.Hour) },
			signers: func(e *env) []vault.MemberKey { return []vault.MemberKey{e.alice.Key()} },
			wantErr: errors.ErrUnauthorized,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			e := newEnv(t)
			payload, _ := e.transfer(t, e.recipient)
			addr := e.stage(t, payload, false)

			ctx := e.ctx
			if tc.ctx != nil {
				ctx = tc.ctx(e)
			}
			msg := &CloseBufferMsg{Buffer: addr}
			if tc.closer != nil {
				msg.Closer = tc.closer(e, addr)
			}
			e.sign(tc.signers(e)...)
			_, err := e.deliver(ctx, NewCloseHandler(e.authn, e.resolver), msg)
			assert.IsErr(t, tc.wantErr, err)

			if tc.wantErr == nil {
				assert.IsErr(t, errors.ErrNotFound, NewBucket().Has(e.db, addr[:]))
			} else {
				assert.Nil(t, NewBucket().Has(e.db, addr[:]))
			}
		})
	}
}

func TestGenesisConfiguration(t *testing.T) {
	e := newEnv(t)
	var opts vault.Options
	require.NoError(t, json.Unmarshal([]byte(`{"conf": {"txbuffer": {"max_buffer_size": 16}}}`), &opts))
	require.NoError(t, Initializer{}.FromGenesis(opts, e.db))

	conf, err := loadConf(e.db)
	assert.Nil(t, err)
	assert.Equal(t, uint16(16), conf.MaxBufferSize)
	assert.Equal(t, DefaultBufferLifetime, conf.Lifetime())

	payload := bytes.Repeat([]byte{1}, 17)
	e.sign(e.owner.Key())
	_, err = e.deliver(e.ctx, NewCreateHandler(e.authn, e.resolver),
		createMsg(e.settings, auth.DirectProof(e.owner.Key()), payload, [][]byte{payload}))
	assert.IsErr(t, ErrBufferSize, err)

	// Without configuration in the genesis the defaults stay.
	db := store.MemStore()
	require.NoError(t, Initializer{}.FromGenesis(vault.Options{}, db))
	conf, err = loadConf(db)
	assert.Nil(t, err)
	assert.Equal(t, DefaultConfiguration(), conf)

	require.NoError(t, json.Unmarshal([]byte(`{"conf": {"txbuffer": {"buffer_lifetime": 0}}}`), &opts))
	assert.IsErr(t, errors.ErrInput, Initializer{}.FromGenesis(opts, db))
}
