package txbuffer

import (
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/x"
	"github.com/iov-one/vault/x/auth"
	"github.com/iov-one/vault/x/exec"
	"github.com/iov-one/vault/x/passkey"
	"github.com/iov-one/vault/x/settings"
	"github.com/tendermint/tendermint/libs/common"
)

// RegisterRoutes will instantiate and register all handlers in this
// package. Executed buffers make their calls through given invoker.
func RegisterRoutes(r vault.Registry, authn x.Authenticator, resolver *auth.Resolver, invoker exec.Invoker) {
	r.Handle(&CreateBufferMsg{}, NewCreateHandler(authn, resolver))
	r.Handle(&ExtendBufferMsg{}, NewExtendHandler())
	r.Handle(&VoteBufferMsg{}, NewVoteHandler(resolver))
	r.Handle(&AuthorizeBufferMsg{}, NewAuthorizeHandler(resolver))
	r.Handle(&CloseBufferMsg{}, NewCloseHandler(authn, resolver))
	r.Handle(&ExecuteBufferMsg{}, NewExecuteHandler(authn, invoker))
}

func bufferTags(addr vault.Address, kv ...common.KVPair) []common.KVPair {
	return append([]common.KVPair{{Key: []byte("buffer"), Value: []byte(addr.String())}}, kv...)
}

// finalBinding binds a passkey assertion to given action on the buffer
// payload.
func finalBinding(action passkey.Action, addr vault.Address, buf *Buffer) passkey.Binding {
	return passkey.Binding{Action: action, Target: addr, MessageHash: buf.FinalHash}
}

// active loads a buffer that has not expired yet, together with its vault
// settings.
func active(ctx vault.Context, db vault.ReadOnlyKVStore, addr vault.Address) (*Buffer, *settings.Settings, error) {
	buf, err := NewBucket().Load(db, addr)
	if err != nil {
		return nil, nil, err
	}
	if buf.Expired(ctx) {
		return nil, nil, errors.Wrapf(errors.ErrExpired, "buffer %s valid till %s", addr, buf.ValidTill)
	}
	s, err := settings.NewBucket().Load(db, buf.Settings)
	if err != nil {
		return nil, nil, err
	}
	return buf, s, nil
}

// CreateHandler stages a new transaction.
type CreateHandler struct {
	authn    x.Authenticator
	resolver *auth.Resolver
	buffers  Bucket
	settings settings.Bucket
}

var _ vault.Handler = CreateHandler{}

// NewCreateHandler returns a handler creating buffers.
func NewCreateHandler(authn x.Authenticator, resolver *auth.Resolver) CreateHandler {
	return CreateHandler{
		authn:    authn,
		resolver: resolver,
		buffers:  NewBucket(),
		settings: settings.NewBucket(),
	}
}

func (h CreateHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{}, nil
}

func (h CreateHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, s, session, buf, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	addr, _, err := BufferAddress(vault.GetProgramID(ctx), msg.Settings, buf.Creator, msg.BufferIndex)
	if err != nil {
		return nil, errors.Wrap(err, "buffer address")
	}

	session.Commit()
	if err := h.settings.Save(db, msg.Settings, s); err != nil {
		return nil, err
	}
	if err := h.buffers.Create(db, addr[:], buf); err != nil {
		return nil, errors.Wrapf(err, "buffer %s", addr)
	}

	vault.GetLogger(ctx).Info("buffer created",
		"buffer", addr, "settings", msg.Settings, "size", buf.FinalSize, "chunks", len(buf.ChunkHashes), "valid_till", buf.ValidTill)

	return &vault.DeliverResult{Data: addr[:], Tags: bufferTags(addr)}, nil
}

func (h CreateHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*CreateBufferMsg, *settings.Settings, *auth.Session, *Buffer, error) {
	var msg CreateBufferMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "load msg")
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if msg.FinalSize > conf.MaxBufferSize {
		return nil, nil, nil, nil, errors.Wrapf(ErrBufferSize, "%d bytes, max %d", msg.FinalSize, conf.MaxBufferSize)
	}
	payer, ok := x.MainSigner(ctx, h.authn)
	if !ok || !payer.IsDirect() {
		return nil, nil, nil, nil, errors.Wrap(errors.ErrUnauthorized, "payer must sign")
	}
	now, ok := vault.BlockTime(ctx)
	if !ok {
		return nil, nil, nil, nil, errors.Wrap(errors.ErrHuman, "block time not present in context")
	}

	s, err := h.settings.Load(db, msg.Settings)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	creator, _ := msg.Creator.Key()
	addr, bump, err := BufferAddress(vault.GetProgramID(ctx), msg.Settings, creator, msg.BufferIndex)
	if err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "buffer address")
	}

	action, required := passkey.ActionCreate, settings.Initiate
	if msg.Preauthorize {
		action, required = passkey.ActionCreateWithPreauthorizedExecution, settings.Initiate|settings.Execute
	}
	buf := &Buffer{
		Settings:     msg.Settings,
		VaultBump:    s.VaultBump,
		Preauthorize: msg.Preauthorize,
		ValidTill:    vault.AsUnixTime(now).Add(conf.Lifetime()),
		Payer:        payer.Address(),
		Bump:         bump,
		BufferIndex:  msg.BufferIndex,
		FinalHash:    msg.FinalHash,
		FinalSize:    msg.FinalSize,
		Creator:      creator,
		ChunkHashes:  msg.ChunkHashes,
	}

	session := h.resolver.Session(s)
	_, m, err := session.Member(ctx, db, msg.Creator, finalBinding(action, addr, buf))
	if err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "creator")
	}
	if !m.Has(required) {
		return nil, nil, nil, nil, errors.Wrapf(settings.ErrInsufficientPermissions, "creator %s holds %s, requires %s", creator, m.Permissions, required)
	}
	if m.Has(settings.Vote) {
		buf.AddVoter(creator)
	}
	return &msg, s, session, buf, nil
}

// ExtendHandler appends a chunk to a buffer. The chunk must match the
// committed hash, so anyone may submit it.
type ExtendHandler struct {
	buffers Bucket
}

var _ vault.Handler = ExtendHandler{}

// NewExtendHandler returns a handler extending buffers.
func NewExtendHandler() ExtendHandler {
	return ExtendHandler{buffers: NewBucket()}
}

func (h ExtendHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{}, nil
}

func (h ExtendHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, buf, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.buffers.Save(db, msg.Buffer, buf); err != nil {
		return nil, err
	}
	vault.GetLogger(ctx).Debug("buffer extended",
		"buffer", msg.Buffer, "size", len(buf.Buffer), "pending", len(buf.ChunkHashes))
	return &vault.DeliverResult{Tags: bufferTags(msg.Buffer)}, nil
}

func (h ExtendHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*ExtendBufferMsg, *Buffer, error) {
	var msg ExtendBufferMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	buf, err := h.buffers.Load(db, msg.Buffer)
	if err != nil {
		return nil, nil, err
	}
	if buf.Expired(ctx) {
		return nil, nil, errors.Wrapf(errors.ErrExpired, "buffer %s valid till %s", msg.Buffer, buf.ValidTill)
	}
	if err := buf.Extend(msg.Chunk); err != nil {
		return nil, nil, err
	}
	return &msg, buf, nil
}

// VoteHandler records member approvals.
type VoteHandler struct {
	resolver *auth.Resolver
	buffers  Bucket
	settings settings.Bucket
}

var _ vault.Handler = VoteHandler{}

// NewVoteHandler returns a handler recording votes.
func NewVoteHandler(resolver *auth.Resolver) VoteHandler {
	return VoteHandler{
		resolver: resolver,
		buffers:  NewBucket(),
		settings: settings.NewBucket(),
	}
}

func (h VoteHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{}, nil
}

func (h VoteHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, buf, s, session, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	voter, _ := msg.Voter.Key()
	added := buf.AddVoter(voter)

	session.Commit()
	if err := h.settings.Save(db, buf.Settings, s); err != nil {
		return nil, err
	}
	if err := h.buffers.Save(db, msg.Buffer, buf); err != nil {
		return nil, err
	}
	vault.GetLogger(ctx).Debug("buffer vote", "buffer", msg.Buffer, "voter", voter, "new", added, "votes", len(buf.Voters))
	return &vault.DeliverResult{Tags: bufferTags(msg.Buffer)}, nil
}

func (h VoteHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*VoteBufferMsg, *Buffer, *settings.Settings, *auth.Session, error) {
	var msg VoteBufferMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "load msg")
	}
	buf, s, err := active(ctx, db, msg.Buffer)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	session := h.resolver.Session(s)
	_, m, err := session.Member(ctx, db, msg.Voter, finalBinding(passkey.ActionVote, msg.Buffer, buf))
	if err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "voter")
	}
	if !m.Has(settings.Vote) {
		return nil, nil, nil, nil, errors.Wrapf(settings.ErrInsufficientPermissions, "%s cannot vote", m.Key)
	}
	return &msg, buf, s, session, nil
}

// AuthorizeHandler allows a buffered transaction to execute once enough
// members voted for it.
type AuthorizeHandler struct {
	resolver *auth.Resolver
	buffers  Bucket
	settings settings.Bucket
}

var _ vault.Handler = AuthorizeHandler{}

// NewAuthorizeHandler returns a handler authorizing execution.
func NewAuthorizeHandler(resolver *auth.Resolver) AuthorizeHandler {
	return AuthorizeHandler{
		resolver: resolver,
		buffers:  NewBucket(),
		settings: settings.NewBucket(),
	}
}

func (h AuthorizeHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{}, nil
}

func (h AuthorizeHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, buf, s, session, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	buf.CanExecute = true

	session.Commit()
	if err := h.settings.Save(db, buf.Settings, s); err != nil {
		return nil, err
	}
	if err := h.buffers.Save(db, msg.Buffer, buf); err != nil {
		return nil, err
	}
	vault.GetLogger(ctx).Info("buffer authorized", "buffer", msg.Buffer, "preauthorized", buf.Preauthorize)
	return &vault.DeliverResult{Tags: bufferTags(msg.Buffer)}, nil
}

func (h AuthorizeHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*AuthorizeBufferMsg, *Buffer, *settings.Settings, *auth.Session, error) {
	var msg AuthorizeBufferMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "load msg")
	}
	buf, s, err := active(ctx, db, msg.Buffer)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if buf.CanExecute {
		return nil, nil, nil, nil, errors.Wrapf(ErrAlreadyAuthorized, "buffer %s", msg.Buffer)
	}
	if !buf.FullyBuffered() {
		return nil, nil, nil, nil, errors.Wrapf(ErrNotBuffered, "%d of %d bytes, %d chunks pending", len(buf.Buffer), buf.FinalSize, len(buf.ChunkHashes))
	}

	session := h.resolver.Session(s)
	if buf.Preauthorize {
		if err := s.RequireVotes(buf.Voters); err != nil {
			return nil, nil, nil, nil, err
		}
		return &msg, buf, s, session, nil
	}

	if msg.Executor == nil {
		return nil, nil, nil, nil, errors.Wrap(settings.ErrInsufficientPermissions, "executor required")
	}
	_, m, err := session.Member(ctx, db, *msg.Executor, finalBinding(passkey.ActionExecute, msg.Buffer, buf))
	if err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "executor")
	}
	if !m.Has(settings.Execute) {
		return nil, nil, nil, nil, errors.Wrapf(settings.ErrInsufficientPermissions, "%s cannot execute", m.Key)
	}
	// The executor counts as a voter when it may vote.
	voters := append(append([]vault.MemberKey(nil), buf.Voters...), m.Key)
	if err := s.RequireVotes(voters); err != nil {
		return nil, nil, nil, nil, err
	}
	return &msg, buf, s, session, nil
}

// CloseHandler removes a buffer and returns its storage to the payer.
type CloseHandler struct {
	authn    x.Authenticator
	resolver *auth.Resolver
	buffers  Bucket
	settings settings.Bucket
}

var _ vault.Handler = CloseHandler{}

// NewCloseHandler returns a handler closing buffers.
func NewCloseHandler(authn x.Authenticator, resolver *auth.Resolver) CloseHandler {
	return CloseHandler{
		authn:    authn,
		resolver: resolver,
		buffers:  NewBucket(),
		settings: settings.NewBucket(),
	}
}

func (h CloseHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{}, nil
}

func (h CloseHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, buf, s, session, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if session != nil {
		session.Commit()
		if err := h.settings.Save(db, buf.Settings, s); err != nil {
			return nil, err
		}
	}
	if err := h.buffers.Delete(db, msg.Buffer[:]); err != nil {
		return nil, err
	}
	vault.GetLogger(ctx).Info("buffer closed", "buffer", msg.Buffer, "by_creator", session != nil, "refund", buf.Payer)
	return &vault.DeliverResult{
		Tags: bufferTags(msg.Buffer, common.KVPair{Key: []byte("refund"), Value: []byte(buf.Payer.String())}),
	}, nil
}

// validate returns a session only when the creator closes the buffer.
func (h CloseHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*CloseBufferMsg, *Buffer, *settings.Settings, *auth.Session, error) {
	var msg CloseBufferMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "load msg")
	}
	buf, err := h.buffers.Load(db, msg.Buffer)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	if msg.Closer == nil {
		if !buf.Expired(ctx) {
			return nil, nil, nil, nil, errors.Wrapf(ErrNotExpired, "payer can close after %s", buf.ValidTill)
		}
		if !h.authn.HasSigner(ctx, vault.DirectKeyOf(buf.Payer)) {
			return nil, nil, nil, nil, errors.Wrapf(errors.ErrUnauthorized, "payer %s must sign", buf.Payer)
		}
		return &msg, buf, nil, nil, nil
	}

	if key, _ := msg.Closer.Key(); !key.Equals(buf.Creator) {
		return nil, nil, nil, nil, errors.Wrapf(ErrNotCreator, "%s", key)
	}
	if buf.Expired(ctx) {
		return nil, nil, nil, nil, errors.Wrapf(errors.ErrExpired, "buffer %s valid till %s", msg.Buffer, buf.ValidTill)
	}
	s, err := h.settings.Load(db, buf.Settings)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	session := h.resolver.Session(s)
	if _, _, err := session.Member(ctx, db, *msg.Closer, finalBinding(passkey.ActionClose, msg.Buffer, buf)); err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "creator")
	}
	return &msg, buf, s, session, nil
}

// ExecuteHandler executes authorized buffers and removes them.
type ExecuteHandler struct {
	authn   x.Authenticator
	invoker exec.Invoker
	buffers Bucket
}

var _ vault.Handler = ExecuteHandler{}

// NewExecuteHandler returns a handler executing buffers through given
// invoker.
func NewExecuteHandler(authn x.Authenticator, invoker exec.Invoker) ExecuteHandler {
	return ExecuteHandler{
		authn:   authn,
		invoker: invoker,
		buffers: NewBucket(),
	}
}

func (h ExecuteHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{}, nil
}

func (h ExecuteHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, buf, validated, authority, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	protected := []vault.Address{msg.Buffer, buf.Payer, buf.Settings}
	if err := validated.ExecuteMessage(ctx, h.invoker, authority, protected); err != nil {
		return nil, err
	}
	if err := h.buffers.Delete(db, msg.Buffer[:]); err != nil {
		return nil, err
	}
	vault.GetLogger(ctx).Info("buffer executed", "buffer", msg.Buffer, "settings", buf.Settings, "refund", buf.Payer)
	return &vault.DeliverResult{
		Tags: bufferTags(msg.Buffer, common.KVPair{Key: []byte("refund"), Value: []byte(buf.Payer.String())}),
	}, nil
}

func (h ExecuteHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*ExecuteBufferMsg, *Buffer, *exec.ValidatedMessage, exec.DerivedSigner, error) {
	var (
		msg       ExecuteBufferMsg
		authority exec.DerivedSigner
	)
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, authority, errors.Wrap(err, "load msg")
	}
	buf, err := h.buffers.Load(db, msg.Buffer)
	if err != nil {
		return nil, nil, nil, authority, err
	}
	if !buf.CanExecute {
		return nil, nil, nil, authority, errors.Wrapf(ErrNotAuthorized, "buffer %s", msg.Buffer)
	}
	if buf.Expired(ctx) {
		return nil, nil, nil, authority, errors.Wrapf(errors.ErrExpired, "buffer %s valid till %s", msg.Buffer, buf.ValidTill)
	}
	if !buf.FullyBuffered() {
		return nil, nil, nil, authority, errors.Wrapf(ErrNotBuffered, "buffer %s", msg.Buffer)
	}

	var m exec.VaultTransactionMessage
	if err := m.Unmarshal(buf.Buffer); err != nil {
		return nil, nil, nil, authority, errors.Wrap(err, "buffered message")
	}
	authority = exec.DerivedSigner{Seeds: settings.VaultSeeds(buf.Settings, 0), Bump: buf.VaultBump}
	vaultAddr, err := authority.Address(vault.GetProgramID(ctx))
	if err != nil {
		return nil, nil, nil, authority, errors.Wrap(err, "vault authority")
	}

	// Signer flags come from the authenticator, not from the caller.
	accounts := make([]exec.AccountInfo, len(msg.Accounts))
	for i, a := range msg.Accounts {
		a.IsSigner = h.authn.HasSigner(ctx, vault.DirectKeyOf(a.Key))
		accounts[i] = a
	}
	validated, err := exec.NewValidated(&m, accounts, msg.LookupTables, vaultAddr)
	if err != nil {
		return nil, nil, nil, authority, err
	}
	return &msg, buf, validated, authority, nil
}
