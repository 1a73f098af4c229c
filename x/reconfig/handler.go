package reconfig

import (
	"encoding/binary"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/orm"
	"github.com/iov-one/vault/x"
	"github.com/iov-one/vault/x/auth"
	"github.com/iov-one/vault/x/passkey"
	"github.com/iov-one/vault/x/settings"
	"github.com/tendermint/tendermint/libs/common"
)

// RegisterRoutes will instantiate and register all handlers in this
// package.
func RegisterRoutes(r vault.Registry, authn x.Authenticator, resolver *auth.Resolver, profiles ProfileRegistry) {
	engine := NewEngine(profiles)
	r.Handle(&CreateSettingsMsg{}, NewCreateSettingsHandler(authn, resolver, engine))
	r.Handle(&ChangeSettingsMsg{}, NewChangeSettingsHandler(authn, resolver, engine))
}

// sessionAdmitter checks candidate proofs within the signer session of a
// call.
type sessionAdmitter struct {
	authn   x.Authenticator
	session *auth.Session
	target  vault.Address
}

func (a *sessionAdmitter) Cosigned(ctx vault.Context, key vault.MemberKey) bool {
	return a.authn.HasSigner(ctx, key)
}

func (a *sessionAdmitter) VerifyPasskey(ctx vault.Context, db vault.ReadOnlyKVStore, c *Candidate) error {
	if c.Assertion == nil {
		return errors.Wrapf(ErrProofOfPossession, "passkey %s requires an assertion", c.Key)
	}
	b := passkey.Binding{
		Action:      passkey.ActionAddNewMember,
		Target:      a.target,
		MessageHash: c.RecordHash(),
	}
	if _, err := a.session.Candidate(ctx, db, auth.PasskeyProof(c.Assertion), &c.Member, b); err != nil {
		return errors.Wrapf(err, "candidate %s", c.Key)
	}
	return nil
}

func delegateTags(fx *Effects) []common.KVPair {
	var tags []common.KVPair
	for _, k := range fx.Creates {
		tags = append(tags, common.KVPair{Key: []byte("delegate.open"), Value: []byte(k.String())})
	}
	for _, k := range fx.Closes {
		tags = append(tags, common.KVPair{Key: []byte("delegate.close"), Value: []byte(k.String())})
	}
	return tags
}

// CreateSettingsHandler creates a new vault. The settings index is taken
// from a sequence, so passkey candidates bind their assertions to the
// address returned by NextSettingsAddress.
type CreateSettingsHandler struct {
	authn    x.Authenticator
	resolver *auth.Resolver
	engine   *Engine
	bucket   settings.Bucket
	indexSeq orm.Sequence
}

var _ vault.Handler = CreateSettingsHandler{}

// NewCreateSettingsHandler returns a handler creating vaults.
func NewCreateSettingsHandler(authn x.Authenticator, resolver *auth.Resolver, engine *Engine) CreateSettingsHandler {
	return CreateSettingsHandler{
		authn:    authn,
		resolver: resolver,
		engine:   engine,
		bucket:   settings.NewBucket(),
		indexSeq: IndexSequence(),
	}
}

// IndexSequence is the counter settings indexes are taken from.
func IndexSequence() orm.Sequence {
	return orm.NewSequence("settings", "index")
}

// SettingsIndex returns the settings index for given sequence value.
func SettingsIndex(n int64) [settings.IndexLength]byte {
	var index [settings.IndexLength]byte
	binary.BigEndian.PutUint64(index[settings.IndexLength-8:], uint64(n))
	return index
}

// NextSettingsAddress returns the address the next created vault settings
// will be stored under.
func NextSettingsAddress(db vault.KVStore, program vault.Address) (vault.Address, error) {
	seq := IndexSequence()
	_, addr, _, err := nextSettings(db, seq, program)
	return addr, err
}

func nextSettings(db vault.KVStore, seq orm.Sequence, program vault.Address) ([settings.IndexLength]byte, vault.Address, uint8, error) {
	n, _, err := seq.Latest(db)
	if err != nil {
		return [settings.IndexLength]byte{}, vault.Address{}, 0, errors.Wrap(err, "settings index")
	}
	index := SettingsIndex(n + 1)
	addr, bump, err := settings.SettingsAddress(program, index)
	if err != nil {
		return index, addr, 0, errors.Wrap(err, "settings address")
	}
	return index, addr, bump, nil
}

func (h CreateSettingsHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{}, nil
}

func (h CreateSettingsHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	program := vault.GetProgramID(ctx)
	index, addr, recordBump, err := nextSettings(db, h.indexSeq, program)
	if err != nil {
		return nil, err
	}
	vaultAddr, vaultBump, err := settings.VaultAddress(program, addr, 0)
	if err != nil {
		return nil, errors.Wrap(err, "vault address")
	}

	s := &settings.Settings{
		Index:      index,
		VaultBump:  vaultBump,
		RecordBump: recordBump,
		TreeIndex:  msg.TreeIndex,
	}
	session := h.resolver.Session(s)
	admit := &sessionAdmitter{authn: h.authn, session: session, target: addr}
	fx, err := h.engine.Process(ctx, db, s, msg.actions(), admit)
	if err != nil {
		return nil, err
	}
	if len(fx.Closes) != 0 {
		return nil, errors.Wrap(errors.ErrState, "new vault cannot close delegates")
	}
	if err := h.engine.Apply(db, addr, fx); err != nil {
		return nil, err
	}
	session.Commit()
	if err := h.bucket.Create(db, addr[:], s); err != nil {
		return nil, err
	}
	if _, err := h.indexSeq.NextInt(db); err != nil {
		return nil, errors.Wrap(err, "settings index")
	}

	vault.GetLogger(ctx).Info("vault created",
		"settings", addr, "vault", vaultAddr, "members", len(s.Members), "threshold", s.Threshold)

	return &vault.DeliverResult{
		Data: addr[:],
		Tags: append([]common.KVPair{
			{Key: []byte("settings"), Value: []byte(addr.String())},
			{Key: []byte("vault"), Value: []byte(vaultAddr.String())},
		}, delegateTags(fx)...),
	}, nil
}

func (h CreateSettingsHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*CreateSettingsMsg, error) {
	var msg CreateSettingsMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if _, ok := x.MainSigner(ctx, h.authn); !ok {
		return nil, errors.Wrap(errors.ErrUnauthorized, "creator must sign")
	}
	return &msg, nil
}

// ChangeSettingsHandler applies a configuration change to an existing
// vault.
type ChangeSettingsHandler struct {
	authn    x.Authenticator
	resolver *auth.Resolver
	engine   *Engine
	bucket   settings.Bucket
}

var _ vault.Handler = ChangeSettingsHandler{}

// NewChangeSettingsHandler returns a handler changing vault settings.
func NewChangeSettingsHandler(authn x.Authenticator, resolver *auth.Resolver, engine *Engine) ChangeSettingsHandler {
	return ChangeSettingsHandler{
		authn:    authn,
		resolver: resolver,
		engine:   engine,
		bucket:   settings.NewBucket(),
	}
}

func (h ChangeSettingsHandler) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vault.CheckResult{}, nil
}

func (h ChangeSettingsHandler) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	msg, s, session, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	admit := &sessionAdmitter{authn: h.authn, session: session, target: msg.Settings}
	fx, err := h.engine.Process(ctx, db, s, msg.Actions, admit)
	if err != nil {
		return nil, err
	}
	if err := h.engine.Apply(db, msg.Settings, fx); err != nil {
		return nil, err
	}
	session.Commit()
	if err := h.bucket.Save(db, msg.Settings, s); err != nil {
		return nil, err
	}

	vault.GetLogger(ctx).Info("settings changed",
		"settings", msg.Settings, "actions", len(msg.Actions), "members", len(s.Members), "threshold", s.Threshold)

	return &vault.DeliverResult{Tags: delegateTags(fx)}, nil
}

// validate loads the message and the settings and authorizes the change
// against the settings as they are before the change.
func (h ChangeSettingsHandler) validate(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*ChangeSettingsMsg, *settings.Settings, *auth.Session, error) {
	var msg ChangeSettingsMsg
	if err := vault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	s, err := h.bucket.Load(db, msg.Settings)
	if err != nil {
		return nil, nil, nil, err
	}

	session := h.resolver.Session(s)
	b := passkey.Binding{
		Action:      passkey.ActionChangeSettings,
		Target:      msg.Settings,
		MessageHash: ActionsHash(msg.Actions),
	}
	members := make([]*settings.Member, 0, len(msg.Signers))
	for i, p := range msg.Signers {
		_, m, err := session.Member(ctx, db, p, b)
		if err != nil {
			return nil, nil, nil, errors.Wrapf(err, "signer %d", i)
		}
		members = append(members, m)
	}
	if err := authorizeChange(s, members); err != nil {
		return nil, nil, nil, err
	}
	return &msg, s, session, nil
}

// authorizeChange accepts a change approved by the administrator alone, or
// by signers that together can initiate, execute and reach the threshold.
func authorizeChange(s *settings.Settings, members []*settings.Member) error {
	var (
		initiate, execute bool
		keys              = make([]vault.MemberKey, 0, len(members))
	)
	for _, m := range members {
		if m.Role == settings.Administrator {
			return nil
		}
		initiate = initiate || m.Has(settings.Initiate)
		execute = execute || m.Has(settings.Execute)
		keys = append(keys, m.Key)
	}
	if !initiate {
		return errors.Wrap(settings.ErrInsufficientPermissions, "no signer can initiate")
	}
	if !execute {
		return errors.Wrap(settings.ErrInsufficientPermissions, "no signer can execute")
	}
	return s.RequireVotes(keys)
}
