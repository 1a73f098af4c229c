package reconfig

import (
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/x/settings"
)

// ProfileRegistry tells which keys belong to a registered external service
// and may act as a transaction manager.
type ProfileRegistry interface {
	HasProfile(db vault.ReadOnlyKVStore, key vault.MemberKey) (bool, error)
}

// Admitter checks the proofs candidates present.
type Admitter interface {
	// Cosigned returns true if given direct key signed the call.
	Cosigned(ctx vault.Context, key vault.MemberKey) bool
	// VerifyPasskey verifies the assertion of a passkey candidate.
	VerifyPasskey(ctx vault.Context, db vault.ReadOnlyKVStore, c *Candidate) error
}

// Op is a pending delegate record operation.
type Op uint8

const (
	NoOp Op = iota
	CreateDelegate
	CloseDelegate
)

// effectSet folds delegate record operations per key. The last operation
// wins, except that a create and a close of the same key cancel out.
type effectSet struct {
	order []vault.MemberKey
	ops   map[vault.MemberKey]Op
}

func newEffectSet() *effectSet {
	return &effectSet{ops: make(map[vault.MemberKey]Op)}
}

func (e *effectSet) set(key vault.MemberKey, op Op) {
	prev, seen := e.ops[key]
	if !seen {
		e.order = append(e.order, key)
	}
	if prev != NoOp && prev != op {
		e.ops[key] = NoOp
		return
	}
	e.ops[key] = op
}

func (e *effectSet) effects() *Effects {
	var fx Effects
	for _, k := range e.order {
		switch e.ops[k] {
		case CreateDelegate:
			fx.Creates = append(fx.Creates, k)
		case CloseDelegate:
			fx.Closes = append(fx.Closes, k)
		}
	}
	return &fx
}

// Effects are the delegate records a batch creates and closes.
type Effects struct {
	Creates []vault.MemberKey
	Closes  []vault.MemberKey
}

// Empty returns true if there is nothing to write.
func (fx *Effects) Empty() bool {
	return len(fx.Creates) == 0 && len(fx.Closes) == 0
}

type batch struct {
	engine   *Engine
	settings *settings.Settings
	admit    Admitter
	effects  *effectSet
}

// Engine applies configuration changes.
type Engine struct {
	profiles  ProfileRegistry
	delegates settings.DelegateBucket
}

// NewEngine returns an engine consulting given registry when admitting
// transaction managers. A nil registry admits none.
func NewEngine(profiles ProfileRegistry) *Engine {
	return &Engine{
		profiles:  profiles,
		delegates: settings.NewDelegateBucket(),
	}
}

// Process applies actions in order to given settings and returns the net
// delegate record side effects. Settings are validated once, after the last
// action. On error the settings must be discarded.
func (e *Engine) Process(ctx vault.Context, db vault.ReadOnlyKVStore, s *settings.Settings, actions []Action, admit Admitter) (*Effects, error) {
	if err := ValidateActions(actions); err != nil {
		return nil, err
	}
	b := &batch{engine: e, settings: s, admit: admit, effects: newEffectSet()}
	for i, a := range actions {
		if err := a.apply(ctx, db, b); err != nil {
			return nil, errors.Wrapf(err, "action %d", i)
		}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return b.effects.effects(), nil
}

// Apply writes the delegate records of given effects for the settings at
// given address. Every record is checked before any is written.
func (e *Engine) Apply(db vault.KVStore, settingsAddr vault.Address, fx *Effects) error {
	for _, k := range fx.Creates {
		if err := e.delegates.IsFree(db, k); err != nil {
			return err
		}
	}
	for _, k := range fx.Closes {
		d, err := e.delegates.DelegateOf(db, k)
		if err != nil {
			return err
		}
		if !d.Settings.Equals(settingsAddr) {
			return errors.Wrapf(settings.ErrDelegate, "%s is a delegate of %s", k, d.Settings)
		}
	}

	for _, k := range fx.Creates {
		if err := e.delegates.Open(db, k, settingsAddr); err != nil {
			return err
		}
	}
	for _, k := range fx.Closes {
		if err := e.delegates.Close(db, k, settingsAddr); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) admit(ctx vault.Context, db vault.ReadOnlyKVStore, c *Candidate, a Admitter) error {
	m := &c.Member
	switch m.Role {
	case settings.PermanentMember:
		if !m.IsDelegate {
			return errors.Wrapf(settings.ErrPermanentMember, "%s must be a delegate", m.Key)
		}
	case settings.TransactionManager:
		if m.Permissions != settings.Initiate || !m.Key.IsDirect() || m.IsDelegate {
			return errors.Wrapf(settings.ErrTransactionManager, "%s must be a direct key with initiate only", m.Key)
		}
		if e.profiles == nil {
			return errors.Wrapf(ErrProfileNotFound, "%s", m.Key)
		}
		ok, err := e.profiles.HasProfile(db, m.Key)
		if err != nil {
			return errors.Wrap(err, "profile registry")
		}
		if !ok {
			return errors.Wrapf(ErrProfileNotFound, "%s", m.Key)
		}
	}

	switch {
	case m.Key.IsPasskey():
		if err := a.VerifyPasskey(ctx, db, c); err != nil {
			return err
		}
	case m.IsDelegate:
		if !a.Cosigned(ctx, m.Key) {
			return errors.Wrapf(ErrProofOfPossession, "delegate %s must sign", m.Key)
		}
	}
	return nil
}

func (a *AddMembers) apply(ctx vault.Context, db vault.ReadOnlyKVStore, b *batch) error {
	for i := range a.Members {
		c := &a.Members[i]
		if err := b.engine.admit(ctx, db, c, b.admit); err != nil {
			return err
		}
		if err := b.settings.AddMembers(c.Member); err != nil {
			return err
		}
		if c.IsDelegate {
			b.effects.set(c.Key, CreateDelegate)
		}
	}
	return nil
}

func (a *RemoveMembers) apply(_ vault.Context, _ vault.ReadOnlyKVStore, b *batch) error {
	removed, err := b.settings.RemoveMembers(a.Keys...)
	if err != nil {
		return err
	}
	for _, m := range removed {
		if m.IsDelegate {
			b.effects.set(m.Key, CloseDelegate)
		}
	}
	return nil
}

func (a *EditPermissions) apply(_ vault.Context, _ vault.ReadOnlyKVStore, b *batch) error {
	return b.settings.EditPermissions(a.Edits...)
}

func (a *SetThreshold) apply(_ vault.Context, _ vault.ReadOnlyKVStore, b *batch) error {
	b.settings.SetThreshold(a.Threshold)
	return nil
}
