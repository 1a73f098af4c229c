package reconfig

import (
	"crypto/sha256"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/x/passkey"
	"github.com/iov-one/vault/x/settings"
)

// Action is a single step of a configuration change.
type Action interface {
	// Validate checks the action in isolation.
	Validate() error

	tag() byte
	appendTo(dst []byte) []byte
	apply(ctx vault.Context, db vault.ReadOnlyKVStore, b *batch) error
}

const (
	tagAddMembers      = 1
	tagRemoveMembers   = 2
	tagEditPermissions = 3
	tagSetThreshold    = 4
)

// Candidate is a member to be added together with the proof its key
// presents.
type Candidate struct {
	settings.Member
	// Assertion is required for passkey keys. It must be bound to the
	// add new member action over the hash of the member record.
	Assertion *passkey.Assertion
}

// RecordHash returns the hash a passkey candidate assertion is bound to.
func (c *Candidate) RecordHash() [32]byte {
	raw, _ := c.Member.Marshal()
	return sha256.Sum256(raw)
}

// Validate checks the member and that a passkey key carries an assertion.
func (c *Candidate) Validate() error {
	if err := c.Member.Validate(); err != nil {
		return err
	}
	if c.Key.IsPasskey() {
		if c.Assertion == nil {
			return errors.Wrapf(ErrProofOfPossession, "passkey %s requires an assertion", c.Key)
		}
		if !c.Assertion.Key.Equals(c.Key) {
			return errors.Wrapf(ErrProofOfPossession, "assertion made by %s", c.Assertion.Key)
		}
	}
	return nil
}

// AddMembers admits new members.
type AddMembers struct {
	Members []Candidate
}

func (a *AddMembers) Validate() error {
	switch n := len(a.Members); {
	case n == 0:
		return errors.Wrap(errors.ErrEmpty, "no members to add")
	case n > settings.MaxMembers:
		return errors.Wrapf(settings.ErrMemberCount, "%d members to add", n)
	}
	for i := range a.Members {
		if err := a.Members[i].Validate(); err != nil {
			return errors.Wrapf(err, "member %d", i)
		}
	}
	return nil
}

func (*AddMembers) tag() byte { return tagAddMembers }

func (a *AddMembers) appendTo(dst []byte) []byte {
	dst = append(dst, byte(len(a.Members)))
	for i := range a.Members {
		raw, _ := a.Members[i].Member.Marshal()
		dst = append(dst, raw...)
	}
	return dst
}

// RemoveMembers removes existing members.
type RemoveMembers struct {
	Keys []vault.MemberKey
}

func (a *RemoveMembers) Validate() error {
	switch n := len(a.Keys); {
	case n == 0:
		return errors.Wrap(errors.ErrEmpty, "no members to remove")
	case n > settings.MaxMembers:
		return errors.Wrapf(settings.ErrMemberCount, "%d members to remove", n)
	}
	return nil
}

func (*RemoveMembers) tag() byte { return tagRemoveMembers }

func (a *RemoveMembers) appendTo(dst []byte) []byte {
	dst = append(dst, byte(len(a.Keys)))
	for _, k := range a.Keys {
		dst = k.AppendFixed(dst)
	}
	return dst
}

// EditPermissions replaces permissions of existing members.
type EditPermissions struct {
	Edits []settings.PermissionEdit
}

func (a *EditPermissions) Validate() error {
	switch n := len(a.Edits); {
	case n == 0:
		return errors.Wrap(errors.ErrEmpty, "no edits")
	case n > settings.MaxMembers:
		return errors.Wrapf(settings.ErrMemberCount, "%d edits", n)
	}
	for _, e := range a.Edits {
		if err := e.Permissions.Validate(); err != nil {
			return errors.Wrapf(err, "member %s", e.Key)
		}
	}
	return nil
}

func (*EditPermissions) tag() byte { return tagEditPermissions }

func (a *EditPermissions) appendTo(dst []byte) []byte {
	dst = append(dst, byte(len(a.Edits)))
	for _, e := range a.Edits {
		dst = e.Key.AppendFixed(dst)
		dst = append(dst, byte(e.Permissions))
	}
	return dst
}

// SetThreshold replaces the threshold.
type SetThreshold struct {
	Threshold uint8
}

func (a *SetThreshold) Validate() error {
	if a.Threshold == 0 {
		return errors.Wrap(settings.ErrInvalidThreshold, "threshold must be at least 1")
	}
	return nil
}

func (*SetThreshold) tag() byte { return tagSetThreshold }

func (a *SetThreshold) appendTo(dst []byte) []byte {
	return append(dst, a.Threshold)
}

// ValidateActions checks a batch.
func ValidateActions(actions []Action) error {
	if len(actions) == 0 {
		return errors.Wrap(ErrNoActions, "empty batch")
	}
	if len(actions) > 0xFF {
		return errors.Wrapf(errors.ErrInput, "%d actions", len(actions))
	}
	for i, a := range actions {
		if a == nil {
			return errors.Wrapf(ErrUnknownAction, "action %d", i)
		}
		if err := a.Validate(); err != nil {
			return errors.Wrapf(err, "action %d", i)
		}
	}
	return nil
}

// EncodeActions returns the deterministic binary form of a batch: the
// action count followed by each action tag and body. Assertions of
// candidates are proofs and are not part of it.
func EncodeActions(actions []Action) []byte {
	raw := []byte{byte(len(actions))}
	for _, a := range actions {
		raw = append(raw, a.tag())
		raw = a.appendTo(raw)
	}
	return raw
}

// ActionsHash is the message hash a passkey assertion approving a batch is
// bound to.
func ActionsHash(actions []Action) [32]byte {
	return sha256.Sum256(EncodeActions(actions))
}
