package reconfig

import (
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/x/auth"
	"github.com/iov-one/vault/x/settings"
)

const (
	pathCreateSettingsMsg = "vault/create_settings"
	pathChangeSettingsMsg = "vault/change_settings"
)

// CreateSettingsMsg creates a new vault.
type CreateSettingsMsg struct {
	Members   []Candidate
	Threshold uint8
	TreeIndex uint8
}

var _ vault.Msg = (*CreateSettingsMsg)(nil)

func (CreateSettingsMsg) Path() string {
	return pathCreateSettingsMsg
}

func (m *CreateSettingsMsg) Validate() error {
	add := AddMembers{Members: m.Members}
	if err := add.Validate(); err != nil {
		return errors.Field("Members", err, "invalid members")
	}
	if m.Threshold == 0 {
		return errors.Field("Threshold", settings.ErrInvalidThreshold, "must be at least 1")
	}
	return nil
}

// actions returns the batch building the initial settings.
func (m *CreateSettingsMsg) actions() []Action {
	return []Action{
		&AddMembers{Members: m.Members},
		&SetThreshold{Threshold: m.Threshold},
	}
}

// ChangeSettingsMsg applies a batch of actions to an existing vault.
type ChangeSettingsMsg struct {
	Settings vault.Address
	Actions  []Action
	// Signers are the members approving the change. Passkey signers must
	// be bound to the change settings action over ActionsHash.
	Signers []auth.Proof
}

var _ vault.Msg = (*ChangeSettingsMsg)(nil)

func (ChangeSettingsMsg) Path() string {
	return pathChangeSettingsMsg
}

func (m *ChangeSettingsMsg) Validate() error {
	var errs error
	if m.Settings.IsZero() {
		errs = errors.AppendField(errs, "Settings", errors.ErrEmpty)
	}
	errs = errors.AppendField(errs, "Actions", ValidateActions(m.Actions))
	if len(m.Signers) == 0 {
		errs = errors.AppendField(errs, "Signers", errors.ErrEmpty)
	}
	for i, p := range m.Signers {
		if _, ok := p.Key(); !ok {
			errs = errors.Append(errs, errors.Field("Signers", errors.ErrEmpty, "signer %d has no proof", i))
		}
	}
	return errs
}
