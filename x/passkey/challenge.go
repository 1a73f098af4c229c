package passkey

import (
	"crypto/sha256"

	"github.com/iov-one/vault"
)

// Action names the operation an assertion authorizes. It is the first
// component of every expected challenge, so an assertion made for one action
// can never be used for another.
type Action string

const (
	ActionCreate                           Action = "create"
	ActionCreateWithPreauthorizedExecution Action = "create_with_preauthorized_execution"
	ActionVote                             Action = "vote"
	ActionExecute                          Action = "execute"
	ActionClose                            Action = "close"
	ActionAddNewMember                     Action = "add_new_member"
	ActionChangeSettings                   Action = "change_settings"
)

// Binding is what a single assertion is bound to besides the freshness
// token: one action on one target record with one payload.
type Binding struct {
	Action      Action
	Target      vault.Address
	MessageHash [32]byte
}

// Challenge computes the expected WebAuthn challenge.
func Challenge(b Binding, recentHash, clientDeviceHash [32]byte) [32]byte {
	h := sha256.New()
	_, _ = h.Write([]byte(b.Action))
	_, _ = h.Write(b.Target[:])
	_, _ = h.Write(b.MessageHash[:])
	_, _ = h.Write(recentHash[:])
	_, _ = h.Write(clientDeviceHash[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
