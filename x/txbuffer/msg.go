package txbuffer

import (
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/x/auth"
	"github.com/iov-one/vault/x/exec"
)

const (
	pathCreateBufferMsg    = "vault/create_buffer"
	pathExtendBufferMsg    = "vault/extend_buffer"
	pathVoteBufferMsg      = "vault/vote_buffer"
	pathAuthorizeBufferMsg = "vault/authorize_buffer"
	pathCloseBufferMsg     = "vault/close_buffer"
	pathExecuteBufferMsg   = "vault/execute_buffer"
)

// CreateBufferMsg stages a new transaction. The payer is the main signer of
// the call.
type CreateBufferMsg struct {
	Settings    vault.Address
	BufferIndex uint8
	FinalHash   [HashSize]byte
	FinalSize   uint16
	// ChunkHashes commit to the chunks the payload is appended in.
	ChunkHashes [][HashSize]byte
	// Preauthorize lets the buffer execute once enough votes are
	// collected, without a separate executor approval. The creator must
	// hold the execute permission.
	Preauthorize bool
	// Creator proof. A passkey creator binds its assertion to the create
	// action over FinalHash, targeting the buffer address.
	Creator auth.Proof
}

var _ vault.Msg = (*CreateBufferMsg)(nil)

func (CreateBufferMsg) Path() string {
	return pathCreateBufferMsg
}

func (m *CreateBufferMsg) Validate() error {
	var errs error
	if m.Settings.IsZero() {
		errs = errors.AppendField(errs, "Settings", errors.ErrEmpty)
	}
	if m.FinalSize == 0 {
		errs = errors.AppendField(errs, "FinalSize", ErrBufferSize)
	}
	if m.FinalHash == [HashSize]byte{} {
		errs = errors.AppendField(errs, "FinalHash", errors.ErrEmpty)
	}
	switch n := len(m.ChunkHashes); {
	case n == 0:
		errs = errors.AppendField(errs, "ChunkHashes", errors.ErrEmpty)
	case n > int(m.FinalSize):
		errs = errors.Append(errs, errors.Field("ChunkHashes", ErrBufferSize, "%d chunks for %d bytes", n, m.FinalSize))
	}
	if _, ok := m.Creator.Key(); !ok {
		errs = errors.AppendField(errs, "Creator", errors.ErrEmpty)
	}
	return errs
}

// ExtendBufferMsg appends the next chunk to a buffer.
type ExtendBufferMsg struct {
	Buffer vault.Address
	Chunk  []byte
}

var _ vault.Msg = (*ExtendBufferMsg)(nil)

func (ExtendBufferMsg) Path() string {
	return pathExtendBufferMsg
}

func (m *ExtendBufferMsg) Validate() error {
	var errs error
	if m.Buffer.IsZero() {
		errs = errors.AppendField(errs, "Buffer", errors.ErrEmpty)
	}
	if len(m.Chunk) == 0 {
		errs = errors.AppendField(errs, "Chunk", errors.ErrEmpty)
	}
	return errs
}

// VoteBufferMsg approves a buffered transaction.
type VoteBufferMsg struct {
	Buffer vault.Address
	Voter  auth.Proof
}

var _ vault.Msg = (*VoteBufferMsg)(nil)

func (VoteBufferMsg) Path() string {
	return pathVoteBufferMsg
}

func (m *VoteBufferMsg) Validate() error {
	var errs error
	if m.Buffer.IsZero() {
		errs = errors.AppendField(errs, "Buffer", errors.ErrEmpty)
	}
	if _, ok := m.Voter.Key(); !ok {
		errs = errors.AppendField(errs, "Voter", errors.ErrEmpty)
	}
	return errs
}

// AuthorizeBufferMsg allows a fully buffered transaction to execute.
type AuthorizeBufferMsg struct {
	Buffer vault.Address
	// Executor is required unless the buffer was preauthorized.
	Executor *auth.Proof
}

var _ vault.Msg = (*AuthorizeBufferMsg)(nil)

func (AuthorizeBufferMsg) Path() string {
	return pathAuthorizeBufferMsg
}

func (m *AuthorizeBufferMsg) Validate() error {
	var errs error
	if m.Buffer.IsZero() {
		errs = errors.AppendField(errs, "Buffer", errors.ErrEmpty)
	}
	if m.Executor != nil {
		if _, ok := m.Executor.Key(); !ok {
			errs = errors.AppendField(errs, "Executor", errors.ErrEmpty)
		}
	}
	return errs
}

// CloseBufferMsg removes a buffer. Before expiry only the creator can
// close it. After expiry the payer can, by signing the call without a
// closer proof.
type CloseBufferMsg struct {
	Buffer vault.Address
	Closer *auth.Proof
}

var _ vault.Msg = (*CloseBufferMsg)(nil)

func (CloseBufferMsg) Path() string {
	return pathCloseBufferMsg
}

func (m *CloseBufferMsg) Validate() error {
	var errs error
	if m.Buffer.IsZero() {
		errs = errors.AppendField(errs, "Buffer", errors.ErrEmpty)
	}
	if m.Closer != nil {
		if _, ok := m.Closer.Key(); !ok {
			errs = errors.AppendField(errs, "Closer", errors.ErrEmpty)
		}
	}
	return errs
}

// ExecuteBufferMsg executes an authorized buffer.
type ExecuteBufferMsg struct {
	Buffer vault.Address
	// Accounts are the accounts the buffered message uses, static keys
	// first and then those loaded through lookup tables.
	Accounts []exec.AccountInfo
	// LookupTables are the tables of the message lookups, in order.
	LookupTables []exec.AccountInfo
}

var _ vault.Msg = (*ExecuteBufferMsg)(nil)

func (ExecuteBufferMsg) Path() string {
	return pathExecuteBufferMsg
}

func (m *ExecuteBufferMsg) Validate() error {
	if m.Buffer.IsZero() {
		return errors.Field("Buffer", errors.ErrEmpty, "required")
	}
	return nil
}
