package txbuffer

import "github.com/iov-one/vault/errors"

// x/txbuffer reserves 150 ~ 169.
var (
	ErrNoChunks          = errors.Register(errors.Validation, 150, "no pending chunks")
	ErrChunkHash         = errors.Register(errors.Validation, 151, "chunk hash mismatch")
	ErrBufferSize        = errors.Register(errors.Validation, 152, "invalid buffer size")
	ErrFinalHash         = errors.Register(errors.Validation, 153, "final hash mismatch")
	ErrNotBuffered       = errors.Register(errors.Validation, 154, "payload not fully buffered")
	ErrNotAuthorized     = errors.Register(errors.Authorization, 155, "execution not authorized")
	ErrAlreadyAuthorized = errors.Register(errors.Validation, 156, "execution already authorized")
	ErrNotExpired        = errors.Register(errors.Freshness, 157, "buffer not expired")
	ErrNotCreator        = errors.Register(errors.Authorization, 158, "not the buffer creator")
)
