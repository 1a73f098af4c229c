package vaulttest

import (
	"context"
	"time"

	"github.com/iov-one/vault"
)

// ChainID is used by all contexts created with NewContext.
const ChainID = "vault-test"

// NewContext returns a context with the block time set to now and a test
// chain id.
func NewContext(now time.Time) vault.Context {
	ctx := vault.WithBlockTime(context.Background(), now)
	return vault.WithChainID(ctx, ChainID)
}
