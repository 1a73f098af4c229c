package app

import (
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/x/auth"
	"github.com/iov-one/vault/x/exec"
	"github.com/iov-one/vault/x/freshness"
	"github.com/iov-one/vault/x/passkey"
	"github.com/iov-one/vault/x/reconfig"
	"github.com/iov-one/vault/x/sigs"
	"github.com/iov-one/vault/x/txbuffer"
	"github.com/iov-one/vault/x/utils"
)

// Vault processes vault calls. The host feeds recent ledger hashes into
// its freshness registry so that passkey assertions can reference them.
type Vault struct {
	vault.Handler
	router *Router
	hashes *freshness.Registry
}

// NewVault returns the full call stack. Buffered transactions are executed
// through invoker. Profiles admits transaction managers and may be nil.
func NewVault(invoker exec.Invoker, profiles reconfig.ProfileRegistry) *Vault {
	authn := sigs.Authenticate{}
	hashes := freshness.NewRegistry()
	resolver := auth.NewResolver(authn, passkey.NewVerifier(hashes))

	r := NewRouter()
	reconfig.RegisterRoutes(r, authn, resolver, profiles)
	txbuffer.RegisterRoutes(r, authn, resolver, invoker)

	h := ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		sigs.NewDecorator(),
		utils.NewSavepoint().OnCheck().OnDeliver(),
	).WithHandler(r)
	return &Vault{Handler: h, router: r, hashes: hashes}
}

// Paths returns the message paths the vault handles.
func (v *Vault) Paths() []string {
	return v.router.Paths()
}

// RecordHash makes a ledger hash available as a freshness token under given
// reference. References must strictly increase.
func (v *Vault) RecordHash(db vault.KVStore, reference uint64, hash [32]byte) error {
	return v.hashes.Record(db, reference, hash)
}

// FromGenesis stores the package configurations found in the genesis file.
func (v *Vault) FromGenesis(opts vault.Options, db vault.KVStore) error {
	return vault.GenesisInitializers{
		freshness.Initializer{},
		txbuffer.Initializer{},
	}.FromGenesis(opts, db)
}
