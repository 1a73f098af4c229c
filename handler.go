package vault

import (
	"encoding/json"

	"github.com/iov-one/vault/errors"
	"github.com/tendermint/tendermint/libs/common"
)

// Handler is a core engine that can process a few specific messages.
// This could represent "stage a transaction" or "vote on a buffer".
type Handler interface {
	Checker
	Deliverer
}

// Checker is a subset of Handler to verify the validity of a call without
// modifying the state.
type Checker interface {
	Check(ctx Context, store KVStore, tx Tx) (*CheckResult, error)
}

// Deliverer is a subset of Handler to execute a call.
type Deliverer interface {
	Deliver(ctx Context, store KVStore, tx Tx) (*DeliverResult, error)
}

// Decorator wraps a Handler to provide common functionality
// like authentication or logging, to many Handlers
type Decorator interface {
	Check(ctx Context, store KVStore, tx Tx, next Checker) (*CheckResult, error)
	Deliver(ctx Context, store KVStore, tx Tx, next Deliverer) (*DeliverResult, error)
}

// Registry is an interface to register your handler,
// the setup side of a Router
type Registry interface {
	Handle(m Msg, h Handler)
}

// CheckResult captures any non-error information we want to send back to
// the caller of a check.
type CheckResult struct {
	// Data is a machine-parseable return value
	Data []byte
	// Log is human-readable informational string
	Log string
}

// DeliverResult captures any non-error information we want to send back to
// the caller of a call.
type DeliverResult struct {
	// Data is a machine-parseable return value, like id of created entity
	Data []byte
	// Log is human-readable informational string
	Log string
	// Tags are used to report state changes, such as closed records and
	// the account refunded for them.
	Tags []common.KVPair
}

// Options are the app options
// Each extension can look up it's key and parse the json as desired
type Options map[string]json.RawMessage

// ReadOptions reads the values stored under a given key,
// and parses the json into the given obj.
// Returns an error if it cannot parse.
// Noop and no error if key is missing
func (o Options) ReadOptions(key string, obj interface{}) error {
	msg := o[key]
	if len(msg) == 0 {
		return nil
	}
	if err := json.Unmarshal(msg, obj); err != nil {
		return errors.Wrapf(errors.ErrInput, "options %q: %s", key, err)
	}
	return nil
}

// Initializer implementations are used to initialize
// extensions from genesis file contents
type Initializer interface {
	FromGenesis(Options, KVStore) error
}

// GenesisInitializers is a list of initializers that are run one after
// another.
type GenesisInitializers []Initializer

// FromGenesis runs all initializers in order and stops on the first failure.
func (g GenesisInitializers) FromGenesis(opts Options, kv KVStore) error {
	for _, i := range g {
		if err := i.FromGenesis(opts, kv); err != nil {
			return err
		}
	}
	return nil
}
