package freshness

import (
	"encoding/json"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/gconf"
)

// PackageName is the configuration key of this package.
const PackageName = "freshness"

// DefaultMaxAge is the number of references a hash remains usable for.
const DefaultMaxAge = 150

// Configuration of the freshness registry.
type Configuration struct {
	// MaxAge is how far behind the latest reference a reference can be
	// and still be accepted.
	MaxAge uint64 `json:"max_age"`
}

var _ gconf.Configuration = (*Configuration)(nil)

func (c *Configuration) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

func (c *Configuration) Unmarshal(raw []byte) error {
	return json.Unmarshal(raw, c)
}

func (c *Configuration) Validate() error {
	if c.MaxAge == 0 {
		return errors.Field("MaxAge", errors.ErrInput, "must be greater than zero")
	}
	return nil
}

// loadConf returns the stored configuration or the defaults.
func loadConf(db gconf.ReadStore) (Configuration, error) {
	conf := Configuration{MaxAge: DefaultMaxAge}
	if err := gconf.LoadOrDefault(db, PackageName, &conf); err != nil {
		return conf, errors.Wrap(err, "load configuration")
	}
	return conf, nil
}

// Initializer stores the configuration found in the genesis file.
type Initializer struct{}

var _ vault.Initializer = Initializer{}

// FromGenesis reads conf.freshness. Without it the default age applies.
func (Initializer) FromGenesis(opts vault.Options, db vault.KVStore) error {
	conf := Configuration{MaxAge: DefaultMaxAge}
	err := gconf.InitConfig(db, opts, PackageName, &conf)
	if errors.ErrNotFound.Is(err) {
		return nil
	}
	return err
}
