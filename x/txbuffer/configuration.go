package txbuffer

import (
	"encoding/json"
	"time"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/gconf"
)

// PackageName is the configuration key of this package.
const PackageName = "txbuffer"

const (
	// DefaultBufferLifetime is how long a buffer stays usable after
	// creation.
	DefaultBufferLifetime = 3 * time.Minute

	// DefaultMaxBufferSize is the largest payload a buffer accepts.
	DefaultMaxBufferSize = 10128
)

// Configuration of the transaction buffer.
type Configuration struct {
	// BufferLifetime is in seconds.
	BufferLifetime uint32 `json:"buffer_lifetime"`
	MaxBufferSize  uint16 `json:"max_buffer_size"`
}

var _ gconf.Configuration = (*Configuration)(nil)

// DefaultConfiguration returns the configuration used when none was
// stored.
func DefaultConfiguration() Configuration {
	return Configuration{
		BufferLifetime: uint32(DefaultBufferLifetime / time.Second),
		MaxBufferSize:  DefaultMaxBufferSize,
	}
}

func (c *Configuration) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

func (c *Configuration) Unmarshal(raw []byte) error {
	return json.Unmarshal(raw, c)
}

func (c *Configuration) Validate() error {
	var errs error
	if c.BufferLifetime == 0 {
		errs = errors.Append(errs, errors.Field("BufferLifetime", errors.ErrInput, "must be greater than zero"))
	}
	if c.MaxBufferSize == 0 {
		errs = errors.Append(errs, errors.Field("MaxBufferSize", errors.ErrInput, "must be greater than zero"))
	}
	return errs
}

// Lifetime returns the buffer lifetime as a duration.
func (c Configuration) Lifetime() time.Duration {
	return time.Duration(c.BufferLifetime) * time.Second
}

func loadConf(db gconf.ReadStore) (Configuration, error) {
	conf := DefaultConfiguration()
	if err := gconf.LoadOrDefault(db, PackageName, &conf); err != nil {
		return conf, errors.Wrap(err, "load configuration")
	}
	return conf, nil
}

// Initializer stores the configuration found in the genesis file.
type Initializer struct{}

var _ vault.Initializer = Initializer{}

// FromGenesis reads conf.txbuffer. Values it does not set keep their
// defaults.
func (Initializer) FromGenesis(opts vault.Options, db vault.KVStore) error {
	conf := DefaultConfiguration()
	err := gconf.InitConfig(db, opts, PackageName, &conf)
	if errors.ErrNotFound.Is(err) {
		return nil
	}
	return err
}
