package gconf

import (
	"sort"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
)

// Initializer fulfils the Initializer interface to load package
// configurations from the genesis file. Each entry maps a package name to
// a constructor of an empty configuration of that package.
//
// A package without configuration in the genesis is skipped and uses its
// defaults.
type Initializer map[string]func() Configuration

var _ vault.Initializer = Initializer{}

// FromGenesis parses the "conf" section of the genesis file and saves each
// configuration found in the database.
func (i Initializer) FromGenesis(opts vault.Options, db vault.KVStore) error {
	pkgs := make([]string, 0, len(i))
	for pkg := range i {
		pkgs = append(pkgs, pkg)
	}
	sort.Strings(pkgs)

	for _, pkg := range pkgs {
		err := InitConfig(db, opts, pkg, i[pkg]())
		if err != nil && !errors.ErrNotFound.Is(err) {
			return errors.Wrapf(err, "package %q", pkg)
		}
	}
	return nil
}
