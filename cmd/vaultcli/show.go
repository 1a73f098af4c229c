package main

import (
	"fmt"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/store/badgerdb"
	"github.com/iov-one/vault/x/passkey"
	"github.com/iov-one/vault/x/settings"
	"github.com/iov-one/vault/x/txbuffer"
	"github.com/tendermint/tendermint/libs/log"
	"github.com/urfave/cli/v2"
)

// loader reads the record stored under an address.
type loader func(db vault.ReadOnlyKVStore, addr vault.Address) (interface{}, error)

func showCommand() *cli.Command {
	dbFlag := &cli.StringFlag{
		Name:     "db",
		Required: true,
		EnvVars:  []string{"VAULT_DB"},
		Usage:    "Directory of the badger record store",
	}
	sub := func(name, usage string, fn loader) *cli.Command {
		return &cli.Command{
			Name:      name,
			Usage:     usage,
			ArgsUsage: "<base58 address>",
			Flags:     []cli.Flag{dbFlag},
			Action: func(c *cli.Context) error {
				if c.NArg() != 1 {
					return fmt.Errorf("exactly one address is required")
				}
				addr, err := vault.ParseAddress(c.Args().First())
				if err != nil {
					return err
				}
				db, err := badgerdb.Open(c.String("db"), log.NewNopLogger())
				if err != nil {
					return err
				}
				defer db.Close()
				v, err := fn(db, addr)
				if err != nil {
					return err
				}
				return printJSON(c, v)
			},
		}
	}
	return &cli.Command{
		Name:  "show",
		Usage: "Print a record of a badger record store as JSON",
		Subcommands: []*cli.Command{
			sub("settings", "Show vault settings", func(db vault.ReadOnlyKVStore, addr vault.Address) (interface{}, error) {
				s, err := settings.NewBucket().Load(db, addr)
				if err != nil {
					return nil, err
				}
				return settingsOf(s), nil
			}),
			sub("buffer", "Show a transaction buffer", func(db vault.ReadOnlyKVStore, addr vault.Address) (interface{}, error) {
				b, err := txbuffer.NewBucket().Load(db, addr)
				if err != nil {
					return nil, err
				}
				return bufferOf(b), nil
			}),
			sub("domain", "Show a passkey domain configuration", func(db vault.ReadOnlyKVStore, addr vault.Address) (interface{}, error) {
				d, err := passkey.NewDomainBucket().Load(db, addr)
				if err != nil {
					return nil, err
				}
				return domainOf(d), nil
			}),
		},
	}
}
