package main

import (
	"fmt"
	"os"

	"github.com/iov-one/vault"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "vaultcli",
		Usage: "Inspect vault addresses, passkey challenges and records",
		Commands: []*cli.Command{
			deriveCommand(),
			challengeCommand(),
			showCommand(),
			{
				Name:  "decode",
				Usage: "Decode a hex encoded record and print it as JSON",
				Subcommands: []*cli.Command{
					decodeCommand("settings", "Decode a settings record", decodeSettings),
					decodeCommand("buffer", "Decode a transaction buffer record", decodeBuffer),
					decodeCommand("domain", "Decode a passkey domain configuration", decodeDomain),
					decodeCommand("message", "Decode a vault transaction message", decodeMessage),
				},
			},
		},
	}
}

var programFlag = &cli.StringFlag{
	Name:  "program",
	Usage: "Base58 identity of the vault program",
}

// programID returns the program given on the command line, or the default
// one.
func programID(c *cli.Context) (vault.Address, error) {
	if s := c.String("program"); s != "" {
		return vault.ParseAddress(s)
	}
	return vault.DefaultProgramID, nil
}
