package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/x/reconfig"
	"github.com/iov-one/vault/x/settings"
	"github.com/iov-one/vault/x/txbuffer"
	"github.com/urfave/cli/v2"
)

// Settings addresses are created from a sequence counter, so they are
// deterministic and can be computed before the vault exists.
func deriveCommand() *cli.Command {
	return &cli.Command{
		Name:  "derive",
		Usage: "Print derived settings, vault and buffer addresses",
		Flags: []cli.Flag{
			programFlag,
			&cli.Int64Flag{Name: "offset", Value: 1, Usage: "First settings sequence value"},
			&cli.IntFlag{Name: "limit", Value: 10, Usage: "Number of settings to print"},
			&cli.UintFlag{Name: "vault-index", Value: 0, Usage: "Vault index within the settings"},
			&cli.StringFlag{Name: "creator", Usage: "Buffer creator as <kind>:<base58>; prints buffer addresses when set"},
			&cli.UintFlag{Name: "buffer-index", Value: 0, Usage: "Buffer index of the creator"},
			&cli.BoolFlag{Name: "header", Value: true, Usage: "Display header"},
		},
		Action: derive,
	}
}

func derive(c *cli.Context) error {
	program, err := programID(c)
	if err != nil {
		return err
	}
	offset, limit := c.Int64("offset"), c.Int("limit")
	if offset < 1 {
		return fmt.Errorf("offset must be greater than zero")
	}
	if limit < 1 {
		return fmt.Errorf("limit must be greater than zero")
	}
	vaultIndex := c.Uint("vault-index")
	bufferIndex := c.Uint("buffer-index")
	if vaultIndex > 255 || bufferIndex > 255 {
		return fmt.Errorf("indexes must fit a byte")
	}
	var creator vault.MemberKey
	if s := c.String("creator"); s != "" {
		if creator, err = vault.ParseMemberKey(s); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	if c.Bool("header") {
		if creator.IsZero() {
			fmt.Fprintln(w, "SEQUENCE\tSETTINGS\tVAULT")
		} else {
			fmt.Fprintln(w, "SEQUENCE\tSETTINGS\tVAULT\tBUFFER")
		}
	}
	for n := offset; n < offset+int64(limit); n++ {
		settingsAddr, _, err := settings.SettingsAddress(program, reconfig.SettingsIndex(n))
		if err != nil {
			return err
		}
		vaultAddr, _, err := settings.VaultAddress(program, settingsAddr, uint8(vaultIndex))
		if err != nil {
			return err
		}
		if creator.IsZero() {
			fmt.Fprintf(w, "%d\t%s\t%s\n", n, settingsAddr, vaultAddr)
			continue
		}
		bufferAddr, _, err := txbuffer.BufferAddress(program, settingsAddr, creator, uint8(bufferIndex))
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", n, settingsAddr, vaultAddr, bufferAddr)
	}
	return w.Flush()
}
