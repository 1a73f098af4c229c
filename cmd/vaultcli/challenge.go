package main

import (
	"encoding/base64"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/x/passkey"
	"github.com/urfave/cli/v2"
)

var actions = map[string]passkey.Action{
	string(passkey.ActionCreate):                           passkey.ActionCreate,
	string(passkey.ActionCreateWithPreauthorizedExecution): passkey.ActionCreateWithPreauthorizedExecution,
	string(passkey.ActionVote):                             passkey.ActionVote,
	string(passkey.ActionExecute):                          passkey.ActionExecute,
	string(passkey.ActionClose):                            passkey.ActionClose,
	string(passkey.ActionAddNewMember):                     passkey.ActionAddNewMember,
	string(passkey.ActionChangeSettings):                   passkey.ActionChangeSettings,
}

func challengeCommand() *cli.Command {
	return &cli.Command{
		Name:  "challenge",
		Usage: "Compute the WebAuthn challenge a passkey must sign",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "action", Required: true, Usage: "Action the assertion authorizes"},
			&cli.StringFlag{Name: "target", Required: true, Usage: "Base58 address of the target record"},
			&cli.StringFlag{Name: "message-hash", Required: true, Usage: "0x prefixed hash of the bound payload"},
			&cli.StringFlag{Name: "recent-hash", Required: true, Usage: "0x prefixed recent ledger hash"},
			&cli.StringFlag{Name: "device-hash", Required: true, Usage: "0x prefixed client device hash"},
		},
		Action: challenge,
	}
}

func challenge(c *cli.Context) error {
	action, ok := actions[c.String("action")]
	if !ok {
		return fmt.Errorf("unknown action %q", c.String("action"))
	}
	target, err := vault.ParseAddress(c.String("target"))
	if err != nil {
		return err
	}
	b := passkey.Binding{Action: action, Target: target}
	if b.MessageHash, err = hash32(c, "message-hash"); err != nil {
		return err
	}
	recent, err := hash32(c, "recent-hash")
	if err != nil {
		return err
	}
	device, err := hash32(c, "device-hash")
	if err != nil {
		return err
	}

	ch := passkey.Challenge(b, recent, device)
	fmt.Fprintf(c.App.Writer, "hex:       %s\n", hexutil.Encode(ch[:]))
	fmt.Fprintf(c.App.Writer, "base64url: %s\n", base64.RawURLEncoding.EncodeToString(ch[:]))
	return nil
}

func hash32(c *cli.Context, name string) ([32]byte, error) {
	var h [32]byte
	raw, err := hexutil.Decode(c.String(name))
	if err != nil {
		return h, fmt.Errorf("%s: %w", name, err)
	}
	if len(raw) != len(h) {
		return h, fmt.Errorf("%s: want %d bytes, got %d", name, len(h), len(raw))
	}
	copy(h[:], raw)
	return h, nil
}
