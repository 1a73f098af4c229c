package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/store/badgerdb"
	"github.com/iov-one/vault/x/passkey"
	"github.com/iov-one/vault/x/reconfig"
	"github.com/iov-one/vault/x/settings"
	"github.com/iov-one/vault/x/txbuffer"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
)

func run(t testing.TB, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = ioutil.Discard
	err := app.Run(append([]string{"vaultcli"}, args...))
	return out.String(), err
}

func TestDerive(t *testing.T) {
	creator := vault.NewDirectKey([32]byte{7})
	out, err := run(t, "derive", "--offset", "3", "--limit", "2", "--creator", creator.String(), "--buffer-index", "1")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, []string{"SEQUENCE", "SETTINGS", "VAULT", "BUFFER"}, strings.Fields(lines[0]))
	for i, n := range []int64{3, 4} {
		settingsAddr, _, err := settings.SettingsAddress(vault.DefaultProgramID, reconfig.SettingsIndex(n))
		require.NoError(t, err)
		vaultAddr, _, err := settings.VaultAddress(vault.DefaultProgramID, settingsAddr, 0)
		require.NoError(t, err)
		bufferAddr, _, err := txbuffer.BufferAddress(vault.DefaultProgramID, settingsAddr, creator, 1)
		require.NoError(t, err)

		want := []string{fmt.Sprint(n), settingsAddr.String(), vaultAddr.String(), bufferAddr.String()}
		require.Equal(t, want, strings.Fields(lines[i+1]))
	}
}

func TestDeriveOtherProgram(t *testing.T) {
	program := vault.Address{1, 2, 3}
	out, err := run(t, "derive", "--program", program.String(), "--limit", "1", "--header=false")
	require.NoError(t, err)

	settingsAddr, _, err := settings.SettingsAddress(program, reconfig.SettingsIndex(1))
	require.NoError(t, err)
	fields := strings.Fields(out)
	require.Len(t, fields, 3)
	require.Equal(t, settingsAddr.String(), fields[1])
}

func TestDeriveInvalidInput(t *testing.T) {
	cases := map[string][]string{
		"zero offset":        {"derive", "--offset", "0"},
		"zero limit":         {"derive", "--limit", "0"},
		"vault index":        {"derive", "--vault-index", "256"},
		"malformed creator":  {"derive", "--creator", "direct"},
		"malformed program":  {"derive", "--program", "0OIl"},
		"unknown key kind":   {"derive", "--creator", "rsa:abc"},
		"buffer index range": {"derive", "--buffer-index", "300"},
	}
	for testName, args := range cases {
		t.Run(testName, func(t *testing.T) {
			_, err := run(t, args...)
			require.Error(t, err)
		})
	}
}

func TestChallenge(t *testing.T) {
	target := vault.Address{9}
	msgHash, recent, device := [32]byte{1}, [32]byte{2}, [32]byte{3}
	out, err := run(t, "challenge",
		"--action", "vote",
		"--target", target.String(),
		"--message-hash", hexutil.Encode(msgHash[:]),
		"--recent-hash", hexutil.Encode(recent[:]),
		"--device-hash", hexutil.Encode(device[:]),
	)
	require.NoError(t, err)

	want := passkey.Challenge(passkey.Binding{
		Action:      passkey.ActionVote,
		Target:      target,
		MessageHash: msgHash,
	}, recent, device)
	require.Contains(t, out, hexutil.Encode(want[:]))
	require.Contains(t, out, base64.RawURLEncoding.EncodeToString(want[:]))
}

func TestChallengeInvalidInput(t *testing.T) {
	target := vault.Address{9}.String()
	h := hexutil.Encode(make([]byte, 32))
	cases := map[string][]string{
		"unknown action":   {"--action", "transfer", "--target", target, "--message-hash", h, "--recent-hash", h, "--device-hash", h},
		"short hash":       {"--action", "vote", "--target", target, "--message-hash", "0x0102", "--recent-hash", h, "--device-hash", h},
		"missing prefix":   {"--action", "vote", "--target", target, "--message-hash", h[2:], "--recent-hash", h, "--device-hash", h},
		"missing flag":     {"--action", "vote", "--target", target, "--message-hash", h, "--recent-hash", h},
		"malformed target": {"--action", "vote", "--target", "xyz", "--message-hash", h, "--recent-hash", h, "--device-hash", h},
	}
	for testName, args := range cases {
		t.Run(testName, func(t *testing.T) {
			_, err := run(t, append([]string{"challenge"}, args...)...)
			require.Error(t, err)
		})
	}
}

func TestDecodeBuffer(t *testing.T) {
	payload := []byte("payload")
	buf := txbuffer.Buffer{
		Settings:    vault.Address{1},
		VaultBump:   254,
		ValidTill:   1000,
		Payer:       vault.Address{2},
		Bump:        253,
		FinalHash:   sha256.Sum256(payload),
		FinalSize:   uint16(len(payload)),
		Creator:     vault.NewDirectKey([32]byte{2}),
		ChunkHashes: [][32]byte{sha256.Sum256(payload)},
		Voters:      []vault.MemberKey{vault.NewDirectKey([32]byte{2})},
	}
	raw, err := buf.Marshal()
	require.NoError(t, err)

	out, err := run(t, "decode", "buffer", hexutil.Encode(raw))
	require.NoError(t, err)

	var got struct {
		Settings    vault.Address     `json:"settings"`
		ValidTill   int64             `json:"valid_till"`
		FinalHash   hexutil.Bytes     `json:"final_hash"`
		Creator     vault.MemberKey   `json:"creator"`
		ChunkHashes []hexutil.Bytes   `json:"chunk_hashes"`
		Voters      []vault.MemberKey `json:"voters"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, buf.Settings, got.Settings)
	require.EqualValues(t, 1000, got.ValidTill)
	require.Equal(t, hexutil.Bytes(buf.FinalHash[:]), got.FinalHash)
	require.True(t, buf.Creator.Equals(got.Creator))
	require.Len(t, got.ChunkHashes, 1)
	require.Len(t, got.Voters, 1)
}

func TestDecodeDomain(t *testing.T) {
	d := passkey.NewDomainConfig("vault.example", vault.Address{5}, "https://vault.example")
	raw, err := d.Marshal()
	require.NoError(t, err)

	out, err := run(t, "decode", "domain", hexutil.Encode(raw))
	require.NoError(t, err)
	require.Contains(t, out, `"relying_party_id": "vault.example"`)
	require.Contains(t, out, `"https://vault.example"`)
	require.Contains(t, out, hexutil.Encode(d.RelyingPartyIDHash[:]))
}

func TestDecodeInvalidRecord(t *testing.T) {
	cases := map[string][]string{
		"no record":        {"decode", "settings"},
		"not hex":          {"decode", "buffer", "0xzz"},
		"truncated buffer": {"decode", "buffer", "0x0102"},
		"short settings":   {"decode", "settings", "0x00"},
		"empty message":    {"decode", "message", "0x00"},
	}
	for testName, args := range cases {
		t.Run(testName, func(t *testing.T) {
			_, err := run(t, args...)
			require.Error(t, err)
		})
	}
}

func TestShow(t *testing.T) {
	dir := t.TempDir()
	db, err := badgerdb.Open(dir, log.NewNopLogger())
	require.NoError(t, err)
	d := passkey.NewDomainConfig("vault.example", vault.Address{5}, "https://vault.example")
	addr, err := passkey.NewDomainBucket().Save(context.Background(), db, d)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	out, err := run(t, "show", "domain", "--db", dir, addr.String())
	require.NoError(t, err)
	require.Contains(t, out, `"relying_party_id": "vault.example"`)

	_, err = run(t, "show", "buffer", "--db", dir, addr.String())
	require.True(t, errors.ErrNotFound.Is(err))

	_, err = run(t, "show", "settings", addr.String())
	require.Error(t, err)
}
