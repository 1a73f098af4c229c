package main

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/iov-one/vault"
	"github.com/iov-one/vault/x/exec"
	"github.com/iov-one/vault/x/passkey"
	"github.com/iov-one/vault/x/settings"
	"github.com/iov-one/vault/x/txbuffer"
	"github.com/urfave/cli/v2"
)

// decoder turns a raw record into a value printed as JSON.
type decoder func(raw []byte) (interface{}, error)

func decodeCommand(name, usage string, fn decoder) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<0x prefixed hex>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("exactly one hex encoded record is required")
			}
			raw, err := hexutil.Decode(c.Args().First())
			if err != nil {
				return fmt.Errorf("record: %w", err)
			}
			v, err := fn(raw)
			if err != nil {
				return err
			}
			return printJSON(c, v)
		},
	}
}

func printJSON(c *cli.Context, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(out))
	return err
}

type memberView struct {
	Key           vault.MemberKey `json:"key"`
	Permissions   string          `json:"permissions"`
	Role          string          `json:"role"`
	IsDelegate    bool            `json:"is_delegate,omitempty"`
	DomainBinding *vault.Address  `json:"domain_binding,omitempty"`
}

type settingsView struct {
	Index           hexutil.Bytes `json:"index"`
	Members         []memberView  `json:"members"`
	Threshold       uint8         `json:"threshold"`
	VaultBump       uint8         `json:"vault_bump"`
	RecordBump      uint8         `json:"record_bump"`
	TreeIndex       uint8         `json:"tree_index"`
	LatestFreshness uint64        `json:"latest_freshness"`
}

func decodeSettings(raw []byte) (interface{}, error) {
	var s settings.Settings
	if err := s.Unmarshal(raw); err != nil {
		return nil, err
	}
	return settingsOf(&s), nil
}

func settingsOf(s *settings.Settings) settingsView {
	v := settingsView{
		Index:           s.Index[:],
		Members:         make([]memberView, 0, len(s.Members)),
		Threshold:       s.Threshold,
		VaultBump:       s.VaultBump,
		RecordBump:      s.RecordBump,
		TreeIndex:       s.TreeIndex,
		LatestFreshness: s.LatestFreshness,
	}
	for _, m := range s.Members {
		v.Members = append(v.Members, memberView{
			Key:           m.Key,
			Permissions:   m.Permissions.String(),
			Role:          m.Role.String(),
			IsDelegate:    m.IsDelegate,
			DomainBinding: m.DomainBinding,
		})
	}
	return v
}

type bufferView struct {
	Settings     vault.Address     `json:"settings"`
	VaultBump    uint8             `json:"vault_bump"`
	CanExecute   bool              `json:"can_execute"`
	Preauthorize bool              `json:"preauthorize"`
	ValidTill    vault.UnixTime    `json:"valid_till"`
	Payer        vault.Address     `json:"payer"`
	Bump         uint8             `json:"bump"`
	BufferIndex  uint8             `json:"buffer_index"`
	FinalHash    hexutil.Bytes     `json:"final_hash"`
	FinalSize    uint16            `json:"final_size"`
	Creator      vault.MemberKey   `json:"creator"`
	ChunkHashes  []hexutil.Bytes   `json:"chunk_hashes"`
	Voters       []vault.MemberKey `json:"voters"`
	Buffer       hexutil.Bytes     `json:"buffer"`
}

func decodeBuffer(raw []byte) (interface{}, error) {
	var b txbuffer.Buffer
	if err := b.Unmarshal(raw); err != nil {
		return nil, err
	}
	return bufferOf(&b), nil
}

func bufferOf(b *txbuffer.Buffer) bufferView {
	v := bufferView{
		Settings:     b.Settings,
		VaultBump:    b.VaultBump,
		CanExecute:   b.CanExecute,
		Preauthorize: b.Preauthorize,
		ValidTill:    b.ValidTill,
		Payer:        b.Payer,
		Bump:         b.Bump,
		BufferIndex:  b.BufferIndex,
		FinalHash:    b.FinalHash[:],
		FinalSize:    b.FinalSize,
		Creator:      b.Creator,
		ChunkHashes:  make([]hexutil.Bytes, 0, len(b.ChunkHashes)),
		Voters:       b.Voters,
		Buffer:       b.Buffer,
	}
	for i := range b.ChunkHashes {
		v.ChunkHashes = append(v.ChunkHashes, b.ChunkHashes[i][:])
	}
	return v
}

type domainView struct {
	RelyingPartyID     string        `json:"relying_party_id"`
	RelyingPartyIDHash hexutil.Bytes `json:"relying_party_id_hash"`
	Authority          vault.Address `json:"authority"`
	Disabled           bool          `json:"disabled"`
	Origins            []string      `json:"origins"`
}

func decodeDomain(raw []byte) (interface{}, error) {
	var d passkey.DomainConfig
	if err := d.Unmarshal(raw); err != nil {
		return nil, err
	}
	return domainOf(&d), nil
}

func domainOf(d *passkey.DomainConfig) domainView {
	return domainView{
		RelyingPartyID:     d.RelyingPartyID,
		RelyingPartyIDHash: d.RelyingPartyIDHash[:],
		Authority:          d.Authority,
		Disabled:           d.Disabled,
		Origins:            d.Origins,
	}
}

type instructionView struct {
	ProgramIDIndex uint8         `json:"program_id_index"`
	AccountIndexes []uint8       `json:"account_indexes"`
	Data           hexutil.Bytes `json:"data"`
}

type lookupView struct {
	AccountKey      vault.Address `json:"account_key"`
	WritableIndexes []uint8       `json:"writable_indexes"`
	ReadonlyIndexes []uint8       `json:"readonly_indexes"`
}

type messageView struct {
	NumSigners            uint8             `json:"num_signers"`
	NumWritableSigners    uint8             `json:"num_writable_signers"`
	NumWritableNonSigners uint8             `json:"num_writable_non_signers"`
	AccountKeys           []vault.Address   `json:"account_keys"`
	Instructions          []instructionView `json:"instructions"`
	AddressTableLookups   []lookupView      `json:"address_table_lookups"`
}

func decodeMessage(raw []byte) (interface{}, error) {
	var m exec.VaultTransactionMessage
	if err := m.Unmarshal(raw); err != nil {
		return nil, err
	}
	v := messageView{
		NumSigners:            m.NumSigners,
		NumWritableSigners:    m.NumWritableSigners,
		NumWritableNonSigners: m.NumWritableNonSigners,
		AccountKeys:           m.AccountKeys,
		Instructions:          make([]instructionView, 0, len(m.Instructions)),
		AddressTableLookups:   make([]lookupView, 0, len(m.AddressTableLookups)),
	}
	for _, ix := range m.Instructions {
		v.Instructions = append(v.Instructions, instructionView{
			ProgramIDIndex: ix.ProgramIDIndex,
			AccountIndexes: ix.AccountIndexes,
			Data:           ix.Data,
		})
	}
	for _, l := range m.AddressTableLookups {
		v.AddressTableLookups = append(v.AddressTableLookups, lookupView(l))
	}
	return v, nil
}
