// Package program holds client bindings for the healthkey_protocol on-chain
// program: instruction builders, program-derived addresses and account
// decoding.
package program

import (
	"crypto/sha256"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/healthkey/internal/ledger"
	"github.com/gagliardetto/solana-go"
)

//go:embed idl/healthkey_protocol.json
var idlJSON []byte

// ID is the deployed program id.
var ID = ledger.MustPublicKey("2aPJ91YqkdpSTucNwBxGa42uwoHUCdhx6A4qeBkBrNkJ")

type IDLAccountItem struct {
	Name     string `json:"name"`
	IsMut    bool   `json:"isMut"`
	IsSigner bool   `json:"isSigner"`
}

type IDLField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type IDLInstruction struct {
	Name     string           `json:"name"`
	Accounts []IDLAccountItem `json:"accounts"`
	Args     []IDLField       `json:"args"`
}

type IDLAccount struct {
	Name   string     `json:"name"`
	Fields []IDLField `json:"fields"`
}

type IDLError struct {
	Code uint32 `json:"code"`
	Name string `json:"name"`
	Msg  string `json:"msg"`
}

// IDL is the program interface description.
type IDL struct {
	Version      string           `json:"version"`
	Name         string           `json:"name"`
	Address      string           `json:"address"`
	Instructions []IDLInstruction `json:"instructions"`
	Accounts     []IDLAccount     `json:"accounts"`
	Errors       []IDLError       `json:"errors"`
}

var (
	idlOnce sync.Once
	idl     *IDL
	idlErr  error
)

// LoadIDL parses the embedded IDL once.
func LoadIDL() (*IDL, error) {
	idlOnce.Do(func() {
		var v IDL
		if err := json.Unmarshal(idlJSON, &v); err != nil {
			idlErr = fmt.Errorf("parse idl: %w", err)
			return
		}
		idl = &v
	})
	return idl, idlErr
}

func (d *IDL) Instruction(name string) (*IDLInstruction, error) {
	for i := range d.Instructions {
		if d.Instructions[i].Name == name {
			return &d.Instructions[i], nil
		}
	}
	return nil, fmt.Errorf("idl: unknown instruction %q", name)
}

// ErrorMessage maps a custom program error code to its message.
func (d *IDL) ErrorMessage(code uint32) (string, bool) {
	for _, e := range d.Errors {
		if e.Code == code {
			return e.Msg, true
		}
	}
	return "", false
}

// InstructionDiscriminator is the 8-byte prefix selecting an instruction.
func InstructionDiscriminator(name string) [8]byte {
	return discriminator("global:" + name)
}

// AccountDiscriminator is the 8-byte prefix of a program-owned account.
func AccountDiscriminator(name string) [8]byte {
	return discriminator("account:" + name)
}

func discriminator(preimage string) [8]byte {
	sum := sha256.Sum256([]byte(preimage))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

// metas orders accounts the way the IDL lists them for ix.
func (ix *IDLInstruction) metas(accounts map[string]ledger.PublicKey) (solana.AccountMetaSlice, error) {
	out := make(solana.AccountMetaSlice, 0, len(ix.Accounts))
	for _, a := range ix.Accounts {
		pk, ok := accounts[a.Name]
		if !ok {
			return nil, fmt.Errorf("%s: missing account %q", ix.Name, a.Name)
		}
		out = append(out, solana.NewAccountMeta(pk, a.IsMut, a.IsSigner))
	}
	return out, nil
}
