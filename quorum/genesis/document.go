// Package genesis models the genesis document of a quorum network and the
// configuration that drives its construction.
//
// The document follows the go-ethereum genesis schema: header quantities are
// 0x-hex, balances are base-10 strings, and each system contract carries a
// storage map of 32-byte keys to hex values. Encoding is deterministic since
// every map is emitted with sorted keys.
package genesis

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

//go:embed template.json
var defaultTemplate []byte

// ChainConfig is the "config" object of the genesis document. The builder
// only manages the chainID entry; every other entry is carried through from
// the template untouched.
type ChainConfig map[string]json.RawMessage

// chainIDKey is the spelling quorum's genesis loader expects.
const chainIDKey = "chainID"

// SetChainID stores id under "chainID".
func (c ChainConfig) SetChainID(id uint64) {
	c[chainIDKey] = json.RawMessage(strconv.FormatUint(id, 10))
}

// ChainID returns the configured chain identifier, if any.
func (c ChainConfig) ChainID() (uint64, bool) {
	raw, ok := c[chainIDKey]
	if !ok {
		return 0, false
	}
	var q Quantity
	if err := json.Unmarshal(raw, &q); err != nil {
		return 0, false
	}
	return uint64(q), true
}

// Account is the genesis state of one address.
type Account struct {
	Balance *Balance                    `json:"balance,omitempty"`
	Code    hexutil.Bytes               `json:"code,omitempty"`
	Nonce   *Quantity                   `json:"nonce,omitempty"`
	Storage map[StorageKey]StorageValue `json:"storage,omitempty"`
}

// SetStorage writes value at key, allocating the storage map if needed.
func (a *Account) SetStorage(key common.Hash, value string) {
	if a.Storage == nil {
		a.Storage = make(map[StorageKey]StorageValue)
	}
	a.Storage[StorageKey(key)] = StorageValue(value)
}

// Copy returns a deep copy of the account.
func (a *Account) Copy() *Account {
	cp := &Account{}
	if a.Balance != nil {
		cp.Balance = NewBalance(a.Balance.Decimal)
	}
	if a.Code != nil {
		cp.Code = append(hexutil.Bytes{}, a.Code...)
	}
	if a.Nonce != nil {
		cp.Nonce = NewQuantity(uint64(*a.Nonce))
	}
	if a.Storage != nil {
		cp.Storage = make(map[StorageKey]StorageValue, len(a.Storage))
		for k, v := range a.Storage {
			cp.Storage[k] = v
		}
	}
	return cp
}

// Alloc maps addresses to their genesis accounts.
type Alloc map[common.Address]*Account

// Account returns the account of addr, creating an empty one if needed.
func (a Alloc) Account(addr common.Address) *Account {
	acc, ok := a[addr]
	if !ok {
		acc = &Account{}
		a[addr] = acc
	}
	return acc
}

// UnmarshalJSON implements json.Unmarshaler. Keys are validated and
// normalized, so "0xAB…" and "0xab…" name the same account.
func (a *Alloc) UnmarshalJSON(data []byte) error {
	var raw map[string]*Account
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Alloc, len(raw))
	for key, acc := range raw {
		if !common.IsHexAddress(key) {
			return &AddressFormatError{Field: "alloc", Index: -1, Value: key}
		}
		addr := common.HexToAddress(key)
		if _, dup := out[addr]; dup {
			return configErrorf("alloc", "address %s listed more than once", addr.Hex())
		}
		if acc == nil {
			acc = &Account{}
		}
		out[addr] = acc
	}
	*a = out
	return nil
}

// Copy returns a deep copy of the alloc.
func (a Alloc) Copy() Alloc {
	cp := make(Alloc, len(a))
	for addr, acc := range a {
		cp[addr] = acc.Copy()
	}
	return cp
}

// Document is a genesis document.
type Document struct {
	Config     ChainConfig     `json:"config,omitempty"`
	Nonce      *Quantity       `json:"nonce,omitempty"`
	Timestamp  *Quantity       `json:"timestamp,omitempty"`
	ExtraData  *hexutil.Bytes  `json:"extraData,omitempty"`
	GasLimit   *Quantity       `json:"gasLimit,omitempty"`
	Difficulty *Big            `json:"difficulty,omitempty"`
	Mixhash    *common.Hash    `json:"mixhash,omitempty"`
	Coinbase   *common.Address `json:"coinbase,omitempty"`
	Number     *Quantity       `json:"number,omitempty"`
	GasUsed    *Quantity       `json:"gasUsed,omitempty"`
	ParentHash *common.Hash    `json:"parentHash,omitempty"`
	Alloc      Alloc           `json:"alloc"`
}

// DecodeDocument parses a genesis document or template.
func DecodeDocument(data []byte) (*Document, error) {
	doc := new(Document)
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decode genesis document: %w", err)
	}
	if doc.Alloc == nil {
		doc.Alloc = make(Alloc)
	}
	if doc.Config == nil {
		doc.Config = make(ChainConfig)
	}
	return doc, nil
}

// DefaultTemplate returns a fresh copy of the built-in template, which
// declares the default voting and governance contracts with empty storage.
func DefaultTemplate() *Document {
	doc, err := DecodeDocument(defaultTemplate)
	if err != nil {
		panic(err)
	}
	return doc
}

// Encode serializes the document as two-space indented JSON.
func (d *Document) Encode() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Copy returns a deep copy of the document.
func (d *Document) Copy() *Document {
	cp := *d
	cp.Config = make(ChainConfig, len(d.Config))
	for k, v := range d.Config {
		cp.Config[k] = append(json.RawMessage(nil), v...)
	}
	if d.Nonce != nil {
		cp.Nonce = NewQuantity(uint64(*d.Nonce))
	}
	if d.Timestamp != nil {
		cp.Timestamp = NewQuantity(uint64(*d.Timestamp))
	}
	if d.ExtraData != nil {
		extra := append(hexutil.Bytes{}, *d.ExtraData...)
		cp.ExtraData = &extra
	}
	if d.GasLimit != nil {
		cp.GasLimit = NewQuantity(uint64(*d.GasLimit))
	}
	if d.Difficulty != nil {
		cp.Difficulty = NewBig(d.Difficulty.ToInt())
	}
	if d.Mixhash != nil {
		h := *d.Mixhash
		cp.Mixhash = &h
	}
	if d.Coinbase != nil {
		c := *d.Coinbase
		cp.Coinbase = &c
	}
	if d.Number != nil {
		cp.Number = NewQuantity(uint64(*d.Number))
	}
	if d.GasUsed != nil {
		cp.GasUsed = NewQuantity(uint64(*d.GasUsed))
	}
	if d.ParentHash != nil {
		h := *d.ParentHash
		cp.ParentHash = &h
	}
	cp.Alloc = d.Alloc.Copy()
	return &cp
}
