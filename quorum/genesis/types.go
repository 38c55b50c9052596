package genesis

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/shopspring/decimal"
)

// Quantity is an unsigned integer field of the genesis schema. It decodes
// from JSON numbers as well as decimal or 0x-hex strings and always encodes
// as 0x-hex.
type Quantity uint64

// MarshalText implements encoding.TextMarshaler.
func (q Quantity) MarshalText() ([]byte, error) {
	return []byte(hexutil.EncodeUint64(uint64(q))), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (q *Quantity) UnmarshalJSON(input []byte) error {
	s := unquote(input)
	if s == "" {
		return fmt.Errorf("empty quantity")
	}
	v, ok := math.ParseUint64(s)
	if !ok {
		return fmt.Errorf("invalid quantity %s", input)
	}
	*q = Quantity(v)
	return nil
}

// NewQuantity returns a pointer to v as a Quantity.
func NewQuantity(v uint64) *Quantity {
	q := Quantity(v)
	return &q
}

// Big is an arbitrary-size unsigned integer field of the genesis schema,
// such as the difficulty. It encodes as 0x-hex.
type Big big.Int

// NewBig wraps v.
func NewBig(v *big.Int) *Big {
	return (*Big)(new(big.Int).Set(v))
}

// ToInt returns the value as a *big.Int.
func (b *Big) ToInt() *big.Int {
	return (*big.Int)(b)
}

// MarshalText implements encoding.TextMarshaler.
func (b *Big) MarshalText() ([]byte, error) {
	return []byte(hexutil.EncodeBig(b.ToInt())), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Big) UnmarshalJSON(input []byte) error {
	s := unquote(input)
	if s == "" {
		return fmt.Errorf("empty integer")
	}
	v, ok := math.ParseBig256(s)
	if !ok || v.Sign() < 0 {
		return fmt.Errorf("invalid integer %s", input)
	}
	*b = Big(*v)
	return nil
}

// Balance is an account balance in base units. It always holds a
// non-negative integer and encodes as a base-10 JSON string.
type Balance struct {
	decimal.Decimal
}

// NewBalance wraps d, which must be a non-negative integer.
func NewBalance(d decimal.Decimal) *Balance {
	return &Balance{Decimal: d}
}

// MarshalJSON implements json.Marshaler.
func (b Balance) MarshalJSON() ([]byte, error) {
	return []byte(`"` + b.Decimal.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler. Hex balances, which some
// genesis tooling emits, are accepted too.
func (b *Balance) UnmarshalJSON(input []byte) error {
	s := unquote(input)
	var (
		d   decimal.Decimal
		err error
	)
	if has0xPrefix(s) {
		v, ok := math.ParseBig256(s)
		if !ok {
			return fmt.Errorf("invalid balance %s", input)
		}
		d = decimal.NewFromBigInt(v, 0)
	} else if d, err = decimal.NewFromString(s); err != nil {
		return fmt.Errorf("invalid balance %s: %w", input, err)
	}
	if d.Sign() < 0 || !d.Equal(d.Truncate(0)) {
		return fmt.Errorf("balance %s is not a non-negative integer", input)
	}
	b.Decimal = d
	return nil
}

// StorageKey is a 32-byte storage slot key. Short hex keys are left-padded
// when decoding, so templates may write "0x01" for slot one.
type StorageKey common.Hash

// MarshalText implements encoding.TextMarshaler.
func (k StorageKey) MarshalText() ([]byte, error) {
	return []byte(common.Hash(k).Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *StorageKey) UnmarshalText(text []byte) error {
	raw, err := decodeWord(string(text))
	if err != nil {
		return fmt.Errorf("storage key: %w", err)
	}
	*k = StorageKey(common.BytesToHash(raw))
	return nil
}

// StorageValue is the hex text of a storage slot value, kept in the minimal
// width it was written with ("0x01" rather than a full word).
type StorageValue string

// Bytes returns the raw value bytes.
func (v StorageValue) Bytes() []byte {
	raw, _ := decodeWord(string(v))
	return raw
}

// UnmarshalText implements encoding.TextUnmarshaler. The value is
// normalized to lower-case, 0x-prefixed, even-length hex.
func (v *StorageValue) UnmarshalText(text []byte) error {
	raw, err := decodeWord(string(text))
	if err != nil {
		return fmt.Errorf("storage value: %w", err)
	}
	*v = StorageValue(hexutil.Encode(raw))
	return nil
}

// decodeWord decodes up to 32 bytes of hex, with or without 0x prefix and
// with an odd number of digits allowed.
func decodeWord(s string) ([]byte, error) {
	if has0xPrefix(s) {
		s = s[2:]
	}
	if len(s) > 2*common.HashLength {
		return nil, fmt.Errorf("too many hex characters in %q", s)
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q", s)
	}
	return raw, nil
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func unquote(input []byte) string {
	s := string(input)
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}
