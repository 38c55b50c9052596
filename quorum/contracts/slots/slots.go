// Package slots computes EVM storage locations for the state variables of the
// genesis system contracts.
//
// Solidity lays out contract state in 32-byte slots numbered by declaration
// order. A scalar variable declared Nth lives directly at slot N. A
// `mapping(address => T)` declared Nth stores nothing at slot N itself; the
// entry for key k lives at
//
//	keccak256(leftpad32(k) ++ leftpad32(N))
//
// Genesis files cannot run constructors, so the builder writes these slots
// by hand and must reproduce the layout byte for byte.
package slots

import (
	"encoding/hex"

	"github.com/Fantom-foundation/lachesis-base/common/bigendian"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// WordSize is the width of a storage slot key and value in bytes.
const WordSize = 32

// True is the storage encoding of a boolean true mapping value.
const True = "0x01"

// DeriveSlotKey returns the storage key of the entry for addr in the
// address-keyed mapping declared at slot index.
func DeriveSlotKey(index uint64, addr common.Address) common.Hash {
	key := common.LeftPadBytes(addr.Bytes(), WordSize)
	slot := ScalarBytes(index, WordSize)
	return crypto.Keccak256Hash(key, slot)
}

// ScalarKey returns the (unhashed) storage key of the scalar variable declared
// at slot index.
func ScalarKey(index uint64) common.Hash {
	return common.BytesToHash(ScalarBytes(index, WordSize))
}

// ScalarBytes encodes value big-endian, left-padded with zeros to width bytes.
// Values that need more than width bytes keep their minimal encoding.
func ScalarBytes(value uint64, width int) []byte {
	raw := bigendian.Uint64ToBytes(value)
	i := 0
	for i < len(raw)-1 && raw[i] == 0 {
		i++
	}
	return common.LeftPadBytes(raw[i:], width)
}

// PadScalar is the hex form of ScalarBytes, optionally 0x-prefixed.
func PadScalar(value uint64, width int, prefixed bool) string {
	enc := hex.EncodeToString(ScalarBytes(value, width))
	if prefixed {
		return "0x" + enc
	}
	return enc
}
