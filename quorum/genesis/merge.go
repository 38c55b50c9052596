package genesis

import (
	"encoding/json"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/rony4d/go-quorum-genesis/quorum"
)

// MergeAlloc merges src into dst with src taking precedence.
//
// For every address in src the dst account is created if missing, then:
//   - balance, code and nonce are replaced when src sets them
//   - storage is merged slot by slot, src values replacing dst values
//
// Fields src leaves unset keep their dst value.
func MergeAlloc(dst, src Alloc) {
	for addr, in := range src {
		out := dst.Account(addr)
		if in.Balance != nil {
			out.Balance = NewBalance(in.Balance.Decimal)
		}
		if in.Code != nil {
			out.Code = append(hexutil.Bytes{}, in.Code...)
		}
		if in.Nonce != nil {
			out.Nonce = NewQuantity(uint64(*in.Nonce))
		}
		for key, value := range in.Storage {
			out.SetStorage(common.Hash(key), string(value))
		}
	}
}

// prefundFile is the on-disk shape of an externally supplied allocation
// list, such as the token sale addresses.
type prefundFile struct {
	Alloc Alloc `json:"alloc"`
}

// DecodePrefund parses an external allocation list. The list may not name
// the remainder address: its balance is computed, never supplied.
func DecodePrefund(data []byte, p quorum.Profile) (Alloc, error) {
	var file prefundFile
	if err := json.Unmarshal(data, &file); err != nil {
		var addrErr *AddressFormatError
		if errors.As(err, &addrErr) {
			addrErr.Field = "prefund.alloc"
			return nil, addrErr
		}
		return nil, configErrorf("prefund", "%v", err)
	}
	if _, ok := file.Alloc[p.RemainderAddress]; ok {
		return nil, configErrorf("prefund", "remainder address %s cannot be prefunded", p.RemainderAddress.Hex())
	}
	if file.Alloc == nil {
		file.Alloc = make(Alloc)
	}
	return file.Alloc, nil
}
