package provider

import "github.com/NethermindEth/starknet-go-client/felt"

// BlockID selects a block by tag, number, or hash, matching the
// starknet_* RPC methods' polymorphic block_id parameter.
type BlockID struct {
	Tag    string // "latest" or "pending"; empty when Number/Hash is set
	Number *uint64
	Hash   *felt.Felt252
}

// BlockLatest selects the latest accepted block.
func BlockLatest() BlockID { return BlockID{Tag: "latest"} }

// BlockPending selects the pending block.
func BlockPending() BlockID { return BlockID{Tag: "pending"} }

// BlockByNumber selects a block by its number.
func BlockByNumber(n uint64) BlockID { return BlockID{Number: &n} }

// BlockByHash selects a block by its hash.
func BlockByHash(h felt.Felt252) BlockID { return BlockID{Hash: &h} }

// MarshalJSON renders the polymorphic block_id shape the node expects:
// a bare tag string, or {"block_hash": ...} / {"block_number": ...}.
func (b BlockID) MarshalJSON() ([]byte, error) {
	switch {
	case b.Hash != nil:
		return []byte(`{"block_hash":"` + b.Hash.ToHex() + `"}`), nil
	case b.Number != nil:
		return []byte(`{"block_number":` + uintToString(*b.Number) + `}`), nil
	default:
		tag := b.Tag
		if tag == "" {
			tag = "latest"
		}
		return []byte(`"` + tag + `"`), nil
	}
}

func uintToString(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
