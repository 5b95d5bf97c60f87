package abicodec

import (
	"github.com/NethermindEth/starknet-go-client/felt"
	"github.com/NethermindEth/starknet-go-client/internal/apierror"
)

// byteArrayChunkSize is the width of a Cairo bytes31 limb: a ByteArray
// packs as many full 31-byte chunks as it can into felts, then a final
// partial "pending word" of 0..30 bytes plus its length.
const byteArrayChunkSize = 31

// encodeByteArray serialises a string or []byte as a Cairo
// core::byte_array::ByteArray: [len(data), data..., pending_word,
// pending_word_len].
func encodeByteArray(val any) ([]felt.Felt252, *apierror.Error) {
	b, err := toByteSlice(val)
	if err != nil {
		return nil, err
	}

	fullChunks := len(b) / byteArrayChunkSize
	out := make([]felt.Felt252, 0, fullChunks+3)
	out = append(out, felt.FromUint64(uint64(fullChunks)))

	for i := 0; i < fullChunks; i++ {
		chunk := b[i*byteArrayChunkSize : (i+1)*byteArrayChunkSize]
		f, ferr := felt.FromBytes(chunk)
		if ferr != nil {
			return nil, errEncode("byte_array chunk %d does not fit a felt: %v", i, ferr)
		}
		out = append(out, f)
	}

	pending := b[fullChunks*byteArrayChunkSize:]
	pendingFelt, ferr := felt.FromBytes(pending)
	if ferr != nil {
		return nil, errEncode("byte_array pending word does not fit a felt: %v", ferr)
	}
	out = append(out, pendingFelt, felt.FromUint64(uint64(len(pending))))
	return out, nil
}

// decodeByteArray consumes a ByteArray off the cursor and returns the
// reconstructed bytes.
func decodeByteArray(c *cursor) ([]byte, error) {
	countF, err := c.next()
	if err != nil {
		return nil, err
	}
	count := countF.ToBigInt()
	if !count.IsUint64() || count.Uint64() > uint64(c.remaining()) {
		return nil, errDecode("byte_array data length %s exceeds remaining calldata", count.String())
	}
	n := int(count.Uint64())

	out := make([]byte, 0, n*byteArrayChunkSize+byteArrayChunkSize)
	for i := 0; i < n; i++ {
		f, err := c.next()
		if err != nil {
			return nil, err
		}
		out = append(out, padLeft(f.ToBytes(), byteArrayChunkSize)...)
	}

	pendingWord, err := c.next()
	if err != nil {
		return nil, err
	}
	pendingLenF, err := c.next()
	if err != nil {
		return nil, err
	}
	pendingLen := pendingLenF.ToBigInt()
	if !pendingLen.IsUint64() || pendingLen.Uint64() >= byteArrayChunkSize {
		return nil, errDecode("byte_array pending_word_len %s out of range", pendingLen.String())
	}
	l := int(pendingLen.Uint64())
	padded := padLeft(pendingWord.ToBytes(), byteArrayChunkSize)
	out = append(out, padded[byteArrayChunkSize-l:]...)
	return out, nil
}

// padLeft returns the big-endian bytes of a felt's 32-byte form, trimmed
// or zero-extended on the left to exactly n bytes (n <= 32).
func padLeft(b [32]byte, n int) []byte {
	return b[32-n:]
}

func toByteSlice(val any) ([]byte, *apierror.Error) {
	switch v := val.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errArgs("byte_array expects string or []byte, got %T", val)
	}
}
