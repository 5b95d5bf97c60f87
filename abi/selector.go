package abi

import "github.com/NethermindEth/starknet-go-client/internal/starkcrypto"

// ComputeSelector returns the hex-encoded selector for a Cairo function
// or event name: sn_keccak(name) mod 2^250, rendered as "0x"-prefixed
// lowercase hex with no leading zero padding beyond what the value
// itself requires (this module's felt hex form). starknet.js formats
// selectors as full 32-byte zero-padded hex; see ComputeSelectorPadded
// for that form.
func ComputeSelector(name string) string {
	f := starkcrypto.StarknetKeccak([]byte(name))
	return f.String()
}

// ComputeSelectorPadded returns the selector as a full 32-byte
// (64 hex-digit) zero-padded hex string, matching the golden vectors in
// the spec (e.g. selector("transfer") is quoted 32-byte padded).
func ComputeSelectorPadded(name string) string {
	f := starkcrypto.StarknetKeccak([]byte(name))
	b := f.Bytes()
	const hexDigits = "0123456789abcdef"
	out := make([]byte, 2+64)
	out[0], out[1] = '0', 'x'
	for i, c := range b {
		out[2+i*2] = hexDigits[c>>4]
		out[2+i*2+1] = hexDigits[c&0xf]
	}
	return string(out)
}
