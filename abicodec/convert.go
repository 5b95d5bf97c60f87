package abicodec

import (
	"math/big"

	"github.com/NethermindEth/starknet-go-client/felt"
	"github.com/NethermindEth/starknet-go-client/internal/apierror"
)

// toBigInt normalises the handful of Go shapes callers reasonably pass
// for a scalar Cairo value into a big.Int, without ever routing through
// a float.
func toBigInt(val any) (*big.Int, *apierror.Error) {
	switch v := val.(type) {
	case felt.Felt252:
		return v.ToBigInt(), nil
	case felt.ContractAddress:
		return v.Felt().ToBigInt(), nil
	case felt.ClassHash:
		return v.Felt().ToBigInt(), nil
	case felt.StorageKey:
		return v.Felt().ToBigInt(), nil
	case *big.Int:
		if v == nil {
			return nil, errArgs("nil *big.Int value")
		}
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case int:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	case uint:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case string:
		f, err := felt.FromHex(v)
		if err != nil {
			return nil, errArgs("invalid hex/decimal scalar %q: %v", v, err)
		}
		return f.ToBigInt(), nil
	case bool:
		if v {
			return big.NewInt(1), nil
		}
		return big.NewInt(0), nil
	default:
		return nil, errArgs("unsupported scalar value of type %T", val)
	}
}
