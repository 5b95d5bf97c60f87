package abicodec

import (
	"fmt"
	"math/big"

	"github.com/NethermindEth/starknet-go-client/internal/apierror"
)

func errEncode(format string, args ...any) *apierror.Error {
	return apierror.New(apierror.KindEncodeError, fmt.Sprintf(format, args...))
}

func errEncodeRange(v *big.Int, prefix string, bits int) *apierror.Error {
	return errEncode("value %s out of range for %s%d", v.String(), prefix, bits)
}

func errDecode(format string, args ...any) *apierror.Error {
	return apierror.New(apierror.KindDecodeError, fmt.Sprintf(format, args...))
}

func errDecodeRangeSigned(bits int) *apierror.Error {
	return errDecode("felt out of range for i%d", bits)
}

func errArgs(format string, args ...any) *apierror.Error {
	return apierror.New(apierror.KindInvalidArgs, fmt.Sprintf(format, args...))
}
