package account

import (
	"encoding/json"
	"fmt"

	"github.com/NethermindEth/starknet-go-client/felt"
	"github.com/NethermindEth/starknet-go-client/internal/apierror"
	"github.com/NethermindEth/starknet-go-client/starkhash"
)

func feltsToHex(xs []felt.Felt252) []string {
	out := make([]string, len(xs))
	for i, x := range xs {
		out[i] = x.ToHex()
	}
	return out
}

func resourceBoundsJSON(b starkhash.ResourceBoundsV3) map[string]any {
	one := func(r starkhash.ResourceBounds) map[string]any {
		price := "0x0"
		if r.MaxPricePerUnit != nil {
			price = fmt.Sprintf("0x%x", r.MaxPricePerUnit.ToBigInt())
		}
		return map[string]any{
			"max_amount":        fmt.Sprintf("0x%x", r.MaxAmount),
			"max_price_per_unit": price,
		}
	}
	return map[string]any{
		"l1_gas":      one(b.L1Gas),
		"l2_gas":      one(b.L2Gas),
		"l1_data_gas": one(b.L1DataGas),
	}
}

// invokeV3Payload renders tx as the JSON body
// starknet_addInvokeTransaction/starknet_estimateFee expects. A nil
// signature (used for fee estimation) is encoded as an empty array.
func invokeV3Payload(tx starkhash.InvokeV3, hash felt.Felt252, signature []felt.Felt252) json.RawMessage {
	version := "0x3"
	if tx.Query {
		version = "0x100000000000000000000000000000003"
	}
	body := map[string]any{
		"type":                   "INVOKE",
		"version":                version,
		"sender_address":         tx.Sender.ToHex(),
		"calldata":               feltsToHex(tx.Calldata),
		"signature":              feltsToHex(signature),
		"nonce":                  tx.Nonce.ToHex(),
		"resource_bounds":        resourceBoundsJSON(tx.ResourceBounds),
		"tip":                    fmt.Sprintf("0x%x", tx.Tip),
		"paymaster_data":         feltsToHex(tx.PaymasterData),
		"account_deployment_data": feltsToHex(tx.AccountDeployData),
		"nonce_data_availability_mode": daModeString(tx.NonceDAMode),
		"fee_data_availability_mode":   daModeString(tx.FeeDAMode),
	}
	raw, _ := json.Marshal(body)
	return raw
}

func declareV3Payload(tx starkhash.DeclareV3, contractClass json.RawMessage, signature []felt.Felt252) json.RawMessage {
	body := map[string]any{
		"type":                   "DECLARE",
		"version":                "0x3",
		"sender_address":         tx.Sender.ToHex(),
		"contract_class":         contractClass,
		"compiled_class_hash":    tx.CompiledClassHash.ToHex(),
		"signature":              feltsToHex(signature),
		"nonce":                  tx.Nonce.ToHex(),
		"resource_bounds":        resourceBoundsJSON(tx.ResourceBounds),
		"tip":                    fmt.Sprintf("0x%x", tx.Tip),
		"paymaster_data":         feltsToHex(tx.PaymasterData),
		"account_deployment_data": feltsToHex(tx.AccountDeployData),
		"nonce_data_availability_mode": daModeString(tx.NonceDAMode),
		"fee_data_availability_mode":   daModeString(tx.FeeDAMode),
	}
	raw, _ := json.Marshal(body)
	return raw
}

func deployAccountV3Payload(tx starkhash.DeployAccountV3, signature []felt.Felt252) json.RawMessage {
	body := map[string]any{
		"type":                 "DEPLOY_ACCOUNT",
		"version":              "0x3",
		"contract_address_salt": tx.Salt.ToHex(),
		"constructor_calldata": feltsToHex(tx.ConstructorCalldata),
		"class_hash":           tx.ClassHash.ToHex(),
		"signature":            feltsToHex(signature),
		"nonce":                tx.Nonce.ToHex(),
		"resource_bounds":      resourceBoundsJSON(tx.ResourceBounds),
		"tip":                  fmt.Sprintf("0x%x", tx.Tip),
		"paymaster_data":       feltsToHex(tx.PaymasterData),
		"nonce_data_availability_mode": daModeString(tx.NonceDAMode),
		"fee_data_availability_mode":   daModeString(tx.FeeDAMode),
	}
	raw, _ := json.Marshal(body)
	return raw
}

func daModeString(m starkhash.DAMode) string {
	if m == starkhash.DAModeL2 {
		return "L2"
	}
	return "L1"
}

func payloadBatch(payload json.RawMessage) []json.RawMessage {
	return []json.RawMessage{payload}
}

func extractTransactionHash(result json.RawMessage) (felt.Felt252, error) {
	var out struct {
		TransactionHash string `json:"transaction_hash"`
	}
	if err := json.Unmarshal(result, &out); err != nil {
		return felt.Felt252{}, fmt.Errorf("decode transaction hash: %w", err)
	}
	return felt.FromHex(out.TransactionHash)
}

func extractClassHash(result json.RawMessage) (felt.ClassHash, felt.Felt252, error) {
	var out struct {
		TransactionHash string `json:"transaction_hash"`
		ClassHash       string `json:"class_hash"`
	}
	if err := json.Unmarshal(result, &out); err != nil {
		return felt.ClassHash{}, felt.Felt252{}, fmt.Errorf("decode declare result: %w", err)
	}
	txHash, err := felt.FromHex(out.TransactionHash)
	if err != nil {
		return felt.ClassHash{}, felt.Felt252{}, err
	}
	classHash, err := felt.ClassHashFromHex(out.ClassHash)
	if err != nil {
		return felt.ClassHash{}, felt.Felt252{}, err
	}
	return classHash, txHash, nil
}

// FeeEstimate is the first entry of a starknet_estimateFee response.
type FeeEstimate struct {
	L1GasConsumed     string `json:"l1_gas_consumed"`
	L1GasPrice        string `json:"l1_gas_price"`
	L2GasConsumed     string `json:"l2_gas_consumed"`
	L2GasPrice        string `json:"l2_gas_price"`
	L1DataGasConsumed string `json:"l1_data_gas_consumed"`
	L1DataGasPrice    string `json:"l1_data_gas_price"`
	OverallFee        string `json:"overall_fee"`
}

func parseFeeEstimate(raw json.RawMessage) (FeeEstimate, error) {
	var out []FeeEstimate
	if err := json.Unmarshal(raw, &out); err != nil {
		return FeeEstimate{}, fmt.Errorf("decode fee estimate: %w", err)
	}
	if len(out) == 0 {
		return FeeEstimate{}, apierror.New(apierror.KindNetworkError, "empty fee estimate response")
	}
	return out[0], nil
}
