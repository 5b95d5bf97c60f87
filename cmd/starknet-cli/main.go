// Command starknet-cli is a thin wrapper over the library, exercising
// the transport, provider, account, and txstream packages end to end
// against a live JSON-RPC endpoint.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/NethermindEth/starknet-go-client/abi"
	"github.com/NethermindEth/starknet-go-client/account"
	"github.com/NethermindEth/starknet-go-client/config"
	"github.com/NethermindEth/starknet-go-client/felt"
	"github.com/NethermindEth/starknet-go-client/provider"
	"github.com/NethermindEth/starknet-go-client/starkhash"
	"github.com/NethermindEth/starknet-go-client/transport"
	"github.com/NethermindEth/starknet-go-client/txstream"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("no .env file found, using environment variables")
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load("")
	if err != nil {
		fatalf("loading config: %s", err)
	}

	rpcURL := os.Getenv("STARKNET_RPC_URL")
	if rpcURL == "" {
		fatalf("STARKNET_RPC_URL must be set")
	}

	ht := transport.NewHTTPTransport(rpcURL, cfg.TransportOptions())
	defer ht.Close()
	p := provider.New(ht)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch os.Args[1] {
	case "chain-id":
		cmdChainID(ctx, p)
	case "block-number":
		cmdBlockNumber(ctx, p)
	case "nonce":
		cmdNonce(ctx, p, os.Args[2:])
	case "send":
		cmdSend(ctx, p, os.Args[2:])
	case "track":
		cmdTrack(ctx, p, cfg, os.Args[2:])
	case "watch-pending":
		cmdWatchPending(ctx, p, cfg)
	case "watch-confirmed":
		cmdWatchConfirmed(ctx, p, cfg)
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage: starknet-cli <command> [args]")
	fmt.Println("commands:")
	fmt.Println("  chain-id")
	fmt.Println("  block-number")
	fmt.Println("  nonce <contract-address-hex>")
	fmt.Println("  send <account-address-hex> <private-key-hex> <to-hex> <selector-name> [calldata-hex...]")
	fmt.Println("  track <tx-hash-hex>")
	fmt.Println("  watch-pending")
	fmt.Println("  watch-confirmed")
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func cmdChainID(ctx context.Context, p *provider.Provider) {
	id, err := p.ChainID(ctx)
	if err != nil {
		fatalf("chain id: %s", err)
	}
	fmt.Println(id)
}

func cmdBlockNumber(ctx context.Context, p *provider.Provider) {
	n, err := p.BlockNumber(ctx)
	if err != nil {
		fatalf("block number: %s", err)
	}
	fmt.Println(n)
}

func cmdNonce(ctx context.Context, p *provider.Provider, args []string) {
	if len(args) < 1 {
		fatalf("nonce requires a contract address")
	}
	addr, err := felt.ContractAddressFromHex(args[0])
	if err != nil {
		fatalf("invalid contract address: %s", err)
	}
	nonce, err := p.GetNonce(ctx, provider.BlockLatest(), addr)
	if err != nil {
		fatalf("get nonce: %s", err)
	}
	fmt.Println(nonce.ToHex())
}

func cmdSend(ctx context.Context, p *provider.Provider, args []string) {
	if len(args) < 4 {
		fatalf("send requires account-address, private-key, to, selector-name")
	}

	accountAddr, err := felt.ContractAddressFromHex(args[0])
	if err != nil {
		fatalf("invalid account address: %s", err)
	}
	privKey, err := felt.FromHex(args[1])
	if err != nil {
		fatalf("invalid private key: %s", err)
	}
	to, err := felt.ContractAddressFromHex(args[2])
	if err != nil {
		fatalf("invalid call target: %s", err)
	}
	selector, err := felt.FromHex(abi.ComputeSelector(args[3]))
	if err != nil {
		fatalf("invalid selector: %s", err)
	}

	var calldata []felt.Felt252
	for _, raw := range args[4:] {
		f, err := felt.FromHex(raw)
		if err != nil {
			fatalf("invalid calldata entry %q: %s", raw, err)
		}
		calldata = append(calldata, f)
	}

	signer := account.NewKeySigner(privKey)
	acc := account.New(accountAddr, signer, p)

	result, err := acc.Execute(ctx, []starkhash.Call{{To: to, Selector: selector, Calldata: calldata}}, account.ExecuteDetails{})
	if err != nil {
		fatalf("execute: %s", err)
	}
	fmt.Printf("transaction hash: %s\n", result.TransactionHash.ToHex())
}

func cmdTrack(ctx context.Context, p *provider.Provider, cfg config.Config, args []string) {
	if len(args) < 1 {
		fatalf("track requires a transaction hash")
	}
	hash, err := felt.FromHex(args[0])
	if err != nil {
		fatalf("invalid transaction hash: %s", err)
	}

	stream := txstream.Track(ctx, p, hash, cfg.TrackOptions())
	defer stream.Close()
	for {
		event, ok := stream.Recv(ctx)
		if !ok {
			return
		}
		fmt.Printf("poll %d: %s\n", event.PollCount, event.Type)
		if event.Type == "confirmed" || event.Type == "dropped" || event.Type == "error" {
			return
		}
	}
}

func cmdWatchPending(ctx context.Context, p *provider.Provider, cfg config.Config) {
	stream := txstream.WatchPending(ctx, p, cfg.PendingOptions())
	defer stream.Close()
	for {
		event, ok := stream.Recv(ctx)
		if !ok {
			return
		}
		fmt.Printf("pending: %s\n", event.TransactionHash)
	}
}

func cmdWatchConfirmed(ctx context.Context, p *provider.Provider, cfg config.Config) {
	stream := txstream.WatchConfirmed(ctx, p, cfg.ConfirmedOptions())
	defer stream.Close()
	for {
		event, ok := stream.Recv(ctx)
		if !ok {
			return
		}
		fmt.Printf("confirmed block %d: %s (%d confirmations)\n", event.BlockNumber, event.Transaction, event.Confirmations)
	}
}
