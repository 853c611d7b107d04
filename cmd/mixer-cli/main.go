// Command mixer-cli is a command-line interface for building pool
// instructions and, in dry-run mode, executing them against an in-memory
// ledger and processor. Structured after the teacher's cmd/ccoin-cli: a
// bare os.Args subcommand dispatcher rather than a flag-per-subcommand
// framework, with each subcommand owning its own argument parsing.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"

	"github.com/ccoin/mixer/internal/pool"
	"github.com/ccoin/mixer/pkg/types"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "version":
		fmt.Printf("mixer-cli v%s\n", version)

	case "help":
		printUsage()

	case "pool":
		if len(os.Args) < 3 {
			fmt.Println("Usage: mixer-cli pool <subcommand>")
			fmt.Println("Subcommands: init, deposit, withdraw")
			os.Exit(1)
		}
		cmdPool(os.Args[2:])

	case "encode":
		if len(os.Args) < 3 {
			fmt.Println("Usage: mixer-cli encode <subcommand>")
			fmt.Println("Subcommands: init, deposit, withdraw")
			os.Exit(1)
		}
		cmdEncode(os.Args[2:])

	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("mixer-cli - command-line interface for the mixer pool")
	fmt.Println()
	fmt.Println("Usage: mixer-cli <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  version   Show version information")
	fmt.Println("  help      Show this help message")
	fmt.Println("  pool      Dry-run a pool operation against an in-memory ledger")
	fmt.Println("  encode    Print the wire encoding of a pool instruction")
	fmt.Println()
	fmt.Println("Run 'mixer-cli <command>' with no arguments to list its subcommands.")
}

// cmdPool dry-runs a single Initialize/Deposit/Withdraw against a fresh
// processor and memory ledger, seeding the payer with enough balance to
// cover one deposit. It exists to exercise the processor end to end
// without a running daemon or ledger.
func cmdPool(args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: mixer-cli pool <init|deposit|withdraw> [arguments]")
		os.Exit(1)
	}

	denomination := uint64(100_000_000)
	height := 20
	custody := addrFromByte(0xff)
	payer := addrFromByte(0x01)

	ledger := pool.NewMemoryLedger()
	ledger.Credit(payer, denomination)
	proc := pool.NewProcessor(custody, ledger)

	if err := proc.Initialize(pool.Config{Denomination: denomination, Height: height}); err != nil {
		fmt.Fprintf(os.Stderr, "init failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("pool initialized: denomination=%d height=%d\n", denomination, height)

	switch args[0] {
	case "init":
		// Initialize already ran above; nothing further to demonstrate.

	case "deposit":
		if len(args) < 2 {
			fmt.Println("Usage: mixer-cli pool deposit <commitment-hex>")
			os.Exit(1)
		}
		commitment, err := parseHash(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "bad commitment: %v\n", err)
			os.Exit(1)
		}
		index, err := proc.Deposit(context.Background(), payer, commitment)
		if err != nil {
			fmt.Fprintf(os.Stderr, "deposit failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("deposit accepted at leaf index %d\n", index)

	case "withdraw":
		fmt.Println("withdraw dry-run requires a real proof; this CLI does not build withdraw payloads")

	default:
		fmt.Printf("Unknown pool subcommand: %s\n", args[0])
		os.Exit(1)
	}
}

// cmdEncode prints the hex-encoded wire payload for one instruction, for
// piping to a relayer or a ledger submission tool.
func cmdEncode(args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: mixer-cli encode <init|deposit|withdraw> [arguments]")
		os.Exit(1)
	}

	switch args[0] {
	case "init":
		if len(args) < 3 {
			fmt.Println("Usage: mixer-cli encode init <denomination> <height>")
			os.Exit(1)
		}
		denomination, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "bad denomination: %v\n", err)
			os.Exit(1)
		}
		height, err := strconv.ParseUint(args[2], 10, 8)
		if err != nil {
			fmt.Fprintf(os.Stderr, "bad height: %v\n", err)
			os.Exit(1)
		}
		payload := pool.EncodeInitialize(pool.InitializeArgs{Denomination: denomination, Height: uint8(height)})
		fmt.Println(hex.EncodeToString(payload))

	case "deposit":
		if len(args) < 2 {
			fmt.Println("Usage: mixer-cli encode deposit <commitment-hex>")
			os.Exit(1)
		}
		commitment, err := parseHash(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "bad commitment: %v\n", err)
			os.Exit(1)
		}
		payload := pool.EncodeDeposit(pool.DepositArgs{Commitment: commitment})
		fmt.Println(hex.EncodeToString(payload))

	case "withdraw":
		fmt.Println("Usage: mixer-cli encode withdraw requires a proof file; not yet supported from this CLI")
		os.Exit(1)

	default:
		fmt.Printf("Unknown encode subcommand: %s\n", args[0])
		os.Exit(1)
	}
}

func addrFromByte(b byte) types.Address {
	var a types.Address
	a[0] = b
	return a
}

func parseHash(s string) (types.Hash, error) {
	var h types.Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, err
	}
	if len(b) != types.HashSize {
		return h, fmt.Errorf("expected %d bytes, got %d", types.HashSize, len(b))
	}
	return types.HashFromBytes(b), nil
}
