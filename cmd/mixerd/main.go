// Command mixerd runs a pool daemon: it holds the pool's processor and
// Merkle tree in memory, opens the indexer's Postgres connection, and joins
// the relayer gossip network so relayers can advertise fee quotes and
// withdrawal jobs against this pool. The daemon itself records no
// deposits, roots or withdrawals through the indexer.
// Structured the way the teacher's cmd/ccoind/main.go wires a node: parse
// flags into a Config, print a startup banner, run under a signal-handled
// context, and block until SIGINT/SIGTERM.
package main

import (
	"context"
	"encoding/gob"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/ccoin/mixer/internal/groth16verify"
	"github.com/ccoin/mixer/internal/indexer"
	"github.com/ccoin/mixer/internal/pool"
	"github.com/ccoin/mixer/internal/relaynet"
	"github.com/ccoin/mixer/pkg/types"
)

const banner = `
  _ __ ___  ___ ___   ___  _ __
 | '_ ` + "`" + ` _ \/ __/ __| / _ \| '__|
 | | | | | \__ \__ \ (_) | |
 |_| |_| |_|___/___/\___/|_|   mixerd v%s
`

const version = "0.1.0"

// Config is mixerd's full runtime configuration, assembled from flags.
type Config struct {
	// Pool
	Denomination     uint64
	Height           int
	CustodyAddr      string
	VerifyingKeyPath string

	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	// Network
	ListenAddr string

	// Logging
	LogLevel string
}

func parseFlags() Config {
	var cfg Config

	flag.Uint64Var(&cfg.Denomination, "denomination", 100_000_000, "fixed deposit/withdrawal amount, in base units")
	flag.IntVar(&cfg.Height, "height", 20, "merkle tree height (1-32)")
	flag.StringVar(&cfg.CustodyAddr, "custody", "", "hex-encoded custody address holding deposited funds")
	flag.StringVar(&cfg.VerifyingKeyPath, "verifying-key", "", "path to the pool_verifying_key.gob produced by mixer-setup")

	flag.StringVar(&cfg.DBHost, "db-host", "localhost", "Postgres host")
	flag.IntVar(&cfg.DBPort, "db-port", 5432, "Postgres port")
	flag.StringVar(&cfg.DBUser, "db-user", "mixer", "Postgres user")
	flag.StringVar(&cfg.DBPassword, "db-password", "", "Postgres password")
	flag.StringVar(&cfg.DBName, "db-name", "mixer", "Postgres database name")

	flag.StringVar(&cfg.ListenAddr, "listen", "/ip4/0.0.0.0/tcp/0", "libp2p gossip listen multiaddr")

	flag.StringVar(&cfg.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")

	flag.Parse()
	return cfg
}

func main() {
	cfg := parseFlags()
	fmt.Printf(banner, version)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		cancel()
	}()

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "mixerd: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config) error {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	log := zerolog.New(zerolog.NewConsoleWriter()).Level(level).With().Timestamp().Logger()

	custody, err := parseAddress(cfg.CustodyAddr)
	if err != nil {
		return fmt.Errorf("invalid custody address: %w", err)
	}

	if cfg.VerifyingKeyPath == "" {
		return fmt.Errorf("-verifying-key is required: run mixer-setup and pass its pool_verifying_key.gob")
	}
	verifyingKey, err := loadVerifyingKey(cfg.VerifyingKeyPath)
	if err != nil {
		return fmt.Errorf("failed to load verifying key: %w", err)
	}

	log.Info().Msg("connecting to index database...")
	idxCfg := indexer.DefaultConfig()
	idxCfg.Host, idxCfg.Port, idxCfg.User, idxCfg.Password, idxCfg.Database =
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName

	idx, err := indexer.New(ctx, idxCfg, log)
	if err != nil {
		return fmt.Errorf("failed to connect to index database: %w", err)
	}
	defer idx.Close()
	log.Info().Msg("index database connected")

	log.Info().Int("height", cfg.Height).Uint64("denomination", cfg.Denomination).Msg("initializing pool processor...")
	ledger := pool.NewMemoryLedger()
	proc := pool.NewProcessor(custody, ledger)
	poolID := fmt.Sprintf("pool-%d-%d", cfg.Denomination, cfg.Height)
	if err := proc.Initialize(pool.Config{Denomination: cfg.Denomination, Height: cfg.Height, VerifyingKey: verifyingKey}); err != nil {
		return fmt.Errorf("failed to initialize pool: %w", err)
	}
	log.Info().Str("pool_id", poolID).Msg("pool initialized")

	log.Info().Msg("joining relayer gossip network...")
	net, err := relaynet.New(ctx, relaynet.Config{
		PoolID:      poolID,
		ListenAddrs: []string{cfg.ListenAddr},
	}, log)
	if err != nil {
		return fmt.Errorf("failed to join relayer gossip network: %w", err)
	}
	defer net.Close()
	log.Info().Str("peer_id", net.ID().String()).Msg("relayer gossip network joined")

	fmt.Println("mixerd started successfully!")
	fmt.Println("Press Ctrl+C to stop.")

	<-ctx.Done()
	fmt.Println("mixerd stopped.")
	return nil
}

// loadVerifyingKey decodes the gob-encoded groth16verify.VerifyingKey
// mixer-setup writes as pool_verifying_key.gob after converting gnark's
// native trusted-setup output (see groth16verify.ConvertVerifyingKey).
func loadVerifyingKey(path string) (groth16verify.VerifyingKey, error) {
	var vk groth16verify.VerifyingKey
	f, err := os.Open(path)
	if err != nil {
		return vk, err
	}
	defer f.Close()
	if err := gob.NewDecoder(f).Decode(&vk); err != nil {
		return vk, err
	}
	return vk, nil
}

func parseAddress(s string) (types.Address, error) {
	var addr types.Address
	if s == "" {
		return addr, nil
	}
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return addr, err
	}
	if len(b) != types.AddressSize {
		return addr, fmt.Errorf("expected %d bytes, got %d", types.AddressSize, len(b))
	}
	return types.AddressFromBytes(b), nil
}
