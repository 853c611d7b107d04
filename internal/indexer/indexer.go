// Package indexer mirrors a pool's on-ledger events — deposits, the
// current root history, and spent nullifiers — into Postgres for off-chain
// querying: a relayer checking whether a root is still live, or a block
// explorer listing deposits, need this without replaying the ledger.
// Grounded on the teacher's internal/storage.PostgresStore (pgxpool
// connection-string config, Config/DefaultConfig pattern, Exec/Query
// shape), narrowed from a full block/transaction/consensus schema down to
// the three tables a mixer's processor actually emits events for.
package indexer

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/ccoin/mixer/pkg/types"
)

// Config holds the Postgres connection parameters, mirroring
// internal/storage.Config in shape.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
}

// DefaultConfig returns sane local-development defaults.
func DefaultConfig() Config {
	return Config{
		Host:     "localhost",
		Port:     5432,
		User:     "mixer",
		Database: "mixer",
		SSLMode:  "disable",
		MaxConns: 10,
	}
}

func (c Config) connString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode, c.MaxConns,
	)
}

// Indexer mirrors pool events into Postgres.
type Indexer struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// New opens a connection pool against cfg and verifies it with a ping.
func New(ctx context.Context, cfg Config, log zerolog.Logger) (*Indexer, error) {
	pool, err := pgxpool.New(ctx, cfg.connString())
	if err != nil {
		return nil, fmt.Errorf("indexer: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("indexer: ping: %w", err)
	}
	return &Indexer{pool: pool, log: log.With().Str("component", "indexer").Logger()}, nil
}

// Close releases the connection pool.
func (ix *Indexer) Close() {
	ix.pool.Close()
}

// Schema is the DDL the indexer expects to already exist (migrations are
// run out of band; the indexer only reads and writes rows).
const Schema = `
CREATE TABLE IF NOT EXISTS deposits (
	commitment   BYTEA PRIMARY KEY,
	leaf_index   BIGINT NOT NULL,
	payer        BYTEA NOT NULL,
	denomination BIGINT NOT NULL,
	observed_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS roots (
	root        BYTEA PRIMARY KEY,
	leaf_index  BIGINT NOT NULL,
	observed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS nullifiers (
	nullifier_hash BYTEA PRIMARY KEY,
	recipient      BYTEA NOT NULL,
	relayer        BYTEA NOT NULL,
	fee            BIGINT NOT NULL,
	observed_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// RecordDeposit mirrors a successful deposit.
func (ix *Indexer) RecordDeposit(ctx context.Context, commitment types.Hash, leafIndex uint32, payer types.Address, denomination uint64) error {
	const q = `
		INSERT INTO deposits (commitment, leaf_index, payer, denomination)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (commitment) DO NOTHING
	`
	if _, err := ix.pool.Exec(ctx, q, commitment[:], leafIndex, payer[:], denomination); err != nil {
		return fmt.Errorf("indexer: record deposit: %w", err)
	}
	ix.log.Debug().Uint32("leaf_index", leafIndex).Msg("recorded deposit")
	return nil
}

// RecordRoot mirrors a newly produced root so a relayer can check liveness
// without holding the tree itself.
func (ix *Indexer) RecordRoot(ctx context.Context, root types.Hash, leafIndex uint32) error {
	const q = `
		INSERT INTO roots (root, leaf_index)
		VALUES ($1, $2)
		ON CONFLICT (root) DO NOTHING
	`
	if _, err := ix.pool.Exec(ctx, q, root[:], leafIndex); err != nil {
		return fmt.Errorf("indexer: record root: %w", err)
	}
	return nil
}

// RecordWithdrawal mirrors a successful withdrawal's nullifier.
func (ix *Indexer) RecordWithdrawal(ctx context.Context, nullifierHash types.Hash, recipient, relayer types.Address, fee uint64) error {
	const q = `
		INSERT INTO nullifiers (nullifier_hash, recipient, relayer, fee)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (nullifier_hash) DO NOTHING
	`
	if _, err := ix.pool.Exec(ctx, q, nullifierHash[:], recipient[:], relayer[:], fee); err != nil {
		return fmt.Errorf("indexer: record withdrawal: %w", err)
	}
	ix.log.Debug().Msg("recorded withdrawal")
	return nil
}

// IsRootLive reports whether root has been recorded within the last
// window leaf insertions — a cheap approximation of ring-buffer liveness
// for relayers deciding whether a root is still worth proving against.
func (ix *Indexer) IsRootLive(ctx context.Context, root types.Hash, window uint32) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM roots
			WHERE root = $1
			AND leaf_index > (SELECT COALESCE(MAX(leaf_index), 0) FROM roots) - $2
		)
	`
	var live bool
	if err := ix.pool.QueryRow(ctx, q, root[:], window).Scan(&live); err != nil {
		return false, fmt.Errorf("indexer: check root liveness: %w", err)
	}
	return live, nil
}
