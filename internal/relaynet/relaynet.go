// Package relaynet is a relayer gossip network: relayers advertise fee
// quotes and broadcast withdrawal jobs they are willing to submit on a
// depositor's behalf, so a withdrawer's wallet can pick a relayer without
// a centralized directory. Grounded on the teacher's internal/p2p.Node
// (libp2p host + GossipSub topic/subscription/handler pattern), trimmed to
// drop the DHT and mDNS discovery layers that node carries — a two-topic
// broadcast has no need for full peer routing (see DESIGN.md).
package relaynet

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/rs/zerolog"
)

// Topic names are derived from the pool identifier so distinct pools don't
// cross-pollinate gossip.
const (
	feeQuoteTopicSuffix   = "/relayers/fee-quotes"
	withdrawJobTopicSuffix = "/withdrawals/jobs"
)

// FeeQuoteHandler is invoked for every fee-quote message this node
// receives from a peer.
type FeeQuoteHandler func(ctx context.Context, from peer.ID, quote FeeQuote)

// WithdrawJobHandler is invoked for every withdrawal-job broadcast this
// node receives from a peer.
type WithdrawJobHandler func(ctx context.Context, from peer.ID, job WithdrawJob)

// FeeQuote is a relayer's advertised fee for processing a withdrawal in a
// given pool.
type FeeQuote struct {
	PoolID       string
	RelayerAddr  []byte
	FeeAmount    uint64
	ValidUntilNs int64
}

// WithdrawJob is a withdrawal a relayer has agreed to submit, broadcast so
// other relayers don't duplicate the work.
type WithdrawJob struct {
	PoolID        string
	NullifierHash []byte
	SubmittedBy   []byte
}

// Config configures a Node.
type Config struct {
	PoolID      string
	ListenAddrs []string
	PrivateKey  crypto.PrivKey
}

// DefaultConfig returns a single-listener default configuration for poolID.
func DefaultConfig(poolID string) Config {
	return Config{
		PoolID:      poolID,
		ListenAddrs: []string{"/ip4/0.0.0.0/tcp/0"},
	}
}

// Node is one relayer's gossip participant for a single pool.
type Node struct {
	mu sync.RWMutex

	host   host.Host
	pubsub *pubsub.PubSub
	log    zerolog.Logger

	feeTopic   *pubsub.Topic
	feeSub     *pubsub.Subscription
	jobTopic   *pubsub.Topic
	jobSub     *pubsub.Subscription

	feeHandler FeeQuoteHandler
	jobHandler WithdrawJobHandler

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a node, joins the pool's two gossip topics, and starts
// reading both subscriptions in the background. Call Close to shut down.
func New(ctx context.Context, cfg Config, log zerolog.Logger) (*Node, error) {
	nodeCtx, cancel := context.WithCancel(ctx)

	privKey := cfg.PrivateKey
	if privKey == nil {
		var err error
		privKey, _, err = crypto.GenerateKeyPairWithReader(crypto.Ed25519, -1, rand.Reader)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("relaynet: generate key: %w", err)
		}
	}

	h, err := libp2p.New(
		libp2p.Identity(privKey),
		libp2p.ListenAddrStrings(cfg.ListenAddrs...),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("relaynet: create host: %w", err)
	}

	ps, err := pubsub.NewGossipSub(nodeCtx, h)
	if err != nil {
		h.Close()
		cancel()
		return nil, fmt.Errorf("relaynet: create pubsub: %w", err)
	}

	n := &Node{
		host:   h,
		pubsub: ps,
		log:    log.With().Str("component", "relaynet").Str("pool", cfg.PoolID).Logger(),
		ctx:    nodeCtx,
		cancel: cancel,
	}

	if err := n.joinTopics(cfg.PoolID); err != nil {
		n.Close()
		return nil, err
	}

	go n.readLoop(n.feeSub, n.dispatchFeeQuote)
	go n.readLoop(n.jobSub, n.dispatchWithdrawJob)

	return n, nil
}

func (n *Node) joinTopics(poolID string) error {
	var err error

	n.feeTopic, err = n.pubsub.Join(poolID + feeQuoteTopicSuffix)
	if err != nil {
		return fmt.Errorf("relaynet: join fee-quote topic: %w", err)
	}
	n.feeSub, err = n.feeTopic.Subscribe()
	if err != nil {
		return fmt.Errorf("relaynet: subscribe fee-quote topic: %w", err)
	}

	n.jobTopic, err = n.pubsub.Join(poolID + withdrawJobTopicSuffix)
	if err != nil {
		return fmt.Errorf("relaynet: join withdraw-job topic: %w", err)
	}
	n.jobSub, err = n.jobTopic.Subscribe()
	if err != nil {
		return fmt.Errorf("relaynet: subscribe withdraw-job topic: %w", err)
	}

	return nil
}

// OnFeeQuote registers the handler invoked for incoming fee quotes.
func (n *Node) OnFeeQuote(h FeeQuoteHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.feeHandler = h
}

// OnWithdrawJob registers the handler invoked for incoming withdrawal jobs.
func (n *Node) OnWithdrawJob(h WithdrawJobHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.jobHandler = h
}

// PublishFeeQuote broadcasts quote to the pool's fee-quote topic.
func (n *Node) PublishFeeQuote(ctx context.Context, quote FeeQuote) error {
	return n.feeTopic.Publish(ctx, encodeFeeQuote(quote))
}

// PublishWithdrawJob broadcasts job to the pool's withdraw-job topic.
func (n *Node) PublishWithdrawJob(ctx context.Context, job WithdrawJob) error {
	return n.jobTopic.Publish(ctx, encodeWithdrawJob(job))
}

// ID returns this node's libp2p peer ID.
func (n *Node) ID() peer.ID {
	return n.host.ID()
}

// Close tears down the pubsub topics and host.
func (n *Node) Close() {
	n.cancel()
	if n.feeTopic != nil {
		n.feeTopic.Close()
	}
	if n.jobTopic != nil {
		n.jobTopic.Close()
	}
	if n.host != nil {
		n.host.Close()
	}
}

func (n *Node) readLoop(sub *pubsub.Subscription, dispatch func(*pubsub.Message)) {
	if sub == nil {
		return
	}
	for {
		msg, err := sub.Next(n.ctx)
		if err != nil {
			if n.ctx.Err() != nil {
				return
			}
			n.log.Warn().Err(err).Msg("gossip read failed")
			continue
		}
		if msg.ReceivedFrom == n.host.ID() {
			continue
		}
		dispatch(msg)
	}
}

func (n *Node) dispatchFeeQuote(msg *pubsub.Message) {
	quote, err := decodeFeeQuote(msg.Data)
	if err != nil {
		n.log.Debug().Err(err).Msg("dropped malformed fee quote")
		return
	}
	n.mu.RLock()
	h := n.feeHandler
	n.mu.RUnlock()
	if h != nil {
		h(n.ctx, msg.ReceivedFrom, quote)
	}
}

func (n *Node) dispatchWithdrawJob(msg *pubsub.Message) {
	job, err := decodeWithdrawJob(msg.Data)
	if err != nil {
		n.log.Debug().Err(err).Msg("dropped malformed withdraw job")
		return
	}
	n.mu.RLock()
	h := n.jobHandler
	n.mu.RUnlock()
	if h != nil {
		h(n.ctx, msg.ReceivedFrom, job)
	}
}
