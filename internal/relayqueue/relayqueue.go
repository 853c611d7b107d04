// Package relayqueue is a relayer's local queue of pending withdrawal
// jobs: it deduplicates by nullifier hash, orders by fee rate so the most
// profitable jobs are submitted first, and evicts jobs whose root has
// fallen out of the pool's ring buffer before they could be submitted.
// Adapted from the teacher's internal/mempool.Mempool (hash-indexed dedup,
// priority queue, eviction), narrowed from a general transaction pool down
// to the one conflict a relayer actually needs to track: two jobs racing
// on the same nullifier.
package relayqueue

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ccoin/mixer/internal/pool"
	"github.com/ccoin/mixer/pkg/types"
)

var (
	// ErrAlreadyQueued is returned by Add when a job for the same
	// nullifier hash is already pending.
	ErrAlreadyQueued = errors.New("relayqueue: job already queued")
	// ErrQueueFull is returned by Add once the queue holds MaxSize jobs
	// and none can be evicted to make room.
	ErrQueueFull = errors.New("relayqueue: queue full")
)

// Job is a pending withdrawal a relayer has agreed to submit.
type Job struct {
	Request  pool.WithdrawRequest
	FeeRate  float64 // fee / proof size, used to rank jobs
	AddedAt  time.Time
	LeafSeen uint32 // tree.NextIndex() observed at submission time
}

// Config bounds queue growth.
type Config struct {
	MaxSize int
}

// DefaultConfig returns a reasonable default queue size.
func DefaultConfig() Config {
	return Config{MaxSize: 4096}
}

// Queue is a relayer's pending-withdrawal queue for one pool.
type Queue struct {
	mu sync.Mutex

	maxSize int
	byNull  map[types.Hash]*Job
	ordered []*Job
}

// New creates an empty queue.
func New(cfg Config) *Queue {
	if cfg.MaxSize <= 0 {
		cfg = DefaultConfig()
	}
	return &Queue{
		maxSize: cfg.MaxSize,
		byNull:  make(map[types.Hash]*Job),
	}
}

// Add enqueues job, rejecting a duplicate nullifier hash and, if the queue
// is full, evicting the lowest fee-rate job to make room (mirroring the
// teacher's evictLowestPriority).
func (q *Queue) Add(job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.byNull[job.Request.NullifierHash]; exists {
		return ErrAlreadyQueued
	}

	if len(q.ordered) >= q.maxSize {
		if !q.evictLowestFeeRateLocked(job.FeeRate) {
			return ErrQueueFull
		}
	}

	j := job
	q.byNull[j.Request.NullifierHash] = &j
	q.ordered = append(q.ordered, &j)
	sort.Slice(q.ordered, func(i, k int) bool {
		return q.ordered[i].FeeRate > q.ordered[k].FeeRate
	})
	return nil
}

// evictLowestFeeRateLocked drops the lowest fee-rate job if its rate is
// below newRate, making room for the incoming job. Caller holds q.mu.
func (q *Queue) evictLowestFeeRateLocked(newRate float64) bool {
	if len(q.ordered) == 0 {
		return false
	}
	lowest := q.ordered[len(q.ordered)-1]
	if lowest.FeeRate >= newRate {
		return false
	}
	delete(q.byNull, lowest.Request.NullifierHash)
	q.ordered = q.ordered[:len(q.ordered)-1]
	return true
}

// Remove drops a job (successfully submitted, or otherwise abandoned) by
// nullifier hash.
func (q *Queue) Remove(nullifierHash types.Hash) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.removeLocked(nullifierHash)
}

func (q *Queue) removeLocked(nullifierHash types.Hash) {
	if _, exists := q.byNull[nullifierHash]; !exists {
		return
	}
	delete(q.byNull, nullifierHash)
	for i, j := range q.ordered {
		if j.Request.NullifierHash == nullifierHash {
			q.ordered = append(q.ordered[:i], q.ordered[i+1:]...)
			break
		}
	}
}

// EvictStaleFunc removes every queued job for which isLive returns false,
// returning the nullifier hashes of the evicted jobs so the caller can
// notify whoever submitted them (spec.md §5's "window is N-1 = 29
// deposits" stale-root risk). isLive is typically a closure over a
// *merkle.Tree's IsKnownRoot, decoding Job.Request.Root first.
func (q *Queue) EvictStaleFunc(isLive func(root types.Hash) bool) []types.Hash {
	q.mu.Lock()
	defer q.mu.Unlock()

	var evicted []types.Hash
	for _, j := range q.ordered {
		if !isLive(j.Request.Root) {
			evicted = append(evicted, j.Request.NullifierHash)
		}
	}
	for _, n := range evicted {
		q.removeLocked(n)
	}
	return evicted
}

// Next returns the highest fee-rate job without removing it, or false if
// the queue is empty.
func (q *Queue) Next() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.ordered) == 0 {
		return Job{}, false
	}
	return *q.ordered[0], true
}

// Len returns the number of queued jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ordered)
}
