// Package aggregator builds deduplicated per-peer statistics from a stream
// of RIB entries. One Aggregator owns the state for one dump; multiple
// aggregations can run independently in the same process.
package aggregator

import (
	"strings"

	"github.com/hervehildenbrand/peer-stats/pkg/models"
)

// PeerState is the exact per-peer state: the peer's ASN plus three
// append-only membership sets. Memory grows with distinct values, not
// with the number of records observed.
type PeerState struct {
	ASN           uint32
	V4Prefixes    map[string]struct{}
	V6Prefixes    map[string]struct{}
	ConnectedASNs map[string]struct{}
}

// Result maps peer IP to its aggregated state. It is handed out by
// Snapshot and must be treated as read-only by consumers.
type Result map[string]*PeerState

// Aggregator consumes routing records one at a time and maintains
// per-peer state. It is single-writer: Observe must not be called
// concurrently.
type Aggregator struct {
	peers   Result
	records uint64
}

// New creates an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{peers: make(Result)}
}

// Observe folds one record into the per-peer state. It never fails:
// degenerate input (empty AS path, malformed prefix) contributes nothing
// for the missing part and is otherwise accepted as-is.
func (a *Aggregator) Observe(rec models.RoutingRecord) {
	a.records++

	state, ok := a.peers[rec.PeerIP]
	if !ok {
		// First record for this peer fixes its ASN. Later records with a
		// different declared ASN do not update it.
		state = &PeerState{
			ASN:           rec.PeerASN,
			V4Prefixes:    make(map[string]struct{}),
			V6Prefixes:    make(map[string]struct{}),
			ConnectedASNs: make(map[string]struct{}),
		}
		a.peers[rec.PeerIP] = state
	}

	// The second token of the AS path is the AS directly adjacent to the
	// peer. A path with zero or one hop has no adjacency to record.
	if tokens := strings.Fields(rec.ASPath); len(tokens) > 1 {
		state.ConnectedASNs[tokens[1]] = struct{}{}
	}

	// Classification is purely syntactic: anything containing ":" counts
	// as IPv6, everything else as IPv4. No address parsing.
	switch {
	case rec.Prefix == "":
	case strings.Contains(rec.Prefix, ":"):
		state.V6Prefixes[rec.Prefix] = struct{}{}
	default:
		state.V4Prefixes[rec.Prefix] = struct{}{}
	}
}

// Snapshot returns the current per-peer state. Called mid-stream it
// yields a consistent partial result; the caller must not mutate it.
func (a *Aggregator) Snapshot() Result {
	return a.peers
}

// Records returns the number of records observed so far.
func (a *Aggregator) Records() uint64 {
	return a.records
}

// Peers returns the number of distinct peers observed so far.
func (a *Aggregator) Peers() int {
	return len(a.peers)
}
