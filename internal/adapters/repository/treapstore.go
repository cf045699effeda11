package repository

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/okian/huehunt/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: points DESC, then playerID ASC (deterministic).
// "less" means ranks earlier, so in-order traversal yields the leaderboard
// from best to worst. Subtree sizes make Rank O(log n).

// pointsScale controls fixed-point scaling from float64.
const pointsScale = 1_000_000

const defaultPrioritySeed = 0x9e3779b97f4a7c15

type pointsFP int64

func toFixedPoint(x float64) pointsFP {
	return pointsFP(math.Round(x * pointsScale))
}

func toFloat(x pointsFP) float64 {
	return float64(x) / pointsScale
}

// record stores the fixed-point points plus metadata for a player's best.
type record struct {
	points pointsFP
	best   Best
}

// treap node
type node struct {
	id     string
	points pointsFP
	prio   uint64
	left   *node
	right  *node
	size   int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aPoints, aID) should appear before (bPoints, bID)
// in the leaderboard (higher ranks first).
func less(aPoints pointsFP, aID string, bPoints pointsFP, bID string) bool {
	if aPoints != bPoints {
		return aPoints > bPoints
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, fresh *node) *node {
	if n == nil {
		return fresh
	}
	if less(fresh.points, fresh.id, n.points, n.id) {
		n.left = insert(n.left, fresh)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, fresh)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, points pointsFP) *node {
	if n == nil {
		return nil
	}
	if points == n.points && id == n.id {
		// Rotate the higher-priority child up until the node is a leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, points)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, points)
		}
	} else if less(points, id, n.points, n.id) {
		n.left = deleteNode(n.left, id, points)
	} else {
		n.right = deleteNode(n.right, id, points)
	}
	fix(n)
	return n
}

// countAbove returns how many nodes hold strictly more than points.
func countAbove(n *node, points pointsFP) int {
	count := 0
	for n != nil {
		if n.points > points {
			count += 1 + nsize(n.left)
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collectTopN appends up to limit entries in rank order.
func collectTopN(n *node, limit int, records map[string]record, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, records, out)
	if len(*out) < limit {
		if rec, ok := records[n.id]; ok {
			*out = append(*out, rec.entry())
		}
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, records, out)
	}
}

func (r record) entry() Entry {
	return Entry{
		PlayerID: r.best.PlayerID,
		Points:   toFloat(r.points),
		Level:    r.best.Level,
		Tier:     r.best.Tier,
		GameID:   r.best.GameID,
		At:       r.best.At,
	}
}

// TreapStore keeps each player's best finished game ranked by points.
type TreapStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]record
	seed uint64
	rng  *rand.Rand
}

// NewTreapStore constructs a treap store with configuration options.
func NewTreapStore(_ context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		byID: make(map[string]record),
		seed: defaultPrioritySeed,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rng = rand.New(rand.NewPCG(s.seed, s.seed>>1|1)) //nolint:gosec // priorities need balance, not secrecy
	return s
}

// UpdateBest implements Store.UpdateBest with O(log n) expected time.
// Equal points keep the earlier record; a higher level alone is not an improvement.
func (s *TreapStore) UpdateBest(ctx context.Context, b Best) (bool, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if strings.TrimSpace(b.PlayerID) == "" {
		metrics.RecordErrorByComponent("repository", "invalid_player")
		return false, ErrInvalidPlayer
	}
	if math.IsNaN(b.Points) || math.IsInf(b.Points, 0) || b.Points < 0 {
		metrics.RecordErrorByComponent("repository", "invalid_points")
		return false, fmt.Errorf("%w: %v", ErrInvalidPoints, b.Points)
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	np := toFixedPoint(b.Points)

	s.mu.Lock()
	old, known := s.byID[b.PlayerID]
	if known {
		if np <= old.points {
			s.mu.Unlock()
			return false, nil
		}
		s.root = deleteNode(s.root, b.PlayerID, old.points)
	}
	s.byID[b.PlayerID] = record{points: np, best: b}
	s.root = insert(s.root, &node{id: b.PlayerID, points: np, prio: s.rng.Uint64(), size: 1})
	total := len(s.byID)
	s.mu.Unlock()

	if !known {
		metrics.UpdateTotalPlayers(total)
	}
	return true, nil
}

// Rank returns the current rank and best for a player in O(log n).
// Players tied on points share a rank; the next distinct score skips ahead.
func (s *TreapStore) Rank(_ context.Context, playerID string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[playerID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, playerID)
	}
	e := rec.entry()
	e.Rank = 1 + countAbove(s.root, rec.points)
	return e, nil
}

// TopN returns the top N entries ordered by points desc.
func (s *TreapStore) TopN(_ context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, min(n, len(s.byID)))
	collectTopN(s.root, n, s.byID, &out)
	assignRanksWithTies(out)
	return out, nil
}

// Count returns the total number of players.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// assignRanksWithTies gives equal points the same rank; the rank after a
// tie group is its position in the list (1, 1, 3).
func assignRanksWithTies(entries []Entry) {
	for i := range entries {
		if i > 0 && entries[i].Points == entries[i-1].Points {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}
