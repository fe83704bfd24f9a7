package rights

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"clearcart/internal/catalog"
	"clearcart/internal/logging"
)

// ErrCheckInFlight signals that a clearance check is already running; the
// caller should wait for it to resolve rather than duplicate the request.
var ErrCheckInFlight = errors.New("rights check already in flight")

// Checker runs clearance cycles against the authority while enforcing the
// at-most-once rule: an unchanged (intended use, restricted set) pair never
// issues a second network call, and concurrent invocations are suppressed
// while one is in flight.
type Checker struct {
	client API
	logger *slog.Logger

	mu              sync.Mutex
	inFlight        bool
	lastFingerprint string
	lastVerdicts    []ClearanceVerdict
	authorized      map[string]struct{}
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithLogger attaches a logger to the checker.
func WithLogger(logger *slog.Logger) CheckerOption {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logging.NewComponentLogger(logger, "rights-checker")
		}
	}
}

// NewChecker constructs a Checker around the given clearance API.
func NewChecker(client API, opts ...CheckerOption) *Checker {
	c := &Checker{
		client:     client,
		logger:     logging.NewNop(),
		authorized: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Seed loads previously accumulated authorizations, typically from the cart
// store at startup.
func (c *Checker) Seed(ids map[string]struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := make(map[string]struct{}, len(c.authorized)+len(ids))
	for id := range c.authorized {
		next[id] = struct{}{}
	}
	for id := range ids {
		next[id] = struct{}{}
	}
	c.authorized = next
}

// Authorized returns a copy of the accumulated authorization set.
func (c *Checker) Authorized() map[string]struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make(map[string]struct{}, len(c.authorized))
	for id := range c.authorized {
		cp[id] = struct{}{}
	}
	return cp
}

// Check runs one clearance cycle for the snapshot under the declared use.
//
// If nothing in the cart needs clearance, or the restricted set and intended
// use are unchanged since the last completed check, no network call is issued
// and the partition is recomputed from the cached verdicts. A call made while
// another check is in flight returns ErrCheckInFlight.
func (c *Checker) Check(ctx context.Context, use IntendedUse, snap catalog.Snapshot) (Partition, error) {
	c.mu.Lock()
	candidates := RestrictedCandidates(snap, c.authorized)
	if len(candidates) == 0 {
		result := PartitionAssets(snap, nil, c.authorized)
		c.mu.Unlock()
		return result, nil
	}

	ids := make([]string, 0, len(candidates))
	for _, asset := range candidates {
		ids = append(ids, asset.ID)
	}
	fp := fingerprint(use, ids)

	if fp == c.lastFingerprint && c.lastVerdicts != nil {
		result := PartitionAssets(snap, c.lastVerdicts, c.authorized)
		c.mu.Unlock()
		c.logger.Debug("clearance check skipped, inputs unchanged",
			logging.String(logging.FieldEventType, "rights_check_deduped"),
			logging.Int("restricted_assets", len(ids)),
		)
		return result, nil
	}
	if c.inFlight {
		c.mu.Unlock()
		return Partition{}, ErrCheckInFlight
	}
	c.inFlight = true
	c.mu.Unlock()

	start := time.Now()
	verdicts, err := c.client.CheckRights(ctx, use, ids)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false
	if err != nil {
		return Partition{}, err
	}

	result := PartitionAssets(snap, verdicts, c.authorized)
	if len(result.NewlyAuthorized) > 0 {
		next := make(map[string]struct{}, len(c.authorized)+len(result.NewlyAuthorized))
		for id := range c.authorized {
			next[id] = struct{}{}
		}
		for _, id := range result.NewlyAuthorized {
			next[id] = struct{}{}
		}
		c.authorized = next
	}
	c.lastFingerprint = fp
	c.lastVerdicts = verdicts

	c.logger.Info("clearance check completed",
		logging.String(logging.FieldEventType, "rights_check_complete"),
		logging.Int("checked_assets", len(ids)),
		logging.Int("authorized", len(result.Authorized)),
		logging.Int("restricted", len(result.Restricted)),
		logging.Duration("check_duration", time.Since(start)),
	)
	return result, nil
}

// fingerprint produces a stable key for the (intended use, restricted set)
// pair so an unchanged cycle can be recognized without comparing structures.
func fingerprint(use IntendedUse, ids []string) string {
	sortedIDs := append([]string(nil), ids...)
	sort.Strings(sortedIDs)
	markets := append([]string(nil), use.Markets...)
	sort.Strings(markets)
	channels := append([]string(nil), use.MediaChannels...)
	sort.Strings(channels)

	var b strings.Builder
	b.WriteString(use.AirDate.Format("2006-01-02"))
	b.WriteByte('|')
	b.WriteString(use.PullDate.Format("2006-01-02"))
	b.WriteByte('|')
	b.WriteString(strings.Join(markets, ","))
	b.WriteByte('|')
	b.WriteString(strings.Join(channels, ","))
	b.WriteByte('|')
	b.WriteString(strings.Join(sortedIDs, ","))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
