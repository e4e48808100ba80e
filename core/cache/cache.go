// Package cache implements ResultCache: bounded, TTL-expiring, LRU
// memoization of command executions keyed by a fingerprint over the
// rendered shell string and a slice of execution context (spec.md
// §4.8). Fingerprinting routes through canonical CBOR encoding, the same
// technique the teacher uses for deterministic plan hashing; deep-cloning
// of cached results copies fields directly and does not use CBOR.
package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/mancerhq/mancer/core/dataformat"
	"github.com/mancerhq/mancer/core/mcerrors"
	"github.com/mancerhq/mancer/core/result"
)

const (
	// DefaultCapacity is the default bound on cached entries.
	DefaultCapacity = 256
	// DefaultTTL is the default time a cached entry remains valid.
	DefaultTTL = 300 * time.Second
)

// Fingerprint is the cache key: a hash over the rendered shell string
// and the subset of execution context that affects its outcome.
type Fingerprint string

// FingerprintInput is the exact set of fields spec.md §4.8 says the key
// is derived from.
type FingerprintInput struct {
	RenderedString string
	Cwd            string
	Env            map[string]string
	Mode           string
	HostOrLocal    string
	UID            string
}

var canonicalEncMode = mustCanonicalEncMode()

func mustCanonicalEncMode() cbor.EncMode {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cache: failed to build canonical CBOR encoder: %v", err))
	}
	return mode
}

// canonicalFingerprintInput mirrors FingerprintInput but with Env
// flattened into a sorted slice, so two inputs built from Go maps with
// different iteration orders always produce the same bytes.
type canonicalFingerprintInput struct {
	RenderedString string
	Cwd            string
	EnvPairs       []envPair
	Mode           string
	HostOrLocal    string
	UID            string
}

type envPair struct {
	Key   string
	Value string
}

// ComputeFingerprint computes the cache key for in deterministically.
func ComputeFingerprint(in FingerprintInput) (Fingerprint, error) {
	pairs := make([]envPair, 0, len(in.Env))
	for k, v := range in.Env {
		pairs = append(pairs, envPair{Key: k, Value: v})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })

	canon := canonicalFingerprintInput{
		RenderedString: in.RenderedString,
		Cwd:            in.Cwd,
		EnvPairs:       pairs,
		Mode:           in.Mode,
		HostOrLocal:    in.HostOrLocal,
		UID:            in.UID,
	}

	data, err := canonicalEncMode.Marshal(canon)
	if err != nil {
		return "", mcerrors.Wrap(mcerrors.ConversionUnavailable, "failed to canonically encode cache fingerprint input", err)
	}
	sum := sha256.Sum256(data)
	return Fingerprint(hex.EncodeToString(sum[:])), nil
}

// deepClone produces an independent copy of r so that mutation of a
// value returned from Get (or retained from Put's argument) never
// reaches the cache's own copy. History already knows how to clone
// itself; Metadata and StructuredOutput are copied field-aware here
// rather than via a generic CBOR round-trip, since StructuredOutput's
// concrete type (records slice vs. table vs. JSON string) must survive
// the clone for later type assertions to keep working.
func deepClone(r result.Result) (result.Result, error) {
	cp := r
	cp.Metadata = make(map[string]any, len(r.Metadata))
	for k, v := range r.Metadata {
		cp.Metadata[k] = v
	}
	if r.History != nil {
		cp.History = r.History.Clone()
	}
	switch v := r.StructuredOutput.(type) {
	case []dataformat.Record:
		records := make([]dataformat.Record, len(v))
		for i, rec := range v {
			recCopy := make(dataformat.Record, len(rec))
			for k, val := range rec {
				recCopy[k] = val
			}
			records[i] = recCopy
		}
		cp.StructuredOutput = records
	case dataformat.Table:
		columns := append([]string(nil), v.Columns...)
		rows := make([][]any, len(v.Rows))
		for i, row := range v.Rows {
			rows[i] = append([]any(nil), row...)
		}
		cp.StructuredOutput = dataformat.Table{Columns: columns, Rows: rows}
	default:
		cp.StructuredOutput = v
	}
	return cp, nil
}

type entry struct {
	fingerprint Fingerprint
	result      result.Result
	insertedAt  time.Time
	ttl         time.Duration
}

func (e entry) expired(now time.Time) bool {
	return now.Sub(e.insertedAt) > e.ttl
}

// Cache is a bounded, fingerprint-keyed, LRU-evicting, TTL-expiring
// memoization of CommandResults. All mutating operations are performed
// under a single mutex so get/put/evict are atomic as a whole, per
// spec.md §4.8's concurrency note.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	order    *list.List // front = most recently used
	elements map[Fingerprint]*list.Element
	now      func() time.Time
}

// New returns a Cache with the given capacity and default TTL.
func New(capacity int) *Cache {
	return NewWithTTL(capacity, DefaultTTL)
}

// NewWithTTL returns a Cache with explicit capacity and TTL.
func NewWithTTL(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		ttl:      ttl,
		order:    list.New(),
		elements: make(map[Fingerprint]*list.Element),
		now:      time.Now,
	}
}

// Get returns a deep clone of the cached result for fp, if present and
// not expired. A stale entry is evicted as a side effect of the miss.
func (c *Cache) Get(fp Fingerprint) (result.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.elements[fp]
	if !ok {
		return result.Result{}, false
	}
	e := el.Value.(entry)
	if e.expired(c.now()) {
		c.order.Remove(el)
		delete(c.elements, fp)
		return result.Result{}, false
	}

	c.order.MoveToFront(el)

	clone, err := deepClone(e.result)
	if err != nil {
		return result.Result{}, false
	}
	return clone, true
}

// Put inserts a deep clone of r under fp with ttlOverride (or the
// cache's default TTL when ttlOverride <= 0), evicting the
// least-recently-used entry if the cache is at capacity.
func (c *Cache) Put(fp Fingerprint, r result.Result, ttlOverride time.Duration) error {
	clone, err := deepClone(r)
	if err != nil {
		return err
	}

	ttl := c.ttl
	if ttlOverride > 0 {
		ttl = ttlOverride
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.elements[fp]; ok {
		c.order.Remove(el)
		delete(c.elements, fp)
	}

	el := c.order.PushFront(entry{fingerprint: fp, result: clone, insertedAt: c.now(), ttl: ttl})
	c.elements[fp] = el

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.elements, oldest.Value.(entry).fingerprint)
	}
	return nil
}

// Evict removes fp from the cache unconditionally. A no-op if absent.
func (c *Cache) Evict(fp Fingerprint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.elements[fp]; ok {
		c.order.Remove(el)
		delete(c.elements, fp)
	}
}

// Len returns the current number of live (not necessarily unexpired) entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// ShouldBypass reports whether the given execution parameters mean a
// result must never be read from or written to the cache (spec.md
// §4.8's "never caches" list).
func ShouldBypass(noCache bool, liveOutput bool, errorKind mcerrors.Kind, contextNoCache bool) bool {
	if noCache || liveOutput || contextNoCache {
		return true
	}
	switch errorKind {
	case mcerrors.BackendSpawnFailed, mcerrors.SshConnectFailed, mcerrors.SudoAuthFailed:
		return true
	}
	return false
}
