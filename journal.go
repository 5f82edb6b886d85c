package kioto

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"reflect"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// Handle is what the Repo hands back for a committed representation: the
// commit id plus the type-erased value itself and its reflect.Type, so a
// later Checkout can type-check a downcast instead of trusting the caller.
type Handle struct {
	Commit CommitID
	Repr   any
	Type   reflect.Type
}

// Repo is the content-addressed representation store. It issues Handles
// via a chainable Commit pipeline and records every one in a Journal —
// a monotonically growing, thread-safe commit id -> Handle log with
// snapshot semantics (Snapshot returns a point-in-time copy so readers
// never block writers).
//
// Repo.mu guards the log. Go mutexes cannot be "poisoned" by a panicking
// holder the way the Rust original's parking_lot mutex can, so the
// recovery behavior spec.md §4.1 describes ("under lock poisoning the
// inner state is recovered and used") has no direct analogue here; the
// property it protects — the Journal never panics and never loses a
// commit — holds unconditionally in Go as long as Finish never panics
// while holding the lock, which it does not (no user code runs between
// Lock and Unlock).
type Repo struct {
	mu  sync.Mutex
	log map[CommitID]Handle
}

// NewRepo creates an empty Repo.
func NewRepo() *Repo {
	return &Repo{log: make(map[CommitID]Handle)}
}

// ContentDigester folds a representation's content into a commit
// contribution. Recovered from the original sources' content_utils
// (nil/random/bincode digesters): Go has no bincode, so JSONDigest
// stands in as the default structural digester.
type ContentDigester func(repr any) uint64

// NilDigest contributes nothing, for representations whose identity is
// purely type + identifier (e.g. a singleton marker representation).
func NilDigest(any) uint64 { return 0 }

// RandomDigest contributes a fresh random value on every call, which
// means two otherwise-identical commits never collide. Used for
// representations explicitly marked non-cacheable.
func RandomDigest(any) uint64 {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return binary.BigEndian.Uint64(b[:])
}

// JSONDigest marshals repr to JSON and hashes the result. This is the
// default digester used by DigestRepr.
func JSONDigest(repr any) uint64 {
	b, err := json.Marshal(repr)
	if err != nil {
		// A representation that cannot be marshaled still needs a
		// deterministic contribution; fall back to its type name so
		// identical-type commits still collide predictably instead of
		// silently contributing zero.
		return xxhash.Sum64String(reflect.TypeOf(repr).String())
	}
	return xxhash.Sum64(b)
}

// kiotoNamespace seeds the per-type UUID that begins every commit
// pipeline. Any fixed namespace works as long as it is stable across
// runs; uuid.NameSpaceOID is a ready-made RFC 4122 constant, reused here
// rather than inventing a private one.
var kiotoNamespace = uuid.NameSpaceOID

// CommitBuilder is the chainable pipeline returned by Repo.Commit. The
// initial UUID's high 8 bytes are derived from the representation's
// type name (so commits of different representation types essentially
// never collide); the low 8 bytes accumulate identifier and content
// contributions via XOR as the chain is built. Finish folds the two
// halves together with a final XOR into the 64-bit CommitID.
type CommitBuilder struct {
	repo *Repo
	hi   uint64
	lo   uint64
	repr any
}

// Commit begins a commit pipeline for repr.
func (r *Repo) Commit(repr any) *CommitBuilder {
	typeName := "<nil>"
	if t := reflect.TypeOf(repr); t != nil {
		typeName = t.String()
	}
	seed := uuid.NewSHA1(kiotoNamespace, []byte(typeName))
	return &CommitBuilder{
		repo: r,
		hi:   binary.BigEndian.Uint64(seed[0:8]),
		lo:   binary.BigEndian.Uint64(seed[8:16]),
		repr: repr,
	}
}

// Digest mixes the hash of content into the commit id.
func (c *CommitBuilder) Digest(content []byte) *CommitBuilder {
	c.lo ^= xxhash.Sum64(content)
	return c
}

// Ident mixes an identifier string into the commit id. Two commits built
// with the same representation type and the same identifier (and no
// other contribution) always collide — this is intentional and is how
// the Store deduplicates repeat registrations of the same logical item.
func (c *CommitBuilder) Ident(id string) *CommitBuilder {
	c.lo ^= xxhash.Sum64String(id)
	return c
}

// DigestRepr mixes the representation's own content (via JSONDigest) into
// the commit id.
func (c *CommitBuilder) DigestRepr() *CommitBuilder {
	return c.DigestWith(JSONDigest)
}

// DigestWith mixes the representation's content into the commit id using
// an explicit digester, e.g. NilDigest or RandomDigest.
func (c *CommitBuilder) DigestWith(d ContentDigester) *CommitBuilder {
	c.lo ^= d(c.repr)
	return c
}

// Finish collapses the accumulated UUID halves into a 64-bit CommitID,
// records the resulting Handle in the Journal, and returns both.
func (c *CommitBuilder) Finish() (Handle, CommitID) {
	commit := CommitID(c.hi ^ c.lo)
	h := Handle{Commit: commit, Repr: c.repr, Type: reflect.TypeOf(c.repr)}

	c.repo.mu.Lock()
	c.repo.log[commit] = h
	c.repo.mu.Unlock()

	return h, commit
}

// Checkout looks up a previously committed Handle.
func (r *Repo) Checkout(commit CommitID) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.log[commit]
	return h, ok
}

// Assign is a convenience that folds both the representation and an
// arbitrary resource's content into one commit: Commit(repr).Digest(resource).Finish().
func (r *Repo) Assign(repr any, resource []byte) (Handle, CommitID) {
	return r.Commit(repr).Digest(resource).Finish()
}

// Snapshot returns a point-in-time copy of the journal so a caller can
// iterate it without holding the Repo's lock.
func (r *Repo) Snapshot() map[CommitID]Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[CommitID]Handle, len(r.log))
	for k, v := range r.log {
		out[k] = v
	}
	return out
}
