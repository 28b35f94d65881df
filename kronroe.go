package kronroe

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Features carves out optional subsystems so a constrained host only pays
// for what it uses. Hybrid requires Vector; enabling Hybrid without Vector
// is corrected to both-enabled rather than rejected, since the dependency
// is structural, not a caller mistake worth failing Open over.
type Features struct {
	Fulltext bool
	Vector   bool
	Hybrid   bool
}

// DefaultFeatures enables every capability. Most embedders want the full
// engine; constrained targets (browser, mobile) pass a narrower Features.
func DefaultFeatures() Features {
	return Features{Fulltext: true, Vector: true, Hybrid: true}
}

// Config configures a TemporalGraph at Open/OpenInMemory time.
type Config struct {
	Features Features
	// Logger receives a structured debug event for each write made through
	// AssertFact, AssertFactWithConfidence, and AssertFactWithEmbedding.
	// Storage failures are returned to the caller, not logged. The zero value
	// is a disabled logger (no output), matching zerolog's own convention for
	// an uninitialized Logger.
	Logger zerolog.Logger
	// Clock, when set, overrides time.Now for every timestamp the engine
	// takes (RecordedAt, ExpiredAt, export time, hybrid recency). Tests use this
	// to pin "now" without sleeping; production callers leave it nil.
	Clock func() time.Time
}

func (c Config) now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now()
}

// TemporalGraph is the embedded bi-temporal property graph engine: the
// authority for every write and the resolver for every read described in
// the specification's Fact Store, Full-Text Index, Vector Index, and
// Hybrid Retrieval components.
type TemporalGraph struct {
	kv       kv
	cfg      Config
	writeMu  sync.Mutex // serializes writes end-to-end, including the post-commit vector index update
	fulltext *fulltextIndex
	vector   *vectorIndex
}

// Open opens or creates a durable engine at path, backed by a single bbolt
// file. Fails with a Storage error if the path is unwritable.
func Open(path string, cfg Config) (*TemporalGraph, error) {
	store, err := openBoltKV(path)
	if err != nil {
		return nil, err
	}
	return newGraph(store, cfg)
}

// OpenInMemory opens a volatile engine against a memory-backed substrate.
// Used by browser sandboxes and tests; all state is lost on process exit.
func OpenInMemory(cfg Config) (*TemporalGraph, error) {
	return newGraph(openMemKV(), cfg)
}

func newGraph(store kv, cfg Config) (*TemporalGraph, error) {
	if cfg.Features.Hybrid {
		cfg.Features.Vector = true
	}
	g := &TemporalGraph{kv: store, cfg: cfg}
	g.fulltext = newFulltextIndex(g)
	if cfg.Features.Vector {
		idx, err := loadVectorIndex(store)
		if err != nil {
			return nil, err
		}
		g.vector = idx
	}
	return g, nil
}

// Close releases the underlying KV substrate's resources.
func (g *TemporalGraph) Close() error {
	return g.kv.Close()
}

// Clear removes every fact, embedding, idempotency mapping, and index entry
// from the engine. Caller-initiated only; no engine operation calls this
// internally, since the spec guarantees history is never erased otherwise.
func (g *TemporalGraph) Clear() error {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()

	err := g.kv.Update(func(tx kvWriter) error {
		for _, t := range allTables {
			var keys []string
			if err := tx.ScanPrefix(t, "", func(k string, _ []byte) bool {
				keys = append(keys, k)
				return true
			}); err != nil {
				return err
			}
			for _, k := range keys {
				if err := tx.Delete(t, k); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if g.vector != nil {
		g.vector.clear()
	}
	return nil
}
