package kronroe

import (
	"encoding/binary"
	"math"
	"sort"
	"time"
)

// vectorIndex is a flat, in-memory cosine-similarity index over every fact's
// embedding. It is a read-through cache over the embeddings table: rebuilt
// in full on Open/OpenInMemory and kept current afterward by insert calls
// made under the write lock. A flat scan is appropriate at the scale this
// engine targets (an embedded, single-process store); there is no ANN
// structure to maintain or tune.
type vectorIndex struct {
	dim     int
	entries []vectorEntry
}

type vectorEntry struct {
	id  FactId
	vec []float32 // unit-normalized
}

// loadVectorIndex scans the embeddings table once and reconstructs the
// flat index. The dimension is fixed by whichever row is read first.
func loadVectorIndex(store kv) (*vectorIndex, error) {
	idx := &vectorIndex{}
	err := store.View(func(tx kvReader) error {
		return tx.ScanPrefix(tableEmbeddings, "", func(key string, value []byte) bool {
			vec := decodeFloat32s(value)
			if idx.dim == 0 && len(vec) > 0 {
				idx.dim = len(vec)
			}
			idx.entries = append(idx.entries, vectorEntry{id: FactId(key), vec: normalize(vec)})
			return true
		})
	})
	if err != nil {
		return nil, wrapStoreErr("loadVectorIndex", err)
	}
	return idx, nil
}

// checkDimension reports a DimensionMismatch error if embedding's length
// disagrees with the dimension fixed by the first embedding ever inserted.
func (idx *vectorIndex) checkDimension(embedding []float32) error {
	if idx.dim == 0 {
		return nil
	}
	if len(embedding) != idx.dim {
		return dimensionMismatchErr("checkDimension", nil)
	}
	return nil
}

// insert adds id's embedding to the index. Called after commit, while the
// caller still holds the write lock, so the index and the embeddings table
// never observe each other mid-update.
func (idx *vectorIndex) insert(id FactId, embedding []float32) {
	if idx.dim == 0 && len(embedding) > 0 {
		idx.dim = len(embedding)
	}
	idx.entries = append(idx.entries, vectorEntry{id: id, vec: normalize(embedding)})
}

func (idx *vectorIndex) clear() {
	idx.entries = nil
	idx.dim = 0
}

// VectorHit is one result of a similarity search: the matching fact and its
// cosine similarity to the query vector, in [-1, 1].
type VectorHit struct {
	Fact  Fact
	Score float64
}

// SearchByVector performs a k-nearest-neighbor search by cosine similarity,
// optionally gated to facts valid at a specific instant. When at is nil, the
// search is gated to facts that are both current and active (the engine's
// default notion of "now").
func (g *TemporalGraph) SearchByVector(query []float32, k int, at *time.Time) ([]VectorHit, error) {
	if g.vector == nil {
		return nil, featureUnavailableErr("SearchByVector", "vector")
	}
	if err := g.vector.checkDimension(query); err != nil {
		return nil, err
	}
	ranked, err := g.vector.rank(query, at, g)
	if err != nil {
		return nil, err
	}
	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked, nil
}

// rank scores every indexed embedding against query, resolves each surviving
// FactId to its current Fact row, and applies the temporal allow-set gate.
// Shared by SearchByVector and the hybrid fusion path.
func (idx *vectorIndex) rank(query []float32, at *time.Time, g *TemporalGraph) ([]VectorHit, error) {
	q := normalize(query)

	type scored struct {
		id    FactId
		score float64
	}
	candidates := make([]scored, 0, len(idx.entries))
	for _, e := range idx.entries {
		candidates = append(candidates, scored{id: e.id, score: cosineUnit(q, e.vec)})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].id < candidates[j].id
	})

	var hits []VectorHit
	err := g.kv.View(func(tx kvReader) error {
		for _, c := range candidates {
			f, found, err := lookupByID(tx, c.id)
			if err != nil {
				return err
			}
			if !found || !passesTemporalGate(f, at) {
				continue
			}
			hits = append(hits, VectorHit{Fact: f, Score: c.score})
		}
		return nil
	})
	if err != nil {
		return nil, wrapStoreErr("rank", err)
	}
	return hits, nil
}

// passesTemporalGate implements the vector/full-text index temporal
// allow-set: with at == nil, a fact qualifies only if it is current and
// active; with at set, a fact qualifies if it was active (in transaction
// time) and valid at that instant.
func passesTemporalGate(f Fact, at *time.Time) bool {
	if at == nil {
		return f.Current() && f.Active()
	}
	return f.Active() && f.ValidAt(*at)
}

func normalize(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// cosineUnit computes cosine similarity between two already-unit-normalized
// vectors, which reduces to a dot product. Returns 0 rather than an error
// when the lengths differ or either vector is empty. Lengths can differ for
// an empty embedding stored before the index dimension was fixed, or for a
// SearchHybrid query vector, which is not dimension-checked.
func cosineUnit(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// encodeFloat32s serializes a float32 slice to a little-endian byte slice,
// the embeddings table's storage format.
func encodeFloat32s(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeFloat32s deserializes a little-endian byte slice back to a float32
// slice.
func decodeFloat32s(buf []byte) []float32 {
	n := len(buf) / 4
	v := make([]float32, n)
	for i := range n {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}
