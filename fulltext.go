package kronroe

import (
	"encoding/json"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"
)

// BM25 parameters (Okapi BM25, Robertson et al.). k1 controls term-frequency
// saturation; b controls document-length normalization. These are the
// standard defaults used by every BM25 implementation in the wild (Lucene,
// Elasticsearch) absent a reason to tune them for a particular corpus.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

var tokenPattern = regexp.MustCompile(`[a-zA-Z0-9]+`)

func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// fulltextIndex maintains a persistent inverted index in the fulltext KV
// table, updated transactionally alongside each fact write. Chosen over a
// query-time throwaway index (full scan + in-memory BM25 built per call)
// because the facts table has no upper bound the engine can assume; an
// index that doesn't grow with query volume is worth the extra write-path
// bookkeeping.
//
// Keys under tableFulltext:
//
//	"term:<token>"   -> JSON postings list: [{FactId, Freq}, ...]
//	"doclen:<factid>" -> JSON docLength: token count of that fact's text
//	"stats"           -> JSON corpusStats: {DocCount, TotalLen}
type fulltextIndex struct {
	g *TemporalGraph
}

func newFulltextIndex(g *TemporalGraph) *fulltextIndex {
	return &fulltextIndex{g: g}
}

type posting struct {
	ID   FactId `json:"id"`
	Freq int    `json:"freq"`
}

type corpusStats struct {
	DocCount int `json:"doc_count"`
	TotalLen int `json:"total_len"`
}

// searchableText is the text a fact contributes to the full-text index:
// its object's string rendering. Subject and predicate are structural
// coordinates, not prose, and are matched exactly via FactsAt/CurrentFacts
// instead.
func searchableText(f Fact) string {
	return f.Object.String()
}

// indexFact tokenizes f's searchable text and updates postings, doc length,
// and corpus stats in the same write transaction as the fact row itself, so
// the index is never observably behind the facts table.
func (fx *fulltextIndex) indexFact(tx kvWriter, f Fact) error {
	tokens := tokenize(searchableText(f))
	if len(tokens) == 0 {
		return nil
	}

	freqs := make(map[string]int, len(tokens))
	for _, t := range tokens {
		freqs[t]++
	}

	for term, freq := range freqs {
		key := "term:" + term
		var postings []posting
		if raw, ok, err := tx.Get(tableFulltext, key); err != nil {
			return err
		} else if ok {
			if err := json.Unmarshal(raw, &postings); err != nil {
				return serializationErr("indexFact", err)
			}
		}
		postings = append(postings, posting{ID: f.ID, Freq: freq})
		data, err := json.Marshal(postings)
		if err != nil {
			return serializationErr("indexFact", err)
		}
		if err := tx.Put(tableFulltext, key, data); err != nil {
			return err
		}
	}

	docLenData, err := json.Marshal(len(tokens))
	if err != nil {
		return serializationErr("indexFact", err)
	}
	if err := tx.Put(tableFulltext, "doclen:"+string(f.ID), docLenData); err != nil {
		return err
	}

	stats, err := fx.readStats(tx)
	if err != nil {
		return err
	}
	stats.DocCount++
	stats.TotalLen += len(tokens)
	statsData, err := json.Marshal(stats)
	if err != nil {
		return serializationErr("indexFact", err)
	}
	return tx.Put(tableFulltext, "stats", statsData)
}

// vocabulary lists every distinct term currently indexed, so a query term
// with no exact posting can still be matched against near neighbors (single
// edit distance) in the corpus. Scanning the term: keyspace is the KV
// substrate's only way to enumerate the vocabulary; there is no separate
// term-list row to keep in sync.
func (fx *fulltextIndex) vocabulary(tx kvReader) ([]string, error) {
	var vocab []string
	err := tx.ScanPrefix(tableFulltext, "term:", func(k string, _ []byte) bool {
		vocab = append(vocab, strings.TrimPrefix(k, "term:"))
		return true
	})
	if err != nil {
		return nil, err
	}
	return vocab, nil
}

// matchTerms resolves a query term to the indexed terms it should contribute
// to: itself if indexed exactly, plus every vocabulary term within a single
// edit (insertion, deletion, or substitution), per the single-edit fuzzy
// matching the baseline search contract requires. An exact match alone
// skips the fuzzy scan, since query terms that already exist verbatim in a
// reasonably sized corpus rarely also have off-by-one neighbors worth
// scoring.
func matchTerms(term string, vocab []string) []string {
	matched := []string{term}
	exact := false
	for _, v := range vocab {
		if v == term {
			exact = true
			break
		}
	}
	if exact {
		return matched
	}
	matched = matched[:0]
	for _, v := range vocab {
		if withinOneEdit(term, v) {
			matched = append(matched, v)
		}
	}
	return matched
}

// withinOneEdit reports whether a and b differ by at most one character
// insertion, deletion, or substitution.
func withinOneEdit(a, b string) bool {
	if a == b {
		return true
	}
	la, lb := len(a), len(b)
	if la == lb {
		diff := 0
		for i := 0; i < la; i++ {
			if a[i] != b[i] {
				diff++
				if diff > 1 {
					return false
				}
			}
		}
		return diff == 1
	}
	shorter, longer := a, b
	if la > lb {
		shorter, longer = b, a
	}
	if len(longer)-len(shorter) != 1 {
		return false
	}
	i, j, diff := 0, 0, 0
	for i < len(shorter) && j < len(longer) {
		if shorter[i] == longer[j] {
			i++
			j++
			continue
		}
		diff++
		if diff > 1 {
			return false
		}
		j++
	}
	return true
}

func (fx *fulltextIndex) readStats(tx kvReader) (corpusStats, error) {
	raw, ok, err := tx.Get(tableFulltext, "stats")
	if err != nil {
		return corpusStats{}, err
	}
	if !ok {
		return corpusStats{}, nil
	}
	var s corpusStats
	if err := json.Unmarshal(raw, &s); err != nil {
		return corpusStats{}, serializationErr("readStats", err)
	}
	return s, nil
}

// TextHit is one result of a full-text search: the matching fact and its
// BM25 score.
type TextHit struct {
	Fact  Fact
	Score float64
}

// SearchText ranks facts by BM25 relevance to query over their object text,
// gated to facts valid at the given instant (nil means current and active).
func (g *TemporalGraph) SearchText(query string, limit int, at *time.Time) ([]TextHit, error) {
	if !g.cfg.Features.Fulltext {
		return nil, featureUnavailableErr("SearchText", "fulltext")
	}
	hits, err := g.fulltext.rank(query, at, g)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// rank computes BM25 scores for every fact with at least one matching term,
// then resolves and temporally gates the results. Shared by SearchText and
// the hybrid fusion path.
func (fx *fulltextIndex) rank(query string, at *time.Time, g *TemporalGraph) ([]TextHit, error) {
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}

	type accum struct {
		id    FactId
		score float64
	}
	scores := make(map[FactId]float64)
	docLens := make(map[FactId]int)

	err := g.kv.View(func(tx kvReader) error {
		stats, err := fx.readStats(tx)
		if err != nil {
			return err
		}
		if stats.DocCount == 0 {
			return nil
		}
		avgdl := float64(stats.TotalLen) / float64(stats.DocCount)

		vocab, err := fx.vocabulary(tx)
		if err != nil {
			return err
		}

		seen := make(map[string]bool, len(terms))
		for _, term := range terms {
			for _, matched := range matchTerms(term, vocab) {
				if seen[matched] {
					continue
				}
				seen[matched] = true

				raw, ok, err := tx.Get(tableFulltext, "term:"+matched)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
				var postings []posting
				if err := json.Unmarshal(raw, &postings); err != nil {
					return serializationErr("rank", err)
				}

				df := float64(len(postings))
				idf := math.Log(1 + (float64(stats.DocCount)-df+0.5)/(df+0.5))

				for _, p := range postings {
					dl, ok := docLens[p.ID]
					if !ok {
						dlRaw, found, err := tx.Get(tableFulltext, "doclen:"+string(p.ID))
						if err != nil {
							return err
						}
						if found {
							if err := json.Unmarshal(dlRaw, &dl); err != nil {
								return serializationErr("rank", err)
							}
						}
						docLens[p.ID] = dl
					}
					tf := float64(p.Freq)
					denom := tf + bm25K1*(1-bm25B+bm25B*float64(dl)/avgdl)
					scores[p.ID] += idf * (tf * (bm25K1 + 1)) / denom
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapStoreErr("rank", err)
	}

	ranked := make([]accum, 0, len(scores))
	for id, score := range scores {
		ranked = append(ranked, accum{id: id, score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].id < ranked[j].id
	})

	var hits []TextHit
	err = g.kv.View(func(tx kvReader) error {
		for _, r := range ranked {
			f, found, err := lookupByID(tx, r.id)
			if err != nil {
				return err
			}
			if !found || !passesTemporalGate(f, at) {
				continue
			}
			hits = append(hits, TextHit{Fact: f, Score: r.score})
		}
		return nil
	})
	if err != nil {
		return nil, wrapStoreErr("rank", err)
	}
	return hits, nil
}
