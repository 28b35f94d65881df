package kronroe

import (
	"encoding/json"
	"fmt"
	"time"
)

// ExportedFact is the wire shape of one fact in an export. Embeddings are
// deliberately excluded — they're model-specific binary blobs that don't
// transfer portably across embedders, the same convention memstore's own
// export format documents. Re-embed via AssertFactWithEmbedding after
// import if a vector index is needed on the target engine.
type ExportedFact struct {
	ID         FactId     `json:"id"`
	Subject    string     `json:"subject"`
	Predicate  string     `json:"predicate"`
	Object     Value      `json:"object"`
	ValidFrom  time.Time  `json:"valid_from"`
	ValidTo    *time.Time `json:"valid_to,omitempty"`
	RecordedAt time.Time  `json:"recorded_at"`
	ExpiredAt  *time.Time `json:"expired_at,omitempty"`
	Confidence float64    `json:"confidence"`
	Source     string     `json:"source,omitempty"`
}

// exportFile is the actual serialized form; Facts carries ExportedFact
// rather than Fact so the JSON field names stay decoupled from the engine's
// internal Fact type.
type exportFile struct {
	Version    int            `json:"version"`
	ExportedAt time.Time      `json:"exported_at"`
	Facts      []ExportedFact `json:"facts"`
}

const exportVersion = 1

// Export returns every fact ever recorded, in facts-table key order (by
// subject, then predicate, then FactId), serialized to JSON. Includes retracted and superseded rows so the export
// is a complete history, not a snapshot of current truth.
func (g *TemporalGraph) Export() ([]byte, error) {
	var facts []ExportedFact
	var decodeErr error
	err := g.kv.View(func(tx kvReader) error {
		return tx.ScanPrefix(tableFacts, "", func(_ string, v []byte) bool {
			f, derr := decodeFact(v)
			if derr != nil {
				decodeErr = derr
				return false
			}
			facts = append(facts, ExportedFact{
				ID: f.ID, Subject: f.Subject, Predicate: f.Predicate, Object: f.Object,
				ValidFrom: f.ValidFrom, ValidTo: f.ValidTo,
				RecordedAt: f.RecordedAt, ExpiredAt: f.ExpiredAt,
				Confidence: f.Confidence, Source: f.Source,
			})
			return true
		})
	})
	if err != nil {
		return nil, wrapStoreErr("Export", err)
	}
	if decodeErr != nil {
		return nil, serializationErr("Export", decodeErr)
	}

	out := exportFile{Version: exportVersion, ExportedAt: g.cfg.now().UTC(), Facts: facts}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, serializationErr("Export", err)
	}
	return data, nil
}

// ImportResult summarizes an Import call.
type ImportResult struct {
	Imported int
	Skipped  int
}

// Import writes every fact in an export verbatim, preserving its original
// FactId, timestamps, and closing state, so importing a full export and
// re-exporting it is a no-op. Facts whose id_index entry already exists are
// skipped rather than overwritten, since a fact is never supposed to
// change identity once minted.
func (g *TemporalGraph) Import(data []byte) (ImportResult, error) {
	var in exportFile
	if err := json.Unmarshal(data, &in); err != nil {
		return ImportResult{}, serializationErr("Import", err)
	}
	if in.Version != exportVersion {
		return ImportResult{}, serializationErr("Import",
			fmt.Errorf("unsupported export version %d", in.Version))
	}

	g.writeMu.Lock()
	defer g.writeMu.Unlock()

	var result ImportResult
	err := g.kv.Update(func(tx kvWriter) error {
		for _, ef := range in.Facts {
			if _, ok, err := tx.Get(tableIDIndex, string(ef.ID)); err != nil {
				return err
			} else if ok {
				result.Skipped++
				continue
			}
			f := Fact{
				ID: ef.ID, Subject: ef.Subject, Predicate: ef.Predicate, Object: ef.Object,
				ValidFrom: ef.ValidFrom, ValidTo: ef.ValidTo,
				RecordedAt: ef.RecordedAt, ExpiredAt: ef.ExpiredAt,
				Confidence: ef.Confidence, Source: ef.Source,
			}
			if err := putFact(tx, f); err != nil {
				return err
			}
			if g.cfg.Features.Fulltext {
				if err := g.fulltext.indexFact(tx, f); err != nil {
					return err
				}
			}
			result.Imported++
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, wrapStoreErr("Import", err)
	}
	return result, nil
}
