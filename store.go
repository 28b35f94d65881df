package kronroe

import (
	"fmt"
	"sort"
	"time"
)

// AssertFact creates a new fact with RecordedAt = now, Confidence = 1.0,
// Source = "". Returns the new fact's id.
func (g *TemporalGraph) AssertFact(subject, predicate string, value Value, validFrom time.Time) (FactId, error) {
	return g.AssertFactWithConfidence(subject, predicate, value, validFrom, 1.0)
}

// AssertFactWithConfidence creates a new fact with an explicit confidence.
func (g *TemporalGraph) AssertFactWithConfidence(subject, predicate string, value Value, validFrom time.Time, confidence float64) (FactId, error) {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()

	f := g.newFact(subject, predicate, value, validFrom, confidence)
	if err := g.commitFact(f, nil); err != nil {
		return "", err
	}
	g.logWrite("AssertFact", f)
	return f.ID, nil
}

// AssertFactWithEmbedding atomically writes the fact row and the
// corresponding embeddings row, then updates the in-memory vector index
// after commit while still holding the write lock.
func (g *TemporalGraph) AssertFactWithEmbedding(subject, predicate string, value Value, validFrom time.Time, embedding []float32) (FactId, error) {
	if g.vector == nil {
		return "", featureUnavailableErr("AssertFactWithEmbedding", "vector")
	}

	g.writeMu.Lock()
	defer g.writeMu.Unlock()

	if err := g.vector.checkDimension(embedding); err != nil {
		return "", err
	}

	f := g.newFact(subject, predicate, value, validFrom, 1.0)
	if err := g.commitFact(f, embedding); err != nil {
		return "", err
	}
	g.vector.insert(f.ID, embedding)
	g.logWrite("AssertFactWithEmbedding", f)
	return f.ID, nil
}

// AssertFactIdempotent writes a new fact only if idempotencyKey hasn't been
// seen before; otherwise it returns the FactId recorded the first time.
// Guarantees at most one fact per key.
func (g *TemporalGraph) AssertFactIdempotent(subject, predicate string, value Value, validFrom time.Time, idempotencyKey string) (FactId, error) {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()

	var result FactId
	err := g.kv.Update(func(tx kvWriter) error {
		if existing, ok, err := tx.Get(tableIdempotency, idempotencyKey); err != nil {
			return err
		} else if ok {
			result = FactId(existing)
			return nil
		}

		f := g.newFact(subject, predicate, value, validFrom, 1.0)
		if err := putFact(tx, f); err != nil {
			return err
		}
		if err := tx.Put(tableIdempotency, idempotencyKey, []byte(f.ID)); err != nil {
			return err
		}
		if g.cfg.Features.Fulltext {
			if err := g.fulltext.indexFact(tx, f); err != nil {
				return err
			}
		}
		result = f.ID
		return nil
	})
	if err != nil {
		return "", wrapStoreErr("AssertFactIdempotent", err)
	}
	return result, nil
}

// FactByID locates a single fact by id. Returns NotFound if it doesn't exist.
func (g *TemporalGraph) FactByID(id FactId) (Fact, error) {
	var f Fact
	var found bool
	err := g.kv.View(func(tx kvReader) error {
		var err error
		f, found, err = lookupByID(tx, id)
		return err
	})
	if err != nil {
		return Fact{}, wrapStoreErr("FactByID", err)
	}
	if !found {
		return Fact{}, notFoundErr("FactByID", fmt.Errorf("fact %q", id))
	}
	return f, nil
}

// CurrentFacts returns facts for (subject, predicate) where ValidTo is
// absent and ExpiredAt is absent.
func (g *TemporalGraph) CurrentFacts(subject, predicate string) ([]Fact, error) {
	facts, err := g.factsBySeries(subject, predicate)
	if err != nil {
		return nil, wrapStoreErr("CurrentFacts", err)
	}
	var out []Fact
	for _, f := range facts {
		if f.Current() && f.Active() {
			out = append(out, f)
		}
	}
	return out, nil
}

// FactsAt returns facts for (subject, predicate) valid at instant,
// excluding any fact that has since been superseded in transaction time.
func (g *TemporalGraph) FactsAt(subject, predicate string, instant time.Time) ([]Fact, error) {
	facts, err := g.factsBySeries(subject, predicate)
	if err != nil {
		return nil, wrapStoreErr("FactsAt", err)
	}
	var out []Fact
	for _, f := range facts {
		if f.Active() && f.ValidAt(instant) {
			out = append(out, f)
		}
	}
	return out, nil
}

// AllFactsAbout returns the full per-subject history, including retracted
// and invalidated rows, in facts-table key order: grouped by predicate, and
// by creation time (FactId order) within each predicate.
func (g *TemporalGraph) AllFactsAbout(subject string) ([]Fact, error) {
	var out []Fact
	var decodeErr error
	err := g.kv.View(func(tx kvReader) error {
		return tx.ScanPrefix(tableFacts, subjectPrefix(subject), func(_ string, v []byte) bool {
			f, derr := decodeFact(v)
			if derr != nil {
				decodeErr = derr
				return false
			}
			out = append(out, f)
			return true
		})
	})
	if err != nil {
		return nil, wrapStoreErr("AllFactsAbout", err)
	}
	if decodeErr != nil {
		return nil, serializationErr("AllFactsAbout", decodeErr)
	}
	return out, nil
}

// InvalidateFact sets ExpiredAt = now on the fact with this id. Affects
// transaction time only; ValidTo is left untouched (per the spec's Design
// Notes, invalidation ends a fact's life in the store's own history without
// asserting anything about when it stopped being true in the world).
func (g *TemporalGraph) InvalidateFact(id FactId) error {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()

	err := g.kv.Update(func(tx kvWriter) error {
		f, found, err := lookupByID(tx, id)
		if err != nil {
			return err
		}
		if !found {
			return notFoundErr("InvalidateFact", fmt.Errorf("fact %q", id))
		}
		now := g.cfg.now().UTC()
		f.ExpiredAt = &now
		return putFact(tx, f)
	})
	if err != nil {
		return wrapStoreErr("InvalidateFact", err)
	}
	return nil
}

// CorrectFact supersedes a fact: closes the old one (ExpiredAt = now)
// and writes a new record with the given fields, both in one commit.
// Returns the new fact's id.
func (g *TemporalGraph) CorrectFact(id FactId, newSubject, newPredicate string, newValue Value, validFrom time.Time) (FactId, error) {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()

	var newID FactId
	err := g.kv.Update(func(tx kvWriter) error {
		old, found, err := lookupByID(tx, id)
		if err != nil {
			return err
		}
		if !found {
			return notFoundErr("CorrectFact", fmt.Errorf("fact %q", id))
		}
		now := g.cfg.now().UTC()
		old.ExpiredAt = &now
		if err := putFact(tx, old); err != nil {
			return err
		}

		next := g.newFact(newSubject, newPredicate, newValue, validFrom, old.Confidence)
		next.RecordedAt = now
		if err := putFact(tx, next); err != nil {
			return err
		}
		if g.cfg.Features.Fulltext {
			if err := g.fulltext.indexFact(tx, next); err != nil {
				return err
			}
		}
		newID = next.ID
		return nil
	})
	if err != nil {
		return "", wrapStoreErr("CorrectFact", err)
	}
	return newID, nil
}

// --- internal helpers ---

func (g *TemporalGraph) newFact(subject, predicate string, value Value, validFrom time.Time, confidence float64) Fact {
	now := g.cfg.now().UTC()
	return Fact{
		ID:         newFactID(now),
		Subject:    subject,
		Predicate:  predicate,
		Object:     value,
		ValidFrom:  validFrom.UTC(),
		RecordedAt: now,
		Confidence: confidence,
	}
}

// commitFact writes f (and, if embedding is non-nil, its embeddings row)
// in a single write transaction, plus the full-text index update when that
// capability is enabled.
func (g *TemporalGraph) commitFact(f Fact, embedding []float32) error {
	err := g.kv.Update(func(tx kvWriter) error {
		if err := putFact(tx, f); err != nil {
			return err
		}
		if embedding != nil {
			if err := putEmbedding(tx, f.ID, embedding); err != nil {
				return err
			}
		}
		if g.cfg.Features.Fulltext {
			return g.fulltext.indexFact(tx, f)
		}
		return nil
	})
	return wrapStoreErr("commitFact", err)
}

// putFact writes f's row and keeps the id_index in sync, so correction and
// invalidation resolve a FactId to its facts-table key in O(log n) instead
// of a full scan.
func putFact(tx kvWriter, f Fact) error {
	data, err := encodeFact(f)
	if err != nil {
		return serializationErr("putFact", err)
	}
	key := factKey(f.Subject, f.Predicate, f.ID)
	if err := tx.Put(tableFacts, key, data); err != nil {
		return err
	}
	return tx.Put(tableIDIndex, string(f.ID), []byte(key))
}

func putEmbedding(tx kvWriter, id FactId, embedding []float32) error {
	return tx.Put(tableEmbeddings, string(id), encodeFloat32s(embedding))
}

// lookupByID resolves a FactId via the id_index, then reads the canonical
// row out of the facts table.
func lookupByID(tx kvReader, id FactId) (Fact, bool, error) {
	key, ok, err := tx.Get(tableIDIndex, string(id))
	if err != nil {
		return Fact{}, false, err
	}
	if !ok {
		return Fact{}, false, nil
	}
	data, ok, err := tx.Get(tableFacts, string(key))
	if err != nil {
		return Fact{}, false, err
	}
	if !ok {
		return Fact{}, false, nil
	}
	f, err := decodeFact(data)
	if err != nil {
		return Fact{}, false, serializationErr("lookupByID", err)
	}
	return f, true, nil
}

// factsBySeries returns every fact ever written for (subject, predicate),
// in key order (equal to creation order, since FactId sorts by creation
// time and is the trailing key component).
func (g *TemporalGraph) factsBySeries(subject, predicate string) ([]Fact, error) {
	var out []Fact
	var decodeErr error
	err := g.kv.View(func(tx kvReader) error {
		return tx.ScanPrefix(tableFacts, subjectPredicatePrefix(subject, predicate), func(_ string, v []byte) bool {
			f, derr := decodeFact(v)
			if derr != nil {
				decodeErr = derr
				return false
			}
			out = append(out, f)
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	if decodeErr != nil {
		return nil, serializationErr("factsBySeries", decodeErr)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (g *TemporalGraph) logWrite(op string, f Fact) {
	g.cfg.Logger.Debug().Str("op", op).Str("fact_id", string(f.ID)).
		Str("subject", f.Subject).Str("predicate", f.Predicate).Msg("kronroe write")
}

// wrapStoreErr passes already-typed *Error values through and wraps
// anything unexpected (a bug, not a caller mistake) as a storage error.
func wrapStoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*Error); ok {
		return err
	}
	return storageErr(op, err)
}
