// Package kronroe implements the TemporalGraph engine: an embedded,
// in-process, bi-temporal property graph with full-text, vector, and hybrid
// retrieval over an ordered key-value substrate.
//
// # Conventions
//
// A Fact never disappears. AssertFact, AssertFactWithConfidence,
// AssertFactWithEmbedding, and AssertFactIdempotent create new rows;
// InvalidateFact and CorrectFact only ever fill in the closing timestamp
// ExpiredAt on an existing row (CorrectFact also writes a new row, which
// carries no link back to the row it replaces). There is no update and no
// delete in the public surface except Clear, which a caller invokes only to
// wipe an engine entirely (tests, migrations).
//
// Relationship facts are directional: Entity("bob") on a fact whose Subject
// is "alice" is only discoverable by walking from "alice". Callers that need
// bidirectional traversal write both directions at assert time, the same
// convention memstore documents for its own relationship facts.
package kronroe

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// FactId is a 26-character, lexicographically sortable, time-prefixed
// unique identifier: a Crockford base32 encoding of a 48-bit millisecond
// timestamp followed by 80 bits of randomness (a ULID).
type FactId string

// factIDFactory serializes access to a single monotonic entropy source so
// ids minted within the same millisecond still sort strictly after one
// another (ulid.MonotonicEntropy is not safe for concurrent use).
type monotonicFactory struct {
	mu  sync.Mutex
	mon *ulid.MonotonicEntropy
}

var factIDFactory = &monotonicFactory{mon: ulid.Monotonic(rand.Reader, 0)}

// newFactID mints a new FactId for the given instant.
func newFactID(now time.Time) FactId {
	factIDFactory.mu.Lock()
	defer factIDFactory.mu.Unlock()
	id := ulid.MustNew(ulid.Timestamp(now), factIDFactory.mon)
	return FactId(id.String())
}

// String implements fmt.Stringer.
func (id FactId) String() string { return string(id) }

// Valid reports whether id parses as a well-formed ULID.
func (id FactId) Valid() bool {
	_, err := ulid.ParseStrict(string(id))
	return err == nil
}

// Time returns the millisecond-resolution creation instant encoded in id.
func (id FactId) Time() (time.Time, error) {
	parsed, err := ulid.ParseStrict(string(id))
	if err != nil {
		return time.Time{}, fmt.Errorf("kronroe: parsing fact id %q: %w", id, err)
	}
	return ulid.Time(parsed.Time()).UTC(), nil
}

// ValueKind discriminates the tagged union Value represents.
type ValueKind string

const (
	ValueText    ValueKind = "Text"
	ValueNumber  ValueKind = "Number"
	ValueBoolean ValueKind = "Boolean"
	ValueEntity  ValueKind = "Entity"
)

// Value is the tagged union a Fact's object carries. Exactly one of the
// typed accessors is meaningful, selected by Kind. Modeled as an explicit
// tag with branchy readers rather than an interface hierarchy, since the
// member set is fixed and every consumer must handle all four cases.
type Value struct {
	Kind    ValueKind
	Text    string
	Number  float64
	Boolean bool
	// Entity carries the subject name of the referenced entity. A fact
	// whose object is Entity("bob") is a graph edge to subject "bob";
	// traversal is AllFactsAbout("bob").
	Entity string
}

// NewTextValue constructs a Value of kind Text.
func NewTextValue(s string) Value { return Value{Kind: ValueText, Text: s} }

// NewNumberValue constructs a Value of kind Number.
func NewNumberValue(n float64) Value { return Value{Kind: ValueNumber, Number: n} }

// NewBooleanValue constructs a Value of kind Boolean.
func NewBooleanValue(b bool) Value { return Value{Kind: ValueBoolean, Boolean: b} }

// NewEntityValue constructs a Value of kind Entity, referencing subject.
func NewEntityValue(subject string) Value { return Value{Kind: ValueEntity, Entity: subject} }

// String renders the value's text representation for full-text indexing
// and human-facing display, independent of Kind.
func (v Value) String() string {
	switch v.Kind {
	case ValueText:
		return v.Text
	case ValueNumber:
		return fmt.Sprintf("%g", v.Number)
	case ValueBoolean:
		if v.Boolean {
			return "true"
		}
		return "false"
	case ValueEntity:
		return v.Entity
	default:
		return ""
	}
}

// valueWire is the discriminated-JSON wire representation of Value.
type valueWire struct {
	Type  ValueKind `json:"type"`
	Value any       `json:"value"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	w := valueWire{Type: v.Kind}
	switch v.Kind {
	case ValueText:
		w.Value = v.Text
	case ValueNumber:
		w.Value = v.Number
	case ValueBoolean:
		w.Value = v.Boolean
	case ValueEntity:
		w.Value = v.Entity
	default:
		return nil, fmt.Errorf("kronroe: marshaling value: unknown kind %q", v.Kind)
	}
	return json.Marshal(w)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var w struct {
		Type  ValueKind       `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	v.Kind = w.Type
	switch w.Type {
	case ValueText:
		return json.Unmarshal(w.Value, &v.Text)
	case ValueNumber:
		return json.Unmarshal(w.Value, &v.Number)
	case ValueBoolean:
		return json.Unmarshal(w.Value, &v.Boolean)
	case ValueEntity:
		return json.Unmarshal(w.Value, &v.Entity)
	default:
		return fmt.Errorf("kronroe: unmarshaling value: unknown kind %q", w.Type)
	}
}

// Fact is the fundamental, immutable unit of storage: a bi-temporal
// statement that Subject's Predicate is Object, valid over
// [ValidFrom, ValidTo) in the modeled world and active over
// [RecordedAt, ExpiredAt) in the store's own transaction history.
type Fact struct {
	ID         FactId
	Subject    string
	Predicate  string
	Object     Value
	ValidFrom  time.Time
	ValidTo    *time.Time
	RecordedAt time.Time
	ExpiredAt  *time.Time
	Confidence float64
	Source     string
}

// Current reports whether f is current in valid time (ValidTo absent).
func (f Fact) Current() bool { return f.ValidTo == nil }

// Active reports whether f is active in transaction time (ExpiredAt absent).
func (f Fact) Active() bool { return f.ExpiredAt == nil }

// ValidAt reports whether instant t falls within [ValidFrom, ValidTo).
func (f Fact) ValidAt(t time.Time) bool {
	if t.Before(f.ValidFrom) {
		return false
	}
	if f.ValidTo != nil && !t.Before(*f.ValidTo) {
		return false
	}
	return true
}

// factWire is the JSON persistence form of Fact (facts table value).
type factWire struct {
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

func encodeFact(f Fact) ([]byte, error) {
	w := factWire{
		ID: f.ID, Subject: f.Subject, Predicate: f.Predicate, Object: f.Object,
		ValidFrom: f.ValidFrom.UTC(), ValidTo: utcPtr(f.ValidTo),
		RecordedAt: f.RecordedAt.UTC(), ExpiredAt: utcPtr(f.ExpiredAt),
		Confidence: f.Confidence, Source: f.Source,
	}
	return json.Marshal(w)
}

func decodeFact(data []byte) (Fact, error) {
	var w factWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Fact{}, err
	}
	return Fact{
		ID: w.ID, Subject: w.Subject, Predicate: w.Predicate, Object: w.Object,
		ValidFrom: w.ValidFrom, ValidTo: w.ValidTo,
		RecordedAt: w.RecordedAt, ExpiredAt: w.ExpiredAt,
		Confidence: w.Confidence, Source: w.Source,
	}, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
