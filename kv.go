package kronroe

// Table names the five tables the engine persists into. Both kv backends
// create one physical bucket/tree per table on open.
type Table string

const (
	tableFacts       Table = "facts"
	tableEmbeddings  Table = "embeddings"
	tableIdempotency Table = "idempotency"
	tableIDIndex     Table = "id_index"
	tableFulltext    Table = "fulltext"
)

var allTables = []Table{tableFacts, tableEmbeddings, tableIdempotency, tableIDIndex, tableFulltext}

// kvReader is the read surface shared by read-only and read-write
// transactions: point lookups and ordered prefix scans.
type kvReader interface {
	// Get returns the value for key in table, or ok=false if absent.
	Get(table Table, key string) (value []byte, ok bool, err error)
	// ScanPrefix calls fn for every key in table with the given prefix, in
	// ascending key order, until fn returns false or all matches are
	// exhausted. Values passed to fn are only valid for the call.
	ScanPrefix(table Table, prefix string, fn func(key string, value []byte) bool) error
}

// kvWriter is the write surface available inside Update.
type kvWriter interface {
	kvReader
	Put(table Table, key string, value []byte) error
	Delete(table Table, key string) error
}

// kv is the embedded ordered key-value substrate the engine is built on.
// Exactly one of boltKV (file-backed) or memKV (memory-backed) implements
// it. Update serializes with any other in-flight Update (single writer);
// View takes an isolated read snapshot unaffected by concurrent Updates
// (parallel readers), matching §5 of the specification.
type kv interface {
	View(fn func(tx kvReader) error) error
	Update(fn func(tx kvWriter) error) error
	Close() error
}
