package kronroe

import "errors"

// ErrorKind enumerates the closed set of failure modes the engine surfaces
// to callers. Every fallible operation returns one of these, never a panic.
type ErrorKind int

const (
	// KindStorage indicates an I/O failure, an unwritable path, or substrate
	// corruption. Always surfaced; never retried internally.
	KindStorage ErrorKind = iota
	// KindSerialization indicates an encoded row could not be parsed.
	// Fatal for the calling operation, not for the process.
	KindSerialization
	// KindNotFound indicates the referenced FactId does not exist.
	KindNotFound
	// KindDimensionMismatch indicates an embedding's dimension disagrees
	// with the dimension already established for the vector index.
	KindDimensionMismatch
	// KindQueryParse indicates a text query could not be parsed.
	KindQueryParse
	// KindFeatureUnavailable indicates a gated capability was invoked
	// without its Features flag enabled.
	KindFeatureUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindStorage:
		return "storage"
	case KindSerialization:
		return "serialization"
	case KindNotFound:
		return "not_found"
	case KindDimensionMismatch:
		return "dimension_mismatch"
	case KindQueryParse:
		return "query_parse"
	case KindFeatureUnavailable:
		return "feature_unavailable"
	default:
		return "unknown"
	}
}

// Sentinel errors usable with errors.Is. Error.Unwrap returns one of these
// so callers can test the kind without importing ErrorKind constants.
var (
	ErrStorage            = errors.New("kronroe: storage error")
	ErrSerialization      = errors.New("kronroe: serialization error")
	ErrNotFound           = errors.New("kronroe: fact not found")
	ErrDimensionMismatch  = errors.New("kronroe: embedding dimension mismatch")
	ErrQueryParse         = errors.New("kronroe: query parse error")
	ErrFeatureUnavailable = errors.New("kronroe: feature not enabled")
)

var sentinelByKind = map[ErrorKind]error{
	KindStorage:            ErrStorage,
	KindSerialization:      ErrSerialization,
	KindNotFound:           ErrNotFound,
	KindDimensionMismatch:  ErrDimensionMismatch,
	KindQueryParse:         ErrQueryParse,
	KindFeatureUnavailable: ErrFeatureUnavailable,
}

// Error is the typed error kronroe operations return. Op names the failing
// operation (e.g. "AssertFact", "FactByID") for diagnostics.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return "kronroe: " + e.Op + ": " + e.Kind.String() + ": " + e.Err.Error()
	}
	return "kronroe: " + e.Op + ": " + e.Kind.String()
}

// Unwrap exposes the underlying cause, and the sentinel for the kind, so
// errors.Is(err, kronroe.ErrNotFound) and errors.As(err, &kronroe.Error{})
// both work.
func (e *Error) Unwrap() []error {
	sentinel := sentinelByKind[e.Kind]
	if e.Err != nil && e.Err != sentinel {
		return []error{sentinel, e.Err}
	}
	return []error{sentinel}
}

func newErr(kind ErrorKind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

func storageErr(op string, cause error) *Error      { return newErr(KindStorage, op, cause) }
func serializationErr(op string, cause error) *Error { return newErr(KindSerialization, op, cause) }
func notFoundErr(op string, cause error) *Error      { return newErr(KindNotFound, op, cause) }
func dimensionMismatchErr(op string, cause error) *Error {
	return newErr(KindDimensionMismatch, op, cause)
}
func queryParseErr(op string, cause error) *Error { return newErr(KindQueryParse, op, cause) }
func featureUnavailableErr(op, feature string) *Error {
	return newErr(KindFeatureUnavailable, op, errors.New("capability not enabled: "+feature))
}
