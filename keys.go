package kronroe

import "strings"

// Key layout for the facts table. Prefix-scanning by subjectPrefix yields
// all facts about one entity; scanning by subjectPredicatePrefix yields the
// time series for one attribute; the trailing FactId orders within a
// series by creation time, since FactId is itself lexicographically
// time-ordered.

func factKey(subject, predicate string, id FactId) string {
	return subject + ":" + predicate + ":" + string(id)
}

func subjectPrefix(subject string) string {
	return subject + ":"
}

func subjectPredicatePrefix(subject, predicate string) string {
	return subject + ":" + predicate + ":"
}

// splitFactKey recovers subject and predicate from a facts-table key,
// which is always "<subject>:<predicate>:<fact_id>". The FactId is taken
// as the known-length suffix; the rest is split at its last ':', so a
// colon inside the subject or predicate makes the split ambiguous: every
// colon but the last is kept in the subject.
func splitFactKey(key string) (subject, predicate string, id FactId, ok bool) {
	const idLen = 26 // ULID length
	if len(key) < idLen+2 {
		return "", "", "", false
	}
	id = FactId(key[len(key)-idLen:])
	rest := key[:len(key)-idLen-1] // drop the ':' before the id too
	sep := strings.LastIndexByte(rest, ':')
	if sep < 0 {
		return "", "", "", false
	}
	return rest[:sep], rest[sep+1:], id, true
}
