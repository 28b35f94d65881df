package main

import (
	"strconv"
	"strings"

	"github.com/kronroe-db/kronroe"
)

func parseFactID(s string) kronroe.FactId {
	return kronroe.FactId(s)
}

// parseVector parses a comma-separated list of floats, the CLI's plain-text
// encoding for a query embedding (there is no natural way to pass a []float32
// as a single shell argument otherwise).
func parseVector(s string) ([]float32, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}
