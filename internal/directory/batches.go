package directory

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// The batch list is maintained by hand and can lag behind the live dataset.
//
//go:embed batches.json
var batchesJSON []byte

var yearPattern = regexp.MustCompile(`\d{4}`)

// KnownBatches decodes a fresh copy of the embedded batch list, in file
// order.
func KnownBatches() ([]Batch, error) {
	var batches []Batch
	if err := json.Unmarshal(batchesJSON, &batches); err != nil {
		return nil, &QueryError{
			Op:      OpListAllBatches,
			Message: fmt.Sprintf("decoding embedded batch list: %v", err),
			Err:     err,
		}
	}
	return batches, nil
}

// BatchKey orders batches chronologically.
type BatchKey struct {
	Year   int
	Season int
}

// Compare orders keys by year, then season.
func (k BatchKey) Compare(o BatchKey) int {
	if k.Year != o.Year {
		return k.Year - o.Year
	}
	return k.Season - o.Season
}

// SortKey derives a batch's key from its name. The year is the first run of
// four digits (0 when absent); seasons rank Winter, Spring, Summer, Fall and
// anything else last.
func SortKey(name string) BatchKey {
	var key BatchKey
	if m := yearPattern.FindString(name); m != "" {
		key.Year, _ = strconv.Atoi(m)
	}
	switch {
	case strings.Contains(name, "Winter"):
		key.Season = 0
	case strings.Contains(name, "Spring"):
		key.Season = 1
	case strings.Contains(name, "Summer"):
		key.Season = 2
	case strings.Contains(name, "Fall"):
		key.Season = 3
	default:
		key.Season = 4
	}
	return key
}

// SortBatches sorts in place by SortKey. Equal keys keep their input order.
func SortBatches(batches []Batch) {
	slices.SortStableFunc(batches, func(a, b Batch) int {
		return SortKey(a.Name).Compare(SortKey(b.Name))
	})
}

// FilterBatches returns the batches whose name contains query, ignoring case.
func FilterBatches(batches []Batch, query string) []Batch {
	needle := strings.ToLower(query)
	matches := []Batch{}
	for _, b := range batches {
		if strings.Contains(strings.ToLower(b.Name), needle) {
			matches = append(matches, b)
		}
	}
	return matches
}
