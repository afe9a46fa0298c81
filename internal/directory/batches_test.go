package directory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortKey(t *testing.T) {
	tests := []struct {
		name string
		want BatchKey
	}{
		{"Winter 2021", BatchKey{2021, 0}},
		{"Spring 2025", BatchKey{2025, 1}},
		{"Summer 2005", BatchKey{2005, 2}},
		{"Fall 2024", BatchKey{2024, 3}},
		{"Unspecified", BatchKey{0, 4}},
		{"2019 Winter", BatchKey{2019, 0}},
		{"Batch 123456", BatchKey{1234, 4}},
		{"winter 2020", BatchKey{2020, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SortKey(tt.name))
		})
	}
}

func TestKnownBatches(t *testing.T) {
	batches, err := KnownBatches()
	require.NoError(t, err)
	require.Len(t, batches, 43)

	assert.Equal(t, Batch{Name: "Winter 2012", Count: 66, URL: "https://yc-oss.github.io/api/batches/winter-2012.json"}, batches[0])

	// Every call hands out its own copy.
	batches[0].Name = "mutated"
	again, err := KnownBatches()
	require.NoError(t, err)
	assert.Equal(t, "Winter 2012", again[0].Name)
}

func TestSortBatches(t *testing.T) {
	batches, err := KnownBatches()
	require.NoError(t, err)

	SortBatches(batches)

	for i := 1; i < len(batches); i++ {
		prev, cur := SortKey(batches[i-1].Name), SortKey(batches[i].Name)
		assert.LessOrEqual(t, prev.Compare(cur), 0, "%s sorted after %s", batches[i-1].Name, batches[i].Name)
	}

	// No parsable year sorts as year zero, ahead of everything.
	assert.Equal(t, "Unspecified", batches[0].Name)
	assert.Equal(t, "Summer 2005", batches[1].Name)
	assert.Equal(t, "Spring 2025", batches[len(batches)-1].Name)
}

func TestSortBatches_StableForTies(t *testing.T) {
	batches := []Batch{
		{Name: "Summer 2020 (b)"},
		{Name: "Winter 2020"},
		{Name: "Summer 2020 (a)"},
		{Name: "Other"},
		{Name: "Misc"},
	}

	SortBatches(batches)

	got := make([]string, 0, len(batches))
	for _, b := range batches {
		got = append(got, b.Name)
	}
	assert.Equal(t, []string{"Other", "Misc", "Winter 2020", "Summer 2020 (b)", "Summer 2020 (a)"}, got)
}

func TestFilterBatches_MatchesPredicateExactly(t *testing.T) {
	all, err := KnownBatches()
	require.NoError(t, err)
	SortBatches(all)

	for _, query := range []string{"2021", "winter", "WINTER", "Fall", "un", "", "nothing"} {
		t.Run(query, func(t *testing.T) {
			got := FilterBatches(all, query)
			require.NotNil(t, got)

			var want []Batch
			for _, b := range all {
				if strings.Contains(strings.ToLower(b.Name), strings.ToLower(query)) {
					want = append(want, b)
				}
			}
			if want == nil {
				want = []Batch{}
			}
			assert.Equal(t, want, got)
		})
	}
}
