// Package aggregate computes grouped statistics over in-memory record
// slices: per-group counts, sums, and maxima, nearest-rank percentiles
// over the whole filtered set, and top-N selection. Grouping and sorting
// are explicit so tie-break behavior is exact and deterministic.
package aggregate

import (
	"math"
	"sort"
	"time"
)

// Row is one record projected onto the dimensions the aggregator needs: a
// group key, a numeric value, a timestamp, and the record's position in
// original log order (used for deterministic tie-breaks).
type Row struct {
	Key   string
	Value float64
	Time  time.Time
	Ref   int
}

// GroupStat summarizes one group.
type GroupStat struct {
	Key   string
	Count int
	Sum   float64
	Max   float64
}

// Result is the output of Aggregate. A zero-sized input produces a
// zero-value Result rather than an error: "no data" is a defined outcome.
type Result struct {
	Count  int
	Sum    float64
	Groups []GroupStat

	// Percentiles over the entire filtered set, populated only when
	// requested.
	P50 float64
	P95 float64
	P99 float64
}

// Options controls an aggregation pass.
type Options struct {
	Percentiles bool
}

// Aggregate groups rows by key and computes count, sum, and max per group.
// Groups are ordered by descending sum, ties broken by ascending key.
// When requested, P50/P95/P99 are computed over the sorted values of the
// whole set, not per group.
func Aggregate(rows []Row, opts Options) Result {
	var res Result
	if len(rows) == 0 {
		return res
	}

	groups := make(map[string]*GroupStat)
	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		res.Count++
		res.Sum += row.Value
		values = append(values, row.Value)

		g, ok := groups[row.Key]
		if !ok {
			g = &GroupStat{Key: row.Key, Max: math.Inf(-1)}
			groups[row.Key] = g
		}
		g.Count++
		g.Sum += row.Value
		if row.Value > g.Max {
			g.Max = row.Value
		}
	}

	res.Groups = make([]GroupStat, 0, len(groups))
	for _, g := range groups {
		res.Groups = append(res.Groups, *g)
	}
	sort.Slice(res.Groups, func(i, j int) bool {
		if res.Groups[i].Sum != res.Groups[j].Sum {
			return res.Groups[i].Sum > res.Groups[j].Sum
		}
		return res.Groups[i].Key < res.Groups[j].Key
	})

	if opts.Percentiles {
		sort.Float64s(values)
		res.P50 = Percentile(values, 0.50)
		res.P95 = Percentile(values, 0.95)
		res.P99 = Percentile(values, 0.99)
	}

	return res
}

// Percentile selects the nearest-rank value from an already sorted sample:
// index = floor(p * n), clamped to [0, n-1]. An empty sample yields 0.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(math.Floor(p * float64(n)))
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}

// TopN returns the n rows with the largest values, ties broken by original
// log order (earlier record first). The input is not modified.
func TopN(rows []Row, n int) []Row {
	if n <= 0 || len(rows) == 0 {
		return nil
	}
	out := make([]Row, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value > out[j].Value
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
