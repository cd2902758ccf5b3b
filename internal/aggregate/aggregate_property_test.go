package aggregate

import (
	"math"
	"sort"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func drawRows(t *rapid.T) []Row {
	n := rapid.IntRange(0, 200).Draw(t, "n")
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{
			Key:   rapid.SampledFrom([]string{"rag_search", "rag_index", "summarize", "embed"}).Draw(t, "key"),
			Value: float64(rapid.IntRange(0, 1_000_000).Draw(t, "value")),
			Time:  base.Add(time.Duration(i) * time.Second),
			Ref:   i,
		}
	}
	return rows
}

// TestProperty_GroupSumsEqualTotal verifies that per-group counts and sums
// always add up to the whole-set totals.
func TestProperty_GroupSumsEqualTotal(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rows := drawRows(t)
		res := Aggregate(rows, Options{})

		if res.Count != len(rows) {
			t.Fatalf("expected count %d, got %d", len(rows), res.Count)
		}
		var count int
		var sum float64
		for _, g := range res.Groups {
			count += g.Count
			sum += g.Sum
		}
		if count != res.Count {
			t.Fatalf("group counts add to %d, total is %d", count, res.Count)
		}
		if math.Abs(sum-res.Sum) > 1e-6 {
			t.Fatalf("group sums add to %v, total is %v", sum, res.Sum)
		}
	})
}

// TestProperty_PercentilesAreMembersAndOrdered verifies that each reported
// percentile is a member of the sample and that P50 <= P95 <= P99.
func TestProperty_PercentilesAreMembersAndOrdered(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rows := drawRows(t)
		if len(rows) == 0 {
			return
		}
		res := Aggregate(rows, Options{Percentiles: true})

		values := make([]float64, len(rows))
		for i, row := range rows {
			values[i] = row.Value
		}
		sort.Float64s(values)

		member := func(v float64) bool {
			i := sort.SearchFloat64s(values, v)
			return i < len(values) && values[i] == v
		}
		for _, p := range []float64{res.P50, res.P95, res.P99} {
			if !member(p) {
				t.Fatalf("percentile %v is not a sample member", p)
			}
		}
		if res.P50 > res.P95 || res.P95 > res.P99 {
			t.Fatalf("percentiles out of order: %v, %v, %v", res.P50, res.P95, res.P99)
		}
	})
}

// TestProperty_TopNIsMaximal verifies that no excluded row has a value
// strictly greater than any selected row.
func TestProperty_TopNIsMaximal(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rows := drawRows(t)
		n := rapid.IntRange(1, 20).Draw(t, "topn")

		top := TopN(rows, n)
		if len(rows) <= n && len(top) != len(rows) {
			t.Fatalf("expected all %d rows, got %d", len(rows), len(top))
		}
		if len(top) == 0 {
			return
		}

		selected := make(map[int]bool, len(top))
		min := math.Inf(1)
		for _, row := range top {
			selected[row.Ref] = true
			if row.Value < min {
				min = row.Value
			}
		}
		for _, row := range rows {
			if !selected[row.Ref] && row.Value > min {
				t.Fatalf("excluded row %d with value %v beats selected minimum %v", row.Ref, row.Value, min)
			}
		}
	})
}
