package chart

import (
	"math"
	"sort"
	"strconv"
)

// Bins buckets values into ceil(log2 n)+1 equal-width bins (Sturges' rule).
// Each point is labelled with its lower and upper edge.
func Bins(values []float64) []Point {
	if len(values) == 0 {
		return nil
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		return []Point{{Label: label(lo), Value: float64(len(values))}}
	}

	k := int(math.Ceil(math.Log2(float64(len(values))))) + 1
	width := (hi - lo) / float64(k)

	points := make([]Point, k)
	for i := range points {
		from := lo + float64(i)*width
		points[i].Label = label(from) + "-" + label(from+width)
	}
	for _, v := range sorted {
		i := int((v - lo) / width)
		if i >= k {
			i = k - 1
		}
		points[i].Value++
	}
	return points
}

func label(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
