package table

import (
	"math"
	"sort"
)

// Sum adds the non-null values of a numeric column.
func (c *Column) Sum() float64 {
	var total float64
	for _, v := range c.Floats() {
		total += v
	}
	return total
}

// Mean averages the non-null values of a numeric column. NaN when there are none.
func (c *Column) Mean() float64 {
	vals := c.Floats()
	if len(vals) == 0 {
		return math.NaN()
	}
	var total float64
	for _, v := range vals {
		total += v
	}
	return total / float64(len(vals))
}

// Count is one entry of a frequency table.
type Count struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ValueCounts tallies the non-null stringified values of c, most frequent
// first. Ties keep first-appearance order.
func (c *Column) ValueCounts() []Count {
	index := make(map[string]int)
	var counts []Count
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			continue
		}
		v := c.String(i)
		if j, ok := index[v]; ok {
			counts[j].Count++
			continue
		}
		index[v] = len(counts)
		counts = append(counts, Count{Value: v, Count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	return counts
}

// Group is one bucket of a grouped aggregation.
type Group struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// GroupSum sums measure per distinct value of group. Rows with a null group
// are dropped, null measures contribute nothing. Groups are sorted by key,
// numerically when the group column is numeric.
func (t *Table) GroupSum(group, measure *Column) []Group {
	index := make(map[string]int)
	var groups []Group
	var keys []float64

	for i := 0; i < t.rows; i++ {
		if group.IsNull(i) {
			continue
		}
		key := group.String(i)
		j, ok := index[key]
		if !ok {
			j = len(groups)
			index[key] = j
			groups = append(groups, Group{Key: key})
			k, _ := group.Float(i)
			keys = append(keys, k)
		}
		groups[j].Count++
		if v, ok := measure.Float(i); ok {
			groups[j].Value += v
		}
	}

	order := make([]int, len(groups))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if group.IsNumeric() {
			return keys[order[a]] < keys[order[b]]
		}
		return groups[order[a]].Key < groups[order[b]].Key
	})

	sorted := make([]Group, len(groups))
	for i, j := range order {
		sorted[i] = groups[j]
	}
	return sorted
}
