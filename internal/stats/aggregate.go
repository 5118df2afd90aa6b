package stats

// Column extracts a numeric value from a row. ok is false when the value
// is missing, in which case reducers skip it.
type Column[R any] func(row R) (value float64, ok bool)

// Aggregation names one output statistic: the column it reads and the
// reducer applied to the group's values.
type Aggregation[R any] struct {
	Name   string
	Column Column[R]
	Reduce Reducer
}

// Group is one grouping key with its rows and computed statistics.
type Group[K comparable, R any] struct {
	Key   K
	Rows  []R
	Stats map[string]Stat
}

// Stat returns a named statistic, undefined if it was not computed.
func (g Group[K, R]) Stat(name string) Stat {
	s, ok := g.Stats[name]
	if !ok {
		return Undefined()
	}
	return s
}

// Aggregate groups rows by key and evaluates every aggregation per group.
// Groups are returned in the order their keys first appear.
func Aggregate[K comparable, R any](rows []R, key func(R) K, aggs []Aggregation[R]) []Group[K, R] {
	index := make(map[K]int)
	var groups []Group[K, R]

	for _, row := range rows {
		k := key(row)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[K, R]{Key: k})
		}
		groups[i].Rows = append(groups[i].Rows, row)
	}

	for i := range groups {
		groups[i].Stats = make(map[string]Stat, len(aggs))
		for _, agg := range aggs {
			values := make([]float64, 0, len(groups[i].Rows))
			for _, row := range groups[i].Rows {
				if v, ok := agg.Column(row); ok {
					values = append(values, v)
				}
			}
			groups[i].Stats[agg.Name] = agg.Reduce(values)
		}
	}

	return groups
}

// Constant is a column that is 1 for every row, for counting.
func Constant[R any](row R) (float64, bool) {
	return 1, true
}

// Flag turns a boolean into a 0/1 column.
func Flag[R any](pred func(R) bool) Column[R] {
	return func(row R) (float64, bool) {
		if pred(row) {
			return 1, true
		}
		return 0, true
	}
}
