// Package stats aggregates normalized game histories into matchup and
// card performance tables.
package stats

import (
	"math"
	"strconv"
)

// Stat is a statistic that may be undefined, such as the standard
// deviation of a single game. Undefined values are never NaN.
type Stat struct {
	Value   float64
	Defined bool
}

// Of returns a defined statistic.
func Of(v float64) Stat {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Undefined()
	}
	return Stat{Value: v, Defined: true}
}

// Undefined returns the sentinel for a statistic with no value.
func Undefined() Stat {
	return Stat{}
}

// Or returns the value, or fallback when undefined.
func (s Stat) Or(fallback float64) float64 {
	if !s.Defined {
		return fallback
	}
	return s.Value
}

func (s Stat) String() string {
	if !s.Defined {
		return "n/a"
	}
	return strconv.FormatFloat(s.Value, 'f', 2, 64)
}

// MarshalJSON encodes undefined values as null.
func (s Stat) MarshalJSON() ([]byte, error) {
	if !s.Defined {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, s.Value, 'g', -1, 64), nil
}

// UnmarshalJSON accepts a number or null.
func (s *Stat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = Undefined()
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*s = Of(v)
	return nil
}

// Reducer folds the present values of a column into one statistic.
type Reducer func(values []float64) Stat

// Sum adds the values. An empty column sums to zero.
func Sum(values []float64) Stat {
	var total float64
	for _, v := range values {
		total += v
	}
	return Of(total)
}

// Count returns the number of present values.
func Count(values []float64) Stat {
	return Of(float64(len(values)))
}

// Mean returns the arithmetic mean, undefined for an empty column.
func Mean(values []float64) Stat {
	if len(values) == 0 {
		return Undefined()
	}
	return Of(Sum(values).Value / float64(len(values)))
}

// StdDev returns the sample standard deviation (n-1 denominator),
// undefined for fewer than two values.
func StdDev(values []float64) Stat {
	if len(values) < 2 {
		return Undefined()
	}
	mean := Mean(values).Value
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return Of(math.Sqrt(sq / float64(len(values)-1)))
}

// Ratio divides two statistics, undefined when either side is undefined
// or the denominator is zero.
func Ratio(num, den Stat) Stat {
	if !num.Defined || !den.Defined || den.Value == 0 {
		return Undefined()
	}
	return Of(num.Value / den.Value)
}
