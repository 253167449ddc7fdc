package builtins

import "github.com/epochflow/engine/internal/value"

// toFloats extracts a []float64 view of a decimal column for feeding into
// go-talib, which operates on plain float64 slices.
func toFloats(col []value.Value) []float64 {
	out := make([]float64, len(col))
	for i, v := range col {
		f, _ := v.AsDecimal()
		out[i] = f
	}
	return out
}

// isNaN checks if a float64 is NaN.
func isNaN(f float64) bool {
	return f != f
}

// decimalsWithWarmup converts a go-talib output series back into
// value.Values, nulling out every index before warmup (the declared
// lookback period) regardless of what the library itself filled in there,
// and nulling any individual NaN the library produced past warmup.
func decimalsWithWarmup(series []float64, warmup int) []value.Value {
	out := make([]value.Value, len(series))
	for i, f := range series {
		if i < warmup || isNaN(f) {
			out[i] = value.MustNull(value.KindDecimal)
			continue
		}
		out[i] = value.Decimal(f)
	}
	return out
}
