package analysis

import (
	"math"
	"sort"
	"strconv"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// finite maps NaN and ±Inf to 0 so results always encode as plain numbers.
func finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

func format2(x float64) string { return strconv.FormatFloat(finite(x), 'f', 2, 64) }

// Descriptive is a describe()-style summary of one numeric column. Std is the
// sample standard deviation and quartiles use linear interpolation.
type Descriptive struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	P25   float64 `json:"25%"`
	P50   float64 `json:"50%"`
	P75   float64 `json:"75%"`
	Max   float64 `json:"max"`
}

// CV returns std/mean, or 0 when the mean is 0.
func (d Descriptive) CV() float64 {
	if d.Mean == 0 {
		return 0
	}
	return finite(d.Std / d.Mean)
}

func describe(vals []float64) Descriptive {
	d := Descriptive{Count: len(vals)}
	if len(vals) == 0 {
		return d
	}
	d.Mean, d.Std = moments(vals)
	d.Min, _ = stats.Min(vals)
	d.Max, _ = stats.Max(vals)

	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	d.P25 = quantile(sorted, 0.25)
	d.P50 = quantile(sorted, 0.5)
	d.P75 = quantile(sorted, 0.75)

	d.Mean, d.Std, d.Min, d.Max = finite(d.Mean), finite(d.Std), finite(d.Min), finite(d.Max)
	d.P25, d.P50, d.P75 = finite(d.P25), finite(d.P50), finite(d.P75)
	return d
}

// moments returns the mean and sample standard deviation. When the direct
// sums overflow, both are computed on values scaled into [-1, 1].
func moments(vals []float64) (mean, std float64) {
	mean, _ = stats.Mean(vals)
	if len(vals) > 1 {
		std, _ = stats.StandardDeviationSample(vals)
	}
	if isFinite(mean) && isFinite(std) {
		return mean, std
	}
	scaled, s := scaleDown(vals)
	mean, _ = stats.Mean(scaled)
	if len(vals) > 1 {
		std, _ = stats.StandardDeviationSample(scaled)
	}
	return mean * s, std * s
}

func isFinite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

// scaleDown divides vals by their largest magnitude when it is big enough for
// squares or sums to overflow. It returns the values and the scale used.
func scaleDown(vals []float64) ([]float64, float64) {
	s := floats.Norm(vals, math.Inf(1))
	if s <= 1e150 {
		return vals, 1
	}
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = v / s
	}
	return out, s
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// degenerate reports whether the spread of vals is zero for practical purposes.
func degenerate(vals []float64) bool {
	mean, std := stat.MeanStdDev(vals, nil)
	return !(std > 1e-12*math.Max(1, math.Abs(mean)))
}

// skewness is the adjusted Fisher-Pearson coefficient (G1); 0 for fewer than
// three values or zero spread.
func skewness(vals []float64) float64 {
	vals, _ = scaleDown(vals)
	if len(vals) < 3 || degenerate(vals) {
		return 0
	}
	return finite(stat.Skew(vals, nil))
}

// kurtosis is the bias-adjusted excess kurtosis (G2); 0 for fewer than four
// values or zero spread.
func kurtosis(vals []float64) float64 {
	vals, _ = scaleDown(vals)
	if len(vals) < 4 || degenerate(vals) {
		return 0
	}
	return finite(stat.ExKurtosis(vals, nil))
}

// pearson returns the correlation of paired samples, 0 when undefined.
func pearson(x, y []float64) float64 {
	x, _ = scaleDown(x)
	y, _ = scaleDown(y)
	if len(x) < 2 || len(x) != len(y) || degenerate(x) || degenerate(y) {
		return 0
	}
	r := finite(stat.Correlation(x, y, nil))
	return math.Max(-1, math.Min(1, r))
}
