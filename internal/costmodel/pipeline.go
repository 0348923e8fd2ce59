package costmodel

import (
	"math"
	"sort"
)

// Pipeline holds the fitted feature transform: median imputation and
// standardization for numeric columns, most-frequent imputation and one-hot
// encoding for categorical columns. Categories unseen at fit time encode as
// all zeros.
type Pipeline struct {
	NumericFeatures     []string   `json:"numeric_features"`
	Medians             []float64  `json:"medians"`
	Means               []float64  `json:"means"`
	Scales              []float64  `json:"scales"`
	CategoricalFeatures []string   `json:"categorical_features"`
	Modes               []string   `json:"modes"`
	Categories          [][]string `json:"categories"`
}

// FitPipeline learns the transform parameters from the training rows.
func FitPipeline(obs []Observation) *Pipeline {
	p := &Pipeline{
		NumericFeatures:     append([]string(nil), NumericFeatures...),
		CategoricalFeatures: append([]string(nil), CategoricalFeatures...),
	}

	for j := range p.NumericFeatures {
		col := make([]float64, 0, len(obs))
		for _, o := range obs {
			if v := o.numeric()[j]; !math.IsNaN(v) {
				col = append(col, v)
			}
		}
		med := 0.0
		if len(col) > 0 {
			med = median(col)
		}

		var sum float64
		for _, o := range obs {
			sum += imputeNumeric(o.numeric()[j], med)
		}
		mean := 0.0
		if len(obs) > 0 {
			mean = sum / float64(len(obs))
		}
		var ss float64
		for _, o := range obs {
			d := imputeNumeric(o.numeric()[j], med) - mean
			ss += d * d
		}
		scale := 1.0
		if len(obs) > 0 {
			if std := math.Sqrt(ss / float64(len(obs))); std > 1e-12 {
				scale = std
			}
		}

		p.Medians = append(p.Medians, med)
		p.Means = append(p.Means, mean)
		p.Scales = append(p.Scales, scale)
	}

	for j := range p.CategoricalFeatures {
		counts := make(map[string]int)
		for _, o := range obs {
			if v := o.categorical()[j]; v != "" {
				counts[v]++
			}
		}
		mode := mostFrequent(counts)

		seen := make(map[string]bool)
		for _, o := range obs {
			seen[imputeCategorical(o.categorical()[j], mode)] = true
		}
		cats := make([]string, 0, len(seen))
		for c := range seen {
			cats = append(cats, c)
		}
		sort.Strings(cats)

		p.Modes = append(p.Modes, mode)
		p.Categories = append(p.Categories, cats)
	}
	return p
}

// Transform maps one observation to the model's feature vector.
func (p *Pipeline) Transform(o Observation) []float64 {
	out := make([]float64, 0, p.Width())
	num := o.numeric()
	for j := range p.NumericFeatures {
		v := imputeNumeric(num[j], p.Medians[j])
		out = append(out, (v-p.Means[j])/p.Scales[j])
	}
	cat := o.categorical()
	for j, cats := range p.Categories {
		v := imputeCategorical(cat[j], p.Modes[j])
		for _, c := range cats {
			if c == v {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		}
	}
	return out
}

// Width is the length of a transformed feature vector.
func (p *Pipeline) Width() int {
	w := len(p.NumericFeatures)
	for _, cats := range p.Categories {
		w += len(cats)
	}
	return w
}

// FeatureNames names every column of a transformed vector.
func (p *Pipeline) FeatureNames() []string {
	names := make([]string, 0, p.Width())
	for _, f := range p.NumericFeatures {
		names = append(names, "num__"+f)
	}
	for j, cats := range p.Categories {
		for _, c := range cats {
			names = append(names, "cat__"+p.CategoricalFeatures[j]+"_"+c)
		}
	}
	return names
}

func (p *Pipeline) valid() bool {
	n := len(p.NumericFeatures)
	return n == len(NumericFeatures) &&
		len(p.Medians) == n && len(p.Means) == n && len(p.Scales) == n &&
		len(p.CategoricalFeatures) == len(CategoricalFeatures) &&
		len(p.Modes) == len(p.CategoricalFeatures) &&
		len(p.Categories) == len(p.CategoricalFeatures)
}

func imputeNumeric(v, median float64) float64 {
	if math.IsNaN(v) {
		return median
	}
	return v
}

func imputeCategorical(v, mode string) string {
	if v == "" {
		return mode
	}
	return v
}

// mostFrequent breaks ties towards the lexically smallest value.
func mostFrequent(counts map[string]int) string {
	best, bestN := "", 0
	for v, n := range counts {
		if n > bestN || (n == bestN && v < best) {
			best, bestN = v, n
		}
	}
	return best
}

func median(xs []float64) float64 {
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}
