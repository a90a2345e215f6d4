package calculator

import (
	"math"
	"sort"

	"rfm-dashboard/pkg/models"
)

// TopN compte les valeurs, tri par effectif décroissant puis valeur croissante.
// n <= 0 → tout.
func TopN(values []string, n int) []models.ValueCount {
	counts := make(map[string]int)
	for _, v := range values {
		counts[v]++
	}
	out := make([]models.ValueCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, models.ValueCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// columns extrait R, F, M en float64, dans cet ordre.
func columns(metrics []models.CustomerMetric) [3][]float64 {
	var cols [3][]float64
	for i := range cols {
		cols[i] = make([]float64, len(metrics))
	}
	for i, m := range metrics {
		cols[0][i] = float64(m.Recency)
		cols[1][i] = float64(m.Frequency)
		cols[2][i] = m.Monetary.InexactFloat64()
	}
	return cols
}

var columnNames = []string{"Recency", "Frequency", "Monetary"}

func Summarize(metrics []models.CustomerMetric) models.Summary {
	cols := columns(metrics)
	return models.Summary{
		Count:     len(metrics),
		Recency:   stat(cols[0]),
		Frequency: stat(cols[1]),
		Monetary:  stat(cols[2]),
	}
}

func stat(xs []float64) models.Stat {
	if len(xs) == 0 {
		return models.Stat{}
	}
	s := models.Stat{Min: xs[0], Max: xs[0]}
	sum := 0.0
	for _, x := range xs {
		s.Min = math.Min(s.Min, x)
		s.Max = math.Max(s.Max, x)
		sum += x
	}
	s.Mean = sum / float64(len(xs))
	return s
}

// Correlation : matrice de Pearson 3x3 sur Recency, Frequency, Monetary.
// Variance nulle ou moins de 2 lignes → NaN (sérialisé null).
func Correlation(metrics []models.CustomerMetric) models.CorrMatrix {
	cols := columns(metrics)
	values := make([][]models.NullFloat, len(cols))
	for i := range cols {
		values[i] = make([]models.NullFloat, len(cols))
		for j := range cols {
			values[i][j] = models.NullFloat(pearson(cols[i], cols[j]))
		}
	}
	return models.CorrMatrix{Columns: append([]string(nil), columnNames...), Values: values}
}

func pearson(xs, ys []float64) float64 {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return math.NaN()
	}
	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= float64(n)
	my /= float64(n)
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return math.NaN()
	}
	r := sxy / math.Sqrt(sxx*syy)
	// bornage contre les erreurs d'arrondi
	return math.Max(-1, math.Min(1, r))
}

// Histogram : classes de largeur égale sur [min ; max], la dernière fermée.
// Si min == max, l'intervalle est élargi à [min-0.5 ; max+0.5].
func Histogram(xs []float64, bins int) models.Histogram {
	if len(xs) == 0 || bins <= 0 {
		return models.Histogram{Edges: []float64{}, Counts: []int{}}
	}
	lo, hi := xs[0], xs[0]
	for _, x := range xs {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(bins)
	h := models.Histogram{Edges: make([]float64, bins+1), Counts: make([]int, bins)}
	for i := range h.Edges {
		h.Edges[i] = lo + float64(i)*width
	}
	h.Edges[bins] = hi
	for _, x := range xs {
		idx := int((x - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		h.Counts[idx]++
	}
	return h
}

// Histograms calcule les trois distributions affichées par le tableau de bord.
func Histograms(metrics []models.CustomerMetric, bins int) map[string]models.Histogram {
	cols := columns(metrics)
	out := make(map[string]models.Histogram, len(cols))
	for i, name := range columnNames {
		out[name] = Histogram(cols[i], bins)
	}
	return out
}
