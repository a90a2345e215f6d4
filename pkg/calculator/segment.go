package calculator

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"rfm-dashboard/pkg/models"

	"github.com/shopspring/decimal"
)

var (
	ErrDegenerateQuartiles = errors.New("quartiles de Monetary impossibles")
	ErrUnknownSegment      = errors.New("segment inconnu")
)

var quantiles = []decimal.Decimal{
	decimal.Zero,
	decimal.RequireFromString("0.25"),
	decimal.RequireFromString("0.5"),
	decimal.RequireFromString("0.75"),
	decimal.NewFromInt(1),
}

// Cutpoints renvoie les 5 bornes (min, Q1, Q2, Q3, max) par interpolation linéaire
// entre rangs, h = (n-1)*q. Moins de 4 valeurs distinctes ou deux bornes égales
// → ErrDegenerateQuartiles.
func Cutpoints(values []decimal.Decimal) ([]decimal.Decimal, error) {
	sorted := make([]decimal.Decimal, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	distinct := 0
	for i, v := range sorted {
		if i == 0 || !v.Equal(sorted[i-1]) {
			distinct++
		}
	}
	if distinct < len(quantiles)-1 {
		return nil, fmt.Errorf("%w: %d valeur(s) distincte(s), 4 requises", ErrDegenerateQuartiles, distinct)
	}

	n := decimal.NewFromInt(int64(len(sorted) - 1))
	cuts := make([]decimal.Decimal, len(quantiles))
	for i, q := range quantiles {
		h := n.Mul(q)
		lo := h.Floor()
		idx := int(lo.IntPart())
		c := sorted[idx]
		if idx+1 < len(sorted) {
			c = c.Add(sorted[idx+1].Sub(c).Mul(h.Sub(lo)))
		}
		cuts[i] = c
	}
	for i := 1; i < len(cuts); i++ {
		if !cuts[i].GreaterThan(cuts[i-1]) {
			return nil, fmt.Errorf("%w: bornes non uniques %s", ErrDegenerateQuartiles, cuts)
		}
	}
	return cuts, nil
}

// Classify affecte un segment à chaque ligne, sur une copie.
// Classes fermées à droite (c[i] ; c[i+1]], la première inclut le minimum :
// une valeur égale à une borne tombe dans la classe inférieure.
// Population vide : pas d'erreur, pas de bornes.
func Classify(metrics []models.CustomerMetric) ([]models.CustomerMetric, []decimal.Decimal, error) {
	out := make([]models.CustomerMetric, len(metrics))
	copy(out, metrics)
	if len(out) == 0 {
		return out, nil, nil
	}

	values := make([]decimal.Decimal, len(out))
	for i, m := range out {
		values[i] = m.Monetary
	}
	cuts, err := Cutpoints(values)
	if err != nil {
		return nil, nil, err
	}

	for i := range out {
		out[i].Segment = bucket(out[i].Monetary, cuts)
	}
	return out, cuts, nil
}

func bucket(v decimal.Decimal, cuts []decimal.Decimal) models.Segment {
	for i := 1; i < len(cuts)-1; i++ {
		if v.LessThanOrEqual(cuts[i]) {
			return models.Segments[i-1]
		}
	}
	return models.SegmentVeryHigh
}

// FilterSegment renvoie les lignes du segment choisi, ou tout pour "All".
func FilterSegment(metrics []models.CustomerMetric, selector string) ([]models.CustomerMetric, error) {
	if strings.EqualFold(strings.TrimSpace(selector), models.AllSegments) {
		return metrics, nil
	}
	seg, ok := models.ParseSegment(selector)
	if !ok {
		return nil, fmt.Errorf("%w: %q (attendu: %s)", ErrUnknownSegment, selector, strings.Join(SegmentChoices(), ", "))
	}
	out := make([]models.CustomerMetric, 0)
	for _, m := range metrics {
		if m.Segment == seg {
			out = append(out, m)
		}
	}
	return out, nil
}

// SegmentChoices : "All" suivi des quatre labels, dans l'ordre.
func SegmentChoices() []string {
	out := []string{models.AllSegments}
	for _, s := range models.Segments {
		out = append(out, s.String())
	}
	return out
}

// SegmentSizes compte les lignes par label (les quatre labels sont toujours présents).
func SegmentSizes(metrics []models.CustomerMetric) map[string]int {
	sizes := make(map[string]int, len(models.Segments))
	for _, s := range models.Segments {
		sizes[s.String()] = 0
	}
	for _, m := range metrics {
		sizes[m.Segment.String()]++
	}
	return sizes
}
