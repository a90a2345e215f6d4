package calculator

import (
	"context"
	"fmt"
	"time"

	"rfm-dashboard/pkg/logger"
	"rfm-dashboard/pkg/models"
	"rfm-dashboard/pkg/source"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

const (
	defaultTopN = 10
	defaultBins = 30
)

// étapes après le chargement : fenêtre, filtre, agrégat, segments, sélection, statistiques
const computeSteps = 6

// Run charge les trois tables depuis src puis calcule le rapport.
func Run(ctx context.Context, src source.Source, cfg models.Config, log *zap.SugaredLogger) (*models.Report, error) {
	log = logger.OrNop(log)

	var bar *progressbar.ProgressBar
	if cfg.Progress {
		bar = progressbar.Default(computeSteps+1, "rfm")
	} else {
		bar = progressbar.DefaultSilent(computeSteps + 1)
	}

	started := time.Now()
	ds, err := src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	_ = bar.Add(1)
	log.Debugw("dataset fetched",
		"customers", len(ds.Customers), "orders", len(ds.Orders), "items", len(ds.Items),
		"elapsed", time.Since(started))

	report, err := compute(ds, cfg, func(stage string, kv ...any) {
		_ = bar.Add(1)
		if cfg.Verbose {
			log.Debugw(stage, kv...)
		}
	})
	if err != nil {
		return nil, err
	}
	_ = bar.Finish()

	log.Infow("rfm computed",
		"run_id", report.RunID,
		"window", report.Window.String(),
		"segment", report.Selected,
		"customers", len(report.Metrics),
		"elapsed", time.Since(started))
	return report, nil
}

// Compute est le pipeline pur : fenêtre → filtre → agrégat RFM → segments → sélection.
func Compute(ds *models.Dataset, cfg models.Config) (*models.Report, error) {
	return compute(ds, cfg, func(string, ...any) {})
}

func compute(ds *models.Dataset, cfg models.Config, step func(stage string, kv ...any)) (*models.Report, error) {
	selector := cfg.Segment
	if selector == "" {
		selector = models.AllSegments
	}
	topN := cfg.TopN
	if topN <= 0 {
		topN = defaultTopN
	}
	bins := cfg.HistogramBins
	if bins <= 0 {
		bins = defaultBins
	}

	reference, err := ReferenceTime(ds.Orders)
	if err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}
	window := cfg.Window
	if window.IsZero() {
		// ReferenceTime a déjà validé la présence de commandes
		window, _ = DefaultWindow(ds.Orders)
	}
	step("window", "window", window.String(), "reference", reference)

	filtered := FilterOrders(ds.Orders, window)
	step("filter", "orders_in_window", len(filtered), "orders_total", len(ds.Orders))

	metrics := Aggregate(filtered, ds.Items, reference)
	step("aggregate", "customers", len(metrics))

	classified, cuts, err := Classify(metrics)
	if err != nil {
		return nil, fmt.Errorf("classify %s: %w", window, err)
	}
	step("classify", "cutpoints", cuts)

	selected, err := FilterSegment(classified, selector)
	if err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}
	step("select", "segment", selector, "rows", len(selected))

	cities := make([]string, len(ds.Customers))
	states := make([]string, len(ds.Customers))
	for i, c := range ds.Customers {
		cities[i] = c.City
		states[i] = c.State
	}

	report := &models.Report{
		RunID:        uuid.NewString(),
		GeneratedAt:  time.Now().UTC(),
		Window:       window,
		Reference:    reference,
		Selected:     selector,
		Cutpoints:    cuts,
		SegmentSizes: SegmentSizes(classified),
		Metrics:      selected,
		Summary:      Summarize(selected),
		Correlation:  Correlation(selected),
		Histograms:   Histograms(selected, bins),
		TopCities:    TopN(cities, topN),
		TopStates:    TopN(states, topN),
	}
	step("statistics", "from", formatDay(window.Start), "to", formatDay(window.End))
	return report, nil
}
