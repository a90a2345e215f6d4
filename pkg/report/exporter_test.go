package report

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"rfm-dashboard/pkg/models"

	"github.com/shopspring/decimal"
)

func sampleReport() *models.Report {
	return &models.Report{
		RunID:     "run-1",
		Window:    models.Window{Start: time.Date(2017, 8, 29, 0, 0, 0, 0, time.UTC), End: time.Date(2018, 8, 29, 0, 0, 0, 0, time.UTC)},
		Reference: time.Date(2018, 8, 29, 15, 0, 37, 0, time.UTC),
		Selected:  "All",
		Metrics: []models.CustomerMetric{
			{CustomerID: "c1", Recency: 7, Frequency: 2, Monetary: decimal.RequireFromString("30"), Segment: models.SegmentLow},
			{CustomerID: "c2", Recency: 1, Frequency: 1, Monetary: decimal.RequireFromString("159.9"), Segment: models.SegmentVeryHigh},
		},
		SegmentSizes: map[string]int{"Low": 1, "Medium": 0, "High": 0, "Very High": 1},
		Correlation: models.CorrMatrix{
			Columns: []string{"Recency", "Frequency", "Monetary"},
			Values: [][]models.NullFloat{
				{1, 1, -1},
				{1, 1, -1},
				{-1, -1, models.NullFloat(math.NaN())},
			},
		},
		TopCities: []models.ValueCount{{Value: "franca", Count: 2}},
		TopStates: []models.ValueCount{{Value: "SP", Count: 2}},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleReport().Metrics); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "customer_id,Recency,Frequency,Monetary,Monetary_Segment\n" +
		"c1,7,2,30.00,Low\n" +
		"c2,1,1,159.90,Very High\n"
	if buf.String() != want {
		t.Fatalf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestExportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "rfm.json")
	if err := ExportJSON(path, sampleReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Metrics []struct {
			Segment string `json:"monetary_segment"`
		} `json:"metrics"`
		Correlation struct {
			Values [][]*float64 `json:"values"`
		} `json:"correlation"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, raw)
	}
	if decoded.Metrics[1].Segment != "Very High" {
		t.Fatalf("got segment %q", decoded.Metrics[1].Segment)
	}
	if decoded.Correlation.Values[2][2] != nil {
		t.Fatal("NaN correlation should be encoded as null")
	}
}

func TestExportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "rfm.csv")
	if err := ExportCSV(path, sampleReport().Metrics); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file not written: %v", err)
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sampleReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"c1 ; recency=7 ; frequency=2 ; monetary=30.00 ; Low", "Very High", "franca", "SP"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output misses %q:\n%s", want, out)
		}
	}
}

func TestWriteText_Empty(t *testing.T) {
	r := sampleReport()
	r.Metrics = nil
	var buf bytes.Buffer
	if err := WriteText(&buf, r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "# no data") {
		t.Fatalf("expected a no-data placeholder:\n%s", buf.String())
	}
}

func TestTimestampedFilename(t *testing.T) {
	got := TimestampedFilename("reports", "rfm", "json")
	if !strings.HasPrefix(got, filepath.Join("reports", "rfm_")) || !strings.HasSuffix(got, ".json") {
		t.Fatalf("unexpected filename %q", got)
	}
}
