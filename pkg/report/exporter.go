package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"rfm-dashboard/pkg/models"
)

func ExportJSON(filename string, data any) error {
	// Make sure the folder exists
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("failed to create folder: %w", err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

// ExportCSV écrit les métriques dans un fichier (dossier créé si besoin).
func ExportCSV(filename string, metrics []models.CustomerMetric) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("failed to create folder: %w", err)
	}
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()
	return WriteCSV(file, metrics)
}

var csvHeader = []string{"customer_id", "Recency", "Frequency", "Monetary", "Monetary_Segment"}

// WriteCSV écrit une ligne d'en-tête puis une ligne par client.
func WriteCSV(w io.Writer, metrics []models.CustomerMetric) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	for _, m := range metrics {
		rec := []string{
			m.CustomerID,
			strconv.Itoa(m.Recency),
			strconv.Itoa(m.Frequency),
			m.Monetary.StringFixed(2),
			m.Segment.String(),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

func TimestampedFilename(baseDir, name, ext string) string {
	t := time.Now().Format("20060102_150405")
	return filepath.Join(baseDir, fmt.Sprintf("%s_%s.%s", name, t, ext))
}
