package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"rfm-dashboard/pkg/models"
)

// WriteText : une ligne par client "customer_id ; R ; F ; M ; segment", puis les tailles
// de segments, la matrice de corrélation et les classements villes/états.
func WriteText(w io.Writer, r *models.Report) error {
	fmt.Fprintf(w, "# window=%s reference=%s segment=%s run=%s\n",
		r.Window, r.Reference.Format("2006-01-02 15:04:05"), r.Selected, r.RunID)
	if len(r.Metrics) == 0 {
		fmt.Fprintln(w, "# no data")
	}
	for _, m := range r.Metrics {
		fmt.Fprintf(w, "%s ; recency=%d ; frequency=%d ; monetary=%s ; %s\n",
			m.CustomerID, m.Recency, m.Frequency, m.Monetary.StringFixed(2), m.Segment)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\nSEGMENT\tCUSTOMERS")
	for _, s := range models.Segments {
		fmt.Fprintf(tw, "%s\t%d\n", s, r.SegmentSizes[s.String()])
	}

	fmt.Fprint(tw, "\nCORR")
	for _, c := range r.Correlation.Columns {
		fmt.Fprintf(tw, "\t%s", c)
	}
	fmt.Fprintln(tw)
	for i, row := range r.Correlation.Values {
		fmt.Fprint(tw, r.Correlation.Columns[i])
		for _, v := range row {
			fmt.Fprintf(tw, "\t%.2f", float64(v))
		}
		fmt.Fprintln(tw)
	}

	writeCounts(tw, "CITY", r.TopCities)
	writeCounts(tw, "STATE", r.TopStates)
	return tw.Flush()
}

func writeCounts(w io.Writer, title string, counts []models.ValueCount) {
	fmt.Fprintf(w, "\n%s\tCUSTOMERS\n", title)
	for _, c := range counts {
		fmt.Fprintf(w, "%s\t%d\n", c.Value, c.Count)
	}
}
