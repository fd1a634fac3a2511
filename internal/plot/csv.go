package plot

import (
	"encoding/csv"
	"io"
	"strconv"

	"scholarmap/internal/qscore"
)

var csvHeader = []string{
	"id", "name", "works_count", "cited_by_count", "2yr_mean_citedness",
	"h_index", "i10_index", "calculated", "rank", "colors",
}

// WriteCSV writes the final author table, one row per scored author.
func WriteCSV(w io.Writer, rows []qscore.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{
			r.ID,
			r.Name,
			strconv.Itoa(r.WorksCount),
			strconv.Itoa(r.CitedByCount),
			formatFloat(r.TwoYrMeanCitedness),
			strconv.Itoa(r.HIndex),
			strconv.Itoa(r.I10Index),
			formatFloat(r.Calculated),
			formatFloat(r.Rank),
			string(r.Bucket),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// NaN and ±Inf come out as "NaN", "+Inf", "-Inf"
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
