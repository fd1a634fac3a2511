// Package qscore joins author statistics with author names and derives the
// pseudo Q score, its dense rank and the colour bucket used by the plot.
package qscore

import (
	"math"
	"sort"

	"scholarmap/pkg/models"
)

// Label is a rank bucket.
type Label string

const (
	Top    Label = "top20%"
	Middle Label = "mid60%"
	Bottom Label = "bottom20%"
)

// Labels lists buckets in legend order.
var Labels = []Label{Top, Middle, Bottom}

// Colors maps each bucket to its plot colour.
var Colors = map[Label]string{
	Top:    "red",
	Middle: "green",
	Bottom: "blue",
}

// LegendText is the human label for a bucket.
func (l Label) LegendText() string {
	switch l {
	case Top:
		return "Top 20%"
	case Middle:
		return "Middle 60%"
	default:
		return "Bottom 20%"
	}
}

// Row is one line of the final author table.
type Row struct {
	models.AuthorStats
	Name       string
	Calculated float64
	Rank       float64 // dense, 1 = best; NaN when Calculated is NaN
	Bucket     Label
}

// Join attaches names to statistics (left join on id). Rows follow stats;
// an id with no author entry keeps an empty name.
func Join(stats []models.AuthorStats, authors []models.AuthorRef) []Row {
	names := make(map[string]string, len(authors))
	for _, a := range authors {
		if _, ok := names[a.ID]; !ok {
			names[a.ID] = a.Name
		}
	}
	rows := make([]Row, len(stats))
	for i, st := range stats {
		rows[i] = Row{AuthorStats: st, Name: names[st.ID]}
	}
	return rows
}

// Score is exp(ln(i10) - mean2yr). Nothing is guarded: i10 = 0 gives 0 and
// a negative i10 gives NaN.
func Score(i10 int, mean2yr float64) float64 {
	return math.Exp(math.Log(float64(i10)) - mean2yr)
}

// DenseRank ranks values in descending order: the largest gets 1, equal
// values share a rank and the next distinct value gets the next integer.
// NaN values are not ranked and get NaN.
func DenseRank(values []float64) []float64 {
	distinct := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			distinct = append(distinct, v)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(distinct)))

	rankOf := make(map[float64]float64, len(distinct))
	next := 0.0
	for i, v := range distinct {
		if i == 0 || v != distinct[i-1] {
			next++
			rankOf[v] = next
		}
	}

	out := make([]float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			out[i] = math.NaN()
			continue
		}
		out[i] = rankOf[v]
	}
	return out
}

// Bucket classifies a rank among n rows: rank ≤ 0.2n is Top, rank ≤ 0.8n is
// Middle, anything else (NaN included) is Bottom.
func Bucket(rank float64, n int) Label {
	top := float64(n) * 0.2
	mid := float64(n) * 0.8
	switch {
	case rank <= top:
		return Top
	case rank > top && rank <= mid:
		return Middle
	default:
		return Bottom
	}
}

// Compute fills Calculated, Rank and Bucket in place.
func Compute(rows []Row) {
	scores := make([]float64, len(rows))
	for i := range rows {
		rows[i].Calculated = Score(rows[i].I10Index, rows[i].TwoYrMeanCitedness)
		scores[i] = rows[i].Calculated
	}
	ranks := DenseRank(scores)
	for i := range rows {
		rows[i].Rank = ranks[i]
		rows[i].Bucket = Bucket(ranks[i], len(rows))
	}
}
