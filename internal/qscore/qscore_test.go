package qscore

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scholarmap/pkg/models"
)

func TestScore(t *testing.T) {
	assert.InDelta(t, 10*math.Exp(-1.5), Score(10, 1.5), 1e-12)
	assert.InDelta(t, 1.0, Score(1, 0), 1e-12)
	assert.Equal(t, 0.0, Score(0, 2.0), "ln(0) = -Inf so the score collapses to 0")
	assert.True(t, math.IsNaN(Score(-1, 0)))
}

func TestDenseRank(t *testing.T) {
	got := DenseRank([]float64{3, 1, 3, 2, math.NaN(), 5})
	want := []float64{2, 4, 2, 3, math.NaN(), 1}
	require.Len(t, got, len(want))
	for i := range want {
		if math.IsNaN(want[i]) {
			assert.True(t, math.IsNaN(got[i]), "index %d", i)
			continue
		}
		assert.Equal(t, want[i], got[i], "index %d", i)
	}
}

func TestBucket(t *testing.T) {
	// n = 10: top ≤ 2, mid ≤ 8
	cases := []struct {
		rank float64
		want Label
	}{
		{1, Top}, {2, Top}, {2.5, Middle}, {8, Middle}, {9, Bottom}, {math.NaN(), Bottom},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Bucket(tc.rank, 10), "rank %v", tc.rank)
	}
}

func TestBucket_PropertyOverRanks(t *testing.T) {
	for n := 1; n <= 40; n++ {
		for r := 1; r <= n; r++ {
			rank := float64(r)
			got := Bucket(rank, n)
			switch {
			case rank <= 0.2*float64(n):
				assert.Equal(t, Top, got)
			case rank <= 0.8*float64(n):
				assert.Equal(t, Middle, got)
			default:
				assert.Equal(t, Bottom, got)
			}
		}
	}
}

func TestJoin_LeftOnStats(t *testing.T) {
	stats := []models.AuthorStats{{ID: "A2", HIndex: 4}, {ID: "A9"}, {ID: "A1"}}
	authors := []models.AuthorRef{{ID: "A1", Name: "Ada"}, {ID: "A2", Name: "Brook"}, {ID: "A3", Name: "Cyd"}}

	rows := Join(stats, authors)
	require.Len(t, rows, 3)
	assert.Equal(t, "Brook", rows[0].Name)
	assert.Equal(t, 4, rows[0].HIndex)
	assert.Equal(t, "", rows[1].Name)
	assert.Equal(t, "Ada", rows[2].Name)
}

func TestCompute(t *testing.T) {
	rows := make([]Row, 10)
	for i := range rows {
		// strictly decreasing scores: row i gets rank i+1
		rows[i] = Row{AuthorStats: models.AuthorStats{I10Index: 100 - i*10, TwoYrMeanCitedness: 0}}
	}
	Compute(rows)

	for i, r := range rows {
		assert.InDelta(t, float64(100-i*10), r.Calculated, 1e-9)
		assert.Equal(t, float64(i+1), r.Rank)
	}
	assert.Equal(t, Top, rows[1].Bucket)
	assert.Equal(t, Middle, rows[2].Bucket)
	assert.Equal(t, Middle, rows[7].Bucket)
	assert.Equal(t, Bottom, rows[8].Bucket)
}

func TestColorsCoverEveryLabel(t *testing.T) {
	for _, l := range Labels {
		assert.NotEmpty(t, Colors[l])
		assert.NotEmpty(t, l.LegendText())
	}
}
