package openalex

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"scholarmap/pkg/models"
)

type authorResponse struct {
	ID           string `json:"id"`
	DisplayName  string `json:"display_name"`
	WorksCount   int    `json:"works_count"`
	CitedByCount int    `json:"cited_by_count"`
	SummaryStats *struct {
		TwoYrMeanCitedness float64 `json:"2yr_mean_citedness"`
		HIndex             int     `json:"h_index"`
		I10Index           int     `json:"i10_index"`
	} `json:"summary_stats"`
}

// ShortID reduces "https://openalex.org/A123" to "A123". Bare ids pass
// through unchanged.
func ShortID(id string) string {
	id = strings.TrimSpace(id)
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}

// GetAuthor fetches one author's statistics and display name.
func (c *Client) GetAuthor(ctx context.Context, id string) (models.AuthorStats, string, error) {
	short := ShortID(id)
	if short == "" {
		return models.AuthorStats{}, "", errors.New("openalex: empty author id")
	}

	var resp authorResponse
	if err := c.getJSON(ctx, "/authors/"+url.PathEscape(short), nil, &resp); err != nil {
		return models.AuthorStats{}, "", err
	}
	if resp.SummaryStats == nil {
		return models.AuthorStats{}, "", fmt.Errorf("openalex: author %s has no summary_stats", short)
	}

	return models.AuthorStats{
		ID:                 resp.ID,
		WorksCount:         resp.WorksCount,
		CitedByCount:       resp.CitedByCount,
		TwoYrMeanCitedness: resp.SummaryStats.TwoYrMeanCitedness,
		HIndex:             resp.SummaryStats.HIndex,
		I10Index:           resp.SummaryStats.I10Index,
	}, resp.DisplayName, nil
}
