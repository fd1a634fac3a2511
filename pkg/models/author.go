package models

// AuthorRef is one row of the authors table: an OpenAlex author id and the
// display name it was listed under on a work.
type AuthorRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AuthorStats holds the citation figures OpenAlex reports for an author.
// None of them are computed here.
type AuthorStats struct {
	ID                 string  `json:"id"`
	WorksCount         int     `json:"works_count"`
	CitedByCount       int     `json:"cited_by_count"`
	TwoYrMeanCitedness float64 `json:"2yr_mean_citedness"`
	HIndex             int     `json:"h_index"`
	I10Index           int     `json:"i10_index"`
}
