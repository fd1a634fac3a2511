package openalex

import (
	"context"
	"net/url"
	"strconv"
)

type Work struct {
	ID          string       `json:"id"`
	Title       string       `json:"display_name"`
	Authorships []Authorship `json:"authorships"`
}

type Authorship struct {
	Author struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
	} `json:"author"`
}

type worksResponse struct {
	Meta struct {
		Count      int     `json:"count"`
		NextCursor *string `json:"next_cursor"`
	} `json:"meta"`
	Results []Work `json:"results"`
}

// WorkPager walks keyword search results with cursor paging.
type WorkPager struct {
	client  *Client
	keyword string
	cursor  string
	done    bool
}

// SearchWorks starts a cursor-paged keyword search. No request is made
// until Next is called.
func (c *Client) SearchWorks(keyword string) *WorkPager {
	return &WorkPager{client: c, keyword: keyword, cursor: "*"}
}

// Next fetches the next page. It returns ErrDone once the API has no
// further cursor or hands back an empty page.
func (p *WorkPager) Next(ctx context.Context) ([]Work, error) {
	if p.done {
		return nil, ErrDone
	}

	q := url.Values{}
	q.Set("search", p.keyword)
	q.Set("per-page", strconv.Itoa(p.client.PerPage))
	q.Set("cursor", p.cursor)

	var resp worksResponse
	if err := p.client.getJSON(ctx, "/works", q, &resp); err != nil {
		return nil, err
	}

	if resp.Meta.NextCursor == nil || *resp.Meta.NextCursor == "" {
		p.done = true
	} else {
		p.cursor = *resp.Meta.NextCursor
	}

	if len(resp.Results) == 0 {
		p.done = true
		return nil, ErrDone
	}
	return resp.Results, nil
}
