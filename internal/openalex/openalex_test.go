package openalex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"scholarmap/pkg/config"
	"scholarmap/pkg/database"
	"scholarmap/pkg/models"
)

func authorship(id, name string) map[string]any {
	return map[string]any{"author": map[string]any{"id": id, "display_name": name}}
}

// fakeOpenAlex serves two pages of works and per-author stats. A1..A5 are
// known; A4 answers 500 to exercise the skip path.
func fakeOpenAlex(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var authorHits atomic.Int32

	pages := map[string]map[string]any{
		"*": {
			"meta": map[string]any{"count": 3, "next_cursor": "page2"},
			"results": []any{
				map[string]any{"id": "W1", "authorships": []any{
					authorship("https://openalex.org/A1", "Ada"),
					authorship("https://openalex.org/A2", "Brook"),
				}},
				map[string]any{"id": "W2", "authorships": []any{
					authorship("https://openalex.org/A2", "Brook"),
					authorship("https://openalex.org/A3", "Cyd"),
				}},
			},
		},
		"page2": {
			"meta": map[string]any{"count": 3, "next_cursor": nil},
			"results": []any{
				map[string]any{"id": "W3", "authorships": []any{
					authorship("https://openalex.org/A4", "Dee"),
					authorship("https://openalex.org/A5", "Eli"),
				}},
			},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/works", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "graphene", r.URL.Query().Get("search"))
		assert.Equal(t, "50", r.URL.Query().Get("per-page"))
		page, ok := pages[r.URL.Query().Get("cursor")]
		if !ok {
			http.Error(w, "bad cursor", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(page)
	})
	mux.HandleFunc("/authors/", func(w http.ResponseWriter, r *http.Request) {
		authorHits.Add(1)
		id := strings.TrimPrefix(r.URL.Path, "/authors/")
		switch id {
		case "A4":
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		case "A1", "A2", "A3", "A5":
		default:
			http.NotFound(w, r)
			return
		}
		n := int(id[1] - '0')
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":             "https://openalex.org/" + id,
			"display_name":   "Author " + id,
			"works_count":    10 * n,
			"cited_by_count": 100 * n,
			"summary_stats": map[string]any{
				"2yr_mean_citedness": float64(n) / 2,
				"h_index":            n + 1,
				"i10_index":          n,
			},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &authorHits
}

func testClient(srv *httptest.Server) *Client {
	return NewClient(config.OpenAlexConfig{BaseURL: srv.URL, PerPage: 50, Timeout: 5 * time.Second})
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "A123", ShortID("https://openalex.org/A123"))
	assert.Equal(t, "A123", ShortID("A123"))
	assert.Equal(t, "", ShortID("  "))
}

func TestWorkPager_FollowsCursorUntilDone(t *testing.T) {
	srv, _ := fakeOpenAlex(t)
	p := testClient(srv).SearchWorks("graphene")

	first, err := p.Next(context.Background())
	require.NoError(t, err)
	assert.Len(t, first, 2)

	second, err := p.Next(context.Background())
	require.NoError(t, err)
	assert.Len(t, second, 1)

	_, err = p.Next(context.Background())
	assert.ErrorIs(t, err, ErrDone)
}

func TestCollectAuthors_UniqueInOrder(t *testing.T) {
	srv, _ := fakeOpenAlex(t)
	c := testClient(srv)

	got, err := CollectAuthors(context.Background(), c.SearchWorks("graphene"), 3)
	require.NoError(t, err)
	assert.Equal(t, []models.AuthorRef{
		{ID: "https://openalex.org/A1", Name: "Ada"},
		{ID: "https://openalex.org/A2", Name: "Brook"},
		{ID: "https://openalex.org/A3", Name: "Cyd"},
	}, got)
}

func TestCollectAuthors_FewerThanLimitWhenPagesRunOut(t *testing.T) {
	srv, _ := fakeOpenAlex(t)
	got, err := CollectAuthors(context.Background(), testClient(srv).SearchWorks("graphene"), 100)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestCollectAuthors_HugeLimitDoesNotPreallocate(t *testing.T) {
	srv, _ := fakeOpenAlex(t)
	var (
		got []models.AuthorRef
		err error
	)
	require.NotPanics(t, func() {
		got, err = CollectAuthors(context.Background(), testClient(srv).SearchWorks("graphene"), math.MaxInt64/16)
	})
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestCollectAuthors_InvalidLimit(t *testing.T) {
	_, err := CollectAuthors(context.Background(), nil, 0)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

type failingPager struct{}

func (failingPager) Next(context.Context) ([]Work, error) {
	return nil, errors.New("network down")
}

func TestCollectAuthors_PageErrorPropagates(t *testing.T) {
	_, err := CollectAuthors(context.Background(), failingPager{}, 5)
	assert.ErrorContains(t, err, "network down")
}

func TestGetAuthor(t *testing.T) {
	srv, _ := fakeOpenAlex(t)
	c := testClient(srv)

	st, name, err := c.GetAuthor(context.Background(), "https://openalex.org/A2")
	require.NoError(t, err)
	assert.Equal(t, "Author A2", name)
	assert.Equal(t, models.AuthorStats{
		ID: "https://openalex.org/A2", WorksCount: 20, CitedByCount: 200,
		TwoYrMeanCitedness: 1, HIndex: 3, I10Index: 2,
	}, st)

	_, _, err = c.GetAuthor(context.Background(), "A9")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = c.GetAuthor(context.Background(), "A4")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
}

func TestFetchStats_SkipsFailuresAndKeepsOrder(t *testing.T) {
	srv, _ := fakeOpenAlex(t)
	c := testClient(srv)
	core, logs := observer.New(zap.WarnLevel)

	authors := []models.AuthorRef{
		{ID: "https://openalex.org/A5", Name: "Eli"},
		{ID: "https://openalex.org/A4", Name: "Dee"},
		{ID: "https://openalex.org/A1", Name: "Ada"},
		{ID: "https://openalex.org/A9", Name: "Nobody"},
	}
	got, err := FetchStats(context.Background(), c, authors, FetchOptions{Concurrency: 3, Log: zap.New(core)})
	require.NoError(t, err)

	ids := make([]string, len(got))
	for i, st := range got {
		ids[i] = st.ID
	}
	assert.Equal(t, []string{"https://openalex.org/A5", "https://openalex.org/A1"}, ids)
	assert.Equal(t, 2, logs.FilterMessage("author lookup failed, skipping").Len())
}

func TestFetchStats_UsesCache(t *testing.T) {
	srv, hits := fakeOpenAlex(t)
	c := testClient(srv)

	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", Path: database.Memory})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db, "locations"))

	cache := NewStatsCache(db, time.Hour)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	authors := []models.AuthorRef{
		{ID: "https://openalex.org/A1", Name: "Ada"},
		{ID: "https://openalex.org/A2", Name: "Brook"},
	}

	first, err := FetchStats(context.Background(), c, authors, FetchOptions{Concurrency: 2, Cache: cache})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.EqualValues(t, 2, hits.Load())

	second, err := FetchStats(context.Background(), c, authors, FetchOptions{Concurrency: 2, Cache: cache})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 2, hits.Load(), "second run should be served from cache")

	// expire
	now = now.Add(2 * time.Hour)
	_, err = FetchStats(context.Background(), c, authors, FetchOptions{Concurrency: 2, Cache: cache})
	require.NoError(t, err)
	assert.EqualValues(t, 4, hits.Load())
}

// mergedFetcher answers every lookup under a different canonical id, the
// way OpenAlex does for merged author profiles.
type mergedFetcher struct {
	hits atomic.Int32
}

func (f *mergedFetcher) GetAuthor(_ context.Context, id string) (models.AuthorStats, string, error) {
	f.hits.Add(1)
	return models.AuthorStats{ID: id + "00", WorksCount: 7, HIndex: 3, I10Index: 2, TwoYrMeanCitedness: 0.5}, "Merged", nil
}

func TestFetchStats_CacheKeepsCanonicalID(t *testing.T) {
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", Path: database.Memory})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db, "locations"))
	cache := NewStatsCache(db, time.Hour)

	f := &mergedFetcher{}
	authors := []models.AuthorRef{{ID: "https://openalex.org/A1", Name: "Ada"}}

	first, err := FetchStats(context.Background(), f, authors, FetchOptions{Cache: cache})
	require.NoError(t, err)
	second, err := FetchStats(context.Background(), f, authors, FetchOptions{Cache: cache})
	require.NoError(t, err)

	assert.EqualValues(t, 1, f.hits.Load())
	require.Len(t, second, 1)
	assert.Equal(t, "https://openalex.org/A100", second[0].ID)
	assert.Equal(t, first, second)
}

func TestStatsCache_IgnoresRowsWithoutCanonicalID(t *testing.T) {
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", Path: database.Memory})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db, "locations"))

	cache := NewStatsCache(db, time.Hour)
	_, err = db.Exec(`INSERT INTO author_stats (id, canonical_id, fetched_at) VALUES ('A1', '', ?)`, time.Now().Unix())
	require.NoError(t, err)

	got, err := cache.Fresh(context.Background(), []string{"A1"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

type slowFetcher struct{}

func (slowFetcher) GetAuthor(ctx context.Context, id string) (models.AuthorStats, string, error) {
	<-ctx.Done()
	return models.AuthorStats{}, "", ctx.Err()
}

func TestFetchStats_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	authors := make([]models.AuthorRef, 5)
	for i := range authors {
		authors[i] = models.AuthorRef{ID: fmt.Sprintf("A%d", i)}
	}
	_, err := FetchStats(ctx, slowFetcher{}, authors, FetchOptions{Concurrency: 2})
	assert.ErrorIs(t, err, context.Canceled)
}
