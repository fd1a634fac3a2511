package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"scholarmap/internal/openalex"
	"scholarmap/internal/qscore"
	"scholarmap/pkg/config"
)

func TestResolveInputs_Prompts(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("Machine Learning\n25\n"))
	var out bytes.Buffer

	kw, n, err := resolveInputs(in, &out, "", 0)
	require.NoError(t, err)
	assert.Equal(t, "machine learning", kw)
	assert.Equal(t, 25, n)
	assert.Equal(t, "keyword: number of authors: ", out.String())
}

func TestResolveInputs_FlagsSkipPrompts(t *testing.T) {
	var out bytes.Buffer
	kw, n, err := resolveInputs(bufio.NewReader(strings.NewReader("")), &out, "Graphene", 3)
	require.NoError(t, err)
	assert.Equal(t, "graphene", kw)
	assert.Equal(t, 3, n)
	assert.Empty(t, out.String())
}

func TestResolveInputs_Errors(t *testing.T) {
	cases := map[string]string{
		"not a number": "graphene\nlots\n",
		"zero":         "graphene\n0\n",
		"negative":     "graphene\n-4\n",
		"empty kw":     "\n5\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := resolveInputs(bufio.NewReader(strings.NewReader(input)), &bytes.Buffer{}, "", 0)
			assert.Error(t, err)
		})
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "machine-learning", slugify("Machine Learning"))
	assert.Equal(t, "c-lang", slugify("  C++ lang!"))
	assert.Equal(t, "chart", slugify("???"))
}

func TestPipeline_EndToEnd(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/works", func(w http.ResponseWriter, r *http.Request) {
		results := []any{}
		for _, id := range []string{"A1", "A2", "A3", "A4", "A5"} {
			results = append(results, map[string]any{
				"id": "W" + id,
				"authorships": []any{map[string]any{
					"author": map[string]any{"id": "https://openalex.org/" + id, "display_name": "Name " + id},
				}},
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"meta":    map[string]any{"next_cursor": nil},
			"results": results,
		})
	})
	mux.HandleFunc("/authors/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/authors/")
		n := int(id[1] - '0')
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":           "https://openalex.org/" + id,
			"display_name": "Name " + id,
			"summary_stats": map[string]any{
				"2yr_mean_citedness": 0.0,
				"h_index":            n,
				"i10_index":          n * 10,
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := openalex.NewClient(config.OpenAlexConfig{BaseURL: srv.URL, PerPage: 50, Timeout: 5 * time.Second})
	rows, err := pipeline(context.Background(), client, "graphene", 5, openalex.FetchOptions{Concurrency: 2, Log: zap.NewNop()})
	require.NoError(t, err)
	require.Len(t, rows, 5)

	// i10 = 10n, mean = 0 -> score 10n; A5 is best
	assert.Equal(t, "Name A5", rows[4].Name)
	assert.Equal(t, 1.0, rows[4].Rank)
	assert.Equal(t, qscore.Top, rows[4].Bucket)
	assert.Equal(t, qscore.Bottom, rows[0].Bucket)

	csvPath := filepath.Join(t.TempDir(), "table.csv")
	require.NoError(t, writeCSV(csvPath, rows))
	b, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), "Name A5")
}
