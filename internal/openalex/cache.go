package openalex

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"scholarmap/pkg/models"
)

// StatsCache keeps author statistics in the author_stats table so repeated
// runs over the same keyword skip most lookups.
type StatsCache struct {
	DB  *sql.DB
	TTL time.Duration

	now func() time.Time
}

func NewStatsCache(db *sql.DB, ttl time.Duration) *StatsCache {
	return &StatsCache{DB: db, TTL: ttl, now: time.Now}
}

// CachedAuthor is one cache row. Key is the author id as it appeared on
// the work, which is what later lookups use; Stats.ID is the id the
// author endpoint answered with, which differs for merged authors.
type CachedAuthor struct {
	Key   string
	Name  string
	Stats models.AuthorStats
}

// Fresh returns the cached entries for ids that are younger than the TTL,
// keyed by lookup id. Each entry's ID is the canonical id that was saved;
// rows written before canonical ids were stored count as misses.
func (c *StatsCache) Fresh(ctx context.Context, ids []string) (map[string]models.AuthorStats, error) {
	out := make(map[string]models.AuthorStats, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cutoff := c.now().Add(-c.TTL).Unix()

	// SQLite caps host parameters; 500 stays well below every default.
	const chunk = 500
	for start := 0; start < len(ids); start += chunk {
		end := min(start+chunk, len(ids))
		part := ids[start:end]

		args := make([]any, 0, len(part)+1)
		for _, id := range part {
			args = append(args, id)
		}
		args = append(args, cutoff)

		rows, err := c.DB.QueryContext(ctx, `
			SELECT id, canonical_id, works_count, cited_by_count, two_yr_mean_citedness, h_index, i10_index
			FROM author_stats
			WHERE id IN (`+placeholders(len(part))+`) AND fetched_at >= ? AND canonical_id <> ''
		`, args...)
		if err != nil {
			return nil, fmt.Errorf("cache query: %w", err)
		}

		for rows.Next() {
			var (
				key string
				st  models.AuthorStats
			)
			if err := rows.Scan(&key, &st.ID, &st.WorksCount, &st.CitedByCount, &st.TwoYrMeanCitedness, &st.HIndex, &st.I10Index); err != nil {
				rows.Close()
				return nil, fmt.Errorf("cache scan: %w", err)
			}
			out[key] = st
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("cache rows: %w", err)
		}
	}
	return out, nil
}

// Save upserts entries in one transaction.
func (c *StatsCache) Save(ctx context.Context, entries []CachedAuthor) error {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO author_stats (id, canonical_id, display_name, works_count, cited_by_count, two_yr_mean_citedness, h_index, i10_index, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  canonical_id = excluded.canonical_id,
		  display_name = excluded.display_name,
		  works_count = excluded.works_count,
		  cited_by_count = excluded.cited_by_count,
		  two_yr_mean_citedness = excluded.two_yr_mean_citedness,
		  h_index = excluded.h_index,
		  i10_index = excluded.i10_index,
		  fetched_at = excluded.fetched_at
	`)
	if err != nil {
		return fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	now := c.now().Unix()
	for _, e := range entries {
		st := e.Stats
		if _, err := stmt.ExecContext(ctx,
			e.Key, st.ID, e.Name, st.WorksCount, st.CitedByCount, st.TwoYrMeanCitedness, st.HIndex, st.I10Index, now,
		); err != nil {
			return fmt.Errorf("exec upsert for %s: %w", e.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
