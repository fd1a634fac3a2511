package openalex

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"scholarmap/pkg/models"
)

// ErrInvalidLimit is returned when fewer than one author is requested.
var ErrInvalidLimit = errors.New("openalex: author limit must be at least 1")

// limit is user input; buffers grow past this as authors arrive.
const maxPrealloc = 1024

// Pager is the page source CollectAuthors reads from. *WorkPager
// implements it.
type Pager interface {
	Next(ctx context.Context) ([]Work, error)
}

// CollectAuthors walks works page by page, authorships in listed order,
// and keeps each author id the first time it is seen. It stops once limit
// unique authors are held or the pages run out, whichever comes first.
func CollectAuthors(ctx context.Context, pager Pager, limit int) ([]models.AuthorRef, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}

	hint := min(limit, maxPrealloc)
	seen := make(map[string]struct{}, hint)
	out := make([]models.AuthorRef, 0, hint)

	for len(out) < limit {
		works, err := pager.Next(ctx)
		if errors.Is(err, ErrDone) {
			break
		}
		if err != nil {
			return out, fmt.Errorf("fetch works page: %w", err)
		}

		for _, w := range works {
			for _, a := range w.Authorships {
				id := a.Author.ID
				if id == "" {
					continue
				}
				if _, ok := seen[id]; ok {
					continue
				}
				seen[id] = struct{}{}
				out = append(out, models.AuthorRef{ID: id, Name: a.Author.DisplayName})
				if len(out) == limit {
					return out, nil
				}
			}
		}
	}
	return out, nil
}

// AuthorFetcher looks up one author. *Client implements it.
type AuthorFetcher interface {
	GetAuthor(ctx context.Context, id string) (models.AuthorStats, string, error)
}

type FetchOptions struct {
	Concurrency int
	Cache       *StatsCache // nil disables caching
	Log         *zap.Logger
}

// FetchStats looks up statistics for every author. A lookup that fails is
// logged and skipped; the returned slice keeps the order of authors minus
// the skipped ones. The only error returned is context cancellation.
func FetchStats(ctx context.Context, fetcher AuthorFetcher, authors []models.AuthorRef, opts FetchOptions) ([]models.AuthorStats, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	limit := opts.Concurrency
	if limit < 1 {
		limit = 1
	}

	cached := map[string]models.AuthorStats{}
	if opts.Cache != nil {
		ids := make([]string, len(authors))
		for i, a := range authors {
			ids[i] = a.ID
		}
		var err error
		cached, err = opts.Cache.Fresh(ctx, ids)
		if err != nil {
			log.Warn("stats cache read failed, fetching everything", zap.Error(err))
			cached = map[string]models.AuthorStats{}
		}
	}

	results := make([]*models.AuthorStats, len(authors))
	names := make([]string, len(authors))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, a := range authors {
		if st, ok := cached[a.ID]; ok {
			results[i] = &st
			continue
		}
		i, a := i, a
		g.Go(func() error {
			st, name, err := fetcher.GetAuthor(gctx, a.ID)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				log.Warn("author lookup failed, skipping",
					zap.String("author_id", a.ID),
					zap.Error(err))
				return nil
			}
			results[i] = &st
			names[i] = name
			return nil
		})
	}

	waitErr := g.Wait()

	out := make([]models.AuthorStats, 0, len(authors))
	fresh := make([]CachedAuthor, 0, len(authors))
	for i, st := range results {
		if st == nil {
			continue
		}
		out = append(out, *st)
		if _, wasCached := cached[authors[i].ID]; !wasCached {
			name := names[i]
			if name == "" {
				name = authors[i].Name
			}
			fresh = append(fresh, CachedAuthor{Key: authors[i].ID, Name: name, Stats: *st})
		}
	}

	if waitErr != nil {
		return out, waitErr
	}

	if opts.Cache != nil && len(fresh) > 0 {
		if err := opts.Cache.Save(ctx, fresh); err != nil {
			log.Warn("stats cache write failed", zap.Error(err))
		}
	}

	log.Info("author stats fetched",
		zap.Int("requested", len(authors)),
		zap.Int("cached", len(cached)),
		zap.Int("resolved", len(out)),
		zap.Int("skipped", len(authors)-len(out)))

	return out, nil
}
