package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"scholarmap/internal/logging"
	"scholarmap/internal/openalex"
	"scholarmap/internal/plot"
	"scholarmap/internal/qscore"
	"scholarmap/pkg/config"
	"scholarmap/pkg/database"
)

type options struct {
	configPath  string
	keyword     string
	count       int
	out         string
	csvPath     string
	open        bool
	noCache     bool
	concurrency int
	mailto      string
	verbose     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:   "qscore",
		Short: "Rank OpenAlex authors for a research keyword by pseudo Q score",
		Long: `qscore searches OpenAlex works for a keyword, collects the first N unique
authors, looks up their citation statistics, scores each one as
exp(ln(i10-index) - 2yr mean citedness) and plots score against log h-index,
coloured by top 20% / middle 60% / bottom 20%.

Keyword and author count are prompted for when not given as flags.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.configPath, "config", "", "YAML config file")
	f.StringVarP(&o.keyword, "keyword", "k", "", "research keyword")
	f.IntVarP(&o.count, "count", "n", 0, "number of authors")
	f.StringVarP(&o.out, "out", "o", "", "chart HTML path (default qscore-<keyword>.html)")
	f.StringVar(&o.csvPath, "csv", "", "also write the scored table to this CSV path")
	f.BoolVar(&o.open, "open", false, "open the chart in the default browser")
	f.BoolVar(&o.noCache, "no-cache", false, "ignore the local author stats cache")
	f.IntVar(&o.concurrency, "concurrency", 0, "parallel author lookups (default from config)")
	f.StringVar(&o.mailto, "mailto", "", "contact email for the OpenAlex polite pool")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "debug logging")
	return cmd
}

func run(cmd *cobra.Command, o options) error {
	log, err := logging.New(o.verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load(o.configPath)
	if err != nil {
		log.Error("load config", zap.Error(err))
		return err
	}
	if o.mailto != "" {
		cfg.OpenAlex.Mailto = o.mailto
	}
	if o.concurrency > 0 {
		cfg.OpenAlex.Concurrency = o.concurrency
	}

	in := bufio.NewReader(cmd.InOrStdin())
	keyword, count, err := resolveInputs(in, cmd.OutOrStdout(), o.keyword, o.count)
	if err != nil {
		return err
	}

	out := o.out
	if out == "" {
		out = "qscore-" + slugify(keyword) + ".html"
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log = log.With(zap.String("run_id", uuid.NewString()))
	log.Info("qscore run",
		zap.String("keyword", keyword),
		zap.Int("authors", count),
		zap.String("out", out))

	var cache *openalex.StatsCache
	if !o.noCache {
		db, err := database.Open(cfg.Database)
		if err != nil {
			log.Warn("stats cache unavailable, continuing without it", zap.Error(err))
		} else {
			defer db.Close()
			if err := database.Migrate(db, cfg.Database.Table); err != nil {
				log.Warn("stats cache migrate failed, continuing without it", zap.Error(err))
			} else {
				cache = openalex.NewStatsCache(db, cfg.OpenAlex.CacheTTL)
			}
		}
	}

	rows, err := pipeline(ctx, openalex.NewClient(cfg.OpenAlex), keyword, count, openalex.FetchOptions{
		Concurrency: cfg.OpenAlex.Concurrency,
		Cache:       cache,
		Log:         log,
	})
	if err != nil {
		log.Error("qscore failed", zap.Error(err))
		return err
	}

	if err := plot.WriteHTML(out, plot.Scatter(rows, keyword)); err != nil {
		log.Error("write chart", zap.Error(err))
		return err
	}
	log.Info("chart written", zap.String("path", out), zap.Int("rows", len(rows)))

	if o.csvPath != "" {
		if err := writeCSV(o.csvPath, rows); err != nil {
			log.Error("write csv", zap.Error(err))
			return err
		}
		log.Info("table written", zap.String("path", o.csvPath))
	}

	if o.open {
		abs, _ := filepath.Abs(out)
		if err := browser.OpenFile(abs); err != nil {
			log.Warn("open browser", zap.Error(err))
		}
	}
	return nil
}

// pipeline runs fetch -> collect -> stats -> join -> score.
func pipeline(ctx context.Context, client *openalex.Client, keyword string, count int, fo openalex.FetchOptions) ([]qscore.Row, error) {
	start := time.Now()

	authors, err := openalex.CollectAuthors(ctx, client.SearchWorks(keyword), count)
	if err != nil {
		return nil, fmt.Errorf("collect authors: %w", err)
	}
	fo.Log.Info("authors collected", zap.Int("unique", len(authors)))

	stats, err := openalex.FetchStats(ctx, client, authors, fo)
	if err != nil {
		return nil, fmt.Errorf("fetch author stats: %w", err)
	}

	rows := qscore.Join(stats, authors)
	qscore.Compute(rows)

	fo.Log.Info("authors scored",
		zap.Int("rows", len(rows)),
		zap.Duration("elapsed", time.Since(start)))
	return rows, nil
}

// resolveInputs prompts for whatever was not passed as a flag.
func resolveInputs(in *bufio.Reader, out io.Writer, keyword string, count int) (string, int, error) {
	if strings.TrimSpace(keyword) == "" {
		fmt.Fprint(out, "keyword: ")
		line, err := readLine(in)
		if err != nil {
			return "", 0, fmt.Errorf("read keyword: %w", err)
		}
		keyword = line
	}
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return "", 0, errors.New("keyword is required")
	}

	if count == 0 {
		fmt.Fprint(out, "number of authors: ")
		line, err := readLine(in)
		if err != nil {
			return "", 0, fmt.Errorf("read number of authors: %w", err)
		}
		n, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			return "", 0, fmt.Errorf("number of authors must be an integer: %q", line)
		}
		count = n
	}
	if count < 1 {
		return "", 0, fmt.Errorf("number of authors must be at least 1, got %d", count)
	}
	return keyword, count, nil
}

func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func writeCSV(path string, rows []qscore.Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := plot.WriteCSV(f, rows); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastDash := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastDash = false
		} else if !lastDash {
			b.WriteRune('-')
			lastDash = true
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		out = "chart"
	}
	return out
}
