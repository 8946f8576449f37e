// Command searchbench runs a fixed set of reference queries against the
// full procurement corpus and prints timing plus a compact result table.
// It is the smoke test run after every index or model change.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/holzlar/procurement-search-app/internal/config"
	"github.com/holzlar/procurement-search-app/internal/domain/display"
	procsearch "github.com/holzlar/procurement-search-app/pkg/sdk"
)

// referenceQueries span the difficulty range: long noisy product lists,
// narrow technical terms, and single generic words.
var referenceQueries = []string{
	"полотно обтирочное полотно безворсовое аверфос или хэлфос препараты от гнуса перчатки х б с пвх полотно обтирочное ветошь ширина 140 5 см плотность 175 гр м2",
	"материалы верхнего строения железнодорожных путей шпалы железобетонные ш1 р 65 в комплекте",
	"электротовары",
	"багор пожарный",
	"электрод",
	"экскаватор",
	"автобус",
	"3d принтер",
	"бензин аи 92",
	"samsung",
	"картридж",
}

func main() {
	app := &cli.App{
		Name:  "searchbench",
		Usage: "Run reference semantic search queries against the procurement store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env",
				Usage: "Config environment name (local, dev, prod)",
				Value: config.GetEnv(),
			},
			&cli.Float64Flag{
				Name:  "threshold",
				Usage: "Minimum similarity score",
				Value: 0.5,
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Results per query",
				Value: 5,
			},
			&cli.IntFlag{
				Name:  "candidates",
				Usage: "Approximate-search candidate pool size",
				Value: 20000,
			},
			&cli.StringSliceFlag{
				Name:  "exclude-source",
				Usage: "Source labels to exclude from the search",
				Value: cli.NewStringSlice("Goszakup"),
			},
			&cli.StringSliceFlag{
				Name:  "query",
				Usage: "Query to run (repeatable; defaults to the reference set)",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "searchbench:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("env"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	client, err := newClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	sources, err := benchSources(ctx, client, c.StringSlice("exclude-source"))
	if err != nil {
		return err
	}
	fmt.Printf("Searching across %d sources (excluded: %s)\n\n",
		len(sources), strings.Join(c.StringSlice("exclude-source"), ", "))

	queries := c.StringSlice("query")
	if len(queries) == 0 {
		queries = referenceQueries
	}

	for _, query := range queries {
		runQuery(ctx, client, query, procsearch.SearchParams{
			Query:          query,
			Threshold:      procsearch.Threshold(c.Float64("threshold")),
			MatchCount:     c.Int("limit"),
			CandidateCount: c.Int("candidates"),
			Sources:        sources,
		})
	}
	return nil
}

func newClient(ctx context.Context, cfg config.Config) (*procsearch.Client, error) {
	opts := []procsearch.Option{
		procsearch.WithPostgres(cfg.Database.DSN),
		procsearch.WithQueryTimeout(time.Duration(cfg.Database.QueryTimeoutSec) * time.Second),
		procsearch.WithStoreFunctions(
			cfg.Database.SearchFunction,
			cfg.Database.SourcesFunction,
			cfg.Database.DataTable,
		),
		procsearch.WithOpenAIEmbedding(procsearch.EmbeddingConfig{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		}),
	}
	if len(cfg.Cache.Addrs) > 0 {
		ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour
		opts = append(opts, procsearch.WithEmbeddingCache(cfg.Cache.Addrs[0], cfg.Cache.Password, ttl))
	}

	client, err := procsearch.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return client, nil
}

// sourcesLister is the part of the client benchSources needs.
type sourcesLister interface {
	Sources(ctx context.Context) ([]string, error)
}

// benchSources returns all store sources minus the excluded ones.
func benchSources(ctx context.Context, client sourcesLister, excluded []string) ([]string, error) {
	all, err := client.Sources(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	skip := make(map[string]struct{}, len(excluded))
	for _, s := range excluded {
		skip[s] = struct{}{}
	}

	var sources []string
	for _, s := range all {
		if _, ok := skip[s]; !ok {
			sources = append(sources, s)
		}
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources left after exclusions")
	}
	return sources, nil
}

// runQuery executes one query and prints its results. Failures are
// reported and skipped so the rest of the set still runs.
func runQuery(ctx context.Context, client *procsearch.Client, query string, params procsearch.SearchParams) {
	fmt.Printf("Query: %q\n", query)

	start := time.Now()
	results, err := client.Search(ctx, params)
	elapsed := time.Since(start)

	if err != nil {
		fmt.Printf("  FAILED after %.2fs: %v\n\n", elapsed.Seconds(), err)
		return
	}
	if len(results) == 0 {
		fmt.Printf("  no results (%.2fs)\n\n", elapsed.Seconds())
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 2, 2, ' ', 0)
	fmt.Fprintln(w, "  score\tlevel\tsource\tdate\twinner\ttext")
	for _, r := range results {
		fmt.Fprintf(w, "  %.3f\t%s\t%s\t%s\t%s\t%s\n",
			r.SimilarityScore,
			display.SimilarityLevel(r.SimilarityScore),
			r.Source,
			display.Date(r.PublishDate),
			display.Truncate(r.Winner, 30),
			display.Truncate(r.BestChunkText, 60),
		)
	}
	_ = w.Flush()
	fmt.Printf("  %d results in %.2fs\n\n", len(results), elapsed.Seconds())
}
