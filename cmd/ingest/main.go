package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/aiox-platform/agentbrain/internal/config"
	"github.com/aiox-platform/agentbrain/internal/database"
	"github.com/aiox-platform/agentbrain/internal/embedding"
	"github.com/aiox-platform/agentbrain/internal/knowledge"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := command().Run(context.Background(), os.Args); err != nil {
		slog.Error("ingest failed", "error", err)
		os.Exit(1)
	}
}

func command() *cli.Command {
	var (
		application string
		dir         string
		exts        []string
		chunkSize   int64
		overlap     int64
	)

	return &cli.Command{
		Name:  "ingest",
		Usage: "Load a directory of documents into the knowledge corpus",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "application",
				Aliases:     []string{"a"},
				Usage:       "Application the chunks belong to",
				Sources:     cli.EnvVars("INGEST_APPLICATION"),
				Destination: &application,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "dir",
				Aliases:     []string{"d"},
				Usage:       "Directory to walk",
				Destination: &dir,
				Required:    true,
			},
			&cli.StringSliceFlag{
				Name:        "ext",
				Usage:       "File extensions to ingest",
				Value:       []string{".md", ".txt"},
				Destination: &exts,
			},
			&cli.IntFlag{
				Name:        "chunk-size",
				Usage:       "Maximum characters per chunk",
				Value:       knowledge.DefaultChunkSize,
				Destination: &chunkSize,
			},
			&cli.IntFlag{
				Name:        "chunk-overlap",
				Usage:       "Characters shared by neighbouring chunks",
				Value:       knowledge.DefaultChunkOverlap,
				Destination: &overlap,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if chunkSize <= 0 || overlap < 0 || overlap >= chunkSize {
				return fmt.Errorf("chunk overlap must be in [0, chunk-size), got size=%d overlap=%d", chunkSize, overlap)
			}
			return run(ctx, application, dir, normalizeExts(exts), int(chunkSize), int(overlap))
		},
	}
}

func run(ctx context.Context, application, dir string, exts []string, size, overlap int) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	agentFile, err := config.LoadAgentFile(cfg.Agents.FilePath)
	if err != nil {
		return err
	}

	pool, err := database.NewPostgresPool(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := database.RunMigrations(cfg.DB.DSN(), cfg.DB.MigrationsPath); err != nil {
		return err
	}

	provider, err := embedding.NewProvider(ctx, agentFile.Embeddings.Provider, cfg.Providers)
	if err != nil {
		return err
	}
	embedder := embedding.NewClient(provider, agentFile.Embeddings.Model, agentFile.Embeddings.Dimensions,
		embedding.DefaultPrices().With(agentFile.Pricing.Embeddings))

	ingester := knowledge.NewIngester(embedder, knowledge.NewPostgresRepository(pool), knowledge.NewSplitter(size, overlap))
	report, err := ingester.IngestFS(ctx, os.DirFS(dir), application, exts)
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", dir, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// normalizeExts accepts "md", ".MD" and comma-joined values.
func normalizeExts(in []string) []string {
	var out []string
	for _, raw := range in {
		for _, e := range strings.Split(raw, ",") {
			e = strings.ToLower(strings.TrimSpace(e))
			if e == "" {
				continue
			}
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			out = append(out, e)
		}
	}
	return out
}
