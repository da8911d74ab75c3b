package knowledge

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strings"

	"github.com/aiox-platform/agentbrain/internal/memory"
	"github.com/aiox-platform/agentbrain/internal/usage"
)

// Report summarizes an ingestion run.
type Report struct {
	Files    int          `json:"files"`
	Chunks   int          `json:"chunks"`
	Skipped  int          `json:"skipped"`
	Inserted int          `json:"inserted"`
	Usage    usage.Record `json:"usage"`
}

func (r *Report) add(o Report) {
	r.Files += o.Files
	r.Chunks += o.Chunks
	r.Skipped += o.Skipped
	r.Inserted += o.Inserted
	r.Usage = r.Usage.Add(o.Usage)
}

// Ingester loads documents into the knowledge corpus.
type Ingester struct {
	embedder memory.Embedder
	repo     Repository
	splitter *Splitter
}

// NewIngester creates an ingester.
func NewIngester(embedder memory.Embedder, repo Repository, splitter *Splitter) *Ingester {
	if splitter == nil {
		splitter = NewSplitter(DefaultChunkSize, DefaultChunkOverlap)
	}
	return &Ingester{embedder: embedder, repo: repo, splitter: splitter}
}

// ContentHash identifies a chunk across ingestion runs.
func ContentHash(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

// IngestDocument cleans, chunks and indexes one document. Chunks already in
// the corpus are skipped before any embedding is requested.
func (in *Ingester) IngestDocument(ctx context.Context, application, fileName, raw string) (Report, error) {
	rep := Report{Files: 1}

	chunks := in.splitter.Split(Clean(raw))
	rep.Chunks = len(chunks)
	if len(chunks) == 0 {
		return rep, nil
	}

	hashes := make([]string, len(chunks))
	for i, c := range chunks {
		hashes[i] = ContentHash(c)
	}
	known, err := in.repo.KnownHashes(ctx, hashes)
	if err != nil {
		return rep, fmt.Errorf("checking known chunks of %s: %w", fileName, err)
	}

	for i, content := range chunks {
		if known[hashes[i]] {
			rep.Skipped++
			slog.Debug("knowledge: chunk already indexed", "file", fileName, "index", i)
			continue
		}

		emb, err := in.embedder.Embed(ctx, content)
		if err != nil {
			return rep, fmt.Errorf("embedding %s chunk %d: %w", fileName, i, err)
		}
		rep.Usage = rep.Usage.Add(emb.Usage)

		inserted, err := in.repo.Insert(ctx, &Chunk{
			Application: application,
			FileName:    fileName,
			Content:     content,
			Embedding:   emb.Vector,
			ContentHash: hashes[i],
		})
		if err != nil {
			return rep, fmt.Errorf("storing %s chunk %d: %w", fileName, i, err)
		}
		if inserted {
			rep.Inserted++
		} else {
			rep.Skipped++
		}
		// Duplicate chunks inside one document.
		known[hashes[i]] = true
	}

	slog.Info("knowledge: document ingested",
		"application", application,
		"file", fileName,
		"chunks", rep.Chunks,
		"inserted", rep.Inserted,
		"skipped", rep.Skipped,
		"cost_usd", rep.Usage.CostUSD,
	)
	return rep, nil
}

// IngestFS ingests every file in fsys whose extension is in exts. The file
// name stored with each chunk is the base name without extension.
func (in *Ingester) IngestFS(ctx context.Context, fsys fs.FS, application string, exts []string) (Report, error) {
	var total Report
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !slices.Contains(exts, strings.ToLower(path.Ext(p))) {
			return nil
		}

		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		name := strings.TrimSuffix(path.Base(p), path.Ext(p))
		rep, err := in.IngestDocument(ctx, application, name, string(raw))
		total.add(rep)
		return err
	})
	return total, err
}
