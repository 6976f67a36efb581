// Command chunker splits a document with the hierarchical LLM splitter,
// prints a report and optionally stores the chunks.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/lakegraph/kgqa/config"
	"github.com/lakegraph/kgqa/log"
	"github.com/lakegraph/kgqa/oracle"
	"github.com/lakegraph/kgqa/rag/loader"
	"github.com/lakegraph/kgqa/rag/splitter"
	"github.com/lakegraph/kgqa/store"
	"github.com/lakegraph/kgqa/store/postgres"
	"github.com/lakegraph/kgqa/store/sqlite"
)

func main() {
	var (
		envFile     = flag.String("env", ".env", "dotenv file to load")
		input       = flag.String("in", "-", "document to split, - for stdin")
		docID       = flag.String("doc", "", "document id used when saving (default: input file name)")
		save        = flag.Bool("save", false, "store the chunks in the configured chunk store")
		chapters    = flag.String("chapters", "", "regexp of chapter heading lines; each chapter is split and stored as its own document")
		coarse      = flag.String("coarse", "builtin", "coarse splitter: builtin or langchain")
		chunkSize   = flag.Int("size", 0, "coarse window size in runes (overrides SPLITTER_CHUNK_SIZE)")
		overlap     = flag.Int("overlap", -1, "coarse window overlap in runes (overrides SPLITTER_CHUNK_OVERLAP)")
		concurrency = flag.Int("concurrency", 0, "parallel LLM calls (overrides SPLITTER_MAX_CONCURRENCY)")
	)
	flag.Parse()

	cfg := config.Load(*envFile)
	if level, err := log.ParseLevel(cfg.App.LogLevel); err == nil {
		log.SetLogLevel(level)
	}
	if *chunkSize > 0 {
		cfg.Splitter.ChunkSize = *chunkSize
	}
	if *overlap >= 0 {
		cfg.Splitter.ChunkOverlap = *overlap
	}
	if *concurrency > 0 {
		cfg.Splitter.MaxConcurrency = *concurrency
	}
	if err := cfg.ValidateChunks(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	llm, err := oracle.New(cfg.LLM.Provider, cfg.LLM.APIKey, cfg.LLM.BaseURL,
		oracle.WithModel(cfg.LLM.Model), oracle.WithTemperature(cfg.LLM.Temperature))
	if err == nil {
		err = run(ctx, cfg, llm, options{
			input: *input, docID: *docID, chapters: *chapters, coarse: *coarse, save: *save,
		}, os.Stdout)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

type options struct {
	input, docID, chapters, coarse string
	save                           bool
}

func run(ctx context.Context, cfg *config.Config, llm oracle.LLM, opts options, out io.Writer) error {
	docs, err := loadDocuments(ctx, opts)
	if err != nil {
		return err
	}

	coarse, err := newCoarse(opts.coarse, cfg.Splitter)
	if err != nil {
		return err
	}
	hs := splitter.NewHierarchicalSplitter(coarse, splitter.NewStructuralSplitter(llm),
		splitter.WithMaxConcurrency(cfg.Splitter.MaxConcurrency))

	var cs store.ChunkStore
	if opts.save {
		if cs, err = openChunkStore(ctx, cfg.Chunks); err != nil {
			return err
		}
		defer cs.Close()
	}

	for _, doc := range docs {
		start := time.Now()
		result, err := hs.Split(ctx, doc.Content)
		if err != nil {
			return fmt.Errorf("split %s: %w", doc.ID, err)
		}
		fmt.Fprintln(out, renderReport(doc.ID, result, time.Since(start)))

		if cs == nil {
			continue
		}
		if err := cs.SaveChunks(ctx, doc.ID, toRecords(doc.ID, result)); err != nil {
			return err
		}
		fmt.Fprintln(out, okStyle.Render(fmt.Sprintf("saved %d chunks of %s to %s", len(result.Chunks), doc.ID, cfg.Chunks.Driver)))
	}
	return nil
}

func loadDocuments(ctx context.Context, opts options) ([]loader.Document, error) {
	var loadOpts []loader.TextLoaderOption
	if opts.docID != "" {
		loadOpts = append(loadOpts, loader.WithDocumentID(opts.docID))
	}
	if opts.chapters != "" {
		cl, err := loader.NewChapterLoader(opts.input, opts.chapters, loadOpts...)
		if err != nil {
			return nil, err
		}
		return cl.Load(ctx)
	}
	doc, err := loader.NewTextLoader(opts.input, loadOpts...).Load(ctx)
	if err != nil {
		return nil, err
	}
	return []loader.Document{doc}, nil
}

func newCoarse(kind string, cfg config.SplitterConfig) (splitter.CoarseSplitter, error) {
	switch kind {
	case "builtin":
		return splitter.NewRecursiveCharacterTextSplitter(
			splitter.WithChunkSize(cfg.ChunkSize),
			splitter.WithChunkOverlap(cfg.ChunkOverlap),
		), nil
	case "langchain":
		return splitter.NewLangChainRecursive(cfg.ChunkSize, cfg.ChunkOverlap), nil
	}
	return nil, fmt.Errorf("unknown coarse splitter %q", kind)
}

func openChunkStore(ctx context.Context, cfg config.ChunkStoreConfig) (store.ChunkStore, error) {
	switch cfg.Driver {
	case "sqlite":
		return sqlite.NewChunkStore(sqlite.SqliteOptions{Path: cfg.DSN})
	case "postgres":
		cs, err := postgres.NewChunkStore(ctx, postgres.PostgresOptions{ConnString: cfg.DSN})
		if err != nil {
			return nil, err
		}
		if err := cs.InitSchema(ctx); err != nil {
			cs.Close()
			return nil, err
		}
		return cs, nil
	}
	return nil, fmt.Errorf("unknown chunk store driver %q", cfg.Driver)
}

func toRecords(docID string, result *splitter.Result) []store.ChunkRecord {
	now := time.Now().UTC()
	records := make([]store.ChunkRecord, len(result.Chunks))
	for i, c := range result.Chunks {
		records[i] = store.ChunkRecord{
			DocumentID: docID,
			Index:      i,
			Content:    c.Content,
			Verbatim:   c.Verbatim,
			CreatedAt:  now,
		}
	}
	return records
}
