package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"mentor-rag/internal/chromemdb"
	"mentor-rag/internal/chunker"
	"mentor-rag/internal/config"
	"mentor-rag/internal/db"
	"mentor-rag/internal/embedding"
	"mentor-rag/internal/helper"
	"mentor-rag/internal/models"
	"mentor-rag/internal/parser"
	"mentor-rag/internal/store"
)

const (
	defaultConfigPath = "./configs/config.yaml"
	embedBatchSize    = 32
	progressEvery     = 100
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	filePath := flag.String("file", "", "Path to the export file")
	source := flag.String("source", "", "Source type: dayone, wordpress or wisdom")
	tradition := flag.String("tradition", "", "Tradition label for wisdom texts (optional)")
	dryRun := flag.Bool("dry-run", false, "Parse and chunk only, do not embed or store")
	reset := flag.Bool("reset", false, "Drop existing documents before ingesting")
	exportAfter := flag.Bool("export", false, "Export the collection to an encrypted file after ingesting (chromem only)")
	importOnly := flag.Bool("import", false, "Import a previously exported collection file and exit (chromem only)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	ctx := context.Background()

	if *importOnly {
		if err := runImport(ctx, cfg); err != nil {
			log.Fatal().Err(err).Msg("Import failed")
		}
		return
	}

	if *filePath == "" || *source == "" {
		log.Fatal().Msg("Both -file and -source are required")
	}
	if err := run(ctx, cfg, *filePath, *source, *tradition, *dryRun, *reset, *exportAfter); err != nil {
		log.Fatal().Err(err).Msg("Ingestion failed")
	}
}

func run(ctx context.Context, cfg *config.Config, filePath, source, tradition string, dryRun, reset, exportAfter bool) error {
	runID, err := helper.GenerateUUID()
	if err != nil {
		return err
	}
	log.Info().Str("run_id", runID).Str("file", filePath).Str("source", source).Msg("Starting ingestion")

	entries, err := parseSource(filePath, source, tradition)
	if err != nil {
		return err
	}
	log.Info().Int("entries", len(entries)).Msg("Parsed entries")

	chunks, err := chunkEntries(entries, cfg.Policy())
	if err != nil {
		return err
	}
	log.Info().Int("chunks", len(chunks)).Int("entries", len(entries)).Msg("Generated chunks")

	if dryRun {
		helper.PrettyPrint(chunks)
		return nil
	}
	if len(chunks) == 0 {
		log.Warn().Msg("No chunks generated, nothing to store")
		return nil
	}

	embedder, err := embedding.NewEmbedder(&cfg.Embedding)
	if err != nil {
		return err
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	log.Info().Msg("Generating embeddings")
	vectors, err := embedding.EmbedChunks(ctx, embedder, texts, embedBatchSize)
	if err != nil {
		return err
	}

	st, closeStore, err := newStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if reset {
		log.Warn().Msg("Dropping existing documents")
		if err := st.Reset(ctx); err != nil {
			return err
		}
	}

	docs := make([]store.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = store.Document{
			ID:        c.ID,
			Text:      c.Text,
			Embedding: vectors[i],
			Metadata:  c.Metadata(),
		}
	}

	log.Info().Int("documents", len(docs)).Msg("Adding documents to vector store")
	if err := st.Add(ctx, docs); err != nil {
		return err
	}

	count, err := st.Count(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("total_documents", count).Msg("Ingestion complete")

	if exportAfter {
		cm, ok := st.(*chromemdb.VectorDBManager)
		if !ok {
			return fmt.Errorf("export is only supported for the chromem backend")
		}
		if err := cm.Export(ctx); err != nil {
			return err
		}
		log.Info().Msg("Collection exported")
	}
	return nil
}

// runImport restores a collection from a previously exported file,
// replacing the ingest pipeline entirely.
func runImport(ctx context.Context, cfg *config.Config) error {
	if cfg.Store.Backend != "chromem" {
		return fmt.Errorf("import is only supported for the chromem backend")
	}
	m, err := chromemdb.NewVectorDBManager(cfg.Store.Path, cfg.Store.Collection, false, cfg.Store.EncryptionKey)
	if err != nil {
		return err
	}
	if err := m.Import(ctx); err != nil {
		return err
	}
	count, err := m.Count(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("total_documents", count).Msg("Import complete")
	return nil
}

func parseSource(filePath, source, tradition string) ([]models.Entry, error) {
	switch source {
	case "dayone":
		return parser.ParseDayOneExport(filePath)
	case "wordpress":
		return parser.ParseWordPressExport(filePath)
	case "wisdom":
		entry, err := parser.ParseWisdomFile(filePath, tradition)
		if err != nil {
			return nil, err
		}
		return []models.Entry{entry}, nil
	default:
		log.Fatal().Str("source", source).Msg("Unknown source type")
		return nil, nil
	}
}

func chunkEntries(entries []models.Entry, policy chunker.Policy) ([]models.Chunk, error) {
	var all []models.Chunk
	for i, e := range entries {
		chunks, err := chunker.ChunkEntry(e, policy)
		if err != nil {
			return nil, err
		}
		all = append(all, chunks...)

		if (i+1)%progressEvery == 0 {
			log.Info().Int("processed", i+1).Int("total", len(entries)).Msg("Processing entries")
		}
	}
	return all, nil
}

func newStore(cfg *config.Config) (store.Store, func(), error) {
	switch cfg.Store.Backend {
	case "chromem":
		m, err := chromemdb.NewVectorDBManager(cfg.Store.Path, cfg.Store.Collection, false, cfg.Store.EncryptionKey)
		if err != nil {
			return nil, nil, err
		}
		return m, func() {}, nil
	case "postgres":
		pg, err := db.ConnectDB(cfg.Store.DSN, cfg.Store.Debug)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.InitDB(context.Background()); err != nil {
			pg.Close()
			return nil, nil, err
		}
		return pg, func() { pg.Close() }, nil
	default:
		log.Fatal().Str("backend", cfg.Store.Backend).Msg("Unknown store backend")
		return nil, nil, nil
	}
}
