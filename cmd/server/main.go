package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"mentor-rag/internal/chromemdb"
	"mentor-rag/internal/config"
	"mentor-rag/internal/db"
	"mentor-rag/internal/embedding"
	"mentor-rag/internal/llmservice"
	"mentor-rag/internal/retrieval"
	"mentor-rag/internal/server"
	"mentor-rag/internal/store"
)

const defaultConfigPath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	st, closeStore, err := newStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing vector store")
	}
	defer closeStore()

	embedder, err := embedding.NewEmbedder(&cfg.Embedding)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	llm, err := llmservice.NewService(&cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing LLM service")
	}

	retriever := retrieval.NewService(st, embedder, cfg.Retrieval.TopK)
	srv := server.New(retriever, llm, st, cfg.Server.CORSOrigins)

	httpSrv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("Starting server")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}
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
		return pg, func() { pg.Close() }, nil
	default:
		log.Fatal().Str("backend", cfg.Store.Backend).Msg("Unknown store backend")
		return nil, nil, nil
	}
}
