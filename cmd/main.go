package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"corpus-rag/internal/api"
	"corpus-rag/internal/config"
	"corpus-rag/internal/embedding"
	"corpus-rag/internal/helper"
	"corpus-rag/internal/rag"
	"corpus-rag/internal/store"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	_ = godotenv.Load()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	query := flag.String("query", "", "Query to search the knowledge base")
	k := flag.Int("k", 0, "Number of results to return (0 uses the configured default)")
	rebuild := flag.Bool("rebuild", false, "Discard the persisted index and rebuild from the corpus")
	serve := flag.Bool("serve", false, "Serve the query endpoint over HTTP")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	log.Debug().Interface("config", cfg).Msg("Loaded config")

	embedder, err := embedding.NewOllamaEmbedder(ctx, &cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	st := store.New(cfg.Retrieval.IndexPath, cfg.Retrieval.Collection)
	engine := rag.NewRAG(st, embedder, cfg)

	if *rebuild {
		if err := engine.Rebuild(ctx); err != nil {
			log.Fatal().Err(err).Msg("Error rebuilding index")
		}
	} else {
		if err := engine.Init(ctx); err != nil {
			log.Fatal().Err(err).Msg("Error initializing index")
		}
	}

	switch {
	case *query != "":
		results, err := engine.Query(ctx, *query, *k)
		if err != nil {
			log.Fatal().Err(err).Msg("Error querying")
		}
		helper.PrettyPrint(results)
	case *serve:
		srv := api.NewServer(engine)
		log.Info().Str("addr", cfg.ListenAddr).Msg("Serving query endpoint")
		if err := http.ListenAndServe(cfg.ListenAddr, srv.Routes()); err != nil {
			log.Fatal().Err(err).Msg("Server stopped")
		}
	case *rebuild:
		// rebuild alone is a valid invocation; the work is already done
	default:
		log.Fatal().Msg("Please provide a query using the -query flag, or -serve to run the HTTP endpoint")
	}
}
