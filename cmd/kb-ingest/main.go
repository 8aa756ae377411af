// kb-ingest loads knowledge documents into the Qdrant collection the QA
// flow searches. Each .txt file in the input directory is split into
// paragraph blocks; every block becomes one point with the block text as
// payload, embedded in document mode.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/opsdesk/backend/internal/ai"
	"github.com/opsdesk/backend/internal/config"
	"github.com/opsdesk/backend/internal/vectordb"
)

func main() {
	dir := flag.String("dir", "knowledge", "directory of .txt knowledge documents")
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()
	if cfg.Gemini.APIKey == "" {
		log.Fatal("GEMINI_API_KEY is required")
	}
	if cfg.Qdrant.URL == "" {
		log.Fatal("QDRANT_URL is required")
	}

	ctx := context.Background()

	gemini, err := ai.New(ctx, cfg.Gemini.APIKey, cfg.Gemini.GenerativeModel, cfg.Gemini.EmbeddingModel, cfg.Gemini.Timeout)
	if err != nil {
		log.Fatalf("Failed to initialize Gemini: %v", err)
	}

	qdrant := vectordb.New(vectordb.Config{
		URL:        cfg.Qdrant.URL,
		APIKey:     cfg.Qdrant.APIKey,
		Collection: cfg.Qdrant.Collection,
		Timeout:    cfg.Qdrant.Timeout,
	})
	if err := qdrant.Ping(ctx); err != nil {
		log.Fatalf("Failed to reach Qdrant: %v", err)
	}

	blocks, err := loadBlocks(*dir)
	if err != nil {
		log.Fatalf("Failed to read knowledge documents: %v", err)
	}
	if len(blocks) == 0 {
		log.Fatalf("No knowledge blocks found under %s", *dir)
	}
	log.Printf("Embedding %d knowledge blocks from %s...", len(blocks), *dir)

	points := make([]vectordb.Point, 0, len(blocks))
	for i, block := range blocks {
		vector, err := gemini.EmbedDocument(ctx, block)
		if err != nil {
			log.Fatalf("Failed to embed block %d: %v", i+1, err)
		}
		points = append(points, vectordb.Point{
			ID:     uuid.NewString(),
			Vector: vector,
			Text:   block,
		})
	}

	if err := qdrant.EnsureCollection(ctx, len(points[0].Vector)); err != nil {
		log.Fatalf("Failed to ensure collection %s: %v", cfg.Qdrant.Collection, err)
	}
	if err := qdrant.Upsert(ctx, points); err != nil {
		log.Fatalf("Failed to upsert points: %v", err)
	}

	log.Printf("✅ Ingested %d blocks into collection %s", len(points), cfg.Qdrant.Collection)
}

// loadBlocks reads every .txt file under dir and splits it on blank lines.
func loadBlocks(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var blocks []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".txt") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		for _, block := range strings.Split(string(data), "\n\n") {
			block = strings.TrimSpace(block)
			if block != "" {
				blocks = append(blocks, block)
			}
		}
	}
	return blocks, nil
}
