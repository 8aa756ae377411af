package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opsdesk/backend/internal/ai"
	"github.com/opsdesk/backend/internal/config"
	"github.com/opsdesk/backend/internal/controllers"
	"github.com/opsdesk/backend/internal/db"
	"github.com/opsdesk/backend/internal/logger"
	"github.com/opsdesk/backend/internal/middleware"
	"github.com/opsdesk/backend/internal/routes"
	"github.com/opsdesk/backend/internal/services"
	"github.com/opsdesk/backend/internal/store"
	"github.com/opsdesk/backend/internal/transcripts"
	"github.com/opsdesk/backend/internal/vectordb"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// Initialize logger first
	logger.Initialize()

	// Load environment variables
	if os.Getenv("ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			logger.Warn("No .env file found, using environment variables", nil)
		}
	}

	cfg := config.Load()
	caps := cfg.Capabilities()
	ctx := context.Background()

	// Relational log store
	var gdb *gorm.DB
	if caps.LogStore {
		var err error
		gdb, err = db.Connect(ctx, cfg.Database.DSN(), db.DefaultRetryPolicy())
		if err != nil {
			logger.Error("Failed to connect to the log database, log endpoints disabled", map[string]interface{}{
				"error": err.Error(),
			})
			caps.LogStore = false
		}
	} else {
		logger.Warn("Log database not configured (DATABASE_URL or DB_* missing), log endpoints disabled", nil)
	}

	// Gemini
	var geminiClient *ai.Client
	if caps.AI {
		var err error
		geminiClient, err = ai.New(ctx, cfg.Gemini.APIKey, cfg.Gemini.GenerativeModel, cfg.Gemini.EmbeddingModel, cfg.Gemini.Timeout)
		if err != nil {
			logger.Error("Failed to initialize Gemini, AI features disabled", map[string]interface{}{
				"error": err.Error(),
			})
			caps.AI = false
		} else {
			logger.Info("Gemini client initialized", map[string]interface{}{
				"generative_model": cfg.Gemini.GenerativeModel,
				"embedding_model":  cfg.Gemini.EmbeddingModel,
			})
		}
	} else {
		logger.Warn("GEMINI_API_KEY not set, AI features disabled", nil)
	}

	// Qdrant
	qdrantClient := vectordb.New(vectordb.Config{
		URL:        cfg.Qdrant.URL,
		APIKey:     cfg.Qdrant.APIKey,
		Collection: cfg.Qdrant.Collection,
		Timeout:    cfg.Qdrant.Timeout,
	})
	if caps.KnowledgeBase {
		if err := qdrantClient.Ping(ctx); err != nil {
			logger.Error("Failed to reach Qdrant, knowledge base disabled", map[string]interface{}{
				"error": err.Error(),
			})
			caps.KnowledgeBase = false
		} else {
			logger.Info("Qdrant client initialized", map[string]interface{}{
				"url":        cfg.Qdrant.URL,
				"collection": cfg.Qdrant.Collection,
			})
		}
	} else {
		logger.Warn("QDRANT_URL not set, knowledge base disabled", nil)
	}

	// Transcript store
	var transcriptStore *transcripts.Store
	if caps.Transcripts {
		var err error
		transcriptStore, err = transcripts.New(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection)
		if err != nil {
			logger.Error("Failed to connect to MongoDB, transcripts will not be saved", map[string]interface{}{
				"error": err.Error(),
			})
			caps.Transcripts = false
		} else {
			logger.Info("Transcript store initialized", map[string]interface{}{
				"database":   cfg.Mongo.Database,
				"collection": cfg.Mongo.Collection,
			})
			defer transcriptStore.Close(ctx)
		}
	} else {
		logger.Warn("MONGO_CONNECTION_STRING not set, transcripts will not be saved", nil)
	}

	// Capabilities are final from here on.
	logger.Info("Startup capabilities resolved", map[string]interface{}{
		"ai":             caps.AI,
		"knowledge_base": caps.KnowledgeBase,
		"transcripts":    caps.Transcripts,
		"log_store":      caps.LogStore,
	})

	// Assemble the QA orchestrator. Interface fields stay nil for disabled
	// collaborators; the enabled flag keeps them from being touched.
	var (
		embedder    services.Embedder
		generator   services.Generator
		searcher    services.Searcher
		transcriptW services.TranscriptStore
	)
	if geminiClient != nil {
		embedder = geminiClient
		generator = geminiClient
	}
	if caps.KnowledgeBase {
		searcher = qdrantClient
	}
	if transcriptStore != nil {
		transcriptW = transcriptStore
	}
	qaService := services.NewQAService(embedder, searcher, generator, transcriptW,
		cfg.Search.ScoreThreshold, cfg.Search.Limit, caps.AI && caps.KnowledgeBase)

	var logStore controllers.LogStore
	if gdb != nil {
		logStore = store.NewLogStore(gdb)
	}

	// Set Gin mode
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestLogger())
	r.Use(gin.Recovery())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		dbStatus := "disabled"
		if gdb != nil {
			dbStatus = "ok"
			if sqlDB, err := gdb.DB(); err != nil || sqlDB.Ping() != nil {
				dbStatus = "error"
			}
		}

		kbStatus := "disabled"
		if caps.KnowledgeBase {
			kbStatus = "ok"
			if err := qdrantClient.Ping(c.Request.Context()); err != nil {
				kbStatus = "error"
			}
		}

		overall := "ok"
		statusCode := http.StatusOK
		if dbStatus == "error" || kbStatus == "error" {
			overall = "error"
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, gin.H{
			"status":    overall,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"services": gin.H{
				"database":       gin.H{"status": dbStatus},
				"knowledge_base": gin.H{"status": kbStatus},
			},
			"capabilities": gin.H{
				"ai":             caps.AI,
				"knowledge_base": caps.KnowledgeBase,
				"transcripts":    caps.Transcripts,
				"log_store":      caps.LogStore,
			},
		})
	})

	routes.SetupRoutes(r, logStore, qaService, caps)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	logger.Info("Starting IT support desk backend", map[string]interface{}{
		"port":     cfg.Port,
		"gin_mode": gin.Mode(),
	})

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan
	logger.Info("Shutting down server gracefully...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		logger.Info("Server exited gracefully", nil)
	}
}
