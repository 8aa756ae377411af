package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/opsdesk/backend/internal/config"
	"github.com/opsdesk/backend/internal/db"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()
	dsn := cfg.Database.DSN()
	if dsn == "" {
		log.Fatal("DATABASE_URL (or DB_HOST/DB_USER/DB_NAME) is required")
	}

	gdb, err := db.Connect(context.Background(), dsn, db.DefaultRetryPolicy())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("Running database migrations...")
	if err := db.AutoMigrate(gdb); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("✅ Database migrations completed successfully!")
}
