package main

import (
	"context"
	"log"
	"os"

	"bookingeda/adapters/store"
	"bookingeda/internal/config"
)

func main() {
	envFile := ".env"
	if len(os.Args) > 1 {
		envFile = os.Args[1]
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if !cfg.Store.Enabled() {
		log.Fatal("Usage: STORE_DRIVER=sqlite3|postgres STORE_DSN=... migrate [env-file]")
	}

	log.Printf("Migrating %s store", cfg.Store.Driver)

	st, err := store.Open(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer st.Close()

	if err := st.Migrate(context.Background()); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Printf("Migration complete")
}
