package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/samirrijal/kadal/internal/adapters/postgres"
	"github.com/samirrijal/kadal/internal/pkg/config"
	"github.com/samirrijal/kadal/internal/pkg/logging"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|list>")
	}

	cfg, err := config.Load("kadal-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, "text")

	switch os.Args[1] {
	case "list":
		names, err := postgres.Migrations()
		if err != nil {
			log.Fatalf("list migrations: %v", err)
		}
		for _, n := range names {
			fmt.Println(n)
		}
	case "up":
		ctx := context.Background()
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer db.Close()

		applied, err := db.Migrate(ctx)
		for _, f := range applied {
			fmt.Printf("OK  %s\n", f)
		}
		if err != nil {
			log.Fatalf("migrate: %v", err)
		}
		if len(applied) == 0 {
			log.Println("schema is up to date")
			return
		}
		log.Println("all migrations applied")
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}
