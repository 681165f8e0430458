package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/offenesthueringen/bahnclip/internal/adapters/postgres"
	"github.com/offenesthueringen/bahnclip/internal/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down>")
	}

	cfg, err := config.Load("bahnclip-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), 2)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	var (
		applied []string
		verb    string
	)
	switch os.Args[1] {
	case "up":
		applied, err = postgres.Migrate(ctx, db)
		verb = "applied"
	case "down":
		applied, err = postgres.Rollback(ctx, db)
		verb = "rolled back"
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
	if err != nil {
		log.Fatalf("migrate %s: %v", os.Args[1], err)
	}

	for _, f := range applied {
		fmt.Printf("OK  %s\n", f)
	}
	log.Printf("%d migrations %s", len(applied), verb)
}
