package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/noah-isme/pricecompare-api/internal/app"
	"github.com/noah-isme/pricecompare-api/internal/config"
	"github.com/noah-isme/pricecompare-api/internal/promostore"
)

func main() {
	var (
		file   = flag.String("file", "configs/promotions.example.yaml", "YAML file with promotions to load")
		dryRun = flag.Bool("dry-run", false, "validate the file without writing")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("read %s: %v", *file, err)
	}
	entries, err := promostore.ParseSeed(data)
	if err != nil {
		log.Fatalf("parse %s: %v", *file, err)
	}
	if *dryRun {
		log.Printf("%d promotions valid", len(entries))
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deps, err := app.Connect(ctx, cfg, zerolog.Nop(), "pricecompare-seeder")
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer deps.Close()

	store := promostore.NewPGStore(deps.DB)
	svc := promostore.NewService(promostore.ServiceConfig{
		Queries: store,
		Cache:   promostore.NewCache(deps.Redis, cfg.PromoCacheTTL),
	})
	ids, err := promostore.Seed(ctx, store, svc, entries)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	for i, id := range ids {
		log.Printf("upserted %s %s for %s at %s", id, entries[i].Type, entries[i].ProductID, entries[i].StoreID)
	}
	log.Println("Seeding completed successfully!")
}
