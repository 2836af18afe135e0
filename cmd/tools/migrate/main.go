package main

import (
	"errors"
	"flag"
	"log"
	"strings"

	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/noah-isme/pricecompare-api/internal/app"
	"github.com/noah-isme/pricecompare-api/internal/config"
	"github.com/noah-isme/pricecompare-api/migrations"
)

func main() {
	var (
		direction = flag.String("direction", "up", "up, down or version")
		steps     = flag.Int("steps", 0, "number of migrations to roll back with -direction=down; 0 rolls back everything")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		log.Fatalf("open migrations: %v", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, driverURL(cfg.DatabaseURL))
	if err != nil {
		log.Fatalf("init migrate: %v", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.Printf("close migrate: source=%v database=%v", srcErr, dbErr)
		}
	}()

	switch *direction {
	case "up":
		if err := app.RunMigrations(m); err != nil {
			log.Fatalf("migrate up: %v", err)
		}
	case "down":
		if *steps > 0 {
			err = m.Steps(-*steps)
		} else {
			err = m.Down()
		}
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("migrate down: %v", err)
		}
	case "version":
	default:
		log.Fatalf("unknown direction %q", *direction)
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		log.Println("no migrations applied")
	case err != nil:
		log.Fatalf("read version: %v", err)
	default:
		log.Printf("schema at version %d (dirty=%t)", version, dirty)
	}
}

// driverURL maps a postgres:// URL onto the scheme the pgx/v5 migrate driver registers.
func driverURL(databaseURL string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(databaseURL, prefix) {
			return "pgx5://" + strings.TrimPrefix(databaseURL, prefix)
		}
	}
	return databaseURL
}
