package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"assessr/adapters/postgres"
	"assessr/internal/migration"
	"assessr/internal/testkit"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	seed := flag.Bool("seed", false, "load synthetic sales and parcel profiles after migrating")
	seedValue := flag.Int64("seed-value", 42, "random seed for synthetic data")
	features := flag.Int("features", 200, "number of synthetic parcel profiles to load with -seed")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	databaseURL := os.Getenv("DATABASE_URL")
	if flag.NArg() > 0 {
		databaseURL = flag.Arg(0)
	}
	if databaseURL == "" {
		log.Fatal("Usage: migrate [-seed] [database_url] (or set DATABASE_URL)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Printf("Schema is at version %s", runner.Version())

	if !*seed {
		return
	}

	cfg := testkit.DefaultSalesConfig()
	cfg.Seed = *seedValue
	gen := testkit.NewSalesGenerator(cfg)

	sales := gen.GenerateSales()
	if err := postgres.SeedSales(ctx, db, sales); err != nil {
		log.Fatalf("Failed to seed sales: %v", err)
	}
	profiles := gen.GenerateFeatures(*features)
	if err := postgres.SeedFeatures(ctx, db, profiles); err != nil {
		log.Fatalf("Failed to seed parcel profiles: %v", err)
	}
	log.Printf("Seeded %d sales and %d parcel profiles", len(sales), len(profiles))
}
