package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"restaurant-segments/internal/config"
	"restaurant-segments/internal/db"
	"restaurant-segments/internal/domain"
	"restaurant-segments/internal/importer"
	customerrepo "restaurant-segments/internal/repository/customer"
	restaurantrepo "restaurant-segments/internal/repository/restaurant"
	summaryrepo "restaurant-segments/internal/repository/summary"
	triggerrepo "restaurant-segments/internal/repository/trigger"
	customersvc "restaurant-segments/internal/service/customer"
	"restaurant-segments/internal/service/segmentation"
	"restaurant-segments/internal/tagging"
)

func main() {
	var (
		filePath      string
		restaurantKey string
		recalculate   bool
	)
	flag.StringVar(&filePath, "file", "", "Path to order history CSV export")
	flag.StringVar(&restaurantKey, "restaurant", "", "Restaurant key to import into")
	flag.BoolVar(&recalculate, "recalculate", true, "Run a full segmentation pass after importing")
	flag.Parse()

	if filePath == "" || restaurantKey == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	logger := log.New(os.Stderr, "[importer] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DBConnString, db.PoolOptions{})
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	restaurants := restaurantrepo.NewPostgres(pool)
	r, err := restaurants.GetByKey(ctx, restaurantKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r, err = restaurants.Create(ctx, domain.Restaurant{Key: restaurantKey, Name: restaurantKey})
		}
		if err != nil {
			logger.Fatalf("ensure restaurant %q: %v", restaurantKey, err)
		}
	}

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatalf("open file: %v", err)
	}
	defer f.Close()

	customerRepo := customerrepo.NewPostgres(pool, logger)
	segments := segmentation.New(customerRepo, summaryrepo.NewPostgres(pool), triggerrepo.NewPostgres(pool), tagging.NewEvaluator(cfg.Policy), logger)
	customers := customersvc.New(customerRepo, segments, logger)

	start := time.Now()
	res, err := importer.NewCSVImporter(f, customers, r.ID).Run(ctx)
	if err != nil {
		logger.Fatalf("import failed after %d orders: %v", res.Orders, err)
	}
	fmt.Printf("Imported %d orders (%d already present) into %s in %s\n", res.Orders, res.Skipped, restaurantKey, time.Since(start).Truncate(time.Millisecond))

	if recalculate {
		pass, err := segments.Recalculate(ctx, r.ID)
		if err != nil {
			logger.Fatalf("recalculate: %v", err)
		}
		fmt.Printf("Tagged %d customers, %d new triggers\n", pass.Evaluated, len(pass.Triggers))
	}
}
