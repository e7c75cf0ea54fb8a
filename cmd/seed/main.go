package main

import (
	"context"
	"log"
	"os"

	"restaurant-segments/internal/config"
	"restaurant-segments/internal/db"
	customerrepo "restaurant-segments/internal/repository/customer"
	restaurantrepo "restaurant-segments/internal/repository/restaurant"
	summaryrepo "restaurant-segments/internal/repository/summary"
	triggerrepo "restaurant-segments/internal/repository/trigger"
	"restaurant-segments/internal/seed"
	customersvc "restaurant-segments/internal/service/customer"
	"restaurant-segments/internal/service/segmentation"
	"restaurant-segments/internal/tagging"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, db.PoolOptions{})
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	customerRepo := customerrepo.NewPostgres(pool, logger)
	segments := segmentation.New(customerRepo, summaryrepo.NewPostgres(pool), triggerrepo.NewPostgres(pool), tagging.NewEvaluator(cfg.Policy), logger)
	customers := customersvc.New(customerRepo, segments, logger)

	seeder := seed.New(restaurantrepo.NewPostgres(pool), customers, segments, logger)
	res, err := seeder.Apply(ctx, seed.NewDemo())
	if err != nil {
		logger.Fatalf("seed apply: %v", err)
	}

	logger.Printf("seed applied: customers=%d high_spenders=%d at_risk=%d pending_triggers=%d",
		res.Summary.Summary.TotalCustomers,
		res.Summary.Summary.SpendCounts["high_spender"],
		res.Summary.Summary.ActivityCounts["at_risk"],
		len(res.Triggers))
}
