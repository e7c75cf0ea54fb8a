package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"restaurant-segments/internal/config"
	"restaurant-segments/internal/db"
	"restaurant-segments/internal/delivery"
	"restaurant-segments/internal/httpserver"
	customerrepo "restaurant-segments/internal/repository/customer"
	restaurantrepo "restaurant-segments/internal/repository/restaurant"
	summaryrepo "restaurant-segments/internal/repository/summary"
	triggerrepo "restaurant-segments/internal/repository/trigger"
	"restaurant-segments/internal/scheduler"
	customersvc "restaurant-segments/internal/service/customer"
	"restaurant-segments/internal/service/segmentation"
	triggersvc "restaurant-segments/internal/service/trigger"
	"restaurant-segments/internal/tagging"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	if err := cfg.Policy.Validate(); err != nil {
		logger.Fatalf("invalid tag policy: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbpool, err := db.Connect(ctx, cfg.DBConnString, db.PoolOptions{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	restaurantRepo := restaurantrepo.NewPostgres(dbpool)
	customerRepo := customerrepo.NewPostgres(dbpool, logger)
	summaryRepo := summaryrepo.NewPostgres(dbpool)
	triggerRepo := triggerrepo.NewPostgres(dbpool)

	evaluator := tagging.NewEvaluator(cfg.Policy)
	segmentService := segmentation.New(customerRepo, summaryRepo, triggerRepo, evaluator, logger)
	customerService := customersvc.New(customerRepo, segmentService, logger)
	triggerService := triggersvc.New(triggerRepo, customerRepo, newSender(cfg, logger), cfg.DispatchConcurrency, logger)

	srv, err := httpserver.New(httpserver.Options{
		Addr:            cfg.HTTPAddr,
		ReadTimeout:     cfg.HTTPReadTimeout,
		WriteTimeout:    cfg.HTTPWriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger, dbpool, httpserver.Deps{
		Restaurants: restaurantRepo,
		CustomerSvc: customerService,
		SegmentSvc:  segmentService,
		TriggerSvc:  triggerService,
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	var sched *scheduler.Scheduler
	if cfg.RecalcSchedule != "off" {
		sched, err = scheduler.New(cfg.RecalcSchedule, restaurantRepo, segmentService, triggerService, cfg.DispatchBatchSize, logger)
		if err != nil {
			logger.Fatalf("init scheduler: %v", err)
		}
		sched.Start()
	}

	if err := srv.Run(ctx); err != nil {
		logger.Printf("server error: %v", err)
	}
	stop()

	if sched != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		sched.Stop(stopCtx)
	}
	logger.Printf("api stopped")
}

func newSender(cfg config.Config, logger *log.Logger) delivery.Sender {
	if !cfg.Twilio.Enabled() {
		logger.Printf("twilio not configured, outreach messages will be logged only")
		return delivery.NewLogSender(logger)
	}
	return delivery.NewTwilioSender(delivery.TwilioConfig{
		AccountSID:     cfg.Twilio.AccountSID,
		AuthToken:      cfg.Twilio.AuthToken,
		FromNumber:     cfg.Twilio.FromNumber,
		WhatsAppNumber: cfg.Twilio.WhatsAppNumber,
	}, logger)
}
