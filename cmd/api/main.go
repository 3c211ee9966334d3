package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"github.com/brokercore/motorquote/internal/core"
	"github.com/brokercore/motorquote/internal/events"
	transporthttp "github.com/brokercore/motorquote/internal/http"
	"github.com/brokercore/motorquote/internal/http/handlers"
	"github.com/brokercore/motorquote/internal/http/health"
	"github.com/brokercore/motorquote/internal/jobs"
	"github.com/brokercore/motorquote/internal/middleware"
	"github.com/brokercore/motorquote/internal/platform/config"
	"github.com/brokercore/motorquote/internal/platform/logging"
	"github.com/brokercore/motorquote/internal/store/dynamo"
	"github.com/brokercore/motorquote/internal/store/mongo"
)

func main() {
	cfg := config.MustLoad()
	log := logging.New(cfg.Env)
	log.Info("starting motorquote API", "env", cfg.Env, "db_type", cfg.DBType)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		quotationRepo core.QuotationRepo
		companyRepo   core.CompanyRepo
		pinger        health.Pinger
	)

	switch cfg.DBType {
	case "mongo":
		client, err := mongo.NewClient(cfg)
		if err != nil {
			log.Error("failed to connect to MongoDB", "err", err)
			os.Exit(1)
		}
		defer client.Close(context.Background())

		if err := mongo.EnsureIndexes(ctx, client.DB); err != nil {
			log.Error("failed to ensure indexes", "err", err)
			os.Exit(1)
		}

		opTimeout := time.Duration(cfg.MongoOpTimeoutMs) * time.Millisecond
		quotationRepo = mongo.NewQuotationRepo(client, opTimeout)
		companyRepo = mongo.NewCompanyRepo(client, opTimeout)
		pinger = client

	case "dynamodb":
		client, err := dynamo.NewClient(ctx, dynamo.Config{
			Region:          cfg.AWSRegion,
			Endpoint:        cfg.DynamoDBEndpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			log.Error("failed to connect to DynamoDB", "err", err)
			os.Exit(1)
		}

		if err := dynamo.EnsureTables(ctx, client.DB, log); err != nil {
			log.Error("failed to ensure tables", "err", err)
			os.Exit(1)
		}

		quotationRepo = dynamo.NewQuotationRepo(client.DB)
		companyRepo = dynamo.NewCompanyRepo(client.DB)
		pinger = client

	default:
		log.Error("unknown DB_TYPE", "db_type", cfg.DBType)
		os.Exit(1)
	}

	table := core.DefaultRatingTable()
	if cfg.RoadsideAssistanceAmount > 0 {
		table.RoadsideAssistance = decimal.NewFromFloat(cfg.RoadsideAssistanceAmount)
	}
	if cfg.GSTHalfRate > 0 {
		table.GSTHalfRate = decimal.NewFromFloat(cfg.GSTHalfRate)
	}
	calc := core.NewPremiumCalculator(table)

	bus := events.NewBus()
	quotationSvc := core.NewQuotationService(quotationRepo, companyRepo, calc, bus)

	// ---- Router ----
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(time.Duration(cfg.HTTPRequestTimeoutSec) * time.Second))

	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.LimitRequestBody(middleware.MaxBodySize))

	rl := middleware.NewRateLimiter(cfg.RateLimitRPM, time.Minute)
	rl.StartWithContext(ctx)
	r.Use(rl.Middleware)

	r.Use(middleware.SimpleAPIKey(cfg.APIKey))

	opTimeout := time.Duration(cfg.MongoOpTimeoutMs) * time.Millisecond
	api := transporthttp.NewRouter(transporthttp.Deps{
		Mounts: []handlers.Mountable{
			health.New(log, pinger, opTimeout),
			handlers.NewQuotationHandler(quotationSvc, log),
			handlers.NewCompanyHandler(companyRepo, log),
			handlers.NewCommissionHandler(log),
		},
	})
	r.Mount("/", api)

	// ---- Background workers ----
	dispatcher := jobs.NewDispatchWorker(bus, jobs.LogNotifier{Log: log},
		time.Duration(cfg.WorkerIntervalSec)*time.Second, log)
	go dispatcher.Start(ctx)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTPReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTPWriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(cfg.HTTPIdleTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	}
}
