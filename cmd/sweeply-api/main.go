// README: Entry point; loads config, wires services, starts HTTP server and the sweep ticker.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sweeply/internal/config"
	"sweeply/internal/geo"
	httptransport "sweeply/internal/http"
	"sweeply/internal/infra"
	"sweeply/internal/logging"
	"sweeply/internal/modules/assignment"
	"sweeply/internal/modules/booking"
	"sweeply/internal/modules/cleaner"
	"sweeply/internal/modules/pricing"
	"sweeply/internal/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	amqpConn, amqpCh, err := infra.NewAMQPChannel(cfg.AMQP.URL, cfg.AMQP.Exchange)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect amqp")
	}
	defer amqpConn.Close()
	defer amqpCh.Close()
	publisher := notify.NewAMQPPublisher(amqpCh, cfg.AMQP.Exchange)

	var estimator geo.Estimator = geo.NewPrefixTable(cfg.Geo.UnknownDistanceMiles)
	if cfg.Geo.MapsAPIKey != "" {
		mapsEst, err := geo.NewMapsEstimator(cfg.Geo.MapsAPIKey, estimator)
		if err != nil {
			logger.Fatal().Err(err).Msg("maps client init")
		}
		estimator = mapsEst
	}

	pricingSvc := pricing.NewService(pricing.NewStore(dbPool))
	if err := pricingSvc.LoadRates(ctx); err != nil {
		logger.Warn().Err(err).Msg("load rate card; using built-in rates")
	}

	bookingStore := booking.NewPGStore(dbPool)
	bookingSvc := booking.NewService(bookingStore, pricingSvc, logger)

	cleanerStore := cleaner.NewPGStore(dbPool)

	assignSvc := assignment.NewService(assignment.Deps{
		Bookings:   bookingStore,
		Lifecycle:  bookingSvc,
		Cleaners:   cleanerStore,
		Rejections: assignment.NewPGRejectionStore(dbPool),
		Attempts:   assignment.NewRedisAttemptLog(redisClient),
		Estimator:  estimator,
		Publisher:  publisher,
		Config:     cfg.Assignment,
		Log:        logger,
	})

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Bookings:   bookingSvc,
		Assignment: assignSvc,
		Log:        logger,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}

	if cfg.Assignment.SweepInterval > 0 {
		go assignSvc.RunSweepTicker(ctx, cfg.Assignment.SweepInterval)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", cfg.HTTP.Addr).Msg("listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("http server")
	}
}
