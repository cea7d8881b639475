// Command server runs the certificate issuance and verification service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"certverify/internal/audit"
	auditstore "certverify/internal/audit/store"
	certhandler "certverify/internal/certificate/handler"
	certmetrics "certverify/internal/certificate/metrics"
	certservice "certverify/internal/certificate/service"
	certstore "certverify/internal/certificate/store"
	apphttp "certverify/internal/http"
	"certverify/internal/notification"
	"certverify/internal/platform/config"
	"certverify/internal/platform/httpserver"
	"certverify/internal/platform/logger"
	"certverify/internal/platform/middleware"
	"certverify/internal/platform/postgres"
	"certverify/internal/platform/redis"
	universityhandler "certverify/internal/university/handler"
	universityservice "certverify/internal/university/service"
	universitystore "certverify/internal/university/store"
	verifyhandler "certverify/internal/verification/handler"
	verifymetrics "certverify/internal/verification/metrics"
	verifyservice "certverify/internal/verification/service"
)

func main() {
	log := logger.New()
	cfg := config.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		certificates certservice.CertificateStore
		universities universityservice.UniversityStore
		auditLog     audit.Store
		healthChecks = map[string]apphttp.HealthChecker{}
	)

	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		certificates = certstore.NewPostgres(db, cfg.StoreTimeout)
		universities = universitystore.NewPostgres(db, cfg.StoreTimeout)
		auditLog = auditstore.NewPostgres(db, cfg.StoreTimeout)
		healthChecks["postgres"] = db.PingContext
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		certificates = certstore.NewInMemory()
		universities = universitystore.NewInMemory()
		auditLog = auditstore.NewInMemory()
	}

	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		healthChecks["redis"] = redisClient.Health
	}

	var recorderOpts []audit.Option
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("failed to create kafka sink", "error", err)
			os.Exit(1)
		}
		defer sink.Close()
		recorderOpts = append(recorderOpts, audit.WithSink(sink))
	}
	recorder := audit.NewRecorder(auditLog, log, recorderOpts...)
	defer recorder.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	universitySvc := universityservice.New(universities, log)
	certificateSvc := certservice.New(certificates, universitySvc, log,
		certservice.WithNotifier(notification.NewConsoleNotifier(log)),
		certservice.WithMetrics(certmetrics.New(registry)),
	)
	verifySvc := verifyservice.New(certificates, universitySvc, recorder, log, verifyservice.Options{
		Cache:   verifyservice.NewCodeCache(redisClient),
		Metrics: verifymetrics.New(registry),
	})

	validator := middleware.NewTokenValidator(cfg.JWTSigningKey)
	router := apphttp.NewRouter(registry, healthChecks,
		universityhandler.New(universitySvc, validator, log),
		certhandler.New(certificateSvc, verifySvc, validator, log),
		verifyhandler.New(verifySvc),
	)

	server := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
