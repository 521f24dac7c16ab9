package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	credentialhandler "proof-gateway/internal/credential/handler"
	credentialservice "proof-gateway/internal/credential/service"
	"proof-gateway/internal/credential/signer"
	credentialstores "proof-gateway/internal/credential/store"
	credentialstore "proof-gateway/internal/credential/store/credential"
	issuerstore "proof-gateway/internal/credential/store/issuer"
	httpapi "proof-gateway/internal/http"
	"proof-gateway/internal/platform/audit"
	auditkafka "proof-gateway/internal/platform/audit/kafka"
	"proof-gateway/internal/platform/config"
	"proof-gateway/internal/platform/httpserver"
	"proof-gateway/internal/platform/logger"
	"proof-gateway/internal/platform/metrics"
	"proof-gateway/internal/platform/postgres"
	platformredis "proof-gateway/internal/platform/redis"
	requesthandler "proof-gateway/internal/request/handler"
	requestservice "proof-gateway/internal/request/service"
	"proof-gateway/internal/request/sharecode"
	requeststore "proof-gateway/internal/request/store"
	verificationcache "proof-gateway/internal/verification/cache"
	verificationhandler "proof-gateway/internal/verification/handler"
	"proof-gateway/internal/verification/ledger"
	verificationservice "proof-gateway/internal/verification/service"
	"proof-gateway/internal/zkp"
)

// main wires dependencies explicitly and keeps the server lifecycle small.
// Business logic lives in the internal feature packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.PostgresDSN != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := migrate(ctx, db); err != nil {
			log.Error("failed to apply schema", "error", err)
			os.Exit(1)
		}
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var auditPublisher audit.Publisher = audit.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := auditkafka.New(cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err)
			os.Exit(1)
		}
		auditPublisher = kafkaPublisher
	}
	defer auditPublisher.Close()

	var (
		issuers     issuerstore.Store
		credentials credentialstore.Store
		verifLedger ledger.Ledger
		requests    requeststore.Store
	)
	if db != nil {
		issuers = issuerstore.NewPostgres(db)
		credentials = credentialstore.NewPostgres(db)
		verifLedger = ledger.NewPostgres(db)
		requests = requeststore.NewPostgres(db)
	} else {
		log.Warn("POSTGRES_DSN not set, using in-memory stores")
		issuers = issuerstore.NewInMemory()
		credentials = credentialstore.NewInMemory()
		verifLedger = ledger.NewInMemory()
		requests = requeststore.NewInMemory()
	}

	issuerSigner, err := signer.Generate()
	if err != nil {
		log.Error("failed to generate issuer signing key", "error", err)
		os.Exit(1)
	}
	if _, err := credentialstores.SeedBootstrapIssuer(ctx, issuers, issuerSigner); err != nil {
		log.Warn("bootstrap issuer seed skipped", "error", err)
	}

	artifacts := zkp.NewArtifacts(cfg.CircuitDir)
	verifier := zkp.NewVerifier(artifacts, log)
	prover := zkp.NewProver(artifacts)

	credentialSvc, err := credentialservice.New(issuers, credentials, issuerSigner, log,
		credentialservice.WithMetrics(m),
		credentialservice.WithAuditPublisher(auditPublisher),
	)
	if err != nil {
		log.Error("failed to build credential service", "error", err)
		os.Exit(1)
	}

	verificationOpts := []verificationservice.Option{
		verificationservice.WithMetrics(m),
		verificationservice.WithAuditPublisher(auditPublisher),
	}
	if redisClient != nil {
		verificationOpts = append(verificationOpts,
			verificationservice.WithCache(verificationcache.NewRedis(redisClient)))
	}
	verificationSvc, err := verificationservice.New(verifLedger, verifier, log, verificationOpts...)
	if err != nil {
		log.Error("failed to build verification service", "error", err)
		os.Exit(1)
	}

	var shares *sharecode.Service
	if cfg.JWTSigningKey != "" {
		shares = sharecode.New(cfg.JWTSigningKey, "proof-gateway")
	} else {
		log.Warn("JWT_SIGNING_KEY not set, share codes are issued unsigned")
	}
	requestSvc, err := requestservice.New(requests, verificationSvc, shares, log,
		requestservice.WithMetrics(m),
		requestservice.WithAuditPublisher(auditPublisher),
	)
	if err != nil {
		log.Error("failed to build request service", "error", err)
		os.Exit(1)
	}

	health := map[string]httpapi.HealthCheck{}
	if db != nil {
		health["postgres"] = db.PingContext
	}
	if redisClient != nil {
		health["redis"] = redisClient.Health
	}

	router := httpapi.NewRouter(httpapi.Options{
		Logger: log,
		Health: health,
		Features: []httpapi.FeatureHandler{
			credentialhandler.New(credentialSvc, log),
			verificationhandler.New(verificationSvc, prover, artifacts, log),
			requesthandler.New(requestSvc, log),
		},
	})

	srv := httpserver.New(cfg.Addr, router, log)

	log.Info("starting proof-gateway", "addr", cfg.Addr)
	if err := srv.Run(ctx); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func migrate(ctx context.Context, db *sql.DB) error {
	schemas := []string{
		issuerstore.Schema,
		credentialstore.Schema,
		ledger.Schema,
		requeststore.Schema,
	}
	for _, schema := range schemas {
		if _, err := db.ExecContext(ctx, schema); err != nil {
			return err
		}
	}
	return nil
}
