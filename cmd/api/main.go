package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ragno-typhojem/libocculus/internal/catalog"
	"github.com/ragno-typhojem/libocculus/internal/config"
	"github.com/ragno-typhojem/libocculus/internal/infrastructure/dispatch"
	"github.com/ragno-typhojem/libocculus/internal/infrastructure/dynamo"
	jwtinfra "github.com/ragno-typhojem/libocculus/internal/infrastructure/jwt"
	redisinfra "github.com/ragno-typhojem/libocculus/internal/infrastructure/redis"
	s3infra "github.com/ragno-typhojem/libocculus/internal/infrastructure/s3"
	"github.com/ragno-typhojem/libocculus/internal/infrastructure/smtp"
	"github.com/ragno-typhojem/libocculus/internal/infrastructure/sns"
	"github.com/ragno-typhojem/libocculus/internal/pkg/attempts"
	transporthttp "github.com/ragno-typhojem/libocculus/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("jwt provider: %v", err)
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("catalog: %v", err)
	}

	deps := &transporthttp.Deps{
		UserRepo:         dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		AccountRepo:      dynamo.NewAccountRepo(dynamoClient, cfg.DynamoTables.Credentials, cfg.DynamoTables.Users),
		VerificationRepo: dynamo.NewVerificationRepo(dynamoClient, cfg.DynamoTables.Verifications),
		ReportRepo:       dynamo.NewReportRepo(dynamoClient, cfg.DynamoTables.Reports, cfg.DynamoTables.Users),
		RedemptionRepo:   dynamo.NewRedemptionRepo(dynamoClient, cfg.DynamoTables.Redemptions, cfg.DynamoTables.Users),
		Catalog:          cat,
		JWTProvider:      jwtProvider,
	}

	// Login attempts: redis when reachable, otherwise per-instance memory.
	if rc := redisinfra.Connect(cfg); rc != nil {
		deps.Attempts = redisinfra.NewAttemptCounter(rc, attempts.DefaultWindow)
	} else {
		deps.Attempts = attempts.NewMemory(attempts.DefaultWindow)
	}

	// Verification mail goes through the otp-mailer function when configured.
	if cfg.OTPDispatchURL != "" {
		deps.OTPSender = dispatch.NewClient(cfg.OTPDispatchURL)
	} else {
		deps.OTPSender = smtp.NewOTPMailer(smtp.NewMailer(cfg))
	}

	// QR images are inlined as data URIs without a bucket.
	if cfg.S3BucketName != "" {
		deps.Images = s3infra.NewStore(s3infra.NewClient(cfg), cfg.S3BucketName)
	} else {
		log.Println("WARN: S3_BUCKET_NAME not set, QR images will be inlined")
	}

	if cfg.ReportTopicARN != "" {
		if p, err := sns.NewReportPublisher(cfg); err == nil {
			deps.Publisher = p
		} else {
			log.Printf("WARN: SNS publisher not available: %v", err)
		}
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
