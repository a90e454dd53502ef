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

	"github.com/ragno-typhojem/libocculus/internal/config"
	"github.com/ragno-typhojem/libocculus/internal/infrastructure/smtp"
	"github.com/ragno-typhojem/libocculus/internal/transport/mailer"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	if cfg.SMTPHost == "" {
		log.Fatal("SMTP_HOST is not set")
	}

	h := mailer.NewHandler(smtp.NewOTPMailer(smtp.NewMailer(cfg)))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.MailerPort),
		Handler:      mailer.NewRouter(h),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("otp-mailer listening on :%s", cfg.MailerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("otp-mailer stopped")
}
