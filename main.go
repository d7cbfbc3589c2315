// main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"ticket-gate/config"
	"ticket-gate/logger"
	"ticket-gate/metrics"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.Load()
	if err := logger.InitLogger(cfg.LogDir); err != nil {
		log.Fatalf("Failed to initialise logger: %v", err)
	}
	logger.SetLogLevel(cfg.Env)

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.SessionSecret == "change-me" {
		logger.Warn.Println("[main] SESSION_SECRET is not set; using the development default")
	}

	var cw *metrics.CloudWatch
	if cfg.CloudWatchEnabled {
		var err error
		if cw, err = metrics.NewCloudWatch(); err != nil {
			logger.Error.Printf("[main] CloudWatch disabled: %v", err)
			cw = nil
		}
	}

	httpClient := &http.Client{Timeout: cfg.APITimeout}
	if cfg.TracingEnabled {
		httpClient = xray.Client(httpClient)
	}

	router, err := setupRouter(cfg, dependencies{
		Recorder:   metrics.New(cw),
		HTTPClient: httpClient,
	})
	if err != nil {
		logger.Error.Fatalf("[main] Failed to build router: %v", err)
	}

	var handler http.Handler = router
	if cfg.TracingEnabled {
		handler = xray.Handler(xray.NewFixedSegmentNamer("ticket-gate"), router)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info.Printf("[main] Ticket gate listening on :%s (api=%s)", cfg.Port, cfg.TicketingAPIURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error.Fatalf("[main] Failed to run server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info.Println("[main] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error.Printf("[main] Graceful shutdown failed: %v", err)
	}
}
