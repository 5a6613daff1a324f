package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bishal292/whiteboard/api"
	"github.com/bishal292/whiteboard/cache/redis"
	"github.com/bishal292/whiteboard/config"
	"github.com/bishal292/whiteboard/mq/sqsmq"
	"github.com/bishal292/whiteboard/store/dynamo"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	cfg.SetupLogger()

	ctx := context.Background()

	whiteboardStore, err := dynamo.NewDynamoWhiteboardStore(ctx, cfg.DevMode, cfg.DynamoDB.Endpoint, cfg.DynamoDB.Table, cfg.RoomRetention)
	if err != nil {
		logrus.Fatalf("Failed to create dynamodb store: %v", err)
	}

	roomSessionsQueue, err := sqsmq.NewSQSMessageQueue(ctx, cfg.DevMode, cfg.SQS.Endpoint, cfg.SQS.RoomSessionsQueue)
	if err != nil {
		logrus.Fatalf("Failed to create SQS MQ: %v", err)
	}

	whiteboardCache, err := redis.NewRedisWhiteboardCache(ctx, cfg.DevMode, cfg.Redis.Endpoint)
	if err != nil {
		logrus.Fatalf("Failed to create redis cache: %v", err)
	}

	shutdownCtx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	whiteboardApi := api.NewWhiteboardAPI(whiteboardStore, roomSessionsQueue, whiteboardCache, api.Options{
		RoomRetention:         cfg.RoomRetention,
		ActivityFlushInterval: cfg.ActivityFlushInterval,
	}, shutdownCtx)

	mux := http.NewServeMux()
	whiteboardApi.RegisterRoutes(mux, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:    ":" + cfg.HostPort,
		Handler: mux,
	}

	go func() {
		logrus.WithField("port", cfg.HostPort).Info("Starting server")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownCtx.Done()
	logrus.Info("Server shutting down...")

	timeoutCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// Hijacked websocket connections are closed by their write pumps, which
	// watch shutdownCtx.
	if err := server.Shutdown(timeoutCtx); err != nil {
		logrus.WithError(err).Error("Shutdown error")
	}

	// Let the activity batcher flush its pending touches before exiting
	if err := whiteboardApi.Wait(timeoutCtx); err != nil {
		logrus.WithError(err).Error("Background workers did not stop in time")
	}
	logrus.Info("Server stopped")
}
