package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/patmartin03-stack/shadowai-experiment/internal/config"
	logger "github.com/patmartin03-stack/shadowai-experiment/internal/logging"
	"github.com/patmartin03-stack/shadowai-experiment/internal/models"
	"github.com/patmartin03-stack/shadowai-experiment/internal/router"
	"github.com/patmartin03-stack/shadowai-experiment/internal/services"
	"github.com/patmartin03-stack/shadowai-experiment/internal/store"
)

func main() {
	// Initialize Logger
	log, err := logger.Init("logs")
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	// Initialize Configuration
	if err := config.Init(".", log); err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Persistence backend
	st, err := store.New(config.Conf.Store, log)
	if err != nil {
		log.Fatal("Failed to initialize persistence backend", zap.Error(err))
	}
	defer st.Close()
	log.Info("Persistence backend ready",
		zap.String("backend", st.Name()),
		zap.Bool("configured", st.Configured()))

	// Event gateway: buffer + periodic flush
	gateway := services.NewGateway(log, st, services.GatewayOptions{
		FlushInterval:  time.Duration(config.Conf.Buffer.FlushInterval) * time.Second,
		FlushThreshold: config.Conf.Buffer.FlushThreshold,
		MaxPending:     config.Conf.Buffer.MaxPending,
		MaxBackoff:     time.Duration(config.Conf.Buffer.MaxBackoff) * time.Second,
	})
	gateway.Start()

	// Writing-assistance prompts; built-in texts when no file is deployed.
	prompts, err := models.LoadAssistConfig(config.Conf.OpenAI.PromptsFile)
	if err != nil {
		log.Warn("Using built-in assist prompts", zap.Error(err))
		prompts = models.DefaultAssistConfig()
	}
	assist := services.NewAssist(config.Conf.OpenAI, prompts, log)

	// Setup router, passing the logger to it
	r := router.Setup(log, gateway, st, assist)

	srv := &http.Server{
		Addr:    ":" + config.Conf.Server.Port,
		Handler: r,
	}

	go func() {
		log.Info("Server listening on http://localhost:" + config.Conf.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to run server", zap.Error(err))
		}
	}()

	// Stop on SIGINT/SIGTERM, flushing whatever is still buffered.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	gateway.Stop(ctx)
}
