package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mikey/esp-analyzer/internal/adapters/httpapi"
	"github.com/mikey/esp-analyzer/internal/core"
	"github.com/mikey/esp-analyzer/internal/di"
	"github.com/mikey/esp-analyzer/internal/ports"
	"go.uber.org/zap"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	mailIntake ports.MailIntake,
	server *httpapi.Server,
	repo core.AnalysisRepository,
) error {
	defer logger.Sync()

	// Start the API first so status is visible while the intake connects
	if err := server.Start(); err != nil {
		logger.Error("Failed to start HTTP API", zap.Error(err))
		return err
	}

	if err := mailIntake.Start(); err != nil {
		logger.Error("Failed to start intake", zap.Error(err))
		return err
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	// Stop the intake
	if err := mailIntake.Stop(); err != nil {
		logger.Error("Failed to stop intake", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.Error("Failed to stop HTTP API", zap.Error(err))
	}

	// Stop the store if needed
	if stopper, ok := repo.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	logger.Info("Shutdown complete")
	return nil
}
