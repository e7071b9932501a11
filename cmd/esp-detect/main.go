package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mikey/esp-analyzer/internal/adapters/intake"
	"github.com/mikey/esp-analyzer/internal/di"
	"go.uber.org/zap"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(func(logger *zap.Logger, cli *intake.CliIntake) error {
		defer logger.Sync()
		return run(logger, cli, flags.InputFile)
	}); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run reads one message from the file or stdin and prints its analysis
func run(logger *zap.Logger, cli *intake.CliIntake, inputFile string) error {
	var emailReader io.Reader
	if inputFile != "" {
		file, err := os.Open(inputFile)
		if err != nil {
			logger.Error("Failed to open input file", zap.Error(err), zap.String("file", inputFile))
			return err
		}
		defer file.Close()
		emailReader = file
		logger.Debug("Reading email from file", zap.String("file", inputFile))
	} else {
		emailReader = os.Stdin
		logger.Debug("Reading email from stdin")
	}

	raw, err := io.ReadAll(emailReader)
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}

	_, err = cli.ProcessMessage(context.Background(), raw)
	return err
}
