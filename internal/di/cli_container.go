package di

import (
	"flag"
	"os"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/esp-analyzer/internal/adapters/intake"
	"github.com/mikey/esp-analyzer/internal/adapters/store"
	"github.com/mikey/esp-analyzer/internal/config"
	"github.com/mikey/esp-analyzer/internal/core"
	"github.com/mikey/esp-analyzer/internal/factory"
	"github.com/mikey/esp-analyzer/internal/logging"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	InputFile  string
	Verbose    bool
	JSONLog    bool
	JSON       bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	flag.StringVar(&flags.InputFile, "file", "", "Input email file (use stdin if not specified)")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging and print the body excerpt")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.BoolVar(&flags.JSON, "json", false, "Print the analysis record as JSON")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file")

	flag.Parse()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		var cfg *config.Config
		if flags.ConfigFile != "" {
			loaded, err := config.Load(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", loaded.GetViper().ConfigFileUsed()))
			cfg = loaded
		} else {
			cfg = config.NewFromViper(config.NewEmptyViper())
		}

		// Set some cli specific settings
		cfg.Set("cli.verbose", flags.Verbose)
		cfg.Set("cli.json", flags.JSON)
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	if err := provideAnalysis(container); err != nil {
		return nil, err
	}

	// Register an in-memory repository; the CLI keeps nothing between runs
	if err := container.Provide(func(logger *zap.Logger) core.AnalysisRepository {
		return store.NewMemoryStore(logger, 0, 0)
	}); err != nil {
		return nil, err
	}

	// Register analysis service
	if err := container.Provide(newAnalysisService); err != nil {
		return nil, err
	}

	// Register CLI intake
	if err := container.Provide(factory.NewIntakeFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.IntakeFactory) *intake.CliIntake {
		return f.CreateCliIntake(os.Stdout)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
