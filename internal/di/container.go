package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/esp-analyzer/internal/adapters/httpapi"
	"github.com/mikey/esp-analyzer/internal/analyzer"
	"github.com/mikey/esp-analyzer/internal/config"
	"github.com/mikey/esp-analyzer/internal/core"
	"github.com/mikey/esp-analyzer/internal/factory"
	"github.com/mikey/esp-analyzer/internal/logging"
	"github.com/mikey/esp-analyzer/internal/ports"
	"github.com/mikey/esp-analyzer/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() (*config.Config, error) {
		cfg, err := config.New()
		if err != nil {
			return nil, err
		}
		return cfg, cfg.Validate()
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideAnalysis(container); err != nil {
		return nil, err
	}

	// Register repository
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.StoreFactory) (core.AnalysisRepository, error) {
		return f.CreateRepository()
	}); err != nil {
		return nil, err
	}

	// Register analysis service
	if err := container.Provide(newAnalysisService); err != nil {
		return nil, err
	}

	// Register mail intake
	if err := container.Provide(factory.NewIntakeFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.IntakeFactory) (ports.MailIntake, error) {
		return f.CreateMailIntake()
	}); err != nil {
		return nil, err
	}

	// Register HTTP API
	if err := container.Provide(func(
		cfg *config.Config,
		service *core.AnalysisService,
		intake ports.MailIntake,
		logger *zap.Logger,
	) *httpapi.Server {
		httpCfg := cfg.GetHTTP()
		handlers := httpapi.NewHandlers(service, intake, logger)
		return httpapi.NewServer(httpCfg.ListenAddress, httpapi.NewRouter(handlers, httpCfg.CORSOrigin), logger)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideAnalysis registers the text processor and the header analyzer
func provideAnalysis(container *dig.Container) error {
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return err
	}
	return container.Provide(func(logger *zap.Logger, tp *utils.TextProcessor) core.Analyzer {
		return analyzer.NewAnalyzer(logger, tp)
	})
}

// newAnalysisService wires the service with its list limit and test settings
func newAnalysisService(
	cfg *config.Config,
	a core.Analyzer,
	repo core.AnalysisRepository,
	logger *zap.Logger,
) *core.AnalysisService {
	return core.NewAnalysisService(
		a,
		repo,
		logger,
		cfg.GetHTTP().ListLimit,
		cfg.GetAnalysis().TestAddress,
		cfg.GetString("imap.subject_prefix"),
	)
}
