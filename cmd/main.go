package main

import (
	"github.com/SaiCharanMahadevan/HealthTrackerApp/config"
	"github.com/SaiCharanMahadevan/HealthTrackerApp/controllers"
	"github.com/SaiCharanMahadevan/HealthTrackerApp/logger"
	"github.com/SaiCharanMahadevan/HealthTrackerApp/routes"
	"github.com/SaiCharanMahadevan/HealthTrackerApp/services"
	"github.com/SaiCharanMahadevan/HealthTrackerApp/utils"
)

func main() {
	logger.Init()
	cfg := config.Load()
	config.InitDB()
	utils.InitS3()

	gemini := services.NewGeminiClient(services.GeminiConfig{
		APIKey:          cfg.GeminiAPIKey,
		Model:           cfg.GeminiModel,
		BaseURL:         cfg.GeminiBaseURL,
		Timeout:         cfg.GeminiTimeout,
		Temperature:     cfg.GeminiTemperature,
		MaxOutputTokens: cfg.GeminiMaxOutTokens,
	})
	interpreter := services.NewInterpreterService(gemini)
	lookup := services.NewOpenFoodFactsService(cfg.OFFBaseURL, cfg.OFFTimeout)
	enricher := services.NewEnrichmentService(lookup)

	entrySvc := services.NewEntryService(config.DB, interpreter, enricher)
	reportSvc := services.NewReportService(config.DB)

	r := routes.SetupRouter(
		controllers.NewHealthEntryController(entrySvc),
		controllers.NewReportController(reportSvc),
	)
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("server stopped", "err", err)
	}
}
