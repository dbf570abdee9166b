package handler

import (
	"github.com/gofiber/fiber/v2"

	"cellclassify/internal/service"
)

// Services groups the dependencies the HTTP layer needs.
type Services struct {
	Datasets service.DatasetService
	Analyses service.AnalysisService
	// Health lists the dependencies pinged by /health.
	Health []Pinger
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, s Services) {
	app.Get("/health", HealthCheck(s.Health...))
	app.Get("/healthz", LivenessProbe())

	app.Post("/upload", UploadDataset(s.Datasets))
	app.Post("/analyze", Analyze(s.Analyses))
	app.Get("/results/:analysis_id", GetResult(s.Analyses))
	app.Get("/export/:analysis_id", ExportResult(s.Analyses))
	app.Get("/models/info", ModelsInfo())
	app.Get("/history", History(s.Analyses))
}
