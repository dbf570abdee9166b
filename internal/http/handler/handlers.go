package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"cellclassify/internal/model"
	"cellclassify/internal/service"
)

const healthTimeout = 2 * time.Second

// Pinger is a dependency that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type uploadResponse struct {
	Message  string             `json:"message"`
	FileInfo *model.DatasetInfo `json:"file_info"`
}

type analyzeResponse struct {
	Message    string                        `json:"message"`
	AnalysisID string                        `json:"analysis_id"`
	Results    map[string]model.ModelMetrics `json:"results"`
	DataInfo   model.DataInfo                `json:"data_info"`
}

// HealthCheck godoc
// @Summary Readiness check
// @Description Pings blob storage and the result repository.
// @Tags ops
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(deps ...Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
		defer cancel()
		for _, d := range deps {
			if err := d.Ping(ctx); err != nil {
				return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
			}
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe godoc
// @Summary Liveness probe
// @Tags ops
// @Success 200
// @Router /healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// UploadDataset godoc
// @Summary Upload a dataset
// @Description Accepts a CSV, XLSX or XLS file and returns its shape and a typed preview.
// @Tags datasets
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Dataset file"
// @Success 200 {object} uploadResponse
// @Failure 400 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /upload [post]
func UploadDataset(svc service.DatasetService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, service.CodeFileRequired, "No file provided")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, service.CodeUnreadableFile, "cannot open uploaded file")
		}
		defer f.Close()

		info, err := svc.Upload(c.UserContext(), f, fh.Filename, fh.Size)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(uploadResponse{
			Message:  "File uploaded successfully",
			FileInfo: info,
		})
	}
}

// Analyze godoc
// @Summary Run an analysis
// @Description Trains the selected models and stores one result document. Omitting models selects all of them.
// @Tags analyses
// @Accept json
// @Produce json
// @Param request body service.AnalyzeRequest true "Dataset and models"
// @Success 200 {object} analyzeResponse
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /analyze [post]
func Analyze(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.AnalyzeRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_REQUEST", "request body must be a JSON object")
			}
		}

		out, err := svc.Analyze(c.UserContext(), req)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(analyzeResponse{
			Message:    "Analysis completed successfully",
			AnalysisID: out.AnalysisID,
			Results:    out.Results,
			DataInfo:   out.DataInfo,
		})
	}
}

// GetResult godoc
// @Summary Get an analysis result
// @Description Returns the stored result document as written.
// @Tags analyses
// @Produce json
// @Param analysis_id path string true "Analysis ID"
// @Success 200 {object} model.AnalysisResult
// @Failure 404 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /results/{analysis_id} [get]
func GetResult(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data, err := svc.Get(c.UserContext(), c.Params("analysis_id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(data)
	}
}

// ExportResult godoc
// @Summary Export predictions as CSV
// @Tags analyses
// @Produce text/csv
// @Param analysis_id path string true "Analysis ID"
// @Success 200 {file} file
// @Failure 404 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /export/{analysis_id} [get]
func ExportResult(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		file, err := svc.Export(c.UserContext(), c.Params("analysis_id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		c.Attachment(file.Filename)
		c.Set(fiber.HeaderContentType, "text/csv")
		return c.Send(file.Content)
	}
}

// ModelsInfo godoc
// @Summary Supported models
// @Tags models
// @Produce json
// @Success 200 {object} map[string]model.ModelInfo
// @Router /models/info [get]
func ModelsInfo() fiber.Handler {
	catalog := service.ModelCatalog()
	return func(c *fiber.Ctx) error {
		return c.JSON(catalog)
	}
}

// History godoc
// @Summary Analysis history
// @Description Summaries of every stored analysis, most recent first.
// @Tags analyses
// @Produce json
// @Success 200 {array} model.HistoryEntry
// @Failure 500 {object} errorPayload
// @Router /history [get]
func History(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		entries, err := svc.History(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(entries)
	}
}
