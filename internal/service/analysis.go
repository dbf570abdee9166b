package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"cellclassify/internal/metrics"
	"cellclassify/internal/ml"
	"cellclassify/internal/model"
	"cellclassify/internal/repository"
)

var tracer = otel.Tracer("cellclassify/internal/service")

// AnalyzeRequest selects a dataset and the models to train.
// A nil Models means every supported model.
type AnalyzeRequest struct {
	FileID string   `json:"file_id"`
	Models []string `json:"models"`
}

// AnalysisOutcome is returned after a successful run.
type AnalysisOutcome struct {
	AnalysisID string                        `json:"analysis_id"`
	Results    map[string]model.ModelMetrics `json:"results"`
	DataInfo   model.DataInfo                `json:"data_info"`
}

// ExportFile is a rendered CSV export.
type ExportFile struct {
	Filename string
	Content  []byte
}

// AnalysisService defines the use cases for running and reading analyses.
type AnalysisService interface {
	// Analyze trains the requested models and persists one result document.
	Analyze(ctx context.Context, req AnalyzeRequest) (*AnalysisOutcome, error)

	// Get returns the stored result document verbatim.
	Get(ctx context.Context, analysisID string) ([]byte, error)

	// Export renders a result's test predictions as CSV, one row per sample.
	Export(ctx context.Context, analysisID string) (*ExportFile, error)

	// History lists a summary of every stored result, most recent first.
	History(ctx context.Context) ([]model.HistoryEntry, error)
}

type analysisService struct {
	datasets DatasetService
	repo     repository.ResultRepository
	opts     ml.Options
	log      *zap.Logger
	metrics  *metrics.Analysis
	now      func() time.Time
}

// NewAnalysisService constructs a new AnalysisService.
func NewAnalysisService(datasets DatasetService, repo repository.ResultRepository, opts ml.Options, log *zap.Logger, m *metrics.Analysis) AnalysisService {
	if log == nil {
		log = zap.NewNop()
	}
	return &analysisService{
		datasets: datasets,
		repo:     repo,
		opts:     opts,
		log:      log.With(zap.String("component", "analysis")),
		metrics:  m,
		now:      time.Now,
	}
}

// NormalizeModels lowercases, trims and de-duplicates model names, keeping
// first-seen order. nil selects every supported model.
func NormalizeModels(models []string) ([]string, error) {
	if models == nil {
		return ml.Kinds(), nil
	}
	if len(models) == 0 {
		return nil, invalidInput(CodeInvalidModels, "At least one model must be selected", nil)
	}
	seen := make(map[string]bool, len(models))
	out := make([]string, 0, len(models))
	var unknown []string
	for _, m := range models {
		name := strings.ToLower(strings.TrimSpace(m))
		if seen[name] {
			continue
		}
		seen[name] = true
		if !ml.IsKind(name) {
			unknown = append(unknown, strconv.Quote(m))
			continue
		}
		out = append(out, name)
	}
	if len(unknown) > 0 {
		return nil, invalidInput(CodeInvalidModels,
			fmt.Sprintf("Unknown models: %s (supported: %s)", strings.Join(unknown, ", "), strings.Join(ml.Kinds(), ", ")), nil)
	}
	return out, nil
}

func (s *analysisService) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalysisOutcome, error) {
	ctx, span := tracer.Start(ctx, "analysis.run")
	defer span.End()

	out, err := s.analyze(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if KindOf(err) == KindInternal {
			s.metrics.ObserveRun(metrics.StatusError)
			s.log.Error("analysis failed", zap.String("file_id", req.FileID), zap.Error(err))
		} else {
			s.metrics.ObserveRun(metrics.StatusRejected)
		}
		return nil, err
	}
	span.SetAttributes(attribute.String("analysis.id", out.AnalysisID))
	s.metrics.ObserveRun(metrics.StatusSuccess)
	return out, nil
}

func (s *analysisService) analyze(ctx context.Context, req AnalyzeRequest) (*AnalysisOutcome, error) {
	fileID := strings.TrimSpace(req.FileID)
	if fileID == "" {
		return nil, invalidInput(CodeFileIDRequired, "file_id is required", nil)
	}
	models, err := NormalizeModels(req.Models)
	if err != nil {
		return nil, err
	}

	frame, err := s.datasets.Open(ctx, fileID)
	if err != nil {
		if KindOf(err) == KindNotFound {
			return nil, err
		}
		return nil, analysisFailed(err)
	}
	rows, cols := frame.Shape()
	s.log.Info("analysis started",
		zap.String("file_id", fileID),
		zap.Strings("models", models),
		zap.Int("rows", rows),
		zap.Int("columns", cols),
	)

	start := time.Now()
	run, err := ml.Run(ctx, s.opts, rows, cols, models)
	if err != nil {
		return nil, analysisFailed(err)
	}
	for _, kind := range models {
		s.metrics.ObserveTraining(kind, run.Durations[kind])
	}

	sampleIDs := make([]int, len(run.YTest))
	for i := range sampleIDs {
		sampleIDs[i] = i
	}
	res := &model.AnalysisResult{
		AnalysisID: uuid.NewString(),
		FileID:     fileID,
		Timestamp:  s.now(),
		DataShape:  [2]int{run.Samples, run.Features},
		ModelsUsed: models,
		Results:    run.Metrics,
		TestPredictions: model.TestPredictions{
			YTrue:     run.YTest,
			SampleIDs: sampleIDs,
			Models:    run.Predictions,
		},
	}
	if err := res.Validate(); err != nil {
		return nil, analysisFailed(err)
	}
	if err := s.repo.Create(ctx, res); err != nil {
		return nil, analysisFailed(fmt.Errorf("save result: %w", err))
	}

	durations := make([]zap.Field, 0, len(models)+3)
	durations = append(durations,
		zap.String("analysis_id", res.AnalysisID),
		zap.String("file_id", fileID),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	for _, kind := range models {
		durations = append(durations, zap.Int64(kind+"_ms", run.Durations[kind].Milliseconds()))
	}
	s.log.Info("analysis finished", durations...)

	return &AnalysisOutcome{
		AnalysisID: res.AnalysisID,
		Results:    res.Results,
		DataInfo: model.DataInfo{
			Samples:  run.Samples,
			Features: run.Features,
			TestSize: len(run.YTest),
		},
	}, nil
}

func analysisFailed(err error) *Error {
	return internal(CodeAnalysisFailed, "Error during analysis", err)
}

func resultNotFound() *Error {
	return notFound(CodeResultNotFound, "Results not found")
}

func (s *analysisService) Get(ctx context.Context, analysisID string) ([]byte, error) {
	if _, err := uuid.Parse(analysisID); err != nil {
		return nil, resultNotFound()
	}
	data, err := s.repo.FindRaw(ctx, analysisID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, resultNotFound()
		}
		return nil, internal(CodeRetrievalFailed, "Error during retrieval", err)
	}
	return data, nil
}

func (s *analysisService) Export(ctx context.Context, analysisID string) (*ExportFile, error) {
	if _, err := uuid.Parse(analysisID); err != nil {
		return nil, resultNotFound()
	}
	res, err := s.repo.FindByID(ctx, analysisID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, resultNotFound()
		}
		return nil, internal(CodeExportFailed, "Error during export", err)
	}
	content, err := renderExport(res)
	if err != nil {
		s.log.Error("export failed", zap.String("analysis_id", analysisID), zap.Error(err))
		return nil, internal(CodeExportFailed, "Error during export", err)
	}
	return &ExportFile{
		Filename: fmt.Sprintf("analysis_%s_results.csv", analysisID),
		Content:  content,
	}, nil
}

func renderExport(res *model.AnalysisResult) ([]byte, error) {
	if err := res.Validate(); err != nil {
		return nil, err
	}
	header := []string{"sample_id", "true_label"}
	for _, name := range res.ModelsUsed {
		header = append(header, name+"_prediction", name+"_probability")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	tp := res.TestPredictions
	for i, label := range tp.YTrue {
		row := make([]string, 0, len(header))
		row = append(row, strconv.Itoa(tp.SampleIDs[i]), model.LabelName(label))
		for _, name := range res.ModelsUsed {
			p := tp.Models[name]
			row = append(row,
				model.LabelName(p.Predictions[i]),
				strconv.FormatFloat(p.Probabilities[i], 'g', -1, 64),
			)
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *analysisService) History(ctx context.Context) ([]model.HistoryEntry, error) {
	results, err := s.repo.List(ctx)
	if err != nil {
		s.log.Error("history failed", zap.Error(err))
		return nil, internal(CodeHistoryFailed, "Error retrieving history", err)
	}
	out := make([]model.HistoryEntry, 0, len(results))
	for _, r := range results {
		out = append(out, model.HistoryEntry{
			AnalysisID:   r.AnalysisID,
			Timestamp:    r.Timestamp,
			DataShape:    r.DataShape,
			ModelsUsed:   r.ModelsUsed,
			BestAccuracy: r.BestAccuracy(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].AnalysisID > out[j].AnalysisID
	})
	return out, nil
}
