package mocks

import (
	"context"
	"io"

	"cellclassify/internal/model"
	"cellclassify/internal/service"
	"cellclassify/internal/tabular"
	"github.com/stretchr/testify/mock"
)

type MockDatasetService struct {
	mock.Mock
}

func (m *MockDatasetService) Upload(ctx context.Context, r io.Reader, filename string, size int64) (*model.DatasetInfo, error) {
	args := m.Called(ctx, r, filename, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DatasetInfo), args.Error(1)
}

func (m *MockDatasetService) Open(ctx context.Context, fileID string) (*tabular.Frame, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tabular.Frame), args.Error(1)
}

type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) Analyze(ctx context.Context, req service.AnalyzeRequest) (*service.AnalysisOutcome, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AnalysisOutcome), args.Error(1)
}

func (m *MockAnalysisService) Get(ctx context.Context, analysisID string) ([]byte, error) {
	args := m.Called(ctx, analysisID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockAnalysisService) Export(ctx context.Context, analysisID string) (*service.ExportFile, error) {
	args := m.Called(ctx, analysisID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExportFile), args.Error(1)
}

func (m *MockAnalysisService) History(ctx context.Context) ([]model.HistoryEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.HistoryEntry), args.Error(1)
}
