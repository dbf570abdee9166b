package service

import (
	"context"
	"io"

	"cellclassify/internal/model"
	"cellclassify/internal/tabular"
	"github.com/stretchr/testify/mock"
)

// MockDatasetService mirrors mocks.MockDatasetService; importing that package
// from an in-package test would create an import cycle.
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
