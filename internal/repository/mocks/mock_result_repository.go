package mocks

import (
	"context"

	"cellclassify/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockResultRepository struct {
	mock.Mock
}

func (m *MockResultRepository) Create(ctx context.Context, res *model.AnalysisResult) error {
	args := m.Called(ctx, res)
	return args.Error(0)
}

func (m *MockResultRepository) FindRaw(ctx context.Context, id string) ([]byte, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockResultRepository) FindByID(ctx context.Context, id string) (*model.AnalysisResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AnalysisResult), args.Error(1)
}

func (m *MockResultRepository) List(ctx context.Context) ([]*model.AnalysisResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.AnalysisResult), args.Error(1)
}

func (m *MockResultRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
