package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"cellclassify/internal/ml"
	"cellclassify/internal/model"
	"cellclassify/internal/repository"
	"cellclassify/internal/repository/blob"
	repoMocks "cellclassify/internal/repository/mocks"
	"cellclassify/internal/tabular"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testAnalysisID = "5d0c8f9e-2a6b-4c1d-8e3f-7a9b0c1d2e3f"

func testOptions() ml.Options {
	return ml.Options{
		Seed:         42,
		MaxSamples:   200,
		MaxFeatures:  6,
		PositiveRate: 0.12,
		TestSize:     0.3,
	}
}

func frameOf(rows, cols int) *tabular.Frame {
	f := &tabular.Frame{Columns: make([]string, cols), Rows: make([][]string, rows)}
	for j := range f.Columns {
		f.Columns[j] = fmt.Sprintf("g%d", j)
	}
	for i := range f.Rows {
		f.Rows[i] = make([]string, cols)
	}
	return f
}

func sampleResult() *model.AnalysisResult {
	return &model.AnalysisResult{
		AnalysisID: testAnalysisID,
		FileID:     "f1",
		Timestamp:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		DataShape:  [2]int{10, 4},
		ModelsUsed: []string{"xgboost", "randomforest"},
		Results: map[string]model.ModelMetrics{
			"xgboost":      {Accuracy: 0.9},
			"randomforest": {Accuracy: 0.8},
		},
		TestPredictions: model.TestPredictions{
			YTrue:     []int{0, 1, 0},
			SampleIDs: []int{0, 1, 2},
			Models: map[string]model.Predictions{
				"xgboost":      {Predictions: []int{0, 1, 1}, Probabilities: []float64{0.1, 0.9, 0.6}},
				"randomforest": {Predictions: []int{0, 0, 0}, Probabilities: []float64{0.2, 0.4, 0.3}},
			},
		},
	}
}

func TestNormalizeModels(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    []string
		wantErr bool
	}{
		{name: "omitted selects all", in: nil, want: []string{"catboost", "xgboost", "randomforest"}},
		{name: "case and spaces", in: []string{" XGBoost ", "RandomForest"}, want: []string{"xgboost", "randomforest"}},
		{name: "duplicates keep first position", in: []string{"randomforest", "catboost", "RANDOMFOREST"}, want: []string{"randomforest", "catboost"}},
		{name: "explicit empty list", in: []string{}, wantErr: true},
		{name: "unknown model", in: []string{"xgboost", "svm"}, wantErr: true},
		{name: "blank name", in: []string{""}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeModels(tt.in)
			if tt.wantErr {
				assertServiceError(t, err, KindInvalidInput, CodeInvalidModels)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnalysisService_Analyze(t *testing.T) {
	ctx := context.Background()
	fileID := "0b6f4c7e-59a4-4b8e-9d1e-3f3c5a0b2a11"

	tests := []struct {
		name       string
		req        AnalyzeRequest
		setupMocks func(ds *MockDatasetService, repo *repoMocks.MockResultRepository)
		wantKind   Kind
		wantCode   string
	}{
		{
			name:     "missing file id",
			req:      AnalyzeRequest{FileID: " "},
			wantKind: KindInvalidInput,
			wantCode: CodeFileIDRequired,
		},
		{
			name:     "unknown model",
			req:      AnalyzeRequest{FileID: fileID, Models: []string{"lightgbm"}},
			wantKind: KindInvalidInput,
			wantCode: CodeInvalidModels,
		},
		{
			name: "dataset not found",
			req:  AnalyzeRequest{FileID: fileID},
			setupMocks: func(ds *MockDatasetService, repo *repoMocks.MockResultRepository) {
				ds.On("Open", mock.Anything, fileID).Return(nil, notFound(CodeFileNotFound, "File not found"))
			},
			wantKind: KindNotFound,
			wantCode: CodeFileNotFound,
		},
		{
			name: "dataset unreadable",
			req:  AnalyzeRequest{FileID: fileID},
			setupMocks: func(ds *MockDatasetService, repo *repoMocks.MockResultRepository) {
				ds.On("Open", mock.Anything, fileID).Return(nil, errors.New("corrupt workbook"))
			},
			wantKind: KindInternal,
			wantCode: CodeAnalysisFailed,
		},
		{
			name: "dataset too small to split",
			req:  AnalyzeRequest{FileID: fileID},
			setupMocks: func(ds *MockDatasetService, repo *repoMocks.MockResultRepository) {
				ds.On("Open", mock.Anything, fileID).Return(frameOf(1, 3), nil)
			},
			wantKind: KindInternal,
			wantCode: CodeAnalysisFailed,
		},
		{
			name: "result not saved",
			req:  AnalyzeRequest{FileID: fileID, Models: []string{"xgboost"}},
			setupMocks: func(ds *MockDatasetService, repo *repoMocks.MockResultRepository) {
				ds.On("Open", mock.Anything, fileID).Return(frameOf(200, 4), nil)
				repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk full"))
			},
			wantKind: KindInternal,
			wantCode: CodeAnalysisFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := new(MockDatasetService)
			repo := new(repoMocks.MockResultRepository)
			if tt.setupMocks != nil {
				tt.setupMocks(ds, repo)
			}
			svc := NewAnalysisService(ds, repo, testOptions(), nil, nil)

			out, err := svc.Analyze(ctx, tt.req)

			assert.Nil(t, out)
			assertServiceError(t, err, tt.wantKind, tt.wantCode)
			ds.AssertExpectations(t)
			repo.AssertExpectations(t)
		})
	}

	t.Run("success", func(t *testing.T) {
		ds := new(MockDatasetService)
		repo := new(repoMocks.MockResultRepository)
		ds.On("Open", mock.Anything, fileID).Return(frameOf(5000, 3), nil)

		var saved *model.AnalysisResult
		repo.On("Create", mock.Anything, mock.MatchedBy(func(r *model.AnalysisResult) bool {
			saved = r
			return r.FileID == fileID && r.Validate() == nil
		})).Return(nil)

		svc := NewAnalysisService(ds, repo, testOptions(), nil, nil)
		out, err := svc.Analyze(ctx, AnalyzeRequest{FileID: fileID, Models: []string{"XGBoost", "catboost"}})

		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, saved.AnalysisID, out.AnalysisID)
		assert.Equal(t, model.DataInfo{Samples: 200, Features: 3, TestSize: 60}, out.DataInfo)
		assert.Equal(t, []string{"xgboost", "catboost"}, saved.ModelsUsed)
		assert.Equal(t, [2]int{200, 3}, saved.DataShape)
		assert.Len(t, saved.TestPredictions.SampleIDs, 60)
		assert.Equal(t, 59, saved.TestPredictions.SampleIDs[59])
		assert.Len(t, out.Results, 2)
		repo.AssertExpectations(t)
	})
}

func TestAnalysisService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		repo := new(repoMocks.MockResultRepository)
		repo.On("FindRaw", ctx, testAnalysisID).Return([]byte(`{"analysis_id":"x"}`), nil)
		svc := NewAnalysisService(nil, repo, testOptions(), nil, nil)

		data, err := svc.Get(ctx, testAnalysisID)

		require.NoError(t, err)
		assert.Equal(t, `{"analysis_id":"x"}`, string(data))
	})

	t.Run("invalid id", func(t *testing.T) {
		svc := NewAnalysisService(nil, new(repoMocks.MockResultRepository), testOptions(), nil, nil)
		_, err := svc.Get(ctx, "nope")
		assertServiceError(t, err, KindNotFound, CodeResultNotFound)
	})

	t.Run("missing", func(t *testing.T) {
		repo := new(repoMocks.MockResultRepository)
		repo.On("FindRaw", ctx, testAnalysisID).Return(nil, repository.ErrNotFound)
		svc := NewAnalysisService(nil, repo, testOptions(), nil, nil)

		_, err := svc.Get(ctx, testAnalysisID)
		assertServiceError(t, err, KindNotFound, CodeResultNotFound)
	})

	t.Run("backend error", func(t *testing.T) {
		repo := new(repoMocks.MockResultRepository)
		repo.On("FindRaw", ctx, testAnalysisID).Return(nil, errors.New("permission denied"))
		svc := NewAnalysisService(nil, repo, testOptions(), nil, nil)

		_, err := svc.Get(ctx, testAnalysisID)
		assertServiceError(t, err, KindInternal, CodeRetrievalFailed)
	})
}

func TestAnalysisService_Export(t *testing.T) {
	ctx := context.Background()

	t.Run("renders one row per sample", func(t *testing.T) {
		repo := new(repoMocks.MockResultRepository)
		repo.On("FindByID", ctx, testAnalysisID).Return(sampleResult(), nil)
		svc := NewAnalysisService(nil, repo, testOptions(), nil, nil)

		file, err := svc.Export(ctx, testAnalysisID)

		require.NoError(t, err)
		assert.Equal(t, "analysis_"+testAnalysisID+"_results.csv", file.Filename)
		want := "sample_id,true_label,xgboost_prediction,xgboost_probability,randomforest_prediction,randomforest_probability\n" +
			"0,ICM,ICM,0.1,ICM,0.2\n" +
			"1,TE,TE,0.9,ICM,0.4\n" +
			"2,ICM,TE,0.6,ICM,0.3\n"
		assert.Equal(t, want, string(file.Content))
	})

	t.Run("misaligned document", func(t *testing.T) {
		res := sampleResult()
		p := res.TestPredictions.Models["randomforest"]
		p.Predictions = p.Predictions[:1]
		res.TestPredictions.Models["randomforest"] = p

		repo := new(repoMocks.MockResultRepository)
		repo.On("FindByID", ctx, testAnalysisID).Return(res, nil)
		svc := NewAnalysisService(nil, repo, testOptions(), nil, nil)

		_, err := svc.Export(ctx, testAnalysisID)
		assertServiceError(t, err, KindInternal, CodeExportFailed)
	})

	t.Run("missing", func(t *testing.T) {
		repo := new(repoMocks.MockResultRepository)
		repo.On("FindByID", ctx, testAnalysisID).Return(nil, repository.ErrNotFound)
		svc := NewAnalysisService(nil, repo, testOptions(), nil, nil)

		_, err := svc.Export(ctx, testAnalysisID)
		assertServiceError(t, err, KindNotFound, CodeResultNotFound)
	})

	t.Run("invalid id", func(t *testing.T) {
		svc := NewAnalysisService(nil, new(repoMocks.MockResultRepository), testOptions(), nil, nil)
		_, err := svc.Export(ctx, "../results")
		assertServiceError(t, err, KindNotFound, CodeResultNotFound)
	})
}

func TestAnalysisService_History(t *testing.T) {
	ctx := context.Background()
	at := func(id string, ts time.Time, acc ...float64) *model.AnalysisResult {
		r := &model.AnalysisResult{AnalysisID: id, Timestamp: ts, Results: map[string]model.ModelMetrics{}}
		for i, a := range acc {
			name := ml.Kinds()[i]
			r.ModelsUsed = append(r.ModelsUsed, name)
			r.Results[name] = model.ModelMetrics{Accuracy: a}
		}
		return r
	}
	t0 := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	t.Run("sorted newest first", func(t *testing.T) {
		repo := new(repoMocks.MockResultRepository)
		repo.On("List", ctx).Return([]*model.AnalysisResult{
			at("a", t0, 0.5),
			at("c", t0.Add(time.Hour), 0.7, 0.9),
			at("b", t0.Add(time.Hour), 0.6),
		}, nil)
		svc := NewAnalysisService(nil, repo, testOptions(), nil, nil)

		entries, err := svc.History(ctx)

		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "c", entries[0].AnalysisID)
		assert.Equal(t, "b", entries[1].AnalysisID)
		assert.Equal(t, "a", entries[2].AnalysisID)
		assert.Equal(t, 0.9, entries[0].BestAccuracy)
		assert.Equal(t, []string{"catboost", "xgboost"}, entries[0].ModelsUsed)
	})

	t.Run("empty", func(t *testing.T) {
		repo := new(repoMocks.MockResultRepository)
		repo.On("List", ctx).Return([]*model.AnalysisResult{}, nil)
		svc := NewAnalysisService(nil, repo, testOptions(), nil, nil)

		entries, err := svc.History(ctx)

		require.NoError(t, err)
		assert.NotNil(t, entries)
		assert.Empty(t, entries)
	})

	t.Run("unreadable document aborts", func(t *testing.T) {
		repo := new(repoMocks.MockResultRepository)
		repo.On("List", ctx).Return(nil, errors.New("c.json: decode analysis result: unexpected EOF"))
		svc := NewAnalysisService(nil, repo, testOptions(), nil, nil)

		_, err := svc.History(ctx)
		assertServiceError(t, err, KindInternal, CodeHistoryFailed)
	})
}

// TestAnalysisFlow runs upload, analyze, retrieve, export and history against local storage.
func TestAnalysisFlow(t *testing.T) {
	ctx := context.Background()
	store := newLocalStore(t)
	datasets := NewDatasetService(store, 0, nil, nil)
	svc := NewAnalysisService(datasets, blob.NewResultBlob(store), testOptions(), nil, nil).(*analysisService)
	clock := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	var b strings.Builder
	b.WriteString("cell,GATA3,CDX2,NANOG,SOX2,KRT18\n")
	for i := 0; i < 250; i++ {
		fmt.Fprintf(&b, "c%d,%d,%d,%d,%d,%d\n", i, i%7, i%5, i%3, i%11, i%13)
	}
	info, err := datasets.Upload(ctx, strings.NewReader(b.String()), "embryo.csv", int64(b.Len()))
	require.NoError(t, err)

	first, err := svc.Analyze(ctx, AnalyzeRequest{FileID: info.FileID})
	require.NoError(t, err)
	assert.Equal(t, model.DataInfo{Samples: 200, Features: 6, TestSize: 60}, first.DataInfo)
	assert.Len(t, first.Results, 3)

	second, err := svc.Analyze(ctx, AnalyzeRequest{FileID: info.FileID})
	require.NoError(t, err)
	assert.NotEqual(t, first.AnalysisID, second.AnalysisID)
	assert.Equal(t, first.Results, second.Results, "same shape and seed must reproduce metrics")

	raw, err := svc.Get(ctx, first.AnalysisID)
	require.NoError(t, err)
	doc, err := repository.Decode(raw)
	require.NoError(t, err)
	require.NoError(t, doc.Validate())
	for _, name := range doc.ModelsUsed {
		assert.Len(t, doc.TestPredictions.Models[name].Predictions, len(doc.TestPredictions.YTrue))
	}

	file, err := svc.Export(ctx, first.AnalysisID)
	require.NoError(t, err)
	records, err := csv.NewReader(strings.NewReader(string(file.Content))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 61)
	assert.Equal(t, []string{
		"sample_id", "true_label",
		"catboost_prediction", "catboost_probability",
		"xgboost_prediction", "xgboost_probability",
		"randomforest_prediction", "randomforest_probability",
	}, records[0])
	for _, rec := range records[1:] {
		assert.Contains(t, []string{"ICM", "TE"}, rec[1])
	}

	history, err := svc.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.AnalysisID, history[0].AnalysisID)
	assert.False(t, history[0].Timestamp.Before(history[1].Timestamp))

	_, err = svc.Analyze(ctx, AnalyzeRequest{FileID: "0b6f4c7e-59a4-4b8e-9d1e-3f3c5a0b2a11"})
	assertServiceError(t, err, KindNotFound, CodeFileNotFound)
	_, err = svc.Get(ctx, "0b6f4c7e-59a4-4b8e-9d1e-3f3c5a0b2a11")
	assertServiceError(t, err, KindNotFound, CodeResultNotFound)
}
