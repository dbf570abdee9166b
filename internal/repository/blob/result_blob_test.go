package blob

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cellclassify/internal/model"
	"cellclassify/internal/repository"
	"cellclassify/internal/storage"
	"cellclassify/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleResult(id string, ts time.Time) *model.AnalysisResult {
	return &model.AnalysisResult{
		AnalysisID: id,
		FileID:     "file-1",
		Timestamp:  ts,
		DataShape:  [2]int{10, 3},
		ModelsUsed: []string{"catboost"},
		Results: map[string]model.ModelMetrics{
			"catboost": {Accuracy: 0.5},
		},
		TestPredictions: model.TestPredictions{
			YTrue:     []int{1, 0},
			SampleIDs: []int{0, 1},
			Models: map[string]model.Predictions{
				"catboost": {Predictions: []int{1, 1}, Probabilities: []float64{0.7, 0.55}},
			},
		},
	}
}

func newRepo(t *testing.T) (*ResultBlob, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := storage.NewLocal(dir)
	require.NoError(t, err)
	return NewResultBlob(s), dir
}

func TestResultBlob_CreateAndFind(t *testing.T) {
	repo, dir := newRepo(t)
	ctx := context.Background()

	res := sampleResult("a-1", time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, res))

	assert.FileExists(t, filepath.Join(dir, "results", "a-1.json"))

	raw, err := repo.FindRaw(ctx, "a-1")
	require.NoError(t, err)
	want, _ := repository.Encode(res)
	assert.Equal(t, want, raw)

	got, err := repo.FindByID(ctx, "a-1")
	require.NoError(t, err)
	assert.Equal(t, res.AnalysisID, got.AnalysisID)
	assert.True(t, res.Timestamp.Equal(got.Timestamp))
	assert.Equal(t, res.TestPredictions, got.TestPredictions)
}

func TestResultBlob_NotFound(t *testing.T) {
	repo, _ := newRepo(t)

	_, err := repo.FindRaw(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestResultBlob_List(t *testing.T) {
	repo, dir := newRepo(t)
	ctx := context.Background()

	items, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, repo.Create(ctx, sampleResult("a", time.Now())))
	require.NoError(t, repo.Create(ctx, sampleResult("b", time.Now())))
	// stray files in the namespace are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "results", "notes.txt"), []byte("hi"), 0o644))

	items, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	ids := []string{items[0].AnalysisID, items[1].AnalysisID}
	assert.ElementsMatch(t, []string{"a", "b"}, ids)

	t.Run("corrupt document aborts", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "results", "c.json"), []byte("{"), 0o644))
		items, err := repo.List(ctx)
		assert.ErrorContains(t, err, "c.json")
		assert.Nil(t, items)
	})
}

func TestResultBlob_StorageErrors(t *testing.T) {
	s := new(mocks.MockStorage)
	repo := NewResultBlob(s)
	ctx := context.Background()

	s.On("Put", ctx, "results/x.json", mock.Anything, mock.MatchedBy(func(o storage.PutObjectOptions) bool {
		return o.ContentType == "application/json" && o.Size > 0
	})).Return(storage.ObjectInfo{}, errors.New("disk full")).Once()
	assert.EqualError(t, repo.Create(ctx, sampleResult("x", time.Now())), "disk full")

	s.On("List", ctx, "results/").Return(nil, errors.New("denied")).Once()
	_, err := repo.List(ctx)
	assert.ErrorContains(t, err, "denied")

	s.On("Ping", ctx).Return(nil).Once()
	assert.NoError(t, repo.Ping(ctx))

	s.AssertExpectations(t)
}
