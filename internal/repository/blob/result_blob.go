package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"cellclassify/internal/model"
	"cellclassify/internal/repository"
	"cellclassify/internal/storage"
)

// Namespace is the storage prefix holding result documents.
const Namespace = "results"

// ResultBlob keeps each result document as results/<id>.json in blob storage.
type ResultBlob struct {
	store storage.Storage
}

// NewResultBlob creates a new ResultBlob repository.
func NewResultBlob(store storage.Storage) *ResultBlob {
	return &ResultBlob{store: store}
}

var _ repository.ResultRepository = (*ResultBlob)(nil)

func key(id string) string {
	return storage.Key(Namespace, id+".json")
}

func (r *ResultBlob) Create(ctx context.Context, res *model.AnalysisResult) error {
	data, err := repository.Encode(res)
	if err != nil {
		return err
	}
	_, err = r.store.Put(ctx, key(res.AnalysisID), bytes.NewReader(data), storage.PutObjectOptions{
		Size:        int64(len(data)),
		ContentType: "application/json",
	})
	return err
}

func (r *ResultBlob) FindRaw(ctx context.Context, id string) ([]byte, error) {
	data, err := storage.ReadAll(ctx, r.store, key(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, repository.ErrNotFound
	}
	return data, err
}

func (r *ResultBlob) FindByID(ctx context.Context, id string) (*model.AnalysisResult, error) {
	data, err := r.FindRaw(ctx, id)
	if err != nil {
		return nil, err
	}
	return repository.Decode(data)
}

func (r *ResultBlob) List(ctx context.Context) ([]*model.AnalysisResult, error) {
	objects, err := r.store.List(ctx, Namespace+"/")
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	out := make([]*model.AnalysisResult, 0, len(objects))
	for _, obj := range objects {
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		data, err := storage.ReadAll(ctx, r.store, obj.Key)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path.Base(obj.Key), err)
		}
		res, err := repository.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path.Base(obj.Key), err)
		}
		out = append(out, res)
	}
	return out, nil
}

func (r *ResultBlob) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}
