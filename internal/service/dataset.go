package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cellclassify/internal/metrics"
	"cellclassify/internal/model"
	"cellclassify/internal/storage"
	"cellclassify/internal/tabular"
)

// UploadsNamespace is the storage prefix holding raw uploaded datasets.
const UploadsNamespace = "uploads"

const (
	previewColumns = 10
	previewRows    = 5
)

var contentTypes = map[string]string{
	tabular.ExtCSV:  "text/csv",
	tabular.ExtXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	tabular.ExtXLS:  "application/vnd.ms-excel",
}

// DatasetService defines the use cases for uploaded tabular datasets.
type DatasetService interface {
	// Upload stores the raw bytes under a fresh id, parses them back and returns a summary.
	// A rejected upload leaves nothing in storage.
	Upload(ctx context.Context, r io.Reader, filename string, size int64) (*model.DatasetInfo, error)

	// Open locates a stored dataset by id and parses it.
	Open(ctx context.Context, fileID string) (*tabular.Frame, error)
}

type datasetService struct {
	store    storage.Storage
	maxBytes int64
	log      *zap.Logger
	metrics  *metrics.Analysis
	now      func() time.Time
}

// NewDatasetService constructs a new DatasetService. maxBytes <= 0 disables the size limit.
func NewDatasetService(store storage.Storage, maxBytes int64, log *zap.Logger, m *metrics.Analysis) DatasetService {
	if log == nil {
		log = zap.NewNop()
	}
	return &datasetService{
		store:    store,
		maxBytes: maxBytes,
		log:      log.With(zap.String("component", "dataset")),
		metrics:  m,
		now:      time.Now,
	}
}

func (s *datasetService) Upload(ctx context.Context, r io.Reader, filename string, size int64) (*model.DatasetInfo, error) {
	info, err := s.upload(ctx, r, filename, size)
	if err != nil {
		status := metrics.StatusRejected
		if KindOf(err) == KindInternal {
			status = metrics.StatusError
		}
		s.metrics.ObserveUpload(status)
		return nil, err
	}
	s.metrics.ObserveUpload(metrics.StatusSuccess)
	return info, nil
}

func (s *datasetService) upload(ctx context.Context, r io.Reader, filename string, size int64) (*model.DatasetInfo, error) {
	if r == nil {
		return nil, invalidInput(CodeFileRequired, "No file provided", nil)
	}
	if strings.TrimSpace(filename) == "" {
		return nil, invalidInput(CodeFileNotSelected, "No file selected", nil)
	}
	name := SecureFilename(filename)
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if !tabular.IsAllowed(ext) {
		return nil, invalidInput(CodeUnsupportedFileType, "File type not allowed", nil)
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		return nil, s.tooLarge()
	}

	body := r
	if s.maxBytes > 0 {
		body = io.LimitReader(r, s.maxBytes+1)
	}

	id := uuid.NewString()
	key := storage.Key(UploadsNamespace, id+"."+ext)
	obj, err := s.store.Put(ctx, key, body, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentTypes[ext],
		Metadata:    map[string]string{"original-filename": name},
	})
	if err != nil {
		return nil, internal(CodeUploadFailed, "Error saving file", err)
	}
	if s.maxBytes > 0 && obj.Size > s.maxBytes {
		return nil, s.reject(ctx, key, s.tooLarge())
	}

	frame, err := s.read(ctx, key, ext)
	if err != nil {
		return nil, s.reject(ctx, key, invalidInput(CodeUnreadableFile, "Error reading file", err))
	}
	if frame.Empty() {
		return nil, s.reject(ctx, key, invalidInput(CodeEmptyDataset, "The file is empty", nil))
	}

	rows, cols := frame.Shape()
	columns := frame.Columns
	if len(columns) > previewColumns {
		columns = columns[:previewColumns]
	}
	s.log.Info("dataset uploaded",
		zap.String("file_id", id),
		zap.String("filename", name),
		zap.Int("rows", rows),
		zap.Int("columns", cols),
	)
	return &model.DatasetInfo{
		FileID:       id,
		Filename:     name,
		Shape:        [2]int{rows, cols},
		Columns:      append([]string(nil), columns...),
		TotalColumns: cols,
		Preview:      frame.Records(previewRows),
		UploadTime:   s.now(),
	}, nil
}

func (s *datasetService) tooLarge() *Error {
	return invalidInput(CodeFileTooLarge, fmt.Sprintf("File exceeds the %d byte upload limit", s.maxBytes), nil)
}

// reject deletes a stored upload that failed validation and returns cause.
func (s *datasetService) reject(ctx context.Context, key string, cause *Error) error {
	fields := []zap.Field{zap.String("key", key), zap.String("code", cause.Code)}
	if err := s.store.Delete(ctx, key); err != nil {
		s.log.Warn("upload rejected, cleanup failed", append(fields, zap.Error(err))...)
		return cause
	}
	s.log.Info("upload rejected", fields...)
	return cause
}

func (s *datasetService) read(ctx context.Context, key, ext string) (*tabular.Frame, error) {
	rc, _, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return tabular.Read(rc, ext)
}

func (s *datasetService) Open(ctx context.Context, fileID string) (*tabular.Frame, error) {
	id, err := uuid.Parse(strings.TrimSpace(fileID))
	if err != nil {
		return nil, notFound(CodeFileNotFound, "File not found")
	}
	for _, ext := range tabular.Extensions() {
		key := storage.Key(UploadsNamespace, id.String()+"."+ext)
		if _, err := s.store.Stat(ctx, key); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", key, err)
		}
		frame, err := s.read(ctx, key, ext)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		return frame, nil
	}
	return nil, notFound(CodeFileNotFound, "File not found")
}
