package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cellclassify/internal/model"
)

// Package repository contains data access layer abstractions.
// Implementations live in subpackages (blob, postgres) inside this directory.

// ErrNotFound is returned when no result document exists for an ID.
var ErrNotFound = errors.New("analysis result not found")

// ResultRepository persists analysis result documents.
// Documents are written once and never updated; there is no business logic here.
type ResultRepository interface {
	// Create stores a new document keyed by its AnalysisID.
	Create(ctx context.Context, res *model.AnalysisResult) error

	// FindRaw returns the stored document bytes exactly as written.
	FindRaw(ctx context.Context, id string) ([]byte, error)

	// FindByID returns the decoded document.
	FindByID(ctx context.Context, id string) (*model.AnalysisResult, error)

	// List returns every stored document. Any unreadable document fails the whole call.
	List(ctx context.Context) ([]*model.AnalysisResult, error)

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error
}

// Encode renders a document the way it is persisted.
func Encode(res *model.AnalysisResult) ([]byte, error) {
	return json.MarshalIndent(res, "", "  ")
}

// Decode parses a persisted document.
func Decode(data []byte) (*model.AnalysisResult, error) {
	var res model.AnalysisResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decode analysis result: %w", err)
	}
	return &res, nil
}
