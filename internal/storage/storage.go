// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"errors"

	"video_digest/internal/model"
)

var (
	// ErrConfigMalformed is returned when a stored config row can't be decoded.
	ErrConfigMalformed = errors.New("config malformed")
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
)

// Storage is the interface for all persistence operations.
type Storage interface {
	ListConfigs(ctx context.Context) ([]model.DigestConfig, error)
	GetConfig(ctx context.Context, id int64) (*model.DigestConfig, error)
	CreateConfig(ctx context.Context, cfg *model.DigestConfig) error
	UpdateProgresses(ctx context.Context, id int64, progresses []model.Progress) error
	ResetProgress(ctx context.Context, id int64, track string) error

	SheetRows(ctx context.Context, sheet string) ([]model.SheetRow, error)
	ReplaceSheetRows(ctx context.Context, sheet string, rows []model.SheetRow) error

	RecordDelivery(ctx context.Context, d *model.Delivery) error
	ListDeliveries(ctx context.Context, configID int64, limit int) ([]model.Delivery, error)

	Close() error
}
