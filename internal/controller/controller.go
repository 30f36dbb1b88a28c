// Package controller is the dataset lifecycle controller: it owns the
// pending → converted → shared state machine and routes every Lambda trigger
// (HTTP request or S3 object-created batch) to the right operation.
package controller

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wnkinc/delta-bridge/internal/apperr"
	"github.com/wnkinc/delta-bridge/internal/model"
)

// StatusStore is the slice of the status store the controller needs.
type StatusStore interface {
	Put(ctx context.Context, ds model.Dataset) error
	GetByTableID(ctx context.Context, tableID string) (*model.Dataset, error)
	ListByOwner(ctx context.Context, userID string) ([]model.Dataset, error)
	UpdateStatus(ctx context.Context, userID, s3Key, status string) error
	SetSnippet(ctx context.Context, userID, s3Key, snippet string) error
}

// Presigner issues time-limited upload URLs.
type Presigner interface {
	PresignPut(ctx context.Context, key, contentType string) (string, error)
}

// Converter turns a raw upload into a Delta table.
type Converter interface {
	Convert(ctx context.Context, s3Key string) (string, error)
}

// Sharer resynchronizes the remote sharing config and builds client-facing
// artifacts.
type Sharer interface {
	Resync(ctx context.Context) (string, error)
	Profile() model.Profile
	Snippet(tableID string) string
}

// Controller coordinates the store, converter, and synchronizer. Each Lambda
// invocation is stateless; all dataset state lives in the status store.
type Controller struct {
	store     StatusStore
	objects   Presigner
	converter Converter
	sharer    Sharer
	log       zerolog.Logger

	now   func() time.Time
	newID func() string
}

func New(store StatusStore, objects Presigner, converter Converter, sharer Sharer, log zerolog.Logger) *Controller {
	return &Controller{
		store:     store,
		objects:   objects,
		converter: converter,
		sharer:    sharer,
		log:       log,
		now:       time.Now,
		newID:     newTableID,
	}
}

func newTableID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// RequestUploadSlot generates a fresh table ID, records a pending dataset,
// and returns a presigned PUT URL scoped to exactly the derived key.
func (c *Controller) RequestUploadSlot(ctx context.Context, userID, filename string) (*model.PresignResponse, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", apperr.ErrValidation)
	}
	if filename == "" {
		return nil, fmt.Errorf("%w: filename is required", apperr.ErrValidation)
	}

	tableID := c.newID()
	s3Key := model.RawKey(tableID, filename)

	url, err := c.objects.PresignPut(ctx, s3Key, model.ContentTypeCSV)
	if err != nil {
		return nil, err
	}

	ds := model.Dataset{
		UserID:    userID,
		S3Key:     s3Key,
		TableID:   tableID,
		Filename:  filename,
		Status:    model.StatusPending,
		CreatedAt: c.now().UTC().Format(time.RFC3339),
	}
	if err := c.store.Put(ctx, ds); err != nil {
		return nil, err
	}

	c.log.Info().Str("tableId", tableID).Str("userId", userID).Msg("upload slot issued")
	return &model.PresignResponse{URL: url, TableID: tableID, S3Key: s3Key}, nil
}

// ConvertDataset converts the raw file at s3Key and marks the record
// converted. The conversion runs even when no record matches the key, so
// the storage side-effect is never lost if the metadata lookup races with
// the upload-slot write.
func (c *Controller) ConvertDataset(ctx context.Context, s3Key string) error {
	if s3Key == "" {
		return fmt.Errorf("%w: s3Key is required", apperr.ErrValidation)
	}
	tableID, _, err := model.ParseRawKey(s3Key)
	if err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrValidation, err)
	}

	if _, err := c.converter.Convert(ctx, s3Key); err != nil {
		return err
	}

	ds, err := c.store.GetByTableID(ctx, tableID)
	if errors.Is(err, apperr.ErrNotFound) {
		c.log.Warn().Str("s3Key", s3Key).Msg("converted dataset has no record yet")
		return nil
	}
	if err != nil {
		return err
	}
	return c.store.UpdateStatus(ctx, ds.UserID, ds.S3Key, model.StatusConverted)
}

// ListDatasets returns the owner's datasets; an unknown owner gets an empty
// list, never an error.
func (c *Controller) ListDatasets(ctx context.Context, userID string) (*model.DatasetsResponse, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", apperr.ErrValidation)
	}
	datasets, err := c.store.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	summaries := make([]model.DatasetSummary, len(datasets))
	for i, ds := range datasets {
		summaries[i] = model.DatasetSummary{TableID: ds.TableID, Filename: ds.Filename, Status: ds.Status}
	}
	return &model.DatasetsResponse{Datasets: summaries}, nil
}

// ShareDataset marks the record shared, pushes the rebuilt catalog, and
// returns the connection profile plus a usage snippet which is also
// persisted on the record.
//
// The status write commits before the push at both share call sites: the
// resync scans the store, so the new status has to be visible first. A
// failed push surfaces as an error without rolling the status back; the
// next successful resync repairs the remote config.
func (c *Controller) ShareDataset(ctx context.Context, tableID string) (*model.ShareResponse, error) {
	if tableID == "" {
		return nil, fmt.Errorf("%w: tableId is required", apperr.ErrValidation)
	}
	ds, err := c.store.GetByTableID(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if err := c.store.UpdateStatus(ctx, ds.UserID, ds.S3Key, model.StatusShared); err != nil {
		return nil, err
	}
	if _, err := c.sharer.Resync(ctx); err != nil {
		return nil, err
	}

	snippet := c.sharer.Snippet(tableID)
	if err := c.store.SetSnippet(ctx, ds.UserID, ds.S3Key, snippet); err != nil {
		return nil, err
	}

	c.log.Info().Str("tableId", tableID).Msg("dataset shared")
	return &model.ShareResponse{
		Profile: c.sharer.Profile(),
		Snippet: snippet,
		Status:  model.StatusShared,
	}, nil
}

// UnshareDataset reverses the single backward edge of the state machine and
// pushes a catalog that no longer lists the dataset. The snippet stays on
// the record.
func (c *Controller) UnshareDataset(ctx context.Context, tableID string) (*model.UnshareResponse, error) {
	if tableID == "" {
		return nil, fmt.Errorf("%w: tableId is required", apperr.ErrValidation)
	}
	ds, err := c.store.GetByTableID(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if err := c.store.UpdateStatus(ctx, ds.UserID, ds.S3Key, model.StatusConverted); err != nil {
		return nil, err
	}
	if _, err := c.sharer.Resync(ctx); err != nil {
		return nil, err
	}

	c.log.Info().Str("tableId", tableID).Msg("dataset unshared")
	return &model.UnshareResponse{Status: model.StatusConverted}, nil
}

// GetSnippet returns the snippet generated at share time.
func (c *Controller) GetSnippet(ctx context.Context, tableID string) (*model.SnippetResponse, error) {
	if tableID == "" {
		return nil, fmt.Errorf("%w: tableId is required", apperr.ErrValidation)
	}
	ds, err := c.store.GetByTableID(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if ds.NotebookSnippet == "" {
		return nil, fmt.Errorf("dataset %s has no snippet: %w", tableID, apperr.ErrNotFound)
	}
	return &model.SnippetResponse{NotebookSnippet: ds.NotebookSnippet}, nil
}
