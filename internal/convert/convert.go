// Package convert turns an uploaded CSV into a Delta table: one parquet data
// file plus a _delta_log commit, uploaded under the dataset's delta/ prefix.
package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/wnkinc/delta-bridge/internal/apperr"
	"github.com/wnkinc/delta-bridge/internal/model"
)

// ObjectStore is the slice of the object-store adapter the converter needs.
type ObjectStore interface {
	Download(ctx context.Context, key, destDir string) (string, error)
	UploadDir(ctx context.Context, localDir, keyPrefix string) error
}

// Converter reads a raw row-oriented file and writes the equivalent Delta
// table back to the object store.
type Converter struct {
	objects ObjectStore
	log     zerolog.Logger
}

func New(objects ObjectStore, log zerolog.Logger) *Converter {
	return &Converter{objects: objects, log: log}
}

// Convert downloads the raw file at s3Key, writes a Delta table for it, and
// uploads the table under datasets/{tableId}/delta. Returns the delta prefix.
//
// Conversion overwrites: re-running on the same key rebuilds the table from
// the source, so redeliveries of the same object-created event are safe. A
// partial upload failure leaves already-uploaded files in place; the caller
// must not mark the record converted unless Convert returned nil.
func (c *Converter) Convert(ctx context.Context, s3Key string) (string, error) {
	tableID, _, err := model.ParseRawKey(s3Key)
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperr.ErrValidation, err)
	}

	workDir, err := os.MkdirTemp("", "delta-bridge-*")
	if err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	local, err := c.objects.Download(ctx, s3Key, workDir)
	if err != nil {
		return "", err
	}

	tbl, err := readCSV(local)
	if err != nil {
		return "", err
	}

	deltaDir := filepath.Join(workDir, "delta")
	if err := writeDeltaTable(tbl, tableID, deltaDir); err != nil {
		return "", err
	}

	prefix := model.DeltaPrefix(tableID)
	if err := c.objects.UploadDir(ctx, deltaDir, prefix); err != nil {
		return "", err
	}

	c.log.Info().
		Str("tableId", tableID).
		Str("s3Key", s3Key).
		Int("rows", len(tbl.rows)).
		Int("columns", len(tbl.columns)).
		Msg("converted dataset")
	return prefix, nil
}
