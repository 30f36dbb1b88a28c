package convert

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"

	"github.com/wnkinc/delta-bridge/internal/model"
)

// Delta transaction log actions, one JSON object per line of a commit file.
type protocolAction struct {
	MinReaderVersion int `json:"minReaderVersion"`
	MinWriterVersion int `json:"minWriterVersion"`
}

type formatSpec struct {
	Provider string            `json:"provider"`
	Options  map[string]string `json:"options"`
}

type metaDataAction struct {
	ID               string            `json:"id"`
	Format           formatSpec        `json:"format"`
	SchemaString     string            `json:"schemaString"`
	PartitionColumns []string          `json:"partitionColumns"`
	Configuration    map[string]string `json:"configuration"`
	CreatedTime      int64             `json:"createdTime"`
}

type addAction struct {
	Path             string            `json:"path"`
	PartitionValues  map[string]string `json:"partitionValues"`
	Size             int64             `json:"size"`
	ModificationTime int64             `json:"modificationTime"`
	DataChange       bool              `json:"dataChange"`
}

// Spark StructType, serialized into metaData.schemaString.
type structType struct {
	Type   string        `json:"type"`
	Fields []structField `json:"fields"`
}

type structField struct {
	Name     string         `json:"name"`
	Type     string         `json:"type"`
	Nullable bool           `json:"nullable"`
	Metadata map[string]any `json:"metadata"`
}

// writeDeltaTable writes a version-0 Delta table for tbl into dir: one
// snappy-compressed parquet file and _delta_log/00000000000000000000.json.
// Writing version 0 every time gives the overwrite semantics conversion
// relies on.
func writeDeltaTable(tbl *table, tableID, dir string) error {
	logDir := filepath.Join(dir, model.DeltaLogDirectory)
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("create delta dirs: %w", err)
	}

	dataFile := fmt.Sprintf("part-00000-%s-c000.snappy.parquet", uuid.NewString())
	size, err := writeParquet(tbl, tableID, filepath.Join(dir, dataFile))
	if err != nil {
		return err
	}

	now := time.Now().UnixMilli()
	schemaJSON, err := json.Marshal(schemaOf(tbl))
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	actions := []any{
		map[string]any{"protocol": protocolAction{MinReaderVersion: 1, MinWriterVersion: 2}},
		map[string]any{"metaData": metaDataAction{
			ID:               tableID,
			Format:           formatSpec{Provider: "parquet", Options: map[string]string{}},
			SchemaString:     string(schemaJSON),
			PartitionColumns: []string{},
			Configuration:    map[string]string{},
			CreatedTime:      now,
		}},
		map[string]any{"add": addAction{
			Path:             dataFile,
			PartitionValues:  map[string]string{},
			Size:             size,
			ModificationTime: now,
			DataChange:       true,
		}},
	}

	commit, err := os.Create(filepath.Join(logDir, "00000000000000000000.json"))
	if err != nil {
		return fmt.Errorf("create commit file: %w", err)
	}
	defer commit.Close()

	enc := json.NewEncoder(commit)
	for _, action := range actions {
		if err := enc.Encode(action); err != nil {
			return fmt.Errorf("write commit action: %w", err)
		}
	}
	return nil
}

func schemaOf(tbl *table) structType {
	fields := make([]structField, len(tbl.columns))
	for i, col := range tbl.columns {
		kind := "string"
		if col.isDouble {
			kind = "double"
		}
		fields[i] = structField{Name: col.name, Type: kind, Nullable: true, Metadata: map[string]any{}}
	}
	return structType{Type: "struct", Fields: fields}
}

func writeParquet(tbl *table, tableID, path string) (int64, error) {
	group := parquet.Group{}
	for _, col := range tbl.columns {
		if col.isDouble {
			group[col.name] = parquet.Leaf(parquet.DoubleType)
		} else {
			group[col.name] = parquet.String()
		}
	}
	schema := parquet.NewSchema(tableID, group)

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}

	w := parquet.NewGenericWriter[any](f, schema, parquet.Compression(&parquet.Snappy))
	rows := make([]parquet.Row, len(tbl.rows))
	for i, row := range tbl.rows {
		record := make(map[string]any, len(tbl.columns))
		for j, col := range tbl.columns {
			if col.isDouble {
				v, _ := strconv.ParseFloat(row[j], 64)
				record[col.name] = v
			} else {
				record[col.name] = row[j]
			}
		}
		rows[i] = schema.Deconstruct(nil, record)
	}
	if len(rows) > 0 {
		if _, err := w.WriteRows(rows); err != nil {
			f.Close()
			return 0, fmt.Errorf("write parquet rows: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		f.Close()
		return 0, fmt.Errorf("close parquet writer: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
