package convert

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/wnkinc/delta-bridge/internal/apperr"
)

// column is one header-derived column of the source file.
type column struct {
	name     string
	isDouble bool
}

// table is the decoded source file: header-derived columns plus string rows.
type table struct {
	columns []column
	rows    [][]string
}

// readCSV decodes path as comma-separated rows with a header line. A column
// is typed double when every one of its values is non-empty and parses as a
// number; everything else stays string.
func readCSV(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrDecode, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: file has no header row", apperr.ErrDecode)
	}

	header := records[0]
	seen := make(map[string]bool, len(header))
	columns := make([]column, len(header))
	for i, name := range header {
		if name == "" {
			return nil, fmt.Errorf("%w: empty column name at position %d", apperr.ErrDecode, i)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate column name %q", apperr.ErrDecode, name)
		}
		seen[name] = true
		columns[i] = column{name: name, isDouble: true}
	}

	rows := records[1:]
	if len(rows) == 0 {
		for i := range columns {
			columns[i].isDouble = false
		}
	}
	for _, row := range rows {
		for i, v := range row {
			if !columns[i].isDouble {
				continue
			}
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				columns[i].isDouble = false
			}
		}
	}

	return &table{columns: columns, rows: rows}, nil
}
