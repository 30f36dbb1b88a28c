package model

import (
	"fmt"
	"strings"
)

const (
	keyRoot    = "datasets"
	rawSegment = "raw"
)

// RawKey derives the object key for an uploaded source file.
func RawKey(tableID, filename string) string {
	return fmt.Sprintf("%s/%s/%s/%s", keyRoot, tableID, rawSegment, filename)
}

// DeltaPrefix derives the object key prefix of a dataset's Delta table.
// The location is always derived from the table ID, never stored, so the
// record and the storage layout cannot drift apart.
func DeltaPrefix(tableID string) string {
	return fmt.Sprintf("%s/%s/delta", keyRoot, tableID)
}

// ParseRawKey splits an object key of the form datasets/{tableId}/raw/{filename}
// into its table ID and filename. Keys of any other shape are rejected.
func ParseRawKey(key string) (tableID, filename string, err error) {
	parts := strings.SplitN(key, "/", 4)
	if len(parts) != 4 || parts[0] != keyRoot || parts[2] != rawSegment {
		return "", "", fmt.Errorf("object key %q does not match %s/{tableId}/%s/{filename}", key, keyRoot, rawSegment)
	}
	if parts[1] == "" || parts[3] == "" {
		return "", "", fmt.Errorf("object key %q has an empty tableId or filename", key)
	}
	return parts[1], parts[3], nil
}
