package model

import "time"

// Domain constants shared across handler, conversion, and storage packages.
const (
	ContentTypeCSV    = "text/csv"
	PresignTTL        = time.Hour
	TableIDIndex      = "tableId-index"
	DeltaLogDirectory = "_delta_log"
)
