package model

// PresignRequest is the JSON body sent by clients to POST /presign.
type PresignRequest struct {
	UserID   string `json:"userId"`
	Filename string `json:"filename"`
}

// ProcessRequest is the JSON body sent by clients to POST /process.
type ProcessRequest struct {
	S3Key string `json:"s3Key"`
}

// ShareRequest is the JSON body sent to POST /share and POST /unshare.
type ShareRequest struct {
	TableID string `json:"tableId"`
}
