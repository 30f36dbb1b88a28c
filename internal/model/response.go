package model

// PresignResponse is returned on a successful POST /presign request.
type PresignResponse struct {
	URL     string `json:"url"`
	TableID string `json:"tableId"`
	S3Key   string `json:"s3Key"`
}

// ProcessResponse is returned on a successful POST /process request.
type ProcessResponse struct {
	Message string `json:"message"`
	S3Key   string `json:"s3Key"`
}

// ShareResponse is returned on a successful POST /share request. Profile is
// the Delta Sharing connection profile the client saves as a .share file.
type ShareResponse struct {
	Profile Profile `json:"profile"`
	Snippet string  `json:"snippet"`
	Status  string  `json:"status"`
}

// UnshareResponse is returned on a successful POST /unshare request.
type UnshareResponse struct {
	Status string `json:"status"`
}

// SnippetResponse is returned by GET /snippet.
type SnippetResponse struct {
	NotebookSnippet string `json:"notebookSnippet"`
}

// DatasetSummary is one entry in the GET /datasets listing.
type DatasetSummary struct {
	TableID  string `json:"tableId"`
	Filename string `json:"filename"`
	Status   string `json:"status"`
}

// DatasetsResponse is returned by GET /datasets.
type DatasetsResponse struct {
	Datasets []DatasetSummary `json:"datasets"`
}

// Profile mirrors the Delta Sharing connection profile format.
type Profile struct {
	ShareCredentialsVersion int    `json:"shareCredentialsVersion"`
	Endpoint                string `json:"endpoint"`
	BearerToken             string `json:"bearerToken"`
}

// ErrorResponse is returned for any failed API request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
