package model

// Dataset represents a single item in the datasets DynamoDB table.
// The primary key is (userId, s3Key); lookups by tableId go through the
// tableId-index GSI.
type Dataset struct {
	UserID          string `dynamodbav:"userId" json:"userId"`
	S3Key           string `dynamodbav:"s3Key" json:"s3Key"`
	TableID         string `dynamodbav:"tableId" json:"tableId"`
	Filename        string `dynamodbav:"filename" json:"filename"`
	Status          string `dynamodbav:"status" json:"status"`
	CreatedAt       string `dynamodbav:"createdAt" json:"createdAt"`
	NotebookSnippet string `dynamodbav:"notebookSnippet,omitempty" json:"notebookSnippet,omitempty"`
}

// Status constants for Dataset.Status.
const (
	StatusPending   = "pending"
	StatusConverted = "converted"
	StatusShared    = "shared"
)
