package controller

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/wnkinc/delta-bridge/internal/apperr"
	"github.com/wnkinc/delta-bridge/internal/model"
)

// corsHeaders is attached to every HTTP response.
var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "GET,POST,OPTIONS",
	"Access-Control-Allow-Headers": "*",
	"Content-Type":                 "application/json",
}

type routeKey struct {
	Method string
	Path   string
}

type handlerFunc func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (any, error)

func (c *Controller) routes() map[routeKey]handlerFunc {
	return map[routeKey]handlerFunc{
		{http.MethodPost, "/presign"}: c.handlePresign,
		{http.MethodPost, "/process"}: c.handleProcess,
		{http.MethodPost, "/share"}:   c.handleShare,
		{http.MethodPost, "/unshare"}: c.handleUnshare,
		{http.MethodGet, "/datasets"}: c.handleDatasets,
		{http.MethodGet, "/snippet"}:  c.handleSnippet,
	}
}

// Handle is the Lambda entrypoint. The function sits behind two triggers,
// so the raw payload is sniffed: S3 notification batches carry a Records
// array, everything else is an API Gateway v2 request.
func (c *Controller) Handle(ctx context.Context, raw json.RawMessage) (any, error) {
	var probe struct {
		Records []struct {
			EventSource string `json:"eventSource"`
		} `json:"Records"`
	}
	if err := json.Unmarshal(raw, &probe); err == nil &&
		len(probe.Records) > 0 && probe.Records[0].EventSource == "aws:s3" {
		var evt events.S3Event
		if err := json.Unmarshal(raw, &evt); err != nil {
			return nil, fmt.Errorf("decode s3 event: %w", err)
		}
		return nil, c.HandleS3(ctx, evt)
	}

	var req events.APIGatewayV2HTTPRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("decode http event: %w", err)
	}
	return c.HandleAPI(ctx, req)
}

// HandleAPI routes one HTTP-origin trigger. Errors never propagate as raw
// faults: they are converted to a structured body with the mapped status.
func (c *Controller) HandleAPI(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	method := req.RequestContext.HTTP.Method
	path := req.RequestContext.HTTP.Path

	if method == http.MethodOptions {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusNoContent, Headers: corsHeaders}, nil
	}

	handler, ok := c.routes()[routeKey{Method: method, Path: path}]
	if !ok {
		return respondError(http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("no route for %s %s", method, path)), nil
	}

	body, err := handler(ctx, req)
	if err != nil {
		status, code := classify(err)
		c.log.Error().Err(err).Str("method", method).Str("path", path).Int("status", status).Msg("request failed")
		return respondError(status, code, err.Error()), nil
	}
	return respond(http.StatusOK, body), nil
}

// HandleS3 fans an object-created batch out to independent conversions.
// The first failure aborts the batch and propagates, so S3's redelivery
// applies; conversion's overwrite semantics make the retry safe.
func (c *Controller) HandleS3(ctx context.Context, evt events.S3Event) error {
	for _, record := range evt.Records {
		key := record.S3.Object.URLDecodedKey
		if key == "" {
			key = record.S3.Object.Key
		}
		c.log.Info().Str("s3Key", key).Msg("object created")
		if err := c.ConvertDataset(ctx, key); err != nil {
			return fmt.Errorf("convert %s: %w", key, err)
		}
	}
	return nil
}

func (c *Controller) handlePresign(ctx context.Context, req events.APIGatewayV2HTTPRequest) (any, error) {
	var body model.PresignRequest
	if err := decodeBody(req, &body); err != nil {
		return nil, err
	}
	return c.RequestUploadSlot(ctx, body.UserID, body.Filename)
}

func (c *Controller) handleProcess(ctx context.Context, req events.APIGatewayV2HTTPRequest) (any, error) {
	var body model.ProcessRequest
	if err := decodeBody(req, &body); err != nil {
		return nil, err
	}
	if err := c.ConvertDataset(ctx, body.S3Key); err != nil {
		return nil, err
	}
	return &model.ProcessResponse{Message: "dataset converted", S3Key: body.S3Key}, nil
}

func (c *Controller) handleShare(ctx context.Context, req events.APIGatewayV2HTTPRequest) (any, error) {
	var body model.ShareRequest
	if err := decodeBody(req, &body); err != nil {
		return nil, err
	}
	return c.ShareDataset(ctx, body.TableID)
}

func (c *Controller) handleUnshare(ctx context.Context, req events.APIGatewayV2HTTPRequest) (any, error) {
	var body model.ShareRequest
	if err := decodeBody(req, &body); err != nil {
		return nil, err
	}
	return c.UnshareDataset(ctx, body.TableID)
}

func (c *Controller) handleDatasets(ctx context.Context, req events.APIGatewayV2HTTPRequest) (any, error) {
	return c.ListDatasets(ctx, req.QueryStringParameters["userId"])
}

func (c *Controller) handleSnippet(ctx context.Context, req events.APIGatewayV2HTTPRequest) (any, error) {
	return c.GetSnippet(ctx, req.QueryStringParameters["tableId"])
}

func decodeBody(req events.APIGatewayV2HTTPRequest, dst any) error {
	raw := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return fmt.Errorf("%w: body is not valid base64", apperr.ErrValidation)
		}
		raw = decoded
	}
	if len(raw) == 0 {
		return fmt.Errorf("%w: request body is required", apperr.ErrValidation)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: body is not valid JSON", apperr.ErrValidation)
	}
	return nil
}

func classify(err error) (status int, code string) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, apperr.ErrDecode):
		return http.StatusInternalServerError, "DECODE_ERROR"
	case errors.Is(err, apperr.ErrStorage):
		return http.StatusInternalServerError, "STORAGE_ERROR"
	case errors.Is(err, apperr.ErrChannel):
		return http.StatusInternalServerError, "CHANNEL_ERROR"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func respond(status int, body any) events.APIGatewayV2HTTPResponse {
	data, err := json.Marshal(body)
	if err != nil {
		return respondError(http.StatusInternalServerError, "INTERNAL_ERROR", "encode response")
	}
	return events.APIGatewayV2HTTPResponse{StatusCode: status, Headers: corsHeaders, Body: string(data)}
}

func respondError(status int, code, message string) events.APIGatewayV2HTTPResponse {
	data, _ := json.Marshal(model.ErrorResponse{Error: code, Message: message})
	return events.APIGatewayV2HTTPResponse{StatusCode: status, Headers: corsHeaders, Body: string(data)}
}
