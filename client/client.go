// Package client talks to a running quality service over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/Tutortoise/face-quality-service/models"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const DefaultTimeout = 30 * time.Second

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// APIError is a non-200 reply. Code, Message and Details are filled when
// the body is the service's JSON error document.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details"`
	Body       string `json:"-"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
	}
	if e.Details == "" {
		return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("HTTP %d %s: %s (%s)", e.StatusCode, e.Code, e.Message, e.Details)
}

type assessRequest struct {
	Image string               `json:"image"`
	Faces []models.FaceRequest `json:"faces"`
}

type facesResponse struct {
	Faces []models.FaceAssessment `json:"faces"`
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
}

func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var health HealthResponse
	if err := c.doJSON(req, &health); err != nil {
		return nil, fmt.Errorf("health check failed: %w", err)
	}
	return &health, nil
}

// Assess sends the image base64 encoded with faces in a JSON body.
func (c *Client) Assess(ctx context.Context, imageData []byte, faces []models.FaceRequest) ([]models.FaceAssessment, error) {
	if faces == nil {
		faces = []models.FaceRequest{}
	}

	payload, err := json.Marshal(assessRequest{
		Image: base64.StdEncoding.EncodeToString(imageData),
		Faces: faces,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/quality/assess", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var result facesResponse
	if err := c.doJSON(req, &result); err != nil {
		return nil, err
	}
	return result.Faces, nil
}

func (c *Client) Detect(ctx context.Context, imageData []byte) ([]models.FaceAssessment, error) {
	req, err := c.newUploadRequest(ctx, "/quality/detect", imageData)
	if err != nil {
		return nil, err
	}

	var result facesResponse
	if err := c.doJSON(req, &result); err != nil {
		return nil, err
	}
	return result.Faces, nil
}

// Preprocess returns the equalized image as JPEG bytes.
func (c *Client) Preprocess(ctx context.Context, imageData []byte) ([]byte, error) {
	req, err := c.newUploadRequest(ctx, "/quality/preprocess", imageData)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return data, nil
}

func (c *Client) newUploadRequest(ctx context.Context, path string, imageData []byte) (*http.Request, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to copy image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req, nil
}

// do sends req and turns any non-200 reply into an *APIError.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode == http.StatusOK {
		return resp, nil
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	if json.Unmarshal(bodyBytes, apiErr) != nil {
		apiErr.Code, apiErr.Message, apiErr.Details = "", "", ""
	}
	return nil, apiErr
}

func (c *Client) doJSON(req *http.Request, v interface{}) error {
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
