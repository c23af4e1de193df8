// Package rembg talks to a rembg-compatible background removal service.
package rembg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	DefaultFormField = "file"
	DefaultTimeout   = 60 * time.Second

	apiKeyHeader = "X-Api-Key"
	maxBodyBytes = 64 << 20
)

// Remover returns the input image with its background made transparent.
type Remover interface {
	Remove(ctx context.Context, data []byte, filename string) ([]byte, error)
}

type Options struct {
	Endpoint  string
	FormField string
	APIKey    string
	Timeout   time.Duration
}

type Client struct {
	client    *http.Client
	endpoint  string
	formField string
	apiKey    string
}

func NewClient(opts Options) *Client {
	if opts.FormField == "" {
		opts.FormField = DefaultFormField
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Client{
		client:    &http.Client{Timeout: opts.Timeout},
		endpoint:  opts.Endpoint,
		formField: opts.FormField,
		apiKey:    opts.APIKey,
	}
}

// StatusError is returned for a non-2xx response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("segmentation service returned %d", e.StatusCode)
	}
	return fmt.Sprintf("segmentation service returned %d: %s", e.StatusCode, e.Message)
}

func (c *Client) Remove(ctx context.Context, data []byte, filename string) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("no image data to send")
	}
	if filename == "" {
		filename = "image"
	}

	body, contentType, err := c.encodeForm(data, filepath.Base(filename))
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "image/png")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", c.endpoint, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(payload)}
	}
	if len(payload) == 0 {
		return nil, errors.New("segmentation service returned an empty body")
	}

	return payload, nil
}

func (c *Client) encodeForm(data []byte, filename string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile(c.formField, filename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("failed to write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close form: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
	Errors  []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// errorMessage pulls a human readable message out of an error response,
// falling back to the trimmed body text.
func errorMessage(payload []byte) string {
	var body errorBody
	if err := json.Unmarshal(payload, &body); err == nil {
		switch {
		case body.Error != "":
			return body.Error
		case body.Message != "":
			return body.Message
		case body.Detail != "":
			return body.Detail
		case len(body.Errors) > 0:
			if body.Errors[0].Detail != "" {
				return body.Errors[0].Title + ": " + body.Errors[0].Detail
			}
			return body.Errors[0].Title
		}
	}

	text := strings.TrimSpace(string(payload))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
