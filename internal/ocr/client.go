// Package ocr dispatches uploaded files to the external document-text-detection
// service. Images go out as a single request; PDFs are split into page images
// first so only a bounded page range is billed.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/ryoma-android/takahashi01-sub000/pkg/utils"
	"go.uber.org/zap"
)

// TextExtractor converts uploaded file content into plain text.
type TextExtractor interface {
	ExtractText(ctx context.Context, content []byte, mimeType string) (string, error)
}

// Config holds OCR provider configuration
type Config struct {
	Endpoint    string
	Timeout     time.Duration
	MaxPDFPages int
}

// Client talks to the OCR provider over HTTP.
type Client struct {
	endpoint    string
	maxPDFPages int
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewClient creates a new OCR client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	return &Client{
		endpoint:    strings.TrimRight(cfg.Endpoint, "/"),
		maxPDFPages: cfg.MaxPDFPages,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		logger:      logger,
	}
}

// ExtractText runs document-text-detection over the file content. An empty
// extraction result is an error: the pipeline cannot proceed without text.
func (c *Client) ExtractText(ctx context.Context, content []byte, mimeType string) (string, error) {
	var text string
	var err error

	if utils.IsPDF(mimeType) {
		text, err = c.extractFromPDF(ctx, content)
	} else {
		text, err = c.recognize(ctx, content, "upload.jpg")
	}
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("OCR returned no text")
	}

	c.logger.Info("OCR extraction completed",
		zap.String("mime_type", mimeType),
		zap.Int("text_length", len(text)))

	return text, nil
}

// extractFromPDF converts the first maxPDFPages pages to images, recognizes
// each, and joins the per-page text with newlines.
func (c *Client) extractFromPDF(ctx context.Context, content []byte) (string, error) {
	pages, err := pdfToPageImages(content, c.maxPDFPages)
	if err != nil {
		return "", fmt.Errorf("failed to convert PDF: %w", err)
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("no pages extracted from PDF")
	}

	c.logger.Debug("Converted PDF to page images", zap.Int("page_count", len(pages)))

	var parts []string
	for i, page := range pages {
		pageText, err := c.recognize(ctx, page, fmt.Sprintf("page-%d.jpg", i+1))
		if err != nil {
			return "", fmt.Errorf("OCR failed on page %d: %w", i+1, err)
		}
		parts = append(parts, pageText)
	}

	return strings.Join(parts, "\n"), nil
}

// ocrResponse is the provider's response envelope.
type ocrResponse struct {
	Success bool   `json:"success"`
	Text    string `json:"text"`
	Error   string `json:"error"`
}

// recognize sends a single image to the provider's /ocr endpoint.
func (c *Client) recognize(ctx context.Context, content []byte, filename string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to build multipart request: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return "", fmt.Errorf("failed to write multipart content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/ocr", &body)
	if err != nil {
		return "", fmt.Errorf("failed to create OCR request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("OCR request failed", zap.Error(err))
		return "", fmt.Errorf("OCR request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read OCR response: %w", err)
	}

	var parsed ocrResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse OCR response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("OCR provider returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("error", parsed.Error))
		return "", fmt.Errorf("OCR provider error (status %d): %s", resp.StatusCode, parsed.Error)
	}

	return parsed.Text, nil
}
