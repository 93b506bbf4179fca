package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// DocumentInfo describes an ingested document (admin console)
type DocumentInfo struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	FileName        string  `json:"file_name"`
	FileType        string  `json:"file_type"`
	FileSizeBytes   *int64  `json:"file_size_bytes"`
	Faculty         *string `json:"faculty"`
	Program         *string `json:"program"`
	DocumentType    *string `json:"document_type"`
	IngestionStatus string  `json:"ingestion_status"`
	TotalChunks     int     `json:"total_chunks"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

// UploadResult acknowledges a document upload
type UploadResult struct {
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

// ProviderInfo describes an LLM provider and its models
type ProviderInfo struct {
	Name        string   `json:"name"`
	Models      []string `json:"models"`
	IsAvailable bool     `json:"is_available"`
	IsDefault   bool     `json:"is_default"`
}

type providersResponse struct {
	Providers []ProviderInfo `json:"providers"`
}

// LLMConfig is the backend's LLM runtime configuration
type LLMConfig struct {
	DefaultProvider string   `json:"default_provider,omitempty"`
	DefaultModel    string   `json:"default_model,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxTokens       *int     `json:"max_tokens,omitempty"`
}

type apiKeyRequest struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
}

// APIKeyStatus reports whether a provider has a key configured
type APIKeyStatus struct {
	Provider   string `json:"provider"`
	Configured bool   `json:"configured"`
}

// HealthStatus is the backend health report
type HealthStatus struct {
	Status   string `json:"status"`
	Services map[string]struct {
		Status string `json:"status"`
	} `json:"services"`
}

// UploadDocument sends a file to the ingestion pipeline as multipart form
// data. Optional faculty/program/documentType classify the document; empty
// strings are omitted.
func (c *Client) UploadDocument(ctx context.Context, filePath, title, faculty, program, documentType string) (*UploadResult, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filePath, err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	fields := map[string]string{
		"title":         title,
		"faculty":       faculty,
		"program":       program,
		"document_type": documentType,
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("failed to write field %s: %w", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	var result UploadResult
	if err := c.doMultipart(ctx, "/api/v1/documents/upload", &buf, writer.FormDataContentType(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListDocuments returns ingested documents, paginated
func (c *Client) ListDocuments(ctx context.Context, page, perPage int) ([]DocumentInfo, error) {
	path := fmt.Sprintf("/api/v1/documents/?page=%d&per_page=%d", page, perPage)
	var documents []DocumentInfo
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &documents); err != nil {
		return nil, err
	}
	return documents, nil
}

// DeleteDocument removes a document and its chunks
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/v1/documents/"+id, nil, nil)
}

// ListProviders returns the configured LLM providers
func (c *Client) ListProviders(ctx context.Context) ([]ProviderInfo, error) {
	var resp providersResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/llm/providers", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Providers, nil
}

// GetLLMConfig reads the current LLM runtime configuration
func (c *Client) GetLLMConfig(ctx context.Context) (*LLMConfig, error) {
	var cfg LLMConfig
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/config/llm", nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UpdateLLMConfig updates the LLM runtime configuration
func (c *Client) UpdateLLMConfig(ctx context.Context, cfg LLMConfig) error {
	return c.doJSON(ctx, http.MethodPut, "/api/v1/config/llm", cfg, nil)
}

// SetAPIKey stores a provider API key server-side
func (c *Client) SetAPIKey(ctx context.Context, provider, apiKey string) error {
	return c.doJSON(ctx, http.MethodPut, "/api/v1/config/api-key", apiKeyRequest{Provider: provider, APIKey: apiKey}, nil)
}

// CheckAPIKey reports whether a provider has a key configured
func (c *Client) CheckAPIKey(ctx context.Context, provider string) (*APIKeyStatus, error) {
	var status APIKeyStatus
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/config/api-key/"+provider, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Health checks backend availability
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/health", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
