// Package client talks to a running gamegen server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kapu/gamegen-go/internal/domain"
	"github.com/kapu/gamegen-go/pkg/errors"
	"go.uber.org/zap"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient targets baseURL, e.g. "http://localhost:8080". Generation waits
// on the model, so requests have no client-side timeout; bound them with ctx.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     logger,
	}
}

type healthResponse struct {
	Status  string `json:"status"`
	Circuit string `json:"circuit"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field"`
}

// Health returns the server's model circuit state.
func (c *Client) Health(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var resp healthResponse
	if err := c.doRequest(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Circuit, nil
}

// Generate runs a batch on the server and returns the records in input order.
func (c *Client) Generate(ctx context.Context, urls []string) ([]domain.GameRecord, error) {
	var records []domain.GameRecord
	if err := c.doRequest(ctx, http.MethodPost, "/api/games", map[string]any{"urls": urls}, &records); err != nil {
		c.logger.Error("Failed to generate records", zap.Error(err))
		return nil, err
	}
	return records, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, reqBody, respBody any) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return errors.NewAPIError("failed to marshal request", 400, map[string]any{
				"url": url,
			}).WithCause(err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return errors.NewAPIError("failed to create request", 500, map[string]any{
			"url": url,
		}).WithCause(err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewAPIError("request failed", 500, map[string]any{
			"url": url,
		}).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)

		var apiErr errorResponse
		if json.Unmarshal(bodyBytes, &apiErr) == nil && apiErr.Error != "" {
			if resp.StatusCode == http.StatusBadRequest {
				return errors.NewValidationError(apiErr.Error, apiErr.Field, nil)
			}
			return errors.NewAPIError(apiErr.Error, resp.StatusCode, map[string]any{"url": url})
		}

		return errors.NewAPIError(
			fmt.Sprintf("gamegen API error: %s", resp.Status),
			resp.StatusCode,
			map[string]any{
				"url":  url,
				"body": string(bodyBytes),
			},
		)
	}

	if respBody != nil {
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return errors.NewAPIError("failed to decode response", 500, map[string]any{
				"url": url,
			}).WithCause(err)
		}
	}

	return nil
}
