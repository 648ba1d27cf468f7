package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultAzureAPIVersion = "2023-07-31"

// AzureEngine calls the Azure Document Intelligence REST API: the document is
// submitted to a prebuilt model and the operation is polled until it settles.
type AzureEngine struct {
	endpoint     string
	key          string
	apiVersion   string
	pollInterval time.Duration
	client       *http.Client
}

func NewAzureEngine(endpoint, key, apiVersion string, pollInterval time.Duration) *AzureEngine {
	if apiVersion == "" {
		apiVersion = defaultAzureAPIVersion
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &AzureEngine{
		endpoint:     strings.TrimRight(endpoint, "/"),
		key:          key,
		apiVersion:   apiVersion,
		pollInterval: pollInterval,
		client:       &http.Client{Timeout: 60 * time.Second},
	}
}

func (e *AzureEngine) AnalyzeDocument(ctx context.Context, mode Mode, data []byte) (*Layout, error) {
	model := "prebuilt-read"
	if mode == ModeLayout {
		model = "prebuilt-layout"
	}

	opURL, err := e.submit(ctx, model, data)
	if err != nil {
		return nil, fmt.Errorf("document intelligence submit (%s): %w", model, err)
	}
	layout, err := e.poll(ctx, opURL)
	if err != nil {
		return nil, fmt.Errorf("document intelligence %s: %w", model, err)
	}
	return layout, nil
}

func (e *AzureEngine) submit(ctx context.Context, model string, data []byte) (string, error) {
	url := fmt.Sprintf("%s/formrecognizer/documentModels/%s:analyze?api-version=%s", e.endpoint, model, e.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", e.key)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("analyze request failed (%d): %s", resp.StatusCode, string(body))
	}

	opURL := resp.Header.Get("Operation-Location")
	if opURL == "" {
		return "", fmt.Errorf("analyze response missing Operation-Location")
	}
	return opURL, nil
}

// poll waits for the operation to finish. The caller's context bounds it.
func (e *AzureEngine) poll(ctx context.Context, opURL string) (*Layout, error) {
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Ocp-Apim-Subscription-Key", e.key)

		resp, err := e.client.Do(req)
		if err != nil {
			return nil, err
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read status: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("status request failed (%d): %.200s", resp.StatusCode, string(body))
		}

		var status struct {
			Status string `json:"status"`
			Error  *struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
			AnalyzeResult *Layout `json:"analyzeResult"`
		}
		if err := json.Unmarshal(body, &status); err != nil {
			return nil, fmt.Errorf("parse status: %w", err)
		}

		switch status.Status {
		case "succeeded":
			if status.AnalyzeResult == nil {
				return nil, fmt.Errorf("operation succeeded without a result")
			}
			return status.AnalyzeResult, nil
		case "failed", "canceled":
			msg := "unknown error"
			if status.Error != nil {
				msg = status.Error.Code + ": " + status.Error.Message
			}
			return nil, fmt.Errorf("operation %s: %s", status.Status, msg)
		}

		timer := time.NewTimer(e.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
