package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const huggingFaceURL = "https://router.huggingface.co/hf-inference/v1/chat/completions"

// HuggingFaceProvider talks to the OpenAI-compatible v1/chat/completions router.
type HuggingFaceProvider struct {
	apiKey  string
	model   string
	baseURL string
}

func (p *HuggingFaceProvider) Complete(ctx context.Context, req Request) (string, error) {
	msgs := make([]map[string]string, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, map[string]string{"role": m.Role, "content": m.Content})
	}

	reqBody, err := json.Marshal(map[string]interface{}{
		"model":       p.model,
		"messages":    msgs,
		"max_tokens":  req.MaxTokens,
		"temperature": req.Temperature,
		"stream":      false,
	})
	if err != nil {
		return "", fmt.Errorf("huggingface encode error: %w", err)
	}

	url := huggingFaceURL
	if p.baseURL != "" {
		url = p.baseURL
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("huggingface request error: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("huggingface req error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("huggingface api error: %d - %s", resp.StatusCode, string(bodyBytes))
	}

	var chatResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("huggingface json error: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("huggingface empty response")
	}
	return chatResp.Choices[0].Message.Content, nil
}
