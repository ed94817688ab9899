package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vita/internal/config"
	vitaerrors "vita/internal/errors"
	"vita/internal/logging"
)

// openaiProvider speaks the OpenAI-compatible chat completions API. Any
// backend exposing that surface (OpenAI, OpenRouter, local gateways) works.
type openaiProvider struct {
	apiKey         string
	baseURL        string
	reasoningModel string
	utilityModel   string
	visionModel    string
	httpClient     *http.Client
	logger         logging.Logger
}

func newOpenAIProvider(cfg config.ProviderConfig, logger logging.Logger) *openaiProvider {
	timeout := 120 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultBaseURL
	}
	return &openaiProvider{
		apiKey:         cfg.APIKey,
		baseURL:        strings.TrimRight(baseURL, "/"),
		reasoningModel: cfg.ReasoningModel,
		utilityModel:   cfg.UtilityModel,
		visionModel:    cfg.VisionModel,
		httpClient:     &http.Client{Timeout: timeout},
		logger:         logging.OrNop(logger),
	}
}

func (p *openaiProvider) ReasoningModel() string { return p.reasoningModel }
func (p *openaiProvider) UtilityModel() string   { return p.utilityModel }

func (p *openaiProvider) VisionModel() string {
	if p.visionModel != "" {
		return p.visionModel
	}
	return p.reasoningModel
}

type oaiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type oaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage oaiUsage `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *openaiProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	model := req.Model
	if model == "" {
		model = p.reasoningModel
	}
	body := map[string]any{
		"model":    model,
		"messages": p.convertMessages(req),
		"stream":   false,
	}
	if req.Temperature > 0 {
		body["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		body["max_tokens"] = req.MaxTokens
	}
	if len(req.Tools) > 0 {
		body["tools"] = convertTools(req.Tools)
		body["tool_choice"] = "auto"
	}

	respBody, err := p.post(ctx, "/chat/completions", body)
	if err != nil {
		return nil, err
	}

	var oaiResp oaiResponse
	if err := json.Unmarshal(respBody, &oaiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if oaiResp.Error != nil {
		return nil, &vitaerrors.ProviderError{Message: fmt.Sprintf("provider error: %s", oaiResp.Error.Message)}
	}
	if len(oaiResp.Choices) == 0 {
		return nil, &vitaerrors.ProviderError{Message: "provider returned no choices"}
	}

	result := &ChatResult{
		Content:      oaiResp.Choices[0].Message.Content,
		TokensIn:     oaiResp.Usage.PromptTokens,
		TokensOut:    oaiResp.Usage.CompletionTokens,
		Model:        model,
		FinishReason: oaiResp.Choices[0].FinishReason,
	}
	p.fillMissingUsage(result, req)
	return result, nil
}

func (p *openaiProvider) ChatStream(ctx context.Context, req ChatRequest, onChunk func(StreamChunk)) (*ChatResult, error) {
	model := req.Model
	if model == "" {
		model = p.reasoningModel
	}
	body := map[string]any{
		"model":          model,
		"messages":       p.convertMessages(req),
		"stream":         true,
		"stream_options": map[string]any{"include_usage": true},
	}
	if req.Temperature > 0 {
		body["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		body["max_tokens"] = req.MaxTokens
	}

	httpReq, err := p.newRequest(ctx, "/chat/completions", body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, vitaerrors.WrapTransport(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, vitaerrors.MapHTTPStatus(resp.StatusCode, string(errBody))
	}

	var content strings.Builder
	var usage oaiUsage
	finishReason := "stop"

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}

		var chunk struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
				FinishReason string `json:"finish_reason"`
			} `json:"choices"`
			Usage *oaiUsage `json:"usage"`
		}
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			p.logger.Debug("skipping malformed stream chunk: %v", err)
			continue
		}
		if chunk.Usage != nil {
			usage = *chunk.Usage
		}
		for _, choice := range chunk.Choices {
			if choice.Delta.Content != "" {
				content.WriteString(choice.Delta.Content)
				if onChunk != nil {
					onChunk(StreamChunk{Delta: choice.Delta.Content})
				}
			}
			if choice.FinishReason != "" {
				finishReason = choice.FinishReason
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, vitaerrors.WrapTransport(err)
	}
	if onChunk != nil {
		onChunk(StreamChunk{Done: true})
	}

	result := &ChatResult{
		Content:      content.String(),
		TokensIn:     usage.PromptTokens,
		TokensOut:    usage.CompletionTokens,
		Model:        model,
		FinishReason: finishReason,
	}
	p.fillMissingUsage(result, req)
	return result, nil
}

func (p *openaiProvider) ChatWithVision(ctx context.Context, req VisionRequest) (*ChatResult, error) {
	model := req.Model
	if model == "" {
		model = p.VisionModel()
	}
	mime := req.ImageMime
	if mime == "" {
		mime = "image/jpeg"
	}
	dataURI := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(req.ImageData))

	var messages []map[string]any
	if req.System != "" {
		messages = append(messages, map[string]any{"role": RoleSystem, "content": req.System})
	}
	messages = append(messages, map[string]any{
		"role": RoleUser,
		"content": []map[string]any{
			{"type": "text", "text": req.Prompt},
			{"type": "image_url", "image_url": map[string]any{"url": dataURI}},
		},
	})

	respBody, err := p.post(ctx, "/chat/completions", map[string]any{
		"model":    model,
		"messages": messages,
		"stream":   false,
	})
	if err != nil {
		return nil, err
	}

	var oaiResp oaiResponse
	if err := json.Unmarshal(respBody, &oaiResp); err != nil {
		return nil, fmt.Errorf("decode vision response: %w", err)
	}
	if oaiResp.Error != nil {
		return nil, &vitaerrors.ProviderError{Message: fmt.Sprintf("provider error: %s", oaiResp.Error.Message)}
	}
	if len(oaiResp.Choices) == 0 {
		return nil, &vitaerrors.ProviderError{Message: "provider returned no choices"}
	}
	return &ChatResult{
		Content:      oaiResp.Choices[0].Message.Content,
		TokensIn:     oaiResp.Usage.PromptTokens,
		TokensOut:    oaiResp.Usage.CompletionTokens,
		Model:        model,
		FinishReason: oaiResp.Choices[0].FinishReason,
	}, nil
}

func (p *openaiProvider) ValidateKey(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return vitaerrors.WrapTransport(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return vitaerrors.NewProviderAuthError(fmt.Sprintf("status %d from %s", resp.StatusCode, p.baseURL))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return vitaerrors.MapHTTPStatus(resp.StatusCode, string(errBody))
	}
	return nil
}

func (p *openaiProvider) convertMessages(req ChatRequest) []map[string]any {
	messages := make([]map[string]any, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, map[string]any{"role": RoleSystem, "content": req.System})
	}
	for _, msg := range req.Messages {
		messages = append(messages, map[string]any{"role": msg.Role, "content": msg.Content})
	}
	return messages
}

func convertTools(tools []ToolDescriptor) []map[string]any {
	converted := make([]map[string]any, 0, len(tools))
	for _, tool := range tools {
		params := tool.Parameters
		if params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		converted = append(converted, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        tool.Name,
				"description": tool.Description,
				"parameters":  params,
			},
		})
	}
	return converted
}

func (p *openaiProvider) newRequest(ctx context.Context, path string, body map[string]any) (*http.Request, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	return httpReq, nil
}

func (p *openaiProvider) post(ctx context.Context, path string, body map[string]any) ([]byte, error) {
	httpReq, err := p.newRequest(ctx, path, body)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, vitaerrors.WrapTransport(err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, vitaerrors.MapHTTPStatus(resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// fillMissingUsage estimates token counts when the backend omits usage data,
// so accounting never records zeros for a successful call.
func (p *openaiProvider) fillMissingUsage(result *ChatResult, req ChatRequest) {
	if result.TokensIn == 0 {
		var prompt strings.Builder
		prompt.WriteString(req.System)
		for _, msg := range req.Messages {
			prompt.WriteString(msg.Content)
		}
		result.TokensIn = EstimateTokens(result.Model, prompt.String())
	}
	if result.TokensOut == 0 && result.Content != "" {
		result.TokensOut = EstimateTokens(result.Model, result.Content)
	}
}
