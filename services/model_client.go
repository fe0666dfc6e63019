package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ModelClient sends one request to the hosted model and returns its raw text.
// Errors are *ModelError values.
type ModelClient interface {
	Complete(ctx context.Context, credential string, payload *RequestPayload) (string, error)
}

type openAIModelClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewOpenAIModelClient creates a ModelClient for an OpenAI-compatible chat
// completions endpoint (Hugging Face router, OpenRouter, vLLM, ...).
func NewOpenAIModelClient(baseURL string, httpClient *http.Client) ModelClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &openAIModelClient{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

func (c *openAIModelClient) Complete(ctx context.Context, credential string, payload *RequestPayload) (string, error) {
	if strings.TrimSpace(credential) == "" {
		return "", &ModelError{Kind: KindMissingCredential, Message: "no API key configured"}
	}

	cfg := openai.DefaultConfig(credential)
	cfg.BaseURL = c.baseURL
	cfg.HTTPClient = c.httpClient
	client := openai.NewClientWithConfig(cfg)

	log.Printf("INFO: [ModelClient] Sending request to model '%s' (family %s).", payload.Model, payload.Family)
	resp, err := client.CreateChatCompletion(ctx, payload.ChatCompletionRequest())
	if err != nil {
		mapped := classifyModelError(err)
		log.Printf("ERROR: [ModelClient] Request to model '%s' failed: %v", payload.Model, mapped)
		return "", mapped
	}
	if len(resp.Choices) == 0 {
		return "", &ModelError{Kind: KindInvalidResponse, Message: "response has no choices"}
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", &ModelError{Kind: KindInvalidResponse, Message: "response content is empty"}
	}
	return content, nil
}

// classifyModelError maps go-openai and transport errors onto the taxonomy.
func classifyModelError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, reqErr.Error(), err)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return &ModelError{Kind: KindParseFailure, Message: err.Error(), Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &ModelError{Kind: KindNetworkFailure, Message: err.Error(), Err: err}
	}
	return &ModelError{Kind: KindUnknown, Message: err.Error(), Err: err}
}

func classifyStatus(status int, message string, err error) error {
	kind := KindUnknown
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindMissingCredential
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status >= 500:
		kind = KindServerFailure
	case status >= 400:
		kind = KindInvalidResponse
	}
	return &ModelError{Kind: kind, Message: message, Err: err}
}
