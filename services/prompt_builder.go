package services

import (
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultSystemInstructions is the therapist persona sent with every request.
const DefaultSystemInstructions = `You are a compassionate, professional therapist helping someone work through a negative thought.
Respond directly to the person, using "you".
First, validate their feelings and show that you understand why they feel this way.
Then offer one or two concrete, practical coping suggestions they can try today.
Never talk about yourself, your own life, family or experiences, and never speak in first person about personal experience.
Do not repeat their message back to them, do not describe what you are going to write, and do not use headings or lists.
Keep the reply warm, plain and between four and six sentences.`

// ModelFamily groups model identifiers that share a prompt format.
type ModelFamily string

const (
	FamilyMistral ModelFamily = "mistral" // mistral, mixtral
	FamilyLlama   ModelFamily = "llama"   // llama, gemma
	FamilyGeneric ModelFamily = "generic"
)

// GenerationParameters are the sampling settings of one request.
type GenerationParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float32 `json:"temperature"`
	TopP           float32 `json:"top_p"`
	DoSample       bool    `json:"do_sample"`
	ReturnFullText bool    `json:"return_full_text"`
}

// RequestPayload is a provider-shaped model request. Inputs holds the prompt
// rendered in the family's template; SystemInstructions and UserText are kept
// for chat-style endpoints.
type RequestPayload struct {
	Model              string               `json:"-"`
	Family             ModelFamily          `json:"-"`
	SystemInstructions string               `json:"-"`
	UserText           string               `json:"-"`
	Inputs             string               `json:"inputs"`
	Parameters         GenerationParameters `json:"parameters"`
}

// ChatCompletionRequest converts the payload for an OpenAI-compatible endpoint.
func (p *RequestPayload) ChatCompletionRequest() openai.ChatCompletionRequest {
	var messages []openai.ChatCompletionMessage
	if p.SystemInstructions != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: p.SystemInstructions})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: p.UserText})
	return openai.ChatCompletionRequest{
		Model:       p.Model,
		Messages:    messages,
		MaxTokens:   p.Parameters.MaxNewTokens,
		Temperature: p.Parameters.Temperature,
		TopP:        p.Parameters.TopP,
	}
}

// familyProfile is the per-family template and token budget.
type familyProfile struct {
	maxNewTokens int
	render       func(system, user string) string
}

var familyProfiles = map[ModelFamily]familyProfile{
	FamilyMistral: {
		maxNewTokens: 800,
		render: func(system, user string) string {
			return fmt.Sprintf("<s>[INST] %s\n\nUser's thought: %s [/INST]", system, user)
		},
	},
	FamilyLlama: {
		maxNewTokens: 1000,
		render: func(system, user string) string {
			return fmt.Sprintf("<start_of_turn>user\n%s\n\nUser's thought: %s<end_of_turn>\n<start_of_turn>model\n", system, user)
		},
	},
	FamilyGeneric: {
		maxNewTokens: 600,
		render: func(system, user string) string {
			return fmt.Sprintf("%s\n\nUser's thought: %s\n\nTherapeutic response:", system, user)
		},
	},
}

// FamilyOf classifies a model identifier by substring.
func FamilyOf(modelID string) ModelFamily {
	id := strings.ToLower(modelID)
	switch {
	case strings.Contains(id, "mistral"), strings.Contains(id, "mixtral"):
		return FamilyMistral
	case strings.Contains(id, "llama"), strings.Contains(id, "gemma"):
		return FamilyLlama
	default:
		return FamilyGeneric
	}
}

// PromptBuilder assembles model requests.
type PromptBuilder struct{}

// NewPromptBuilder creates a PromptBuilder.
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// Build always produces a payload; an empty userText is the caller's concern.
// An empty systemInstructions selects DefaultSystemInstructions.
func (b *PromptBuilder) Build(modelID, systemInstructions, userText string) *RequestPayload {
	if strings.TrimSpace(systemInstructions) == "" {
		systemInstructions = DefaultSystemInstructions
	}
	family := FamilyOf(modelID)
	profile := familyProfiles[family]
	return &RequestPayload{
		Model:              modelID,
		Family:             family,
		SystemInstructions: systemInstructions,
		UserText:           userText,
		Inputs:             profile.render(systemInstructions, userText),
		Parameters: GenerationParameters{
			MaxNewTokens:   profile.maxNewTokens,
			Temperature:    0.7,
			TopP:           0.9,
			DoSample:       true,
			ReturnFullText: false,
		},
	}
}
