package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"
)

const defaultSystemTemplate = `You are a knowledgeable financial advisor assistant. ` +
	`Use the reference documents and the client profile below to give suitable, ` +
	`educational guidance. Ground recommendations in the client's stated risk ` +
	`tolerance and time horizon, explain the risks of any strategy you mention, ` +
	`and ask a follow-up question when important profile details are still missing. ` +
	`Never present guidance as personalized investment advice.`

// ChatConfig represents the configuration for a chat engine.
type ChatConfig struct {
	Model          string
	Temperature    float64
	MaxTokens      int
	SystemTemplate string
	BaseURL        string // Ollama server URL
}

// ChatEngine generates advisor responses from a query plus retrieved
// document context and the client profile summary.
type ChatEngine struct {
	config ChatConfig
	llm    llms.Model
}

// NewWithConfig creates a new ChatEngine with the given configuration.
func NewWithConfig(config ChatConfig) (*ChatEngine, error) {
	if config.Model == "" {
		config.Model = "mistral"
	}
	if config.Temperature <= 0 || config.Temperature > 1 {
		return nil, fmt.Errorf("temperature must be between 0 and 1")
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.SystemTemplate == "" {
		config.SystemTemplate = defaultSystemTemplate
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}

	llm, err := ollama.New(ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &ChatEngine{
		config: config,
		llm:    llm,
	}, nil
}

func (ce *ChatEngine) messages(query, docContext, profileSummary string) []llms.MessageContent {
	content := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, ce.config.SystemTemplate),
	}
	if docContext != "" {
		content = append(content, llms.TextParts(schema.ChatMessageTypeSystem,
			"Reference documents:\n"+docContext))
	}
	if profileSummary != "" {
		content = append(content, llms.TextParts(schema.ChatMessageTypeSystem,
			profileSummary))
	}
	return append(content, llms.TextParts(schema.ChatMessageTypeHuman, query))
}

// Chat generates a single response for the query, grounded in the
// formatted document context and profile summary.
func (ce *ChatEngine) Chat(ctx context.Context, query, docContext, profileSummary string) (string, error) {
	response, err := ce.llm.GenerateContent(ctx, ce.messages(query, docContext, profileSummary),
		llms.WithTemperature(ce.config.Temperature),
		llms.WithMaxTokens(ce.config.MaxTokens))
	if err != nil {
		return "", fmt.Errorf("chat error: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("chat error: empty response")
	}
	return response.Choices[0].Content, nil
}

// ChatStream generates the same response as Chat but delivers it as a
// channel of text fragments. The channel is closed when generation ends.
func (ce *ChatEngine) ChatStream(ctx context.Context, query, docContext, profileSummary string) (<-chan string, error) {
	resultChan := make(chan string)

	go func() {
		defer close(resultChan)

		_, err := ce.llm.GenerateContent(ctx, ce.messages(query, docContext, profileSummary),
			llms.WithTemperature(ce.config.Temperature),
			llms.WithMaxTokens(ce.config.MaxTokens),
			llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
				select {
				case resultChan <- string(chunk):
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			}))
		if err != nil {
			resultChan <- fmt.Sprintf("Error: %v", err)
		}
	}()

	return resultChan, nil
}
