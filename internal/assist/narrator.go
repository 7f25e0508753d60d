package assist

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// systemPrompt frames the assistant for the chat completion.
const systemPrompt = `You are AirChat, a friendly assistant specializing in air quality and environmental health.
You are given a factual air quality report. Answer the user's question conversationally using only the
facts in the report, and include clear, actionable health advice. If the report does not cover something,
say so rather than guessing.`

// OpenAINarrator phrases reports via the OpenAI chat completions API.
type OpenAINarrator struct {
	client openai.Client
	model  openai.ChatModel
}

// NewOpenAINarrator creates a narrator. Model defaults to gpt-4o-mini.
func NewOpenAINarrator(apiKey, model string) (*OpenAINarrator, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key not set")
	}
	chatModel := openai.ChatModel(model)
	if chatModel == "" {
		chatModel = openai.ChatModelGPT4oMini
	}
	return &OpenAINarrator{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  chatModel,
	}, nil
}

// Narrate answers the question using the report as context.
func (n *OpenAINarrator) Narrate(ctx context.Context, question, report string) (string, error) {
	resp, err := n.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: n.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(fmt.Sprintf("Report:\n%s\n\nQuestion: %s", report, question)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
