package brain

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/openai/openai-go/v3"
)

// OpenAIClient answers free-form questions through the chat completions API.
type OpenAIClient struct {
	client openai.Client
	model  openai.ChatModel
}

func NewOpenAIClient(client openai.Client, model string) *OpenAIClient {
	m := openai.ChatModel(model)
	if model == "" {
		m = openai.ChatModelGPT5Nano
	}
	return &OpenAIClient{client: client, model: m}
}

// Complete sends the ordered message sequence and returns the assistant's
// reply text.
func (c *OpenAIClient) Complete(ctx context.Context, messages []Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)),
	}
	for _, m := range messages {
		switch m.Role {
		case "system":
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		case "assistant":
			params.Messages = append(params.Messages, openai.AssistantMessage(m.Content))
		case "user":
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		default:
			return "", fmt.Errorf("unsupported message role %q", m.Role)
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", errors.New("empty message content")
	}
	return content, nil
}
