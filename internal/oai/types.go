package oai

import "strings"

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents an OpenAI-compatible chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat asks compatible servers for a JSON object reply.
type ResponseFormat struct {
	Type string `json:"type"`
}

// ChatCompletionsRequest is the payload for POST /v1/chat/completions.
type ChatCompletionsRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ChatCompletionsResponse represents the response for chat completions.
type ChatCompletionsResponse struct {
	ID      string                          `json:"id"`
	Object  string                          `json:"object"`
	Created int64                           `json:"created"`
	Model   string                          `json:"model"`
	Choices []ChatCompletionsResponseChoice `json:"choices"`
}

type ChatCompletionsResponseChoice struct {
	Index        int     `json:"index"`
	FinishReason string  `json:"finish_reason"`
	Message      Message `json:"message"`
}

// Content returns the first choice's message content, or "" when absent.
func (r ChatCompletionsResponse) Content() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// mentionsUnsupportedTemperature detects API error messages indicating that
// the temperature parameter is invalid or unsupported for the model.
func mentionsUnsupportedTemperature(body string) bool {
	s := strings.ToLower(body)
	if s == "" {
		return false
	}
	return (strings.Contains(s, "unsupported") && strings.Contains(s, "temperature")) ||
		(strings.Contains(s, "invalid") && strings.Contains(s, "temperature"))
}
