package oai

import (
	"math"
	"strings"
)

const (
	minTemperature = 0.1
	maxTemperature = 1.0
)

// SupportsTemperature reports whether the given model id accepts the
// temperature parameter. OpenAI "o*" reasoning models reject it.
func SupportsTemperature(modelID string) bool {
	id := strings.ToLower(strings.TrimSpace(modelID))
	if id == "" {
		return true
	}
	return !(strings.HasPrefix(id, "o1") || strings.HasPrefix(id, "o3") || strings.HasPrefix(id, "o4"))
}

// EffectiveTemperature returns the temperature to send for model, clamped to
// [0.1, 1.0], or nil when the model does not take one.
func EffectiveTemperature(model string, temperature float64) *float64 {
	if !SupportsTemperature(model) {
		return nil
	}
	v := math.Min(maxTemperature, math.Max(minTemperature, temperature))
	return &v
}

// EstimateTokens is a rough token count for messages: about four characters
// per token plus a small per-message overhead.
func EstimateTokens(messages []Message) int {
	const averageCharsPerToken = 4.0
	const perMessageOverheadTokens = 4
	total := 0
	for _, msg := range messages {
		total += int(math.Ceil(float64(len(msg.Content))/averageCharsPerToken)) + perMessageOverheadTokens
	}
	return total
}
