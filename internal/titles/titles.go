// Package titles generates YouTube title suggestions through a chat
// completion backend.
package titles

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrMisconfigured indicates no completion credential is configured
	ErrMisconfigured = errors.New("missing completion api key")

	// ErrInvalidBody indicates the request body is not a JSON object
	ErrInvalidBody = errors.New("request body is not valid JSON")

	// ErrMissingDescription indicates description is absent, empty or not a string
	ErrMissingDescription = errors.New("description is required")

	// ErrInvalidCreativity indicates creativity is absent, not a number or out of range
	ErrInvalidCreativity = errors.New("creativity must be a number between 0 and 100")

	// ErrTimeout indicates the completion did not settle before the deadline
	ErrTimeout = errors.New("request timed out")

	// ErrEmptyResponse indicates the completion returned no text
	ErrEmptyResponse = errors.New("ai returned empty response")

	// ErrUnparsable indicates the completion text is not a title list
	ErrUnparsable = errors.New("failed to parse ai response as json")
)

const (
	systemMessage = "You are a YouTube title generation expert. Respond with a JSON array containing exactly 3 objects with 'title' and 'type' properties."

	promptTemplate = `Generate 3 Minecraft YouTube titles for: "%s". Examples: "I Survived 100 Days in HARDCORE", "The ULTIMATE Secret Base", "The Rarest Item Ever!". Creativity: %s/100. Format: JSON array [{title, type}]. Types: creative|descriptive|emotional|trending. Around 60-70 chars including spaces`

	minTemperature = 0.1
	maxTemperature = 1.0
)

var fencePattern = regexp.MustCompile("```json\\s*|\\s*```")

// Request is the body of a title generation call
type Request struct {
	Description string
	Creativity  float64
}

// Suggestion is one generated title
type Suggestion struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

// ParseRequest decodes and validates a request body. Description must be a
// non-empty string and creativity a JSON number in [0, 100].
func ParseRequest(body []byte) (Request, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}

	var description string
	if err := json.Unmarshal(raw["description"], &description); err != nil || description == "" {
		return Request{}, ErrMissingDescription
	}

	creativity, ok := decodeNumber(raw["creativity"])
	if !ok || creativity < 0 || creativity > 100 {
		return Request{}, ErrInvalidCreativity
	}

	return Request{Description: description, Creativity: creativity}, nil
}

// decodeNumber accepts only JSON numbers; strings and nulls are rejected.
func decodeNumber(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	if c := raw[0]; c != '-' && (c < '0' || c > '9') {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	return n, true
}

// Temperature maps creativity in [0, 100] onto [0.1, 1.0]
func Temperature(creativity float64) float64 {
	t := creativity / 100
	if t < minTemperature {
		return minTemperature
	}
	if t > maxTemperature {
		return maxTemperature
	}
	return t
}

// Prompt renders the user message for req
func Prompt(req Request) string {
	return fmt.Sprintf(promptTemplate, req.Description, strconv.FormatFloat(req.Creativity, 'f', -1, 64))
}

type titleItem struct {
	Title string `json:"title"`
	Type  string `json:"type"`
}

// ParseSuggestions strips markdown fences from a completion and decodes
// either a JSON array of {title, type} or an object {titles: [...]}.
// Items are numbered "1", "2", ... in order.
func ParseSuggestions(text string) ([]Suggestion, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyResponse
	}

	cleaned := strings.TrimSpace(fencePattern.ReplaceAllString(text, ""))

	var items []titleItem
	if strings.HasPrefix(cleaned, "[") {
		if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
		}
	} else {
		var wrapped struct {
			Titles []titleItem `json:"titles"`
		}
		if err := json.Unmarshal([]byte(cleaned), &wrapped); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
		}
		items = wrapped.Titles
	}

	out := make([]Suggestion, 0, len(items))
	for i, item := range items {
		out = append(out, Suggestion{
			ID:    strconv.Itoa(i + 1),
			Title: item.Title,
			Type:  item.Type,
		})
	}
	return out, nil
}
