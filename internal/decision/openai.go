package decision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lox/cardczar/internal/catalog"
	"github.com/lox/cardczar/internal/persona"
)

const defaultChatCompletionsURL = "https://api.openai.com/v1/chat/completions"

// OpenAIConfig configures the chat-completions client.
type OpenAIConfig struct {
	BaseURL    string
	Model      string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// OpenAI asks a chat-completions endpoint to pick indexes. Persona
// instructions travel as the system message; the numbered options as the
// user message. Anything other than a clean in-range integer reply is an
// error, left to the caller's fallback.
type OpenAI struct {
	cfg OpenAIConfig
}

// NewOpenAI builds the client, filling config defaults.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultChatCompletionsURL
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &OpenAI{cfg: cfg}
}

func (o *OpenAI) PickAnswer(ctx context.Context, p persona.Persona, hand []catalog.AnswerCard, prompt catalog.PromptCard) (int, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "You are playing a fill-in-the-blank card game.\n\n")
	fmt.Fprintf(&b, "The PROMPT CARD is: %q\n", prompt.Text)
	plural := ""
	if prompt.Pick > 1 {
		plural = "s"
	}
	fmt.Fprintf(&b, "(This card requires %d answer card%s to complete)\n\n", prompt.Pick, plural)
	b.WriteString("Your HAND:\n")
	for i, card := range hand {
		fmt.Fprintf(&b, "%d: %q\n", i, card.Text)
	}
	fmt.Fprintf(&b, "\nPick the card that would be the FUNNIEST answer based on your personality.\n")
	fmt.Fprintf(&b, "Respond with ONLY the index number (0-%d). No explanation.", len(hand)-1)

	return o.pickIndex(ctx, p.Instruction, b.String(), len(hand))
}

func (o *OpenAI) PickWinner(ctx context.Context, p persona.Persona, prompt catalog.PromptCard, submissions [][]catalog.AnswerCard) (int, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "You are the judge in a fill-in-the-blank card game.\n\n")
	fmt.Fprintf(&b, "The PROMPT CARD is: %q\n\n", prompt.Text)
	b.WriteString("The SUBMISSIONS are:\n")
	for i, cards := range submissions {
		texts := make([]string, len(cards))
		for j, c := range cards {
			texts[j] = c.Text
		}
		fmt.Fprintf(&b, "%d: %s\n", i, strings.Join(texts, " + "))
	}
	fmt.Fprintf(&b, "\nPick the FUNNIEST submission based on your personality and sense of humor.\n")
	fmt.Fprintf(&b, "Respond with ONLY the index number (0-%d). No explanation.", len(submissions)-1)

	return o.pickIndex(ctx, p.Instruction, b.String(), len(submissions))
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (o *OpenAI) pickIndex(ctx context.Context, instruction, userPrompt string, optionCount int) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{
		Model: o.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: instruction},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.9,
		MaxTokens:   10,
	})
	if err != nil {
		return 0, fmt.Errorf("marshal decision request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build decision request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.cfg.APIKey != "" {
		// Credential material travels only in the Authorization header and is
		// never echoed in errors.
		req.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)
	}

	res, err := o.cfg.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("decision request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return 0, fmt.Errorf("decision request status %d: %s", res.StatusCode, strings.TrimSpace(string(errBody)))
	}

	var payload chatResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode decision response: %w", err)
	}
	if len(payload.Choices) == 0 {
		return 0, fmt.Errorf("decision response has no choices")
	}

	answer := strings.TrimSpace(payload.Choices[0].Message.Content)
	index, err := strconv.Atoi(answer)
	if err != nil {
		return 0, fmt.Errorf("decision response %q is not an index: %w", answer, err)
	}
	if index < 0 || index >= optionCount {
		return 0, fmt.Errorf("decision index %d out of range (%d options)", index, optionCount)
	}
	return index, nil
}
