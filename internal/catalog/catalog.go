// Package catalog holds the immutable, process-wide set of prompt and answer
// cards. Decks are embedded in the binary and parsed once; card IDs are
// derived from the card text so they stay stable across restarts, which the
// persistence mirror relies on to reload sessions.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sync"
)

//go:embed decks.json
var deckData []byte

// AnswerCard is a card held in a participant's hand.
type AnswerCard struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Pack int    `json:"pack"`
}

// PromptCard is the fill-in-the-blank card for a round. Pick is the number of
// answer cards required to complete it (1 unless the deck says otherwise).
type PromptCard struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Pick int    `json:"pick"`
	Pack int    `json:"pack"`
}

type rawDeck struct {
	Name    string `json:"name"`
	Pack    int    `json:"pack"`
	Answers []struct {
		Text string `json:"text"`
	} `json:"answers"`
	Prompts []struct {
		Text string `json:"text"`
		Pick int    `json:"pick,omitempty"`
	} `json:"prompts"`
}

// Catalog is the parsed card set. Safe for concurrent use; all accessors
// return copies so callers can shuffle and draw without synchronization.
type Catalog struct {
	answers    []AnswerCard
	prompts    []PromptCard
	answerByID map[string]AnswerCard
	promptByID map[string]PromptCard
}

var (
	loadOnce sync.Once
	loaded   *Catalog
	loadErr  error
)

// Load parses the embedded decks. The result is cached after the first call.
func Load() (*Catalog, error) {
	loadOnce.Do(func() {
		loaded, loadErr = parse(deckData)
	})
	return loaded, loadErr
}

func parse(data []byte) (*Catalog, error) {
	var decks []rawDeck
	if err := json.Unmarshal(data, &decks); err != nil {
		return nil, fmt.Errorf("parse decks: %w", err)
	}
	if len(decks) == 0 {
		return nil, fmt.Errorf("no decks embedded")
	}

	c := &Catalog{
		answerByID: make(map[string]AnswerCard),
		promptByID: make(map[string]PromptCard),
	}

	for _, deck := range decks {
		for i, a := range deck.Answers {
			card := AnswerCard{
				ID:   fmt.Sprintf("a%d-%d-%08x", deck.Pack, i, hashText(a.Text)),
				Text: a.Text,
				Pack: deck.Pack,
			}
			if _, dup := c.answerByID[card.ID]; dup {
				return nil, fmt.Errorf("duplicate answer card id %s", card.ID)
			}
			c.answers = append(c.answers, card)
			c.answerByID[card.ID] = card
		}
		for i, p := range deck.Prompts {
			pick := p.Pick
			if pick == 0 {
				pick = 1
			}
			card := PromptCard{
				ID:   fmt.Sprintf("p%d-%d-%08x", deck.Pack, i, hashText(p.Text)),
				Text: p.Text,
				Pick: pick,
				Pack: deck.Pack,
			}
			if _, dup := c.promptByID[card.ID]; dup {
				return nil, fmt.Errorf("duplicate prompt card id %s", card.ID)
			}
			c.prompts = append(c.prompts, card)
			c.promptByID[card.ID] = card
		}
	}

	return c, nil
}

// AnswerCards returns a copy of every answer card.
func (c *Catalog) AnswerCards() []AnswerCard {
	out := make([]AnswerCard, len(c.answers))
	copy(out, c.answers)
	return out
}

// PromptCards returns a copy of every prompt card.
func (c *Catalog) PromptCards() []PromptCard {
	out := make([]PromptCard, len(c.prompts))
	copy(out, c.prompts)
	return out
}

// AnswerByID looks up an answer card by its stable id.
func (c *Catalog) AnswerByID(id string) (AnswerCard, bool) {
	card, ok := c.answerByID[id]
	return card, ok
}

// PromptByID looks up a prompt card by its stable id.
func (c *Catalog) PromptByID(id string) (PromptCard, bool) {
	card, ok := c.promptByID[id]
	return card, ok
}

func hashText(text string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	return h.Sum32()
}
