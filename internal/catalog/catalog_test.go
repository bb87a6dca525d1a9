package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(c.AnswerCards()), 100, "deck should carry enough answers for an eight-seat game")
	assert.GreaterOrEqual(t, len(c.PromptCards()), 20)
}

func TestLoadCached(t *testing.T) {
	a, err := Load()
	require.NoError(t, err)
	b, err := Load()
	require.NoError(t, err)

	assert.Same(t, a, b)
}

func TestStableIDs(t *testing.T) {
	a, err := parse(deckData)
	require.NoError(t, err)
	b, err := parse(deckData)
	require.NoError(t, err)

	assert.Equal(t, a.AnswerCards(), b.AnswerCards())
	assert.Equal(t, a.PromptCards(), b.PromptCards())
}

func TestLookupByID(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	for _, card := range c.AnswerCards() {
		got, ok := c.AnswerByID(card.ID)
		require.True(t, ok)
		assert.Equal(t, card, got)
	}
	for _, card := range c.PromptCards() {
		got, ok := c.PromptByID(card.ID)
		require.True(t, ok)
		assert.Equal(t, card, got)
	}

	_, ok := c.AnswerByID("a0-999-deadbeef")
	assert.False(t, ok)
}

func TestPickDefaults(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	var multi int
	for _, p := range c.PromptCards() {
		require.GreaterOrEqual(t, p.Pick, 1, "prompt %s", p.ID)
		if p.Pick > 1 {
			multi++
		}
	}
	assert.Greater(t, multi, 0, "deck should include multi-answer prompts")
}

func TestAccessorsReturnCopies(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	cards := c.AnswerCards()
	cards[0].Text = "mutated"

	again := c.AnswerCards()
	assert.NotEqual(t, "mutated", again[0].Text)
}

func TestParseRejectsEmpty(t *testing.T) {
	_, err := parse([]byte(`[]`))
	assert.Error(t, err)

	_, err = parse([]byte(`not json`))
	assert.Error(t, err)
}
