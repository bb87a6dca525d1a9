package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/cardczar/internal/catalog"
	"github.com/lox/cardczar/internal/persona"
	"github.com/lox/cardczar/internal/randutil"
)

func TestSnapshotRoundTrip(t *testing.T) {
	cat, err := catalog.Load()
	require.NoError(t, err)

	s := newTestSession(t, 3)
	prof, ok := persona.ByID("caesar")
	require.True(t, ok)
	s.Participants[1].Profile = &prof

	require.NoError(t, s.StartRound())
	p := s.Participants[1]
	require.NoError(t, s.SubmitAnswer(p.ID, cardIDs(p.Hand[:s.RequiredAnswers()])))

	// Through JSON, the way the persistence mirror stores it.
	raw, err := json.Marshal(s.Snapshot())
	require.NoError(t, err)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))

	restored, err := Restore(snap, cat, randutil.New(2))
	require.NoError(t, err)

	assert.Equal(t, s.ID, restored.ID)
	assert.Equal(t, s.Phase, restored.Phase)
	assert.Equal(t, s.Round, restored.Round)
	assert.Equal(t, s.JudgeIndex, restored.JudgeIndex)
	assert.Equal(t, s.Settings, restored.Settings)
	assert.Equal(t, s.CurrentPrompt.ID, restored.CurrentPrompt.ID)
	assert.Equal(t, len(s.PromptDeck), len(restored.PromptDeck))
	assert.Equal(t, len(s.AnswerDeck), len(restored.AnswerDeck))

	require.Len(t, restored.Participants, 3)
	for i, orig := range s.Participants {
		got := restored.Participants[i]
		assert.Equal(t, orig.ID, got.ID)
		assert.Equal(t, orig.Score, got.Score)
		assert.Equal(t, orig.Automated, got.Automated)
		assert.Equal(t, len(orig.Hand), len(got.Hand))
	}
	require.NotNil(t, restored.Participants[1].Profile)
	assert.Equal(t, "caesar", restored.Participants[1].Profile.ID)

	require.Len(t, restored.Table, 1)
	assert.Equal(t, p.ID, restored.Table[0].ParticipantID)
}

// The same next operation on original and restored sessions must land in the
// same phase with the same table size.
func TestSnapshotRestoreContinues(t *testing.T) {
	cat, err := catalog.Load()
	require.NoError(t, err)

	s := newTestSession(t, 3)
	require.NoError(t, s.StartRound())

	restored, err := Restore(s.Snapshot(), cat, randutil.New(9))
	require.NoError(t, err)

	for _, sess := range []*Session{s, restored} {
		fillTable(t, sess)
	}

	assert.Equal(t, s.Phase, restored.Phase)
	assert.Equal(t, len(s.Table), len(restored.Table))
}

func TestRestoreUnknownCard(t *testing.T) {
	cat, err := catalog.Load()
	require.NoError(t, err)

	s := newTestSession(t, 3)
	snap := s.Snapshot()
	snap.AnswerDeck[0] = "a9-999-00000000"

	_, err = Restore(snap, cat, randutil.New(1))
	assert.Error(t, err)
}

func TestRestoreUnknownPhase(t *testing.T) {
	cat, err := catalog.Load()
	require.NoError(t, err)

	s := newTestSession(t, 3)
	snap := s.Snapshot()
	snap.Phase = "limbo"

	_, err = Restore(snap, cat, randutil.New(1))
	assert.Error(t, err)
}
