package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/cardczar/internal/catalog"
	"github.com/lox/cardczar/internal/decision"
	"github.com/lox/cardczar/internal/game"
	"github.com/lox/cardczar/internal/persona"
	"github.com/lox/cardczar/internal/randutil"
)

// scriptedDecider returns fixed indexes or errors.
type scriptedDecider struct {
	answerIndex int
	winnerIndex int
	answerErr   error
	winnerErr   error

	answerCalls int
	winnerCalls int
}

func (d *scriptedDecider) PickAnswer(_ context.Context, _ persona.Persona, hand []catalog.AnswerCard, _ catalog.PromptCard) (int, error) {
	d.answerCalls++
	return d.answerIndex, d.answerErr
}

func (d *scriptedDecider) PickWinner(_ context.Context, _ persona.Persona, _ catalog.PromptCard, subs [][]catalog.AnswerCard) (int, error) {
	d.winnerCalls++
	return d.winnerIndex, d.winnerErr
}

// blockingDecider never answers until released.
type blockingDecider struct {
	release chan struct{}
}

func (d *blockingDecider) PickAnswer(ctx context.Context, _ persona.Persona, _ []catalog.AnswerCard, _ catalog.PromptCard) (int, error) {
	select {
	case <-d.release:
		return 0, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (d *blockingDecider) PickWinner(ctx context.Context, _ persona.Persona, _ catalog.PromptCard, _ [][]catalog.AnswerCard) (int, error) {
	select {
	case <-d.release:
		return 0, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func newScenario(t *testing.T, humanSeats int, totalSeats int, scoreToWin int) *game.Session {
	t.Helper()
	cat, err := catalog.Load()
	require.NoError(t, err)

	settings := game.DefaultSettings()
	settings.ScoreToWin = scoreToWin
	s := game.NewSession("orch-test", cat, settings, randutil.New(1))
	for i := 0; i < totalSeats; i++ {
		prof := persona.All()[i]
		p := &game.Participant{
			ID:        fmt.Sprintf("p%d", i),
			Name:      fmt.Sprintf("Seat %d", i),
			Automated: i >= humanSeats,
		}
		if p.Automated {
			p.Profile = &prof
		}
		require.NoError(t, s.AddParticipant(p))
	}
	return s
}

func newTestOrchestrator(d decision.Decider) *Orchestrator {
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	return New(d, nil, time.Second, logger)
}

func countEmits(n *int) EmitFunc {
	return func(*game.Session) { *n++ }
}

func TestAdvanceStopsAtHumanJudge(t *testing.T) {
	s := newScenario(t, 1, 3, 2)
	require.NoError(t, s.StartRound())
	require.Equal(t, 0, s.JudgeIndex, "human seat p0 judges first")

	d := &scriptedDecider{answerIndex: 2}
	var emits int
	newTestOrchestrator(d).Advance(context.Background(), s, countEmits(&emits))

	assert.Equal(t, game.Judging, s.Phase)
	assert.Len(t, s.Table, 2)
	assert.Equal(t, 2, d.answerCalls)
	assert.Zero(t, d.winnerCalls, "human judge must not be decided for")
	assert.Equal(t, 2, emits)
	for _, p := range s.Participants[1:] {
		assert.Len(t, p.Hand, game.HandSize-s.RequiredAnswers())
	}
}

func TestAdvanceStopsWhenHumanMustSubmit(t *testing.T) {
	s := newScenario(t, 1, 3, 5)
	require.NoError(t, s.StartRound())

	d := &scriptedDecider{}
	orch := newTestOrchestrator(d)
	orch.Advance(context.Background(), s, func(*game.Session) {})

	// Human p0 judges round 1; resolve it to move the judge seat to a bot.
	require.Equal(t, game.Judging, s.Phase)
	require.NoError(t, s.SelectWinner(0))
	require.NoError(t, s.StartRound())
	require.Equal(t, 1, s.JudgeIndex, "bot p1 judges round 2")

	orch.Advance(context.Background(), s, func(*game.Session) {})

	// Only bot p2 could submit; the round waits on the human.
	assert.Equal(t, game.Collecting, s.Phase)
	assert.Len(t, s.Table, 1)
	assert.Equal(t, "p2", s.Table[0].ParticipantID)

	// The human submits, completing the table; the bot judge then resolves
	// and the cascade rolls into the next round.
	human := s.ParticipantByID("p0")
	ids := make([]string, 0, s.RequiredAnswers())
	for _, c := range human.Hand[:s.RequiredAnswers()] {
		ids = append(ids, c.ID)
	}
	require.NoError(t, s.SubmitAnswer("p0", ids))
	require.Equal(t, game.Judging, s.Phase)

	orch.Advance(context.Background(), s, func(*game.Session) {})
	assert.GreaterOrEqual(t, d.winnerCalls, 1)
	assert.NotEqual(t, game.Judging, s.Phase)
}

func TestFullyAutomatedGameWithFailingDecider(t *testing.T) {
	s := newScenario(t, 0, 3, 2)
	require.NoError(t, s.StartRound())

	d := &scriptedDecider{
		answerErr: errors.New("service unavailable"),
		winnerErr: errors.New("service unavailable"),
	}
	var emits int
	newTestOrchestrator(d).Advance(context.Background(), s, countEmits(&emits))

	assert.Equal(t, game.Concluded, s.Phase)
	require.NotEmpty(t, s.WinnerID, "score win must record a winner")
	assert.Equal(t, s.Settings.ScoreToWin, s.Winner().Score)
	assert.Greater(t, emits, 0)
}

func TestDeckExhaustionConcludesWithoutWinner(t *testing.T) {
	s := newScenario(t, 0, 3, 100)
	s.PromptDeck = s.PromptDeck[:2]
	require.NoError(t, s.StartRound())

	d := &scriptedDecider{answerErr: errors.New("down"), winnerErr: errors.New("down")}
	newTestOrchestrator(d).Advance(context.Background(), s, func(*game.Session) {})

	assert.Equal(t, game.Concluded, s.Phase)
	assert.Empty(t, s.WinnerID, "deck exhaustion concludes without a winner")
}

func TestUnplayableSeatConcludesSession(t *testing.T) {
	s := newScenario(t, 0, 3, 100)
	require.NoError(t, s.StartRound())

	// Extreme answer-deck exhaustion: a non-judge seat holds fewer cards
	// than the prompt requires, so the table can never fill.
	s.ParticipantByID("p2").Hand = nil

	d := &scriptedDecider{}
	var emits int
	newTestOrchestrator(d).Advance(context.Background(), s, countEmits(&emits))

	assert.Equal(t, game.Concluded, s.Phase, "session must not park in collecting")
	assert.Empty(t, s.WinnerID)
	assert.Greater(t, emits, 0)
}

func TestAutomatedJudgeUsesDecision(t *testing.T) {
	s := newScenario(t, 0, 3, 100)
	require.NoError(t, s.StartRound())

	d := &scriptedDecider{winnerIndex: 1}
	// Capture who held table slot 1 before the judge resolves it.
	var slot1 string
	newTestOrchestrator(d).Advance(context.Background(), s, func(sess *game.Session) {
		if sess.Phase == game.Judging && slot1 == "" {
			slot1 = sess.Table[1].ParticipantID
		}
	})

	require.NotEmpty(t, slot1)
	assert.GreaterOrEqual(t, s.ParticipantByID(slot1).Score, 1,
		"judge decision index must award the chosen submission")
}

func TestOutOfRangeDecisionFallsBack(t *testing.T) {
	s := newScenario(t, 1, 3, 2)
	require.NoError(t, s.StartRound())

	// Index 9 is valid for a 10-card hand only when the prompt needs one
	// card; with multi-pick prompts the contiguous slice overruns and the
	// orchestrator must fall back to the leading cards.
	d := &scriptedDecider{answerIndex: 9}
	newTestOrchestrator(d).Advance(context.Background(), s, func(*game.Session) {})

	assert.Equal(t, game.Judging, s.Phase)
	assert.Len(t, s.Table, 2)
}

func TestDecisionTimeout(t *testing.T) {
	s := newScenario(t, 1, 3, 2)
	require.NoError(t, s.StartRound())

	mock := quartz.NewMock(t)
	trap := mock.Trap().AfterFunc()
	defer trap.Close()

	d := &blockingDecider{release: make(chan struct{})}
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	orch := New(d, mock, 2*time.Second, logger)

	done := make(chan struct{})
	go func() {
		orch.Advance(context.Background(), s, func(*game.Session) {})
		close(done)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// Two pending bots, one timeout timer each.
	for i := 0; i < 2; i++ {
		call := trap.MustWait(ctx)
		call.MustRelease(ctx)
		mock.Advance(2 * time.Second).MustWait(ctx)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("advance did not finish after decision timeouts")
	}

	assert.Equal(t, game.Judging, s.Phase, "timeouts must degrade to fallback submissions")
	assert.Len(t, s.Table, 2)
}
