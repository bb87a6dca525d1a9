package server

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/cardczar/internal/catalog"
	"github.com/lox/cardczar/internal/game"
	"github.com/lox/cardczar/internal/orchestrator"
	"github.com/lox/cardczar/internal/persona"
	"github.com/lox/cardczar/internal/randutil"
	"github.com/lox/cardczar/internal/registry"
	"github.com/lox/cardczar/internal/sessionid"
	"github.com/lox/cardczar/internal/store"
)

// Broadcaster delivers server messages to connected clients. The websocket
// server implements it; tests substitute a recorder.
type Broadcaster interface {
	BroadcastToSession(sessionID string, msg *Message)
	SendToParticipant(sessionID, participantID string, msg *Message) error
}

// Service implements the session operations behind the websocket protocol.
// Every mutation runs through the registry, which serializes it against the
// session, and every accepted mutation is broadcast to observers and
// mirrored to storage.
type Service struct {
	logger      *log.Logger
	cat         *catalog.Catalog
	reg         *registry.Registry
	orch        *orchestrator.Orchestrator
	broadcaster Broadcaster
	writer      *store.Writer
	st          *store.Store
	defaults    game.Settings

	mu       sync.Mutex
	emitters map[string]*emitter
}

// NewService creates the game service.
func NewService(cat *catalog.Catalog, reg *registry.Registry, orch *orchestrator.Orchestrator, defaults game.Settings, logger *log.Logger) *Service {
	return &Service{
		logger:   logger.WithPrefix("service"),
		cat:      cat,
		reg:      reg,
		orch:     orch,
		defaults: defaults,
		emitters: make(map[string]*emitter),
	}
}

// SetBroadcaster wires the transport. Must be called before any session op.
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetStorage wires the persistence mirror. Optional; without it sessions
// are purely in-memory.
func (s *Service) SetStorage(st *store.Store, writer *store.Writer) {
	s.st = st
	s.writer = writer
}

// CreateSession builds a new session with the creator seated as a human and
// one automated seat per requested persona.
func (s *Service) CreateSession(ctx context.Context, req CreateSessionData) (*SessionCreatedData, error) {
	name := strings.TrimSpace(req.PlayerName)
	if name == "" {
		return nil, fmt.Errorf("player name is required")
	}

	profiles := make([]persona.Persona, 0, len(req.PersonaIDs))
	seen := make(map[string]bool, len(req.PersonaIDs))
	for _, id := range req.PersonaIDs {
		p, ok := persona.ByID(id)
		if !ok {
			return nil, fmt.Errorf("unknown persona: %s", id)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate persona: %s", id)
		}
		seen[id] = true
		profiles = append(profiles, p)
	}

	settings := s.defaults
	if req.ScoreToWin > 0 {
		settings.ScoreToWin = req.ScoreToWin
	}

	sess := game.NewSession(sessionid.Generate(), s.cat, settings, randutil.New(time.Now().UnixNano()))

	participantID := sessionid.Generate()
	if err := sess.AddParticipant(&game.Participant{ID: participantID, Name: name}); err != nil {
		return nil, err
	}
	for i := range profiles {
		p := profiles[i]
		bot := &game.Participant{ID: p.ID, Name: p.Name, Automated: true, Profile: &p}
		if err := sess.AddParticipant(bot); err != nil {
			return nil, err
		}
	}

	s.reg.Put(sess)
	s.emitterFor(sess)
	s.persist(sess)
	s.logger.Info("Session created", "session", sess.ID, "creator", name, "bots", len(profiles))

	return &SessionCreatedData{
		SessionID:     sess.ID,
		ParticipantID: participantID,
		State:         sess.View(),
	}, nil
}

// JoinSession seats another human in an existing lobby.
func (s *Service) JoinSession(ctx context.Context, req JoinSessionData) (*SessionJoinedData, error) {
	name := strings.TrimSpace(req.PlayerName)
	if name == "" {
		return nil, fmt.Errorf("player name is required")
	}
	if err := sessionid.Validate(req.SessionID); err != nil {
		return nil, fmt.Errorf("invalid session id: %w", err)
	}

	participantID := sessionid.Generate()
	var state game.View
	err := s.reg.Do(ctx, req.SessionID, func(sess *game.Session) error {
		if err := sess.AddParticipant(&game.Participant{ID: participantID, Name: name}); err != nil {
			return err
		}
		s.emit(sess)
		state = sess.View()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Participant joined", "session", req.SessionID, "name", name)
	return &SessionJoinedData{
		SessionID:     req.SessionID,
		ParticipantID: participantID,
		State:         state,
	}, nil
}

// StartGame starts the first round and lets the bot cascade run until a
// human must act or the session concludes.
func (s *Service) StartGame(ctx context.Context, sessionID string) error {
	return s.reg.Do(ctx, sessionID, func(sess *game.Session) error {
		if err := sess.StartRound(); err != nil {
			return err
		}
		s.emit(sess)
		s.orch.Advance(ctx, sess, s.emit)
		return nil
	})
}

// SubmitAnswer plays a human participant's cards, then advances any
// automated seats unblocked by the submission.
func (s *Service) SubmitAnswer(ctx context.Context, sessionID, participantID string, cardIDs []string) error {
	if participantID == "" {
		return fmt.Errorf("not seated in a session")
	}
	return s.reg.Do(ctx, sessionID, func(sess *game.Session) error {
		if err := sess.SubmitAnswer(participantID, cardIDs); err != nil {
			return err
		}
		s.emit(sess)
		s.orch.Advance(ctx, sess, s.emit)
		return nil
	})
}

// SelectWinner resolves the round with the human judge's pick and cascades
// into the next round.
func (s *Service) SelectWinner(ctx context.Context, sessionID, participantID string, tableIndex int) error {
	if participantID == "" {
		return fmt.Errorf("not seated in a session")
	}
	return s.reg.Do(ctx, sessionID, func(sess *game.Session) error {
		judge := sess.Judge()
		if judge == nil || judge.ID != participantID {
			return fmt.Errorf("only the judge may select a winner")
		}
		if err := sess.SelectWinner(tableIndex); err != nil {
			return err
		}
		s.emit(sess)
		s.orch.Advance(ctx, sess, s.emit)
		return nil
	})
}

// Hand returns a participant's private hand view.
func (s *Service) Hand(ctx context.Context, sessionID, participantID string) (*game.HandView, error) {
	if participantID == "" {
		return nil, fmt.Errorf("not seated in a session")
	}
	var hand *game.HandView
	err := s.reg.Do(ctx, sessionID, func(sess *game.Session) error {
		hand = sess.HandFor(participantID)
		if hand == nil {
			return fmt.Errorf("participant not in session: %s", participantID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hand, nil
}

// Personas lists the automated seat profiles available at creation.
func (s *Service) Personas() []persona.Persona {
	return persona.All()
}

// Resume restores a persisted session into the registry. Used at startup to
// pick up sessions that were live when the server last stopped.
func (s *Service) Resume(ctx context.Context, sessionID string) error {
	if s.st == nil {
		return fmt.Errorf("no storage configured")
	}
	snap, err := s.st.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	sess, err := game.Restore(snap, s.cat, randutil.New(time.Now().UnixNano()))
	if err != nil {
		return fmt.Errorf("restore session %s: %w", sessionID, err)
	}
	s.reg.Put(sess)
	s.emitterFor(sess)
	s.logger.Info("Session resumed", "session", sessionID, "phase", sess.Phase, "round", sess.Round)
	return nil
}

// emit publishes the session after an accepted mutation: a typed event for
// what just changed, the full public state, and a snapshot to the
// persistence mirror. Always called while holding the session's registry
// slot, so per-session emitter state needs no further locking.
func (s *Service) emit(sess *game.Session) {
	em := s.emitterFor(sess)
	view := sess.View()

	if sess.Round > em.round {
		s.broadcast(sess.ID, MessageTypeRoundStarted, RoundStartedData{
			Round:   sess.Round,
			JudgeID: view.JudgeID,
			State:   view,
		})
		s.sendHands(sess)
	}

	if sess.Phase == game.Collecting && len(sess.Table) > em.tableLen && len(sess.Table) > 0 {
		submitter := sess.Table[len(sess.Table)-1].ParticipantID
		s.broadcast(sess.ID, MessageTypeAnswerSubmitted, AnswerSubmittedData{
			ParticipantID: submitter,
			Submitted:     len(sess.Table),
			Expected:      len(sess.Participants) - 1,
		})
	}

	if sess.Phase == game.Judging && em.phase != game.Judging {
		s.broadcast(sess.ID, MessageTypeJudgingStarted, JudgingStartedData{
			JudgeID: view.JudgeID,
			State:   view,
		})
	}

	if sess.Phase == game.RoundResolved || sess.Phase == game.Concluded {
		for _, p := range sess.Participants {
			if p.Score > em.scores[p.ID] {
				s.broadcast(sess.ID, MessageTypeWinnerSelected, WinnerSelectedData{
					ParticipantID: p.ID,
					Score:         p.Score,
					State:         view,
				})
			}
		}
	}

	if sess.Phase == game.Concluded && em.phase != game.Concluded {
		s.broadcast(sess.ID, MessageTypeSessionConcluded, SessionConcludedData{
			WinnerID: sess.WinnerID,
			State:    view,
		})
	}

	s.broadcast(sess.ID, MessageTypeSessionState, SessionStateData{State: view})
	s.persist(sess)
	em.observe(sess)
}

// sendHands delivers each human participant's private hand. Disconnected
// participants fetch it with get_hand when they return.
func (s *Service) sendHands(sess *game.Session) {
	if s.broadcaster == nil {
		return
	}
	for _, p := range sess.Participants {
		if p.Automated {
			continue
		}
		hv := sess.HandFor(p.ID)
		if hv == nil {
			continue
		}
		msg, err := NewMessage(MessageTypeYourHand, hv)
		if err != nil {
			s.logger.Error("Failed to build hand message", "session", sess.ID, "err", err)
			continue
		}
		_ = s.broadcaster.SendToParticipant(sess.ID, p.ID, msg)
	}
}

func (s *Service) broadcast(sessionID string, t MessageType, data interface{}) {
	if s.broadcaster == nil {
		return
	}
	msg, err := NewMessage(t, data)
	if err != nil {
		s.logger.Error("Failed to build message", "session", sessionID, "type", t, "err", err)
		return
	}
	s.broadcaster.BroadcastToSession(sessionID, msg)
}

func (s *Service) persist(sess *game.Session) {
	if s.writer == nil {
		return
	}
	s.writer.Enqueue(sess.Snapshot())
}

// emitter tracks what observers have already been told about a session so
// each emit can name only what changed.
type emitter struct {
	round    int
	phase    game.Phase
	tableLen int
	scores   map[string]int
}

func (e *emitter) observe(sess *game.Session) {
	e.round = sess.Round
	e.phase = sess.Phase
	e.tableLen = len(sess.Table)
	for _, p := range sess.Participants {
		e.scores[p.ID] = p.Score
	}
}

// emitterFor returns the session's emitter. Called at registration time,
// before any mutation, so the baseline is the lobby (or restored) state and
// the first round's events are not swallowed; resumed sessions likewise do
// not replay events observers already saw.
func (s *Service) emitterFor(sess *game.Session) *emitter {
	s.mu.Lock()
	defer s.mu.Unlock()
	em, ok := s.emitters[sess.ID]
	if !ok {
		em = &emitter{scores: make(map[string]int)}
		em.observe(sess)
		s.emitters[sess.ID] = em
	}
	return em
}
