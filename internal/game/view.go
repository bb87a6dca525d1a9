package game

import "github.com/lox/cardczar/internal/catalog"

// ParticipantView is the public projection of one seat. Hand contents are
// never included, only the count.
type ParticipantView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Automated bool   `json:"automated"`
	Score     int    `json:"score"`
	HandSize  int    `json:"hand_size"`
	IsJudge   bool   `json:"is_judge"`
}

// SubmissionView is one table entry as observers see it. ParticipantID is
// populated only once the phase has left Judging, so authorship stays
// anonymous while the judge decides.
type SubmissionView struct {
	ParticipantID string               `json:"participant_id,omitempty"`
	Cards         []catalog.AnswerCard `json:"cards"`
}

// View is the broadcast projection of a session. It carries everything an
// observer may see and nothing a participant could cheat with.
type View struct {
	ID              string              `json:"id"`
	Phase           string              `json:"phase"`
	Round           int                 `json:"round"`
	JudgeID         string              `json:"judge_id,omitempty"`
	Participants    []ParticipantView   `json:"participants"`
	CurrentPrompt   *catalog.PromptCard `json:"current_prompt,omitempty"`
	RequiredAnswers int                 `json:"required_answers"`
	Table           []SubmissionView    `json:"table"`
	ScoreToWin      int                 `json:"score_to_win"`
	WinnerID        string              `json:"winner_id,omitempty"`
}

// HandView is the private projection sent only to the owning participant.
type HandView struct {
	ParticipantID   string               `json:"participant_id"`
	Cards           []catalog.AnswerCard `json:"cards"`
	RequiredAnswers int                  `json:"required_answers"`
	IsJudge         bool                 `json:"is_judge"`
}

// View builds the public projection of the session.
func (s *Session) View() View {
	v := View{
		ID:              s.ID,
		Phase:           s.Phase.String(),
		Round:           s.Round,
		RequiredAnswers: s.RequiredAnswers(),
		ScoreToWin:      s.Settings.ScoreToWin,
		WinnerID:        s.WinnerID,
		CurrentPrompt:   s.CurrentPrompt,
	}
	if j := s.Judge(); j != nil {
		v.JudgeID = j.ID
	}
	for i, p := range s.Participants {
		v.Participants = append(v.Participants, ParticipantView{
			ID:        p.ID,
			Name:      p.Name,
			Automated: p.Automated,
			Score:     p.Score,
			HandSize:  len(p.Hand),
			IsJudge:   i == s.JudgeIndex,
		})
	}
	revealAuthors := s.Phase == RoundResolved || s.Phase == Concluded
	for _, sub := range s.Table {
		sv := SubmissionView{Cards: append([]catalog.AnswerCard(nil), sub.Cards...)}
		if revealAuthors {
			sv.ParticipantID = sub.ParticipantID
		}
		v.Table = append(v.Table, sv)
	}
	return v
}

// HandFor builds the private hand view for one participant, or nil when the
// participant is not seated.
func (s *Session) HandFor(participantID string) *HandView {
	p := s.ParticipantByID(participantID)
	if p == nil {
		return nil
	}
	isJudge := s.Judge() != nil && s.Judge().ID == participantID
	return &HandView{
		ParticipantID:   p.ID,
		Cards:           append([]catalog.AnswerCard(nil), p.Hand...),
		RequiredAnswers: s.RequiredAnswers(),
		IsJudge:         isJudge,
	}
}
