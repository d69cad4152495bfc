package match

import (
	"errors"
	"time"

	"github.com/gokatarajesh/quiz-battle/internal/match/scoring"
)

// Phase of the match state machine.
type Phase string

const (
	PhaseCountdown Phase = "countdown"
	PhaseQuestion  Phase = "question"
	PhaseAnswer    Phase = "answer"
	PhaseComplete  Phase = "complete"
	PhaseCancelled Phase = "cancelled"
)

// Terminal reports whether no further transitions can happen.
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseCancelled
}

// PowerUp identifies a one-shot modifier.
type PowerUp string

const (
	PowerUpFiftyFifty PowerUp = "fifty-fifty"
	PowerUpExtraTime  PowerUp = "extra-time"
	PowerUpPeek       PowerUp = "peek"
)

// AllPowerUps in display order.
var AllPowerUps = []PowerUp{PowerUpFiftyFifty, PowerUpExtraTime, PowerUpPeek}

// Valid reports whether p is a known power-up.
func (p PowerUp) Valid() bool {
	switch p {
	case PowerUpFiftyFifty, PowerUpExtraTime, PowerUpPeek:
		return true
	}
	return false
}

// Outcome labels.
const (
	OutcomeWin       = "win"
	OutcomeLoss      = "loss"
	OutcomeDraw      = "draw"
	OutcomeCancelled = "cancelled"
)

var (
	ErrMatchNotFound  = errors.New("match not found")
	ErrInvalidOption  = errors.New("option index out of range")
	ErrUnknownPowerUp = errors.New("unknown power-up")
	ErrNoAnswers      = errors.New("no answers recorded")
	ErrInvalidConfig  = errors.New("invalid match config")
	ErrNotOwner       = errors.New("match belongs to another player")
)

// MatchConfig is chosen by the player before matchmaking.
type MatchConfig struct {
	Category      string  `json:"category" validate:"required"`
	Difficulty    string  `json:"difficulty" validate:"required,oneof=easy medium hard"`
	QuestionCount int     `json:"question_count" validate:"required,oneof=3 5 7"`
	Wager         bool    `json:"wager"`
	StakeAmount   float64 `json:"stake_amount,omitempty" validate:"required_if=Wager true,gte=0"`
}

// Opponent is cosmetic except for IsBot, which selects the accuracy table.
type Opponent struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsBot       bool   `json:"is_bot"`
	Rating      int    `json:"rating"`
	WinStreak   int    `json:"win_streak"`
	Address     string `json:"address,omitempty"`
}

// AnswerRecord is appended once per question per side and never mutated.
type AnswerRecord struct {
	QuestionID          string  `json:"question_id"`
	OptionIndex         int     `json:"option_index"` // -1 when nothing was selected
	Correct             bool    `json:"correct"`
	ResponseTimeSeconds float64 `json:"response_time_seconds"`
	TimedOut            bool    `json:"timed_out"`
	Points              int     `json:"points"`
}

func (a AnswerRecord) scoringAnswer() scoring.Answer {
	return scoring.Answer{Correct: a.Correct, ResponseSeconds: a.ResponseTimeSeconds}
}

// Submission is the outcome of a player's answer selection.
type Submission struct {
	QuestionIndex int
	Accepted      bool
}

// QuestionView is a question as the player sees it: no answer key.
type QuestionView struct {
	ID             string   `json:"id"`
	Index          int      `json:"index"`
	Text           string   `json:"text"`
	Options        []string `json:"options"`
	RemovedOptions []int    `json:"removed_options,omitempty"`
	Category       string   `json:"category"`
	Difficulty     string   `json:"difficulty"`
}

// State is a point-in-time snapshot of a live match.
type State struct {
	MatchID              string         `json:"match_id"`
	PlayerID             string         `json:"player_id"`
	Phase                Phase          `json:"phase"`
	Config               MatchConfig    `json:"config"`
	Opponent             Opponent       `json:"opponent"`
	CurrentQuestionIndex int            `json:"current_question_index"`
	TotalQuestions       int            `json:"total_questions"`
	CountdownRemaining   int            `json:"countdown_remaining"`
	TimeLeftSeconds      int            `json:"time_left_seconds"`
	PlayerScore          int            `json:"player_score"`
	OpponentScore        int            `json:"opponent_score"`
	PlayerStreak         int            `json:"player_streak"`
	OpponentStreak       int            `json:"opponent_streak"`
	PlayerAnswers        []AnswerRecord `json:"player_answers"`
	OpponentAnswers      []AnswerRecord `json:"opponent_answers"`
	SelectedAnswerIndex  *int           `json:"selected_answer_index,omitempty"`
	PowerUpsRemaining    []PowerUp      `json:"power_ups_remaining"`
	OpponentAnswered     bool           `json:"opponent_answered"`
	PeekedOption         *int           `json:"peeked_option,omitempty"`
	Question             *QuestionView  `json:"question,omitempty"`
}

// Results summarise a completed match.
type Results struct {
	MatchID             string         `json:"match_id"`
	PlayerID            string         `json:"player_id"`
	Category            string         `json:"category"`
	Difficulty          string         `json:"difficulty"`
	Opponent            Opponent       `json:"opponent"`
	PlayerScore         int            `json:"player_score"`
	OpponentScore       int            `json:"opponent_score"`
	TotalQuestions      int            `json:"total_questions"`
	PlayerAnswers       []AnswerRecord `json:"player_answers"`
	OpponentAnswers     []AnswerRecord `json:"opponent_answers"`
	IsWinner            bool           `json:"is_winner"`
	IsDraw              bool           `json:"is_draw"`
	Outcome             string         `json:"outcome"`
	AverageResponseTime float64        `json:"average_response_time"`
	FastestAnswer       float64        `json:"fastest_answer"`
	PlayerMaxStreak     int            `json:"player_max_streak"`
	OpponentMaxStreak   int            `json:"opponent_max_streak"`
	PlayerCorrect       int            `json:"player_correct"`
	OpponentCorrect     int            `json:"opponent_correct"`
	Accuracy            float64        `json:"accuracy"`
	XPEarned            int            `json:"xp_earned"`
	WagerDelta          float64        `json:"wager_delta"`
	CompletedAt         time.Time      `json:"completed_at"`
}

// EventType names an outbound notification.
type EventType string

const (
	EventCountdown        EventType = "countdown"
	EventQuestion         EventType = "question"
	EventQuestionTick     EventType = "question_tick"
	EventAnswerReveal     EventType = "answer_reveal"
	EventOpponentAnswered EventType = "opponent_answered"
	EventPowerUp          EventType = "power_up"
	EventMatchComplete    EventType = "match_complete"
	EventMatchCancelled   EventType = "match_cancelled"
)

// Reveal carries the answer key for the question just closed.
type Reveal struct {
	QuestionIndex  int           `json:"question_index"`
	CorrectIndex   int           `json:"correct_index"`
	Explanation    string        `json:"explanation"`
	PlayerAnswer   AnswerRecord  `json:"player_answer"`
	PlayerAward    scoring.Award `json:"player_award"`
	OpponentAnswer AnswerRecord  `json:"opponent_answer"`
}

// PowerUpEffect describes what a power-up did. Applied is false for ignored uses.
type PowerUpEffect struct {
	Type           PowerUp `json:"type"`
	Applied        bool    `json:"applied"`
	RemovedOptions []int   `json:"removed_options,omitempty"`
	AddedSeconds   int     `json:"added_seconds,omitempty"`
	PeekedOption   *int    `json:"peeked_option,omitempty"`
}

// Event is pushed to the host on every visible transition.
type Event struct {
	Type    EventType      `json:"type"`
	State   State          `json:"state"`
	Reveal  *Reveal        `json:"reveal,omitempty"`
	PowerUp *PowerUpEffect `json:"power_up,omitempty"`
	Results *Results       `json:"results,omitempty"`
}

// Notifier receives match events. It is called with the match locked, so it
// must not block or call back into the match.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }

// Rand is the randomness the engine needs. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// Timings are the phase durations of a match.
type Timings struct {
	CountdownSeconds int
	QuestionWindow   time.Duration
	RevealDuration   time.Duration
	ExtraTime        time.Duration
}

// DefaultTimings returns the standard battle pacing.
func DefaultTimings() Timings {
	return Timings{
		CountdownSeconds: 3,
		QuestionWindow:   10 * time.Second,
		RevealDuration:   3 * time.Second,
		ExtraTime:        10 * time.Second,
	}
}
