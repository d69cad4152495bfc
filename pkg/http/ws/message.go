package ws

import "encoding/json"

// MessageType constants for WebSocket protocol.
const (
	// Client -> Server
	TypeFindOpponent   = "find_opponent"
	TypeCancelSearch   = "cancel_search"
	TypeStartMatch     = "start_match"
	TypeSubmitAnswer   = "submit_answer"
	TypeUsePowerUp     = "use_power_up"
	TypeCancelMatch    = "cancel_match"
	TypeRequestState   = "request_state"
	TypeRequestResults = "request_results"

	// Server -> Client
	TypeSearchStarted    = "search_started"
	TypeOpponentFound    = "opponent_found"
	TypeCountdown        = "countdown"
	TypeQuestion         = "question"
	TypeQuestionTick     = "question_tick"
	TypeAnswerReveal     = "answer_reveal"
	TypeOpponentAnswered = "opponent_answered"
	TypePowerUp          = "power_up"
	TypeAnswerAck        = "answer_ack"
	TypeMatchState       = "match_state"
	TypeMatchComplete    = "match_complete"
	TypeMatchCancelled   = "match_cancelled"
	TypeError            = "error"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage marshals payload into a typed envelope.
func NewMessage(msgType string, payload interface{}, requestID string) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Payload: raw, RequestID: requestID}, nil
}

// Client Messages (incoming)

type FindOpponentPayload struct {
	Category      string  `json:"category"`
	Difficulty    string  `json:"difficulty"`
	QuestionCount int     `json:"question_count"` // 3, 5 or 7
	Wager         bool    `json:"wager"`
	StakeAmount   float64 `json:"stake_amount,omitempty"`
}

type CancelSearchPayload struct {
	SearchToken string `json:"search_token"`
}

type StartMatchPayload struct {
	SearchToken string `json:"search_token"`
}

type SubmitAnswerPayload struct {
	MatchID     string `json:"match_id"`
	OptionIndex int    `json:"option_index"`
}

type UsePowerUpPayload struct {
	MatchID string `json:"match_id"`
	PowerUp string `json:"power_up"`
}

type MatchRefPayload struct {
	MatchID string `json:"match_id"`
}

// Server Messages (outgoing)

type SearchStartedPayload struct {
	SearchToken string `json:"search_token"`
}

type OpponentFoundPayload struct {
	SearchToken string   `json:"search_token"`
	Opponent    Opponent `json:"opponent"`
}

type Opponent struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsBot       bool   `json:"is_bot"`
	Rating      int    `json:"rating"`
	WinStreak   int    `json:"win_streak"`
	Address     string `json:"address,omitempty"`
}

type CountdownPayload struct {
	MatchID string `json:"match_id"`
	Seconds int    `json:"seconds"`
}

type QuestionPayload struct {
	MatchID        string   `json:"match_id"`
	Index          int      `json:"index"`
	Total          int      `json:"total"`
	ID             string   `json:"id"`
	Text           string   `json:"text"`
	Options        []string `json:"options"`
	RemovedOptions []int    `json:"removed_options,omitempty"`
	TimeLeft       int      `json:"time_left_seconds"`
	PowerUps       []string `json:"power_ups_remaining"`
}

type QuestionTickPayload struct {
	MatchID          string `json:"match_id"`
	QuestionIndex    int    `json:"question_index"`
	RemainingSeconds int    `json:"remaining_seconds"`
}

type AnswerRevealPayload struct {
	MatchID       string      `json:"match_id"`
	QuestionIndex int         `json:"question_index"`
	CorrectIndex  int         `json:"correct_index"`
	Explanation   string      `json:"explanation"`
	Player        interface{} `json:"player"`
	Opponent      interface{} `json:"opponent"`
	PlayerScore   int         `json:"player_score"`
	OpponentScore int         `json:"opponent_score"`
	PlayerStreak  int         `json:"player_streak"`
}

type OpponentAnsweredPayload struct {
	MatchID       string `json:"match_id"`
	QuestionIndex int    `json:"question_index"`
	PeekedOption  *int   `json:"peeked_option,omitempty"`
}

type PowerUpPayload struct {
	MatchID string      `json:"match_id"`
	Effect  interface{} `json:"effect"`
}

type AnswerAckPayload struct {
	MatchID       string `json:"match_id"`
	QuestionIndex int    `json:"question_index"`
	OptionIndex   int    `json:"option_index"`
	Accepted      bool   `json:"accepted"`
}

type MatchStatePayload struct {
	State interface{} `json:"state"`
}

type MatchCompletePayload struct {
	MatchID string      `json:"match_id"`
	Results interface{} `json:"results"`
}

type MatchCancelledPayload struct {
	MatchID string `json:"match_id"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
