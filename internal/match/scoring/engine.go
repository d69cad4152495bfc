package scoring

import "math"

// ScoringConfig holds the scoring constants (defaults are the battle rules).
type ScoringConfig struct {
	BaseScore          int     // default: 10
	MaxSpeedBonus      int     // default: 5, minus whole seconds taken
	SpeedBonusWindow   float64 // default: 3s, speed bonus only below this
	StreakBonusPercent float64 // default: 0.5 of base
	StreakThreshold    int     // default: 3, streak needed before the answer
	OpponentCeiling    int     // default: 15, minus whole seconds taken
	OpponentFloor      int     // default: 5
}

// DefaultScoringConfig returns the standard battle rules.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		BaseScore:          10,
		MaxSpeedBonus:      5,
		SpeedBonusWindow:   3,
		StreakBonusPercent: 0.5,
		StreakThreshold:    3,
		OpponentCeiling:    15,
		OpponentFloor:      5,
	}
}

// Engine computes points for both sides of a battle.
type Engine struct {
	config ScoringConfig
}

// NewEngine creates a scoring engine with the provided config.
func NewEngine(config ScoringConfig) *Engine {
	return &Engine{config: config}
}

// Config returns the engine's constants.
func (e *Engine) Config() ScoringConfig {
	return e.config
}

// Award is the breakdown of points for one player answer.
type Award struct {
	Base   int `json:"base"`
	Speed  int `json:"speed"`
	Streak int `json:"streak"`
	Total  int `json:"total"`
}

// PlayerAward scores a player answer.
// Formula: base + speed_bonus + streak_bonus
//   - speed_bonus: max(0, maxSpeed - floor(rt)) when rt is under the window
//   - streak_bonus: floor(base * pct) when the streak before this answer is at the threshold
func (e *Engine) PlayerAward(isCorrect bool, responseSeconds float64, streakBefore int) Award {
	if !isCorrect {
		return Award{}
	}

	a := Award{Base: e.config.BaseScore}
	if responseSeconds < e.config.SpeedBonusWindow {
		speed := e.config.MaxSpeedBonus - int(math.Floor(responseSeconds))
		if speed > 0 {
			a.Speed = speed
		}
	}
	if streakBefore >= e.config.StreakThreshold {
		a.Streak = int(math.Floor(float64(e.config.BaseScore) * e.config.StreakBonusPercent))
	}
	a.Total = a.Base + a.Speed + a.Streak
	return a
}

// PlayerScore is PlayerAward reduced to its total.
func (e *Engine) PlayerScore(isCorrect bool, responseSeconds float64, streakBefore int) int {
	return e.PlayerAward(isCorrect, responseSeconds, streakBefore).Total
}

// OpponentScore scores a simulated opponent answer: max(floor, ceiling - floor(rt)).
func (e *Engine) OpponentScore(isCorrect bool, responseSeconds float64) int {
	if !isCorrect {
		return 0
	}
	score := e.config.OpponentCeiling - int(math.Floor(responseSeconds))
	if score < e.config.OpponentFloor {
		score = e.config.OpponentFloor
	}
	return score
}

// Answer is the scoring view of one recorded answer (kept here to avoid an import cycle).
type Answer struct {
	Correct         bool
	ResponseSeconds float64
}

// ReplayPlayer recomputes a player's total from their answer history, tracking
// the streak as it stood at each answer.
func (e *Engine) ReplayPlayer(answers []Answer) (total int, maxStreak int) {
	streak := 0
	for _, ans := range answers {
		total += e.PlayerScore(ans.Correct, ans.ResponseSeconds, streak)
		streak = nextStreak(streak, ans.Correct)
		if streak > maxStreak {
			maxStreak = streak
		}
	}
	return total, maxStreak
}

// ReplayOpponent recomputes an opponent's total from their answer history.
func (e *Engine) ReplayOpponent(answers []Answer) (total int, maxStreak int) {
	streak := 0
	for _, ans := range answers {
		total += e.OpponentScore(ans.Correct, ans.ResponseSeconds)
		streak = nextStreak(streak, ans.Correct)
		if streak > maxStreak {
			maxStreak = streak
		}
	}
	return total, maxStreak
}

// NextStreak applies one answer to a streak counter.
func NextStreak(streak int, correct bool) int {
	return nextStreak(streak, correct)
}

func nextStreak(streak int, correct bool) int {
	if !correct {
		return 0
	}
	return streak + 1
}
