package match

import (
	"time"

	"github.com/gokatarajesh/quiz-battle/internal/clock"
	"github.com/gokatarajesh/quiz-battle/internal/question"
)

// DelayRange bounds the simulated thinking time, in seconds.
type DelayRange struct {
	Min float64
	Max float64
}

// SimulatorConfig holds the opponent tables.
type SimulatorConfig struct {
	Delays          map[string]DelayRange
	BotAccuracy     map[string]float64
	HumanAccuracy   float64
	ResponseTimeMin float64
	ResponseTimeMax float64
}

// DefaultSimulatorConfig returns the standard opponent behaviour.
func DefaultSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{
		Delays: map[string]DelayRange{
			question.DifficultyEasy:   {Min: 2, Max: 6},
			question.DifficultyMedium: {Min: 3, Max: 9},
			question.DifficultyHard:   {Min: 4, Max: 12},
		},
		BotAccuracy: map[string]float64{
			question.DifficultyEasy:   0.85,
			question.DifficultyMedium: 0.65,
			question.DifficultyHard:   0.45,
		},
		HumanAccuracy:   0.75,
		ResponseTimeMin: 2,
		ResponseTimeMax: 10,
	}
}

// OpponentAnswer is one pre-drawn simulated answer.
type OpponentAnswer struct {
	Delay               time.Duration
	Correct             bool
	ResponseTimeSeconds float64
	OptionIndex         int
}

// Simulator draws opponent answers. It keeps no per-match state.
type Simulator struct {
	cfg SimulatorConfig
}

// NewSimulator creates a simulator with cfg.
func NewSimulator(cfg SimulatorConfig) *Simulator {
	return &Simulator{cfg: cfg}
}

// Accuracy returns the chance that opp answers correctly at difficulty.
func (s *Simulator) Accuracy(opp Opponent, difficulty string) float64 {
	if !opp.IsBot {
		return s.cfg.HumanAccuracy
	}
	if acc, ok := s.cfg.BotAccuracy[difficulty]; ok {
		return acc
	}
	return s.cfg.BotAccuracy[question.DifficultyMedium]
}

// DelayRange returns the scheduling delay bounds for difficulty.
func (s *Simulator) DelayRange(difficulty string) DelayRange {
	if r, ok := s.cfg.Delays[difficulty]; ok {
		return r
	}
	return s.cfg.Delays[question.DifficultyMedium]
}

// Draw rolls the opponent's answer to q. The delay and the scored response time
// are drawn independently.
func (s *Simulator) Draw(rng Rand, q question.Question, opp Opponent, difficulty string) OpponentAnswer {
	dr := s.DelayRange(difficulty)
	delay := dr.Min + rng.Float64()*(dr.Max-dr.Min)

	correct := rng.Float64() < s.Accuracy(opp, difficulty)
	rt := s.cfg.ResponseTimeMin + rng.Float64()*(s.cfg.ResponseTimeMax-s.cfg.ResponseTimeMin)

	option := q.CorrectIndex
	if !correct {
		wrong := q.IncorrectIndexes()
		option = wrong[rng.Intn(len(wrong))]
	}

	return OpponentAnswer{
		Delay:               time.Duration(delay * float64(time.Second)),
		Correct:             correct,
		ResponseTimeSeconds: rt,
		OptionIndex:         option,
	}
}

// Schedule delivers ans after its delay on clk.
func (s *Simulator) Schedule(clk clock.Clock, ans OpponentAnswer, deliver func(OpponentAnswer)) clock.Timer {
	return clk.AfterFunc(ans.Delay, func() { deliver(ans) })
}
