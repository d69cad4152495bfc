package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlayerAward(t *testing.T) {
	e := NewEngine(DefaultScoringConfig())

	tests := []struct {
		name    string
		correct bool
		rt      float64
		streak  int
		want    Award
	}{
		{"wrong", false, 0.5, 5, Award{}},
		{"instant", true, 0.2, 0, Award{Base: 10, Speed: 5, Total: 15}},
		{"one second", true, 1.0, 0, Award{Base: 10, Speed: 4, Total: 14}},
		{"just under window", true, 2.99, 0, Award{Base: 10, Speed: 3, Total: 13}},
		{"at window", true, 3.0, 0, Award{Base: 10, Total: 10}},
		{"slow", true, 9.5, 0, Award{Base: 10, Total: 10}},
		{"streak below threshold", true, 5, 2, Award{Base: 10, Total: 10}},
		{"fourth in a row", true, 5, 3, Award{Base: 10, Streak: 5, Total: 15}},
		{"fast long streak", true, 1.5, 6, Award{Base: 10, Speed: 4, Streak: 5, Total: 19}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.PlayerAward(tt.correct, tt.rt, tt.streak))
		})
	}
}

func TestOpponentScore(t *testing.T) {
	e := NewEngine(DefaultScoringConfig())

	assert.Equal(t, 0, e.OpponentScore(false, 2))
	assert.Equal(t, 13, e.OpponentScore(true, 2.0))
	assert.Equal(t, 11, e.OpponentScore(true, 4.7))
	assert.Equal(t, 6, e.OpponentScore(true, 9.9))
	assert.Equal(t, 5, e.OpponentScore(true, 10))
	assert.Equal(t, 5, e.OpponentScore(true, 14))
}

func TestReplayPlayerThreeFastCorrect(t *testing.T) {
	e := NewEngine(DefaultScoringConfig())

	total, maxStreak := e.ReplayPlayer([]Answer{
		{Correct: true, ResponseSeconds: 1},
		{Correct: true, ResponseSeconds: 1},
		{Correct: true, ResponseSeconds: 1},
	})
	assert.Equal(t, 42, total)
	assert.Equal(t, 3, maxStreak)
}

func TestReplayPlayerStreakResets(t *testing.T) {
	e := NewEngine(DefaultScoringConfig())

	total, maxStreak := e.ReplayPlayer([]Answer{
		{Correct: true, ResponseSeconds: 5},
		{Correct: true, ResponseSeconds: 5},
		{Correct: true, ResponseSeconds: 5},
		{Correct: true, ResponseSeconds: 5}, // +5 streak
		{Correct: false, ResponseSeconds: 10},
		{Correct: true, ResponseSeconds: 5},
	})
	assert.Equal(t, 10*5+5, total)
	assert.Equal(t, 4, maxStreak)
}

func TestReplayOpponent(t *testing.T) {
	e := NewEngine(DefaultScoringConfig())

	total, maxStreak := e.ReplayOpponent([]Answer{
		{Correct: true, ResponseSeconds: 3.2},
		{Correct: false, ResponseSeconds: 2},
		{Correct: true, ResponseSeconds: 9.9},
		{Correct: true, ResponseSeconds: 2.1},
	})
	assert.Equal(t, 12+0+6+13, total)
	assert.Equal(t, 2, maxStreak)
}

func TestNextStreak(t *testing.T) {
	assert.Equal(t, 1, NextStreak(0, true))
	assert.Equal(t, 4, NextStreak(3, true))
	assert.Equal(t, 0, NextStreak(7, false))
}
