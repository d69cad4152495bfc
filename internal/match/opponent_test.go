package match

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gokatarajesh/quiz-battle/internal/clock"
	"github.com/gokatarajesh/quiz-battle/internal/question"
)

func TestSimulatorAccuracyTable(t *testing.T) {
	sim := NewSimulator(DefaultSimulatorConfig())
	bot := Opponent{IsBot: true}
	human := Opponent{}

	assert.Equal(t, 0.85, sim.Accuracy(bot, question.DifficultyEasy))
	assert.Equal(t, 0.65, sim.Accuracy(bot, question.DifficultyMedium))
	assert.Equal(t, 0.45, sim.Accuracy(bot, question.DifficultyHard))
	for _, d := range []string{question.DifficultyEasy, question.DifficultyMedium, question.DifficultyHard} {
		assert.Equal(t, 0.75, sim.Accuracy(human, d))
	}
}

func TestSimulatorDrawRanges(t *testing.T) {
	sim := NewSimulator(DefaultSimulatorConfig())
	rng := rand.New(rand.NewSource(99))
	q := testQuestions(3)[2]

	ranges := map[string][2]time.Duration{
		question.DifficultyEasy:   {2 * time.Second, 6 * time.Second},
		question.DifficultyMedium: {3 * time.Second, 9 * time.Second},
		question.DifficultyHard:   {4 * time.Second, 12 * time.Second},
	}
	for difficulty, bounds := range ranges {
		for i := 0; i < 500; i++ {
			ans := sim.Draw(rng, q, Opponent{IsBot: true}, difficulty)
			assert.GreaterOrEqual(t, ans.Delay, bounds[0])
			assert.Less(t, ans.Delay, bounds[1])
			assert.GreaterOrEqual(t, ans.ResponseTimeSeconds, 2.0)
			assert.Less(t, ans.ResponseTimeSeconds, 10.0)
			if ans.Correct {
				assert.Equal(t, q.CorrectIndex, ans.OptionIndex)
			} else {
				assert.NotEqual(t, q.CorrectIndex, ans.OptionIndex)
			}
		}
	}
}

func TestSimulatorBotAccuracyConverges(t *testing.T) {
	sim := NewSimulator(DefaultSimulatorConfig())
	rng := rand.New(rand.NewSource(7))
	q := testQuestions(1)[0]

	const n = 20000
	correct := 0
	for i := 0; i < n; i++ {
		if sim.Draw(rng, q, Opponent{IsBot: true}, question.DifficultyHard).Correct {
			correct++
		}
	}
	assert.InDelta(t, 0.45, float64(correct)/n, 0.02)
}

func TestSimulatorFixedDraw(t *testing.T) {
	sim := NewSimulator(DefaultSimulatorConfig())
	q := testQuestions(2)[1]

	ans := sim.Draw(fixedRand{0.5}, q, Opponent{IsBot: true}, question.DifficultyMedium)
	assert.Equal(t, 6*time.Second, ans.Delay)
	assert.True(t, ans.Correct)
	assert.InDelta(t, 6.0, ans.ResponseTimeSeconds, 1e-9)

	// unknown difficulty falls back to medium tables
	ans = sim.Draw(fixedRand{0.7}, q, Opponent{IsBot: true}, "legendary")
	assert.False(t, ans.Correct)
	assert.Equal(t, 0, ans.OptionIndex)
}

func TestSimulatorSchedule(t *testing.T) {
	sim := NewSimulator(DefaultSimulatorConfig())
	clk := clock.NewManual(epoch0)

	var got *OpponentAnswer
	sim.Schedule(clk, OpponentAnswer{Delay: 5 * time.Second, Correct: true}, func(a OpponentAnswer) { got = &a })

	clk.Advance(4 * time.Second)
	assert.Nil(t, got)
	clk.Advance(time.Second)
	if assert.NotNil(t, got) {
		assert.True(t, got.Correct)
	}
}
