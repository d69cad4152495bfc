package match

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quiz-battle/internal/clock"
	"github.com/gokatarajesh/quiz-battle/internal/match/scoring"
	"github.com/gokatarajesh/quiz-battle/internal/question"
)

var epoch0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// fixedRand returns the same float every time, picks index 0 and never shuffles.
type fixedRand struct{ f float64 }

func (r fixedRand) Float64() float64            { return r.f }
func (r fixedRand) Intn(int) int                { return 0 }
func (r fixedRand) Shuffle(int, func(i, j int)) {}

// leakyClock ignores Stop so that cancelled callbacks still fire.
type leakyClock struct{ *clock.Manual }

type leakyTimer struct{}

func (leakyTimer) Stop() bool { return false }

func (c leakyClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	c.Manual.AfterFunc(d, f)
	return leakyTimer{}
}

// frozenClock never fires callbacks; tests move Now by hand.
type frozenClock struct{ now time.Time }

func (c *frozenClock) Now() time.Time                              { return c.now }
func (c *frozenClock) AfterFunc(time.Duration, func()) clock.Timer { return leakyTimer{} }

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Notify(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func (r *recorder) count(t EventType) int {
	n := 0
	for _, et := range r.types() {
		if et == t {
			n++
		}
	}
	return n
}

func (r *recorder) last(t EventType) (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type == t {
			return r.events[i], true
		}
	}
	return Event{}, false
}

func testQuestions(n int) []question.Question {
	qs := make([]question.Question, n)
	for i := range qs {
		qs[i] = question.Question{
			ID:           fmt.Sprintf("q%d", i),
			Text:         fmt.Sprintf("question %d", i),
			Options:      []string{"a", "b", "c", "d"},
			CorrectIndex: i % question.OptionCount,
			Explanation:  "because",
			Category:     "general",
			Difficulty:   question.DifficultyEasy,
		}
	}
	return qs
}

func botOpponent() Opponent {
	return Opponent{ID: "bot-1", DisplayName: "QuizMaster", IsBot: true, Rating: 1400}
}

type harness struct {
	match *Match
	clock *clock.Manual
	rec   *recorder
	qs    []question.Question
}

func newHarness(t *testing.T, n int, difficulty string, opp Opponent, rng Rand) *harness {
	t.Helper()
	clk := clock.NewManual(epoch0)
	return newHarnessWithClock(t, n, difficulty, opp, rng, clk, clk)
}

func newHarnessWithClock(t *testing.T, n int, difficulty string, opp Opponent, rng Rand, clk clock.Clock, manual *clock.Manual) *harness {
	t.Helper()
	rec := &recorder{}
	qs := testQuestions(n)
	m, err := New(Params{
		ID:        uuid.New(),
		PlayerID:  "player-1",
		Config:    MatchConfig{Category: "general", Difficulty: difficulty, QuestionCount: n},
		Opponent:  opp,
		Questions: qs,
		Clock:     clk,
		Rand:      rng,
		Notifier:  rec,
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)
	return &harness{match: m, clock: manual, rec: rec, qs: qs}
}

// openFirstQuestion starts the match and runs the countdown out.
func (h *harness) openFirstQuestion(t *testing.T) {
	t.Helper()
	h.match.Start()
	h.clock.Advance(3 * time.Second)
	require.Equal(t, PhaseQuestion, h.match.Phase())
}

func (h *harness) answerCurrent(t *testing.T, after time.Duration, correct bool) {
	t.Helper()
	h.clock.Advance(after)
	s := h.match.Snapshot()
	require.Equal(t, PhaseQuestion, s.Phase)
	q := h.qs[s.CurrentQuestionIndex]
	idx := q.CorrectIndex
	if !correct {
		idx = q.IncorrectIndexes()[0]
	}
	sub, err := h.match.SubmitAnswer(idx)
	require.NoError(t, err)
	require.True(t, sub.Accepted)
}

func toScoring(answers []AnswerRecord) []scoring.Answer {
	out := make([]scoring.Answer, len(answers))
	for i, a := range answers {
		out[i] = a.scoringAnswer()
	}
	return out
}

func TestNewRejectsEmptyQuestionSet(t *testing.T) {
	_, err := New(Params{Logger: zerolog.Nop()})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewRejectsShortOptionLists(t *testing.T) {
	qs := testQuestions(2)
	qs[1].Options = []string{"yes", "no"}
	qs[1].CorrectIndex = 0

	_, err := New(Params{Questions: qs, Logger: zerolog.Nop()})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestCountdownThenQuestion(t *testing.T) {
	h := newHarness(t, 3, question.DifficultyEasy, botOpponent(), fixedRand{0.5})
	h.match.Start()

	s := h.match.Snapshot()
	assert.Equal(t, PhaseCountdown, s.Phase)
	assert.Equal(t, 3, s.CountdownRemaining)

	h.clock.Advance(2 * time.Second)
	assert.Equal(t, 1, h.match.Snapshot().CountdownRemaining)

	h.clock.Advance(time.Second)
	s = h.match.Snapshot()
	assert.Equal(t, PhaseQuestion, s.Phase)
	assert.Equal(t, 10, s.TimeLeftSeconds)
	require.NotNil(t, s.Question)
	assert.Equal(t, "q0", s.Question.ID)

	assert.Equal(t, []EventType{EventCountdown, EventCountdown, EventCountdown, EventQuestion}, h.rec.types())
	// start again is ignored
	h.match.Start()
	assert.Equal(t, PhaseQuestion, h.match.Phase())
}

func TestQuestionTicksCountDown(t *testing.T) {
	h := newHarness(t, 3, question.DifficultyEasy, botOpponent(), fixedRand{0.5})
	h.openFirstQuestion(t)

	h.clock.Advance(3 * time.Second)
	ev, ok := h.rec.last(EventQuestionTick)
	require.True(t, ok)
	assert.Equal(t, 7, ev.State.TimeLeftSeconds)
	assert.Equal(t, 3, h.rec.count(EventQuestionTick))
}

func TestAllCorrectFastThreeQuestions(t *testing.T) {
	h := newHarness(t, 3, question.DifficultyEasy, botOpponent(), fixedRand{0.5})
	h.openFirstQuestion(t)

	for i := 0; i < 3; i++ {
		h.answerCurrent(t, time.Second, true)
		h.clock.Advance(3 * time.Second)
	}

	assert.Equal(t, PhaseComplete, h.match.Phase())
	res, ok := h.match.Results()
	require.True(t, ok)
	assert.Equal(t, 42, res.PlayerScore)
	assert.Equal(t, 3, res.PlayerMaxStreak)
	assert.Equal(t, 3, res.TotalQuestions)
	assert.InDelta(t, 1.0, res.AverageResponseTime, 1e-9)
	assert.InDelta(t, 1.0, res.FastestAnswer, 1e-9)
	assert.Equal(t, 1, h.rec.count(EventMatchComplete))
}

func TestAllWrongNeverWins(t *testing.T) {
	// 0.99 makes the bot miss every easy question too: a 0-0 draw.
	h := newHarness(t, 3, question.DifficultyEasy, botOpponent(), fixedRand{0.99})
	h.openFirstQuestion(t)

	for i := 0; i < 3; i++ {
		h.answerCurrent(t, 2*time.Second, false)
		h.clock.Advance(3 * time.Second)
	}

	res, ok := h.match.Results()
	require.True(t, ok)
	assert.Equal(t, 0, res.PlayerScore)
	assert.Equal(t, 0, res.OpponentScore)
	assert.Equal(t, 0, res.PlayerMaxStreak)
	assert.False(t, res.IsWinner)
	assert.True(t, res.IsDraw)
	assert.Equal(t, OutcomeDraw, res.Outcome)
}

func TestSecondSubmissionIgnored(t *testing.T) {
	h := newHarness(t, 3, question.DifficultyEasy, botOpponent(), fixedRand{0.5})
	h.openFirstQuestion(t)
	h.clock.Advance(2 * time.Second)

	sub, err := h.match.SubmitAnswer(0)
	require.NoError(t, err)
	assert.True(t, sub.Accepted)

	sub, err = h.match.SubmitAnswer(3)
	require.NoError(t, err)
	assert.False(t, sub.Accepted)

	s := h.match.Snapshot()
	require.Len(t, s.PlayerAnswers, 1)
	assert.Equal(t, 0, s.PlayerAnswers[0].OptionIndex)
	assert.True(t, s.PlayerAnswers[0].Correct)
	require.NotNil(t, s.SelectedAnswerIndex)
	assert.Equal(t, 0, *s.SelectedAnswerIndex)
	assert.Equal(t, 1, h.rec.count(EventAnswerReveal))
}

func TestSubmitOutOfRange(t *testing.T) {
	h := newHarness(t, 3, question.DifficultyEasy, botOpponent(), fixedRand{0.5})
	h.openFirstQuestion(t)

	_, err := h.match.SubmitAnswer(4)
	assert.ErrorIs(t, err, ErrInvalidOption)
	_, err = h.match.SubmitAnswer(-1)
	assert.ErrorIs(t, err, ErrInvalidOption)
	assert.Equal(t, PhaseQuestion, h.match.Phase())
}

func TestSubmitOutsideQuestionIgnored(t *testing.T) {
	h := newHarness(t, 3, question.DifficultyEasy, botOpponent(), fixedRand{0.5})
	h.match.Start()

	sub, err := h.match.SubmitAnswer(0)
	require.NoError(t, err)
	assert.False(t, sub.Accepted)
	assert.Empty(t, h.match.Snapshot().PlayerAnswers)
}

func TestSubmissionReportsAnsweredQuestion(t *testing.T) {
	h := newHarness(t, 3, question.DifficultyEasy, botOpponent(), fixedRand{0.5})
	h.openFirstQuestion(t)
	h.answerCurrent(t, time.Second, true)

	h.clock.Advance(3 * time.Second)
	require.Equal(t, 1, h.match.Snapshot().CurrentQuestionIndex)
	h.clock.Advance(time.Second)

	sub, err := h.match.SubmitAnswer(h.qs[1].CorrectIndex)
	require.NoError(t, err)
	assert.True(t, sub.Accepted)
	assert.Equal(t, 1, sub.QuestionIndex)

	// repeat during the reveal names the question being revealed
	sub, err = h.match.SubmitAnswer(0)
	require.NoError(t, err)
	assert.False(t, sub.Accepted)
	assert.Equal(t, 1, sub.QuestionIndex)
}

func TestTimeoutRecordsFullWindow(t *testing.T) {
	h := newHarness(t, 3, question.DifficultyEasy, botOpponent(), fixedRand{0.5})
	h.openFirstQuestion(t)

	h.clock.Advance(10 * time.Second)

	s := h.match.Snapshot()
	assert.Equal(t, PhaseAnswer, s.Phase)
	require.Len(t, s.PlayerAnswers, 1)
	assert.False(t, s.PlayerAnswers[0].Correct)
	assert.True(t, s.PlayerAnswers[0].TimedOut)
	assert.Equal(t, -1, s.PlayerAnswers[0].OptionIndex)
	assert.InDelta(t, 10.0, s.PlayerAnswers[0].ResponseTimeSeconds, 1e-9)
	assert.Equal(t, 0, s.PlayerStreak)

	// the easy bot answered at 4s and keeps its drawn answer
	require.Len(t, s.OpponentAnswers, 1)
	assert.True(t, s.OpponentAnswers[0].Correct)
	assert.Equal(t, 9, s.OpponentScore)
}

func TestAnswerAtWindowEdgeIsTimeout(t *testing.T) {
	clk := &frozenClock{now: epoch0}
	rec := &recorder{}
	qs := testQuestions(3)
	timings := DefaultTimings()
	timings.CountdownSeconds = 0
	m, err := New(Params{
		PlayerID:  "p",
		Config:    MatchConfig{Category: "general", Difficulty: question.DifficultyEasy, QuestionCount: 3},
		Opponent:  botOpponent(),
		Questions: qs,
		Timings:   timings,
		Clock:     clk,
		Rand:      fixedRand{0.5},
		Notifier:  rec,
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)
	m.Start()
	require.Equal(t, PhaseQuestion, m.Phase())

	clk.now = epoch0.Add(10 * time.Second)
	sub, err := m.SubmitAnswer(qs[0].CorrectIndex)
	require.NoError(t, err)
	assert.False(t, sub.Accepted)

	s := m.Snapshot()
	require.Len(t, s.PlayerAnswers, 1)
	assert.False(t, s.PlayerAnswers[0].Correct)
	assert.True(t, s.PlayerAnswers[0].TimedOut)
	assert.InDelta(t, 10.0, s.PlayerAnswers[0].ResponseTimeSeconds, 1e-9)
	assert.Equal(t, 0, s.PlayerScore)
}

func TestAnswerJustInsideWindowCounts(t *testing.T) {
	clk := &frozenClock{now: epoch0}
	qs := testQuestions(3)
	timings := DefaultTimings()
	timings.CountdownSeconds = 0
	m, err := New(Params{
		Config:    MatchConfig{Category: "general", Difficulty: question.DifficultyEasy, QuestionCount: 3},
		Opponent:  botOpponent(),
		Questions: qs,
		Timings:   timings,
		Clock:     clk,
		Rand:      fixedRand{0.5},
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)
	m.Start()

	clk.now = epoch0.Add(9990 * time.Millisecond)
	sub, err := m.SubmitAnswer(qs[0].CorrectIndex)
	require.NoError(t, err)
	assert.True(t, sub.Accepted)
	assert.Equal(t, 10, m.Snapshot().PlayerScore)
}

func TestOpponentMissingAtTimeoutRecordedWrong(t *testing.T) {
	// hard delay with 0.99 is 11.92s, past the 10s window
	human := Opponent{ID: "h", DisplayName: "QuizNinja"}
	h := newHarness(t, 3, question.DifficultyHard, human, fixedRand{0.99})
	h.openFirstQuestion(t)

	h.clock.Advance(10 * time.Second)

	s := h.match.Snapshot()
	require.Len(t, s.OpponentAnswers, 1)
	opp := s.OpponentAnswers[0]
	assert.False(t, opp.Correct)
	assert.True(t, opp.TimedOut)
	assert.InDelta(t, 10.0, opp.ResponseTimeSeconds, 1e-9)
	assert.Equal(t, 0, s.OpponentScore)
	assert.Equal(t, 0, h.rec.count(EventOpponentAnswered))
}

func TestOpponentAnswerBeforePlayer(t *testing.T) {
	h := newHarness(t, 3, question.DifficultyEasy, botOpponent(), fixedRand{0.5})
	h.openFirstQuestion(t)

	h.clock.Advance(4 * time.Second)
	s := h.match.Snapshot()
	assert.True(t, s.OpponentAnswered)
	assert.Empty(t, s.OpponentAnswers, "opponent record is committed with the player's")
	assert.Equal(t, 0, s.OpponentScore)

	h.answerCurrent(t, time.Second, true)
	s = h.match.Snapshot()
	require.Len(t, s.OpponentAnswers, 1)
	assert.Equal(t, 9, s.OpponentScore)
	assert.Equal(t, 1, h.rec.count(EventOpponentAnswered))
}

func TestPlayerFirstKeepsDrawnOpponentAnswer(t *testing.T) {
	h := newHarness(t, 3, question.DifficultyEasy, botOpponent(), fixedRand{0.5})
	h.openFirstQuestion(t)

	h.answerCurrent(t, time.Second, true)
	s := h.match.Snapshot()
	require.Len(t, s.OpponentAnswers, 1)
	assert.True(t, s.OpponentAnswers[0].Correct)
	assert.InDelta(t, 6.0, s.OpponentAnswers[0].ResponseTimeSeconds, 1e-9)

	// the delay timer was cancelled with the question
	h.clock.Advance(2 * time.Second)
	assert.Equal(t, 0, h.rec.count(EventOpponentAnswered))
	assert.Equal(t, 9, h.match.Snapshot().OpponentScore)
}

func TestFiftyFiftyRemovesTwoWrongOptions(t *testing.T) {
	h := newHarness(t, 3, question.DifficultyEasy, botOpponent(), rand.New(rand.NewSource(42)))
	h.openFirstQuestion(t)

	q := h.qs[0]
	eff, err := h.match.UsePowerUp(PowerUpFiftyFifty)
	require.NoError(t, err)
	assert.True(t, eff.Applied)
	require.Len(t, eff.RemovedOptions, 2)
	assert.NotContains(t, eff.RemovedOptions, q.CorrectIndex)

	var selectable []int
	for i := range q.Options {
		if !contains(eff.RemovedOptions, i) {
			selectable = append(selectable, i)
		}
	}
	require.Len(t, selectable, 2)
	assert.Contains(t, selectable, q.CorrectIndex)

	s := h.match.Snapshot()
	assert.Equal(t, eff.RemovedOptions, s.Question.RemovedOptions)
	assert.NotContains(t, s.PowerUpsRemaining, PowerUpFiftyFifty)

	// removed options cannot be picked
	sub, err := h.match.SubmitAnswer(eff.RemovedOptions[0])
	require.NoError(t, err)
	assert.False(t, sub.Accepted)

	// second use is a no-op
	again, err := h.match.UsePowerUp(PowerUpFiftyFifty)
	require.NoError(t, err)
	assert.False(t, again.Applied)
	assert.Equal(t, 1, h.rec.count(EventPowerUp))
}

func TestFiftyFiftyResetsNextQuestion(t *testing.T) {
	h := newHarness(t, 3, question.DifficultyEasy, botOpponent(), fixedRand{0.5})
	h.openFirstQuestion(t)

	_, err := h.match.UsePowerUp(PowerUpFiftyFifty)
	require.NoError(t, err)
	h.answerCurrent(t, time.Second, true)
	h.clock.Advance(3 * time.Second)

	s := h.match.Snapshot()
	assert.Equal(t, 1, s.CurrentQuestionIndex)
	assert.Empty(t, s.Question.RemovedOptions)
}

func TestExtraTimeExtendsWindow(t *testing.T) {
	h := newHarness(t, 3, question.DifficultyEasy, botOpponent(), fixedRand{0.5})
	h.openFirstQuestion(t)

	h.clock.Advance(5 * time.Second)
	eff, err := h.match.UsePowerUp(PowerUpExtraTime)
	require.NoError(t, err)
	assert.True(t, eff.Applied)
	assert.Equal(t, 10, eff.AddedSeconds)
	assert.Equal(t, 15, h.match.Snapshot().TimeLeftSeconds)

	h.clock.Advance(9 * time.Second)
	assert.Equal(t, PhaseQuestion, h.match.Phase())

	// answering at 14s is still in time, with no speed bonus
	sub, err := h.match.SubmitAnswer(h.qs[0].CorrectIndex)
	require.NoError(t, err)
	assert.True(t, sub.Accepted)
	s := h.match.Snapshot()
	assert.InDelta(t, 14.0, s.PlayerAnswers[0].ResponseTimeSeconds, 1e-9)
	assert.Equal(t, 10, s.PlayerScore)
}

func TestExtraTimeTimeoutUsesExtendedWindow(t *testing.T) {
	h := newHarness(t, 3, question.DifficultyEasy, botOpponent(), fixedRand{0.5})
	h.openFirstQuestion(t)

	_, err := h.match.UsePowerUp(PowerUpExtraTime)
	require.NoError(t, err)
	h.clock.Advance(19 * time.Second)
	assert.Equal(t, PhaseQuestion, h.match.Phase())
	h.clock.Advance(time.Second)

	s := h.match.Snapshot()
	assert.Equal(t, PhaseAnswer, s.Phase)
	assert.InDelta(t, 20.0, s.PlayerAnswers[0].ResponseTimeSeconds, 1e-9)
}

func TestPeekWaitsForOpponent(t *testing.T) {
	h := newHarness(t, 3, question.DifficultyEasy, botOpponent(), fixedRand{0.5})
	h.openFirstQuestion(t)

	eff, err := h.match.UsePowerUp(PowerUpPeek)
	require.NoError(t, err)
	assert.False(t, eff.Applied)
	assert.Contains(t, h.match.Snapshot().PowerUpsRemaining, PowerUpPeek)

	h.clock.Advance(4 * time.Second)
	eff, err = h.match.UsePowerUp(PowerUpPeek)
	require.NoError(t, err)
	require.True(t, eff.Applied)
	require.NotNil(t, eff.PeekedOption)
	assert.Equal(t, h.qs[0].CorrectIndex, *eff.PeekedOption)

	s := h.match.Snapshot()
	require.NotNil(t, s.PeekedOption)
	assert.NotContains(t, s.PowerUpsRemaining, PowerUpPeek)
}

func TestPowerUpAfterAnswerIgnored(t *testing.T) {
	h := newHarness(t, 3, question.DifficultyEasy, botOpponent(), fixedRand{0.5})
	h.openFirstQuestion(t)
	h.answerCurrent(t, time.Second, true)

	eff, err := h.match.UsePowerUp(PowerUpExtraTime)
	require.NoError(t, err)
	assert.False(t, eff.Applied)
	assert.Contains(t, h.match.Snapshot().PowerUpsRemaining, PowerUpExtraTime)
}

func TestUnknownPowerUp(t *testing.T) {
	h := newHarness(t, 3, question.DifficultyEasy, botOpponent(), fixedRand{0.5})
	h.openFirstQuestion(t)

	_, err := h.match.UsePowerUp(PowerUp("double-points"))
	assert.ErrorIs(t, err, ErrUnknownPowerUp)
}

func TestStaleOpponentTimerIsInert(t *testing.T) {
	manual := clock.NewManual(epoch0)
	human := Opponent{ID: "h", DisplayName: "QuizNinja"}
	h := newHarnessWithClock(t, 3, question.DifficultyHard, human, fixedRand{0.99}, leakyClock{manual}, manual)
	h.openFirstQuestion(t)

	// question 0 closes at 4s, question 1 opens at 7s
	h.answerCurrent(t, time.Second, true)
	h.clock.Advance(3 * time.Second)
	require.Equal(t, 1, h.match.Snapshot().CurrentQuestionIndex)

	// question 0's opponent timer fires at 3+11.92s, inside question 1
	h.clock.Advance(8 * time.Second)
	s := h.match.Snapshot()
	assert.Equal(t, PhaseQuestion, s.Phase)
	assert.Equal(t, 1, s.CurrentQuestionIndex)
	assert.False(t, s.OpponentAnswered)
	assert.Len(t, s.OpponentAnswers, 1)
	assert.Len(t, s.PlayerAnswers, 1)
	assert.Equal(t, 0, h.rec.count(EventOpponentAnswered))

	// question 1 times out with the opponent still thinking
	h.clock.Advance(2 * time.Second)
	s = h.match.Snapshot()
	assert.Equal(t, PhaseAnswer, s.Phase)
	require.Len(t, s.OpponentAnswers, 2)
	assert.True(t, s.OpponentAnswers[1].TimedOut)
	assert.Equal(t, 2, h.rec.count(EventAnswerReveal))
}

func TestCancelStopsMatch(t *testing.T) {
	h := newHarness(t, 3, question.DifficultyEasy, botOpponent(), fixedRand{0.5})
	h.openFirstQuestion(t)

	assert.True(t, h.match.Cancel())
	assert.Equal(t, PhaseCancelled, h.match.Phase())
	assert.False(t, h.match.Cancel())

	before := len(h.rec.types())
	h.clock.Advance(time.Minute)
	assert.Len(t, h.rec.types(), before)

	sub, err := h.match.SubmitAnswer(0)
	require.NoError(t, err)
	assert.False(t, sub.Accepted)
	_, done := h.match.Results()
	assert.False(t, done)
	assert.Equal(t, 1, h.rec.count(EventMatchCancelled))
}

func TestCancelAfterCompleteIsNoop(t *testing.T) {
	h := newHarness(t, 3, question.DifficultyEasy, botOpponent(), fixedRand{0.5})
	h.openFirstQuestion(t)
	h.clock.Advance(time.Minute)

	require.Equal(t, PhaseComplete, h.match.Phase())
	assert.False(t, h.match.Cancel())
	assert.Equal(t, PhaseComplete, h.match.Phase())
}

func TestMatchInvariantsAcrossSeeds(t *testing.T) {
	engine := scoring.NewEngine(scoring.DefaultScoringConfig())

	for seed := int64(1); seed <= 25; seed++ {
		rng := rand.New(rand.NewSource(seed))
		player := rand.New(rand.NewSource(seed * 31))
		opp := botOpponent()
		opp.IsBot = seed%2 == 0
		difficulty := []string{question.DifficultyEasy, question.DifficultyMedium, question.DifficultyHard}[seed%3]
		n := []int{3, 5, 7}[seed%3]

		h := newHarness(t, n, difficulty, opp, rng)
		h.match.Start()
		h.clock.Advance(3 * time.Second)

		lastScores := [2]int{}
		for h.match.Phase() != PhaseComplete {
			s := h.match.Snapshot()
			require.Equal(t, PhaseQuestion, s.Phase, "seed %d", seed)
			assert.Len(t, s.PlayerAnswers, s.CurrentQuestionIndex)
			assert.Len(t, s.OpponentAnswers, s.CurrentQuestionIndex)

			wait := time.Duration(player.Intn(12000)) * time.Millisecond
			h.clock.Advance(wait)
			if h.match.Phase() == PhaseQuestion {
				_, err := h.match.SubmitAnswer(player.Intn(4))
				require.NoError(t, err)
			}

			s = h.match.Snapshot()
			require.Equal(t, PhaseAnswer, s.Phase)
			assert.Len(t, s.PlayerAnswers, s.CurrentQuestionIndex+1)
			assert.Len(t, s.OpponentAnswers, s.CurrentQuestionIndex+1)
			assert.GreaterOrEqual(t, s.PlayerScore, lastScores[0])
			assert.GreaterOrEqual(t, s.OpponentScore, lastScores[1])
			lastScores = [2]int{s.PlayerScore, s.OpponentScore}

			h.clock.Advance(3 * time.Second)
		}

		res, ok := h.match.Results()
		require.True(t, ok)
		assert.Len(t, res.PlayerAnswers, n)
		assert.Len(t, res.OpponentAnswers, n)

		playerTotal, playerStreak := engine.ReplayPlayer(toScoring(res.PlayerAnswers))
		opponentTotal, opponentStreak := engine.ReplayOpponent(toScoring(res.OpponentAnswers))
		assert.Equal(t, playerTotal, res.PlayerScore, "seed %d", seed)
		assert.Equal(t, opponentTotal, res.OpponentScore, "seed %d", seed)
		assert.Equal(t, playerStreak, res.PlayerMaxStreak)
		assert.Equal(t, opponentStreak, res.OpponentMaxStreak)
		assert.Equal(t, 1, h.rec.count(EventMatchComplete))
	}
}

func contains(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
