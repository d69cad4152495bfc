package match

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-battle/internal/clock"
	"github.com/gokatarajesh/quiz-battle/internal/match/scoring"
	"github.com/gokatarajesh/quiz-battle/internal/question"
)

// Params wires a single match.
type Params struct {
	ID        uuid.UUID
	PlayerID  string
	Config    MatchConfig
	Opponent  Opponent
	Questions []question.Question
	Timings   Timings
	Clock     clock.Clock
	Rand      Rand
	Scoring   *scoring.Engine
	Simulator *Simulator
	Notifier  Notifier
	Logger    zerolog.Logger
}

// Match is one live battle: countdown, then question/answer cycles, then complete.
// All state is guarded by mu. Every timer callback carries the epoch it was
// scheduled under and does nothing once the epoch has moved on.
type Match struct {
	mu sync.Mutex

	id        uuid.UUID
	playerID  string
	cfg       MatchConfig
	opponent  Opponent
	questions []question.Question

	timings Timings
	clock   clock.Clock
	rng     Rand
	scoring *scoring.Engine
	sim     *Simulator
	notify  Notifier
	logger  zerolog.Logger

	epoch  uint64
	timers []clock.Timer

	phase           Phase
	index           int
	countdown       int
	questionStart   time.Time
	window          time.Duration
	playerScore     int
	opponentScore   int
	playerStreak    int
	opponentStreak  int
	playerAnswers   []AnswerRecord
	opponentAnswers []AnswerRecord
	selected        *int
	removed         []int
	available       map[PowerUp]bool

	pending          OpponentAnswer
	opponentAnswered bool
	peeked           bool

	results *Results
}

// New builds a match in its initial, not yet started state.
func New(p Params) (*Match, error) {
	if len(p.Questions) == 0 {
		return nil, fmt.Errorf("%w: no questions", ErrInvalidConfig)
	}
	for _, q := range p.Questions {
		if len(q.Options) != question.OptionCount {
			return nil, fmt.Errorf("%w: question %s has %d options, want %d", ErrInvalidConfig, q.ID, len(q.Options), question.OptionCount)
		}
	}

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Timings == (Timings{}) {
		p.Timings = DefaultTimings()
	}
	if p.Clock == nil {
		p.Clock = clock.Real()
	}
	if p.Rand == nil {
		p.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if p.Scoring == nil {
		p.Scoring = scoring.NewEngine(scoring.DefaultScoringConfig())
	}
	if p.Simulator == nil {
		p.Simulator = NewSimulator(DefaultSimulatorConfig())
	}

	available := make(map[PowerUp]bool, len(AllPowerUps))
	for _, pu := range AllPowerUps {
		available[pu] = true
	}

	return &Match{
		id:        p.ID,
		playerID:  p.PlayerID,
		cfg:       p.Config,
		opponent:  p.Opponent,
		questions: p.Questions,
		timings:   p.Timings,
		clock:     p.Clock,
		rng:       p.Rand,
		scoring:   p.Scoring,
		sim:       p.Simulator,
		notify:    p.Notifier,
		logger:    p.Logger.With().Str("match_id", p.ID.String()).Logger(),
		available: available,
	}, nil
}

// ID returns the match handle.
func (m *Match) ID() uuid.UUID { return m.id }

// PlayerID returns the owning player.
func (m *Match) PlayerID() string { return m.playerID }

// Phase returns the current phase.
func (m *Match) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Results returns the final results once the match is complete.
func (m *Match) Results() (Results, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.results == nil {
		return Results{}, false
	}
	return *m.results, true
}

// Start begins the countdown. Calling it again is a no-op.
func (m *Match) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != "" {
		return
	}
	m.logger.Info().
		Str("category", m.cfg.Category).
		Str("difficulty", m.cfg.Difficulty).
		Int("questions", len(m.questions)).
		Bool("bot", m.opponent.IsBot).
		Msg("match started")

	if m.timings.CountdownSeconds <= 0 {
		m.enterQuestionLocked()
		return
	}
	m.phase = PhaseCountdown
	m.countdown = m.timings.CountdownSeconds
	m.scheduleLocked(time.Second, m.countdownTickLocked)
	m.emitLocked(Event{Type: EventCountdown})
}

// SubmitAnswer records the player's selection for the open question. The
// Submission reports the question it was taken against and whether it was
// accepted; repeats and selections outside the question window are ignored.
func (m *Match) SubmitAnswer(optionIndex int) (Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub := Submission{QuestionIndex: m.index}
	if m.phase != PhaseQuestion || m.selected != nil {
		return sub, nil
	}
	q := m.questions[m.index]
	if optionIndex < 0 || optionIndex >= len(q.Options) {
		return sub, fmt.Errorf("%w: %d", ErrInvalidOption, optionIndex)
	}
	if m.isRemovedLocked(optionIndex) {
		return sub, nil
	}

	elapsed := m.clock.Now().Sub(m.questionStart)
	if elapsed >= m.window {
		m.timeoutLocked()
		return sub, nil
	}
	if elapsed < 0 {
		elapsed = 0
	}

	idx := optionIndex
	m.selected = &idx
	rt := elapsed.Seconds()
	correct := q.IsCorrect(optionIndex)
	award := m.scoring.PlayerAward(correct, rt, m.playerStreak)

	m.enterAnswerLocked(AnswerRecord{
		QuestionID:          q.ID,
		OptionIndex:         optionIndex,
		Correct:             correct,
		ResponseTimeSeconds: rt,
		Points:              award.Total,
	}, award)
	sub.Accepted = true
	return sub, nil
}

// UsePowerUp applies p to the open question. Uses that cannot take effect are
// ignored and reported with Applied false.
func (m *Match) UsePowerUp(p PowerUp) (PowerUpEffect, error) {
	if !p.Valid() {
		return PowerUpEffect{}, fmt.Errorf("%w: %q", ErrUnknownPowerUp, p)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	eff := PowerUpEffect{Type: p}
	if m.phase != PhaseQuestion || m.selected != nil || !m.available[p] {
		return eff, nil
	}

	switch p {
	case PowerUpFiftyFifty:
		wrong := m.questions[m.index].IncorrectIndexes()
		m.rng.Shuffle(len(wrong), func(i, j int) { wrong[i], wrong[j] = wrong[j], wrong[i] })
		removed := append([]int(nil), wrong[:len(wrong)-1]...)
		sort.Ints(removed)
		m.removed = removed
		eff.RemovedOptions = removed
	case PowerUpExtraTime:
		m.window += m.timings.ExtraTime
		eff.AddedSeconds = int(m.timings.ExtraTime / time.Second)
	case PowerUpPeek:
		// not consumed until there is something to see
		if !m.opponentAnswered {
			return eff, nil
		}
		m.peeked = true
		opt := m.pending.OptionIndex
		eff.PeekedOption = &opt
	}

	m.available[p] = false
	eff.Applied = true
	m.logger.Debug().Str("power_up", string(p)).Int("question", m.index).Msg("power-up applied")
	m.emitLocked(Event{Type: EventPowerUp, PowerUp: &eff})
	return eff, nil
}

// Cancel stops the match. It reports false when the match had already finished.
func (m *Match) Cancel() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase.Terminal() {
		return false
	}
	m.bumpEpochLocked()
	m.phase = PhaseCancelled
	m.logger.Info().Int("question", m.index).Msg("match cancelled")
	m.emitLocked(Event{Type: EventMatchCancelled})
	return true
}

// Snapshot returns a copy of the current state.
func (m *Match) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Match) countdownTickLocked() {
	m.countdown--
	if m.countdown <= 0 {
		m.enterQuestionLocked()
		return
	}
	m.emitLocked(Event{Type: EventCountdown})
	m.scheduleLocked(time.Second, m.countdownTickLocked)
}

func (m *Match) enterQuestionLocked() {
	m.bumpEpochLocked()

	q := m.questions[m.index]
	m.phase = PhaseQuestion
	m.countdown = 0
	m.questionStart = m.clock.Now()
	m.window = m.timings.QuestionWindow
	m.selected = nil
	m.removed = nil
	m.opponentAnswered = false
	m.peeked = false
	m.pending = m.sim.Draw(m.rng, q, m.opponent, m.cfg.Difficulty)

	m.logger.Debug().Int("question", m.index).Str("question_id", q.ID).Msg("question opened")
	m.emitLocked(Event{Type: EventQuestion})

	m.scheduleTickLocked()
	epoch := m.epoch
	t := m.sim.Schedule(m.clock, m.pending, func(OpponentAnswer) {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.epoch != epoch || m.phase != PhaseQuestion {
			return
		}
		m.opponentArrivedLocked()
	})
	m.timers = append(m.timers, t)
}

func (m *Match) opponentArrivedLocked() {
	if m.opponentAnswered {
		return
	}
	m.opponentAnswered = true
	m.logger.Debug().Int("question", m.index).Msg("opponent answered")
	m.emitLocked(Event{Type: EventOpponentAnswered})
}

func (m *Match) scheduleTickLocked() {
	next := time.Second
	if remaining := m.remainingLocked(); remaining < next {
		next = remaining
	}
	m.scheduleLocked(next, m.questionTickLocked)
}

func (m *Match) questionTickLocked() {
	if m.phase != PhaseQuestion {
		return
	}
	if m.remainingLocked() <= 0 {
		m.timeoutLocked()
		return
	}
	m.emitLocked(Event{Type: EventQuestionTick})
	m.scheduleTickLocked()
}

func (m *Match) timeoutLocked() {
	q := m.questions[m.index]
	m.enterAnswerLocked(AnswerRecord{
		QuestionID:          q.ID,
		OptionIndex:         -1,
		Correct:             false,
		ResponseTimeSeconds: m.window.Seconds(),
		TimedOut:            true,
	}, scoring.Award{})
}

// enterAnswerLocked commits both sides' records for the current question and
// opens the reveal pause. An opponent that had not answered by a timeout is
// recorded as a wrong answer at the full window; otherwise its drawn answer
// stands, even if its display delay had not elapsed yet.
func (m *Match) enterAnswerLocked(player AnswerRecord, award scoring.Award) {
	m.bumpEpochLocked()
	q := m.questions[m.index]

	m.playerScore += award.Total
	m.playerStreak = scoring.NextStreak(m.playerStreak, player.Correct)
	m.playerAnswers = append(m.playerAnswers, player)

	var opp AnswerRecord
	if m.opponentAnswered || !player.TimedOut {
		opp = AnswerRecord{
			QuestionID:          q.ID,
			OptionIndex:         m.pending.OptionIndex,
			Correct:             m.pending.Correct,
			ResponseTimeSeconds: m.pending.ResponseTimeSeconds,
		}
	} else {
		opp = AnswerRecord{
			QuestionID:          q.ID,
			OptionIndex:         -1,
			Correct:             false,
			ResponseTimeSeconds: m.window.Seconds(),
			TimedOut:            true,
		}
	}
	opp.Points = m.scoring.OpponentScore(opp.Correct, opp.ResponseTimeSeconds)
	m.opponentScore += opp.Points
	m.opponentStreak = scoring.NextStreak(m.opponentStreak, opp.Correct)
	m.opponentAnswers = append(m.opponentAnswers, opp)
	m.opponentAnswered = true

	m.phase = PhaseAnswer
	m.logger.Debug().
		Int("question", m.index).
		Bool("correct", player.Correct).
		Bool("timed_out", player.TimedOut).
		Int("points", award.Total).
		Msg("answer revealed")

	m.emitLocked(Event{Type: EventAnswerReveal, Reveal: &Reveal{
		QuestionIndex:  m.index,
		CorrectIndex:   q.CorrectIndex,
		Explanation:    q.Explanation,
		PlayerAnswer:   player,
		PlayerAward:    award,
		OpponentAnswer: opp,
	}})
	m.scheduleLocked(m.timings.RevealDuration, m.advanceLocked)
}

func (m *Match) advanceLocked() {
	if m.index >= len(m.questions)-1 {
		m.completeLocked()
		return
	}
	m.index++
	m.enterQuestionLocked()
}

func (m *Match) completeLocked() {
	m.bumpEpochLocked()
	m.phase = PhaseComplete

	res, err := ComputeResults(m.snapshotLocked(), m.clock.Now())
	if err != nil {
		m.logger.Error().Err(err).Msg("compute results")
		return
	}
	m.results = &res
	m.logger.Info().
		Int("player_score", res.PlayerScore).
		Int("opponent_score", res.OpponentScore).
		Str("outcome", res.Outcome).
		Msg("match complete")
	m.emitLocked(Event{Type: EventMatchComplete, Results: &res})
}

// scheduleLocked runs fn under the lock after d, unless the epoch has changed.
func (m *Match) scheduleLocked(d time.Duration, fn func()) {
	epoch := m.epoch
	t := m.clock.AfterFunc(d, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.epoch != epoch {
			return
		}
		fn()
	})
	m.timers = append(m.timers, t)
}

func (m *Match) bumpEpochLocked() {
	m.epoch++
	for _, t := range m.timers {
		t.Stop()
	}
	m.timers = m.timers[:0]
}

func (m *Match) remainingLocked() time.Duration {
	return m.window - m.clock.Now().Sub(m.questionStart)
}

func (m *Match) isRemovedLocked(option int) bool {
	for _, r := range m.removed {
		if r == option {
			return true
		}
	}
	return false
}

func (m *Match) emitLocked(e Event) {
	e.State = m.snapshotLocked()
	if m.notify != nil {
		m.notify.Notify(e)
	}
}

func (m *Match) snapshotLocked() State {
	s := State{
		MatchID:              m.id.String(),
		PlayerID:             m.playerID,
		Phase:                m.phase,
		Config:               m.cfg,
		Opponent:             m.opponent,
		CurrentQuestionIndex: m.index,
		TotalQuestions:       len(m.questions),
		CountdownRemaining:   m.countdown,
		PlayerScore:          m.playerScore,
		OpponentScore:        m.opponentScore,
		PlayerStreak:         m.playerStreak,
		OpponentStreak:       m.opponentStreak,
		PlayerAnswers:        append([]AnswerRecord{}, m.playerAnswers...),
		OpponentAnswers:      append([]AnswerRecord{}, m.opponentAnswers...),
		OpponentAnswered:     m.opponentAnswered,
		PowerUpsRemaining:    []PowerUp{},
	}
	for _, pu := range AllPowerUps {
		if m.available[pu] {
			s.PowerUpsRemaining = append(s.PowerUpsRemaining, pu)
		}
	}
	if m.selected != nil {
		sel := *m.selected
		s.SelectedAnswerIndex = &sel
	}
	if m.peeked {
		opt := m.pending.OptionIndex
		s.PeekedOption = &opt
	}
	if m.phase == PhaseQuestion {
		left := math.Ceil(m.remainingLocked().Seconds())
		if left < 0 {
			left = 0
		}
		s.TimeLeftSeconds = int(left)
	}
	if m.phase == PhaseQuestion || m.phase == PhaseAnswer {
		q := m.questions[m.index]
		s.Question = &QuestionView{
			ID:             q.ID,
			Index:          m.index,
			Text:           q.Text,
			Options:        append([]string(nil), q.Options...),
			RemovedOptions: append([]int(nil), m.removed...),
			Category:       q.Category,
			Difficulty:     q.Difficulty,
		}
	}
	return s
}
