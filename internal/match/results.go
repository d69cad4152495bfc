package match

import (
	"fmt"
	"time"
)

const (
	xpWin   = 50
	xpOther = 20
)

// ComputeResults reduces a finished match snapshot into its summary.
func ComputeResults(s State, completedAt time.Time) (Results, error) {
	if len(s.PlayerAnswers) == 0 {
		return Results{}, fmt.Errorf("match %s: %w", s.MatchID, ErrNoAnswers)
	}

	r := Results{
		MatchID:         s.MatchID,
		PlayerID:        s.PlayerID,
		Category:        s.Config.Category,
		Difficulty:      s.Config.Difficulty,
		Opponent:        s.Opponent,
		PlayerScore:     s.PlayerScore,
		OpponentScore:   s.OpponentScore,
		TotalQuestions:  s.TotalQuestions,
		PlayerAnswers:   append([]AnswerRecord(nil), s.PlayerAnswers...),
		OpponentAnswers: append([]AnswerRecord(nil), s.OpponentAnswers...),
		CompletedAt:     completedAt,
	}

	r.IsWinner = s.PlayerScore > s.OpponentScore
	r.IsDraw = s.PlayerScore == s.OpponentScore
	switch {
	case r.IsWinner:
		r.Outcome = OutcomeWin
	case r.IsDraw:
		r.Outcome = OutcomeDraw
	default:
		r.Outcome = OutcomeLoss
	}

	var total float64
	r.FastestAnswer = s.PlayerAnswers[0].ResponseTimeSeconds
	for _, a := range s.PlayerAnswers {
		total += a.ResponseTimeSeconds
		if a.ResponseTimeSeconds < r.FastestAnswer {
			r.FastestAnswer = a.ResponseTimeSeconds
		}
		if a.Correct {
			r.PlayerCorrect++
		}
	}
	r.AverageResponseTime = total / float64(len(s.PlayerAnswers))
	r.Accuracy = float64(r.PlayerCorrect) / float64(len(s.PlayerAnswers))

	for _, a := range s.OpponentAnswers {
		if a.Correct {
			r.OpponentCorrect++
		}
	}
	r.PlayerMaxStreak = MaxStreak(s.PlayerAnswers)
	r.OpponentMaxStreak = MaxStreak(s.OpponentAnswers)

	r.XPEarned = xpOther
	if r.IsWinner {
		r.XPEarned = xpWin
	}
	if s.Config.Wager {
		switch r.Outcome {
		case OutcomeWin:
			r.WagerDelta = s.Config.StakeAmount
		case OutcomeLoss:
			r.WagerDelta = -s.Config.StakeAmount
		}
	}
	return r, nil
}

// MaxStreak is the longest run of consecutive correct answers.
func MaxStreak(answers []AnswerRecord) int {
	best, run := 0, 0
	for _, a := range answers {
		if !a.Correct {
			run = 0
			continue
		}
		run++
		if run > best {
			best = run
		}
	}
	return best
}
