package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gokatarajesh/quiz-battle/internal/clock"
	"github.com/gokatarajesh/quiz-battle/internal/logging"
	"github.com/gokatarajesh/quiz-battle/internal/match"
	"github.com/gokatarajesh/quiz-battle/internal/match/queue"
	"github.com/gokatarajesh/quiz-battle/internal/question"
)

const simPlayerID = "sim-player"

type simOptions struct {
	Category   string
	Difficulty string
	Questions  int
	Accuracy   float64
	MinDelay   time.Duration
	MaxDelay   time.Duration
	Bot        bool
	Matches    int
	Seed       int64
	Verbose    bool
}

type simReport struct {
	Wins         int             `json:"wins"`
	Losses       int             `json:"losses"`
	Draws        int             `json:"draws"`
	AverageScore float64         `json:"average_score"`
	Matches      []match.Results `json:"matches"`
}

func newSimulateCmd(catalogPath *string) *cobra.Command {
	opts := simOptions{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play headless matches with a scripted player and print the results as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := question.Load(*catalogPath)
			if err != nil {
				return err
			}
			logger := zerolog.Nop()
			if opts.Verbose {
				logger = logging.WithLevel(logging.New("quizbattle-sim", "development"), "debug")
			}
			report, err := simulate(cmd.Context(), catalog, opts, logger)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), report)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Category, "category", "crypto", "question category")
	f.StringVar(&opts.Difficulty, "difficulty", question.DifficultyMedium, "easy, medium or hard")
	f.IntVar(&opts.Questions, "questions", 5, "questions per match (3, 5 or 7)")
	f.Float64Var(&opts.Accuracy, "accuracy", 0.7, "probability the scripted player answers correctly")
	f.DurationVar(&opts.MinDelay, "min-delay", time.Second, "fastest scripted answer")
	f.DurationVar(&opts.MaxDelay, "max-delay", 6*time.Second, "slowest scripted answer")
	f.BoolVar(&opts.Bot, "bot", true, "play against a bot rather than a simulated human")
	f.IntVar(&opts.Matches, "matches", 1, "number of matches to play")
	f.Int64Var(&opts.Seed, "seed", time.Now().UnixNano(), "random seed")
	f.BoolVar(&opts.Verbose, "verbose", false, "log engine transitions to stdout")
	return cmd
}

func writeReport(out io.Writer, report simReport) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// simulate drives matches on a manual clock. The player answers each question
// after a random delay, correctly with probability opts.Accuracy.
func simulate(ctx context.Context, catalog *question.Catalog, opts simOptions, logger zerolog.Logger) (simReport, error) {
	if opts.Matches < 1 {
		return simReport{}, errors.New("matches must be at least 1")
	}
	if opts.Accuracy < 0 || opts.Accuracy > 1 {
		return simReport{}, errors.New("accuracy must be within [0,1]")
	}
	if opts.MaxDelay < opts.MinDelay {
		opts.MaxDelay = opts.MinDelay
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	clk := clock.NewManual(time.Unix(0, 0).UTC())
	svc := match.NewService(catalog, clk, match.NewMemoryResultsStore(clk, time.Hour), nil, match.ServiceOptions{
		NewRand: func() match.Rand { return rand.New(rand.NewSource(rng.Int63())) },
	}, logger)

	byID := make(map[string]question.Question)
	for _, q := range catalog.Questions(opts.Category) {
		byID[q.ID] = q
	}

	cfg := match.MatchConfig{
		Category:      opts.Category,
		Difficulty:    opts.Difficulty,
		QuestionCount: opts.Questions,
	}

	report := simReport{Matches: make([]match.Results, 0, opts.Matches)}
	total := 0
	for i := 0; i < opts.Matches; i++ {
		res, err := playOne(ctx, svc, clk, rng, byID, cfg, opts)
		if err != nil {
			return simReport{}, fmt.Errorf("match %d: %w", i+1, err)
		}
		switch res.Outcome {
		case match.OutcomeWin:
			report.Wins++
		case match.OutcomeLoss:
			report.Losses++
		default:
			report.Draws++
		}
		total += res.PlayerScore
		report.Matches = append(report.Matches, res)
	}
	report.AverageScore = float64(total) / float64(opts.Matches)
	return report, nil
}

func playOne(ctx context.Context, svc *match.Service, clk *clock.Manual, rng *rand.Rand, byID map[string]question.Question, cfg match.MatchConfig, opts simOptions) (match.Results, error) {
	var results *match.Results
	notify := match.NotifierFunc(func(e match.Event) {
		if e.Type == match.EventMatchComplete {
			r := *e.Results
			results = &r
		}
	})

	c := queue.GenerateOpponent(rng, opts.Bot)
	opp := match.Opponent{
		ID:          c.ID,
		DisplayName: c.DisplayName,
		IsBot:       c.IsBot,
		Rating:      c.Rating,
		WinStreak:   c.WinStreak,
		Address:     c.Address,
	}

	id, err := svc.StartMatch(ctx, simPlayerID, cfg, opp, notify)
	if err != nil {
		return match.Results{}, err
	}

	answered := -1
	// every question needs at most window + reveal seconds; the bound only guards bugs
	for steps := 0; results == nil; steps++ {
		if steps > 10000 {
			return match.Results{}, errors.New("match did not finish")
		}
		st, err := svc.Snapshot(simPlayerID, id)
		if err != nil {
			break // finished between steps
		}
		if st.Phase != match.PhaseQuestion || st.Question == nil || answered == st.CurrentQuestionIndex {
			clk.Advance(time.Second)
			continue
		}

		answered = st.CurrentQuestionIndex
		delay := opts.MinDelay + time.Duration(rng.Float64()*float64(opts.MaxDelay-opts.MinDelay))
		clk.Advance(delay)

		q, ok := byID[st.Question.ID]
		if !ok {
			return match.Results{}, fmt.Errorf("question %s not in catalog", st.Question.ID)
		}
		if _, err := svc.SubmitAnswer(ctx, simPlayerID, id, pickOption(rng, q, opts.Accuracy)); err != nil && !errors.Is(err, match.ErrMatchNotFound) {
			return match.Results{}, err
		}
	}

	if results == nil {
		return match.Results{}, errors.New("match ended without results")
	}
	// drop the stored copy
	_, _ = svc.TakeResults(ctx, simPlayerID, id)
	return *results, nil
}

func pickOption(rng *rand.Rand, q question.Question, accuracy float64) int {
	if rng.Float64() < accuracy {
		return q.CorrectIndex
	}
	wrong := q.IncorrectIndexes()
	return wrong[rng.Intn(len(wrong))]
}
