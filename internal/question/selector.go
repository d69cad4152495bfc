package question

import (
	"fmt"
	"math/rand"
)

// Shuffler permutes n elements. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

type globalShuffler struct{}

func (globalShuffler) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// Select picks count questions for a match. The category is filtered by exact
// difficulty; when fewer than MinDifficultyPool questions match, the whole
// category is used instead. The pool is shuffled and then truncated, so the
// result may be shorter than count for small categories.
func (c *Catalog) Select(rng Shuffler, category, difficulty string, count int) ([]Question, error) {
	all := c.questions[category]
	if len(all) == 0 {
		return nil, fmt.Errorf("select %q: %w", category, ErrCategoryEmpty)
	}
	if rng == nil {
		rng = globalShuffler{}
	}

	pool := make([]Question, 0, len(all))
	for _, q := range all {
		if q.Difficulty == difficulty {
			pool = append(pool, q)
		}
	}
	if len(pool) < MinDifficultyPool {
		pool = append(pool[:0], all...)
	}

	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	if count >= 0 && count < len(pool) {
		pool = pool[:count]
	}
	return pool, nil
}
