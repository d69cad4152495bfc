package question

import "errors"

// Difficulty constants for readability.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// OptionCount is the number of options every multiple-choice question carries.
const OptionCount = 4

// MinDifficultyPool is the smallest difficulty-filtered pool used before falling
// back to the whole category.
const MinDifficultyPool = 3

var (
	// ErrCategoryEmpty means the requested category has no questions at all.
	ErrCategoryEmpty = errors.New("category has no questions")
	// ErrInvalidCatalog is returned when catalog data fails validation on load.
	ErrInvalidCatalog = errors.New("invalid question catalog")
)

// Question is an immutable multiple-choice question from the catalog.
type Question struct {
	ID           string   `yaml:"id" json:"id"`
	Text         string   `yaml:"text" json:"text"`
	Options      []string `yaml:"options" json:"options"`
	CorrectIndex int      `yaml:"correct_index" json:"correct_index"`
	Explanation  string   `yaml:"explanation" json:"explanation"`
	Category     string   `yaml:"-" json:"category"`
	Difficulty   string   `yaml:"difficulty" json:"difficulty"`
}

// IsCorrect reports whether optionIndex is the right answer.
func (q Question) IsCorrect(optionIndex int) bool {
	return optionIndex == q.CorrectIndex
}

// IncorrectIndexes lists option indexes that are not the right answer.
func (q Question) IncorrectIndexes() []int {
	out := make([]int, 0, len(q.Options)-1)
	for i := range q.Options {
		if i != q.CorrectIndex {
			out = append(out, i)
		}
	}
	return out
}

// CategorySummary describes a category for selection screens.
type CategorySummary struct {
	Name         string         `json:"name"`
	Label        string         `json:"label"`
	Total        int            `json:"total"`
	ByDifficulty map[string]int `json:"by_difficulty"`
}

// ValidDifficulty reports whether d is one of the supported difficulties.
func ValidDifficulty(d string) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}
