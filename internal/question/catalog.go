package question

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type catalogFile struct {
	Categories []categoryFile `yaml:"categories"`
}

type categoryFile struct {
	Name      string     `yaml:"name"`
	Label     string     `yaml:"label"`
	Questions []Question `yaml:"questions"`
}

// Catalog is the read-only question bank keyed by category.
type Catalog struct {
	order     []string
	labels    map[string]string
	questions map[string][]Question
}

// Default returns the catalog bundled with the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from path. An empty path yields the bundled catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML catalog data.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	c := &Catalog{
		labels:    make(map[string]string, len(file.Categories)),
		questions: make(map[string][]Question, len(file.Categories)),
	}
	seenIDs := make(map[string]struct{})

	for _, cat := range file.Categories {
		name := strings.TrimSpace(cat.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: category without name", ErrInvalidCatalog)
		}
		if _, dup := c.questions[name]; dup {
			return nil, fmt.Errorf("%w: duplicate category %q", ErrInvalidCatalog, name)
		}

		list := make([]Question, 0, len(cat.Questions))
		for _, q := range cat.Questions {
			q.Category = name
			if err := validateQuestion(q); err != nil {
				return nil, err
			}
			if _, dup := seenIDs[q.ID]; dup {
				return nil, fmt.Errorf("%w: duplicate question id %q", ErrInvalidCatalog, q.ID)
			}
			seenIDs[q.ID] = struct{}{}
			list = append(list, q)
		}

		label := cat.Label
		if label == "" {
			label = name
		}
		c.order = append(c.order, name)
		c.labels[name] = label
		c.questions[name] = list
	}

	if len(c.order) == 0 {
		return nil, fmt.Errorf("%w: no categories", ErrInvalidCatalog)
	}
	return c, nil
}

func validateQuestion(q Question) error {
	switch {
	case q.ID == "":
		return fmt.Errorf("%w: question in %q has no id", ErrInvalidCatalog, q.Category)
	case strings.TrimSpace(q.Text) == "":
		return fmt.Errorf("%w: question %q has no text", ErrInvalidCatalog, q.ID)
	case len(q.Options) != OptionCount:
		return fmt.Errorf("%w: question %q has %d options, want %d", ErrInvalidCatalog, q.ID, len(q.Options), OptionCount)
	case q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options):
		return fmt.Errorf("%w: question %q correct index %d out of range", ErrInvalidCatalog, q.ID, q.CorrectIndex)
	case !ValidDifficulty(q.Difficulty):
		return fmt.Errorf("%w: question %q has unknown difficulty %q", ErrInvalidCatalog, q.ID, q.Difficulty)
	}
	return nil
}

// Questions returns a copy of the category's questions in catalog order.
func (c *Catalog) Questions(category string) []Question {
	list := c.questions[category]
	out := make([]Question, len(list))
	copy(out, list)
	return out
}

// HasCategory reports whether the catalog knows category.
func (c *Catalog) HasCategory(category string) bool {
	_, ok := c.questions[category]
	return ok
}

// Categories summarises every category sorted by name.
func (c *Catalog) Categories() []CategorySummary {
	out := make([]CategorySummary, 0, len(c.order))
	for _, name := range c.order {
		summary := CategorySummary{
			Name:         name,
			Label:        c.labels[name],
			Total:        len(c.questions[name]),
			ByDifficulty: map[string]int{DifficultyEasy: 0, DifficultyMedium: 0, DifficultyHard: 0},
		}
		for _, q := range c.questions[name] {
			summary.ByDifficulty[q.Difficulty]++
		}
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
