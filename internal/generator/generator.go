// Package generator produces the random display values given to newly enrolled faces.
package generator

import (
	_ "embed"
	"fmt"
	"math/rand/v2"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed wordlists.yaml
var wordListsYAML []byte

// MaxDrinks is the exclusive upper bound of the generated drink count (0..8 drinks).
const MaxDrinks = 10 - 1

// WordLists holds the name and drink vocabularies.
type WordLists struct {
	Names  []string `yaml:"names"`
	Drinks []string `yaml:"drinks"`
}

var (
	defaultLists     WordLists
	defaultListsOnce sync.Once
)

// DefaultWordLists returns the embedded word lists.
func DefaultWordLists() WordLists {
	defaultListsOnce.Do(func() {
		if err := yaml.Unmarshal(wordListsYAML, &defaultLists); err != nil {
			// Embedded at build time, a parse failure is a programming bug.
			panic("failed to unmarshal embedded wordlists.yaml: " + err.Error())
		}
	})
	return defaultLists
}

// Generator picks names and drinks from fixed word lists.
// It is safe for concurrent use.
type Generator struct {
	mu    sync.Mutex
	rng   *rand.Rand
	lists WordLists
}

// New creates a generator drawing from src with the embedded word lists.
// A nil src uses a randomly seeded PCG source.
func New(src rand.Source) *Generator {
	g, _ := NewWithLists(src, DefaultWordLists())
	return g
}

// NewWithLists creates a generator with custom word lists.
func NewWithLists(src rand.Source, lists WordLists) (*Generator, error) {
	if len(lists.Names) == 0 {
		return nil, fmt.Errorf("name list is empty")
	}
	if len(lists.Drinks) == 0 {
		return nil, fmt.Errorf("drink list is empty")
	}
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Generator{rng: rand.New(src), lists: lists}, nil
}

// Lists returns the word lists the generator draws from.
func (g *Generator) Lists() WordLists {
	return g.lists
}

// Name returns a uniformly chosen name.
func (g *Generator) Name() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lists.Names[g.rng.IntN(len(g.lists.Names))]
}

// Drinks returns between 0 and MaxDrinks-1 drinks picked independently with replacement.
func (g *Generator) Drinks() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	count := g.rng.IntN(MaxDrinks)
	drinks := make([]string, 0, count)
	for range count {
		drinks = append(drinks, g.lists.Drinks[g.rng.IntN(len(g.lists.Drinks))])
	}
	return drinks
}
