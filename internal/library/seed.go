package library

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jackzampolin/bookwatch/internal/types"
)

// Seed is the YAML document loaded by `bookwatch serve --seed`.
type Seed struct {
	Models []types.ModelInfo `yaml:"models"`
	Books  []BookSeed        `yaml:"books"`
}

// LoadSeedFile reads a seed file into the store.
func (s *Store) LoadSeedFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}
	return s.LoadSeed(data)
}

// LoadSeed adds the seed's books and, if present, replaces the model
// catalog. Unknown fields are rejected.
func (s *Store) LoadSeed(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var seed Seed
	if err := dec.Decode(&seed); err != nil {
		return fmt.Errorf("failed to parse seed: %w", err)
	}
	if len(seed.Models) > 0 {
		s.SetModels(seed.Models)
	}
	for i, b := range seed.Books {
		if _, err := s.AddBook(b); err != nil {
			return fmt.Errorf("seed book %d: %w", i, err)
		}
	}
	return nil
}

// DemoSeed is loaded when serve runs without a seed file.
const DemoSeed = `
books:
  - id: demo
    filename: the-lighthouse.epub
    target_language: german
    sections:
      - id: ch1
        title: The Keeper
        headings: [Night Watch]
        text: |
          The keeper climbed the stairs at dusk.

          **Every** night he lit the lamp, and *every* morning he put it out.
      - id: ch2
        title: The Storm
        text: |
          Wind came off the sea for three days.
      - id: ch3
        title: Letters
        fail_with: error_context_limit
        text: |
          A bundle of letters, too long to read in one sitting.
      - id: ch4
        title: Blank Page
        text: ""
`
