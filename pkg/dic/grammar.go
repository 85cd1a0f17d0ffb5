// Package dic provides the read-only dictionary collaborators consulted by
// plugins during setup: the part-of-speech table and the character category
// table.
package dic

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// POSDepth is the number of levels of a part of speech
const POSDepth = 6

// POS is a part of speech, e.g. ["名詞", "普通名詞", "一般", "*", "*", "*"]
type POS []string

func (p POS) String() string {
	return strings.Join(p, ",")
}

// Grammar is the part-of-speech table of a dictionary. It is immutable once built.
type Grammar struct {
	partsOfSpeech []POS
	index         map[string]uint16
	category      *CharacterCategory
}

type grammarFile struct {
	PartsOfSpeech []POS `yaml:"partsOfSpeech"`
}

// NewGrammar creates a grammar from an ordered part-of-speech list. The
// position in the list is the part-of-speech id.
func NewGrammar(partsOfSpeech []POS) (*Grammar, error) {
	g := &Grammar{
		partsOfSpeech: make([]POS, 0, len(partsOfSpeech)),
		index:         make(map[string]uint16, len(partsOfSpeech)),
	}

	for i, pos := range partsOfSpeech {
		if len(pos) != POSDepth {
			return nil, fmt.Errorf("%w: entry %d has %d levels, want %d", ErrInvalidPOS, i, len(pos), POSDepth)
		}
		key := pos.String()
		if _, exists := g.index[key]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePOS, key)
		}
		g.index[key] = uint16(i)
		g.partsOfSpeech = append(g.partsOfSpeech, append(POS(nil), pos...))
	}

	return g, nil
}

// LoadGrammar reads a YAML grammar file
func LoadGrammar(path string) (*Grammar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read grammar: %w", err)
	}

	var file grammarFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse grammar: %w", err)
	}

	return NewGrammar(file.PartsOfSpeech)
}

// PartOfSpeechID returns the id of a part of speech
func (g *Grammar) PartOfSpeechID(pos POS) (uint16, bool) {
	id, ok := g.index[pos.String()]
	return id, ok
}

// PartOfSpeech returns the part of speech for an id
func (g *Grammar) PartOfSpeech(id uint16) (POS, bool) {
	if int(id) >= len(g.partsOfSpeech) {
		return nil, false
	}
	return g.partsOfSpeech[id], true
}

// PartOfSpeechCount returns the number of parts of speech
func (g *Grammar) PartOfSpeechCount() int {
	return len(g.partsOfSpeech)
}

// WithCharacterCategory returns a copy of the grammar carrying the character category table
func (g *Grammar) WithCharacterCategory(c *CharacterCategory) *Grammar {
	clone := *g
	clone.category = c
	return &clone
}

// CharacterCategory returns the character category table, or nil if none was attached
func (g *Grammar) CharacterCategory() *CharacterCategory {
	return g.category
}
