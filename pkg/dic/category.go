package dic

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// CategoryType is a bit set of character categories
type CategoryType uint32

const (
	CategoryDefault CategoryType = 1 << iota
	CategorySpace
	CategoryKanji
	CategorySymbol
	CategoryNumeric
	CategoryAlpha
	CategoryHiragana
	CategoryKatakana
	CategoryKanjiNumeric
	CategoryGreek
	CategoryCyrillic
	CategoryUser1
	CategoryUser2
	CategoryUser3
	CategoryUser4
	CategoryNoOOVBOW
)

var categoryNames = []struct {
	name string
	typ  CategoryType
}{
	{"DEFAULT", CategoryDefault},
	{"SPACE", CategorySpace},
	{"KANJI", CategoryKanji},
	{"SYMBOL", CategorySymbol},
	{"NUMERIC", CategoryNumeric},
	{"ALPHA", CategoryAlpha},
	{"HIRAGANA", CategoryHiragana},
	{"KATAKANA", CategoryKatakana},
	{"KANJINUMERIC", CategoryKanjiNumeric},
	{"GREEK", CategoryGreek},
	{"CYRILLIC", CategoryCyrillic},
	{"USER1", CategoryUser1},
	{"USER2", CategoryUser2},
	{"USER3", CategoryUser3},
	{"USER4", CategoryUser4},
	{"NOOOVBOW", CategoryNoOOVBOW},
}

// ParseCategoryType parses a single category name such as "KANJI"
func ParseCategoryType(name string) (CategoryType, error) {
	upper := strings.ToUpper(name)
	for _, c := range categoryNames {
		if c.name == upper {
			return c.typ, nil
		}
	}
	return 0, NewUnknownCategoryError(name)
}

// Has reports whether all bits of other are set
func (c CategoryType) Has(other CategoryType) bool {
	return c&other == other
}

// Intersects reports whether any bit of other is set
func (c CategoryType) Intersects(other CategoryType) bool {
	return c&other != 0
}

// Each calls fn for every single category contained in the set, in bit order
func (c CategoryType) Each(fn func(CategoryType)) {
	for _, cn := range categoryNames {
		if c&cn.typ != 0 {
			fn(cn.typ)
		}
	}
}

func (c CategoryType) String() string {
	var parts []string
	c.Each(func(t CategoryType) {
		for _, cn := range categoryNames {
			if cn.typ == t {
				parts = append(parts, cn.name)
			}
		}
	})
	return strings.Join(parts, "|")
}

type categoryRange struct {
	low, high  rune
	categories CategoryType
}

// CharacterCategory maps code points to category sets, as defined by a char.def file
type CharacterCategory struct {
	ranges []categoryRange
}

// NewCharacterCategory creates an empty table where every character is DEFAULT
func NewCharacterCategory() *CharacterCategory {
	return &CharacterCategory{}
}

// LoadCharacterCategory reads a char.def file
func LoadCharacterCategory(path string) (*CharacterCategory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open character definition: %w", err)
	}
	defer f.Close()

	return ParseCharacterCategory(f)
}

// ParseCharacterCategory parses char.def range lines ("0x0030..0x0039 NUMERIC").
// Category definition lines ("DEFAULT 0 1 0") and comments are skipped.
func ParseCharacterCategory(r io.Reader) (*CharacterCategory, error) {
	c := &CharacterCategory{}
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := stripComment(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "0x") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, newCharDefError(lineNo, "missing category for %q", line)
		}

		low, high, err := parseCodePointRange(fields[0])
		if err != nil {
			return nil, newCharDefError(lineNo, "%v", err)
		}

		var categories CategoryType
		for _, name := range fields[1:] {
			typ, err := ParseCategoryType(name)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			categories |= typ
		}

		c.ranges = append(c.ranges, categoryRange{low: low, high: high, categories: categories})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read character definition: %w", err)
	}

	return c, nil
}

// Categories returns the category set of a code point. Characters not covered
// by any range are DEFAULT.
func (c *CharacterCategory) Categories(r rune) CategoryType {
	var result CategoryType
	for _, cr := range c.ranges {
		if r >= cr.low && r <= cr.high {
			result |= cr.categories
		}
	}
	if result == 0 {
		return CategoryDefault
	}
	return result
}

func parseCodePointRange(s string) (rune, rune, error) {
	lowStr, highStr, isRange := strings.Cut(s, "..")
	low, err := parseCodePoint(lowStr)
	if err != nil {
		return 0, 0, err
	}
	if !isRange {
		return low, low, nil
	}
	high, err := parseCodePoint(highStr)
	if err != nil {
		return 0, 0, err
	}
	if high < low {
		return 0, 0, fmt.Errorf("range %s is reversed", s)
	}
	return low, high, nil
}

func parseCodePoint(s string) (rune, error) {
	if !strings.HasPrefix(s, "0x") {
		return 0, fmt.Errorf("code point %q must start with 0x", s)
	}
	v, err := strconv.ParseUint(s[2:], 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid code point %q: %w", s, err)
	}
	return rune(v), nil
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}
