// Package input provides the immutable input text handed to OOV plugins.
// The text is assumed to be valid UTF-8; no validation is done here.
package input

import (
	"unicode/utf8"

	"github.com/platinummonkey/morph/pkg/dic"
	"golang.org/x/text/unicode/norm"
)

// Text is an analyzed input string with per-byte character categories and
// word-beginning marks. It is safe for concurrent reads.
type Text struct {
	text       string
	categories []dic.CategoryType // category of the character covering each byte
	canBow     []bool             // true where a word may begin
}

// New builds a Text. A nil category table makes every character DEFAULT.
func New(s string, category *dic.CharacterCategory) *Text {
	if category == nil {
		category = dic.NewCharacterCategory()
	}

	t := &Text{
		text:       s,
		categories: make([]dic.CategoryType, len(s)),
		canBow:     make([]bool, len(s)),
	}

	var prev dic.CategoryType
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		typ := category.Categories(r)
		for j := i; j < i+size; j++ {
			t.categories[j] = typ
		}
		t.canBow[i] = canBeginWord(i, typ, prev)
		prev = typ
		i += size
	}

	return t
}

// Normalize applies NFKC normalization. Offsets into a Text built from the
// result refer to the normalized string.
func Normalize(s string) string {
	return norm.NFKC.String(s)
}

func canBeginWord(offset int, typ, prev dic.CategoryType) bool {
	if offset == 0 {
		return true
	}
	if typ.Intersects(dic.CategoryNoOOVBOW) {
		return false
	}
	if typ.Intersects(dic.CategoryAlpha|dic.CategoryGreek|dic.CategoryCyrillic) && typ.Intersects(prev) {
		return false
	}
	return true
}

// String returns the whole text
func (t *Text) String() string {
	return t.text
}

// Len returns the byte length of the text
func (t *Text) Len() int {
	return len(t.text)
}

// Slice returns text[begin:end]
func (t *Text) Slice(begin, end int) string {
	return t.text[begin:end]
}

// IsCharBoundary reports whether offset starts a character or is the end of the text
func (t *Text) IsCharBoundary(offset int) bool {
	if offset == len(t.text) {
		return true
	}
	if offset < 0 || offset > len(t.text) {
		return false
	}
	return utf8.RuneStart(t.text[offset])
}

// CanBeginWord reports whether a word may start at offset
func (t *Text) CanBeginWord(offset int) bool {
	if offset < 0 || offset >= len(t.text) {
		return false
	}
	return t.canBow[offset] && t.IsCharBoundary(offset)
}

// CategoryTypes returns the category set of the character at offset
func (t *Text) CategoryTypes(offset int) dic.CategoryType {
	if offset < 0 || offset >= len(t.text) {
		return 0
	}
	return t.categories[offset]
}

// WordCandidateLength returns the byte distance from offset to the next
// position where a word may begin, or to the end of the text.
func (t *Text) WordCandidateLength(offset int) int {
	for i := offset + 1; i < len(t.text); i++ {
		if t.CanBeginWord(i) {
			return i - offset
		}
	}
	return len(t.text) - offset
}

// ContinuousCategoryLength returns the byte length of the run starting at
// offset whose characters share at least one category.
func (t *Text) ContinuousCategoryLength(offset int) int {
	if offset < 0 || offset >= len(t.text) {
		return 0
	}

	common := t.categories[offset]
	i := offset
	for i < len(t.text) {
		common &= t.categories[i]
		if common == 0 {
			break
		}
		_, size := utf8.DecodeRuneInString(t.text[i:])
		i += size
	}
	return i - offset
}

// CodePointsOffsetLength returns the byte length of the next n code points
// from offset, clamped to the end of the text.
func (t *Text) CodePointsOffsetLength(offset, n int) int {
	i := offset
	for k := 0; k < n && i < len(t.text); k++ {
		_, size := utf8.DecodeRuneInString(t.text[i:])
		i += size
	}
	return i - offset
}

// CharOffsets returns the byte offset of every character start
func (t *Text) CharOffsets() []int {
	offsets := make([]int, 0, utf8.RuneCountInString(t.text))
	for i := range t.text {
		offsets = append(offsets, i)
	}
	return offsets
}
