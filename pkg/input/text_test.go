package input

import (
	"strings"
	"testing"

	"github.com/platinummonkey/morph/pkg/dic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCharDef = `
0x0030..0x0039 NUMERIC
0x0041..0x005A ALPHA
0x0061..0x007A ALPHA
0x3041..0x309F HIRAGANA
0x4E00..0x9FFF KANJI
`

func testCategory(t *testing.T) *dic.CharacterCategory {
	t.Helper()
	c, err := dic.ParseCharacterCategory(strings.NewReader(testCharDef))
	require.NoError(t, err)
	return c
}

func TestText_Basics(t *testing.T) {
	text := New("abc漢字", testCategory(t))

	assert.Equal(t, 9, text.Len())
	assert.Equal(t, "abc漢字", text.String())
	assert.Equal(t, "漢", text.Slice(3, 6))
	assert.Equal(t, []int{0, 1, 2, 3, 6}, text.CharOffsets())

	assert.True(t, text.IsCharBoundary(3))
	assert.False(t, text.IsCharBoundary(4))
	assert.True(t, text.IsCharBoundary(9))
	assert.False(t, text.IsCharBoundary(10))
}

func TestText_CategoryTypes(t *testing.T) {
	text := New("a1漢", testCategory(t))

	assert.Equal(t, dic.CategoryAlpha, text.CategoryTypes(0))
	assert.Equal(t, dic.CategoryNumeric, text.CategoryTypes(1))
	assert.Equal(t, dic.CategoryKanji, text.CategoryTypes(2))
	assert.Equal(t, dic.CategoryKanji, text.CategoryTypes(4))
	assert.Equal(t, dic.CategoryType(0), text.CategoryTypes(5))
}

func TestText_CanBeginWord(t *testing.T) {
	text := New("abc漢字1", testCategory(t))

	assert.True(t, text.CanBeginWord(0))
	// alphabetic runs are not split
	assert.False(t, text.CanBeginWord(1))
	assert.False(t, text.CanBeginWord(2))
	assert.True(t, text.CanBeginWord(3))
	assert.False(t, text.CanBeginWord(4))
	assert.True(t, text.CanBeginWord(6))
	assert.True(t, text.CanBeginWord(9))
	assert.False(t, text.CanBeginWord(10))
}

func TestText_WordCandidateLength(t *testing.T) {
	text := New("abc漢字", testCategory(t))

	assert.Equal(t, 3, text.WordCandidateLength(0))
	assert.Equal(t, 3, text.WordCandidateLength(3))
	assert.Equal(t, 3, text.WordCandidateLength(6))
}

func TestText_ContinuousCategoryLength(t *testing.T) {
	text := New("漢字かな123", testCategory(t))

	assert.Equal(t, 6, text.ContinuousCategoryLength(0))
	assert.Equal(t, 6, text.ContinuousCategoryLength(6))
	assert.Equal(t, 3, text.ContinuousCategoryLength(12))
	assert.Equal(t, 0, text.ContinuousCategoryLength(15))
}

func TestText_CodePointsOffsetLength(t *testing.T) {
	text := New("漢字a", testCategory(t))

	assert.Equal(t, 3, text.CodePointsOffsetLength(0, 1))
	assert.Equal(t, 6, text.CodePointsOffsetLength(0, 2))
	assert.Equal(t, 7, text.CodePointsOffsetLength(0, 5))
	assert.Equal(t, 1, text.CodePointsOffsetLength(6, 3))
}

func TestText_NilCategory(t *testing.T) {
	text := New("ab", nil)

	assert.Equal(t, dic.CategoryDefault, text.CategoryTypes(0))
	assert.True(t, text.CanBeginWord(1))
	assert.Equal(t, 1, text.WordCandidateLength(0))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "ABC123", Normalize("ＡＢＣ１２３"))
	assert.Equal(t, "", Normalize(""))
}
