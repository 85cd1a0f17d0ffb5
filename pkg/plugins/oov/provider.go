package oov

import (
	"fmt"
	"math"

	"github.com/platinummonkey/morph/pkg/analysis"
	"github.com/platinummonkey/morph/pkg/config"
	"github.com/platinummonkey/morph/pkg/dic"
)

// InputText is the read-only view of the input a provider works on.
// Offsets are byte offsets. *input.Text implements it.
type InputText interface {
	Len() int
	Slice(begin, end int) string
	IsCharBoundary(offset int) bool
	CanBeginWord(offset int) bool
	CategoryTypes(offset int) dic.CategoryType
	WordCandidateLength(offset int) int
	ContinuousCategoryLength(offset int) int
	CodePointsOffsetLength(offset, n int) int
}

// Provider generates unknown-word candidate nodes.
//
// SetUp is called once, before the provider is shared. After that
// ProvideOOV may be called from many goroutines at once and must not
// mutate the provider.
type Provider interface {
	SetUp(settings config.PluginSettings, cfg *config.Config, grammar *dic.Grammar) error

	// ProvideOOV returns candidate nodes starting at offset. Ranges are left
	// unset; GetOOV fills them. hasOtherWords reports whether earlier stages
	// already found words at offset.
	ProvideOOV(text InputText, offset int, hasOtherWords bool) ([]analysis.Node, error)
}

// GetOOV calls p.ProvideOOV and sets the range of every returned node to
// [offset, offset+HeadWordLength). A node without WordInfo violates the
// provider contract and makes GetOOV panic.
func GetOOV(p Provider, text InputText, offset int, hasOtherWords bool) ([]analysis.Node, error) {
	nodes, err := p.ProvideOOV(text, offset, hasOtherWords)
	if err != nil {
		return nil, err
	}

	for i := range nodes {
		info := nodes[i].WordInfo
		if info == nil {
			panic(fmt.Sprintf("oov: provider %T returned node %d without word info", p, i))
		}
		nodes[i].SetRange(offset, offset+int(info.HeadWordLength))
	}
	return nodes, nil
}

// CheckOffset returns an error unless offset starts a character of text
func CheckOffset(text InputText, offset int) error {
	if offset < 0 || offset >= text.Len() {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrOffsetOutOfRange, offset, text.Len())
	}
	if !text.IsCharBoundary(offset) {
		return fmt.Errorf("%w: %d", ErrNotCharBoundary, offset)
	}
	return nil
}

// NewWordNode builds an unknown-word node whose surface, normalized and
// dictionary forms are all surface.
func NewWordNode(surface string, leftID, rightID uint16, cost int16, posID uint16) (analysis.Node, error) {
	if len(surface) > math.MaxUint16 {
		return analysis.Node{}, fmt.Errorf("%w: %d bytes", ErrWordTooLong, len(surface))
	}

	info := &analysis.WordInfo{
		Surface:              surface,
		HeadWordLength:       uint16(len(surface)),
		POSID:                posID,
		NormalizedForm:       surface,
		DictionaryFormWordID: -1,
		DictionaryForm:       surface,
	}
	return analysis.NewOOVNode(leftID, rightID, cost, info), nil
}
