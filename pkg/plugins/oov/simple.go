package oov

import (
	"fmt"

	"github.com/platinummonkey/morph/pkg/analysis"
	"github.com/platinummonkey/morph/pkg/config"
	"github.com/platinummonkey/morph/pkg/dic"
)

// SimpleOovPlugin emits one node covering the word candidate at an offset
// where nothing else was found.
//
// Settings:
//
//	class: SimpleOovPlugin
//	oovPOS: [補助記号, 一般, "*", "*", "*", "*"]
//	leftId: 5968
//	rightId: 5968
//	cost: 3857
type SimpleOovPlugin struct {
	leftID  uint16
	rightID uint16
	cost    int16
	posID   uint16
}

type simpleSettings struct {
	OOVPOS  []string `yaml:"oovPOS"`
	LeftID  *uint16  `yaml:"leftId"`
	RightID *uint16  `yaml:"rightId"`
	Cost    *int16   `yaml:"cost"`
}

func (p *SimpleOovPlugin) SetUp(settings config.PluginSettings, _ *config.Config, grammar *dic.Grammar) error {
	var s simpleSettings
	if err := settings.Decode(&s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	switch {
	case len(s.OOVPOS) == 0:
		return newSettingsError("oovPOS is required")
	case s.LeftID == nil:
		return newSettingsError("leftId is required")
	case s.RightID == nil:
		return newSettingsError("rightId is required")
	case s.Cost == nil:
		return newSettingsError("cost is required")
	}

	posID, err := lookupPOS(grammar, s.OOVPOS)
	if err != nil {
		return err
	}

	p.leftID = *s.LeftID
	p.rightID = *s.RightID
	p.cost = *s.Cost
	p.posID = posID
	return nil
}

func (p *SimpleOovPlugin) ProvideOOV(text InputText, offset int, hasOtherWords bool) ([]analysis.Node, error) {
	if err := CheckOffset(text, offset); err != nil {
		return nil, err
	}
	if hasOtherWords {
		return nil, nil
	}

	length := text.WordCandidateLength(offset)
	node, err := NewWordNode(text.Slice(offset, offset+length), p.leftID, p.rightID, p.cost, p.posID)
	if err != nil {
		return nil, err
	}
	return []analysis.Node{node}, nil
}

func lookupPOS(grammar *dic.Grammar, levels []string) (uint16, error) {
	if grammar == nil {
		return 0, fmt.Errorf("%w: no grammar", ErrUnknownPOS)
	}
	pos := dic.POS(levels)
	id, ok := grammar.PartOfSpeechID(pos)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownPOS, pos)
	}
	return id, nil
}
