package oov

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/platinummonkey/morph/pkg/analysis"
	"github.com/platinummonkey/morph/pkg/config"
	"github.com/platinummonkey/morph/pkg/dic"
)

const (
	DefaultCharDef = "char.def"
	DefaultUnkDef  = "unk.def"
)

// MeCabOovPlugin generates unknown words the way MeCab does, from the
// category definitions of char.def and the per-category entries of unk.def.
//
// Settings:
//
//	class: MeCabOovPlugin
//	charDef: char.def
//	unkDef: unk.def
//
// Both files are resolved against the resource path.
type MeCabOovPlugin struct {
	categories map[dic.CategoryType]categoryInfo
	oovs       map[dic.CategoryType][]unknownWord
}

type categoryInfo struct {
	typ    dic.CategoryType
	invoke bool
	group  bool
	length int
}

type unknownWord struct {
	leftID  uint16
	rightID uint16
	cost    int16
	posID   uint16
}

type mecabSettings struct {
	CharDef string `yaml:"charDef"`
	UnkDef  string `yaml:"unkDef"`
}

func (p *MeCabOovPlugin) SetUp(settings config.PluginSettings, cfg *config.Config, grammar *dic.Grammar) error {
	s := mecabSettings{CharDef: DefaultCharDef, UnkDef: DefaultUnkDef}
	if err := settings.Decode(&s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	charDef := cfg.ResolvePath(s.CharDef)
	f, err := os.Open(charDef)
	if err != nil {
		return fmt.Errorf("failed to open character definition: %w", err)
	}
	defer f.Close()

	categories, err := parseCategoryDefinitions(f, charDef)
	if err != nil {
		return err
	}

	unkDef := cfg.ResolvePath(s.UnkDef)
	u, err := os.Open(unkDef)
	if err != nil {
		return fmt.Errorf("failed to open unknown word definition: %w", err)
	}
	defer u.Close()

	oovs, err := parseUnknownWords(u, unkDef, categories, grammar)
	if err != nil {
		return err
	}

	p.categories = categories
	p.oovs = oovs
	return nil
}

func (p *MeCabOovPlugin) ProvideOOV(text InputText, offset int, hasOtherWords bool) ([]analysis.Node, error) {
	if err := CheckOffset(text, offset); err != nil {
		return nil, err
	}

	length := text.ContinuousCategoryLength(offset)
	if length < 1 {
		return nil, nil
	}

	var (
		nodes []analysis.Node
		err   error
	)
	text.CategoryTypes(offset).Each(func(typ dic.CategoryType) {
		if err != nil {
			return
		}
		info, ok := p.categories[typ]
		if !ok || !(info.invoke || !hasOtherWords) {
			return
		}
		oovs := p.oovs[typ]
		if len(oovs) == 0 {
			return
		}

		limit := length
		if info.group {
			if nodes, err = appendNodes(nodes, text.Slice(offset, offset+length), oovs); err != nil {
				return
			}
			limit--
		}

		for i := 1; i <= info.length; i++ {
			sub := text.CodePointsOffsetLength(offset, i)
			if sub > limit {
				break
			}
			if nodes, err = appendNodes(nodes, text.Slice(offset, offset+sub), oovs); err != nil {
				return
			}
		}
	})

	if err != nil {
		return nil, err
	}
	return nodes, nil
}

func appendNodes(nodes []analysis.Node, surface string, oovs []unknownWord) ([]analysis.Node, error) {
	for _, w := range oovs {
		node, err := NewWordNode(surface, w.leftID, w.rightID, w.cost, w.posID)
		if err != nil {
			return nodes, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// parseCategoryDefinitions reads "NAME INVOKE GROUP LENGTH" lines. Code
// point range lines are handled by dic.ParseCharacterCategory and skipped.
func parseCategoryDefinitions(r io.Reader, file string) (map[dic.CategoryType]categoryInfo, error) {
	categories := make(map[dic.CategoryType]categoryInfo)
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" || strings.HasPrefix(line, "0x") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, newDefinitionError(file, lineNo, "want NAME INVOKE GROUP LENGTH, got %q", line)
		}

		typ, err := dic.ParseCategoryType(fields[0])
		if err != nil {
			return nil, newDefinitionError(file, lineNo, "%v", err)
		}
		if _, exists := categories[typ]; exists {
			return nil, newDefinitionError(file, lineNo, "%s is already defined", fields[0])
		}

		length, err := strconv.Atoi(fields[3])
		if err != nil || length < 0 {
			return nil, newDefinitionError(file, lineNo, "invalid length %q", fields[3])
		}

		categories[typ] = categoryInfo{
			typ:    typ,
			invoke: fields[1] == "1",
			group:  fields[2] == "1",
			length: length,
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	return categories, nil
}

// parseUnknownWords reads "CATEGORY,LEFT,RIGHT,COST,POS1,...,POS6" lines
func parseUnknownWords(r io.Reader, file string, categories map[dic.CategoryType]categoryInfo, grammar *dic.Grammar) (map[dic.CategoryType][]unknownWord, error) {
	oovs := make(map[dic.CategoryType][]unknownWord)
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		cols := strings.Split(line, ",")
		if len(cols) != 4+dic.POSDepth {
			return nil, newDefinitionError(file, lineNo, "want %d columns, got %d", 4+dic.POSDepth, len(cols))
		}

		typ, err := dic.ParseCategoryType(cols[0])
		if err != nil {
			return nil, newDefinitionError(file, lineNo, "%v", err)
		}
		if _, ok := categories[typ]; !ok {
			return nil, newDefinitionError(file, lineNo, "%s is not defined in char.def", cols[0])
		}

		left, err := strconv.ParseUint(cols[1], 10, 16)
		if err != nil {
			return nil, newDefinitionError(file, lineNo, "invalid left id %q", cols[1])
		}
		right, err := strconv.ParseUint(cols[2], 10, 16)
		if err != nil {
			return nil, newDefinitionError(file, lineNo, "invalid right id %q", cols[2])
		}
		cost, err := strconv.ParseInt(cols[3], 10, 16)
		if err != nil {
			return nil, newDefinitionError(file, lineNo, "invalid cost %q", cols[3])
		}

		posID, err := lookupPOS(grammar, cols[4:])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", file, lineNo, err)
		}

		oovs[typ] = append(oovs[typ], unknownWord{
			leftID:  uint16(left),
			rightID: uint16(right),
			cost:    int16(cost),
			posID:   posID,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	return oovs, nil
}
