package oov

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/platinummonkey/morph/pkg/analysis"
	"github.com/platinummonkey/morph/pkg/config"
	"github.com/platinummonkey/morph/pkg/dic"
	"github.com/platinummonkey/morph/pkg/input"
	"github.com/stretchr/testify/require"
)

// fixedProvider returns one node per configured head word length
type fixedProvider struct {
	lengths []uint16
	cost    int16
	err     error
	nilInfo bool
}

func (p *fixedProvider) SetUp(config.PluginSettings, *config.Config, *dic.Grammar) error {
	return nil
}

func (p *fixedProvider) ProvideOOV(_ InputText, _ int, _ bool) ([]analysis.Node, error) {
	if p.err != nil {
		return nil, p.err
	}
	nodes := make([]analysis.Node, 0, len(p.lengths))
	for _, l := range p.lengths {
		var info *analysis.WordInfo
		if !p.nilInfo {
			info = &analysis.WordInfo{HeadWordLength: l}
		}
		nodes = append(nodes, analysis.NewOOVNode(1, 2, p.cost, info))
	}
	return nodes, nil
}

func testGrammar(t *testing.T) *dic.Grammar {
	t.Helper()
	g, err := dic.LoadGrammar(filepath.Join("testdata", "grammar.yaml"))
	require.NoError(t, err)
	return g
}

func testCategory(t *testing.T) *dic.CharacterCategory {
	t.Helper()
	c, err := dic.LoadCharacterCategory(filepath.Join("testdata", "char.def"))
	require.NoError(t, err)
	return c
}

func testText(t *testing.T, s string) *input.Text {
	t.Helper()
	return input.New(s, testCategory(t))
}

func testdataConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	abs, err := filepath.Abs("testdata")
	require.NoError(t, err)
	cfg.ResourcePath = abs
	return cfg
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func settings(values map[string]interface{}) config.PluginSettings {
	return config.MustPluginSettings(values)
}

func surfaces(nodes []analysis.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.WordInfo.Surface)
	}
	return out
}
