//go:build integration

package integration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/platinummonkey/morph/pkg/config"
	"github.com/platinummonkey/morph/pkg/dic"
	"github.com/platinummonkey/morph/pkg/input"
	"github.com/platinummonkey/morph/pkg/plugins"
	"github.com/platinummonkey/morph/pkg/plugins/oov"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	simplePOS = []string{"補助記号", "一般", "*", "*", "*", "*"}
	nounPOS   = []string{"名詞", "普通名詞", "一般", "*", "*", "*"}
)

// pluginDir holds fixedoov.so, built once: the runtime refuses to load the
// same plugin from a second file
var (
	pluginDir  string
	skipReason string
)

const library = "fixedoov.so"

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	switch runtime.GOOS {
	case "linux", "darwin", "freebsd":
	default:
		skipReason = "plugins are not supported on " + runtime.GOOS
		return m.Run()
	}

	goTool, err := exec.LookPath("go")
	if err != nil {
		skipReason = "go tool not found"
		return m.Run()
	}

	dir, err := os.MkdirTemp("", "morph-plugins-")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer os.RemoveAll(dir)

	args := []string{"build", "-buildmode=plugin", "-o", filepath.Join(dir, library)}
	if raceEnabled {
		args = append(args, "-race")
	}
	args = append(args, "./examples/plugins/fixedoov")

	cmd := exec.Command(goTool, args...)
	cmd.Dir = filepath.Join("..", "..", "..")
	if out, err := cmd.CombinedOutput(); err != nil {
		fmt.Fprintf(os.Stderr, "go build: %v\n%s", err, out)
		return 1
	}

	pluginDir = dir
	return m.Run()
}

func pluginConfig(t *testing.T, entries ...map[string]interface{}) *config.Config {
	t.Helper()
	if skipReason != "" {
		t.Skip(skipReason)
	}

	cfg := config.Default()
	cfg.ResourcePath = pluginDir
	for _, e := range entries {
		cfg.OOVProviderPlugins = append(cfg.OOVProviderPlugins, config.MustPluginSettings(e))
	}
	return cfg
}

func TestResolve_BuiltPlugin(t *testing.T) {
	cfg := pluginConfig(t,
		map[string]interface{}{
			"class":   oov.SimpleOovPluginName,
			"oovPOS":  simplePOS,
			"leftId":  5968,
			"rightId": 5968,
			"cost":    3857,
		},
		map[string]interface{}{
			"class":   "FixedOovPlugin",
			"path":    library,
			"length":  2,
			"oovPOS":  nounPOS,
			"leftId":  5139,
			"rightId": 5139,
			"cost":    20000,
		},
	)

	grammar, err := dic.NewGrammar([]dic.POS{simplePOS, nounPOS})
	require.NoError(t, err)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	loaded, err := plugins.Resolve[oov.Provider](context.Background(), oov.Category{}, cfg, grammar, plugins.WithLogger(log))
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, plugins.OriginBundled, loaded[0].Origin)
	assert.Equal(t, plugins.OriginDynamic, loaded[1].Origin)
	assert.Equal(t, "FixedOovPlugin", loaded[1].Name)
	assert.Equal(t, filepath.Join(pluginDir, library), loaded[1].Path)

	chain := oov.NewChain(loaded)
	text := input.New("文字かな", nil)

	nodes, err := chain.Generate(text, 3, false)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	for _, n := range nodes {
		assert.Equal(t, 3, n.Begin)
	}
	assert.Equal(t, uint16(5968), nodes[0].LeftID, "config order: bundled first")
	assert.Equal(t, "字か", nodes[1].WordInfo.Surface)
	assert.Equal(t, 9, nodes[1].End)

	_, err = chain.Generate(text, 99, false)
	require.Error(t, err)
	var genErr *plugins.GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, 99, genErr.Offset)
	assert.ErrorIs(t, err, oov.ErrOffsetOutOfRange)
}

func TestResolve_BuiltPluginSetupFailure(t *testing.T) {
	cfg := pluginConfig(t, map[string]interface{}{
		"class":  "FixedOovPlugin",
		"path":   library,
		"length": 0,
	})

	grammar, err := dic.NewGrammar(nil)
	require.NoError(t, err)

	_, err = plugins.Resolve[oov.Provider](context.Background(), oov.Category{}, cfg, grammar)
	assert.True(t, plugins.IsSetupError(err))
}
