// Package analyzer owns the OOV provider chain of a running analyzer. It
// loads the dictionary collaborators, resolves the configured providers and
// publishes the result as one immutable snapshot that readers pick up
// without locking. Reload builds a complete new snapshot and swaps it in.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/platinummonkey/morph/pkg/analysis"
	"github.com/platinummonkey/morph/pkg/config"
	"github.com/platinummonkey/morph/pkg/dic"
	"github.com/platinummonkey/morph/pkg/input"
	"github.com/platinummonkey/morph/pkg/observability"
	"github.com/platinummonkey/morph/pkg/plugins"
	"github.com/platinummonkey/morph/pkg/plugins/oov"
	"github.com/sirupsen/logrus"
)

// Analyzer generates OOV candidates with the currently published provider chain
type Analyzer struct {
	current atomic.Pointer[snapshot]
	// reloadMu serializes Reload; readers never take it
	reloadMu sync.Mutex

	log        *logrus.Logger
	metrics    *observability.Metrics
	category   oov.Category
	pluginOpts []plugins.Option
}

type snapshot struct {
	cfg        *config.Config
	grammar    *dic.Grammar
	categories *dic.CharacterCategory
	chain      *oov.Chain
	loadedAt   time.Time
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithLogger sets the logger
func WithLogger(log *logrus.Logger) Option {
	return func(a *Analyzer) {
		if log != nil {
			a.log = log
		}
	}
}

// WithMetrics records resolution, generation and reload metrics
func WithMetrics(m *observability.Metrics) Option {
	return func(a *Analyzer) {
		a.metrics = m
	}
}

// WithCategory replaces the OOV provider family, e.g. to register extra bundled providers
func WithCategory(c oov.Category) Option {
	return func(a *Analyzer) {
		a.category = c
	}
}

// WithPluginOptions passes extra options to plugin resolution
func WithPluginOptions(opts ...plugins.Option) Option {
	return func(a *Analyzer) {
		a.pluginOpts = append(a.pluginOpts, opts...)
	}
}

// New builds an analyzer from cfg. Any load or setup failure is returned and
// no analyzer is created.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		log: logrus.New(),
	}
	for _, opt := range opts {
		opt(a)
	}

	s, err := a.build(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.current.Store(s)

	a.log.WithField("plugins", s.chain.Names()).Info("Analyzer ready")
	return a, nil
}

func (a *Analyzer) build(ctx context.Context, cfg *config.Config) (*snapshot, error) {
	if cfg == nil {
		return nil, errors.New("analyzer: nil config")
	}

	grammar, err := loadGrammar(cfg)
	if err != nil {
		return nil, err
	}

	categories, err := loadCharacterCategory(cfg)
	if err != nil {
		return nil, err
	}
	grammar = grammar.WithCharacterCategory(categories)

	opts := append([]plugins.Option{
		plugins.WithLogger(a.log),
		plugins.WithMetrics(a.metrics),
	}, a.pluginOpts...)

	loaded, err := plugins.Resolve[oov.Provider](ctx, a.category, cfg, grammar, opts...)
	if err != nil {
		return nil, err
	}

	return &snapshot{
		cfg:        cfg,
		grammar:    grammar,
		categories: categories,
		chain:      oov.NewChain(loaded, oov.WithMetrics(a.metrics)),
		loadedAt:   time.Now(),
	}, nil
}

func loadGrammar(cfg *config.Config) (*dic.Grammar, error) {
	if cfg.GrammarFile == "" {
		return dic.NewGrammar(nil)
	}
	g, err := dic.LoadGrammar(cfg.ResolvePath(cfg.GrammarFile))
	if err != nil {
		return nil, fmt.Errorf("analyzer: %w", err)
	}
	return g, nil
}

func loadCharacterCategory(cfg *config.Config) (*dic.CharacterCategory, error) {
	if cfg.CharacterDefinitionFile == "" {
		return dic.NewCharacterCategory(), nil
	}
	c, err := dic.LoadCharacterCategory(cfg.ResolvePath(cfg.CharacterDefinitionFile))
	if err != nil {
		return nil, fmt.Errorf("analyzer: %w", err)
	}
	return c, nil
}

// Reload builds a new snapshot from cfg and publishes it. On failure the
// current snapshot stays in place and the error is returned.
func (a *Analyzer) Reload(ctx context.Context, cfg *config.Config) error {
	a.reloadMu.Lock()
	defer a.reloadMu.Unlock()

	s, err := a.build(ctx, cfg)
	a.metrics.RecordReload(err)
	if err != nil {
		a.log.WithError(err).Error("Reload failed, keeping current plugins")
		return err
	}

	old := a.current.Swap(s)
	a.log.WithFields(logrus.Fields{
		"plugins":  s.chain.Names(),
		"previous": old.chain.Names(),
	}).Info("Analyzer reloaded")
	return nil
}

// NewText prepares s for generation with the current character categories
func (a *Analyzer) NewText(s string) *input.Text {
	return input.New(s, a.current.Load().categories)
}

// OOV returns the nodes of every provider at offset, in provider order.
// See oov.Chain.Generate for the error contract.
func (a *Analyzer) OOV(text oov.InputText, offset int, hasOtherWords bool) ([]analysis.Node, error) {
	return a.current.Load().chain.Generate(text, offset, hasOtherWords)
}

// Candidates generates nodes at every character offset of text using a
// single snapshot for the whole pass.
func (a *Analyzer) Candidates(text *input.Text, hasOtherWords bool) ([]analysis.Node, error) {
	return candidates(a.current.Load().chain, text, hasOtherWords)
}

// Generation pins one published snapshot. The text, the chain and LoadedAt
// all come from it, so a concurrent reload cannot mix two snapshots.
type Generation struct {
	Text     *input.Text
	LoadedAt time.Time
	chain    *oov.Chain
}

// Begin prepares s against the current snapshot
func (a *Analyzer) Begin(s string) *Generation {
	snap := a.current.Load()
	return &Generation{
		Text:     input.New(s, snap.categories),
		LoadedAt: snap.loadedAt,
		chain:    snap.chain,
	}
}

// OOV returns the nodes of every provider at offset
func (g *Generation) OOV(offset int, hasOtherWords bool) ([]analysis.Node, error) {
	return g.chain.Generate(g.Text, offset, hasOtherWords)
}

// Candidates generates nodes at every character offset of the text
func (g *Generation) Candidates(hasOtherWords bool) ([]analysis.Node, error) {
	return candidates(g.chain, g.Text, hasOtherWords)
}

// Plugins describes the pinned providers in order
func (g *Generation) Plugins() []plugins.Info {
	return g.chain.Infos()
}

func candidates(chain *oov.Chain, text *input.Text, hasOtherWords bool) ([]analysis.Node, error) {
	var (
		nodes []analysis.Node
		errs  []error
	)
	for _, offset := range text.CharOffsets() {
		n, err := chain.Generate(text, offset, hasOtherWords)
		nodes = append(nodes, n...)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return nodes, errors.Join(errs...)
}

// Plugins describes the current providers in order
func (a *Analyzer) Plugins() []plugins.Info {
	return a.current.Load().chain.Infos()
}

// Config returns the configuration of the current snapshot
func (a *Analyzer) Config() *config.Config {
	return a.current.Load().cfg
}

// Grammar returns the grammar of the current snapshot
func (a *Analyzer) Grammar() *dic.Grammar {
	return a.current.Load().grammar
}

// LoadedAt returns when the current snapshot was built
func (a *Analyzer) LoadedAt() time.Time {
	return a.current.Load().loadedAt
}
