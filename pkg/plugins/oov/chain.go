package oov

import (
	"errors"

	"github.com/platinummonkey/morph/pkg/analysis"
	"github.com/platinummonkey/morph/pkg/observability"
	"github.com/platinummonkey/morph/pkg/plugins"
)

// Chain is the ordered, immutable list of resolved providers consulted at
// every offset. It is safe for concurrent use.
type Chain struct {
	providers []plugins.Loaded[Provider]
	metrics   *observability.Metrics
}

// ChainOption configures a Chain
type ChainOption func(*Chain)

// WithMetrics records node counts and failures per provider
func WithMetrics(m *observability.Metrics) ChainOption {
	return func(c *Chain) {
		c.metrics = m
	}
}

// NewChain creates a chain over a copy of loaded
func NewChain(loaded []plugins.Loaded[Provider], opts ...ChainOption) *Chain {
	c := &Chain{
		providers: append([]plugins.Loaded[Provider](nil), loaded...),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate asks every provider, in order, for nodes at offset and
// concatenates the results. A failing provider does not stop the others:
// the nodes that were produced are returned together with one
// *plugins.GenerationError per failure.
func (c *Chain) Generate(text InputText, offset int, hasOtherWords bool) ([]analysis.Node, error) {
	if c == nil {
		return nil, nil
	}

	var (
		result []analysis.Node
		errs   []error
	)
	for _, p := range c.providers {
		nodes, err := GetOOV(p.Plugin, text, offset, hasOtherWords)
		c.metrics.RecordOOV(p.Name, len(nodes), err)
		if err != nil {
			errs = append(errs, &plugins.GenerationError{Plugin: p.Name, Offset: offset, Err: err})
			continue
		}
		result = append(result, nodes...)
	}

	return result, errors.Join(errs...)
}

// Len returns the number of providers
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.providers)
}

// Names returns the provider names in order
func (c *Chain) Names() []string {
	names := make([]string, 0, c.Len())
	if c == nil {
		return names
	}
	for _, p := range c.providers {
		names = append(names, p.Name)
	}
	return names
}

// Infos describes the providers in order
func (c *Chain) Infos() []plugins.Info {
	infos := make([]plugins.Info, 0, c.Len())
	if c == nil {
		return infos
	}
	for _, p := range c.providers {
		infos = append(infos, p.Info())
	}
	return infos
}
