// Package oov is the unknown-word (out-of-vocabulary) provider family.
//
// Providers are configured under oovProviderPlugin in the analyzer
// configuration and resolved with plugins.Resolve using Category. The
// resolved list becomes a Chain, which the tokenizer consults at every
// offset:
//
//	loaded, err := plugins.Resolve(ctx, oov.Category{}, cfg, grammar)
//	if err != nil {
//		return err
//	}
//	chain := oov.NewChain(loaded)
//	nodes, err := chain.Generate(text, offset, hasOtherWords)
//
// Two providers are bundled, SimpleOovPlugin and MeCabOovPlugin. Anything
// else is loaded from a Go plugin exporting NewOovProviderPlugin.
//
// Nodes returned by ProvideOOV have no range; always go through GetOOV (or
// Chain) so every node covers [offset, offset+HeadWordLength).
package oov
