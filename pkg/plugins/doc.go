// Package plugins resolves configured plugin entries into ready-to-use instances.
//
// # Overview
//
// A plugin family (a Category) tells the resolver which configuration
// entries belong to it, which names are bundled, which symbol external
// modules must export, and how to run setup. Resolve walks the entries in
// configuration order and, for each one:
//
//  1. reads the class name (a "com.worksap.nlp.sudachi." prefix is dropped)
//  2. asks the category for a bundled instance
//  3. otherwise loads a Go plugin (.so) from the entry's path, or from
//     <dir>/<class>.so or <dir>/<class>/plugin.yaml in the search directories
//  4. runs setup with the entry's settings
//
// Any failure in 3 is a *LoadError and any failure in 4 a *SetupError. Both
// abort the whole resolution.
//
// # Dynamic Plugins
//
// A module is built with -buildmode=plugin and exports the category's entry
// point with the signature
//
//	func() (T, error)
//
// The loader checks the symbol type before calling it, recovers panics from
// the call, and rejects nil instances. Modules are never unloaded.
//
// A plugin directory carries a manifest:
//
//	id: FixedOovPlugin
//	version: 1.0.0
//	api_version: 1.0.0
//	type: oov_provider
//	library: fixedoov.so
//
// The manifest API major version must match CurrentAPIVersion.
//
// # Vetting
//
// A Vetter checks a plugin source directory before it is built: the
// manifest, the entry point signature, flagged imports and hardcoded
// secrets. High severity findings fail the report.
//
// # Usage Example
//
//	loaded, err := plugins.Resolve(ctx, oov.Category{}, cfg, grammar,
//		plugins.WithLogger(logger),
//		plugins.WithMetrics(metrics),
//	)
//	if err != nil {
//		return err // analyzer construction aborts
//	}
//
// # Related Packages
//
//   - pkg/plugins/oov: OOV provider family
//   - pkg/config: PluginSettings entries
package plugins
