// Package config loads the analyzer configuration from a YAML (or JSON) file
// with environment overrides.
//
// # File Format
//
//	resourcePath: ./resources
//	pluginDirs: [./plugins]
//	grammarFile: grammar.yaml
//	characterDefinitionFile: char.def
//	oovProviderPlugin:
//	  - class: MeCabOovPlugin
//	    charDef: char.def
//	    unkDef: unk.def
//	  - class: SimpleOovPlugin
//	    oovPOS: [補助記号, 一般, "*", "*", "*", "*"]
//	    leftId: 5968
//	    rightId: 5968
//	    cost: 3857
//
// The order of oovProviderPlugin entries is the order in which plugins are
// set up and queried. Each entry is kept as an opaque PluginSettings value;
// plugins decode their own keys from it.
//
// # Environment
//
//	MORPH_RESOURCE_PATH="/usr/share/morph"
//	MORPH_PLUGIN_DIRS="/opt/morph/plugins:/usr/lib/morph"
//	MORPH_LOG_LEVEL="debug"
//	MORPH_OTEL_ENABLED="true"
//	MORPH_OTEL_ENDPOINT="localhost:4317"
//	MORPH_HOST="0.0.0.0"
//	MORPH_PORT="8080"
//	MORPH_CACHE_ENTRIES="1024"
//	MORPH_SHUTDOWN_TIMEOUT="30s"
//
// Relative resourcePath values are resolved against the directory of the
// configuration file.
package config
