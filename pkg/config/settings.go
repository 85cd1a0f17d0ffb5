package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ClassKey names the plugin class of a settings entry
	ClassKey = "class"
	// PathKey names the module path used for dynamically loaded plugins
	PathKey = "path"
)

// PluginSettings is the opaque settings value of one configured plugin. It
// always holds a mapping with at least a class key; everything else is
// plugin specific and decoded by the plugin itself.
type PluginSettings struct {
	node *yaml.Node
}

// NewPluginSettings builds settings from a plain map, mainly for programmatic configuration
func NewPluginSettings(values map[string]interface{}) (PluginSettings, error) {
	var node yaml.Node
	if err := node.Encode(values); err != nil {
		return PluginSettings{}, fmt.Errorf("failed to encode plugin settings: %w", err)
	}
	return PluginSettings{node: &node}, nil
}

// MustPluginSettings is like NewPluginSettings but panics on error
func MustPluginSettings(values map[string]interface{}) PluginSettings {
	s, err := NewPluginSettings(values)
	if err != nil {
		panic(err)
	}
	return s
}

// UnmarshalYAML implements yaml.Unmarshaler
func (s *PluginSettings) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: plugin settings must be a mapping", node.Line)
	}
	clone := *node
	s.node = &clone
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (s PluginSettings) MarshalYAML() (interface{}, error) {
	if s.node == nil {
		return map[string]interface{}{}, nil
	}
	return s.node, nil
}

// Class returns the plugin class name, or "" when absent
func (s PluginSettings) Class() string {
	return s.str(ClassKey)
}

// Path returns the module path for dynamic loading, or "" when absent
func (s PluginSettings) Path() string {
	return s.str(PathKey)
}

// Has reports whether key is set
func (s PluginSettings) Has(key string) bool {
	return s.lookup(key) != nil
}

// Decode decodes the settings into a plugin-specific struct using yaml tags
func (s PluginSettings) Decode(v interface{}) error {
	if s.node == nil {
		return nil
	}
	if err := s.node.Decode(v); err != nil {
		return fmt.Errorf("failed to decode settings for %s: %w", s.Class(), err)
	}
	return nil
}

func (s PluginSettings) String() string {
	if s.node == nil {
		return "{}"
	}
	data, err := yaml.Marshal(s.node)
	if err != nil {
		return "{}"
	}
	return strings.TrimSpace(string(data))
}

func (s PluginSettings) str(key string) string {
	value := s.lookup(key)
	if value == nil || value.Kind != yaml.ScalarNode {
		return ""
	}
	return value.Value
}

func (s PluginSettings) lookup(key string) *yaml.Node {
	if s.node == nil {
		return nil
	}
	for i := 0; i+1 < len(s.node.Content); i += 2 {
		if s.node.Content[i].Value == key {
			return s.node.Content[i+1]
		}
	}
	return nil
}
