package plugins

import (
	"github.com/platinummonkey/morph/pkg/config"
	"github.com/platinummonkey/morph/pkg/dic"
)

// Category describes one plugin family (OOV providers are one) so that the
// generic resolver can turn configuration entries into ready instances.
type Category[T any] interface {
	// Name identifies the family in logs, errors, metrics and manifests
	Name() string

	// EntryPoint is the symbol a dynamically loaded module must export, of
	// type func() (T, error)
	EntryPoint() string

	// Configurations selects the ordered entries of this family
	Configurations(cfg *config.Config) []config.PluginSettings

	// BundledImpl returns a fresh instance for a built-in name. false means
	// "not bundled, try dynamic loading".
	BundledImpl(name string) (T, bool)

	// DoSetup runs the one-time setup of an instance
	DoSetup(instance T, settings config.PluginSettings, cfg *config.Config, grammar *dic.Grammar) error
}

// Origin tells where a resolved plugin came from
type Origin string

const (
	OriginBundled Origin = "bundled"
	OriginDynamic Origin = "dynamic"
)

// Loaded is a resolved and set-up plugin instance
type Loaded[T any] struct {
	// Name is the class name with any Java package prefix removed
	Name   string
	Origin Origin
	// Path is the shared object path for dynamic plugins
	Path string
	// Index is the position of the entry in the configuration
	Index  int
	Plugin T
}

// Info describes a resolved plugin without exposing the instance
type Info struct {
	Name   string `json:"name"`
	Origin Origin `json:"origin"`
	Path   string `json:"path,omitempty"`
	Index  int    `json:"index"`
}

// Info returns the descriptive part of l
func (l Loaded[T]) Info() Info {
	return Info{Name: l.Name, Origin: l.Origin, Path: l.Path, Index: l.Index}
}
