package oov

import (
	"github.com/platinummonkey/morph/pkg/config"
	"github.com/platinummonkey/morph/pkg/dic"
	"github.com/platinummonkey/morph/pkg/plugins"
)

const (
	// CategoryName identifies OOV providers in logs, metrics and manifests
	CategoryName = "oov_provider"

	// EntryPoint is the symbol exported by dynamically loaded providers:
	//
	//	func NewOovProviderPlugin() (oov.Provider, error)
	EntryPoint = "NewOovProviderPlugin"

	SimpleOovPluginName = "SimpleOovPlugin"
	MeCabOovPluginName  = "MeCabOovPlugin"
)

var bundled = newBundledRegistry()

func newBundledRegistry() *plugins.Registry[Provider] {
	r := plugins.NewRegistry[Provider]()
	r.MustRegister(SimpleOovPluginName, func() Provider { return &SimpleOovPlugin{} })
	r.MustRegister(MeCabOovPluginName, func() Provider { return &MeCabOovPlugin{} })
	return r
}

// Bundled returns the names of the built-in providers
func Bundled() []string {
	return bundled.Names()
}

// Category is the OOV provider family. The zero value uses the built-in
// providers; Registry replaces them.
type Category struct {
	Registry *plugins.Registry[Provider]
}

var _ plugins.Category[Provider] = Category{}

func (Category) Name() string {
	return CategoryName
}

func (Category) EntryPoint() string {
	return EntryPoint
}

func (Category) Configurations(cfg *config.Config) []config.PluginSettings {
	return cfg.OOVProviderPlugins
}

func (c Category) BundledImpl(name string) (Provider, bool) {
	if c.Registry != nil {
		return c.Registry.New(name)
	}
	return bundled.New(name)
}

func (Category) DoSetup(instance Provider, settings config.PluginSettings, cfg *config.Config, grammar *dic.Grammar) error {
	return instance.SetUp(settings, cfg, grammar)
}
