package plugins

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/platinummonkey/morph/pkg/config"
	"github.com/platinummonkey/morph/pkg/dic"
	"github.com/platinummonkey/morph/pkg/observability"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// javaPackagePrefix is accepted in class names for compatibility with
// configurations written for the Java analyzer
const javaPackagePrefix = "com.worksap.nlp.sudachi."

type resolveOptions struct {
	log     *logrus.Logger
	metrics *observability.Metrics
	open    Opener
}

// Option configures Resolve
type Option func(*resolveOptions)

// WithLogger sets the logger used during resolution
func WithLogger(log *logrus.Logger) Option {
	return func(o *resolveOptions) {
		if log != nil {
			o.log = log
		}
	}
}

// WithMetrics records resolution metrics
func WithMetrics(m *observability.Metrics) Option {
	return func(o *resolveOptions) {
		o.metrics = m
	}
}

// WithOpener replaces plugin.Open, mostly for tests
func WithOpener(open Opener) Option {
	return func(o *resolveOptions) {
		if open != nil {
			o.open = open
		}
	}
}

// ClassName returns the configured class with the Java package prefix removed
func ClassName(settings config.PluginSettings) string {
	return strings.TrimPrefix(settings.Class(), javaPackagePrefix)
}

// Resolve turns the configured entries of a category into set-up instances,
// in configuration order. Any load or setup failure aborts the whole
// resolution; there is no partial result.
//
// Resolve must complete before the result is shared with other goroutines.
func Resolve[T any](ctx context.Context, category Category[T], cfg *config.Config, grammar *dic.Grammar, opts ...Option) ([]Loaded[T], error) {
	o := &resolveOptions{
		log:  logrus.New(),
		open: OpenPlugin,
	}
	for _, opt := range opts {
		opt(o)
	}

	ctx, span := observability.Tracer().Start(ctx, "plugins.Resolve",
		trace.WithAttributes(attribute.String("plugin.category", category.Name())))
	defer span.End()

	entries := category.Configurations(cfg)
	loaded := make([]Loaded[T], 0, len(entries))

	for i, settings := range entries {
		l, err := resolveOne(ctx, category, cfg, grammar, o, i, settings)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "plugin resolution failed")
			return nil, err
		}
		loaded = append(loaded, l)
	}

	o.metrics.SetActive(category.Name(), len(loaded))
	span.SetAttributes(attribute.Int("plugin.count", len(loaded)))
	return loaded, nil
}

func resolveOne[T any](ctx context.Context, category Category[T], cfg *config.Config, grammar *dic.Grammar, o *resolveOptions, index int, settings config.PluginSettings) (Loaded[T], error) {
	name := ClassName(settings)
	log := o.log.WithFields(logrus.Fields{
		"category": category.Name(),
		"plugin":   name,
		"index":    index,
	})

	_, span := observability.Tracer().Start(ctx, "plugins.resolveOne",
		trace.WithAttributes(
			attribute.String("plugin.name", name),
			attribute.Int("plugin.index", index),
		))
	defer span.End()

	l := Loaded[T]{Name: name, Index: index}

	if name == "" {
		o.metrics.RecordResolveError(category.Name(), "load")
		log.Error("Plugin entry has no class")
		return l, &LoadError{Category: category.Name(), Plugin: name, Err: fmt.Errorf("%w: empty class", ErrPluginNotFound)}
	}

	if instance, ok := category.BundledImpl(name); ok {
		l.Origin = OriginBundled
		l.Plugin = instance
	} else {
		path, err := locateModule(category.Name(), name, moduleCandidates(name, settings.Path(), cfg.SearchDirs()))
		if err == nil {
			log = log.WithField("path", path)
			log.Debug("Loading dynamic plugin")
			l.Plugin, err = loadDynamic[T](o.open, path, category.EntryPoint())
		}
		if err != nil {
			o.metrics.RecordResolveError(category.Name(), "load")
			log.WithError(err).Error("Failed to load plugin")
			return l, &LoadError{Category: category.Name(), Plugin: name, Path: path, Err: err}
		}
		l.Origin = OriginDynamic
		l.Path = path
	}

	span.SetAttributes(attribute.String("plugin.origin", string(l.Origin)))

	start := time.Now()
	if err := category.DoSetup(l.Plugin, settings, cfg, grammar); err != nil {
		o.metrics.RecordResolveError(category.Name(), "setup")
		log.WithError(err).Error("Plugin setup failed")
		return l, &SetupError{Category: category.Name(), Plugin: name, Index: index, Err: err}
	}
	elapsed := time.Since(start)

	o.metrics.RecordResolved(category.Name(), string(l.Origin), elapsed, name)
	log.WithField("origin", l.Origin).Debugf("Plugin ready in %v", elapsed)

	return l, nil
}
