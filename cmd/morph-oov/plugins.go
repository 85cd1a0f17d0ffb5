package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/platinummonkey/morph/pkg/plugins"
	"github.com/platinummonkey/morph/pkg/plugins/oov"
)

type PluginsCmd struct {
	Format string `short:"f" enum:"table,json" default:"table" help:"Output format (table, json)."`
}

type pluginsOutput struct {
	Active  []plugins.Info `json:"active"`
	Bundled []string       `json:"bundled"`
}

func (c *PluginsCmd) Run(g *Globals) error {
	a, err := g.newAnalyzer(context.Background())
	if err != nil {
		return err
	}

	out := pluginsOutput{Active: a.Plugins(), Bundled: oov.Bundled()}

	if c.Format == "json" {
		enc := json.NewEncoder(g.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	w := tabwriter.NewWriter(g.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INDEX\tNAME\tORIGIN\tPATH")
	for _, p := range out.Active {
		path := p.Path
		if path == "" {
			path = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.Index, p.Name, p.Origin, path)
	}
	return w.Flush()
}
