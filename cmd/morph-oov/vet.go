package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/platinummonkey/morph/pkg/plugins"
	"github.com/platinummonkey/morph/pkg/plugins/oov"
)

type VetCmd struct {
	Dirs   []string `arg:"" type:"path" help:"Plugin source directories."`
	Format string   `short:"f" enum:"table,json" default:"table" help:"Output format (table, json)."`
}

func (c *VetCmd) Run(g *Globals) error {
	vetter := plugins.NewVetter(oov.CategoryName, oov.EntryPoint, g.Log)

	reports := make([]*plugins.VetReport, 0, len(c.Dirs))
	failed := 0
	for _, dir := range c.Dirs {
		report, err := vetter.Vet(dir)
		if err != nil {
			return err
		}
		if !report.OK() {
			failed++
		}
		reports = append(reports, report)
	}

	if c.Format == "json" {
		enc := json.NewEncoder(g.Out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return err
		}
	} else if err := writeVetTable(g, reports); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d plugin directories failed vetting", failed, len(reports))
	}
	return nil
}

func writeVetTable(g *Globals, reports []*plugins.VetReport) error {
	w := tabwriter.NewWriter(g.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DIR\tSEVERITY\tCATEGORY\tLOCATION\tMESSAGE")
	for _, r := range reports {
		for _, e := range r.Errors {
			fmt.Fprintf(w, "%s\terror\tmanifest\t%s\t%s\n", r.Dir, plugins.ManifestFile, e.String())
		}
		for _, issue := range r.Issues {
			location := "-"
			if issue.File != "" {
				location = issue.File
				if issue.Line > 0 {
					location = fmt.Sprintf("%s:%d", issue.File, issue.Line)
				}
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Dir, issue.Severity, issue.Category, location, issue.Description)
		}
		if len(r.Errors) == 0 && len(r.Issues) == 0 {
			fmt.Fprintf(w, "%s\tok\t-\t-\t-\n", r.Dir)
		}
	}
	return w.Flush()
}
