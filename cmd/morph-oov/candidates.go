package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/platinummonkey/morph/pkg/analysis"
	"github.com/platinummonkey/morph/pkg/analyzer"
	"github.com/platinummonkey/morph/pkg/export"
	"github.com/platinummonkey/morph/pkg/input"
	"github.com/platinummonkey/morph/pkg/plugins/oov"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type CandidatesCmd struct {
	Files []string `arg:"" optional:"" help:"Input files, one text per line. Standard input is read when no file and no --text is given."`

	Text          string `short:"t" help:"Text to analyze instead of files."`
	Offset        int    `default:"-1" help:"Only generate at this byte offset."`
	HasOtherWords bool   `help:"Pretend the dictionary already found words at every offset."`
	Normalize     bool   `short:"n" help:"Apply NFKC normalization first."`
	Format        string `short:"f" enum:"table,json" default:"table" help:"Output format (table, json)."`
	Jobs          int    `short:"j" default:"4" help:"Files processed in parallel."`
	DB            string `placeholder:"DSN" help:"Also store the run in a SQLite file or postgres:// database."`
}

// lineResult holds the candidates of one input line
type lineResult struct {
	Source string          `json:"source"`
	Line   int             `json:"line"`
	Text   string          `json:"text"`
	Nodes  []analysis.Node `json:"nodes"`
	Errors []string        `json:"errors,omitempty"`
}

func (c *CandidatesCmd) Run(g *Globals) error {
	ctx := context.Background()
	a, err := g.newAnalyzer(ctx)
	if err != nil {
		return err
	}

	var results [][]lineResult
	switch {
	case c.Text != "":
		results = [][]lineResult{{c.analyze(a, "text", 1, c.Text)}}
	case len(c.Files) == 0:
		r, err := c.analyzeReader(a, "stdin", os.Stdin)
		if err != nil {
			return err
		}
		results = [][]lineResult{r}
	default:
		if results, err = c.analyzeFiles(ctx, a); err != nil {
			return err
		}
	}

	if c.DB != "" {
		if err := c.store(ctx, g, a, results); err != nil {
			return err
		}
	}

	return c.write(g.Out, results)
}

func (c *CandidatesCmd) store(ctx context.Context, g *Globals, a *analyzer.Analyzer, results [][]lineResult) error {
	s, err := export.Open(c.DB)
	if err != nil {
		return err
	}
	defer s.Close()

	run := &export.Run{ConfigPath: g.Config.Path}
	for _, p := range a.Plugins() {
		run.Plugins = append(run.Plugins, p.Name)
	}
	if err := s.BeginRun(ctx, run); err != nil {
		return err
	}

	lines := 0
	for _, file := range results {
		batch := make([]export.Line, 0, len(file))
		for _, r := range file {
			batch = append(batch, export.Line{Source: r.Source, LineNo: r.Line, Text: r.Text, Nodes: r.Nodes, Errors: r.Errors})
		}
		if err := s.WriteLines(ctx, run.ID, batch); err != nil {
			return err
		}
		lines += len(batch)
	}

	g.Log.WithFields(logrus.Fields{"run": run.ID, "lines": lines}).Info("Stored candidate run")
	return nil
}

// analyzeFiles processes the files concurrently and keeps the results in
// argument order
func (c *CandidatesCmd) analyzeFiles(ctx context.Context, a *analyzer.Analyzer) ([][]lineResult, error) {
	results := make([][]lineResult, len(c.Files))

	g, _ := errgroup.WithContext(ctx)
	if c.Jobs > 0 {
		g.SetLimit(c.Jobs)
	}
	for i, path := range c.Files {
		g.Go(func() error {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			r, err := c.analyzeReader(a, path, f)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *CandidatesCmd) analyzeReader(a *analyzer.Analyzer, source string, r io.Reader) ([]lineResult, error) {
	var results []lineResult
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		results = append(results, c.analyze(a, source, lineNo, line))
	}
	return results, scanner.Err()
}

func (c *CandidatesCmd) analyze(a *analyzer.Analyzer, source string, lineNo int, s string) lineResult {
	if c.Normalize {
		s = input.Normalize(s)
	}
	text := a.NewText(s)
	result := lineResult{Source: source, Line: lineNo, Text: s}

	var err error
	if c.Offset >= 0 {
		if err = oov.CheckOffset(text, c.Offset); err == nil {
			result.Nodes, err = a.OOV(text, c.Offset, c.HasOtherWords)
		}
	} else {
		result.Nodes, err = a.Candidates(text, c.HasOtherWords)
	}
	if err != nil {
		result.Errors = splitErrors(err)
	}
	return result
}

func splitErrors(err error) []string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var msgs []string
		for _, e := range joined.Unwrap() {
			msgs = append(msgs, splitErrors(e)...)
		}
		return msgs
	}
	return []string{err.Error()}
}

func (c *CandidatesCmd) write(out io.Writer, results [][]lineResult) error {
	var failed int
	if c.Format == "json" {
		enc := json.NewEncoder(out)
		for _, file := range results {
			for _, r := range file {
				if r.Nodes == nil {
					r.Nodes = []analysis.Node{}
				}
				if err := enc.Encode(r); err != nil {
					return err
				}
				failed += len(r.Errors)
			}
		}
	} else {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SOURCE\tLINE\tSURFACE\tBEGIN\tEND\tLEFT\tRIGHT\tCOST\tPOS")
		for _, file := range results {
			for _, r := range file {
				for _, n := range r.Nodes {
					fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
						r.Source, r.Line, n.WordInfo.Surface, n.Begin, n.End, n.LeftID, n.RightID, n.Cost, n.WordInfo.POSID)
				}
				for _, e := range r.Errors {
					fmt.Fprintf(w, "%s\t%d\terror: %s\n", r.Source, r.Line, e)
				}
				failed += len(r.Errors)
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d generation errors", failed)
	}
	return nil
}
