package plugins

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Severity of a vet finding
type Severity string

const (
	SeverityHigh    Severity = "high"
	SeverityMedium  Severity = "medium"
	SeverityWarning Severity = "warning"
)

// Issue is one problem found in a plugin source directory
type Issue struct {
	Severity    Severity `json:"severity"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	File        string   `json:"file,omitempty"`
	Line        int      `json:"line,omitempty"`
}

// VetReport is the result of vetting one plugin directory
type VetReport struct {
	Dir      string            `json:"dir"`
	Manifest *Manifest         `json:"manifest,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
	Issues   []Issue           `json:"issues,omitempty"`
}

// OK reports whether the plugin can be loaded and has no high severity issues
func (r *VetReport) OK() bool {
	if len(r.Errors) > 0 {
		return false
	}
	for _, issue := range r.Issues {
		if issue.Severity == SeverityHigh {
			return false
		}
	}
	return true
}

// Vetter checks plugin source directories before they are built and loaded
type Vetter struct {
	category   string
	entryPoint string
	imports    map[string]Severity
	secrets    []secretPattern
	logger     *logrus.Logger
}

type secretPattern struct {
	name    string
	pattern *regexp.Regexp
}

// NewVetter creates a vetter for plugins of the given category. Modules must
// export entryPoint from package main.
func NewVetter(category, entryPoint string, logger *logrus.Logger) *Vetter {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Vetter{
		category:   category,
		entryPoint: entryPoint,
		imports: map[string]Severity{
			"os/exec":  SeverityHigh,
			"syscall":  SeverityHigh,
			"unsafe":   SeverityHigh,
			"plugin":   SeverityMedium,
			"net":      SeverityMedium,
			"net/http": SeverityMedium,
			"os":       SeverityWarning,
		},
		secrets: []secretPattern{
			{"API Key", regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*[:=]\s*["']([a-zA-Z0-9]{20,})["']`)},
			{"Password", regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[:=]\s*["']([^"']{8,})["']`)},
			{"Token", regexp.MustCompile(`(?i)(token|auth[_-]?token)\s*[:=]\s*["']([a-zA-Z0-9]{20,})["']`)},
			{"Private Key", regexp.MustCompile(`-----BEGIN (RSA |EC )?PRIVATE KEY-----`)},
		},
		logger: logger,
	}
}

// Vet validates the manifest in dir and scans its Go sources
func (v *Vetter) Vet(dir string) (*VetReport, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	report := &VetReport{Dir: dir}

	manifest, err := LoadManifestFromDir(dir)
	switch {
	case err == nil:
		report.Manifest = manifest
		report.Errors = ValidateManifest(manifest, v.category)
		if manifest.APIVersion != "" && !IsCompatibleAPIVersion(manifest.APIVersion, CurrentAPIVersion) {
			report.Errors = append(report.Errors, ValidationError{
				Field:   "api_version",
				Message: fmt.Sprintf("%s is not compatible with %s", manifest.APIVersion, CurrentAPIVersion),
			})
		}
	case errors.Is(err, fs.ErrNotExist):
		report.Issues = append(report.Issues, Issue{
			Severity:    SeverityWarning,
			Category:    "manifest",
			Description: fmt.Sprintf("no %s, the module must be configured by path", ManifestFile),
		})
	default:
		report.Errors = append(report.Errors, ValidationError{Field: "manifest", Message: err.Error()})
	}

	issues, err := v.scanSources(dir)
	if err != nil {
		return nil, err
	}
	report.Issues = append(report.Issues, issues...)

	v.logger.WithFields(logrus.Fields{
		"dir":    dir,
		"errors": len(report.Errors),
		"issues": len(report.Issues),
	}).Debug("Vetted plugin directory")

	return report, nil
}

func (v *Vetter) scanSources(dir string) ([]Issue, error) {
	var issues []Issue
	foundImports := make(map[string][]string)
	fset := token.NewFileSet()
	sources := 0
	mainPackage := false
	exported := false

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		sources++

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, path)

		file, err := parser.ParseFile(fset, path, content, parser.SkipObjectResolution)
		if err != nil {
			issues = append(issues, Issue{
				Severity:    SeverityHigh,
				Category:    "syntax",
				Description: err.Error(),
				File:        rel,
			})
			return nil
		}

		for _, imp := range file.Imports {
			importPath, _ := strconv.Unquote(imp.Path.Value)
			if _, ok := v.imports[importPath]; ok {
				foundImports[importPath] = append(foundImports[importPath], rel)
			}
		}
		if file.Name.Name == "main" {
			mainPackage = true
			if fn := findFunc(file, v.entryPoint); fn != nil {
				exported = true
				if issue, ok := v.checkSignature(fset, fn, rel); !ok {
					issues = append(issues, issue)
				}
			}
		}

		issues = append(issues, v.checkSecrets(content, rel)...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk plugin directory: %w", err)
	}

	switch {
	case sources == 0:
		issues = append(issues, Issue{
			Severity:    SeverityWarning,
			Category:    "sources",
			Description: "no Go sources found",
		})
	case !mainPackage:
		issues = append(issues, Issue{
			Severity:    SeverityHigh,
			Category:    "entry-point",
			Description: "plugin modules must be package main",
		})
	case v.entryPoint != "" && !exported:
		issues = append(issues, Issue{
			Severity:    SeverityHigh,
			Category:    "entry-point",
			Description: fmt.Sprintf("package main does not declare func %s", v.entryPoint),
		})
	}

	names := make([]string, 0, len(foundImports))
	for name := range foundImports {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		files := foundImports[name]
		issues = append(issues, Issue{
			Severity:    v.imports[name],
			Category:    "import",
			Description: fmt.Sprintf("imports %s (found in %d file(s))", name, len(files)),
			File:        files[0],
		})
	}

	return issues, nil
}

func findFunc(file *ast.File, name string) *ast.FuncDecl {
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if ok && fn.Recv == nil && fn.Name.Name == name {
			return fn
		}
	}
	return nil
}

// checkSignature expects func() (T, error)
func (v *Vetter) checkSignature(fset *token.FileSet, fn *ast.FuncDecl, file string) (Issue, bool) {
	results := fn.Type.Results
	ok := fn.Type.TypeParams == nil &&
		fn.Type.Params.NumFields() == 0 &&
		results.NumFields() == 2
	if ok {
		last, isIdent := results.List[len(results.List)-1].Type.(*ast.Ident)
		ok = isIdent && last.Name == "error"
	}
	if ok {
		return Issue{}, true
	}

	return Issue{
		Severity:    SeverityHigh,
		Category:    "entry-point",
		Description: fmt.Sprintf("func %s must have the signature func() (T, error)", v.entryPoint),
		File:        file,
		Line:        fset.Position(fn.Pos()).Line,
	}, false
}

func (v *Vetter) checkSecrets(content []byte, file string) []Issue {
	var issues []Issue
	for _, secret := range v.secrets {
		loc := secret.pattern.FindIndex(content)
		if loc == nil {
			continue
		}
		issues = append(issues, Issue{
			Severity:    SeverityHigh,
			Category:    "secret",
			Description: fmt.Sprintf("potential hardcoded %s", secret.name),
			File:        file,
			Line:        1 + strings.Count(string(content[:loc[0]]), "\n"),
		})
	}
	return issues
}
