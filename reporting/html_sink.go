package reporting

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path"
	"path/filepath"

	"github.com/ethereum-optimism/infra/op-testreport/templates"
	"github.com/ethereum-optimism/infra/op-testreport/types"
)

//go:embed assets/result.html.tmpl assets/css/result.css assets/js/result.js
var assetFS embed.FS

const (
	HTMLFilename         = "test_result.html"
	DefaultScreenshotDir = "../screenshots"
)

// HTMLSink renders the report as a static HTML page with its css and js
type HTMLSink struct {
	tmpl          *template.Template
	dir           string
	screenshotDir string
	specRoot      string
}

// NewHTMLSink creates an HTML sink writing to dir. Screenshot links point
// into screenshotDir; specRoot is trimmed from displayed file paths.
func NewHTMLSink(dir, screenshotDir, specRoot string) (*HTMLSink, error) {
	tmpl, err := template.New("result.html.tmpl").
		Funcs(templates.GetTemplateFunc()).
		ParseFS(assetFS, "assets/result.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML template: %w", err)
	}
	if screenshotDir == "" {
		screenshotDir = DefaultScreenshotDir
	}
	return &HTMLSink{
		tmpl:          tmpl,
		dir:           dir,
		screenshotDir: screenshotDir,
		specRoot:      specRoot,
	}, nil
}

func (s *HTMLSink) Name() string {
	return "html"
}

func (s *HTMLSink) Write(_ context.Context, result *types.OverallResult) error {
	if s.dir == "" {
		return ErrNoOutputDir
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, s.page(result)); err != nil {
		return fmt.Errorf("failed to format HTML: %w", err)
	}

	for _, asset := range []string{"css/result.css", "js/result.js"} {
		data, err := assetFS.ReadFile(path.Join("assets", asset))
		if err != nil {
			return fmt.Errorf("failed to read asset %s: %w", asset, err)
		}
		dst := filepath.Join(s.dir, filepath.FromSlash(asset))
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return fmt.Errorf("failed to create asset directory: %w", err)
		}
		if err := os.WriteFile(dst, data, 0644); err != nil {
			return fmt.Errorf("failed to write asset %s: %w", asset, err)
		}
	}

	if err := os.WriteFile(filepath.Join(s.dir, HTMLFilename), buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write HTML file: %w", err)
	}
	return nil
}

type htmlAnnotation struct {
	Key   string
	Value string
}

type htmlTest struct {
	Title       string
	State       types.TestState
	Stack       string
	Screenshots []string
	Annotations []htmlAnnotation
}

type htmlSuite struct {
	Title    string
	Duration int64
	Nested   []htmlSuite
	Tests    []htmlTest
}

type htmlRoot struct {
	htmlSuite
	UUID        string
	File        string
	Counts      *types.AggregateCount
	Annotations []htmlAnnotation
}

type htmlPage struct {
	RunID    string
	Overview types.Overview
	Roots    []htmlRoot
}

func (s *HTMLSink) page(result *types.OverallResult) htmlPage {
	page := htmlPage{RunID: result.RunID, Overview: result.Overview}
	for _, root := range result.Suites.Roots() {
		var counts types.AggregateCount
		if root.Counts != nil {
			counts = *root.Counts
		}
		page.Roots = append(page.Roots, htmlRoot{
			htmlSuite:   s.suite(root),
			UUID:        root.UUID,
			File:        templates.ShortFile(root.File, s.specRoot),
			Counts:      &counts,
			Annotations: annotationsOf(&root.Annotations),
		})
	}
	return page
}

func (s *HTMLSink) suite(rec *types.SuiteRecord) htmlSuite {
	out := htmlSuite{Title: rec.Title, Duration: rec.Duration}
	for _, child := range rec.NestedSuites {
		out.Nested = append(out.Nested, s.suite(child))
	}
	for _, t := range rec.Tests.All() {
		out.Tests = append(out.Tests, s.test(t))
	}
	return out
}

func (s *HTMLSink) test(t *types.TestRecord) htmlTest {
	out := htmlTest{Title: t.Title, State: t.State, Annotations: annotationsOf(&t.Annotations)}
	if t.Error != nil {
		out.Stack = t.Error.Stack
		if out.Stack == "" {
			out.Stack = t.Error.Message
		}
	}
	for _, name := range t.Screenshots {
		out.Screenshots = append(out.Screenshots, path.Join(s.screenshotDir, name))
	}
	return out
}

func annotationsOf(a *types.Annotations) []htmlAnnotation {
	var out []htmlAnnotation
	for _, k := range a.Keys() {
		v, _ := a.Get(k)
		out = append(out, htmlAnnotation{Key: k, Value: v})
	}
	return out
}
