// File: internal/specfile/render.go
// Brief: Renders the .spec template and persists the result.

// Package specfile builds the template context for the builder's control
// file and renders it with text/template plus the sprig function set.
package specfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/normano/cargo-revolve/internal/errdefs"
)

// Extension is the control file suffix rpmbuild expects.
const Extension = ".spec"

// Rendered is a control file that has been written to disk.
type Rendered struct {
	Path    string
	Content string
}

// Filename is the control file name for a package identity.
func Filename(name, version string) string {
	return fmt.Sprintf("%s-%s%s", name, version, Extension)
}

// Execute renders templatePath against ctx without touching the output directory.
func Execute(ctx BuildContext, templatePath string) (string, error) {
	raw, err := os.ReadFile(templatePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", &errdefs.TemplateError{Kind: errdefs.TemplateNotFound, Path: templatePath, Err: err}
		}
		return "", &errdefs.TemplateError{Kind: errdefs.TemplateNotFound, Path: templatePath, Err: fmt.Errorf("read template: %w", err)}
	}
	tmpl, err := template.New(filepath.Base(templatePath)).
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(string(raw))
	if err != nil {
		return "", &errdefs.TemplateError{Kind: errdefs.TemplateRenderError, Path: templatePath, Err: err}
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", &errdefs.TemplateError{Kind: errdefs.TemplateRenderError, Path: templatePath, Err: err}
	}
	return buf.String(), nil
}

// Render executes the template and writes outputDir/{name}-{version}.spec.
func Render(ctx BuildContext, templatePath, outputDir string) (*Rendered, error) {
	content, err := Execute(ctx, templatePath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create spec output dir: %w", err)
	}
	out := filepath.Join(outputDir, Filename(ctx.Pkg.Name, ctx.Pkg.Version))
	if err := os.WriteFile(out, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("write rendered spec to %s: %w", out, err)
	}
	return &Rendered{Path: out, Content: content}, nil
}

// Diff returns a unified diff between two renderings of the same control file.
// An empty string means the contents are identical.
func Diff(previous, current, name string) (string, error) {
	if previous == current {
		return "", nil
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(previous),
		B:        difflib.SplitLines(current),
		FromFile: name + " (previous)",
		ToFile:   name + " (rendered)",
		Context:  3,
	})
}
