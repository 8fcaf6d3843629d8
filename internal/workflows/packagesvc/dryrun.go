// File: internal/workflows/packagesvc/dryrun.go
// Brief: Dry-run report printed instead of invoking rpmbuild.

package packagesvc

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/normano/cargo-revolve/internal/specfile"
	"github.com/normano/cargo-revolve/internal/ui"
)

func writeDryRunReport(w io.Writer, res *Result, previousSpec string, showDiff bool) error {
	rule := ui.Rule(w)
	var b strings.Builder
	b.WriteString(ui.Heading("--- Dry Run Activated ---") + "\n")
	fmt.Fprintf(&b, "\n[1/2] Rendered .spec file would be written to: %s\n", res.SpecPath)
	b.WriteString(rule + "\n")
	b.WriteString(res.SpecContent)
	if !strings.HasSuffix(res.SpecContent, "\n") {
		b.WriteString("\n")
	}
	b.WriteString(rule + "\n")

	if showDiff {
		switch {
		case previousSpec == "":
			b.WriteString("\nNo previously rendered .spec file to compare against.\n")
		default:
			diff, err := specfile.Diff(previousSpec, res.SpecContent, filepath.Base(res.SpecPath))
			if err != nil {
				return fmt.Errorf("diff rendered spec: %w", err)
			}
			if diff == "" {
				b.WriteString("\nRendered .spec file is unchanged since the last run.\n")
			} else {
				b.WriteString("\nChanges since the last rendered .spec file:\n")
				b.WriteString(diff)
			}
		}
	}

	b.WriteString("\n[2/2] The following `rpmbuild` command would be executed:\n")
	b.WriteString(shellquote.Join(res.Command...) + "\n")
	b.WriteString("\n--- End of Dry Run ---\n")
	_, err := io.WriteString(w, b.String())
	return err
}
