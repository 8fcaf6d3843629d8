package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/normano/cargo-revolve/internal/rpminfo"
	"github.com/normano/cargo-revolve/internal/ui"
)

func newInfoCommand(g *globalOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "info <rpm>",
		Short: "Print the metadata and file list of an RPM package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := g.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			logger.V(1).Info("inspecting package", "path", args[0])
			info, err := rpminfo.Inspect(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeInfoJSON(cmd.OutOrStdout(), info)
			}
			return writeInfo(cmd.OutOrStdout(), info)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the package metadata as JSON")
	return cmd
}

func writeInfo(w io.Writer, info *rpminfo.Info) error {
	h := info.Header
	var b strings.Builder
	fmt.Fprintf(&b, "Inspecting: %s\n", info.Path)
	b.WriteString("\n" + ui.Heading("Package Summary:") + "\n")
	fmt.Fprintf(&b, "  Name:      %s\n", orNA(h.Name))
	fmt.Fprintf(&b, "  Version:   %s\n", orNA(h.Version))
	fmt.Fprintf(&b, "  Release:   %s\n", orNA(h.Release))
	fmt.Fprintf(&b, "  Arch:      %s\n", orNA(h.Arch))
	fmt.Fprintf(&b, "  Size:      %d bytes (installed)\n", h.InstalledSize)
	fmt.Fprintf(&b, "  License:   %s\n", orNA(h.License))
	fmt.Fprintf(&b, "  Summary:   %s\n", orNA(h.Summary))
	fmt.Fprintf(&b, "  Digest:    %s\n", info.Digest)
	fmt.Fprintf(&b, "\n%s\n", ui.Heading(fmt.Sprintf("Files (%d):", len(h.Files))))
	for _, p := range h.Paths() {
		fmt.Fprintf(&b, "  %s\n", p)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

type infoFile struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
}

type infoDocument struct {
	Path          string     `json:"path"`
	Digest        string     `json:"digest"`
	Name          string     `json:"name"`
	Version       string     `json:"version"`
	Release       string     `json:"release"`
	Arch          string     `json:"arch"`
	InstalledSize uint64     `json:"installedSize"`
	License       string     `json:"license,omitempty"`
	Summary       string     `json:"summary,omitempty"`
	Files         []infoFile `json:"files"`
}

func writeInfoJSON(w io.Writer, info *rpminfo.Info) error {
	h := info.Header
	doc := infoDocument{
		Path:          info.Path,
		Digest:        info.Digest.String(),
		Name:          h.Name,
		Version:       h.Version,
		Release:       h.Release,
		Arch:          h.Arch,
		InstalledSize: h.InstalledSize,
		License:       h.License,
		Summary:       h.Summary,
		Files:         make([]infoFile, 0, len(h.Files)),
	}
	for _, f := range h.Files {
		doc.Files = append(doc.Files, infoFile{Path: f.Path, Mode: fmt.Sprintf("%04o", f.Mode)})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
