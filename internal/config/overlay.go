package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// OverlayFile is the optional per-repository override for the revolve table.
const OverlayFile = ".revolve.yaml"

func OverlayPath(root string) string {
	root = strings.TrimSpace(root)
	if root == "" {
		return ""
	}
	return filepath.Join(root, OverlayFile)
}

func loadOverlay(path string) (Revolve, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Revolve{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Revolve{}, nil
		}
		return Revolve{}, err
	}
	raw = []byte(strings.TrimSpace(string(raw)))
	if len(raw) == 0 {
		return Revolve{}, nil
	}
	var cfg Revolve
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Revolve{}, err
	}
	return cfg, nil
}

func mergeRevolve(a, b Revolve) Revolve {
	out := a
	if b.SpecTemplate != "" {
		out.SpecTemplate = b.SpecTemplate
	}
	if b.OutputDir != "" {
		out.OutputDir = b.OutputDir
	}
	if b.Changelog != "" {
		out.Changelog = b.Changelog
	}
	if b.BuildFlags != nil {
		out.BuildFlags = b.BuildFlags
	}
	if len(b.BuildCommand) > 0 {
		out.BuildCommand = b.BuildCommand
	}
	if len(b.Assets) > 0 {
		out.Assets = b.Assets
	}
	if b.VerifyLicense != "" {
		out.VerifyLicense = b.VerifyLicense
	}
	if b.VerifySummary != "" {
		out.VerifySummary = b.VerifySummary
	}
	return out
}
