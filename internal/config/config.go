// Package config reads the project-level `yasn.toml`/`yasny.toml`
// manifest. Only the `[modules]` section is interpreted by the toolchain
// (module resolver search paths); `[dependencies]` and `[run]` are parsed
// so a well-formed manifest round-trips cleanly, but nothing in this
// module currently acts on them — dependency fetching and the
// project-runner are out of scope (spec.md §1).
//
// Grounded on _examples/original_source/yasny/module_loader.py
// (`ModuleConfig`, `_load_config`, `_init_project_context`'s ancestor walk
// for yasn.toml/yasny.toml/pyproject.toml) for exact semantics.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"yasny/internal/diagnostics"
)

// Modules is the `[modules]` section: an optional project-relative root
// and a list of additional search roots, each tried in order after the
// importer-relative path and before giving up.
type Modules struct {
	Root  string   `toml:"root"`
	Paths []string `toml:"paths"`
}

// Dependency is one `[dependencies]` entry. Parsed, never resolved:
// fetching third-party modules is an out-of-scope external collaborator.
type Dependency struct {
	Version string `toml:"version"`
	Source  string `toml:"source"`
}

// Run is the `[run]` section, mirroring the out-of-scope project-runner's
// manifest shape closely enough to parse without erroring on it.
type Run struct {
	Backend  string `toml:"backend"`
	Frontend string `toml:"frontend"`
}

// Project is the full manifest. Only Modules is consulted by this
// toolchain.
type Project struct {
	Modules      Modules               `toml:"modules"`
	Dependencies map[string]Dependency `toml:"dependencies"`
	Run          Run                   `toml:"run"`
}

// FindProjectRoot walks from entry's containing directory up through every
// ancestor looking for yasn.toml, then yasny.toml, then (as a root hint
// only, without a module config to load) pyproject.toml. Returns the
// project root directory, the manifest path if one was found (empty if
// only a pyproject.toml marker was seen), and ok=false if nothing was
// found at all.
func FindProjectRoot(entry string) (root string, manifestPath string, ok bool) {
	base := entry
	if info, err := os.Stat(entry); err == nil && !info.IsDir() {
		base = filepath.Dir(entry)
	}

	dir := base
	var pyprojectRoot string
	for {
		if p := filepath.Join(dir, "yasn.toml"); fileExists(p) {
			return dir, p, true
		}
		if p := filepath.Join(dir, "yasny.toml"); fileExists(p) {
			return dir, p, true
		}
		if pyprojectRoot == "" && fileExists(filepath.Join(dir, "pyproject.toml")) {
			pyprojectRoot = dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	if pyprojectRoot != "" {
		return pyprojectRoot, "", true
	}
	return "", "", false
}

// Load parses a manifest file at path. Errors from malformed TOML or a
// malformed [modules] section surface as a single *diagnostics.Error, the
// way every other stage of the toolchain reports failure.
func Load(path string) (*Project, error) {
	var proj Project
	if _, err := toml.DecodeFile(path, &proj); err != nil {
		return nil, diagnostics.NewCompileError("не удалось прочитать "+filepath.Base(path)+": "+err.Error(), path, 0, 0)
	}
	return &proj, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
