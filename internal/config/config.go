// Package config handles workspace layout, global settings and the venue catalog.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	StoreFile   = "papers.jsonl"
	PartialsDir = "partials"
	StateDir    = ".toppaper"
	IndexFile   = "index.db"
	VenuesFile  = "venues.yml"

	// WorkspaceEnv overrides the configured workspace.
	WorkspaceEnv = "TOPPAPER_WORKSPACE"
)

// Workspace is a directory holding one canonical store and its partial collections.
type Workspace struct {
	Root string
}

// StorePath returns the path to the canonical store.
func (w Workspace) StorePath() string {
	return filepath.Join(w.Root, StoreFile)
}

// PartialsPath returns the directory adapter runs write into.
func (w Workspace) PartialsPath() string {
	return filepath.Join(w.Root, PartialsDir)
}

// PartialPath returns the partial collection path for one venue/year run.
func (w Workspace) PartialPath(name string) string {
	return filepath.Join(w.Root, PartialsDir, name)
}

// StatePath returns the directory for derived, rebuildable state.
func (w Workspace) StatePath() string {
	return filepath.Join(w.Root, StateDir)
}

// IndexPath returns the path to the SQLite query index.
func (w Workspace) IndexPath() string {
	return filepath.Join(w.Root, StateDir, IndexFile)
}

// VenuesPath returns the path of the optional per-workspace catalog override.
func (w Workspace) VenuesPath() string {
	return filepath.Join(w.Root, StateDir, VenuesFile)
}

// Init creates the workspace directories. Existing content is left alone.
func (w Workspace) Init() error {
	for _, dir := range []string{w.Root, w.PartialsPath(), w.StatePath()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// ResolveWorkspace picks the workspace root. Precedence: explicit flag value,
// TOPPAPER_WORKSPACE, global config, current directory.
func ResolveWorkspace(flagValue string) (Workspace, error) {
	root := flagValue
	if root == "" {
		root = os.Getenv(WorkspaceEnv)
	}
	if root == "" {
		root = GetWorkspace()
	}
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return Workspace{}, fmt.Errorf("getting current directory: %w", err)
		}
		root = cwd
	}

	abs, err := filepath.Abs(ExpandPath(root))
	if err != nil {
		return Workspace{}, fmt.Errorf("resolving path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return Workspace{}, fmt.Errorf("workspace does not exist: %s", abs)
	}
	if !info.IsDir() {
		return Workspace{}, fmt.Errorf("workspace is not a directory: %s", abs)
	}

	return Workspace{Root: abs}, nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
