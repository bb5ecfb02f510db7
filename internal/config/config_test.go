package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWorkspacePaths(t *testing.T) {
	ws := Workspace{Root: "/data/ws"}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"store", ws.StorePath(), "/data/ws/papers.jsonl"},
		{"partials", ws.PartialsPath(), "/data/ws/partials"},
		{"partial", ws.PartialPath("CVPR2020papers.jsonl"), "/data/ws/partials/CVPR2020papers.jsonl"},
		{"state", ws.StatePath(), "/data/ws/.toppaper"},
		{"index", ws.IndexPath(), "/data/ws/.toppaper/index.db"},
		{"venues", ws.VenuesPath(), "/data/ws/.toppaper/venues.yml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestWorkspaceInit(t *testing.T) {
	ws := Workspace{Root: filepath.Join(t.TempDir(), "ws")}
	if err := ws.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	for _, dir := range []string{ws.PartialsPath(), ws.StatePath()} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("expected directory %s", dir)
		}
	}
	// Idempotent
	if err := ws.Init(); err != nil {
		t.Errorf("second Init() error = %v", err)
	}
}

func TestResolveWorkspace_Precedence(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	flagDir := t.TempDir()
	envDir := t.TempDir()

	t.Setenv(WorkspaceEnv, envDir)

	ws, err := ResolveWorkspace(flagDir)
	if err != nil {
		t.Fatalf("ResolveWorkspace() error = %v", err)
	}
	if ws.Root != flagDir {
		t.Errorf("Root = %q, want flag dir %q", ws.Root, flagDir)
	}

	ws, err = ResolveWorkspace("")
	if err != nil {
		t.Fatalf("ResolveWorkspace() error = %v", err)
	}
	if ws.Root != envDir {
		t.Errorf("Root = %q, want env dir %q", ws.Root, envDir)
	}
}

func TestResolveWorkspace_Missing(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	_, err := ResolveWorkspace(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Error("ResolveWorkspace() expected error for missing directory")
	}

	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ResolveWorkspace(file); err == nil {
		t.Error("ResolveWorkspace() expected error for a regular file")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}

	tests := []struct {
		input string
		want  string
	}{
		{"~/papers", filepath.Join(home, "papers")},
		{"/abs/path", "/abs/path"},
		{"relative", "relative"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ExpandPath(tt.input); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
