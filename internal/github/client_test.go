package github

import (
	"testing"
)

func TestParseGitHubURL(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		// Full HTTPS URLs
		{
			name:      "https url",
			input:     "https://github.com/cvlab/mae",
			wantOwner: "cvlab",
			wantRepo:  "mae",
			wantErr:   false,
		},
		{
			name:      "https url with .git",
			input:     "https://github.com/cvlab/mae.git",
			wantOwner: "cvlab",
			wantRepo:  "mae",
			wantErr:   false,
		},
		{
			name:      "http url",
			input:     "http://github.com/cvlab/mae",
			wantOwner: "cvlab",
			wantRepo:  "mae",
			wantErr:   false,
		},
		// Deeper paths and decorations
		{
			name:      "tree path",
			input:     "https://github.com/cvlab/mae/tree/main/models",
			wantOwner: "cvlab",
			wantRepo:  "mae",
		},
		{
			name:      "fragment",
			input:     "https://www.github.com/cvlab/mae#readme",
			wantOwner: "cvlab",
			wantRepo:  "mae",
		},
		{
			name:      "query",
			input:     "https://github.com/cvlab/mae?tab=readme-ov-file",
			wantOwner: "cvlab",
			wantRepo:  "mae",
		},
		{
			name:      "git suffix with trailing slash",
			input:     "https://github.com/cvlab/mae.git/",
			wantOwner: "cvlab",
			wantRepo:  "mae",
		},
		// Without protocol
		{
			name:      "without protocol",
			input:     "github.com/cvlab/mae",
			wantOwner: "cvlab",
			wantRepo:  "mae",
			wantErr:   false,
		},
		{
			name:      "without protocol with .git",
			input:     "github.com/cvlab/mae.git",
			wantOwner: "cvlab",
			wantRepo:  "mae",
			wantErr:   false,
		},
		// Shorthand
		{
			name:      "shorthand",
			input:     "cvlab/mae",
			wantOwner: "cvlab",
			wantRepo:  "mae",
			wantErr:   false,
		},
		{
			name:      "shorthand with hyphen",
			input:     "cvlab/deep-sets",
			wantOwner: "cvlab",
			wantRepo:  "deep-sets",
			wantErr:   false,
		},
		{
			name:      "shorthand with underscore",
			input:     "cvlab/deep_sets",
			wantOwner: "cvlab",
			wantRepo:  "deep_sets",
			wantErr:   false,
		},
		// With whitespace
		{
			name:      "with leading/trailing whitespace",
			input:     "  cvlab/mae  ",
			wantOwner: "cvlab",
			wantRepo:  "mae",
			wantErr:   false,
		},
		// Invalid inputs
		{
			name:    "no slash",
			input:   "cvlab",
			wantErr: true,
		},
		{
			name:    "too many slashes in shorthand",
			input:   "cvlab/mae/extra",
			wantErr: true,
		},
		{
			name:    "owner only",
			input:   "https://github.com/cvlab",
			wantErr: true,
		},
		{
			name:    "topics page",
			input:   "https://github.com/topics/vision",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
		{
			name:    "just slash",
			input:   "/",
			wantErr: true,
		},
		{
			name:    "gitlab url",
			input:   "https://gitlab.com/cvlab/mae",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, err := ParseGitHubURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseGitHubURL() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr {
				if owner != tt.wantOwner {
					t.Errorf("ParseGitHubURL() owner = %v, want %v", owner, tt.wantOwner)
				}
				if repo != tt.wantRepo {
					t.Errorf("ParseGitHubURL() repo = %v, want %v", repo, tt.wantRepo)
				}
			}
		})
	}
}

func TestNormalizeGitHubURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "https url",
			input: "https://github.com/cvlab/mae",
			want:  "https://github.com/cvlab/mae",
		},
		{
			name:  "shorthand",
			input: "cvlab/mae",
			want:  "https://github.com/cvlab/mae",
		},
		{
			name:  "without protocol",
			input: "github.com/cvlab/mae",
			want:  "https://github.com/cvlab/mae",
		},
		{
			name:  "with .git",
			input: "https://github.com/cvlab/mae.git",
			want:  "https://github.com/cvlab/mae",
		},
		{
			name:    "invalid",
			input:   "not-a-url",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeGitHubURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("NormalizeGitHubURL() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("NormalizeGitHubURL() = %v, want %v", got, tt.want)
			}
		})
	}
}
