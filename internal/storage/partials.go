package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// PartialExt is the extension written for new partial collections.
const PartialExt = ".jsonl"

// LegacyPartialExt is accepted on read for collections produced as JSON arrays.
const LegacyPartialExt = ".json"

// PartialName returns the file name for one adapter run, e.g. CVPR2020papers.jsonl.
func PartialName(source string, year int) string {
	return fmt.Sprintf("%s%dpapers%s", source, year, PartialExt)
}

// ListPartials returns the partial collections in dir, sorted by name.
// Paths listed in exclude (typically the canonical store) are skipped, as are
// temp files left behind by interrupted writes.
func ListPartials(dir string, exclude ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading partials directory: %w", err)
	}

	skip := make(map[string]bool, len(exclude))
	for _, p := range exclude {
		if abs, err := filepath.Abs(p); err == nil {
			skip[abs] = true
		}
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		ext := filepath.Ext(name)
		if ext != PartialExt && ext != LegacyPartialExt {
			continue
		}
		path := filepath.Join(dir, name)
		if abs, err := filepath.Abs(path); err == nil && skip[abs] {
			continue
		}
		paths = append(paths, path)
	}

	sort.Strings(paths)
	return paths, nil
}
