package director

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ScenesDir is where scripts are looked up when none is given
const ScenesDir = "scenes"

// GenerateScriptPath creates a timestamped script filename
func GenerateScriptPath() string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(ScenesDir, fmt.Sprintf("scene_%s.yaml", timestamp))
}

// FindLatestScript finds the most recent script file in dir
func FindLatestScript(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read scenes directory: %w", err)
	}

	type script struct {
		path    string
		modTime time.Time
	}
	var scripts []script
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			continue
		}
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			// Removed while listing
			continue
		}
		scripts = append(scripts, script{path: path, modTime: info.ModTime()})
	}

	if len(scripts) == 0 {
		return "", fmt.Errorf("no scene scripts found in %s", dir)
	}

	// Newest first
	sort.Slice(scripts, func(i, j int) bool {
		return scripts[i].modTime.After(scripts[j].modTime)
	})

	return scripts[0].path, nil
}
