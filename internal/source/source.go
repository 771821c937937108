// Package source discovers and loads the files an analysis run operates on:
// directory walking, ignore rules, and size limits.
package source

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/garagon/yarara/internal/analyzer"
)

// DefaultMaxFileSize is the largest file the loader will read (1 MiB).
const DefaultMaxFileSize = 1 << 20

// Loader walks a directory tree and returns analyzable files.
type Loader struct {
	MaxFileSize    int64
	IgnorePatterns []string
}

// NewLoader returns a loader with default limits.
func NewLoader() *Loader {
	return &Loader{MaxFileSize: DefaultMaxFileSize}
}

// Discover returns the files under root that survive the ignore rules,
// content loaded, paths relative to root. A root that is itself a file is
// returned as a single-element batch. Unreadable files are skipped.
func (l *Loader) Discover(root string) ([]analyzer.File, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		data, err := os.ReadFile(root)
		if err != nil {
			return nil, err
		}
		return []analyzer.File{{Path: filepath.Base(root), Content: string(data)}}, nil
	}

	l.loadIgnoreFile(root)

	var files []analyzer.File
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip inaccessible entries
		}
		if info.IsDir() {
			if skipDirs[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if info.Name() == ".yararaignore" || skipExt(path) {
			return nil
		}
		if l.MaxFileSize > 0 && info.Size() > l.MaxFileSize {
			return nil
		}
		rel, _ := filepath.Rel(root, path)
		rel = filepath.ToSlash(rel)
		if l.isIgnored(rel) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		files = append(files, analyzer.File{Path: rel, Content: string(data)})
		return nil
	})
	return files, err
}

// loadIgnoreFile appends the patterns from root's .yararaignore, if any.
func (l *Loader) loadIgnoreFile(root string) {
	f, err := os.Open(filepath.Join(root, ".yararaignore"))
	if err != nil {
		return
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			l.IgnorePatterns = append(l.IgnorePatterns, line)
		}
	}
}

func (l *Loader) isIgnored(relPath string) bool {
	for _, pattern := range l.IgnorePatterns {
		if matchGlob(pattern, relPath) {
			return true
		}
	}
	return false
}

// matchGlob supports ** globs that filepath.Match does not.
// "dir/**" matches any file under dir/ at any depth.
// "**/*.py" matches any .py file at any depth.
func matchGlob(pattern, relPath string) bool {
	if !strings.Contains(pattern, "**") {
		if matched, _ := filepath.Match(pattern, relPath); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, filepath.Base(relPath)); matched {
			return true
		}
		return false
	}

	if strings.HasSuffix(pattern, "/**") {
		prefix := strings.TrimSuffix(pattern, "/**")
		if strings.HasPrefix(relPath, prefix+"/") || relPath == prefix {
			return true
		}
	}

	if strings.HasPrefix(pattern, "**/") {
		suffix := strings.TrimPrefix(pattern, "**/")
		parts := strings.Split(relPath, "/")
		for i := range parts {
			candidate := strings.Join(parts[i:], "/")
			if matched, _ := filepath.Match(suffix, candidate); matched {
				return true
			}
		}
	}

	if idx := strings.Index(pattern, "/**/"); idx >= 0 {
		prefix := pattern[:idx]
		suffix := pattern[idx+4:]
		if strings.HasPrefix(relPath, prefix+"/") {
			rest := strings.TrimPrefix(relPath, prefix+"/")
			parts := strings.Split(rest, "/")
			for i := range parts {
				candidate := strings.Join(parts[i:], "/")
				if matched, _ := filepath.Match(suffix, candidate); matched {
					return true
				}
			}
		}
	}

	return false
}

var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	"build":        true,
	"dist":         true,
	".yarara":      true,
}

var skipExts = map[string]bool{
	".lock": true, ".log": true, ".tmp": true, ".cache": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true,
	".pyc": true, ".pyo": true, ".pyd": true, ".whl": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".ico": true, ".svg": true, ".woff": true, ".woff2": true,
	".ttf": true, ".eot": true, ".zip": true, ".tar": true,
	".gz": true, ".bz2": true, ".xz": true, ".7z": true,
	".pdf": true, ".mp3": true, ".mp4": true, ".avi": true,
	".mov": true, ".bin": true, ".o": true, ".a": true,
}

func skipExt(path string) bool {
	return skipExts[strings.ToLower(filepath.Ext(path))]
}
