// Package filex moves documents between codec files and the local
// filesystem.
package filex

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/ghostpaste/internal/codec"
	"github.com/dmitrijs2005/ghostpaste/internal/common"
)

var (
	ErrNotText    = common.E(common.KindValidation, "filex: file is not valid UTF-8 text")
	ErrUnsafeName = common.E(common.KindValidation, "filex: unsafe file name")
)

var languages = map[string]string{
	".go":    "go",
	".py":    "python",
	".js":    "javascript",
	".mjs":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".jsx":   "javascript",
	".rs":    "rust",
	".rb":    "ruby",
	".java":  "java",
	".kt":    "kotlin",
	".c":     "c",
	".h":     "c",
	".cc":    "cpp",
	".cpp":   "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".php":   "php",
	".swift": "swift",
	".sh":    "bash",
	".bash":  "bash",
	".sql":   "sql",
	".json":  "json",
	".yaml":  "yaml",
	".yml":   "yaml",
	".toml":  "toml",
	".xml":   "xml",
	".html":  "html",
	".css":   "css",
	".md":    "markdown",
	".txt":   "text",
}

// DetectLanguage guesses a language tag from the file extension. Unknown
// extensions give "".
func DetectLanguage(name string) string {
	base := filepath.Base(name)
	if base == "Dockerfile" {
		return "dockerfile"
	}
	if base == "Makefile" {
		return "makefile"
	}
	return languages[strings.ToLower(filepath.Ext(base))]
}

// LoadFiles reads paths into codec files named by their base name.
func LoadFiles(paths []string) ([]codec.File, error) {
	files := make([]codec.File, 0, len(paths))
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		if !utf8.Valid(b) {
			return nil, fmt.Errorf("%w: %s", ErrNotText, p)
		}
		name := filepath.Base(p)
		files = append(files, codec.File{Name: name, Content: string(b), Language: DetectLanguage(name)})
	}
	return files, nil
}

// SafeName reports whether name can be written as a single entry inside a
// directory.
func SafeName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}

// WriteFiles writes files into dir, creating it if needed, and returns the
// written paths. Names that would escape dir are rejected before anything
// is written.
func WriteFiles(dir string, files []codec.File) ([]string, error) {
	for _, f := range files {
		if !SafeName(f.Name) {
			return nil, fmt.Errorf("%w: %q", ErrUnsafeName, f.Name)
		}
	}

	dir, err := EnsureDir(dir)
	if err != nil {
		return nil, err
	}

	var errs []error
	paths := make([]string, 0, len(files))
	for _, f := range files {
		p := filepath.Join(dir, f.Name)
		if err := os.WriteFile(p, []byte(f.Content), 0o640); err != nil {
			errs = append(errs, fmt.Errorf("write %s: %w", p, err))
			continue
		}
		paths = append(paths, p)
	}
	return paths, errors.Join(errs...)
}

// EnsureDir creates dir, relative to the working directory unless
// absolute, and returns its absolute path.
func EnsureDir(dirName string) (string, error) {
	dir := dirName
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dirName)
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}
