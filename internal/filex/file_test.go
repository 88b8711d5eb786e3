package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/dmitrijs2005/ghostpaste/internal/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

func TestEnsureDir_CreatesDirectoryInCWD(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	got, err := EnsureDir("out")
	require.NoError(t, err)

	want := filepath.Join(tmp, "out")
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		perm := fi.Mode().Perm()
		require.Equal(t, os.FileMode(0o700), perm&0o700)
	}
}

func TestEnsureDir_AbsoluteAndIdempotent(t *testing.T) {
	want := filepath.Join(t.TempDir(), "a", "b")

	first, err := EnsureDir(want)
	require.NoError(t, err)
	second, err := EnsureDir(want)
	require.NoError(t, err)

	require.Equal(t, want, first)
	require.Equal(t, first, second)
}

func TestEnsureDir_FailsIfFileWithSameNameExists(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	require.NoError(t, os.WriteFile("out", []byte("x"), 0o660))

	_, err := EnsureDir("out")
	require.Error(t, err, "should fail when a file exists with the same name")
}

func TestDetectLanguage(t *testing.T) {
	tests := map[string]string{
		"main.go":           "go",
		"src/app.PY":        "python",
		"README.md":         "markdown",
		"deploy/Dockerfile": "dockerfile",
		"Makefile":          "makefile",
		"notes":             "",
		"archive.tar.gz":    "",
	}
	for name, want := range tests {
		assert.Equal(t, want, DetectLanguage(name), name)
	}
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "main.go")
	b := filepath.Join(dir, "notes")
	require.NoError(t, os.WriteFile(a, []byte("package main\n"), 0o600))
	require.NoError(t, os.WriteFile(b, []byte("héllo"), 0o600))

	files, err := LoadFiles([]string{a, b})
	require.NoError(t, err)
	assert.Equal(t, []codec.File{
		{Name: "main.go", Content: "package main\n", Language: "go"},
		{Name: "notes", Content: "héllo"},
	}, files)
}

func TestLoadFiles_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFiles([]string{filepath.Join(dir, "missing.txt")})
	require.ErrorIs(t, err, os.ErrNotExist)

	bin := filepath.Join(dir, "blob.bin")
	require.NoError(t, os.WriteFile(bin, []byte{0xff, 0xfe, 0x00}, 0o600))
	_, err = LoadFiles([]string{bin})
	require.ErrorIs(t, err, ErrNotText)
}

func TestWriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	files := []codec.File{
		{Name: "a.go", Content: "package a\n"},
		{Name: "b.txt", Content: "b"},
	}

	paths, err := WriteFiles(dir, files)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "a.go"), filepath.Join(dir, "b.txt")}, paths)

	got, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "package a\n", string(got))
}

func TestWriteFiles_RejectsUnsafeNames(t *testing.T) {
	for _, name := range []string{"../evil", "a/b", `a\b`, "..", "."} {
		dir := filepath.Join(t.TempDir(), "out")
		_, err := WriteFiles(dir, []codec.File{{Name: "ok.txt"}, {Name: name}})
		require.ErrorIs(t, err, ErrUnsafeName, name)

		_, statErr := os.Stat(dir)
		assert.True(t, os.IsNotExist(statErr), "nothing written for %q", name)
	}
}
