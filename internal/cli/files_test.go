package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCollectFiles_MixedArgs(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.csv", "id\n1\n")
	b := writeFile(t, dir, "b.csv", "id\n1\n")
	writeFile(t, dir, "pgload.yaml", "project: x\n")

	other := t.TempDir()
	c := writeFile(t, other, "c.csv", "id\n1\n")

	files, err := collectFiles([]string{dir, c})
	require.NoError(t, err)

	// Sorted, config file excluded, explicit file included.
	assert.Equal(t, []string{a, b, c}, files)
}

func TestCollectFiles_NotRecursive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "top.csv", "id\n1\n")
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0755))
	writeFile(t, sub, "deep.csv", "id\n1\n")

	files, err := collectFiles([]string{dir})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "top.csv", filepath.Base(files[0]))
}

func TestCollectFiles_MissingPath(t *testing.T) {
	_, err := collectFiles([]string{"/nonexistent/nowhere.csv"})
	assert.Error(t, err)
}

func TestLocateConfig_ExplicitFlag(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "custom.yaml", "project: demo\n")

	cfg, err := locateConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.Project)
}

func TestLocateConfig_ExplicitFlagMissing(t *testing.T) {
	_, err := locateConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestLocateConfig_FromDirectoryArg(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pgload.yaml", "project: from_dir\n")
	writeFile(t, dir, "data.csv", "id\n1\n")

	cfg, err := locateConfig("", []string{dir})
	require.NoError(t, err)
	assert.Equal(t, "from_dir", cfg.Project)
}

func TestLocateConfig_NoneFound(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := locateConfig("", []string{t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pgload.yaml")
}
