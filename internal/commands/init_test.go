package commands_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/split-proj/atmsplit/internal/config"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "atmsplit-test-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	binaryPath = filepath.Join(tmpDir, "atmsplit")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/atmsplit")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	os.Exit(m.Run())
}

// runAtmsplit runs the binary with dir as its working directory.
func runAtmsplit(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()
	_, err := runAtmsplit(t, dir, "init", dir)
	require.NoError(t, err)

	expectedDirs := []string{
		"import",
		filepath.Join("import", "processed"),
		"reports",
		"logs",
	}
	for _, d := range expectedDirs {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}
}

func TestInit_Config(t *testing.T) {
	dir := t.TempDir()
	_, err := runAtmsplit(t, dir, "init", dir)
	require.NoError(t, err)

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestInit_RefusesExisting(t *testing.T) {
	dir := t.TempDir()
	_, err := runAtmsplit(t, dir, "init", dir)
	require.NoError(t, err)

	out, err := runAtmsplit(t, dir, "init", dir)
	require.Error(t, err)
	assert.Contains(t, out, "already exists")
}

func TestVersion(t *testing.T) {
	out, err := runAtmsplit(t, t.TempDir(), "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "atmsplit version dev")
}
