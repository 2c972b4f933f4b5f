package cli

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const uploadScenario = `
name: upload
steps:
  - op: add_group
    group: upload
    id: file1
  - op: add_group
    group: upload
    id: file2
  - op: attach
    group: upload
    callback: done
  - op: trigger
    group: upload
    id: file1
    expect:
      result: false
  - op: trigger
    group: upload
    id: file2
    data: {size: 2}
    expect:
      fired: [done]
assertions:
  - type: fired_count
    callback: done
    count: 1
`

const failingScenario = `
name: failing
steps:
  - op: add_group
    group: g
    id: a
  - op: attach
    group: g
    callback: cb
  - op: trigger
    group: g
    id: b
    expect:
      result: true
`

const typoScenario = `
name: typo
steps:
  - op: atach
    group: g
    callback: cb
`

// isolate gives the test an empty working directory and config home, and
// restores the default logger afterwards.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Chdir(dir)

	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs the root command with args and returns stdout, stderr and
// the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
