package scenario

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGolden_Scenarios(t *testing.T) {
	paths, err := Discover(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)

	for _, path := range paths {
		s, err := Load(path)
		require.NoError(t, err)

		t.Run(s.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestSnapshot_Deterministic(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "scenarios", "similar_remove.yaml"))
	require.NoError(t, err)

	var snapshots []string
	for range 3 {
		result, err := Run(s)
		require.NoError(t, err)
		b, err := Snapshot(s.Name, result)
		require.NoError(t, err)
		snapshots = append(snapshots, string(b))
	}

	assert.Equal(t, snapshots[0], snapshots[1])
	assert.Equal(t, snapshots[1], snapshots[2])
}

func TestSnapshot_FractionalData(t *testing.T) {
	s, err := Parse([]byte(`
name: fractional
steps:
  - op: attach
    group: g
    callback: done
  - op: trigger
    group: g
    id: a
    data: 1.5
    expect:
      fired: [done]
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Signals, 1)
	assert.Equal(t, "1.5", result.Signals[0].Data)

	b, err := Snapshot(s.Name, result)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"data":"1.5"`)
}

func TestSnapshot_CanonicalDataIsKept(t *testing.T) {
	result := NewResult()
	result.Trace = append(result.Trace, TraceEvent{Step: 1, Op: OpTrigger, Group: "g", Data: map[string]any{"n": 2}})

	b, err := Snapshot("canonical", result)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"data":{"n":2}`)
}
