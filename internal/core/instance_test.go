package core

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenContent = `version 1
0	test.map	5	5	0	0	4	4	8
1	test.map	5	5	4	0	0	4	8
garbage line without tabs
2	test.map	5	5	2	2	3	3	2
`

func TestNewInstanceFromScenario(t *testing.T) {
	g := parseMap(t, openMap5)

	dir := t.TempDir()
	scen := filepath.Join(dir, "test.scen")
	require.NoError(t, os.WriteFile(scen, []byte(scenContent), 0o644))

	ins, err := NewInstance(scen, g, 2)
	require.NoError(t, err)
	require.True(t, ins.IsValid())

	assert.Equal(t, 2, ins.N)
	assert.Equal(t, []int{0, 1}, ins.Enabled)
	assert.Empty(t, ins.Priority)
	assert.Equal(t, g.U[0], ins.Starts[0])
	assert.Equal(t, g.U[24], ins.Goals[0])
	assert.Equal(t, g.U[4], ins.Starts[1])
	assert.Equal(t, g.U[20], ins.Goals[1])
}

func TestNewInstanceTooFewRows(t *testing.T) {
	g := parseMap(t, openMap5)

	dir := t.TempDir()
	scen := filepath.Join(dir, "short.scen")
	require.NoError(t, os.WriteFile(scen, []byte(scenContent), 0o644))

	ins, err := NewInstance(scen, g, 10)
	require.NoError(t, err)
	assert.False(t, ins.IsValid())
}

func TestNewSubInstance(t *testing.T) {
	g := parseMap(t, openMap5)
	starts := Config{g.U[3], g.U[9]}
	goals := Config{g.U[21], g.U[15]}
	ins := NewSubInstance(g, starts, goals, []int{4, 7}, []float32{1.5, 0.25})

	require.True(t, ins.IsValid())
	assert.Equal(t, 2, ins.N)
	assert.Equal(t, []int{4, 7}, ins.Enabled)
	assert.Equal(t, []float32{1.5, 0.25}, ins.Priority)
}

func TestRandomInstance(t *testing.T) {
	g := parseMap(t, openMap5)
	ins, err := RandomInstance(g, 10, rand.New(rand.NewSource(0)))
	require.NoError(t, err)
	require.True(t, ins.IsValid())

	seenStarts := map[int]bool{}
	seenGoals := map[int]bool{}
	for i := 0; i < ins.N; i++ {
		assert.False(t, seenStarts[ins.Starts[i].ID])
		assert.False(t, seenGoals[ins.Goals[i].ID])
		seenStarts[ins.Starts[i].ID] = true
		seenGoals[ins.Goals[i].ID] = true
	}

	_, err = RandomInstance(g, 26, rand.New(rand.NewSource(0)))
	assert.Error(t, err)
}
